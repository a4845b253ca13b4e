package blockcache

// Cache counters, see [Manager.Stats]().
type Stats struct {
	Hits int
	Misses int
	Loads int // async reads issued
	Failures int
	Evictions int
	Abandoned int // reads still in flight on eviction timeouts

	Resident int
	ResidentBytes int
	PeakBytes int
	Budget int
}

// Returns a snapshot of the cache counters.
func (self *Manager) Stats() Stats {
	stats := self.stats
	stats.Resident = self.order.Len()
	stats.ResidentBytes = int(self.residentBytes)
	stats.PeakBytes = int(self.peakBytes)
	stats.Budget = int(self.budget)
	return stats
}
