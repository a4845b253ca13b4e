// The ledger subpackage implements caption repeat suppression.
//
// Captions are keyed by hash. Without an explicit interval, a caption
// is only suppressed if it was already emitted on the same simulation
// tick, which avoids duplicates when several triggers fire together.
// With an explicit interval, it's suppressed while less wall-clock time
// than the interval has passed since the last accepted emission.
package ledger

import "time"

type entry struct {
	wallTime time.Time
	tick uint64
}

// A repeat suppression table. Tables are not concurrent-safe.
type Table struct {
	entries map[uint32]entry
}

// Creates a new empty table.
func NewTable() *Table {
	return &Table{ entries: make(map[uint32]entry) }
}

// Reports whether the caption with the given hash can be emitted now,
// and records the emission if it can. A non-positive interval means
// "no explicit interval".
func (self *Table) Allow(hash uint32, interval time.Duration, now time.Time, tick uint64) bool {
	last, found := self.entries[hash]
	if found {
		if interval > 0 {
			if now.Sub(last.wallTime) < interval { return false }
		} else if last.tick == tick {
			return false
		}
	}
	self.entries[hash] = entry{ wallTime: now, tick: tick }
	return true
}

// Returns the time of the last accepted emission for the given hash.
func (self *Table) LastEmit(hash uint32) (time.Time, bool) {
	last, found := self.entries[hash]
	return last.wallTime, found
}

// Number of distinct captions recorded.
func (self *Table) Len() int { return len(self.entries) }

// Forgets all the recorded emissions.
func (self *Table) Clear() { clear(self.entries) }

// The two suppression tables used by a caption session: one for
// regular captions and one for sentence streams.
type Ledger struct {
	Captions *Table
	Streams *Table
}

func New() *Ledger {
	return &Ledger{ Captions: NewTable(), Streams: NewTable() }
}

// Clears both tables. Used on level shutdown and cache flushes.
func (self *Ledger) Clear() {
	self.Captions.Clear()
	self.Streams.Clear()
}
