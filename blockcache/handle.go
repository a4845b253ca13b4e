package blockcache

import "sync/atomic"

// Identifies a block within the set of caption databases.
type Key struct {
	FileIndex int32
	BlockNumber int32
}

// A stable reference to a cache slot. The zero value is never valid.
// Handles become stale (and stop resolving) once their block is evicted.
type Handle struct {
	index int32
	gen uint32
}

// Returns whether the handle has ever been assigned. A non-zero handle
// may still be stale.
func (self Handle) IsZero() bool { return self.gen == 0 }

// State of a single async block load. Only the flags are touched
// from completion callbacks.
type blockLoad struct {
	ctrl Control
	data []byte
	completed atomic.Bool
	failed atomic.Bool
	released bool // main thread only
}

func (self *blockLoad) finished() bool {
	return self.completed.Load() || self.failed.Load()
}

// A read-only view into a locked block. Views are only meaningful
// between [Manager.Lock]() and the matching [Manager.Unlock]().
type View struct {
	load *blockLoad
	data []byte
}

// Returns whether the block data has been loaded.
func (self View) Ready() bool {
	return self.load != nil && self.load.completed.Load()
}

// Returns the block bytes, or nil if the block isn't loaded yet.
// The slice must not be modified nor retained after unlocking.
func (self View) Bytes() []byte {
	if !self.Ready() { return nil }
	return self.data
}

// Slot states reported by [Manager.EachSlot]().
type SlotState uint8
const (
	SlotIdle SlotState = iota // resident, load not requested yet
	SlotPending
	SlotCompleted
	SlotFailed
)

func (self SlotState) String() string {
	switch self {
	case SlotIdle     : return "idle"
	case SlotPending  : return "pending"
	case SlotCompleted: return "completed"
	case SlotFailed   : return "failed"
	default:
		return "unknown"
	}
}

// Information about a resident slot, see [Manager.EachSlot]().
type SlotInfo struct {
	Key Key
	State SlotState
	Locks int
}

type slot struct {
	key Key
	gen uint32
	live bool
	offset int64
	size int64
	locks int
	data []byte
	load *blockLoad
}

func (self *slot) state() SlotState {
	switch {
	case self.load == nil: return SlotIdle
	case self.load.completed.Load(): return SlotCompleted
	case self.load.failed.Load(): return SlotFailed
	default:
		return SlotPending
	}
}
