package blockcache

import "time"
import "errors"
import "strconv"

import "github.com/hashicorp/golang-lru/simplelru"
import "github.com/tliron/commonlog"

import "github.com/tinne26/closecap/capdir"

var log = commonlog.GetLogger("closecap.blockcache")

var ErrEvicted    = errors.New("block no longer resident")
var ErrOutOfRange = errors.New("block out of range")

// Default resident bytes budget.
const DefaultBudget = 64*1024

// Default maximum wait for in-flight reads on synchronous flush points.
const DefaultFlushTimeout = 2*time.Second

// A caption database as seen by the cache: where it lives and how
// its data section is laid out.
type File struct {
	Path string
	Header capdir.Header
}

// Convenience constructor for all the files of a directory set, in
// file index order.
func FilesFromSet(set *capdir.Set) []File {
	files := make([]File, set.Len())
	for i := range files {
		dir := set.Directory(i)
		files[i] = File{ Path: dir.Path(), Header: dir.Header() }
	}
	return files
}

// The block cache manager. See the package documentation for the
// general model.
//
// Managers are not concurrent-safe: all methods must be called from
// the same goroutine.
type Manager struct {
	reader AsyncReader
	files []File
	slots []slot
	freeSlots []int32
	order *simplelru.LRU // Key -> slot index, oldest first
	budget int64
	residentBytes int64
	peakBytes int64
	flushTimeout time.Duration
	stats Stats
}

// Creates a new manager reading through the given reader and bounded by
// the given byte budget. Budgets below one block still allow one unlocked
// block to be resident at a time.
func NewManager(reader AsyncReader, budget int) *Manager {
	if reader == nil { panic("nil AsyncReader") }
	if budget < 0 { panic("budget < 0") }
	order, err := simplelru.NewLRU(1 << 30, nil) // bounded by bytes, not entries
	if err != nil { panic(err) }
	return &Manager {
		reader: reader,
		order: order,
		budget: int64(budget),
		flushTimeout: DefaultFlushTimeout,
	}
}

// Sets the databases known to the cache. Any resident blocks are
// flushed first, as file indices may no longer mean the same.
func (self *Manager) SetFiles(files []File) {
	self.Clear()
	self.files = append(self.files[ : 0], files...)
}

// Sets the maximum time that synchronous flush points wait for
// in-flight reads before abandoning them.
func (self *Manager) SetFlushTimeout(timeout time.Duration) {
	if timeout < 0 { timeout = 0 }
	self.flushTimeout = timeout
}

// Changes the byte budget, evicting blocks if necessary.
func (self *Manager) SetBudget(budget int) {
	if budget < 0 { panic("budget < 0") }
	self.budget = int64(budget)
	self.evictOverBudget(-1)
}

// Returns the configured byte budget.
func (self *Manager) Budget() int { return int(self.budget) }

// Returns the number of bytes taken by resident blocks.
func (self *Manager) ApproxByteSize() int { return int(self.residentBytes) }

// Returns the maximum amount of bytes that the cache has been filled
// with at any point of its life. Locked blocks can push this above
// the budget.
func (self *Manager) PeakSize() int { return int(self.peakBytes) }

// Finds the given block or creates a slot for it. Existing blocks are
// moved to the most recently used position. New blocks are not loaded
// until [Manager.BeginLoad]() is called.
func (self *Manager) FindOrCreate(fileIndex, blockNumber int) (Handle, error) {
	if fileIndex < 0 || fileIndex >= len(self.files) { return Handle{}, ErrOutOfRange }
	file := &self.files[fileIndex]
	if blockNumber < 0 || blockNumber >= int(file.Header.NumBlocks) { return Handle{}, ErrOutOfRange }

	key := Key{ FileIndex: int32(fileIndex), BlockNumber: int32(blockNumber) }
	value, found := self.order.Get(key) // moves to MRU
	if found {
		self.stats.Hits += 1
		index := value.(int32)
		return Handle{ index: index, gen: self.slots[index].gen }, nil
	}

	// create a new slot
	self.stats.Misses += 1
	index := self.allocSlot()
	target := &self.slots[index]
	target.key = key
	target.live = true
	target.offset = file.Header.BlockOffset(int32(blockNumber))
	target.size = int64(file.Header.BlockSize)
	target.data = make([]byte, target.size)
	self.order.Add(key, index)
	self.residentBytes += target.size
	if self.residentBytes > self.peakBytes { self.peakBytes = self.residentBytes }
	self.evictOverBudget(index)
	return Handle{ index: index, gen: target.gen }, nil
}

func (self *Manager) allocSlot() int32 {
	if len(self.freeSlots) > 0 {
		index := self.freeSlots[len(self.freeSlots) - 1]
		self.freeSlots = self.freeSlots[ : len(self.freeSlots) - 1]
		return index
	}
	self.slots = append(self.slots, slot{ gen: 1 })
	return int32(len(self.slots) - 1)
}

func (self *Manager) resolve(handle Handle) *slot {
	if handle.gen == 0 || handle.index < 0 || int(handle.index) >= len(self.slots) { return nil }
	target := &self.slots[handle.index]
	if !target.live || target.gen != handle.gen { return nil }
	return target
}

// Returns whether the handle still refers to a resident block.
func (self *Manager) IsResident(handle Handle) bool {
	return self.resolve(handle) != nil
}

// Returns whether the block's async load has completed successfully.
func (self *Manager) IsCompleted(handle Handle) bool {
	target := self.resolve(handle)
	return target != nil && target.load != nil && target.load.completed.Load()
}

// Returns whether the block's async load has been issued and hasn't
// finished yet.
func (self *Manager) IsPending(handle Handle) bool {
	target := self.resolve(handle)
	return target != nil && target.state() == SlotPending
}

// Issues the async read for the given block, unless it has already been
// issued. Reads are never issued more than once per resident block, even
// if they fail.
func (self *Manager) BeginLoad(handle Handle) error {
	target := self.resolve(handle)
	if target == nil { return ErrEvicted }
	if target.load != nil { return nil }

	load := &blockLoad{ data: target.data }
	target.load = load
	self.stats.Loads += 1
	path := self.files[target.key.FileIndex].Path
	ctrl, err := self.reader.AsyncRead(path, target.offset, load.data, func(err error) {
		// may run on any goroutine: flags only
		if err != nil {
			load.failed.Store(true)
		} else {
			load.completed.Store(true)
		}
	})
	if err != nil {
		load.failed.Store(true)
		load.released = true
		self.stats.Failures += 1
		log.Warningf("block %s load failed: %s", keyString(target.key), err.Error())
		return err
	}
	load.ctrl = ctrl
	return nil
}

// Locks the given block, preventing its eviction until the matching
// [Manager.Unlock](). Locks can be taken before the load completes;
// see [View.Ready](). Returns false if the block is no longer resident,
// in which case the caller must recreate it.
func (self *Manager) Lock(handle Handle) (View, bool) {
	target := self.resolve(handle)
	if target == nil { return View{}, false }
	target.locks += 1
	return View{ load: target.load, data: target.data }, true
}

// Releases a lock taken with [Manager.Lock](). Blocks are not evicted
// immediately when their last lock is released.
func (self *Manager) Unlock(handle Handle) {
	target := self.resolve(handle)
	if target == nil || target.locks == 0 { return }
	target.locks -= 1
}

// Scoped access to a loaded block. The given function is only invoked
// if the block is resident and loaded, and the data slice must not be
// retained after it returns. Returns whether the function was invoked.
func (self *Manager) With(handle Handle, fn func(data []byte)) bool {
	view, ok := self.Lock(handle)
	if !ok { return false }
	defer self.Unlock(handle)
	data := view.Bytes()
	if data == nil { return false }
	fn(data)
	return true
}

// Waits up to the given timeout for the block load to finish. Returns
// whether the block is loaded. Meant for synchronous paths like debug
// commands, never for the frame loop.
func (self *Manager) Wait(handle Handle, timeout time.Duration) bool {
	target := self.resolve(handle)
	if target == nil || target.load == nil { return false }
	if target.load.ctrl != nil && !target.load.released {
		self.reader.AsyncFinish(target.load.ctrl, timeout)
	}
	return target.load.completed.Load()
}

// Reconciles finished async reads: releases their control handles and
// logs failures. Should be called once per frame.
func (self *Manager) Poll() {
	for i := range self.slots {
		target := &self.slots[i]
		if !target.live || target.load == nil || target.load.released { continue }
		if !target.load.finished() { continue }
		self.release(target)
	}
}

func (self *Manager) release(target *slot) {
	load := target.load
	if load.ctrl != nil { self.reader.AsyncRelease(load.ctrl) }
	load.released = true
	if load.failed.Load() {
		self.stats.Failures += 1
		log.Warningf("block %s load failed", keyString(target.key))
	}
}

func (self *Manager) evictOverBudget(keep int32) {
	if self.residentBytes <= self.budget { return }
	for _, key := range self.order.Keys() { // oldest first
		value, _ := self.order.Peek(key)
		index := value.(int32)
		if index == keep || self.slots[index].locks > 0 { continue }
		self.evict(index)
		if self.residentBytes <= self.budget { return }
	}
}

func (self *Manager) evict(index int32) {
	target := &self.slots[index]
	self.settle(target)
	self.order.Remove(target.key)
	self.residentBytes -= target.size
	self.stats.Evictions += 1
	target.live = false
	target.gen += 1
	target.locks = 0
	target.data = nil
	target.load = nil
	self.freeSlots = append(self.freeSlots, index)
}

// Waits for in-flight reads before a slot goes away. If the read doesn't
// finish in time it's abandoned: the load keeps its own buffer, so a late
// completion can't write into memory reused by someone else.
func (self *Manager) settle(target *slot) {
	load := target.load
	if load == nil || load.released { return }
	if !load.finished() && load.ctrl != nil {
		if !self.reader.AsyncFinish(load.ctrl, self.flushTimeout) {
			self.stats.Abandoned += 1
			log.Warningf("block %s read still in flight after %s, abandoned", keyString(target.key), self.flushTimeout)
		}
	}
	self.release(target)
}

// Evicts every block, locked or not, synchronously settling in-flight
// reads first. All existing handles become stale.
func (self *Manager) Clear() {
	for i := range self.slots {
		if !self.slots[i].live { continue }
		self.evict(int32(i))
	}
	self.order.Purge()
	self.residentBytes = 0
}

// Calls the given function for each resident block, from least to
// most recently used.
func (self *Manager) EachSlot(fn func(SlotInfo)) {
	for _, key := range self.order.Keys() {
		value, _ := self.order.Peek(key)
		target := &self.slots[value.(int32)]
		fn(SlotInfo{ Key: target.key, State: target.state(), Locks: target.locks })
	}
}

// Returns the number of resident blocks.
func (self *Manager) Len() int { return self.order.Len() }

func keyString(key Key) string {
	return strconv.Itoa(int(key.FileIndex)) + ":" + strconv.Itoa(int(key.BlockNumber))
}
