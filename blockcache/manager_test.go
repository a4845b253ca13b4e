package blockcache

import "os"
import "time"
import "errors"
import "testing"
import "path/filepath"

import "github.com/tinne26/closecap/capdir"

// Reader that completes reads only when told to.
type manualReader struct {
	reads []*manualRead
	fail error
}

type manualRead struct {
	path string
	offset int64
	dst []byte
	done func(error)
	finished bool
	released bool
}

func (self *manualReader) AsyncRead(path string, offset int64, dst []byte, done func(error)) (Control, error) {
	if self.fail != nil { return nil, self.fail }
	read := &manualRead{ path: path, offset: offset, dst: dst, done: done }
	self.reads = append(self.reads, read)
	return read, nil
}

func (self *manualReader) AsyncFinish(ctrl Control, wait time.Duration) bool {
	return ctrl.(*manualRead).finished
}

func (self *manualReader) AsyncRelease(ctrl Control) {
	ctrl.(*manualRead).released = true
}

func (self *manualRead) complete(err error) {
	if err == nil {
		for i := range self.dst { self.dst[i] = byte(self.offset) + byte(i) }
	}
	self.finished = true
	self.done(err)
}

func testFiles(blockSize int32, numBlocks int32) []File {
	header := capdir.Header{ BlockSize: blockSize, DataOffset: 512, NumBlocks: numBlocks }
	return []File{ { Path: "a.dat", Header: header }, { Path: "b.dat", Header: header } }
}

func testManager(budget int) (*Manager, *manualReader) {
	reader := &manualReader{}
	manager := NewManager(reader, budget)
	manager.SetFiles(testFiles(100, 8))
	return manager, reader
}

func mustFind(t *testing.T, manager *Manager, file, block int) Handle {
	t.Helper()
	handle, err := manager.FindOrCreate(file, block)
	if err != nil { t.Fatalf("FindOrCreate(%d, %d): %s", file, block, err) }
	return handle
}

func lruKeys(manager *Manager) []Key {
	var keys []Key
	manager.EachSlot(func(info SlotInfo) { keys = append(keys, info.Key) })
	return keys
}

func TestFindOrCreate(t *testing.T) {
	manager, _ := testManager(1000)
	h1 := mustFind(t, manager, 0, 3)
	h2 := mustFind(t, manager, 0, 3)
	if h1 != h2 { t.Fatalf("expected same handle, got %v and %v", h1, h2) }
	if manager.Len() != 1 { t.Fatalf("expected 1 resident block, got %d", manager.Len()) }
	if manager.ApproxByteSize() != 100 { t.Fatalf("expected 100 bytes, got %d", manager.ApproxByteSize()) }

	h3 := mustFind(t, manager, 1, 3)
	if h3 == h1 { t.Fatal("different files must not share blocks") }
	stats := manager.Stats()
	if stats.Hits != 1 || stats.Misses != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	_, err := manager.FindOrCreate(0, 8)
	if !errors.Is(err, ErrOutOfRange) { t.Fatalf("expected ErrOutOfRange, got %v", err) }
	_, err = manager.FindOrCreate(2, 0)
	if !errors.Is(err, ErrOutOfRange) { t.Fatalf("expected ErrOutOfRange, got %v", err) }
}

func TestTouchKeepsBytes(t *testing.T) {
	manager, _ := testManager(1000)
	mustFind(t, manager, 0, 0)
	mustFind(t, manager, 0, 1)
	before := manager.ApproxByteSize()
	mustFind(t, manager, 0, 0)
	if manager.ApproxByteSize() != before {
		t.Fatalf("touch changed resident bytes from %d to %d", before, manager.ApproxByteSize())
	}
	keys := lruKeys(manager)
	if len(keys) != 2 || keys[1] != (Key{0, 0}) {
		t.Fatalf("expected block 0 to be most recently used, got %v", keys)
	}
}

func TestEvictionOrder(t *testing.T) {
	manager, _ := testManager(300)
	b0 := mustFind(t, manager, 0, 0)
	mustFind(t, manager, 0, 1)
	mustFind(t, manager, 0, 2)
	mustFind(t, manager, 0, 0) // touch
	mustFind(t, manager, 0, 3) // evicts block 1, least recently used

	keys := lruKeys(manager)
	expected := []Key{ {0, 2}, {0, 0}, {0, 3} }
	if len(keys) != len(expected) { t.Fatalf("expected %v, got %v", expected, keys) }
	for i := range keys {
		if keys[i] != expected[i] { t.Fatalf("expected %v, got %v", expected, keys) }
	}
	if !manager.IsResident(b0) { t.Fatal("touched block was evicted") }
	if manager.ApproxByteSize() > manager.Budget() {
		t.Fatalf("resident %d over budget %d", manager.ApproxByteSize(), manager.Budget())
	}
	if manager.Stats().Evictions != 1 { t.Fatalf("expected 1 eviction, got %d", manager.Stats().Evictions) }
}

func TestLockedNotEvicted(t *testing.T) {
	manager, _ := testManager(200)
	b0 := mustFind(t, manager, 0, 0)
	b1 := mustFind(t, manager, 0, 1)
	if _, ok := manager.Lock(b0); !ok { t.Fatal("lock failed") }
	if _, ok := manager.Lock(b1); !ok { t.Fatal("lock failed") }

	b2 := mustFind(t, manager, 0, 2)
	if !manager.IsResident(b0) || !manager.IsResident(b1) {
		t.Fatal("locked block evicted")
	}
	if !manager.IsResident(b2) { t.Fatal("new block must stay resident") }
	if manager.PeakSize() != 300 { t.Fatalf("expected peak 300, got %d", manager.PeakSize()) }

	// once unlocked, the next insertion brings the cache under budget
	manager.Unlock(b0)
	manager.Unlock(b1)
	mustFind(t, manager, 0, 3)
	if manager.ApproxByteSize() > manager.Budget() {
		t.Fatalf("resident %d over budget %d", manager.ApproxByteSize(), manager.Budget())
	}
	if manager.IsResident(b0) || manager.IsResident(b1) {
		t.Fatal("expected least recently used unlocked blocks to be evicted")
	}
}

func TestStaleHandle(t *testing.T) {
	manager, _ := testManager(100)
	b0 := mustFind(t, manager, 0, 0)
	mustFind(t, manager, 0, 1) // evicts b0
	if manager.IsResident(b0) { t.Fatal("expected b0 to be evicted") }
	if _, ok := manager.Lock(b0); ok { t.Fatal("lock on evicted handle must fail") }
	if err := manager.BeginLoad(b0); !errors.Is(err, ErrEvicted) {
		t.Fatalf("expected ErrEvicted, got %v", err)
	}

	// the slot gets reused, but the old handle keeps failing
	b2 := mustFind(t, manager, 0, 2)
	if b2.index != b0.index { t.Fatalf("expected slot reuse") }
	if manager.IsResident(b0) { t.Fatal("stale handle resolved after slot reuse") }
	var zero Handle
	if !zero.IsZero() || manager.IsResident(zero) { t.Fatal("zero handle must not resolve") }
}

func TestLoadOnce(t *testing.T) {
	manager, reader := testManager(1000)
	b0 := mustFind(t, manager, 0, 2)
	for i := 0; i < 3; i++ {
		if err := manager.BeginLoad(b0); err != nil { t.Fatal(err) }
	}
	if len(reader.reads) != 1 { t.Fatalf("expected 1 read, got %d", len(reader.reads)) }
	if reader.reads[0].offset != 512 + 200 { t.Fatalf("unexpected offset %d", reader.reads[0].offset) }
	if !manager.IsPending(b0) || manager.IsCompleted(b0) { t.Fatal("expected pending load") }

	view, _ := manager.Lock(b0)
	if view.Ready() || view.Bytes() != nil { t.Fatal("view ready before completion") }
	reader.reads[0].complete(nil)
	if !view.Ready() || len(view.Bytes()) != 100 { t.Fatal("view not ready after completion") }
	manager.Unlock(b0)

	manager.Poll()
	if !reader.reads[0].released { t.Fatal("finished read not released on poll") }
	if !manager.IsCompleted(b0) { t.Fatal("expected completed load") }

	var first byte
	if !manager.With(b0, func(data []byte) { first = data[0] }) { t.Fatal("With not invoked") }
	if first != byte(712 % 256) { t.Fatalf("unexpected data %d", first) }

	// a second failed block doesn't get reissued either
	b1 := mustFind(t, manager, 0, 1)
	_ = manager.BeginLoad(b1)
	reader.reads[1].complete(errors.New("disk on fire"))
	manager.Poll()
	_ = manager.BeginLoad(b1)
	if len(reader.reads) != 2 { t.Fatalf("failed load was reissued") }
	if manager.IsCompleted(b1) { t.Fatal("failed load must never complete") }
	if manager.With(b1, func([]byte) {}) { t.Fatal("With invoked on failed block") }
	if manager.Stats().Failures != 1 { t.Fatalf("expected 1 failure, got %d", manager.Stats().Failures) }
}

func TestIssueFailure(t *testing.T) {
	manager, reader := testManager(1000)
	reader.fail = errors.New("no such file")
	b0 := mustFind(t, manager, 0, 0)
	if err := manager.BeginLoad(b0); err == nil { t.Fatal("expected error") }
	if err := manager.BeginLoad(b0); err != nil { t.Fatal("failed loads must not be reissued") }
	if manager.IsCompleted(b0) || manager.IsPending(b0) { t.Fatal("unexpected load state") }
}

func TestClear(t *testing.T) {
	manager, reader := testManager(1000)
	b0 := mustFind(t, manager, 0, 0)
	b1 := mustFind(t, manager, 1, 0)
	_ = manager.BeginLoad(b0)
	_ = manager.BeginLoad(b1)
	reader.reads[0].complete(nil)
	manager.Lock(b1)

	manager.SetFlushTimeout(0)
	manager.Clear()
	if manager.Len() != 0 || manager.ApproxByteSize() != 0 {
		t.Fatalf("clear left %d blocks, %d bytes", manager.Len(), manager.ApproxByteSize())
	}
	if manager.IsResident(b0) || manager.IsResident(b1) { t.Fatal("handles resolve after clear") }
	if !reader.reads[0].released || !reader.reads[1].released {
		t.Fatal("clear must release all reads")
	}
	if manager.Stats().Abandoned != 1 { t.Fatalf("expected 1 abandoned read, got %d", manager.Stats().Abandoned) }

	// late completion of the abandoned read is harmless
	reader.reads[1].complete(nil)
	b1 = mustFind(t, manager, 1, 0)
	if manager.IsCompleted(b1) || manager.IsPending(b1) { t.Fatal("late completion leaked into new slot") }
}

func TestFileReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.dat")
	data := make([]byte, 512 + 150)
	for i := range data { data[i] = byte(i % 251) }
	if err := os.WriteFile(path, data, 0644); err != nil { t.Fatal(err) }

	reader := NewFileReader(2)
	defer reader.Close()
	header := capdir.Header{ BlockSize: 100, DataOffset: 512, NumBlocks: 2 }
	manager := NewManager(reader, 1000)
	manager.SetFiles([]File{ { Path: path, Header: header } })

	b1 := mustFind(t, manager, 0, 1) // short block
	if err := manager.BeginLoad(b1); err != nil { t.Fatal(err) }
	if !manager.Wait(b1, 5*time.Second) { t.Fatal("read didn't complete") }
	ok := manager.With(b1, func(block []byte) {
		for i := 0; i < 50; i++ {
			if block[i] != data[612 + i] { t.Fatalf("byte %d mismatch", i) }
		}
		for i := 50; i < 100; i++ {
			if block[i] != 0 { t.Fatalf("byte %d expected zeroed", i) }
		}
	})
	if !ok { t.Fatal("With not invoked") }
	manager.Poll()

	reader2 := NewFileReader(1)
	defer reader2.Close()
	_, err := reader2.AsyncRead(filepath.Join(t.TempDir(), "missing.dat"), 0, make([]byte, 4), func(error) {})
	if err == nil { t.Fatal("expected error on missing file") }
}
