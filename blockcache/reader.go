package blockcache

import "os"
import "io"
import "sync"
import "time"
import "context"

import "golang.org/x/sync/semaphore"

// An opaque handle for an in-flight async read.
type Control any

// AsyncReader is the file system capability used by the [Manager]. It's
// the only way the manager reaches the disk.
//
// The done callback may be invoked from any goroutine, but it must be
// invoked exactly once per successful AsyncRead() call, and before
// AsyncFinish() starts reporting the read as finished.
type AsyncReader interface {
	// Starts reading len(dst) bytes at the given offset of the file at
	// path into dst. The buffer must not be touched until done is called.
	AsyncRead(path string, offset int64, dst []byte, done func(error)) (Control, error)

	// Waits up to the given duration for the read to finish. A zero wait
	// only polls. Returns whether the read has finished (successfully or
	// not).
	AsyncFinish(ctrl Control, wait time.Duration) bool

	// Releases any resources associated to the control handle. Releasing
	// a read that hasn't finished yet doesn't cancel it.
	AsyncRelease(ctrl Control)
}

// The default [AsyncReader], using goroutines and [os.File.ReadAt].
// The number of concurrent reads is bounded with a weighted semaphore.
type FileReader struct {
	files map[string]*os.File
	slots *semaphore.Weighted
	mutex sync.Mutex
}

type fileRead struct {
	done chan struct{}
}

// Creates a new file reader allowing up to the given number of reads
// in flight at once.
func NewFileReader(maxInFlight int) *FileReader {
	if maxInFlight <= 0 { maxInFlight = 1 }
	return &FileReader {
		files: make(map[string]*os.File),
		slots: semaphore.NewWeighted(int64(maxInFlight)),
	}
}

func (self *FileReader) open(path string) (*os.File, error) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	file, found := self.files[path]
	if found { return file, nil }
	file, err := os.Open(path)
	if err != nil { return nil, err }
	self.files[path] = file
	return file, nil
}

// Implements [AsyncReader].
func (self *FileReader) AsyncRead(path string, offset int64, dst []byte, done func(error)) (Control, error) {
	file, err := self.open(path)
	if err != nil { return nil, err }

	op := &fileRead{ done: make(chan struct{}) }
	go func() {
		defer close(op.done)
		_ = self.slots.Acquire(context.Background(), 1) // can't fail with a background ctx
		n, err := file.ReadAt(dst, offset)
		self.slots.Release(1)
		if err == io.EOF && n > 0 {
			// short last block, the rest stays zeroed
			for i := n; i < len(dst); i++ { dst[i] = 0 }
			err = nil
		}
		done(err)
	}()
	return op, nil
}

// Implements [AsyncReader].
func (self *FileReader) AsyncFinish(ctrl Control, wait time.Duration) bool {
	op := ctrl.(*fileRead)
	if wait <= 0 {
		select {
		case <-op.done: return true
		default: return false
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-op.done: return true
	case <-timer.C: return false
	}
}

// Implements [AsyncReader].
func (self *FileReader) AsyncRelease(ctrl Control) {}

// Closes all the files opened by the reader. Reads still in flight
// will fail.
func (self *FileReader) Close() error {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	var firstErr error
	for path, file := range self.files {
		err := file.Close()
		if err != nil && firstErr == nil { firstErr = err }
		delete(self.files, path)
	}
	return firstErr
}
