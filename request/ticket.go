package request

import "strings"
import "time"

import "github.com/tinne26/closecap/blockcache"
import "github.com/tinne26/closecap/capdir"

// Request kinds.
type Kind uint8
const (
	KindSingle Kind = iota
	KindSentence // space separated word tokens
	KindRandom
)

func (self Kind) String() string {
	switch self {
	case KindSingle  : return "single"
	case KindSentence: return "sentence"
	case KindRandom  : return "random"
	default:
		return "unknown"
	}
}

// Options passed along with a request. The pipeline doesn't interpret
// them, they are carried for whoever consumes the assembled ticket.
type Options struct {
	Duration time.Duration
	FromPlayer bool
	Direct bool // bypasses the main captions toggle
	Tick uint64 // simulation tick of the request
}

type part struct {
	token string // may be empty for requests by hash
	location capdir.Location
	handle blockcache.Handle // zero until requested
	ready bool
	text string
}

// An in-flight caption request. Tickets are created by the [Pipeline]
// with a single reference.
type Ticket struct {
	kind Kind
	hash uint32
	options Options
	parts []part
	age time.Duration
	refs int
	text string
	assembled bool
	maxRunes int
}

// Returns the request kind.
func (self *Ticket) Kind() Kind { return self.kind }

// Returns the hash identifying the request. For sentences, this
// is the hash of the whole space separated token list.
func (self *Ticket) Hash() uint32 { return self.hash }

// Returns the request options.
func (self *Ticket) Options() Options { return self.options }

// Returns the time the ticket has been pending.
func (self *Ticket) Age() time.Duration { return self.age }

// Returns the number of parts (1 except for sentences).
func (self *Ticket) Len() int { return len(self.parts) }

// Returns whether all the parts have been copied out of their blocks.
func (self *Ticket) IsReady() bool {
	for i := range self.parts {
		if !self.parts[i].ready { return false }
	}
	return true
}

// Adds a reference to the ticket.
func (self *Ticket) Retain() { self.refs += 1 }

// Drops a reference to the ticket. Tickets without references are
// pruned by the next [Pipeline.Poll]().
func (self *Ticket) Release() {
	if self.refs > 0 { self.refs -= 1 }
}

// Returns whether the ticket has been abandoned by all its owners.
func (self *Ticket) IsAbandoned() bool { return self.refs <= 0 }

// Returns the full caption text, or false if some part isn't ready yet.
// Sentence parts are joined with single spaces.
func (self *Ticket) TryAssemble() (string, bool) {
	if self.assembled { return self.text, true }
	if !self.IsReady() { return "", false }

	if len(self.parts) == 1 {
		self.text = self.parts[0].text
	} else {
		var builder strings.Builder
		for i := range self.parts {
			if i > 0 { builder.WriteByte(' ') }
			builder.WriteString(self.parts[i].text)
		}
		self.text = builder.String()
	}
	self.text = truncateRunes(self.text, self.maxRunes)
	self.assembled = true
	return self.text, true
}

// Copies the part's bytes out of the given block data.
func (self *part) copyFrom(data []byte) bool {
	entry := self.location.Entry
	start := int(entry.ByteOffset)
	end := start + int(entry.ByteLength)
	if start < 0 || end > len(data) { return false }
	self.text = capdir.DecodeText(data[start : end])
	self.ready = true
	return true
}

func (self *part) request(cache *blockcache.Manager) (blockcache.Handle, error) {
	handle, err := cache.FindOrCreate(self.location.FileIndex, int(self.location.Entry.BlockNumber))
	if err != nil { return handle, err }
	return handle, cache.BeginLoad(handle)
}

func truncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 || len(text) <= maxRunes { return text }
	count := 0
	for i := range text {
		if count == maxRunes { return text[ : i] }
		count += 1
	}
	return text
}
