package request

import "time"
import "errors"
import "strings"

import "github.com/tliron/commonlog"

import "github.com/tinne26/closecap/blockcache"
import "github.com/tinne26/closecap/capdir"

var log = commonlog.GetLogger("closecap.request")

var ErrUnresolved = errors.New("caption not found")
var ErrBlank      = errors.New("caption intentionally blank")
var ErrEmpty      = errors.New("empty request")

// Default maximum time a ticket can stay pending.
const DefaultMaxAge = 10*time.Second

// Source of randomness for [Pipeline.RequestRandom](). Satisfied by
// *math/rand.Rand.
type Rand interface {
	Intn(n int) int
}

// The caption request pipeline. Like the block cache, pipelines must
// be used from a single goroutine.
type Pipeline struct {
	set *capdir.Set
	cache *blockcache.Manager
	pending []*Ticket
	maxAge time.Duration
	maxRunes int
}

// Creates a new pipeline resolving requests against the given set and
// loading blocks through the given cache manager.
func New(set *capdir.Set, cache *blockcache.Manager) *Pipeline {
	if set == nil || cache == nil { panic("nil set or cache") }
	return &Pipeline{ set: set, cache: cache, maxAge: DefaultMaxAge }
}

// Sets the maximum time a ticket can stay pending before being
// dropped. Zero or negative values disable aging out.
func (self *Pipeline) SetMaxAge(maxAge time.Duration) { self.maxAge = maxAge }

// Sets the maximum caption length in runes. Assembled text beyond
// that is truncated. Zero disables truncation.
func (self *Pipeline) SetMaxRunes(maxRunes int) {
	if maxRunes < 0 { maxRunes = 0 }
	self.maxRunes = maxRunes
}

// Returns the number of pending tickets.
func (self *Pipeline) Len() int { return len(self.pending) }

// Requests the caption with the given hash.
func (self *Pipeline) RequestHash(hash uint32, options Options) (*Ticket, error) {
	location, found := self.set.Resolve(hash)
	if !found { return nil, ErrUnresolved }
	if location.Entry.IsBlank() { return nil, ErrBlank }
	return self.add(KindSingle, hash, options, part{ location: location }), nil
}

// Requests the caption with the given token name.
func (self *Pipeline) RequestToken(token string, options Options) (*Ticket, error) {
	if token == "" { return nil, ErrEmpty }
	ticket, err := self.RequestHash(capdir.Hash(token), options)
	if err != nil { return nil, err }
	ticket.parts[0].token = token
	return ticket, nil
}

// Requests a sentence stream: a space separated list of word tokens.
// Each word is resolved independently, and the ticket assembles to the
// words' texts separated by single spaces. Words that can't be resolved
// make the whole request fail with [ErrUnresolved].
func (self *Pipeline) RequestSentence(tokens string, options Options) (*Ticket, error) {
	words := strings.Fields(tokens)
	if len(words) == 0 { return nil, ErrEmpty }

	parts := make([]part, len(words))
	for i, word := range words {
		location, found := self.set.ResolveToken(word)
		if !found { return nil, errors.Join(ErrUnresolved, errors.New("missing word '" + word + "'")) }
		parts[i] = part{ token: word, location: location }
	}
	hash := capdir.Hash(strings.Join(words, " "))
	return self.add(KindSentence, hash, options, parts...), nil
}

// Requests a uniformly random caption from the loaded databases.
// Blank entries are skipped.
func (self *Pipeline) RequestRandom(rng Rand, options Options) (*Ticket, error) {
	const maxAttempts = 16
	if self.set.Len() == 0 { return nil, ErrUnresolved }
	for i := 0; i < maxAttempts; i++ {
		fileIndex := rng.Intn(self.set.Len())
		dir := self.set.Directory(fileIndex)
		if dir.Len() == 0 { continue }
		index := rng.Intn(dir.Len())
		entry := dir.Entry(index)
		if entry.IsBlank() { continue }
		location := capdir.Location{ FileIndex: fileIndex, DirectoryIndex: index, Entry: entry }
		return self.add(KindRandom, entry.Hash, options, part{ location: location }), nil
	}
	return nil, ErrUnresolved
}

func (self *Pipeline) add(kind Kind, hash uint32, options Options, parts ...part) *Ticket {
	ticket := &Ticket{
		kind: kind,
		hash: hash,
		options: options,
		parts: parts,
		refs: 1,
		maxRunes: self.maxRunes,
	}
	self.pending = append(self.pending, ticket)
	self.PollReadiness(ticket)
	return ticket
}

// Makes progress on the given ticket: copies the text of the parts
// whose blocks finished loading and requests the blocks of the parts
// that don't have one. Returns whether the ticket is ready.
func (self *Pipeline) PollReadiness(ticket *Ticket) bool {
	ready := true
	for i := range ticket.parts {
		part := &ticket.parts[i]
		if part.ready { continue }
		self.copyPart(part)
		if !part.ready { ready = false }
	}
	if ready { return true }

	// the blocks of the ticket stay locked while the missing ones are
	// created, so the parts can't evict each other
	locked := make([]blockcache.Handle, 0, len(ticket.parts))
	for i := range ticket.parts {
		part := &ticket.parts[i]
		if part.ready { continue }
		if _, ok := self.cache.Lock(part.handle); ok {
			locked = append(locked, part.handle)
		}
	}
	for i := range ticket.parts {
		part := &ticket.parts[i]
		if part.ready || self.cache.IsResident(part.handle) { continue }
		handle, err := part.request(self.cache)
		if err != nil { continue }
		part.handle = handle
		self.copyPart(part) // may have been loaded by another ticket
		if part.ready { continue }
		if _, ok := self.cache.Lock(handle); ok { locked = append(locked, handle) }
	}
	for _, handle := range locked { self.cache.Unlock(handle) }
	return ticket.IsReady()
}

func (self *Pipeline) copyPart(part *part) {
	self.cache.With(part.handle, func(data []byte) {
		if !part.copyFrom(data) {
			log.Warningf("caption %08x out of block bounds", part.location.Entry.Hash)
		}
	})
}

// Advances pending tickets by the given elapsed time and returns the
// ones that became ready, in request order. Returned tickets leave the
// pipeline. Abandoned tickets and tickets older than the maximum age
// are dropped.
func (self *Pipeline) Poll(elapsed time.Duration) []*Ticket {
	var ready []*Ticket
	kept := self.pending[ : 0]
	for _, ticket := range self.pending {
		if ticket.IsAbandoned() { continue }
		if self.PollReadiness(ticket) {
			ready = append(ready, ticket)
			continue
		}
		ticket.age += elapsed
		if self.maxAge > 0 && ticket.age > self.maxAge {
			log.Warningf("caption %08x never became ready, dropped after %s", ticket.hash, ticket.age)
			continue
		}
		kept = append(kept, ticket)
	}
	for i := len(kept); i < len(self.pending); i++ { self.pending[i] = nil }
	self.pending = kept
	return ready
}

// Drops all pending tickets. Used on level shutdown and cache flushes.
func (self *Pipeline) Clear() {
	for i := range self.pending { self.pending[i] = nil }
	self.pending = self.pending[ : 0]
}
