package closecap

import "time"
import "errors"
import "strings"
import "unicode/utf8"

import "github.com/tinne26/closecap/capdir"
import "github.com/tinne26/closecap/display"
import "github.com/tinne26/closecap/markup"
import "github.com/tinne26/closecap/request"

// Duration bounds for captions requested without an explicit duration.
const (
	MinAutoDuration = 2*time.Second
	MaxAutoDuration = 8*time.Second
	autoDurationPerRune = 60*time.Millisecond
)

// Shows the caption with the given hash for the given duration, in
// tenths of a second. Ignored while captions are disabled. Captions
// that can't be found are silently dropped (see [config.TraceLevel]).
func (self *Session) CaptionByHash(hash uint32, durationTenths int, fromPlayer bool) {
	if !self.config.Enabled { return }
	duration := time.Duration(durationTenths)*100*time.Millisecond
	ticket, err := self.pipeline.RequestHash(hash, self.requestOptions(duration, fromPlayer, false))
	self.track(ticket, err, hash, "")
}

// Like [Session.CaptionByHash](), but shown even while captions are
// disabled. Used for captions that are part of the gameplay.
func (self *Session) CaptionDirect(hash uint32, duration time.Duration, fromPlayer bool) {
	ticket, err := self.pipeline.RequestHash(hash, self.requestOptions(duration, fromPlayer, true))
	self.track(ticket, err, hash, "")
}

// Shows a caption composed of several space separated word tokens,
// like the ones generated for dynamic voice lines. A zero duration is
// estimated from the text length.
func (self *Session) EmitSentenceStream(tokens string, duration time.Duration, fromPlayer bool) {
	if !self.config.Enabled { return }
	ticket, err := self.pipeline.RequestSentence(tokens, self.requestOptions(duration, fromPlayer, false))
	self.track(ticket, err, capdir.Hash(strings.Join(strings.Fields(tokens), " ")), tokens)
}

// Shows the caption with the given token name. Unlike the event
// methods, failures are reported. Used by debug commands and tools.
func (self *Session) EmitToken(token string, duration time.Duration, direct bool) error {
	if !direct && !self.config.Enabled { return nil }
	ticket, err := self.pipeline.RequestToken(token, self.requestOptions(duration, false, direct))
	self.track(ticket, err, capdir.Hash(token), token)
	return err
}

// Shows a random caption from the loaded databases, bypassing the
// captions toggle and repeat suppression.
func (self *Session) EmitRandom() error {
	_, err := self.pipeline.RequestRandom(self.options.Rand, self.requestOptions(0, false, true))
	return err
}

func (self *Session) requestOptions(duration time.Duration, fromPlayer, direct bool) request.Options {
	return request.Options{ Duration: duration, FromPlayer: fromPlayer, Direct: direct, Tick: self.tick }
}

func (self *Session) track(ticket *request.Ticket, err error, hash uint32, token string) {
	if err == nil { return }
	switch {
	case errors.Is(err, request.ErrUnresolved):
		self.traceMissing(hash, token, err)
	case errors.Is(err, request.ErrBlank):
		// intentionally excluded from this language
	default:
		self.tracef("caption request failed: %s", err.Error())
	}
}

// Converts a ready ticket into display items, or drops it.
func (self *Session) accept(ticket *request.Ticket) {
	text, ready := ticket.TryAssemble()
	if !ready { return }
	options := ticket.Options()
	hash := ticket.Hash()

	if !options.Direct && !self.config.Enabled { return }
	stripped := strings.TrimSpace(markup.Strip(text))
	if stripped == "" {
		self.tracef("caption %08x is blank, dropped", hash)
		return
	}
	marker := self.config.UntranslatedMarker
	if marker != "" && strings.HasPrefix(stripped, marker) {
		self.tracef("caption %08x is untranslated, dropped", hash)
		return
	}

	info := markup.Scan(text)
	if info.SFX && self.config.SubtitlesOnly { return }
	if ticket.Kind() != request.KindRandom {
		table := self.ledger.Captions
		if ticket.Kind() == request.KindSentence { table = self.ledger.Streams }
		var interval time.Duration
		if info.HasNoRepeat { interval = info.NoRepeat }
		if !table.Allow(hash, interval, self.options.Clock(), options.Tick) {
			self.tracef("caption %08x suppressed as a repeat", hash)
			return
		}
	}

	duration := options.Duration
	if info.HasLen { duration = info.Len }
	if duration <= 0 { duration = autoDuration(stripped) }
	for _, segment := range markup.SplitDelays(text) {
		item := display.NewItem(segment.Text, duration + self.config.LingerTime, self.config.PreDisplayTime + segment.Delay)
		item.FromPlayer = options.FromPlayer
		item.SFX, item.Low = info.SFX, info.Low
		self.scheduler.Add(item)
	}
}

func autoDuration(text string) time.Duration {
	duration := time.Duration(utf8.RuneCountInString(text))*autoDurationPerRune
	return min(max(duration, MinAutoDuration), MaxAutoDuration)
}

// Advances the session by the given elapsed time: reconciles finished
// block reads, turns ready requests into captions and advances the
// display timers. Must be called once per frame.
func (self *Session) Update(elapsed time.Duration) {
	self.cache.Poll()
	for _, ticket := range self.pipeline.Poll(elapsed) {
		self.accept(ticket)
		ticket.Release()
	}
	self.scheduler.Tick(elapsed)
	self.tick += 1
}

// Paints the captions box, and the block cache overlay if enabled.
func (self *Session) Paint(surface display.Surface) {
	self.scheduler.Paint(surface)
	if self.showBlocks { self.paintBlocks(surface) }
}
