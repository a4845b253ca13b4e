package display

import "time"

import "github.com/tinne26/closecap/layout"

// Item is a caption accepted for display.
type Item struct {
	Text string // markup
	FromPlayer bool
	SFX bool
	Low bool

	preDisplay time.Duration
	ttl time.Duration
	lifespan time.Duration
	added time.Duration // scheduler clock
	shown time.Duration // time spent visible

	layout layout.Result
	measured bool
	measuredWidth int
}

// Creates a new item. The duration is the time to live once visible,
// and the delay is the time it stays invisible before that.
func NewItem(text string, duration, delay time.Duration) *Item {
	return &Item{ Text: text, ttl: duration, lifespan: duration, preDisplay: max(delay, 0) }
}

// Remaining pre-display delay.
func (self *Item) PreDisplay() time.Duration { return self.preDisplay }

// Remaining time to live.
func (self *Item) TTL() time.Duration { return self.ttl }

// Initial time to live.
func (self *Item) Lifespan() time.Duration { return self.lifespan }

// Time the item has been visible.
func (self *Item) Shown() time.Duration { return self.shown }

// Returns whether the item is currently visible.
func (self *Item) IsVisible() bool {
	return self.preDisplay <= 0 && self.ttl > 0
}

// Returns whether the item has run out of time.
func (self *Item) IsDead() bool {
	return self.preDisplay <= 0 && self.ttl <= 0
}

// Forces the item to die on the next tick.
func (self *Item) Kill() { self.ttl = 0 }

// Returns the item layout. Only meaningful once the item has been
// measured by the scheduler.
func (self *Item) Layout() (layout.Result, bool) {
	return self.layout, self.measured
}

func (self *Item) tick(elapsed time.Duration) {
	if self.preDisplay > 0 {
		self.preDisplay -= elapsed
		if self.preDisplay < 0 { self.preDisplay = 0 }
		return
	}
	if self.ttl <= 0 { return }
	self.ttl -= elapsed
	self.shown += elapsed
	if self.ttl < 0 { self.ttl = 0 }
}

func (self *Item) measure(engine *layout.Engine, width int) {
	if self.measured && self.measuredWidth == width { return }
	self.layout = engine.Layout(self.Text, width, self.FromPlayer)
	self.measured = true
	self.measuredWidth = width
}

// Scheduler clock value when the item was added.
func (self *Item) Added() time.Duration { return self.added }
