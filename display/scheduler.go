package display

import "time"
import "image/color"

import "github.com/tinne26/closecap/layout"

// Scheduler configuration.
type Options struct {
	// Area where the caption box can grow, anchored at the bottom.
	X, Y int
	Width, Height int
	Padding int

	MinVisibleItems int

	// item alpha curve
	HiddenTime time.Duration
	FadeInTime time.Duration
	FadeOutTime time.Duration

	// box height and alpha tween duration
	GrowTime time.Duration

	// overflow panning transitions
	PanFadeTime time.Duration
	PanSlideTime time.Duration

	BackgroundColor color.RGBA
}

// Default options for a 640x480 screen.
func DefaultOptions() Options {
	return Options{
		X: 80, Y: 280, Width: 480, Height: 180, Padding: 8,
		MinVisibleItems: 1,
		HiddenTime: 0,
		FadeInTime: 300*time.Millisecond,
		FadeOutTime: 300*time.Millisecond,
		GrowTime: 250*time.Millisecond,
		PanFadeTime: 500*time.Millisecond,
		PanSlideTime: 500*time.Millisecond,
		BackgroundColor: color.RGBA{0, 0, 0, 160},
	}
}

// The caption display scheduler. Items are kept in insertion order,
// oldest first.
type Scheduler struct {
	engine *layout.Engine
	options Options
	items []*Item
	clock time.Duration

	boxHeight tween
	boxAlpha tween
}

// Creates a new scheduler laying out items with the given engine.
func NewScheduler(engine *layout.Engine, options Options) *Scheduler {
	if engine == nil { panic("nil layout engine") }
	return &Scheduler{ engine: engine, options: options }
}

// Returns the current options.
func (self *Scheduler) Options() Options { return self.options }

// Changes the options. Items will be laid out again if the width
// changes.
func (self *Scheduler) SetOptions(options Options) { self.options = options }

// Changes the layout engine. All items will be laid out again.
func (self *Scheduler) SetEngine(engine *layout.Engine) {
	if engine == nil { panic("nil layout engine") }
	self.engine = engine
	for _, item := range self.items { item.measured = false }
}

// Returns the internal clock, which is the sum of all ticks.
func (self *Scheduler) Clock() time.Duration { return self.clock }

// Adds an item. Its lifespan is counted from the moment it becomes
// visible.
func (self *Scheduler) Add(item *Item) {
	if item == nil { panic("nil item") }
	item.added = self.clock
	self.items = append(self.items, item)
}

// Number of items, including pre-display and dying ones.
func (self *Scheduler) Len() int { return len(self.items) }

// Returns the items, oldest first. The slice must not be modified.
func (self *Scheduler) Items() []*Item { return self.items }

// Number of visible items.
func (self *Scheduler) VisibleCount() int {
	count := 0
	for _, item := range self.items {
		if item.IsVisible() { count += 1 }
	}
	return count
}

// Removes all items immediately.
func (self *Scheduler) Clear() {
	for i := range self.items { self.items[i] = nil }
	self.items = self.items[ : 0]
}

// Advances item timers and removes dead items from the front.
func (self *Scheduler) Tick(elapsed time.Duration) {
	if elapsed < 0 { elapsed = 0 }
	self.clock += elapsed
	for _, item := range self.items { item.tick(elapsed) }

	dead := 0
	for dead < len(self.items) && self.items[dead].IsDead() { dead += 1 }
	if dead == 0 { return }
	copy(self.items, self.items[dead : ])
	for i := len(self.items) - dead; i < len(self.items); i++ { self.items[i] = nil }
	self.items = self.items[ : len(self.items) - dead]
}

func (self *Scheduler) textWidth() int {
	return max(self.options.Width - 2*self.options.Padding, 1)
}

// Height available for text, rounded down to whole lines.
func (self *Scheduler) pageHeight(lineHeight int) int {
	height := self.options.Height - 2*self.options.Padding
	if lineHeight <= 0 { return max(height, 0) }
	return max(height/lineHeight, 1)*lineHeight
}

func (self *Scheduler) itemHeight(item *Item) int {
	return min(item.layout.Height, self.pageHeight(item.layout.LineHeight))
}

// Lays out visible items and resolves space pressure by killing
// items: sound effects first, then low priority items, then the
// oldest ones, never going below the minimum visible item count.
// Returns the total content height.
func (self *Scheduler) Arrange() int {
	width := self.textWidth()
	total, visible := 0, 0
	for _, item := range self.items {
		if !item.IsVisible() { continue }
		item.measure(self.engine, width)
		total += self.itemHeight(item)
		visible += 1
	}

	available := self.options.Height - 2*self.options.Padding
	for _, pick := range []func(*Item) bool{ isSFX, isLow, isAny } {
		for _, item := range self.items {
			if total <= available || visible <= self.options.MinVisibleItems { break }
			if !item.IsVisible() || !pick(item) { continue }
			item.Kill()
			total -= self.itemHeight(item)
			visible -= 1
		}
	}

	// box animation targets
	targetHeight := float64(max(total, self.engine.LineHeight()))
	targetAlpha := 0.0
	if visible > 0 { targetAlpha = 1.0 }
	self.boxHeight.retarget(targetHeight, self.clock, self.options.GrowTime)
	self.boxAlpha.retarget(targetAlpha, self.clock, self.options.GrowTime)
	return total
}

func isSFX(item *Item) bool { return item.SFX }
func isLow(item *Item) bool { return item.Low }
func isAny(item *Item) bool { return true }

// Current box height (tweened), excluding padding.
func (self *Scheduler) BoxHeight() float64 { return self.boxHeight.value(self.clock) }

// Current box alpha (tweened).
func (self *Scheduler) BoxAlpha() float64 { return self.boxAlpha.value(self.clock) }

// Returns the alpha of the given item according to the fade timings.
func (self *Scheduler) ItemAlpha(item *Item) float64 {
	return fadeAlpha(item.shown, item.ttl, self.options.HiddenTime, self.options.FadeInTime, self.options.FadeOutTime)
}
