package display

import "time"

// A linear interpolation between two values over a fixed duration.
type tween struct {
	from float64
	to float64
	start time.Duration
	duration time.Duration
}

func (self *tween) value(clock time.Duration) float64 {
	if self.duration <= 0 || clock >= self.start + self.duration { return self.to }
	if clock <= self.start { return self.from }
	t := float64(clock - self.start)/float64(self.duration)
	return self.from + (self.to - self.from)*t
}

// Restarts the tween towards the given target, from the current value.
// Does nothing if the target hasn't changed.
func (self *tween) retarget(target float64, clock, duration time.Duration) {
	if target == self.to { return }
	self.from = self.value(clock)
	self.to = target
	self.start = clock
	self.duration = duration
}

// Piecewise linear fade in, hold and fade out. Returns a value in [0, 1].
func fadeAlpha(shown, remaining, hidden, fadeIn, fadeOut time.Duration) float64 {
	alpha := 1.0
	switch {
	case shown < hidden:
		return 0
	case fadeIn > 0 && shown < hidden + fadeIn:
		alpha = float64(shown - hidden)/float64(fadeIn)
	}
	if fadeOut > 0 && remaining < fadeOut {
		alpha = min(alpha, float64(remaining)/float64(fadeOut))
	}
	return min(max(alpha, 0), 1)
}
