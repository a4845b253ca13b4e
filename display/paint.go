package display

import "time"
import "image/color"

import "github.com/tinne26/closecap/layout"

// Surface is the painting capability used by [Scheduler.Paint]().
type Surface interface {
	// Fills a rectangle. The color is alpha premultiplied.
	FillRect(x, y, width, height int, clr color.RGBA)

	// Draws the text of the given unit with its line box top-left
	// corner at (x, y), using the given (faded) color instead of the
	// unit's own.
	DrawText(unit *layout.WorkUnit, x, y int, clr color.RGBA)
}

// Scales a premultiplied color by the given alpha.
func fade(clr color.RGBA, alpha float64) color.RGBA {
	if alpha >= 1 { return clr }
	if alpha <= 0 { return color.RGBA{} }
	return color.RGBA{
		uint8(float64(clr.R)*alpha),
		uint8(float64(clr.G)*alpha),
		uint8(float64(clr.B)*alpha),
		uint8(float64(clr.A)*alpha),
	}
}

type panState struct {
	offset int
	topLine int
	lines int // lines in the visible window
	topAlpha float64
}

// Computes the overflow panning state for an item. Items taller than
// the box are revealed one line at a time: the lifespan is split into
// one step per hidden line plus one, and each step boundary fades the
// top line out and slides the rest up.
func (self *Scheduler) pan(item *Item) panState {
	lineHeight := item.layout.LineHeight
	state := panState{ lines: item.layout.Lines, topAlpha: 1 }
	page := self.pageHeight(lineHeight)
	if lineHeight <= 0 || item.layout.Height <= page { return state }

	state.lines = page/lineHeight
	reveal := item.layout.Lines - state.lines
	stepDuration := item.lifespan/time.Duration(reveal + 1)
	if stepDuration <= 0 { return state }

	step := min(int(item.shown/stepDuration), reveal)
	inStep := item.shown - time.Duration(step)*stepDuration
	state.topLine = step
	state.offset = step*lineHeight
	slide := self.options.PanSlideTime
	if step > 0 && slide > 0 && inStep < slide {
		progress := float64(inStep)/float64(slide)
		state.offset = (step - 1)*lineHeight + int(float64(lineHeight)*progress)
	}
	fadeTime := self.options.PanFadeTime
	if step < reveal && fadeTime > 0 {
		left := stepDuration - inStep
		if left < fadeTime {
			state.topAlpha = float64(left)/float64(fadeTime)
		}
	}
	return state
}

// Arranges and paints the visible items and their box.
func (self *Scheduler) Paint(surface Surface) {
	total := self.Arrange()
	boxAlpha := self.BoxAlpha()
	if boxAlpha <= 0 { return }

	padding := self.options.Padding
	boxHeight := int(self.BoxHeight() + 0.5) + 2*padding
	boxY := self.options.Y + self.options.Height - boxHeight
	surface.FillRect(self.options.X, boxY, self.options.Width, boxHeight, fade(self.options.BackgroundColor, boxAlpha))

	// content is anchored at the bottom of the box
	y := boxY + boxHeight - padding - total
	for _, item := range self.items {
		if !item.IsVisible() { continue }
		alpha := self.ItemAlpha(item)*boxAlpha
		pan := self.pan(item)
		lineHeight := item.layout.LineHeight
		for i := range item.layout.Units {
			unit := &item.layout.Units[i]
			line := unit.Line(lineHeight)
			if line < pan.topLine || line >= pan.topLine + pan.lines { continue }
			unitAlpha := alpha
			if line == pan.topLine { unitAlpha *= pan.topAlpha }
			x := self.options.X + padding + unit.X
			surface.DrawText(unit, x, y + unit.Y - pan.offset, fade(unit.Color, unitAlpha))
		}
		y += self.itemHeight(item)
	}
}
