package closecap

import "strconv"
import "image/color"

import "github.com/tinne26/closecap/blockcache"
import "github.com/tinne26/closecap/display"

// Block overlay geometry.
const (
	overlayX = 4
	overlayY = 4
	overlayCell = 6
	overlayGap = 2
	overlayColumns = 32
)

var slotColors = [...]color.RGBA{
	blockcache.SlotIdle: {96, 96, 96, 255},
	blockcache.SlotPending: {224, 192, 32, 255},
	blockcache.SlotCompleted: {32, 192, 64, 255},
	blockcache.SlotFailed: {224, 32, 32, 255},
}
var lockedColor = color.RGBA{255, 255, 255, 255}
var overlayBackground = color.RGBA{0, 0, 0, 192}

// Toggles the block cache overlay. Returns whether it's now visible.
func (self *Session) ToggleBlockOverlay() bool {
	self.showBlocks = !self.showBlocks
	return self.showBlocks
}

// Returns whether the block cache overlay is visible.
func (self *Session) IsBlockOverlayVisible() bool { return self.showBlocks }

// Draws one cell per resident block, from least to most recently
// used, colored by state, followed by a budget usage bar and counters.
func (self *Session) paintBlocks(surface display.Surface) {
	stats := self.cache.Stats()
	step := overlayCell + overlayGap
	rows := max((stats.Resident + overlayColumns - 1)/overlayColumns, 1)
	width := overlayColumns*step - overlayGap
	lineHeight := self.engine.LineHeight()
	surface.FillRect(0, 0, width + 2*overlayX, rows*step + 2*overlayY + 5 + lineHeight, overlayBackground)

	index := 0
	self.cache.EachSlot(func(info blockcache.SlotInfo) {
		clr := slotColors[info.State]
		if info.Locks > 0 { clr = lockedColor }
		x := overlayX + (index % overlayColumns)*step
		y := overlayY + (index / overlayColumns)*step
		surface.FillRect(x, y, overlayCell, overlayCell, clr)
		index += 1
	})

	barY := overlayY + rows*step
	used := width*min(stats.ResidentBytes, stats.Budget)/max(stats.Budget, 1)
	surface.FillRect(overlayX, barY, width, 3, slotColors[blockcache.SlotIdle])
	surface.FillRect(overlayX, barY, used, 3, slotColors[blockcache.SlotCompleted])

	info := strconv.Itoa(stats.ResidentBytes/1024) + "/" + strconv.Itoa(stats.Budget/1024) + " KiB, " +
		strconv.Itoa(stats.Hits) + " hits, " + strconv.Itoa(stats.Misses) + " misses"
	result := self.engine.Layout(info, width, false)
	for i := range result.Units {
		unit := &result.Units[i]
		surface.DrawText(unit, overlayX + unit.X, barY + 5 + unit.Y, unit.Color)
	}
}
