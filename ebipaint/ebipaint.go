// The ebipaint subpackage implements [display.Surface] for Ebitengine.
package ebipaint

import "image/color"

import "github.com/hajimehoshi/ebiten/v2"
import "github.com/hajimehoshi/ebiten/v2/text"
import "github.com/hajimehoshi/ebiten/v2/vector"
import "github.com/tliron/commonlog"

import "github.com/tinne26/closecap/display"
import "github.com/tinne26/closecap/font"
import "github.com/tinne26/closecap/layout"

var log = commonlog.GetLogger("closecap.ebipaint")

var _ display.Surface = (*Surface)(nil)

// A [display.Surface] drawing on an [*ebiten.Image]. The target is
// usually set at the start of each Draw() call.
type Surface struct {
	target *ebiten.Image
	faces *font.Faces
	failed map[layout.FontHandle]bool
}

// Creates a new surface using the faces from the given registry.
func New(faces *font.Faces) *Surface {
	if faces == nil { panic("nil faces") }
	return &Surface{ faces: faces, failed: make(map[layout.FontHandle]bool) }
}

// Sets the target image.
func (self *Surface) SetTarget(target *ebiten.Image) { self.target = target }

// Implements [display.Surface].
func (self *Surface) FillRect(x, y, width, height int, clr color.RGBA) {
	if self.target == nil || clr.A == 0 { return }
	vector.DrawFilledRect(self.target, float32(x), float32(y), float32(width), float32(height), clr, false)
}

// Implements [display.Surface].
func (self *Surface) DrawText(unit *layout.WorkUnit, x, y int, clr color.RGBA) {
	if self.target == nil || clr.A == 0 { return }
	face, err := self.faces.DrawFace(unit.Font)
	if err != nil {
		if !self.failed[unit.Font] {
			self.failed[unit.Font] = true
			log.Warningf("can't create face for font %d: %s", unit.Font, err.Error())
		}
		return
	}
	ascent := self.faces.Ascent(unit.Font).Ceil()
	text.Draw(self.target, unit.Text, face, x, y + ascent, clr)
}
