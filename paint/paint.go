// The paint subpackage implements [display.Surface] on top of regular
// [draw.Image] values, which is enough for tools, tests and headless
// rendering. For Ebitengine, see the ebipaint subpackage.
package paint

import "image"
import "image/color"

import "golang.org/x/image/draw"
import xfont "golang.org/x/image/font"
import "golang.org/x/image/math/fixed"
import "github.com/tliron/commonlog"

import "github.com/tinne26/closecap/display"
import "github.com/tinne26/closecap/font"
import "github.com/tinne26/closecap/layout"

var log = commonlog.GetLogger("closecap.paint")

var _ display.Surface = (*ImageSurface)(nil)

// A [display.Surface] drawing on a [draw.Image].
type ImageSurface struct {
	target draw.Image
	faces *font.Faces
	failed map[layout.FontHandle]bool
}

// Creates a new surface drawing on the given target with the faces
// from the given registry. The font handles of the work units drawn
// must belong to that registry.
func NewImageSurface(target draw.Image, faces *font.Faces) *ImageSurface {
	if target == nil || faces == nil { panic("nil target or faces") }
	return &ImageSurface{ target: target, faces: faces, failed: make(map[layout.FontHandle]bool) }
}

// Returns the target image.
func (self *ImageSurface) Target() draw.Image { return self.target }

// Changes the target image.
func (self *ImageSurface) SetTarget(target draw.Image) {
	if target == nil { panic("nil target") }
	self.target = target
}

// Implements [display.Surface].
func (self *ImageSurface) FillRect(x, y, width, height int, clr color.RGBA) {
	if clr.A == 0 || width <= 0 || height <= 0 { return }
	rect := image.Rect(x, y, x + width, y + height)
	draw.Draw(self.target, rect, image.NewUniform(clr), image.Point{}, draw.Over)
}

// Implements [display.Surface].
func (self *ImageSurface) DrawText(unit *layout.WorkUnit, x, y int, clr color.RGBA) {
	if clr.A == 0 { return }
	face, err := self.faces.DrawFace(unit.Font)
	if err != nil {
		if !self.failed[unit.Font] {
			self.failed[unit.Font] = true
			log.Warningf("can't create face for font %d: %s", unit.Font, err.Error())
		}
		return
	}

	ascent := self.faces.Ascent(unit.Font).Ceil()
	drawer := xfont.Drawer{
		Dst: self.target,
		Src: image.NewUniform(clr),
		Face: face,
		Dot: fixed.P(x, y + ascent),
	}
	drawer.DrawString(unit.Text)
}
