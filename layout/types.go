package layout

import "image/color"

import "golang.org/x/image/math/fixed"

// An opaque font identifier. What it refers to is up to the [Measurer].
type FontHandle int

// Measurer is the font capability used by the layout [Engine].
type Measurer interface {
	// Returns the advance and height of the given glyph.
	MeasureGlyph(font FontHandle, char rune) (width, height fixed.Int26_6)

	// Returns the line height for the given font.
	LineHeight(font FontHandle) fixed.Int26_6
}

// The fonts used for each bold/italic combination.
type FontSet struct {
	Regular FontHandle
	Bold FontHandle
	Italic FontHandle
	BoldItalic FontHandle
}

// Creates a font set using the same font for all styles.
func SingleFont(font FontHandle) FontSet {
	return FontSet{ font, font, font, font }
}

// Returns the font for the given style.
func (self FontSet) Pick(bold, italic bool) FontHandle {
	switch {
	case bold && italic: return self.BoldItalic
	case bold: return self.Bold
	case italic: return self.Italic
	default:
		return self.Regular
	}
}

// One positioned, single-style run of text. Coordinates are in pixels,
// relative to the top-left corner of the caption.
type WorkUnit struct {
	Text string
	X, Y int
	Width, Height int
	Bold bool
	Italic bool
	Color color.RGBA
	Font FontHandle
}

// Returns the line index of the unit, given the line height.
func (self *WorkUnit) Line(lineHeight int) int {
	if lineHeight <= 0 { return 0 }
	return self.Y/lineHeight
}

// The result of laying out a caption.
type Result struct {
	Units []WorkUnit
	Width int  // max right edge of all units
	Height int // lines*LineHeight
	LineHeight int
	Lines int
}
