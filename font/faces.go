package font

import "io/fs"
import "errors"
import "strconv"

import "golang.org/x/image/font"
import "golang.org/x/image/font/opentype"
import "golang.org/x/image/font/sfnt"
import "golang.org/x/image/math/fixed"

import "github.com/tinne26/closecap/layout"

var _ layout.Measurer = (*Faces)(nil)

var ErrAlreadyPresent = errors.New("font already present")
var ErrUnknownFont    = errors.New("unknown font")

type face struct {
	font *sfnt.Font
	size fixed.Int26_6 // ppem
	metrics font.Metrics
	drawFace font.Face // lazily created
}

// A registry of named fonts and the sized faces created from them.
// Faces are not concurrent-safe.
type Faces struct {
	fonts map[string]*sfnt.Font
	faces []face
	buffer sfnt.Buffer
}

// Creates a new, empty face registry.
func NewFaces() *Faces {
	return &Faces{ fonts: make(map[string]*sfnt.Font) }
}

// Number of fonts in the registry.
func (self *Faces) Len() int { return len(self.fonts) }

// Returns the font with the given name, or nil if not found.
func (self *Faces) Font(name string) *sfnt.Font { return self.fonts[name] }

// Adds the given font and returns its name. If a font with the same
// name is already present, [ErrAlreadyPresent] is returned.
func (self *Faces) AddFont(font *sfnt.Font) (string, error) {
	if font == nil { panic("nil font") }
	name, err := GetName(font)
	if err != nil { return "", err }
	if _, found := self.fonts[name]; found { return name, ErrAlreadyPresent }
	self.fonts[name] = font
	return name, nil
}

// Parses and adds the given font bytes.
func (self *Faces) ParseFromBytes(data []byte) (string, error) {
	font, _, err := ParseFromBytes(data)
	if err != nil { return "", err }
	return self.AddFont(font)
}

// Parses and adds the font at the given path.
func (self *Faces) ParseFromPath(path string) (string, error) {
	font, _, err := ParseFromPath(path)
	if err != nil { return "", err }
	return self.AddFont(font)
}

// Parses and adds all the .ttf and .otf fonts in the given directory,
// non-recursively. Fonts whose names are already present are skipped.
func (self *Faces) ParseAllFromFS(filesys fs.FS, dirName string) (added, skipped int, err error) {
	entries, err := fs.ReadDir(filesys, dirName)
	if err != nil { return 0, 0, err }
	for _, entry := range entries {
		if entry.IsDir() || !hasFontExtension(entry.Name()) { continue }
		path := entry.Name()
		if dirName != "." { path = dirName + "/" + path }
		font, _, err := ParseFromFS(filesys, path)
		if err != nil { return added, skipped, err }
		_, err = self.AddFont(font)
		if err == ErrAlreadyPresent {
			skipped += 1
			continue
		}
		if err != nil { return added, skipped, err }
		added += 1
	}
	return added, skipped, nil
}

// Returns a handle for the given font at the given size in pixels.
// Requesting the same font and size twice returns the same handle.
func (self *Faces) Face(name string, size float64) (layout.FontHandle, error) {
	sfntFont, found := self.fonts[name]
	if !found { return 0, errors.Join(ErrUnknownFont, errors.New(name)) }
	if size <= 0 { return 0, errors.New("invalid font size " + strconv.FormatFloat(size, 'f', -1, 64)) }

	ppem := fixed.Int26_6(size*64 + 0.5)
	for i := range self.faces {
		if self.faces[i].font == sfntFont && self.faces[i].size == ppem {
			return layout.FontHandle(i), nil
		}
	}

	metrics, err := sfntFont.Metrics(&self.buffer, ppem, font.HintingNone)
	if err != nil { return 0, err }
	self.faces = append(self.faces, face{ font: sfntFont, size: ppem, metrics: metrics })
	return layout.FontHandle(len(self.faces) - 1), nil
}

// Convenience method to create a [layout.FontSet] from four font
// names at the same size. Empty names use the regular font.
func (self *Faces) FontSet(size float64, regular, bold, italic, boldItalic string) (layout.FontSet, error) {
	var set layout.FontSet
	names := [4]string{ regular, bold, italic, boldItalic }
	handles := [4]*layout.FontHandle{ &set.Regular, &set.Bold, &set.Italic, &set.BoldItalic }
	for i, name := range names {
		if name == "" { name = regular }
		handle, err := self.Face(name, size)
		if err != nil { return set, err }
		*handles[i] = handle
	}
	return set, nil
}

func (self *Faces) get(handle layout.FontHandle) *face {
	if handle < 0 || int(handle) >= len(self.faces) {
		panic("invalid font handle " + strconv.Itoa(int(handle)))
	}
	return &self.faces[handle]
}

// Implements [layout.Measurer]. Missing glyphs use the advance of
// the notdef glyph.
func (self *Faces) MeasureGlyph(handle layout.FontHandle, char rune) (fixed.Int26_6, fixed.Int26_6) {
	face := self.get(handle)
	index, err := face.font.GlyphIndex(&self.buffer, char)
	if err != nil { index = 0 }
	advance, err := face.font.GlyphAdvance(&self.buffer, index, face.size, font.HintingNone)
	if err != nil { advance = 0 }
	return advance, face.metrics.Height
}

// Implements [layout.Measurer].
func (self *Faces) LineHeight(handle layout.FontHandle) fixed.Int26_6 {
	return self.get(handle).metrics.Height
}

// Returns the ascent for the given handle, which is the distance from
// the top of a line to its baseline.
func (self *Faces) Ascent(handle layout.FontHandle) fixed.Int26_6 {
	return self.get(handle).metrics.Ascent
}

// Returns a [font.Face] for drawing text with the given handle.
func (self *Faces) DrawFace(handle layout.FontHandle) (font.Face, error) {
	face := self.get(handle)
	if face.drawFace != nil { return face.drawFace, nil }
	options := opentype.FaceOptions{
		Size: float64(face.size)/64.0,
		DPI: 72,
		Hinting: font.HintingNone,
	}
	drawFace, err := opentype.NewFace(face.font, &options)
	if err != nil { return nil, err }
	face.drawFace = drawFace
	return drawFace, nil
}

// Releases the drawing faces. Handles remain valid, and drawing
// faces are recreated on demand.
func (self *Faces) Close() error {
	var errs []error
	for i := range self.faces {
		if self.faces[i].drawFace == nil { continue }
		errs = append(errs, self.faces[i].drawFace.Close())
		self.faces[i].drawFace = nil
	}
	return errors.Join(errs...)
}
