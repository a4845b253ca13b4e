package font

import "golang.org/x/image/font/gofont/gobold"
import "golang.org/x/image/font/gofont/gobolditalic"
import "golang.org/x/image/font/gofont/goitalic"
import "golang.org/x/image/font/gofont/goregular"

import "github.com/tinne26/closecap/layout"

// Creates a registry with the Go fonts and returns it along a font set
// at the given size. Useful for tools and tests without font files.
func GoFonts(size float64) (*Faces, layout.FontSet, error) {
	faces, sets, err := GoFontSets(size)
	if err != nil { return nil, layout.FontSet{}, err }
	return faces, sets[0], nil
}

// Like [GoFonts](), but returning one font set for each given size.
func GoFontSets(sizes ...float64) (*Faces, []layout.FontSet, error) {
	faces := NewFaces()
	var names [4]string
	for i, data := range [][]byte{ goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF } {
		name, err := faces.ParseFromBytes(data)
		if err != nil { return nil, nil, err }
		names[i] = name
	}

	sets := make([]layout.FontSet, len(sizes))
	for i, size := range sizes {
		set, err := faces.FontSet(size, names[0], names[1], names[2], names[3])
		if err != nil { return nil, nil, err }
		sets[i] = set
	}
	return faces, sets, nil
}
