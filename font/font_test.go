package font

import "errors"
import "testing"
import "testing/fstest"

import "golang.org/x/image/font/gofont/goregular"
import "golang.org/x/image/font/gofont/gomono"
import "golang.org/x/image/math/fixed"

func TestParse(t *testing.T) {
	font, name, err := ParseFromBytes(goregular.TTF)
	if err != nil { t.Fatal(err) }
	if name == "" { t.Fatal("expected font name") }
	family, err := GetFamily(font)
	if err != nil || family == "" { t.Fatalf("unexpected family '%s' (%v)", family, err) }

	missing, err := GetMissingRunes(font, "abc日")
	if err != nil { t.Fatal(err) }
	if len(missing) != 1 || missing[0] != '日' { t.Fatalf("unexpected missing runes %q", missing) }

	if _, _, err := ParseFromPath("font.png"); !errors.Is(err, ErrBadExtension) {
		t.Fatalf("expected ErrBadExtension, got %v", err)
	}
}

func TestFacesRegistry(t *testing.T) {
	filesys := fstest.MapFS{
		"fonts/regular.ttf": { Data: goregular.TTF },
		"fonts/REGULAR_COPY.TTF": { Data: goregular.TTF },
		"fonts/mono.ttf": { Data: gomono.TTF },
		"fonts/readme.txt": { Data: []byte("hi") },
	}
	faces := NewFaces()
	added, skipped, err := faces.ParseAllFromFS(filesys, "fonts")
	if err != nil { t.Fatal(err) }
	if added != 2 || skipped != 1 { t.Fatalf("expected 2 added and 1 skipped, got %d and %d", added, skipped) }
	_, monoName, _ := ParseFromBytes(gomono.TTF)
	if faces.Len() != 2 || faces.Font(monoName) == nil { t.Fatal("expected mono font in registry") }

	handle, err := faces.Face(monoName, 16)
	if err != nil { t.Fatal(err) }
	again, _ := faces.Face(monoName, 16)
	if again != handle { t.Fatal("expected same handle for same font and size") }
	bigger, _ := faces.Face(monoName, 32)
	if bigger == handle { t.Fatal("expected different handle for different size") }
	if _, err := faces.Face("Comic Sans", 16); !errors.Is(err, ErrUnknownFont) {
		t.Fatalf("expected ErrUnknownFont, got %v", err)
	}

	// monospaced font: all advances equal, and they scale with size
	wa, _ := faces.MeasureGlyph(handle, 'a')
	wm, _ := faces.MeasureGlyph(handle, 'M')
	wb, _ := faces.MeasureGlyph(bigger, 'a')
	if wa != wm || wa <= 0 { t.Fatalf("unexpected advances %v %v", wa, wm) }
	if diff := wb - 2*wa; diff < -fixed.I(1) || diff > fixed.I(1) {
		t.Fatalf("expected advance to scale with size (%v vs %v)", wa, wb)
	}
	if faces.LineHeight(handle) <= 0 { t.Fatalf("unexpected line height %v", faces.LineHeight(handle)) }

	drawFace, err := faces.DrawFace(handle)
	if err != nil { t.Fatal(err) }
	advance, ok := drawFace.GlyphAdvance('a')
	if !ok || advance != wa { t.Fatalf("draw face advance %v doesn't match measured %v", advance, wa) }
	if err := faces.Close(); err != nil { t.Fatal(err) }
}

func TestGoFonts(t *testing.T) {
	faces, set, err := GoFonts(18)
	if err != nil { t.Fatal(err) }
	if faces.Len() != 4 { t.Fatalf("expected 4 fonts, got %d", faces.Len()) }
	if set.Regular == set.Bold || set.Bold == set.BoldItalic || set.Italic == set.Regular {
		t.Fatalf("expected distinct handles, got %+v", set)
	}
	if faces.LineHeight(set.Italic) <= 0 { t.Fatal("expected positive line height") }
}
