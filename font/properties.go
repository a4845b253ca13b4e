package font

import "sync"
import "errors"

import "golang.org/x/image/font/sfnt"

var ErrNotFound = errors.New("font property not found or empty")

// Shared buffer for one-off property queries. Faces keep their own.
var propBuffer sfnt.Buffer
var propMutex sync.Mutex

// Returns the requested font property. If the property is missing,
// [ErrNotFound] is returned.
func GetProperty(font *sfnt.Font, property sfnt.NameID) (string, error) {
	propMutex.Lock()
	value, err := font.Name(&propBuffer, property)
	propMutex.Unlock()
	if err == sfnt.ErrNotFound { return "", ErrNotFound }
	return value, err
}

// Returns the full name of the given font.
func GetName(font *sfnt.Font) (string, error) {
	return GetProperty(font, sfnt.NameIDFull)
}

// Returns the family name of the given font.
func GetFamily(font *sfnt.Font) (string, error) {
	return GetProperty(font, sfnt.NameIDFamily)
}

// Returns the runes in the given text that the font can't represent.
// Caption databases for a new language should be checked against the
// fonts they'll be drawn with, as missing glyphs are drawn as boxes.
func GetMissingRunes(font *sfnt.Font, text string) ([]rune, error) {
	propMutex.Lock()
	defer propMutex.Unlock()

	var missing []rune
	for _, char := range text {
		index, err := font.GlyphIndex(&propBuffer, char)
		if err != nil { return missing, err }
		if index == 0 { missing = append(missing, char) }
	}
	return missing, nil
}
