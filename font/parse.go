package font

import "os"
import "io"
import "io/fs"
import "errors"
import "strings"
import "path/filepath"

import "golang.org/x/image/font/sfnt"

var ErrBadExtension = errors.New("font path must end in .ttf or .otf")

// Parses a font and returns it along its name. The bytes must not be
// modified while the font is in use.
func ParseFromBytes(data []byte) (*sfnt.Font, string, error) {
	font, err := sfnt.Parse(data)
	if err != nil { return nil, "", err }
	name, err := GetName(font)
	return font, name, err
}

// Parses the .ttf or .otf font at the given path.
func ParseFromPath(path string) (*sfnt.Font, string, error) {
	if !hasFontExtension(path) { return nil, "", ErrBadExtension }
	file, err := os.Open(path)
	if err != nil { return nil, "", err }
	return parseAndClose(file)
}

// Same as [ParseFromPath](), but for embedded filesystems.
func ParseFromFS(filesys fs.FS, path string) (*sfnt.Font, string, error) {
	if !hasFontExtension(path) { return nil, "", ErrBadExtension }
	file, err := filesys.Open(path)
	if err != nil { return nil, "", err }
	return parseAndClose(file)
}

func parseAndClose(file io.ReadCloser) (*sfnt.Font, string, error) {
	data, err := io.ReadAll(file)
	closeErr := file.Close()
	if err != nil { return nil, "", err }
	if closeErr != nil { return nil, "", closeErr }
	return ParseFromBytes(data)
}

func hasFontExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".ttf" || ext == ".otf"
}
