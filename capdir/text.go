package capdir

import "strings"

import "golang.org/x/text/encoding/unicode"

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Decodes raw caption bytes (UTF-16LE) into a string. Anything after
// the first null code unit is discarded. Invalid sequences are replaced
// with U+FFFD instead of failing.
func DecodeText(raw []byte) string {
	if len(raw) & 1 == 1 { raw = raw[ : len(raw) - 1] }
	for i := 0; i < len(raw); i += 2 {
		if raw[i] == 0 && raw[i + 1] == 0 {
			raw = raw[ : i]
			break
		}
	}
	text, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil { return strings.ToValidUTF8(string(raw), "�") }
	return string(text)
}

// Encodes the given text as null terminated UTF-16LE, the on-disk
// caption text format.
func EncodeText(text string) []byte {
	raw, err := utf16le.NewEncoder().Bytes([]byte(strings.ToValidUTF8(text, "\uFFFD")))
	if err != nil { return []byte{ 0, 0 } }
	return append(raw, 0, 0)
}
