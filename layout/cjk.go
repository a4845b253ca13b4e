package layout

import "unicode"

import "github.com/mattn/go-runewidth"

// Characters that can't start a line: closing brackets, most
// punctuation, small kana and prolonged sound marks.
const noBreakBefore = "!%),.:;?]}¢°’”‰′″℃、。〃〉》」』】〕〗〙〛〞〟ぁぃぅぇぉっゃゅょゎゕゖゝゞ゠ァィゥェォッャュョヮヵヶ・ーヽヾㇰㇱㇲㇳㇴㇵㇶㇷㇸㇹㇺㇻㇼㇽㇾㇿ！％），．：；？］｝～｡｣､･ｧｨｩｪｫｬｭｮｯｰ"

// Characters that can't end a line: opening brackets and currency
// prefixes.
const noBreakAfter = "$(£¥‘“〈《「『【〔〖〘〚〝＄（［｛｢￡￥"

var noBreakBeforeSet = runeSet(noBreakBefore)
var noBreakAfterSet  = runeSet(noBreakAfter)

func runeSet(chars string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(chars))
	for _, char := range chars { set[char] = struct{}{} }
	return set
}

// Reports whether the rune is a wide CJK character, which can be
// broken around without whitespace.
func IsWide(r rune) bool {
	if runewidth.RuneWidth(r) == 2 { return true }
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}

// Reports whether CJK line breaking rules allow breaking the line
// between the two given characters.
func CanBreakCJK(prev, next rune) bool {
	if prev == 0 || next == 0 { return false }
	if !IsWide(prev) && !IsWide(next) { return false }
	if unicode.IsSpace(prev) || unicode.IsSpace(next) { return false } // whitespace rules apply
	if _, found := noBreakAfterSet[prev]; found { return false }
	if _, found := noBreakBeforeSet[next]; found { return false }
	return true
}
