// The layout subpackage converts caption markup into positioned,
// styled runs of text ([WorkUnit] values) wrapped to a maximum width.
//
// Glyph metrics come from a [Measurer], so the engine never deals with
// fonts directly: fonts are opaque [FontHandle] values chosen from a
// [FontSet] depending on the bold and italic state.
//
// Wrapping is greedy. When a glyph doesn't fit, the current run rolls
// back to its most recent break point: after whitespace (which is then
// dropped) or, with CJK wrapping enabled, between two characters that
// CJK line breaking rules allow to be split (the character after the
// boundary starts the next line). Without any break point, the line
// is broken right before the glyph that didn't fit.
package layout
