// The font subpackage parses fonts and turns them into sized faces
// that can be used for caption layout and painting.
//
// A [Faces] registry holds the parsed fonts by name and hands out
// [layout.FontHandle] values for (font, size) pairs. The registry
// implements [layout.Measurer] directly, and gives access to the
// equivalent [golang.org/x/image/font.Face] of each handle for
// drawing.
package font
