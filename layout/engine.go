package layout

import "strings"
import "unicode"
import "unicode/utf8"
import "image/color"

import "golang.org/x/image/math/fixed"

import "github.com/tinne26/closecap/markup"

// Layout configuration.
type Options struct {
	Fonts FontSet

	// Optional font set used for captions whose literal text is longer
	// than SmallFontLength runes.
	SmallFonts *FontSet
	SmallFontLength int

	// Enables breaking lines between CJK characters.
	CJKWordWrap bool

	DefaultColor color.RGBA

	// Colors for "Name:" speaker prefixes at the start of a caption,
	// keyed by lowercased name.
	SpeakerColors map[string]color.RGBA
}

// The layout engine. Engines are immutable after creation and can be
// shared.
type Engine struct {
	measurer Measurer
	options Options
	speakers map[string]color.RGBA
}

// Creates a new layout engine.
func NewEngine(measurer Measurer, options Options) *Engine {
	if measurer == nil { panic("nil Measurer") }
	speakers := make(map[string]color.RGBA, len(options.SpeakerColors))
	for name, clr := range options.SpeakerColors {
		speakers[strings.ToLower(strings.TrimSpace(name))] = clr
	}
	if options.DefaultColor == (color.RGBA{}) {
		options.DefaultColor = color.RGBA{255, 255, 255, 255}
	}
	return &Engine{ measurer: measurer, options: options, speakers: speakers }
}

// Returns the engine options.
func (self *Engine) Options() Options { return self.options }

// Returns the line height in pixels for the regular font.
func (self *Engine) LineHeight() int {
	return lineHeightOf(self.measurer, self.options.Fonts).Ceil()
}

// Returns the font set that will be used for the given caption text.
func (self *Engine) FontsFor(text string) FontSet {
	small := self.options.SmallFonts
	if small == nil || self.options.SmallFontLength <= 0 { return self.options.Fonts }
	if utf8.RuneCountInString(markup.Strip(text)) <= self.options.SmallFontLength {
		return self.options.Fonts
	}
	return *small
}

// Lays out the given caption markup wrapping lines at maxWidth pixels.
// fromPlayer selects the first color of playerclr commands.
func (self *Engine) Layout(text string, maxWidth int, fromPlayer bool) Result {
	fonts := self.FontsFor(text)
	state := layoutState{
		engine: self,
		fonts: fonts,
		fromPlayer: fromPlayer,
		maxWidth: fixed.I(max(maxWidth, 1)),
		lineHeight: lineHeightOf(self.measurer, fonts).Ceil(),
		breakIndex: -1,
	}

	first := true
	tokenizer := markup.NewTokenizer(text)
	for {
		token, ok := tokenizer.Next()
		if !ok { break }
		if token.Kind == markup.TokenText {
			if first {
				state.addSpeakerText(token.Text)
			} else {
				state.addText(token.Text)
			}
			first = false
		} else {
			state.command(token)
		}
	}
	return state.finish()
}

func lineHeightOf(measurer Measurer, fonts FontSet) fixed.Int26_6 {
	height := measurer.LineHeight(fonts.Regular)
	height = max(height, measurer.LineHeight(fonts.Bold))
	height = max(height, measurer.LineHeight(fonts.Italic))
	return max(height, measurer.LineHeight(fonts.BoldItalic))
}

type layoutState struct {
	engine *Engine
	fonts FontSet
	fromPlayer bool
	maxWidth fixed.Int26_6
	lineHeight int
	result Result

	// style
	bold bool
	italic bool
	colors []color.RGBA

	// current line and run
	line int
	runX fixed.Int26_6
	run []rune
	advances []fixed.Int26_6
	runWidth fixed.Int26_6
	breakIndex int // index in run of the last break point, -1 if none
	breakSkip int  // 1 if the break point char is dropped when breaking
	lastRune rune  // last rune of the previous unit in the line
	wrapped bool   // the current line was started by a wrap

	// units already flushed on the current line
	lineStart int
	lineUnits []lineUnit
}

// Advances and last break point of a unit flushed on the current line.
type lineUnit struct {
	advances []fixed.Int26_6
	breakIndex int
	breakSkip int
}

func (self *layoutState) color() color.RGBA {
	if len(self.colors) == 0 { return self.engine.options.DefaultColor }
	return self.colors[len(self.colors) - 1]
}

func (self *layoutState) command(token markup.Token) {
	switch token.Text {
	case markup.CmdNewline:
		self.newline()
	case markup.CmdItalic:
		self.flush()
		self.italic = !self.italic
	case markup.CmdBold:
		self.flush()
		self.bold = !self.bold
	case markup.CmdColor:
		if token.Args == "" {
			self.popColor()
		} else if clr, ok := markup.ParseColor(token.Args); ok {
			self.pushColor(clr)
		}
	case markup.CmdPlayerColor:
		player, other, ok := markup.ParsePlayerColor(token.Args)
		if !ok { return }
		if self.fromPlayer {
			self.pushColor(player)
		} else {
			self.pushColor(other)
		}
	}
}

func (self *layoutState) pushColor(clr color.RGBA) {
	self.flush()
	self.colors = append(self.colors, clr)
}

func (self *layoutState) popColor() {
	if len(self.colors) == 0 { return }
	self.flush()
	self.colors = self.colors[ : len(self.colors) - 1]
}

// Handles the first text token, which may start with a known
// "Name:" speaker prefix.
func (self *layoutState) addSpeakerText(text string) {
	if len(self.engine.speakers) > 0 {
		name, _, found := strings.Cut(text, ":")
		if found {
			clr, known := self.engine.speakers[strings.ToLower(strings.TrimSpace(name))]
			if known {
				prefixLen := len(name) + 1
				self.pushColor(clr)
				self.addText(text[ : prefixLen])
				self.popColor()
				text = text[prefixLen : ]
			}
		}
	}
	self.addText(text)
}

func (self *layoutState) addText(text string) {
	for _, char := range text { self.addRune(char) }
}

func (self *layoutState) addRune(char rune) {
	if char == '\n' { self.newline() ; return }
	if char == '\r' { return }

	font := self.fonts.Pick(self.bold, self.italic)
	advance, _ := self.engine.measurer.MeasureGlyph(font, char)
	space := unicode.IsSpace(char)
	if !space && self.engine.options.CJKWordWrap {
		if len(self.run) > 0 {
			if CanBreakCJK(self.run[len(self.run) - 1], char) {
				self.breakIndex, self.breakSkip = len(self.run), 0
			}
		} else if self.runX > 0 && CanBreakCJK(self.lastRune, char) {
			self.breakIndex, self.breakSkip = 0, 0
		}
	}

	if self.runX + self.runWidth + advance > self.maxWidth && (len(self.run) > 0 || self.runX > 0) {
		if space { // break right here, dropping the space
			self.newline()
			self.wrapped = true
			return
		}
		self.wrap()
		if self.runX + self.runWidth + advance > self.maxWidth && len(self.run) > 0 {
			self.newline() // carried text still too wide
			self.wrapped = true
		}
	}

	if space {
		// don't start wrapped lines with whitespace
		if len(self.run) == 0 && self.runX == 0 && self.wrapped { return }
		self.breakIndex, self.breakSkip = len(self.run), 1
	}

	self.run = append(self.run, char)
	self.advances = append(self.advances, advance)
	self.runWidth += advance
}

// Moves text after the last break point of the line to a new line
// because the next char doesn't fit.
func (self *layoutState) wrap() {
	if self.breakIndex >= 0 {
		tail := append([]rune(nil), self.run[self.breakIndex + self.breakSkip : ]...)
		tailAdvances := append([]fixed.Int26_6(nil), self.advances[self.breakIndex + self.breakSkip : ]...)
		self.run = self.run[ : self.breakIndex]
		self.advances = self.advances[ : self.breakIndex]
		self.runWidth = sum(self.advances)
		self.newline()
		self.wrapped = true
		self.run = append(self.run, tail...)
		self.advances = append(self.advances, tailAdvances...)
		self.runWidth = sum(self.advances)
		return
	}

	// no break point in the run, look at the units already on the line
	for k := len(self.lineUnits) - 1; k >= 0; k-- {
		unit := self.lineUnits[k]
		if unit.breakIndex < 0 { continue }
		if k == 0 && unit.breakIndex == 0 { break } // would leave the line empty
		self.wrapLine(k)
		return
	}

	// force break
	self.newline()
	self.wrapped = true
}

// Splits the k-th unit of the line at its break point and moves its
// tail and all the later units of the line to a new line. The current
// run is left untouched and continues after the moved units.
func (self *layoutState) wrapLine(k int) {
	brk := self.lineUnits[k]
	index := self.lineStart + k
	split := self.result.Units[index]
	runes := []rune(split.Text)

	var moved []WorkUnit
	var movedAdvances [][]fixed.Int26_6
	if cut := brk.breakIndex + brk.breakSkip; cut < len(runes) {
		tail := split
		tail.Text = string(runes[cut : ])
		moved = append(moved, tail)
		movedAdvances = append(movedAdvances, brk.advances[cut : ])
	}
	for i := index + 1; i < len(self.result.Units); i++ {
		moved = append(moved, self.result.Units[i])
		movedAdvances = append(movedAdvances, self.lineUnits[i - self.lineStart].advances)
	}

	self.result.Units = self.result.Units[ : index]
	if brk.breakIndex > 0 {
		var x fixed.Int26_6
		for _, unit := range self.lineUnits[ : k] { x += sum(unit.advances) }
		split.Text = string(runes[ : brk.breakIndex])
		split.Width = (x + sum(brk.advances[ : brk.breakIndex])).Ceil() - split.X
		self.result.Units = append(self.result.Units, split)
	}

	self.line += 1
	self.lineStart = len(self.result.Units)
	self.lineUnits = self.lineUnits[ : 0]
	self.runX = 0
	self.lastRune = 0
	self.wrapped = true
	for i, unit := range moved {
		advances := movedAdvances[i]
		unit.X = self.runX.Round()
		unit.Y = self.line*self.lineHeight
		self.runX += sum(advances)
		unit.Width = self.runX.Ceil() - unit.X
		self.result.Units = append(self.result.Units, unit)
		self.lineUnits = append(self.lineUnits, lineUnit{ advances: advances, breakIndex: -1 })
		self.lastRune, _ = utf8.DecodeLastRuneInString(unit.Text)
	}
}

// Closes the current run into a work unit.
func (self *layoutState) flush() {
	if len(self.run) == 0 { return }
	x := self.runX.Round()
	self.result.Units = append(self.result.Units, WorkUnit{
		Text: string(self.run),
		X: x,
		Y: self.line*self.lineHeight,
		Width: (self.runX + self.runWidth).Ceil() - x,
		Height: self.lineHeight,
		Bold: self.bold,
		Italic: self.italic,
		Color: self.color(),
		Font: self.fonts.Pick(self.bold, self.italic),
	})
	self.lineUnits = append(self.lineUnits, lineUnit{
		advances: append([]fixed.Int26_6(nil), self.advances...),
		breakIndex: self.breakIndex,
		breakSkip: self.breakSkip,
	})
	self.runX += self.runWidth
	self.lastRune = self.run[len(self.run) - 1]
	self.run = self.run[ : 0]
	self.advances = self.advances[ : 0]
	self.runWidth = 0
	self.breakIndex = -1
}

func (self *layoutState) newline() {
	self.flush()
	self.line += 1
	self.runX = 0
	self.lastRune = 0
	self.wrapped = false
	self.lineStart = len(self.result.Units)
	self.lineUnits = self.lineUnits[ : 0]
}

func (self *layoutState) finish() Result {
	self.flush()
	self.result.LineHeight = self.lineHeight
	if len(self.result.Units) == 0 { return self.result }

	self.result.Lines = self.line + 1
	self.result.Height = self.result.Lines*self.lineHeight
	for i := range self.result.Units {
		unit := &self.result.Units[i]
		self.result.Width = max(self.result.Width, unit.X + unit.Width)
	}
	return self.result
}

func sum(advances []fixed.Int26_6) fixed.Int26_6 {
	var total fixed.Int26_6
	for _, advance := range advances { total += advance }
	return total
}
