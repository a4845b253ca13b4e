package markup

import "strings"

// Recognized command names, lowercased.
const (
	CmdNewline     = "cr"
	CmdColor       = "clr"
	CmdPlayerColor = "playerclr"
	CmdItalic      = "i"
	CmdBold        = "b"
	CmdDelay       = "delay"
	CmdSFX         = "sfx"
	CmdLow         = "low"
	CmdLen         = "len"
	CmdNoRepeat    = "norepeat"
)

// Returns whether the given lowercase command name is one of the
// recognized commands.
func IsKnown(name string) bool {
	switch name {
	case CmdNewline, CmdColor, CmdPlayerColor, CmdItalic, CmdBold,
	     CmdDelay, CmdSFX, CmdLow, CmdLen, CmdNoRepeat:
		return true
	default:
		return false
	}
}

type TokenKind uint8
const (
	TokenText TokenKind = iota
	TokenCommand
)

// A markup token. For text tokens, Text holds the literal text. For
// commands, Text holds the lowercased command name and Args the
// trimmed arguments (possibly empty).
type Token struct {
	Kind TokenKind
	Text string
	Args string
	Offset int // byte offset of the token in the source text
}

// Returns whether the token is the given command.
func (self Token) Is(command string) bool {
	return self.Kind == TokenCommand && self.Text == command
}

// A Tokenizer splits markup into text and command tokens. The zero
// value is not valid, use [NewTokenizer]().
type Tokenizer struct {
	text string
	index int
}

// Creates a tokenizer for the given markup.
func NewTokenizer(text string) Tokenizer {
	return Tokenizer{ text: text }
}

// Returns the next token, or false if the text has been fully consumed.
// Consecutive literal text is always returned as a single token.
func (self *Tokenizer) Next() (Token, bool) {
	if self.index >= len(self.text) { return Token{}, false }

	start := self.index
	for self.index < len(self.text) {
		if self.text[self.index] == '<' {
			token, end, ok := parseCommand(self.text, self.index)
			if ok {
				if self.index > start { // flush text first
					return Token{ Kind: TokenText, Text: self.text[start : self.index], Offset: start }, true
				}
				self.index = end
				return token, true
			}
		}
		self.index += 1
	}
	return Token{ Kind: TokenText, Text: self.text[start : ], Offset: start }, true
}

// Parses the command starting at text[start] == '<'. Returns the token,
// the index right after the closing '>' and whether parsing succeeded.
func parseCommand(text string, start int) (Token, int, bool) {
	index := start + 1
	for index < len(text) && !isNameEnd(text[index]) {
		if text[index] == '<' { return Token{}, 0, false }
		index += 1
	}
	if index >= len(text) { return Token{}, 0, false } // unterminated

	name := text[start + 1 : index]
	if name == "" { return Token{}, 0, false }
	token := Token{ Kind: TokenCommand, Text: strings.ToLower(name), Offset: start }
	if text[index] == '>' { return token, index + 1, true }

	argsStart := index + 1
	if text[index] != ':' { argsStart = index } // whitespace is part of the args
	end := strings.IndexByte(text[argsStart : ], '>')
	if end == -1 { return Token{}, 0, false }
	args := text[argsStart : argsStart + end]
	if strings.IndexByte(args, '<') != -1 { return Token{}, 0, false }
	token.Args = strings.TrimSpace(args)
	return token, argsStart + end + 1, true
}

func isNameEnd(char byte) bool {
	return char == ':' || char == '>' || char == ' ' || char == '\t' || char == '\n' || char == '\r'
}

// Convenience function to get all the tokens of the given markup.
func Tokenize(text string) []Token {
	var tokens []Token
	tokenizer := NewTokenizer(text)
	for {
		token, ok := tokenizer.Next()
		if !ok { return tokens }
		tokens = append(tokens, token)
	}
}

// Removes all markup commands from the given text, keeping only the
// literal text. Newline commands are replaced with '\n'.
func Strip(text string) string {
	var builder strings.Builder
	tokenizer := NewTokenizer(text)
	for {
		token, ok := tokenizer.Next()
		if !ok { return builder.String() }
		switch {
		case token.Kind == TokenText:
			builder.WriteString(token.Text)
		case token.Is(CmdNewline):
			builder.WriteByte('\n')
		}
	}
}
