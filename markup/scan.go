package markup

import "time"
import "strconv"
import "strings"
import "image/color"

// Flags and timings found by [Scan]().
type Info struct {
	SFX bool
	Low bool
	Len time.Duration // only meaningful if HasLen
	HasLen bool
	NoRepeat time.Duration // only meaningful if HasNoRepeat
	HasNoRepeat bool
}

// Scans the given markup for the commands that affect how a caption is
// scheduled rather than how it's drawn. Commands with malformed
// arguments are ignored. If a command appears more than once, the last
// one wins.
func Scan(text string) Info {
	var info Info
	tokenizer := NewTokenizer(text)
	for {
		token, ok := tokenizer.Next()
		if !ok { return info }
		if token.Kind != TokenCommand { continue }
		switch token.Text {
		case CmdSFX:
			info.SFX = true
		case CmdLow:
			info.Low = true
		case CmdLen:
			seconds, ok := ParseSeconds(token.Args)
			if ok { info.Len, info.HasLen = seconds, true }
		case CmdNoRepeat:
			seconds, ok := ParseSeconds(token.Args)
			if ok { info.NoRepeat, info.HasNoRepeat = seconds, true }
		}
	}
}

// A piece of a caption split by [SplitDelays]().
type Segment struct {
	Text string
	Delay time.Duration // since the first segment
}

// Splits the given markup at `<delay:seconds>` commands. Delays are
// cumulative, so "a<delay:1>b<delay:2>c" results in delays 0, 1 and 3.
// Empty segments are dropped (but their delay still counts), and
// malformed delays are treated as zero.
func SplitDelays(text string) []Segment {
	var segments []Segment
	var delay time.Duration
	segmentStart := 0
	tokenizer := NewTokenizer(text)
	for {
		token, ok := tokenizer.Next()
		if !ok { break }
		if !token.Is(CmdDelay) { continue }
		segments = appendSegment(segments, text[segmentStart : token.Offset], delay)
		seconds, _ := ParseSeconds(token.Args)
		delay += seconds
		segmentStart = tokenizer.index
	}
	return appendSegment(segments, text[segmentStart : ], delay)
}

func appendSegment(segments []Segment, text string, delay time.Duration) []Segment {
	if Strip(text) == "" { return segments }
	return append(segments, Segment{ Text: text, Delay: delay })
}

// Parses a non-negative amount of seconds, like "1.5".
func ParseSeconds(args string) (time.Duration, bool) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(args), 64)
	if err != nil || seconds < 0 || seconds > 3600 { return 0, false }
	return time.Duration(seconds*float64(time.Second)), true
}

// Parses "r,g,b" color arguments. Components are clamped to [0, 255].
func ParseColor(args string) (color.RGBA, bool) {
	fields := strings.Split(args, ",")
	if len(fields) != 3 { return color.RGBA{}, false }
	var rgb [3]uint8
	for i, field := range fields {
		value, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil { return color.RGBA{}, false }
		rgb[i] = uint8(min(max(value, 0), 255))
	}
	return color.RGBA{ rgb[0], rgb[1], rgb[2], 255 }, true
}

// Parses "r,g,b:r,g,b" player color arguments. The first color is used
// when the speaker is the local player, the second otherwise.
func ParsePlayerColor(args string) (player, other color.RGBA, ok bool) {
	first, second, found := strings.Cut(args, ":")
	if !found { return }
	player, ok = ParseColor(first)
	if !ok { return }
	other, ok = ParseColor(second)
	return
}
