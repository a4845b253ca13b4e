package closecap

import "fmt"
import "time"
import "errors"
import "strings"
import "strconv"

var ErrUnknownCommand = errors.New("unknown command")
var ErrUsage          = errors.New("invalid command arguments")

// A debug console command. Run receives the arguments after the
// command name and returns a message for the console.
type Command struct {
	Name string
	Usage string
	Run func(args []string) (string, error)
}

// Returns the caption debug commands, ready to be registered on a game
// console.
func (self *Session) Commands() []Command {
	return []Command{
		{ "cc_emit", "cc_emit <token> [seconds]: shows the given caption", self.cmdEmit },
		{ "cc_random", "cc_random: shows a random caption", self.cmdRandom },
		{ "cc_flush", "cc_flush: flushes the caption cache", self.cmdFlush },
		{ "cc_showblocks", "cc_showblocks: toggles the block cache overlay", self.cmdShowBlocks },
		{ "cc_findsound", "cc_findsound <text>: lists sounds whose caption contains the text", self.cmdFindSound },
		{ "cc_lang", "cc_lang [language]: shows or changes the caption language", self.cmdLang },
	}
}

// Runs a command line like "cc_emit Npc.Greeting 2.5".
func (self *Session) Exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 { return "", ErrUnknownCommand }
	for _, command := range self.Commands() {
		if command.Name != fields[0] { continue }
		message, err := command.Run(fields[1 : ])
		if errors.Is(err, ErrUsage) { return command.Usage, err }
		return message, err
	}
	return "", fmt.Errorf("%w '%s'", ErrUnknownCommand, fields[0])
}

func (self *Session) cmdEmit(args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 { return "", ErrUsage }
	var duration time.Duration
	if len(args) == 2 {
		seconds, err := strconv.ParseFloat(args[1], 64)
		if err != nil || seconds < 0 { return "", ErrUsage }
		duration = time.Duration(seconds*float64(time.Second))
	}
	err := self.EmitToken(args[0], duration, true)
	if err != nil { return "", err }
	return "caption '" + args[0] + "' requested", nil
}

func (self *Session) cmdRandom(args []string) (string, error) {
	if len(args) != 0 { return "", ErrUsage }
	return "random caption requested", self.EmitRandom()
}

func (self *Session) cmdFlush(args []string) (string, error) {
	if len(args) != 0 { return "", ErrUsage }
	stats := self.cache.Stats()
	self.FlushCache()
	return "flushed " + strconv.Itoa(stats.Resident) + " blocks", nil
}

func (self *Session) cmdShowBlocks(args []string) (string, error) {
	if len(args) != 0 { return "", ErrUsage }
	if self.ToggleBlockOverlay() { return "block overlay on", nil }
	return "block overlay off", nil
}

func (self *Session) cmdFindSound(args []string) (string, error) {
	if len(args) == 0 { return "", ErrUsage }
	if self.options.Sounds == nil { return "", errors.New("no sound list available") }
	found := self.FindSound(strings.Join(args, " "), self.options.Sounds)
	if len(found) == 0 { return "no sounds found", nil }
	return strings.Join(found, "\n"), nil
}

func (self *Session) cmdLang(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "caption language: " + self.config.Language, nil
	case 1:
		err := self.SetLanguage(args[0])
		if err != nil { return "", err }
		return "caption language set to " + args[0], nil
	default:
		return "", ErrUsage
	}
}
