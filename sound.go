package closecap

import "strings"

import "github.com/tinne26/closecap/capdir"
import "github.com/tinne26/closecap/markup"

// Lists the sound names known to the game. Captions for sounds use the
// sound name as their token.
type SoundLister interface {
	SoundNames() []string
}

// Reads the text of the given caption synchronously, waiting for its
// block to load if necessary (up to the configured flush timeout).
// Meant for tools and debug commands, never for the frame loop.
func (self *Session) ReadCaption(token string) (string, bool) {
	location, found := self.set.ResolveToken(token)
	if !found || location.Entry.IsBlank() { return "", false }
	handle, err := self.cache.FindOrCreate(location.FileIndex, int(location.Entry.BlockNumber))
	if err != nil { return "", false }
	if self.cache.BeginLoad(handle) != nil { return "", false }
	if !self.cache.Wait(handle, self.config.FlushTimeout) { return "", false }

	var text string
	start := int(location.Entry.ByteOffset)
	end := start + int(location.Entry.ByteLength)
	self.cache.With(handle, func(data []byte) {
		if end <= len(data) { text = capdir.DecodeText(data[start : end]) }
	})
	return text, text != ""
}

// Returns the sounds whose caption contains the given text, ignoring
// case and markup.
func (self *Session) FindSound(text string, sounds SoundLister) []string {
	needle := strings.ToLower(text)
	var found []string
	for _, name := range sounds.SoundNames() {
		caption, ok := self.ReadCaption(name)
		if !ok { continue }
		if strings.Contains(strings.ToLower(markup.Strip(caption)), needle) {
			found = append(found, name)
		}
	}
	return found
}
