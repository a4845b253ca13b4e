package closecap

import "fmt"
import "time"

import "github.com/tliron/commonlog"

import "github.com/tinne26/closecap/config"
import "github.com/tinne26/closecap/display"

var traceLog = commonlog.GetLogger("closecap.trace")

// How long on-screen trace messages stay visible.
const traceDuration = 3*time.Second

// Reports dropped captions through the trace channel, as configured.
func (self *Session) tracef(format string, args ...any) {
	if self.config.Trace == config.TraceOff { return }
	message := fmt.Sprintf(format, args...)
	traceLog.Info(message)
	if self.config.Trace == config.TraceHUD {
		item := display.NewItem("<clr:255,160,64>" + message, traceDuration, 0)
		item.Low = true
		self.scheduler.Add(item)
	}
}

// Like tracef, but only once per hash until the next level shutdown or
// language change.
func (self *Session) traceMissing(hash uint32, token string, err error) {
	if _, done := self.traced[hash]; done { return }
	self.traced[hash] = struct{}{}
	if token == "" {
		self.tracef("caption %08x not found", hash)
	} else {
		self.tracef("caption '%s' (%08x) not found: %s", token, hash, err.Error())
	}
}
