package closecap

import "fmt"
import "time"
import "errors"
import "math/rand"
import "image/color"

import "github.com/tliron/commonlog"

import "github.com/tinne26/closecap/blockcache"
import "github.com/tinne26/closecap/capdir"
import "github.com/tinne26/closecap/config"
import "github.com/tinne26/closecap/display"
import "github.com/tinne26/closecap/font"
import "github.com/tinne26/closecap/layout"
import "github.com/tinne26/closecap/ledger"
import "github.com/tinne26/closecap/markup"
import "github.com/tinne26/closecap/request"

var log = commonlog.GetLogger("closecap")

var ErrNoDatabase = errors.New("no caption database could be loaded")
var ErrBlockTooLarge = errors.New("caption blocks larger than the cache budget")

// Optional collaborators for a [Session]. Zero values are replaced
// with defaults.
type Options struct {
	// Async reader for caption blocks. Defaults to a
	// [blockcache.FileReader] owned by the session.
	Reader blockcache.AsyncReader

	// Font registry and font sets for layout. If Faces is nil, the Go
	// fonts are used at the configured sizes.
	Faces *font.Faces
	Fonts layout.FontSet
	SmallFonts *layout.FontSet

	// Randomness source for random captions.
	Rand request.Rand

	// Wall clock for repeat suppression. Defaults to time.Now.
	Clock func() time.Time

	// Sound names for the cc_findsound command. Optional.
	Sounds SoundLister
}

// A caption session ties together all the caption components. Sessions
// are not concurrent-safe: events, updates and painting must all happen
// on the same goroutine, typically the game loop's.
type Session struct {
	config config.Config
	options Options
	fileReader *blockcache.FileReader // owned, nil if external
	ownsFaces bool

	set *capdir.Set
	cache *blockcache.Manager
	pipeline *request.Pipeline
	engine *layout.Engine
	scheduler *display.Scheduler
	ledger *ledger.Ledger

	tick uint64
	traced map[uint32]struct{}
	showBlocks bool
}

// Creates a new session and loads the caption databases for the
// configured language. Missing databases are logged and skipped, but
// if none can be loaded [ErrNoDatabase] is returned.
func New(cfg config.Config, options Options) (*Session, error) {
	err := cfg.Validate()
	if err != nil { return nil, err }

	session := &Session{ config: cfg, traced: make(map[uint32]struct{}) }
	if options.Faces == nil {
		sizes := []float64{ cfg.FontSize }
		if cfg.SmallFontSize > 0 { sizes = append(sizes, cfg.SmallFontSize) }
		faces, sets, err := font.GoFontSets(sizes...)
		if err != nil { return nil, err }
		options.Faces, options.Fonts = faces, sets[0]
		if len(sets) > 1 { options.SmallFonts = &sets[1] }
		session.ownsFaces = true
	}
	if options.Reader == nil {
		session.fileReader = blockcache.NewFileReader(cfg.MaxInFlightReads)
		options.Reader = session.fileReader
	}
	if options.Rand == nil { options.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) }
	if options.Clock == nil { options.Clock = time.Now }
	session.options = options

	session.set = capdir.NewSet()
	session.cache = blockcache.NewManager(options.Reader, cfg.CacheBudget)
	session.pipeline = request.New(session.set, session.cache)
	session.ledger = ledger.New()
	session.engine = newEngine(&cfg, &options)
	session.scheduler = display.NewScheduler(session.engine, displayOptions(&cfg))
	session.applyLimits()

	err = session.loadDatabases()
	if err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

func newEngine(cfg *config.Config, options *Options) *layout.Engine {
	speakers := make(map[string]color.RGBA, len(cfg.SpeakerColors))
	for name, value := range cfg.SpeakerColors {
		clr, ok := markup.ParseColor(value)
		if !ok {
			log.Warningf("invalid color '%s' for speaker '%s'", value, name)
			continue
		}
		speakers[name] = clr
	}

	return layout.NewEngine(options.Faces, layout.Options{
		Fonts: options.Fonts,
		SmallFonts: options.SmallFonts,
		SmallFontLength: cfg.SmallFontLength,
		CJKWordWrap: cfg.UseCJKWordWrap(),
		SpeakerColors: speakers,
	})
}

func displayOptions(cfg *config.Config) display.Options {
	options := display.DefaultOptions()
	options.X, options.Y = cfg.PanelX, cfg.PanelY
	options.Width, options.Height = cfg.PanelWidth, cfg.PanelHeight
	options.Padding = cfg.PanelPadding
	options.MinVisibleItems = cfg.MinVisibleItems
	options.HiddenTime = cfg.ItemHiddenTime
	options.FadeInTime = cfg.ItemFadeInTime
	options.FadeOutTime = cfg.ItemFadeOutTime
	options.GrowTime = cfg.GrowTime
	options.PanFadeTime = cfg.PanFadeTime
	options.PanSlideTime = cfg.PanSlideTime
	return options
}

func (self *Session) applyLimits() {
	self.cache.SetBudget(self.config.CacheBudget)
	self.cache.SetFlushTimeout(self.config.FlushTimeout)
	self.pipeline.SetMaxAge(self.config.MaxTicketAge)
	self.pipeline.SetMaxRunes(self.config.MaxCaptionRunes)
}

// Drops everything in flight and loads the databases for the current
// language, English fallback included.
func (self *Session) loadDatabases() error {
	self.pipeline.Clear()
	self.set.Clear()
	var errs []error
	for _, path := range self.config.LanguageFiles() {
		dir, err := capdir.Load(path)
		if err != nil {
			log.Warningf("can't load captions: %s", err.Error())
			errs = append(errs, err)
			continue
		}
		err = checkBlockSize(dir, self.config.CacheBudget)
		if err != nil {
			log.Warningf("can't use captions: %s", err.Error())
			errs = append(errs, err)
			continue
		}
		self.set.Add(dir)
		log.Infof("loaded %d captions from %s", dir.Len(), path)
	}
	self.cache.SetFiles(blockcache.FilesFromSet(self.set))
	self.ledger.Clear()
	clear(self.traced)
	if self.set.Len() == 0 { return errors.Join(append([]error{ ErrNoDatabase }, errs...)...) }
	return nil
}

// Returns the current settings.
func (self *Session) Config() config.Config { return self.config }

// Applies new settings. Databases are reloaded when the language or
// file locations change, in which case pending requests are dropped.
func (self *Session) SetConfig(cfg config.Config) error {
	err := cfg.Validate()
	if err != nil { return err }
	reload := cfg.Language != self.config.Language ||
		cfg.DataDir != self.config.DataDir ||
		cfg.FilePattern != self.config.FilePattern
	if !reload {
		for i := 0; i < self.set.Len(); i++ {
			err = checkBlockSize(self.set.Directory(i), cfg.CacheBudget)
			if err != nil { return err }
		}
	}
	old := self.config
	self.config = cfg
	self.applyLimits()

	if cfg.CJKWordWrap != old.CJKWordWrap || cfg.Language != old.Language ||
		cfg.SmallFontLength != old.SmallFontLength || !sameSpeakers(cfg.SpeakerColors, old.SpeakerColors) {
		self.engine = newEngine(&self.config, &self.options)
		self.scheduler.SetEngine(self.engine)
	}
	self.scheduler.SetOptions(displayOptions(&self.config))
	if !reload { return nil }

	err = self.loadDatabases()
	if err != nil {
		// keep the session usable with the previous language
		self.config = old
		self.applyLimits()
		self.engine = newEngine(&self.config, &self.options)
		self.scheduler.SetEngine(self.engine)
		self.scheduler.SetOptions(displayOptions(&self.config))
		if reloadErr := self.loadDatabases(); reloadErr != nil {
			log.Errorf("can't restore previous captions: %s", reloadErr.Error())
		}
		return err
	}
	return nil
}

// A block must fit in the cache on its own.
func checkBlockSize(dir *capdir.Directory, budget int) error {
	blockSize := int(dir.Header().BlockSize)
	if blockSize <= budget { return nil }
	return fmt.Errorf("%w: %s uses %d byte blocks, budget is %d", ErrBlockTooLarge, dir.Path(), blockSize, budget)
}

func sameSpeakers(a, b map[string]string) bool {
	if len(a) != len(b) { return false }
	for name, value := range a {
		if other, found := b[name]; !found || other != value { return false }
	}
	return true
}

// Changes the caption language. Equivalent to [Session.SetConfig]()
// with only the language changed.
func (self *Session) SetLanguage(lang string) error {
	cfg := self.config
	cfg.Language = lang
	return self.SetConfig(cfg)
}

// Returns the loaded caption databases, current language first.
func (self *Session) Directories() *capdir.Set { return self.set }

// Returns the block cache manager.
func (self *Session) Cache() *blockcache.Manager { return self.cache }

// Returns the request pipeline.
func (self *Session) Pipeline() *request.Pipeline { return self.pipeline }

// Returns the display scheduler.
func (self *Session) Scheduler() *display.Scheduler { return self.scheduler }

// Returns the layout engine.
func (self *Session) Engine() *layout.Engine { return self.engine }

// Returns the font registry used for layout.
func (self *Session) Faces() *font.Faces { return self.options.Faces }

// Returns the current simulation tick, which advances once per
// [Session.Update]().
func (self *Session) Tick() uint64 { return self.tick }

// Drops pending requests, cached blocks and repeat suppression
// records. Displayed captions are kept.
func (self *Session) FlushCache() {
	self.pipeline.Clear()
	self.cache.Clear()
	self.ledger.Clear()
}

// Resets the session for a new level: like [Session.FlushCache](),
// but also removing all displayed captions.
func (self *Session) LevelShutdown() {
	self.FlushCache()
	self.scheduler.Clear()
	clear(self.traced)
}

// Releases the session resources. The session can't be used after
// this.
func (self *Session) Close() error {
	self.pipeline.Clear()
	self.cache.Clear()
	var errs []error
	if self.fileReader != nil { errs = append(errs, self.fileReader.Close()) }
	if self.ownsFaces { errs = append(errs, self.options.Faces.Close()) }
	return errors.Join(errs...)
}
