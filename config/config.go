// The config subpackage defines the caption system settings and how
// they are loaded: defaults, then an optional TOML file, then
// environment variables prefixed with CLOSECAP_.
package config

import "os"
import "fmt"
import "time"
import "errors"
import "strings"
import "path/filepath"

import "github.com/BurntSushi/toml"
import "github.com/caarlos0/env/v11"
import "github.com/tliron/commonlog"
import "golang.org/x/text/language"
import "golang.org/x/text/language/display"

var log = commonlog.GetLogger("closecap.config")

var ErrInvalid = errors.New("invalid caption settings")

// Environment variables prefix.
const EnvPrefix = "CLOSECAP_"

// Smallest accepted cache budget. Databases with blocks larger than
// the budget are rejected when loaded.
const MinCacheBudget = 256

// Trace verbosity for dropped and missing captions.
type TraceLevel string
const (
	TraceOff     TraceLevel = "off"
	TraceConsole TraceLevel = "console"
	TraceHUD     TraceLevel = "hud" // console and on-screen
)

// Caption system settings.
type Config struct {
	Enabled bool `toml:"enabled" env:"ENABLED"`
	SubtitlesOnly bool `toml:"subtitles_only" env:"SUBTITLES_ONLY"`
	Trace TraceLevel `toml:"trace" env:"TRACE"`

	// timings
	LingerTime time.Duration `toml:"linger_time" env:"LINGER_TIME"`
	PreDisplayTime time.Duration `toml:"predisplay_time" env:"PREDISPLAY_TIME"`
	ItemHiddenTime time.Duration `toml:"item_hidden_time" env:"ITEM_HIDDEN_TIME"`
	ItemFadeInTime time.Duration `toml:"item_fadein_time" env:"ITEM_FADEIN_TIME"`
	ItemFadeOutTime time.Duration `toml:"item_fadeout_time" env:"ITEM_FADEOUT_TIME"`
	GrowTime time.Duration `toml:"grow_time" env:"GROW_TIME"`
	PanFadeTime time.Duration `toml:"pan_fade_time" env:"PAN_FADE_TIME"`
	PanSlideTime time.Duration `toml:"pan_slide_time" env:"PAN_SLIDE_TIME"`

	// box
	MinVisibleItems int `toml:"min_visible_items" env:"MIN_VISIBLE_ITEMS"`
	PanelX int `toml:"panel_x" env:"PANEL_X"`
	PanelY int `toml:"panel_y" env:"PANEL_Y"`
	PanelWidth int `toml:"panel_width" env:"PANEL_WIDTH"`
	PanelHeight int `toml:"panel_height" env:"PANEL_HEIGHT"`
	PanelPadding int `toml:"panel_padding" env:"PANEL_PADDING"`

	// text
	FontSize float64 `toml:"font_size" env:"FONT_SIZE"`
	SmallFontSize float64 `toml:"small_font_size" env:"SMALL_FONT_SIZE"`
	SmallFontLength int `toml:"small_font_length" env:"SMALL_FONT_LENGTH"`
	CJKWordWrap bool `toml:"cjk_word_wrap" env:"CJK_WORD_WRAP"`
	UntranslatedMarker string `toml:"untranslated_marker" env:"UNTRANSLATED_MARKER"`
	MaxCaptionRunes int `toml:"max_caption_runes" env:"MAX_CAPTION_RUNES"`
	SpeakerColors map[string]string `toml:"speaker_colors" env:"SPEAKER_COLORS" envSeparator:";" envKeyValSeparator:"="`

	// data and cache
	Language string `toml:"language" env:"LANGUAGE"`
	DataDir string `toml:"data_dir" env:"DATA_DIR"`
	FilePattern string `toml:"file_pattern" env:"FILE_PATTERN"`
	CacheBudget int `toml:"cache_budget" env:"CACHE_BUDGET"`
	MaxInFlightReads int `toml:"max_inflight_reads" env:"MAX_INFLIGHT_READS"`
	MaxTicketAge time.Duration `toml:"max_ticket_age" env:"MAX_TICKET_AGE"`
	FlushTimeout time.Duration `toml:"flush_timeout" env:"FLUSH_TIMEOUT"`
}

// Returns the default settings.
func Default() Config {
	return Config{
		Enabled: true,
		Trace: TraceOff,

		LingerTime: 1*time.Second,
		PreDisplayTime: 0,
		ItemHiddenTime: 0,
		ItemFadeInTime: 300*time.Millisecond,
		ItemFadeOutTime: 300*time.Millisecond,
		GrowTime: 250*time.Millisecond,
		PanFadeTime: 500*time.Millisecond,
		PanSlideTime: 500*time.Millisecond,

		MinVisibleItems: 1,
		PanelX: 80,
		PanelY: 280,
		PanelWidth: 480,
		PanelHeight: 180,
		PanelPadding: 8,

		FontSize: 16,
		SmallFontSize: 12,
		SmallFontLength: 160,
		UntranslatedMarker: "!!!",
		MaxCaptionRunes: 1024,

		Language: "en",
		DataDir: ".",
		FilePattern: "closecaption_%s.dat",
		CacheBudget: 64*1024,
		MaxInFlightReads: 4,
		MaxTicketAge: 10*time.Second,
		FlushTimeout: 2*time.Second,
	}
}

// Loads settings from the given TOML file (skipped if the path is
// empty) and the process environment, on top of the defaults.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, nil)
}

// Like [Load](), but reading environment variables from the given map
// instead of the process environment. A nil map uses the process
// environment.
func LoadWithEnv(path string, environment map[string]string) (Config, error) {
	cfg := Default()
	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil { return cfg, fmt.Errorf("%s: %w", path, err) }
		for _, key := range meta.Undecoded() {
			log.Warningf("%s: unknown setting '%s'", path, key.String())
		}
	}

	options := env.Options{ Prefix: EnvPrefix, Environment: environment }
	if environment == nil { options.Environment = env.ToMap(os.Environ()) }
	err := env.ParseWithOptions(&cfg, options)
	if err != nil { return cfg, err }
	return cfg, cfg.Validate()
}

// Reports settings that can't be used.
func (self *Config) Validate() error {
	var problems []string
	check := func(ok bool, problem string) {
		if !ok { problems = append(problems, problem) }
	}

	check(self.LingerTime >= 0, "negative linger_time")
	check(self.PreDisplayTime >= 0, "negative predisplay_time")
	check(self.ItemHiddenTime >= 0 && self.ItemFadeInTime >= 0 && self.ItemFadeOutTime >= 0, "negative item fade times")
	check(self.GrowTime >= 0 && self.PanFadeTime >= 0 && self.PanSlideTime >= 0, "negative animation times")
	check(self.MinVisibleItems >= 0, "negative min_visible_items")
	check(self.PanelWidth > 2*self.PanelPadding && self.PanelHeight > 2*self.PanelPadding, "panel too small for its padding")
	check(self.FontSize > 0, "font_size must be positive")
	check(self.SmallFontSize >= 0, "negative small_font_size")
	check(self.MaxCaptionRunes >= 0, "negative max_caption_runes")
	check(self.CacheBudget >= MinCacheBudget, fmt.Sprintf("cache_budget below %d bytes", MinCacheBudget))
	check(self.MaxInFlightReads > 0, "max_inflight_reads must be positive")
	check(self.FlushTimeout >= 0, "negative flush_timeout")
	check(strings.Count(self.FilePattern, "%s") == 1, "file_pattern must contain exactly one %s")
	switch self.Trace {
	case TraceOff, TraceConsole, TraceHUD:
	default:
		problems = append(problems, "unknown trace level '" + string(self.Trace) + "'")
	}
	_, err := language.Parse(self.Language)
	check(err == nil, "invalid language '" + self.Language + "'")

	if len(problems) == 0 { return nil }
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, ", "))
}

// Returns the language tag for the configured language, or English if
// it can't be parsed.
func (self *Config) LanguageTag() language.Tag {
	tag, err := language.Parse(self.Language)
	if err != nil { return language.English }
	return tag
}

// Returns the caption database file names for the configured language,
// current language first and English fallback second (unless the
// current language is English already).
func (self *Config) LanguageFiles() []string {
	tag := self.LanguageTag()
	base, _ := tag.Base()
	englishBase, _ := language.English.Base()

	files := []string{ self.languageFile(base) }
	if base != englishBase { files = append(files, self.languageFile(englishBase)) }
	return files
}

func (self *Config) languageFile(base language.Base) string {
	name := display.English.Languages().Name(base)
	if name == "" { name = base.String() }
	name = strings.ToLower(strings.ReplaceAll(name, " ", ""))
	return filepath.Join(self.DataDir, fmt.Sprintf(self.FilePattern, name))
}

// Returns whether lines should be broken between CJK characters:
// either because it's explicitly enabled or because the language is
// Chinese, Japanese or Korean.
func (self *Config) UseCJKWordWrap() bool {
	if self.CJKWordWrap { return true }
	base, _ := self.LanguageTag().Base()
	switch base.String() {
	case "zh", "ja", "ko": return true
	default:
		return false
	}
}
