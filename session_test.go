package closecap

import "os"
import "time"
import "bytes"
import "errors"
import "testing"
import "image/color"

import "github.com/tinne26/closecap/blockcache"
import "github.com/tinne26/closecap/capdir"
import "github.com/tinne26/closecap/config"
import "github.com/tinne26/closecap/layout"

// In-memory reader completing reads only on demand.
type memReader struct {
	files map[string][]byte
	reads []*memRead
}

type memRead struct {
	data []byte
	dst []byte
	offset int64
	done func(error)
	finished bool
}

func (self *memReader) AsyncRead(path string, offset int64, dst []byte, done func(error)) (blockcache.Control, error) {
	data, found := self.files[path]
	if !found { return nil, os.ErrNotExist }
	read := &memRead{ data: data, dst: dst, offset: offset, done: done }
	self.reads = append(self.reads, read)
	return read, nil
}

func (self *memReader) AsyncFinish(ctrl blockcache.Control, wait time.Duration) bool {
	return ctrl.(*memRead).finished
}

func (self *memReader) AsyncRelease(ctrl blockcache.Control) {}

func (self *memReader) completeAll() {
	for _, read := range self.reads {
		if read.finished { continue }
		copy(read.dst, read.data[read.offset : ])
		read.finished = true
		read.done(nil)
	}
}

type recordingSurface struct {
	rects int
	texts []string
}

func (self *recordingSurface) FillRect(x, y, width, height int, clr color.RGBA) { self.rects += 1 }
func (self *recordingSurface) DrawText(unit *layout.WorkUnit, x, y int, clr color.RGBA) {
	self.texts = append(self.texts, unit.Text)
}

type soundList []string
func (self soundList) SoundNames() []string { return self }

type fakeClock struct { now time.Time }
func (self *fakeClock) Now() time.Time { return self.now }

func writeDatabase(t *testing.T, path string, pairs ...string) []byte {
	t.Helper()
	writer := capdir.NewWriter(64)
	for i := 0; i + 1 < len(pairs); i += 2 {
		if err := writer.Add(pairs[i], pairs[i + 1]); err != nil { t.Fatal(err) }
	}
	var buffer bytes.Buffer
	if _, err := writer.WriteTo(&buffer); err != nil { t.Fatal(err) }
	if err := os.WriteFile(path, buffer.Bytes(), 0644); err != nil { t.Fatal(err) }
	return buffer.Bytes()
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.LingerTime = time.Second
	cfg.PanelWidth = 216
	cfg.PanelPadding = 8
	cfg.ItemFadeInTime = 0
	cfg.GrowTime = 0
	return cfg
}

type fixture struct {
	session *Session
	reader *memReader
	clock *fakeClock
}

func newFixture(t *testing.T, cfg config.Config, pairs ...string) *fixture {
	t.Helper()
	path := cfg.LanguageFiles()[0]
	data := writeDatabase(t, path, pairs...)
	reader := &memReader{ files: map[string][]byte{ path: data } }
	clock := &fakeClock{ now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	session, err := New(cfg, Options{ Reader: reader, Clock: clock.Now })
	if err != nil { t.Fatal(err) }
	t.Cleanup(func() { session.Close() })
	return &fixture{ session: session, reader: reader, clock: clock }
}

// Completes pending reads and runs a frame.
func (self *fixture) frame() {
	self.reader.completeAll()
	self.session.Update(100*time.Millisecond)
}

func itemTexts(session *Session) []string {
	var texts []string
	for _, item := range session.Scheduler().Items() { texts = append(texts, item.Text) }
	return texts
}

func TestEndToEnd(t *testing.T) {
	fx := newFixture(t, testConfig(t), "Hello.World", "Hello world!")
	session := fx.session
	session.CaptionByHash(capdir.Hash("Hello.World"), 20, false)
	if session.Pipeline().Len() != 1 { t.Fatal("expected a pending request") }
	session.Update(0)
	if session.Scheduler().Len() != 0 { t.Fatal("caption shown before its block loaded") }

	fx.frame()
	items := session.Scheduler().Items()
	if len(items) != 1 || items[0].Text != "Hello world!" {
		t.Fatalf("expected 'Hello world!' item, got %v", itemTexts(session))
	}
	if items[0].Lifespan() != 3*time.Second { t.Fatalf("expected 3s lifespan, got %s", items[0].Lifespan()) }

	surface := &recordingSurface{}
	session.Paint(surface)
	result, measured := items[0].Layout()
	if !measured { t.Fatal("item not measured on paint") }
	if len(result.Units) != 1 || result.Units[0].Text != "Hello world!" {
		t.Fatalf("expected a single work unit, got %+v", result.Units)
	}
	if len(surface.texts) != 1 || surface.texts[0] != "Hello world!" {
		t.Fatalf("unexpected painted texts %v", surface.texts)
	}

	// 3s lifespan, 100ms already ticked on the frame it was added
	for i := 0; i < 28; i++ { session.Update(100*time.Millisecond) }
	if session.Scheduler().Len() != 1 { t.Fatal("item removed too early") }
	session.Update(100*time.Millisecond)
	if session.Scheduler().Len() != 0 { t.Fatal("item not removed after its lifespan") }
}

func TestToggleAndDirect(t *testing.T) {
	cfg := testConfig(t)
	cfg.Enabled = false
	fx := newFixture(t, cfg, "Door.Open", "Creak", "Npc.Line", "Listen!")
	fx.session.CaptionByHash(capdir.Hash("Door.Open"), 10, false)
	fx.session.EmitSentenceStream("Npc.Line", 0, false)
	if fx.session.Pipeline().Len() != 0 { t.Fatal("disabled captions must not be requested") }
	fx.session.CaptionDirect(capdir.Hash("Npc.Line"), time.Second, true)
	fx.frame()
	items := fx.session.Scheduler().Items()
	if len(items) != 1 || items[0].Text != "Listen!" || !items[0].FromPlayer {
		t.Fatalf("expected direct caption, got %v", itemTexts(fx.session))
	}
}

func TestRepeatSuppression(t *testing.T) {
	fx := newFixture(t, testConfig(t), "Alarm", "<norepeat:5>Alarm!", "Step", "Step.")
	session := fx.session
	alarm, step := capdir.Hash("Alarm"), capdir.Hash("Step")

	// same tick duplicates
	session.CaptionByHash(step, 10, false)
	session.CaptionByHash(step, 10, false)
	fx.frame()
	if session.Scheduler().Len() != 1 { t.Fatalf("expected 1 item, got %d", session.Scheduler().Len()) }
	session.CaptionByHash(step, 10, false)
	fx.frame()
	if session.Scheduler().Len() != 2 { t.Fatalf("expected 2 items, got %d", session.Scheduler().Len()) }

	// explicit interval
	session.LevelShutdown()
	session.CaptionByHash(alarm, 10, false)
	fx.frame()
	fx.clock.now = fx.clock.now.Add(time.Second)
	session.CaptionByHash(alarm, 10, false)
	fx.frame()
	if session.Scheduler().Len() != 1 { t.Fatalf("expected 1 item, got %d", session.Scheduler().Len()) }
	fx.clock.now = fx.clock.now.Add(5*time.Second)
	session.CaptionByHash(alarm, 10, false)
	fx.frame()
	if session.Scheduler().Len() != 2 { t.Fatalf("expected 2 items, got %d", session.Scheduler().Len()) }

	// random captions bypass suppression
	for i := 0; i < 3; i++ {
		if err := session.EmitRandom(); err != nil { t.Fatal(err) }
	}
	fx.frame()
	if session.Scheduler().Len() != 5 { t.Fatalf("expected 5 items, got %d", session.Scheduler().Len()) }
}

func TestDropRules(t *testing.T) {
	cfg := testConfig(t)
	cfg.SubtitlesOnly = true
	fx := newFixture(t, cfg,
		"Untranslated", "!!!Hola",
		"Colored", "<clr:255,0,0> !!!Hola",
		"Spaces", "   ",
		"Bang", "<sfx>Bang!",
		"Speech", "<low>Hello",
	)
	for _, token := range []string{ "Untranslated", "Colored", "Spaces", "Bang", "Speech" } {
		fx.session.CaptionByHash(capdir.Hash(token), 10, false)
	}
	fx.frame()
	items := fx.session.Scheduler().Items()
	if len(items) != 1 || items[0].Text != "<low>Hello" || !items[0].Low {
		t.Fatalf("unexpected items %v", itemTexts(fx.session))
	}
}

func TestSentenceAndDelays(t *testing.T) {
	fx := newFixture(t, testConfig(t),
		"fire", "fire", "in", "in", "the", "the", "hole", "hole",
		"Intro", "One<delay:1.5>Two",
	)
	fx.session.EmitSentenceStream("fire in the hole", 0, false)
	fx.session.CaptionByHash(capdir.Hash("Intro"), 20, false)
	fx.frame()
	items := fx.session.Scheduler().Items()
	if len(items) != 3 { t.Fatalf("expected 3 items, got %v", itemTexts(fx.session)) }
	if items[0].Text != "fire in the hole" { t.Fatalf("unexpected sentence '%s'", items[0].Text) }
	if items[0].Lifespan() != MinAutoDuration + time.Second {
		t.Fatalf("unexpected sentence lifespan %s", items[0].Lifespan())
	}
	if items[1].Text != "One" || items[2].Text != "Two" { t.Fatalf("unexpected segments %v", itemTexts(fx.session)) }
	if items[1].PreDisplay() != 0 || items[2].PreDisplay() != 1400*time.Millisecond {
		t.Fatalf("unexpected delays %s, %s", items[1].PreDisplay(), items[2].PreDisplay())
	}
}

func TestLanguageFallback(t *testing.T) {
	cfg := testConfig(t)
	cfg.Language = "fr"
	files := cfg.LanguageFiles()
	if len(files) != 2 { t.Fatalf("expected two language files, got %v", files) }
	french := writeDatabase(t, files[0], "Greeting", "Bonjour")
	english := writeDatabase(t, files[1], "Greeting", "Hello", "Farewell", "Goodbye")
	reader := &memReader{ files: map[string][]byte{ files[0]: french, files[1]: english } }
	session, err := New(cfg, Options{ Reader: reader })
	if err != nil { t.Fatal(err) }
	defer session.Close()

	session.CaptionByHash(capdir.Hash("Greeting"), 10, false)
	session.CaptionByHash(capdir.Hash("Farewell"), 10, false)
	reader.completeAll()
	session.Update(0)
	texts := itemTexts(session)
	if len(texts) != 2 || texts[0] != "Bonjour" || texts[1] != "Goodbye" {
		t.Fatalf("unexpected captions %v", texts)
	}

	empty := session.Config()
	empty.DataDir = t.TempDir()
	err = session.SetConfig(empty)
	if !errors.Is(err, ErrNoDatabase) { t.Fatalf("expected ErrNoDatabase, got %v", err) }
	if session.Config().DataDir != cfg.DataDir || session.Directories().Len() != 2 {
		t.Fatal("failed config change must keep the previous databases")
	}
	if err := session.SetLanguage("de"); err != nil { t.Fatal(err) }
	if session.Directories().Len() != 1 { t.Fatal("expected the english fallback only") }
}

func TestMissingDatabase(t *testing.T) {
	_, err := New(testConfig(t), Options{ Reader: &memReader{} })
	if !errors.Is(err, ErrNoDatabase) { t.Fatalf("expected ErrNoDatabase, got %v", err) }
}

func TestBlocksOverBudget(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheBudget = config.MinCacheBudget
	writer := capdir.NewWriter(4*config.MinCacheBudget)
	if err := writer.Add("Big", "Big blocks"); err != nil { t.Fatal(err) }
	var buffer bytes.Buffer
	if _, err := writer.WriteTo(&buffer); err != nil { t.Fatal(err) }
	if err := os.WriteFile(cfg.LanguageFiles()[0], buffer.Bytes(), 0644); err != nil { t.Fatal(err) }

	_, err := New(cfg, Options{ Reader: &memReader{} })
	if !errors.Is(err, ErrBlockTooLarge) || !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("expected ErrBlockTooLarge, got %v", err)
	}
}

func TestTraceOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Trace = config.TraceHUD
	fx := newFixture(t, cfg, "Present", "Here")
	for i := 0; i < 3; i++ { fx.session.CaptionByHash(capdir.Hash("Absent"), 10, false) }
	fx.frame()
	items := fx.session.Scheduler().Items()
	if len(items) != 1 || !items[0].Low { t.Fatalf("expected a single trace item, got %v", itemTexts(fx.session)) }
}

func TestCommands(t *testing.T) {
	fx := newFixture(t, testConfig(t), "Hello", "Hello there")
	session := fx.session

	_, err := session.Exec("cc_nope")
	if !errors.Is(err, ErrUnknownCommand) { t.Fatalf("expected ErrUnknownCommand, got %v", err) }
	_, err = session.Exec("cc_emit")
	if !errors.Is(err, ErrUsage) { t.Fatalf("expected ErrUsage, got %v", err) }
	_, err = session.Exec("cc_emit Missing")
	if err == nil { t.Fatal("expected error for missing caption") }
	_, err = session.Exec("cc_emit hello 1.5")
	if err != nil { t.Fatal(err) }
	fx.frame()
	items := session.Scheduler().Items()
	if len(items) != 1 || items[0].Lifespan() != 2500*time.Millisecond {
		t.Fatalf("unexpected items %v", itemTexts(session))
	}

	message, err := session.Exec("cc_lang")
	if err != nil || message != "caption language: en" { t.Fatalf("unexpected cc_lang output '%s' (%v)", message, err) }

	if _, err := session.Exec("cc_showblocks"); err != nil { t.Fatal(err) }
	if !session.IsBlockOverlayVisible() { t.Fatal("expected block overlay") }
	surface := &recordingSurface{}
	session.Paint(surface)
	if surface.rects < 3 { t.Fatalf("expected overlay rects, got %d", surface.rects) }

	if session.Cache().Len() == 0 { t.Fatal("expected resident blocks") }
	if _, err := session.Exec("cc_flush"); err != nil { t.Fatal(err) }
	if session.Cache().Len() != 0 { t.Fatal("cache not flushed") }
	if session.Scheduler().Len() != 1 { t.Fatal("flushing must keep displayed captions") }
}

func TestFindSound(t *testing.T) {
	cfg := testConfig(t)
	writeDatabase(t, cfg.LanguageFiles()[0],
		"Weapon.Fire", "<sfx>[Gunshot]",
		"Door.Open", "<sfx>[Door creaks open]",
		"Npc.Door", "Close the DOOR!",
	)
	session, err := New(cfg, Options{ Sounds: soundList{ "Weapon.Fire", "Door.Open", "Npc.Door", "Unknown" } })
	if err != nil { t.Fatal(err) }
	defer session.Close()

	message, err := session.Exec("cc_findsound door")
	if err != nil { t.Fatal(err) }
	if message != "Door.Open\nNpc.Door" { t.Fatalf("unexpected matches '%s'", message) }
	text, ok := session.ReadCaption("weapon.fire")
	if !ok || text != "<sfx>[Gunshot]" { t.Fatalf("unexpected caption '%s'", text) }
}
