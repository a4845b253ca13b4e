package capdir

import "bytes"
import "errors"
import "strings"
import "testing"

func compileTestDatabase(t *testing.T, blockSize int, pairs ...string) []byte {
	t.Helper()
	writer := NewWriter(blockSize)
	for i := 0; i + 1 < len(pairs); i += 2 {
		err := writer.Add(pairs[i], pairs[i + 1])
		if err != nil { t.Fatalf("unexpected error: %s", err) }
	}
	var buffer bytes.Buffer
	_, err := writer.WriteTo(&buffer)
	if err != nil { t.Fatalf("unexpected error: %s", err) }
	return buffer.Bytes()
}

func readCaption(t *testing.T, data []byte, dir *Directory, entry Entry) string {
	t.Helper()
	start := dir.Header().BlockOffset(entry.BlockNumber) + int64(entry.ByteOffset)
	end := start + int64(entry.ByteLength)
	if end > int64(len(data)) { t.Fatalf("entry out of bounds (%d > %d)", end, len(data)) }
	return DecodeText(data[start : end])
}

func TestHashCaseInsensitive(t *testing.T) {
	if Hash("NPC_Citizen.Hello") != Hash("npc_citizen.hello") {
		t.Fatal("expected case insensitive hashes")
	}
	if Hash("a") == Hash("b") { t.Fatal("suspicious hash") }
}

func TestDirectoryLookup(t *testing.T) {
	tokens := []string{ "fire", "in", "the", "hole", "Hello.World", "blank" }
	texts  := []string{ "Fire", "in", "the", "hole!", "Hello world!", "" }
	var pairs []string
	for i := range tokens { pairs = append(pairs, tokens[i], texts[i]) }
	data := compileTestDatabase(t, 32, pairs...)

	dir, err := Parse(bytes.NewReader(data))
	if err != nil { t.Fatalf("unexpected error: %s", err) }
	if dir.Len() != len(tokens) { t.Fatalf("expected %d entries, got %d", len(tokens), dir.Len()) }
	if dir.Header().NumBlocks < 2 { t.Fatal("expected multiple blocks with a tiny block size") }

	for i := 1; i < dir.Len(); i++ {
		if dir.Entry(i - 1).Hash > dir.Entry(i).Hash { t.Fatal("directory not sorted") }
	}

	for i, token := range tokens {
		entry, found := dir.Lookup(Hash(token))
		if !found { t.Fatalf("token %q not found", token) }
		if entry.Hash != Hash(token) { t.Fatal("hash mismatch") }
		got := readCaption(t, data, dir, entry)
		if got != texts[i] { t.Fatalf("token %q: expected %q, got %q", token, texts[i], got) }
		if entry.IsBlank() != (texts[i] == "") { t.Fatalf("token %q: wrong blank state", token) }
	}

	for _, token := range []string{ "missing", "fire_", "" } {
		if _, found := dir.Lookup(Hash(token)); found { t.Fatalf("unexpected %q", token) }
		if dir.Index(Hash(token)) != -1 { t.Fatal("expected -1 index") }
	}
}

func TestParseMalformed(t *testing.T) {
	data := compileTestDatabase(t, 64, "a", "b")
	_, err := Parse(bytes.NewReader(data[ : 10]))
	if !errors.Is(err, ErrMalformed) { t.Fatalf("expected ErrMalformed, got %v", err) }

	broken := append([]byte(nil), data...)
	broken[0] = 'X'
	_, err = Parse(bytes.NewReader(broken))
	if !errors.Is(err, ErrMalformed) { t.Fatalf("expected ErrMalformed, got %v", err) }

	_, err = Load("surely/this/path/does/not/exist.dat")
	if err == nil { t.Fatal("expected error") }
}

func TestWriterLimits(t *testing.T) {
	writer := NewWriter(16)
	if err := writer.Add("x", "0123456789"); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
	if err := writer.Add("x", "ok"); err != nil { t.Fatal(err) }
	if err := writer.Add("X", "again"); err == nil { t.Fatal("expected duplicate error") }
}

func TestSetFallback(t *testing.T) {
	french, err := Parse(bytes.NewReader(compileTestDatabase(t, 0, "hello", "Bonjour")))
	if err != nil { t.Fatal(err) }
	english, err := Parse(bytes.NewReader(compileTestDatabase(t, 0, "hello", "Hello", "bye", "Bye")))
	if err != nil { t.Fatal(err) }

	set := NewSet(french, english)
	loc, found := set.ResolveToken("hello")
	if !found || loc.FileIndex != 0 { t.Fatalf("expected hello on file 0, got %+v", loc) }
	loc, found = set.ResolveToken("bye")
	if !found || loc.FileIndex != 1 { t.Fatalf("expected bye on file 1, got %+v", loc) }
	_, found = set.ResolveToken("nope")
	if found { t.Fatal("unexpected resolve") }
}

func TestCompile(t *testing.T) {
	src := `"lang"
{
	"Language" "english"
	"Tokens"
	{
		// comment line
		"npc.hello"   "<clr:255,0,0>Hello \"you\""
		"npc.bye"     "Bye"   // trailing comment
	}
}`
	writer, err := Compile(strings.NewReader(src), 0)
	if err != nil { t.Fatalf("unexpected error: %s", err) }
	if writer.Len() != 2 { t.Fatalf("expected 2 captions, got %d", writer.Len()) }

	var buffer bytes.Buffer
	_, err = writer.WriteTo(&buffer)
	if err != nil { t.Fatal(err) }
	dir, err := Parse(bytes.NewReader(buffer.Bytes()))
	if err != nil { t.Fatal(err) }
	entry, found := dir.Lookup(Hash("NPC.Hello"))
	if !found { t.Fatal("expected npc.hello") }
	got := readCaption(t, buffer.Bytes(), dir, entry)
	if got != `<clr:255,0,0>Hello "you"` { t.Fatalf("unexpected text %q", got) }
	if _, found := dir.Lookup(Hash("Language")); found { t.Fatal("header pair compiled as caption") }

	_, err = Compile(strings.NewReader(`"a" "unterminated`), 0)
	if err == nil { t.Fatal("expected error") }
}

func TestDecodeText(t *testing.T) {
	raw := EncodeText("héllo 世界")
	raw = append(raw, 'j', 0, 'u', 0) // junk after terminator
	if got := DecodeText(raw); got != "héllo 世界" { t.Fatalf("got %q", got) }
	if got := DecodeText([]byte{ 'a' }); got != "" { t.Fatalf("got %q", got) }
}
