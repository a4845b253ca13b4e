package main

import "os"
import "bytes"
import "strings"
import "testing"
import "path/filepath"

import "github.com/spf13/cobra"

func run(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil { t.Fatalf("%v: %s", err, out.String()) }
	return out.String()
}

func TestCompileDumpFind(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "captions.txt")
	dat := filepath.Join(dir, "closecaption_english.dat")
	source := "lang\n{\n\"Tokens\"\n{\n" +
		"\"Npc.Hello\" \"Hello world!\"\n" +
		"\"Door.Open\" \"<sfx>[Door opens]\"\n" +
		"}\n}\n"
	if err := os.WriteFile(src, []byte(source), 0644); err != nil { t.Fatal(err) }

	out := run(t, compileCommand(), "--block-size", "64", src, dat)
	if !strings.HasPrefix(out, "2 captions") { t.Fatalf("unexpected compile output '%s'", out) }

	out = run(t, dumpCommand(), "--text", dat)
	if !strings.Contains(out, "2 entries") || !strings.Contains(out, `"Hello world!"`) {
		t.Fatalf("unexpected dump output '%s'", out)
	}

	out = run(t, findCommand(), dat, "door")
	if !strings.Contains(out, `"<sfx>[Door opens]"`) || strings.Contains(out, "Hello") {
		t.Fatalf("unexpected find output '%s'", out)
	}
}

func TestPlay(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "captions.txt")
	if err := os.WriteFile(src, []byte("\"Npc.Hello\" \"Hello world!\"\n"), 0644); err != nil { t.Fatal(err) }
	run(t, compileCommand(), src, filepath.Join(dir, "closecaption_english.dat"))

	pngPath := filepath.Join(dir, "frame.png")
	out := run(t, playCommand(), "--data", dir, "--lang", "en", "--seconds", "0.5", "--png", pngPath, "npc.hello")
	if !strings.Contains(out, `"Hello world!"`) { t.Fatalf("unexpected play output '%s'", out) }
	if info, err := os.Stat(pngPath); err != nil || info.Size() == 0 { t.Fatalf("png not written: %v", err) }
}
