package main

import "fmt"
import "time"
import "strings"

import "github.com/spf13/cobra"

import "github.com/tinne26/closecap/blockcache"
import "github.com/tinne26/closecap/capdir"

// Reads captions from a single database through a block cache.
type reader struct {
	set *capdir.Set
	files *blockcache.FileReader
	cache *blockcache.Manager
}

func openDatabase(path string) (*reader, error) {
	dir, err := capdir.Load(path)
	if err != nil { return nil, err }
	set := capdir.NewSet(dir)
	files := blockcache.NewFileReader(4)
	cache := blockcache.NewManager(files, blockcache.DefaultBudget)
	cache.SetFiles(blockcache.FilesFromSet(set))
	return &reader{ set: set, files: files, cache: cache }, nil
}

func (self *reader) text(location capdir.Location) (string, error) {
	entry := location.Entry
	if entry.IsBlank() { return "", nil }
	handle, err := self.cache.FindOrCreate(location.FileIndex, int(entry.BlockNumber))
	if err != nil { return "", err }
	err = self.cache.BeginLoad(handle)
	if err != nil { return "", err }
	if !self.cache.Wait(handle, 5*time.Second) {
		return "", fmt.Errorf("block %d didn't load", entry.BlockNumber)
	}
	var text string
	self.cache.With(handle, func(data []byte) {
		start := int(entry.ByteOffset)
		text = capdir.DecodeText(data[start : start + int(entry.ByteLength)])
	})
	return text, nil
}

// Calls fn for each entry in the database, in hash order.
func (self *reader) each(fn func(capdir.Location, string) error) error {
	dir := self.set.Directory(0)
	for i := 0; i < dir.Len(); i++ {
		location := capdir.Location{ FileIndex: 0, DirectoryIndex: i, Entry: dir.Entry(i) }
		text, err := self.text(location)
		if err != nil { return err }
		err = fn(location, text)
		if err != nil { return err }
	}
	return nil
}

func (self *reader) close() error {
	self.cache.Clear()
	return self.files.Close()
}

func dumpCommand() *cobra.Command {
	var withText bool
	cmd := &cobra.Command{
		Use: "dump <file.dat>",
		Short: "Prints the header and directory of a caption database",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(args[0])
			if err != nil { return err }
			defer db.close()

			out := cmd.OutOrStdout()
			header := db.set.Directory(0).Header()
			fmt.Fprintf(out, "block size %d, data offset %d, %d blocks, %d entries\n",
				header.BlockSize, header.DataOffset, header.NumBlocks, header.NumEntries)
			err = db.each(func(location capdir.Location, text string) error {
				entry := location.Entry
				fmt.Fprintf(out, "%08x block %4d offset %5d length %5d", entry.Hash, entry.BlockNumber, entry.ByteOffset, entry.ByteLength)
				if withText { fmt.Fprintf(out, "  %q", text) }
				fmt.Fprintln(out)
				return nil
			})
			if err != nil { return err }
			stats := db.cache.Stats()
			fmt.Fprintf(out, "%d block loads, %d evictions, peak %d bytes\n", stats.Loads, stats.Evictions, stats.PeakBytes)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&withText, "text", "t", false, "also print caption texts")
	return cmd
}

func findCommand() *cobra.Command {
	return &cobra.Command{
		Use: "find <file.dat> <text>",
		Short: "Lists captions containing the given text",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(args[0])
			if err != nil { return err }
			defer db.close()

			needle := strings.ToLower(args[1])
			matches := 0
			err = db.each(func(location capdir.Location, text string) error {
				if !strings.Contains(strings.ToLower(text), needle) { return nil }
				matches += 1
				fmt.Fprintf(cmd.OutOrStdout(), "%08x %q\n", location.Entry.Hash, text)
				return nil
			})
			if err != nil { return err }
			if matches == 0 { fmt.Fprintln(cmd.OutOrStdout(), "no matches") }
			return nil
		},
	}
}
