package capdir

import "os"
import "io"
import "sort"
import "bufio"
import "errors"
import "fmt"

// A loaded caption database directory. It doesn't hold any caption
// text, only the header and the sorted entries.
type Directory struct {
	path string
	header Header
	entries []Entry
}

// Loads the directory of the caption database at the given path.
// The data blocks are not read.
//
// Missing or malformed files return an error; callers are expected
// to fall back to another language instead of failing hard.
func Load(path string) (*Directory, error) {
	file, err := os.Open(path)
	if err != nil { return nil, err }
	defer file.Close()

	dir, err := Parse(bufio.NewReader(file))
	if err != nil { return nil, fmt.Errorf("%s: %w", path, err) }
	dir.path = path
	return dir, nil
}

// Parses a directory from the given reader, which must be positioned
// at the start of a caption database. Only the header and directory
// sections are consumed.
func Parse(reader io.Reader) (*Directory, error) {
	header, err := readHeader(reader)
	if err != nil { return nil, err }

	entries := make([]Entry, header.NumEntries)
	var raw [EntrySize]byte
	for i := range entries {
		_, err := io.ReadFull(reader, raw[:])
		if err != nil { return nil, errors.Join(ErrMalformed, err) }
		entries[i] = decodeEntry(raw[:])
		if !entryFits(header, entries[i]) { return nil, ErrMalformed }
	}

	// we don't trust the compiler to have sorted the entries. stable
	// sort so the first of any duplicated hashes keeps winning
	if !sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].Hash < entries[j].Hash }) {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Hash < entries[j].Hash })
	}
	return &Directory{ header: header, entries: entries }, nil
}

func entryFits(header Header, entry Entry) bool {
	if entry.BlockNumber < 0 || entry.BlockNumber >= header.NumBlocks { return false }
	if entry.ByteOffset < 0 || entry.ByteLength < 0 { return false }
	return int64(entry.ByteOffset) + int64(entry.ByteLength) <= int64(header.BlockSize)
}

// Returns the path the directory was loaded from (empty when parsed
// from a reader).
func (self *Directory) Path() string { return self.path }

// Returns the database header.
func (self *Directory) Header() Header { return self.header }

// Returns the number of entries in the directory.
func (self *Directory) Len() int { return len(self.entries) }

// Returns the entry at the given directory index. Entries are sorted
// by hash.
func (self *Directory) Entry(index int) Entry { return self.entries[index] }

// Returns the directory index for the given hash, or -1 if not found.
// When hashes are duplicated, the first one wins.
func (self *Directory) Index(hash uint32) int {
	index := sort.Search(len(self.entries), func(i int) bool {
		return self.entries[i].Hash >= hash
	})
	if index < len(self.entries) && self.entries[index].Hash == hash { return index }
	return -1
}

// Returns the entry for the given hash.
func (self *Directory) Lookup(hash uint32) (Entry, bool) {
	index := self.Index(hash)
	if index == -1 { return Entry{}, false }
	return self.entries[index], true
}
