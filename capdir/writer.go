package capdir

import "io"
import "sort"
import "bufio"
import "errors"
import "fmt"
import "strconv"
import "strings"

var ErrDuplicate = errors.New("duplicated caption token hash")
var ErrTooLong   = errors.New("caption text doesn't fit in a block")

// Directory section alignment. Keeps block zero sector aligned, which
// is friendlier for unbuffered async reads.
const dataAlignment = 512

type pendingEntry struct {
	hash uint32
	raw []byte
}

// A Writer collects captions and writes them as a compiled caption
// database. Entries are packed greedily into blocks in insertion
// order, without ever splitting an entry across two blocks.
type Writer struct {
	blockSize int
	entries []pendingEntry
	hashes map[uint32]struct{}
}

// Creates a new writer with the given block size. Non-positive values
// use [DefaultBlockSize].
func NewWriter(blockSize int) *Writer {
	if blockSize <= 0 { blockSize = DefaultBlockSize }
	return &Writer{ blockSize: blockSize, hashes: make(map[uint32]struct{}) }
}

// Number of captions added so far.
func (self *Writer) Len() int { return len(self.entries) }

// Adds a caption under the given token name.
func (self *Writer) Add(token, text string) error {
	err := self.AddHash(Hash(token), text)
	if err != nil { return fmt.Errorf("%s: %w", token, err) }
	return nil
}

// Adds a caption under the given precomputed hash.
func (self *Writer) AddHash(hash uint32, text string) error {
	if _, found := self.hashes[hash]; found { return ErrDuplicate }
	raw := EncodeText(text)
	if len(raw) > self.blockSize { return ErrTooLong }
	self.hashes[hash] = struct{}{}
	self.entries = append(self.entries, pendingEntry{ hash: hash, raw: raw })
	return nil
}

// Writes the compiled database. The writer can keep being used
// afterwards.
func (self *Writer) WriteTo(out io.Writer) (int64, error) {
	// pack entries into blocks
	dir := make([]Entry, len(self.entries))
	blocks := make([][]byte, 0, 4)
	var block []byte
	for i, pending := range self.entries {
		if block == nil || len(block) + len(pending.raw) > self.blockSize {
			if block != nil { blocks = append(blocks, block) }
			block = make([]byte, 0, self.blockSize)
		}
		dir[i] = Entry {
			Hash: pending.hash,
			BlockNumber: int32(len(blocks)),
			ByteOffset: int32(len(block)),
			ByteLength: int32(len(pending.raw)),
		}
		block = append(block, pending.raw...)
	}
	if block != nil { blocks = append(blocks, block) }
	sort.Slice(dir, func(i, j int) bool { return dir[i].Hash < dir[j].Hash })

	dataOffset := HeaderSize + len(dir)*EntrySize
	dataOffset = (dataOffset + dataAlignment - 1) &^ (dataAlignment - 1)
	header := Header {
		BlockSize: int32(self.blockSize),
		DataOffset: int32(dataOffset),
		NumBlocks: int32(len(blocks)),
		NumEntries: int32(len(dir)),
	}

	counter := &countingWriter{ writer: out }
	bufWriter := bufio.NewWriter(counter)
	err := writeHeader(bufWriter, header)
	if err != nil { return counter.count, err }
	var raw [EntrySize]byte
	for _, entry := range dir {
		encodeEntry(raw[:], entry)
		_, err = bufWriter.Write(raw[:])
		if err != nil { return counter.count, err }
	}
	padding := make([]byte, max(self.blockSize, dataAlignment))
	_, err = bufWriter.Write(padding[ : dataOffset - HeaderSize - len(dir)*EntrySize])
	if err != nil { return counter.count, err }
	for _, block := range blocks {
		_, err = bufWriter.Write(block)
		if err != nil { return counter.count, err }
		_, err = bufWriter.Write(padding[ : self.blockSize - len(block)])
		if err != nil { return counter.count, err }
	}
	err = bufWriter.Flush()
	return counter.count, err
}

type countingWriter struct {
	writer io.Writer
	count int64
}

func (self *countingWriter) Write(data []byte) (int, error) {
	n, err := self.writer.Write(data)
	self.count += int64(n)
	return n, err
}

// Compiles a caption source into a [Writer].
//
// The source is line based, each line with a quoted token and a quoted
// text ("token" "text"). Lines starting with // are comments. Keyvalue
// style sources (lang { "Tokens" { ... } }) are also accepted, in which
// case only pairs nested at least two levels deep are compiled.
func Compile(src io.Reader, blockSize int) (*Writer, error) {
	writer := NewWriter(blockSize)
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1 << 20)
	depth, nested, lineNum := 0, false, 0
	for scanner.Scan() {
		lineNum += 1
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") { continue }
		switch line {
		case "{":
			depth, nested = depth + 1, true
			continue
		case "}":
			depth -= 1
			if depth < 0 { return nil, errors.New("line " + strconv.Itoa(lineNum) + ": unbalanced '}'") }
			continue
		}

		fields, err := splitQuoted(line)
		if err != nil { return nil, errors.New("line " + strconv.Itoa(lineNum) + ": " + err.Error()) }
		if len(fields) < 2 { continue } // section names and such
		if nested && depth < 2 { continue } // "Language" "english"
		err = writer.Add(fields[0], fields[1])
		if err != nil { return nil, errors.New("line " + strconv.Itoa(lineNum) + ": " + err.Error()) }
	}
	if err := scanner.Err(); err != nil { return nil, err }
	return writer, nil
}

// Splits a line into quoted fields. Unquoted fields end at whitespace.
// Only \" \\ and \n escapes are recognized.
func splitQuoted(line string) ([]string, error) {
	var fields []string
	var field strings.Builder
	for i := 0; i < len(line); {
		switch {
		case line[i] == ' ' || line[i] == '\t':
			i += 1
		case strings.HasPrefix(line[i : ], "//"):
			return fields, nil
		case line[i] == '"':
			i += 1
			field.Reset()
			closed := false
			for i < len(line) && !closed {
				switch {
				case line[i] == '\\' && i + 1 < len(line):
					switch line[i + 1] {
					case 'n' : field.WriteByte('\n')
					case '"' : field.WriteByte('"')
					case '\\': field.WriteByte('\\')
					default  : field.WriteString(line[i : i + 2])
					}
					i += 2
				case line[i] == '"':
					closed = true
					i += 1
				default:
					field.WriteByte(line[i])
					i += 1
				}
			}
			if !closed { return nil, errors.New("unterminated quote") }
			fields = append(fields, field.String())
		default:
			start := i
			for i < len(line) && line[i] != ' ' && line[i] != '\t' { i += 1 }
			fields = append(fields, line[start : i])
		}
	}
	return fields, nil
}
