package capdir

import "io"
import "errors"
import "encoding/binary"

// Magic value at the start of every caption database ("VCCD" read
// as a little endian uint32).
const Magic uint32 = 'V' | 'C' << 8 | 'C' << 16 | 'D' << 24

// Current format version.
const Version int32 = 1

// Size of the encoded [Header], in bytes.
const HeaderSize = 24

// Size of each encoded [Entry], in bytes.
const EntrySize = 16

// Default block size used by [Writer] when none is given.
const DefaultBlockSize = 8192

var ErrMalformed = errors.New("malformed caption database")
var ErrNotFound  = errors.New("caption hash not found")

// The header of a compiled caption database.
//
// DataOffset is the absolute file offset of block zero. Blocks are
// always BlockSize bytes on disk, even the last one.
type Header struct {
	BlockSize int32
	DataOffset int32
	NumBlocks int32
	NumEntries int32
}

// Returns the absolute file offset at which the given block starts.
func (self Header) BlockOffset(blockNumber int32) int64 {
	return int64(self.DataOffset) + int64(blockNumber)*int64(self.BlockSize)
}

// A directory entry. Entries are immutable once loaded.
type Entry struct {
	Hash uint32
	BlockNumber int32
	ByteOffset int32
	ByteLength int32
}

// Returns whether the entry is intentionally blank. Blank entries
// exist in some language packs to silence specific captions and
// must never trigger a display.
func (self Entry) IsBlank() bool {
	return self.ByteLength <= 2 // one UTF-16 code unit or less
}

func readHeader(reader io.Reader) (Header, error) {
	var raw [HeaderSize]byte
	_, err := io.ReadFull(reader, raw[:])
	if err != nil { return Header{}, errors.Join(ErrMalformed, err) }

	le := binary.LittleEndian
	if le.Uint32(raw[0 : 4]) != Magic { return Header{}, ErrMalformed }
	if int32(le.Uint32(raw[4 : 8])) != Version { return Header{}, ErrMalformed }
	header := Header {
		NumBlocks:  int32(le.Uint32(raw[ 8 : 12])),
		BlockSize:  int32(le.Uint32(raw[12 : 16])),
		NumEntries: int32(le.Uint32(raw[16 : 20])),
		DataOffset: int32(le.Uint32(raw[20 : 24])),
	}
	if header.BlockSize <= 0 || header.NumBlocks < 0 || header.NumEntries < 0 {
		return Header{}, ErrMalformed
	}
	minOffset := int64(HeaderSize) + int64(header.NumEntries)*EntrySize
	if int64(header.DataOffset) < minOffset { return Header{}, ErrMalformed }
	return header, nil
}

func writeHeader(writer io.Writer, header Header) error {
	var raw [HeaderSize]byte
	le := binary.LittleEndian
	le.PutUint32(raw[ 0 :  4], Magic)
	le.PutUint32(raw[ 4 :  8], uint32(Version))
	le.PutUint32(raw[ 8 : 12], uint32(header.NumBlocks))
	le.PutUint32(raw[12 : 16], uint32(header.BlockSize))
	le.PutUint32(raw[16 : 20], uint32(header.NumEntries))
	le.PutUint32(raw[20 : 24], uint32(header.DataOffset))
	_, err := writer.Write(raw[:])
	return err
}

func decodeEntry(raw []byte) Entry {
	le := binary.LittleEndian
	return Entry {
		Hash: le.Uint32(raw[0 : 4]),
		BlockNumber: int32(le.Uint32(raw[ 4 :  8])),
		ByteOffset:  int32(le.Uint32(raw[ 8 : 12])),
		ByteLength:  int32(le.Uint32(raw[12 : 16])),
	}
}

func encodeEntry(raw []byte, entry Entry) {
	le := binary.LittleEndian
	le.PutUint32(raw[ 0 :  4], entry.Hash)
	le.PutUint32(raw[ 4 :  8], uint32(entry.BlockNumber))
	le.PutUint32(raw[ 8 : 12], uint32(entry.ByteOffset))
	le.PutUint32(raw[12 : 16], uint32(entry.ByteLength))
}
