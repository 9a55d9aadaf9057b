package pngchunk

import (
	"encoding/binary"
	"fmt"
)

// Signature is the fixed 8-byte preamble of every PNG datastream.
const Signature = "\x89PNG\r\n\x1a\n"

const (
	lengthSize = 4
	typeSize   = 4
	crcSize    = 4
	headerSize = lengthSize + typeSize

	// Overhead is the number of bytes a chunk occupies beyond its data.
	Overhead = headerSize + crcSize
)

// Type is a four-byte chunk type code.
type Type [4]byte

// Chunk types this module cares about.
var (
	IHDR = Type{'I', 'H', 'D', 'R'}
	IDAT = Type{'I', 'D', 'A', 'T'}
	IEND = Type{'I', 'E', 'N', 'D'}
	TEXT = Type{'t', 'E', 'X', 't'}
)

// ParseType converts a four-character code into a Type.
func ParseType(s string) (Type, error) {
	var t Type
	if len(s) != len(t) {
		return t, fmt.Errorf("chunk type %q must be exactly 4 bytes", s)
	}
	copy(t[:], s)
	return t, nil
}

func (t Type) String() string {
	return string(t[:])
}

// Ancillary reports whether decoders may safely ignore chunks of this type.
func (t Type) Ancillary() bool {
	return t[0]&0x20 != 0
}

// Chunk is one record of a chunk stream. Data aliases the stream it was read
// from and must not be modified.
type Chunk struct {
	// Offset is the position of the chunk's length field within the stream.
	Offset int
	Type   Type
	Length uint32
	Data   []byte
	// CRC is the checksum stored in the stream, not a computed one.
	CRC uint32
}

// Size returns the number of stream bytes the chunk spans.
func (c Chunk) Size() int {
	return Overhead + int(c.Length)
}

// End returns the offset just past the chunk's CRC.
func (c Chunk) End() int {
	return c.Offset + c.Size()
}

// ComputeCRC recomputes the checksum over the chunk's type and data.
func (c Chunk) ComputeCRC() uint32 {
	return chunkCRC(c.Type, c.Data)
}

// Valid reports whether the stored CRC matches the chunk contents.
func (c Chunk) Valid() bool {
	return c.ComputeCRC() == c.CRC
}

// Build serializes a complete chunk record: length, type, data, CRC.
func Build(typ Type, data []byte) []byte {
	return AppendChunk(make([]byte, 0, Overhead+len(data)), typ, data)
}

// AppendChunk appends the serialized chunk to dst and returns the extended slice.
func AppendChunk(dst []byte, typ Type, data []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(data)))
	dst = append(dst, typ[:]...)
	dst = append(dst, data...)
	return binary.BigEndian.AppendUint32(dst, chunkCRC(typ, data))
}

// HasSignature reports whether b starts with the PNG signature.
func HasSignature(b []byte) bool {
	return len(b) >= len(Signature) && string(b[:len(Signature)]) == Signature
}
