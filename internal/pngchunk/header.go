package pngchunk

import (
	"encoding/binary"
	"fmt"
	"slices"
)

const ihdrLength = 13

// maxDimension is the PNG four-byte unsigned integer limit, 2^31-1.
const maxDimension = 1<<31 - 1

var allowedBitDepths = map[uint8][]uint8{
	0: {1, 2, 4, 8, 16},
	2: {8, 16},
	3: {1, 2, 4, 8},
	4: {8, 16},
	6: {8, 16},
}

// Header holds the decoded IHDR fields.
type Header struct {
	Width       uint32
	Height      uint32
	BitDepth    uint8
	ColorType   uint8
	Compression uint8
	Filter      uint8
	Interlace   uint8
}

// DecodeHeader parses IHDR chunk data.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) != ihdrLength {
		return Header{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidHeader, len(data), ihdrLength)
	}
	h := Header{
		Width:       binary.BigEndian.Uint32(data[0:4]),
		Height:      binary.BigEndian.Uint32(data[4:8]),
		BitDepth:    data[8],
		ColorType:   data[9],
		Compression: data[10],
		Filter:      data[11],
		Interlace:   data[12],
	}
	if h.Width == 0 || h.Width > maxDimension {
		return Header{}, fmt.Errorf("%w: width %d", ErrInvalidHeader, h.Width)
	}
	if h.Height == 0 || h.Height > maxDimension {
		return Header{}, fmt.Errorf("%w: height %d", ErrInvalidHeader, h.Height)
	}
	depths, ok := allowedBitDepths[h.ColorType]
	if !ok {
		return Header{}, fmt.Errorf("%w: color type %d", ErrInvalidHeader, h.ColorType)
	}
	if !slices.Contains(depths, h.BitDepth) {
		return Header{}, fmt.Errorf("%w: bit depth %d not allowed for color type %d", ErrInvalidHeader, h.BitDepth, h.ColorType)
	}
	if h.Compression != 0 {
		return Header{}, fmt.Errorf("%w: compression method %d", ErrInvalidHeader, h.Compression)
	}
	if h.Filter != 0 {
		return Header{}, fmt.Errorf("%w: filter method %d", ErrInvalidHeader, h.Filter)
	}
	if h.Interlace > 1 {
		return Header{}, fmt.Errorf("%w: interlace method %d", ErrInvalidHeader, h.Interlace)
	}
	return h, nil
}

// ReadHeader decodes the IHDR chunk, which must be the first chunk in stream.
func ReadHeader(stream []byte, opts ...ReadOption) (Header, error) {
	for c, err := range Chunks(stream, opts...) {
		if err != nil {
			return Header{}, err
		}
		if c.Type != IHDR {
			return Header{}, &FormatError{Err: ErrInvalidHeader, Offset: c.Offset, Type: c.Type, Detail: "first chunk is not IHDR"}
		}
		return DecodeHeader(c.Data)
	}
	return Header{}, &FormatError{Err: ErrUnexpectedEnd, Offset: len(stream)}
}
