package pngchunk

import (
	"encoding/binary"
	"fmt"
	"iter"
)

type readOptions struct {
	verifyCRC bool
}

// ReadOption customizes chunk traversal.
type ReadOption func(*readOptions)

// WithVerifyCRC makes traversal fail with ErrCRCMismatch on the first chunk
// whose stored CRC does not match its contents.
func WithVerifyCRC(verify bool) ReadOption {
	return func(o *readOptions) {
		o.verifyCRC = verify
	}
}

// Chunks walks the chunk records of stream in order, ending after IEND.
//
// The sequence is lazy and may be ranged over more than once. On a structural
// problem it yields a single *FormatError and stops; breaking out of the loop
// early is always safe.
func Chunks(stream []byte, opts ...ReadOption) iter.Seq2[Chunk, error] {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(yield func(Chunk, error) bool) {
		if !HasSignature(stream) {
			yield(Chunk{}, &FormatError{Err: ErrBadSignature})
			return
		}
		off := len(Signature)
		for {
			c, err := readChunk(stream, off)
			if err == nil && o.verifyCRC && !c.Valid() {
				err = &FormatError{
					Err:    ErrCRCMismatch,
					Offset: off,
					Type:   c.Type,
					Detail: fmt.Sprintf("stored %08x, computed %08x", c.CRC, c.ComputeCRC()),
				}
			}
			if err != nil {
				yield(Chunk{}, err)
				return
			}
			if !yield(c, nil) || c.Type == IEND {
				return
			}
			off = c.End()
		}
	}
}

func readChunk(stream []byte, off int) (Chunk, error) {
	remaining := len(stream) - off
	if remaining == 0 {
		return Chunk{}, &FormatError{Err: ErrNoTerminal, Offset: off}
	}
	if remaining < headerSize {
		return Chunk{}, &FormatError{Err: ErrUnexpectedEnd, Offset: off, Detail: "truncated chunk header"}
	}
	length := binary.BigEndian.Uint32(stream[off:])
	var typ Type
	copy(typ[:], stream[off+lengthSize:off+headerSize])

	if uint64(length)+Overhead > uint64(remaining) {
		return Chunk{}, &FormatError{
			Err:    ErrUnexpectedEnd,
			Offset: off,
			Type:   typ,
			Detail: fmt.Sprintf("declared length %d exceeds remaining %d bytes", length, remaining-Overhead),
		}
	}
	dataStart := off + headerSize
	dataEnd := dataStart + int(length)
	return Chunk{
		Offset: off,
		Type:   typ,
		Length: length,
		Data:   stream[dataStart:dataEnd:dataEnd],
		CRC:    binary.BigEndian.Uint32(stream[dataEnd:]),
	}, nil
}

// FindTerminal returns the offset of the IEND chunk's length field.
func FindTerminal(stream []byte, opts ...ReadOption) (int, error) {
	for c, err := range Chunks(stream, opts...) {
		if err != nil {
			return 0, err
		}
		if c.Type == IEND {
			return c.Offset, nil
		}
	}
	// Chunks always ends on IEND or an error.
	return 0, &FormatError{Err: ErrNoTerminal, Offset: len(stream)}
}
