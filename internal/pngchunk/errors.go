package pngchunk

import (
	"errors"
	"fmt"
)

var (
	// ErrBadSignature reports a stream that does not begin with the PNG signature.
	ErrBadSignature = errors.New("png: bad signature")
	// ErrUnexpectedEnd reports a truncated stream or a chunk length that runs
	// past the end of the buffer.
	ErrUnexpectedEnd = errors.New("png: unexpected end of chunk stream")
	// ErrNoTerminal reports a stream whose chunks end cleanly without IEND.
	ErrNoTerminal = fmt.Errorf("%w: no IEND chunk", ErrUnexpectedEnd)
	// ErrCRCMismatch reports a chunk whose stored CRC does not match its contents.
	ErrCRCMismatch = errors.New("png: chunk crc mismatch")
	// ErrInvalidHeader reports an IHDR chunk with out-of-range fields.
	ErrInvalidHeader = errors.New("png: invalid IHDR")
)

// FormatError carries the offset of the structural problem in the stream.
type FormatError struct {
	Err    error
	Offset int
	Type   Type
	Detail string
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
	if e.Type != (Type{}) {
		msg += fmt.Sprintf(" (chunk %s)", e.Type)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
