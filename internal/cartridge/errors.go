package cartridge

import (
	"errors"
	"fmt"

	"tapedeck/internal/pngchunk"
)

// Kind classifies cartridge failures.
type Kind string

const (
	KindNotAPNG         Kind = "not_a_png"
	KindUnexpectedEnd   Kind = "unexpected_end"
	KindNoTerminalChunk Kind = "no_terminal_chunk"
	KindPayloadNotFound Kind = "payload_not_found"
	KindCorruptPayload  Kind = "corrupt_payload"
	KindCRCMismatch     Kind = "crc_mismatch"
	KindInvalidPayload  Kind = "invalid_payload"
)

var (
	ErrNotAPNG         = errors.New("not a PNG image")
	ErrUnexpectedEnd   = errors.New("truncated or malformed PNG chunk stream")
	ErrNoTerminalChunk = errors.New("PNG has no IEND chunk")
	ErrPayloadNotFound = errors.New("no tape payload found in PNG")
	ErrCorruptPayload  = errors.New("tape payload is corrupt")
	ErrCRCMismatch     = errors.New("PNG chunk failed CRC verification")
	ErrInvalidPayload  = errors.New("payload cannot be encoded as JSON")
)

var kindErrors = map[Kind]error{
	KindNotAPNG:         ErrNotAPNG,
	KindUnexpectedEnd:   ErrUnexpectedEnd,
	KindNoTerminalChunk: ErrNoTerminalChunk,
	KindPayloadNotFound: ErrPayloadNotFound,
	KindCorruptPayload:  ErrCorruptPayload,
	KindCRCMismatch:     ErrCRCMismatch,
	KindInvalidPayload:  ErrInvalidPayload,
}

// Error is returned by every operation in this package. It matches both the
// Kind sentinel and the underlying cause under errors.Is.
type Error struct {
	Kind Kind
	Err  error
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

func (e *Error) Error() string {
	sentinel := kindErrors[e.Kind]
	if sentinel == nil {
		sentinel = errors.New(string(e.Kind))
	}
	if e.Err == nil {
		return sentinel.Error()
	}
	return fmt.Sprintf("%v: %v", sentinel, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 3)
	if sentinel := kindErrors[e.Kind]; sentinel != nil {
		errs = append(errs, sentinel)
	}
	// A stream without IEND is also a truncated stream.
	if e.Kind == KindNoTerminalChunk {
		errs = append(errs, ErrUnexpectedEnd)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ErrorKind reports the failure class for callers that map errors to
// user-facing messages.
func (e *Error) ErrorKind() string {
	return string(e.Kind)
}

// KindOf returns the Kind of err, or "" when err did not come from this package.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// FromFormat maps a chunk-layer failure from package pngchunk onto a
// cartridge error.
func FromFormat(err error) *Error {
	switch {
	case errors.Is(err, pngchunk.ErrBadSignature):
		return newError(KindNotAPNG, err)
	case errors.Is(err, pngchunk.ErrCRCMismatch):
		return newError(KindCRCMismatch, err)
	case errors.Is(err, pngchunk.ErrNoTerminal):
		return newError(KindNoTerminalChunk, err)
	default:
		return newError(KindUnexpectedEnd, err)
	}
}
