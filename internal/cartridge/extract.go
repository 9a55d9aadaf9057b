package cartridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"unicode/utf8"

	"tapedeck/internal/pngchunk"
)

// Extract returns the JSON payload of the first tape chunk in stream. Text
// chunks with other keywords are skipped. A tape chunk whose value is not
// valid UTF-8 JSON fails with KindCorruptPayload rather than being skipped.
func Extract(stream []byte, opts ...Option) (json.RawMessage, error) {
	o := buildOptions(opts)
	if !pngchunk.HasSignature(stream) {
		return nil, newError(KindNotAPNG, nil)
	}
	for c, err := range pngchunk.Chunks(stream, o.read()...) {
		if err != nil {
			return nil, FromFormat(err)
		}
		value, ok := isTapeChunk(c)
		if !ok {
			continue
		}
		if !utf8.Valid(value) {
			return nil, newError(KindCorruptPayload, errors.New("value is not valid UTF-8"))
		}
		if !json.Valid(value) {
			return nil, newError(KindCorruptPayload, errors.New("value is not valid JSON"))
		}
		return bytes.Clone(value), nil
	}
	return nil, newError(KindPayloadNotFound, nil)
}

// Contains reports whether stream carries a tape chunk, without validating
// its payload.
func Contains(stream []byte, opts ...Option) (bool, error) {
	o := buildOptions(opts)
	if !pngchunk.HasSignature(stream) {
		return false, newError(KindNotAPNG, nil)
	}
	for c, err := range pngchunk.Chunks(stream, o.read()...) {
		if err != nil {
			return false, FromFormat(err)
		}
		if _, ok := isTapeChunk(c); ok {
			return true, nil
		}
	}
	return false, nil
}
