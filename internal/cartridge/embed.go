package cartridge

import (
	"bytes"
	"encoding/json"

	"tapedeck/internal/pngchunk"
)

// Embed returns a copy of carrier with payload stored in a new tEXt chunk
// immediately before IEND. Every other byte of carrier is preserved, so the
// image renders identically.
func Embed(carrier []byte, payload any, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	if !pngchunk.HasSignature(carrier) {
		return nil, newError(KindNotAPNG, nil)
	}

	body, err := marshalCompact(payload)
	if err != nil {
		return nil, newError(KindInvalidPayload, err)
	}

	if o.replace {
		stripped, _, err := Strip(carrier, opts...)
		if err != nil {
			return nil, err
		}
		carrier = stripped
	}

	terminal, err := pngchunk.FindTerminal(carrier, o.read()...)
	if err != nil {
		return nil, FromFormat(err)
	}

	data := pngchunk.TextData(Keyword, body)
	out := make([]byte, 0, len(carrier)+pngchunk.Overhead+len(data))
	out = append(out, carrier[:terminal]...)
	out = pngchunk.AppendChunk(out, pngchunk.TEXT, data)
	out = append(out, carrier[terminal:]...)
	return out, nil
}

// marshalCompact encodes payload as compact JSON without HTML escaping, so
// the stored bytes match what a browser's JSON.stringify would produce.
func marshalCompact(payload any) ([]byte, error) {
	if raw, ok := payload.(json.RawMessage); ok {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
