package cartridge

import (
	"tapedeck/internal/envelope"
)

// ReadEnvelope extracts and normalizes the envelope stored in stream.
func ReadEnvelope(stream []byte, opts ...Option) (envelope.Envelope, envelope.Shape, error) {
	raw, err := Extract(stream, opts...)
	if err != nil {
		return envelope.Envelope{}, "", err
	}
	payload, err := envelope.Classify(raw)
	if err != nil {
		return envelope.Envelope{}, "", newError(KindCorruptPayload, err)
	}
	return payload.Envelope(), payload.Shape(), nil
}

// WriteEnvelope embeds env into carrier.
func WriteEnvelope(carrier []byte, env envelope.Envelope, opts ...Option) ([]byte, error) {
	return Embed(carrier, env, opts...)
}
