package envelope

import (
	"encoding/json"
	"fmt"
)

// Shape names the layout a payload was written in.
type Shape string

const (
	ShapeVersioned Shape = "versioned"
	ShapeLegacy    Shape = "legacy"
)

// Payload is a classified cartridge payload: either Versioned or Legacy.
type Payload interface {
	Shape() Shape
	// Envelope returns the payload as a full envelope.
	Envelope() Envelope
	isPayload()
}

// Versioned is a payload written with the {meta, engineState} wrapper.
type Versioned struct {
	Value Envelope
}

func (Versioned) Shape() Shape { return ShapeVersioned }

func (v Versioned) Envelope() Envelope { return v.Value }

func (Versioned) isPayload() {}

// Legacy is a payload written as bare engine state.
type Legacy struct {
	State EngineState
}

func (Legacy) Shape() Shape { return ShapeLegacy }

// Envelope wraps the state with a synthesized legacy meta.
func (l Legacy) Envelope() Envelope {
	return Envelope{
		Meta:        Meta{Version: LegacyVersion, Label: UnknownLabel},
		EngineState: l.State,
	}
}

func (Legacy) isPayload() {}

// Classify decides which shape raw was written in and decodes it. Presence of
// the engine-state key selects Versioned; anything else is Legacy.
func Classify(raw json.RawMessage) (Payload, error) {
	fields, err := decodeObject(raw, "payload")
	if err != nil {
		return nil, err
	}
	if !fields.has(engineStateKeys...) {
		var state EngineState
		if err := state.fromFields(fields); err != nil {
			return nil, fmt.Errorf("legacy engine state: %w", err)
		}
		return Legacy{State: state}, nil
	}

	env := Envelope{}
	stateRaw, _ := fields.take(engineStateKeys...)
	if err := json.Unmarshal(stateRaw, &env.EngineState); err != nil {
		return nil, fmt.Errorf("engine state: %w", err)
	}
	if metaRaw, ok := fields.take(metaKeys...); ok && !isNull(metaRaw) {
		if err := json.Unmarshal(metaRaw, &env.Meta); err != nil {
			return nil, err
		}
	}
	env.Meta.applyDefaults()
	return Versioned{Value: env}, nil
}

// Normalize classifies raw and returns it as a full envelope. The returned
// History is never nil; CurrentBeat may be.
func Normalize(raw json.RawMessage) (Envelope, error) {
	payload, err := Classify(raw)
	if err != nil {
		return Envelope{}, err
	}
	return payload.Envelope(), nil
}

func (m *Meta) applyDefaults() {
	if m.Version == "" {
		m.Version = LegacyVersion
	}
	if m.Label == "" {
		m.Label = UnknownLabel
	}
}
