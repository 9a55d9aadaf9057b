package envelope

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"
)

const (
	// CurrentVersion is stamped on envelopes this module creates.
	CurrentVersion = "1.0"
	// LegacyVersion marks envelopes synthesized from unwrapped engine state.
	LegacyVersion = "legacy"
	// UnknownLabel is used when a payload does not name itself.
	UnknownLabel = "Unknown"
	// ReadyStatus is the status label of a fresh session.
	ReadyStatus = "Ready"
)

var (
	metaKeys        = []string{"meta"}
	engineStateKeys = []string{"engineState", "engine_state"}
)

// Envelope is the versioned wrapper around a narrative session.
type Envelope struct {
	Meta        Meta        `json:"meta"`
	EngineState EngineState `json:"engineState"`
}

// Meta describes an envelope: who wrote it, when, and with which overrides.
// Override values are opaque to this module.
type Meta struct {
	Version               string
	Label                 string
	CreatedAt             json.RawMessage
	StyleOverride         json.RawMessage
	RulesetOverride       json.RawMessage
	InstructionOverride   json.RawMessage
	VideoTemplateOverride json.RawMessage
	Extra                 map[string]json.RawMessage
}

// EngineState is the narrative engine's history and current decision point.
type EngineState struct {
	History     []string
	CurrentBeat *Beat
	StatusLabel string
	Extra       map[string]json.RawMessage
}

// Beat is one decision point: the narrative so far, a hint for the media
// generator, and the choices offered to the viewer.
type Beat struct {
	Narrative      string
	GenerationHint string
	Choices        []Choice
	Extra          map[string]json.RawMessage
}

// Choice is one labeled option at a beat.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Created parses CreatedAt, which writers have stored both as an RFC 3339
// string and as Unix milliseconds.
func (m Meta) Created() (time.Time, bool) {
	if isNull(m.CreatedAt) {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(m.CreatedAt, &s); err == nil {
		ts, err := time.Parse(time.RFC3339Nano, s)
		return ts, err == nil
	}
	var ms float64
	if err := json.Unmarshal(m.CreatedAt, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func (m Meta) MarshalJSON() ([]byte, error) {
	obj := newObject(m.Extra)
	obj["version"] = m.Version
	obj["characterName"] = m.Label
	obj.setRaw("createdAt", m.CreatedAt)
	obj.setRaw("styleOverride", m.StyleOverride)
	obj.setRaw("rulesetOverride", m.RulesetOverride)
	obj.setRaw("instructionOverride", m.InstructionOverride)
	obj.setRaw("videoTemplateOverride", m.VideoTemplateOverride)
	return json.Marshal(map[string]any(obj))
}

func (m *Meta) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data, "meta")
	if err != nil {
		return err
	}
	out := Meta{}
	if out.Version, err = fields.string("version", "version"); err != nil {
		return err
	}
	if out.Label, err = fields.string("label", "characterName", "character_name", "label"); err != nil {
		return err
	}
	out.CreatedAt = fields.raw("createdAt", "created_at")
	out.StyleOverride = fields.raw("styleOverride", "style_override")
	out.RulesetOverride = fields.raw("rulesetOverride", "ruleset_override")
	out.InstructionOverride = fields.raw("instructionOverride", "instruction_override")
	out.VideoTemplateOverride = fields.raw("videoTemplateOverride", "video_template_override")
	out.Extra = fields.extra()
	*m = out
	return nil
}

func (s EngineState) MarshalJSON() ([]byte, error) {
	obj := newObject(s.Extra)
	history := s.History
	if history == nil {
		history = []string{}
	}
	obj["history"] = history
	obj["currentBeat"] = s.CurrentBeat
	obj.setString("statusLabel", s.StatusLabel)
	return json.Marshal(map[string]any(obj))
}

func (s *EngineState) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*s = EngineState{History: []string{}}
		return nil
	}
	fields, err := decodeObject(data, "engine state")
	if err != nil {
		return err
	}
	return s.fromFields(fields)
}

func (s *EngineState) fromFields(fields fieldSet) error {
	out := EngineState{History: []string{}}
	if raw, ok := fields.take("history"); ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &out.History); err != nil {
			return fmt.Errorf("field history: %w", err)
		}
		if out.History == nil {
			out.History = []string{}
		}
	}
	if raw, ok := fields.take("currentBeat", "current_beat"); ok && !isNull(raw) {
		var beat Beat
		if err := json.Unmarshal(raw, &beat); err != nil {
			return fmt.Errorf("field currentBeat: %w", err)
		}
		out.CurrentBeat = &beat
	}
	var err error
	if out.StatusLabel, err = fields.string("statusLabel", "statusLabel", "status_label"); err != nil {
		return err
	}
	out.Extra = fields.extra()
	*s = out
	return nil
}

func (b Beat) MarshalJSON() ([]byte, error) {
	obj := newObject(b.Extra)
	choices := b.Choices
	if choices == nil {
		choices = []Choice{}
	}
	obj["narrative"] = b.Narrative
	obj["generationHint"] = b.GenerationHint
	obj["choices"] = choices
	return json.Marshal(map[string]any(obj))
}

func (b *Beat) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data, "beat")
	if err != nil {
		return err
	}
	out := Beat{}
	if out.Narrative, err = fields.string("narrative", "narrative"); err != nil {
		return err
	}
	if out.GenerationHint, err = fields.string("generationHint", "generationHint", "generation_hint"); err != nil {
		return err
	}
	if raw, ok := fields.take("choices"); ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &out.Choices); err != nil {
			return fmt.Errorf("field choices: %w", err)
		}
	}
	out.Extra = fields.extra()
	*b = out
	return nil
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID   json.RawMessage `json:"id"`
		Text string          `json:"text"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.Text = wire.Text
	c.ID = ""
	if isNull(wire.ID) {
		return nil
	}
	if err := json.Unmarshal(wire.ID, &c.ID); err == nil {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(wire.ID, &n); err != nil {
		return fmt.Errorf("choice id: %w", err)
	}
	c.ID = n.String()
	return nil
}

// UnmarshalJSON accepts both the wrapped and the bare engine-state shapes;
// see Normalize.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	env, err := Normalize(data)
	if err != nil {
		return err
	}
	*e = env
	return nil
}

// Clone returns a deep copy; decoded envelopes are shared read-only, so
// callers edit a clone.
func (e Envelope) Clone() Envelope {
	return Envelope{Meta: e.Meta.Clone(), EngineState: e.EngineState.Clone()}
}

// Clone returns a deep copy of m.
func (m Meta) Clone() Meta {
	return Meta{
		Version:               m.Version,
		Label:                 m.Label,
		CreatedAt:             cloneRaw(m.CreatedAt),
		StyleOverride:         cloneRaw(m.StyleOverride),
		RulesetOverride:       cloneRaw(m.RulesetOverride),
		InstructionOverride:   cloneRaw(m.InstructionOverride),
		VideoTemplateOverride: cloneRaw(m.VideoTemplateOverride),
		Extra:                 cloneExtra(m.Extra),
	}
}

// Clone returns a deep copy of s.
func (s EngineState) Clone() EngineState {
	out := EngineState{
		History:     slices.Clone(s.History),
		StatusLabel: s.StatusLabel,
		Extra:       cloneExtra(s.Extra),
	}
	if out.History == nil {
		out.History = []string{}
	}
	if s.CurrentBeat != nil {
		beat := s.CurrentBeat.Clone()
		out.CurrentBeat = &beat
	}
	return out
}

// Clone returns a deep copy of b.
func (b Beat) Clone() Beat {
	return Beat{
		Narrative:      b.Narrative,
		GenerationHint: b.GenerationHint,
		Choices:        slices.Clone(b.Choices),
		Extra:          cloneExtra(b.Extra),
	}
}

// Factory returns the preset envelope for a brand-new session.
func Factory(label string, now time.Time) Envelope {
	if label == "" {
		label = UnknownLabel
	}
	return Envelope{
		Meta: Meta{
			Version:   CurrentVersion,
			Label:     label,
			CreatedAt: json.RawMessage(strconv.Quote(now.UTC().Format(time.RFC3339))),
		},
		EngineState: EngineState{
			History:     []string{},
			StatusLabel: ReadyStatus,
		},
	}
}
