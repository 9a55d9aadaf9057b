package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// ErrNotObject reports a payload or nested record that is not a JSON object.
var ErrNotObject = errors.New("envelope: value is not a JSON object")

// fieldSet is a decoded JSON object whose known keys are consumed as they are
// read; whatever remains is preserved as extra fields.
type fieldSet map[string]json.RawMessage

func decodeObject(raw []byte, what string) (fieldSet, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: %s", ErrNotObject, what)
	}
	var fields fieldSet
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return fields, nil
}

// has reports whether any alias is present, without consuming it.
func (f fieldSet) has(aliases ...string) bool {
	for _, key := range aliases {
		if _, ok := f[key]; ok {
			return true
		}
	}
	return false
}

// take removes every alias and returns the value of the first one present.
func (f fieldSet) take(aliases ...string) (json.RawMessage, bool) {
	var (
		value json.RawMessage
		found bool
	)
	for _, key := range aliases {
		v, ok := f[key]
		if !ok {
			continue
		}
		delete(f, key)
		if !found {
			value, found = v, true
		}
	}
	return value, found
}

func (f fieldSet) string(name string, aliases ...string) (string, error) {
	raw, ok := f.take(aliases...)
	if !ok || isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %s: %w", name, err)
	}
	return s, nil
}

func (f fieldSet) raw(aliases ...string) json.RawMessage {
	raw, ok := f.take(aliases...)
	if !ok || isNull(raw) {
		return nil
	}
	return cloneRaw(raw)
}

func (f fieldSet) extra() map[string]json.RawMessage {
	if len(f) == 0 {
		return nil
	}
	return maps.Clone(f)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return bytes.Clone(raw)
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = cloneRaw(v)
	}
	return out
}

// object accumulates fields for marshaling; extras never override known keys.
type object map[string]any

func newObject(extra map[string]json.RawMessage) object {
	obj := make(object, len(extra)+8)
	for k, v := range extra {
		obj[k] = v
	}
	return obj
}

func (o object) setRaw(key string, raw json.RawMessage) {
	if raw == nil {
		delete(o, key)
		return
	}
	o[key] = raw
}

func (o object) setString(key, value string) {
	if value == "" {
		delete(o, key)
		return
	}
	o[key] = value
}
