package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// RawKind tags the variant held by a RawValue.
type RawKind int

const (
	RawNull RawKind = iota
	RawString
	RawNumber
	RawBool
)

// RawValue is a dynamically typed scalar from a source's raw payload.
type RawValue struct {
	Kind RawKind
	Str  string
	Num  float64
	Bool bool
}

// String builds a string RawValue.
func String(s string) RawValue { return RawValue{Kind: RawString, Str: s} }

// Number builds a numeric RawValue.
func Number(n float64) RawValue { return RawValue{Kind: RawNumber, Num: n} }

// Bool builds a boolean RawValue.
func Bool(b bool) RawValue { return RawValue{Kind: RawBool, Bool: b} }

// Null is the empty RawValue.
var Null = RawValue{}

// AsString returns the string variant, or false for any other kind.
func (v RawValue) AsString() (string, bool) {
	if v.Kind != RawString {
		return "", false
	}
	return v.Str, true
}

func (v RawValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case RawString:
		return json.Marshal(v.Str)
	case RawNumber:
		return []byte(strconv.FormatFloat(v.Num, 'f', -1, 64)), nil
	case RawBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes scalars into their variant. Objects and arrays are
// kept as their compact JSON text in a string value.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("raw value: empty input")
	}
	switch data[0] {
	case 'n':
		*v = Null
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("raw value: %w", err)
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("raw value: %w", err)
		}
		*v = Bool(b)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return fmt.Errorf("raw value: %w", err)
		}
		*v = String(buf.String())
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("raw value: %w", err)
		}
		*v = Number(n)
	}
	return nil
}

// RawPayload is the open key/value bag adapters attach to a posting.
type RawPayload map[string]RawValue

// Strings returns every non-empty string value, ordered by key.
func (p RawPayload) Strings() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(p))
	for _, k := range keys {
		if s, ok := p[k].AsString(); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetString returns the string stored under key, if any.
func (p RawPayload) GetString(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}
