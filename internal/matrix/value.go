package matrix

import (
	"fmt"
	"strings"
)

// Value is the closed set of RACI assignment values a role may hold for
// an activity. The empty string means "no assignment".
//
// Free-form cell content is converted through ParseValue at the ingestion
// boundary; everything past that boundary carries a validated Value.
type Value string

const (
	ValueNone        Value = ""
	ValueResponsible Value = "R"
	ValueAccountable Value = "A"
	ValueConsulted   Value = "C"
	ValueInformed    Value = "I"
)

// ParseValue converts raw cell content into a Value.
// Input is trimmed and upper-cased before matching, so "r", " a " and "A"
// all parse. Empty (or whitespace-only) input parses to ValueNone.
// Anything else is rejected.
func ParseValue(raw string) (Value, error) {
	v := Value(strings.ToUpper(strings.TrimSpace(raw)))
	switch v {
	case ValueNone, ValueResponsible, ValueAccountable, ValueConsulted, ValueInformed:
		return v, nil
	}
	return ValueNone, fmt.Errorf("invalid RACI value %q", raw)
}

// IsSet reports whether the value represents an actual assignment.
func (v Value) IsSet() bool {
	return v != ValueNone
}

// Display renders the value for human-readable output, with ValueNone
// rendered as an explicit placeholder rather than an empty string.
func (v Value) Display() string {
	if v == ValueNone {
		return "none"
	}
	return string(v)
}
