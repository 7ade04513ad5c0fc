package coder

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Value is a normalized survey response: either a non-empty normalized
// string or the Missing sentinel. The zero Value is Missing, so a
// respondent who literally types "nan" or "null" can never collide with
// true absence.
type Value struct {
	text    string
	present bool
}

// Missing is the sentinel for absent data.
var Missing = Value{}

// NewValue wraps an already-normalized non-empty string. Use Normalize to
// produce values from raw text.
func NewValue(text string) Value {
	if text == "" {
		return Missing
	}
	return Value{text: text, present: true}
}

// IsMissing reports whether the value is the Missing sentinel.
func (v Value) IsMissing() bool {
	return !v.present
}

// String returns the normalized text, or the empty string for Missing.
func (v Value) String() string {
	return v.text
}

// MarshalJSON encodes Missing as JSON null and anything else as a string.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsMissing() {
		return []byte("null"), nil
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON restores JSON null to the Missing sentinel, never to the
// string "null".
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Missing
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	*v = NewValue(s)
	return nil
}

// ValueSet is a deduplicated set of values. The Missing sentinel is never
// stored in a set.
type ValueSet map[Value]struct{}

// NewValueSet builds a set from the given values, skipping Missing.
func NewValueSet(values ...Value) ValueSet {
	set := make(ValueSet, len(values))
	for _, v := range values {
		set.Add(v)
	}
	return set
}

// Add inserts a value. Missing is ignored.
func (s ValueSet) Add(v Value) {
	if v.IsMissing() {
		return
	}
	s[v] = struct{}{}
}

// Remove deletes a value if present.
func (s ValueSet) Remove(v Value) {
	delete(s, v)
}

// Has reports whether the value is in the set.
func (s ValueSet) Has(v Value) bool {
	_, ok := s[v]
	return ok
}

// Union inserts every value from other.
func (s ValueSet) Union(other ValueSet) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// Subtract removes every value present in other.
func (s ValueSet) Subtract(other ValueSet) {
	for v := range other {
		delete(s, v)
	}
}

// Clone returns an independent copy.
func (s ValueSet) Clone() ValueSet {
	out := make(ValueSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Sorted returns the values in ascending text order.
func (s ValueSet) Sorted() []Value {
	out := make([]Value, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].text < out[j].text })
	return out
}
