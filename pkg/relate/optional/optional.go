// Package optional distinguishes "field omitted" from "field set to
// null" in update payloads. Every field of a patch request is a
// Field[T]: omitted fields are left untouched by the merge, an explicit
// null clears a nullable column, and a value overwrites.
package optional

import "encoding/json"

// Field is a tri-state JSON value: absent, null, or a concrete T.
type Field[T any] struct {
	value   T
	present bool
	null    bool
}

// Of returns a present, non-null field. Mostly useful in tests.
func Of[T any](v T) Field[T] {
	return Field[T]{value: v, present: true}
}

// Null returns a present, explicit-null field.
func Null[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// Present reports whether the field appeared in the payload at all.
func (f Field[T]) Present() bool {
	return f.present
}

// IsNull reports whether the field was an explicit JSON null.
func (f Field[T]) IsNull() bool {
	return f.present && f.null
}

// Value returns the decoded value and whether it is usable (present
// and not null).
func (f Field[T]) Value() (T, bool) {
	return f.value, f.present && !f.null
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if string(data) == "null" {
		f.null = true
		return nil
	}
	return json.Unmarshal(data, &f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.present || f.null {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
