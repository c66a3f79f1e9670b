// Package snapshot renders schedules and architectures as canonical JSON
// documents with content-addressed hashes, so a run archived today can be
// compared bit-for-bit with the same run recomputed later.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Value is the sealed value model for canonical documents. Floats and
// nulls are excluded: every snapshot field is an integer, a string, a
// bool, or a composite of those, which keeps hashing deterministic.
type Value interface {
	value()
}

// String is a canonical string value.
type String string

// Int is a canonical integer value.
type Int int64

// Bool is a canonical boolean value.
type Bool bool

// Array is an ordered value list.
type Array []Value

// Object maps string keys to values; marshaling sorts keys by UTF-16
// code units per RFC 8785.
type Object map[string]Value

func (String) value() {}
func (Int) value()    {}
func (Bool) value()   {}
func (Array) value()  {}
func (Object) value() {}

// MarshalCanonical produces RFC 8785 canonical JSON: keys sorted by
// UTF-16 code units, strings NFC normalized, no HTML escaping.
func MarshalCanonical(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case String:
		return marshalString(string(val))
	case Int:
		return []byte(fmt.Sprintf("%d", int64(val))), nil
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case Array:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := MarshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Object:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range val.sortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalString(k)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := MarshalCanonical(val[k])
			if err != nil {
				return nil, fmt.Errorf("value for key %q: %w", k, err)
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalString encodes an NFC-normalized string without HTML escaping.
func marshalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return out, nil
}

// sortedKeys returns keys ordered by UTF-16 code units. Go's sort.Strings
// compares UTF-8 bytes, which differs above the BMP.
func (o Object) sortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		a16 := utf16.Encode([]rune(a))
		b16 := utf16.Encode([]rune(b))
		n := min(len(a16), len(b16))
		for i := 0; i < n; i++ {
			if a16[i] != b16[i] {
				if a16[i] < b16[i] {
					return -1
				}
				return 1
			}
		}
		switch {
		case len(a16) < len(b16):
			return -1
		case len(a16) > len(b16):
			return 1
		default:
			return 0
		}
	})
	return keys
}
