// Package jsonvalue holds the small JSON helpers shared by the node handlers:
// parsing payload text, serializing results and walking object keys in
// document order.
package jsonvalue

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

var ErrEmpty = errors.New("empty JSON text")

// Type names reported for decoded values.
const (
	TypeNull    = "null"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Parse decodes JSON text into plain Go values (map[string]any, []any,
// float64, string, bool, nil).
func Parse(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmpty
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return v, nil
}

// Stringify serializes v compactly. Values that cannot be encoded return an
// error rather than partial output.
func Stringify(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(b), nil
}

// Text returns v as JSON text. A string is taken to be JSON text already;
// nil and unencodable values give "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	s, err := Stringify(v)
	if err != nil {
		return ""
	}
	return s
}

// MustStringify is Stringify for values built from decoded JSON.
func MustStringify(v any) string {
	s, err := Stringify(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Indent pretty-prints JSON text; invalid text is returned unchanged.
func Indent(raw string) string {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return raw
	}
	return string(b)
}

// TypeOf names the JSON type of a decoded value.
func TypeOf(v any) string {
	switch v.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case json.Number, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return TypeNumber
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Field is one key/value pair of an object, in document order.
type Field struct {
	Key   string
	Raw   string
	Value any
}

// Fields walks the top-level members of a JSON object in the order they
// appear in the text. Non-objects yield nil.
func Fields(raw string) []Field {
	res := gjson.Parse(raw)
	if !res.IsObject() {
		return nil
	}
	var out []Field
	res.ForEach(func(key, value gjson.Result) bool {
		out = append(out, Field{Key: key.String(), Raw: value.Raw, Value: value.Value()})
		return true
	})
	return out
}

// SortedKeys returns the keys of a decoded object. Decoded maps carry no
// document order, so they are sorted.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FirstArray returns v when it is an array, otherwise the first array-valued
// member of an object. raw, when non-empty, supplies the document order of
// the object's members.
func FirstArray(v any, raw string) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		if raw != "" {
			for _, f := range Fields(raw) {
				if arr, ok := t[f.Key].([]any); ok {
					return arr, true
				}
			}
			return nil, false
		}
		for _, k := range SortedKeys(t) {
			if arr, ok := t[k].([]any); ok {
				return arr, true
			}
		}
	}
	return nil, false
}
