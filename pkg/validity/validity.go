// Package validity decides whether a decoded JSON value carries meaningful
// content: no nulls, no blank strings, no empty containers anywhere inside.
package validity

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// IsValid is conjunctive and total: a container is valid only if it is
// non-empty and every element is valid.
func IsValid(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool, json.Number,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case []any:
		if len(t) == 0 {
			return false
		}
		for _, e := range t {
			if !IsValid(e) {
				return false
			}
		}
		return true
	case []string:
		if len(t) == 0 {
			return false
		}
		for _, e := range t {
			if !IsValid(e) {
				return false
			}
		}
		return true
	case map[string]any:
		if len(t) == 0 {
			return false
		}
		for _, e := range t {
			if !IsValid(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Invalid lists the first-level children that make v invalid, as path
// fragments ("key" or "[i]"). A scalar that is itself invalid yields [""].
func Invalid(v any) []string {
	switch t := v.(type) {
	case []any:
		if len(t) == 0 {
			return []string{""}
		}
		var out []string
		for i, e := range t {
			if !IsValid(e) {
				out = append(out, "["+strconv.Itoa(i)+"]")
			}
		}
		return out
	case map[string]any:
		if len(t) == 0 {
			return []string{""}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			if !IsValid(t[k]) {
				out = append(out, k)
			}
		}
		return out
	default:
		if IsValid(v) {
			return nil
		}
		return []string{""}
	}
}
