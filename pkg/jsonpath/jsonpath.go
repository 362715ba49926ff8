// Package jsonpath evaluates the dotted/bracketed path expressions used as
// dynamic port ids, e.g. "items[0].id" or "data.users[]".
package jsonpath

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ArraySuffix marks a path whose value should be treated as an array.
const ArraySuffix = "[]"

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// TrimArraySuffix strips a trailing "[]" and reports whether one was present.
func TrimArraySuffix(path string) (string, bool) {
	if trimmed, ok := strings.CutSuffix(path, ArraySuffix); ok {
		return trimmed, true
	}
	return path, false
}

// Segments normalizes key[idx] to key.idx and splits the path on dots.
// A leading index ("[0].a") addresses the root array directly.
func Segments(path string) []string {
	path, _ = TrimArraySuffix(path)
	if path == "" {
		return nil
	}
	normalized := indexPattern.ReplaceAllString(path, ".$1")
	segments := strings.Split(normalized, ".")
	if strings.HasPrefix(path, "[") && len(segments) > 1 && segments[0] == "" {
		segments = segments[1:]
	}
	return segments
}

// Resolve looks up path inside a decoded JSON value. The empty path is the
// identity. ok is false when any step is absent or not indexable; a JSON null
// at the end of the path resolves to (nil, true).
func Resolve(value any, path string) (any, bool) {
	segments := Segments(path)
	current := value
	for _, seg := range segments {
		next, ok := step(current, seg)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func step(current any, seg string) (any, bool) {
	switch v := current.(type) {
	case map[string]any:
		next, ok := v[seg]
		return next, ok
	case []any:
		idx, ok := parseIndex(seg)
		if !ok || idx >= len(v) {
			return nil, false
		}
		return v[idx], true
	case []map[string]any:
		idx, ok := parseIndex(seg)
		if !ok || idx >= len(v) {
			return nil, false
		}
		return v[idx], true
	default:
		return nil, false
	}
}

func parseIndex(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// ContainerPath recovers the path of the array that holds an element port:
// everything from the last index segment on is dropped, so "items[0].a",
// "items[0]" and "items.0" all become "items". Paths without an index are
// returned unchanged.
func ContainerPath(path string) string {
	path, _ = TrimArraySuffix(path)
	if loc := lastIndexLoc(path); loc >= 0 {
		return path[:loc]
	}
	return path
}

func lastIndexLoc(path string) int {
	last := -1
	for _, m := range indexPattern.FindAllStringIndex(path, -1) {
		last = m[0]
	}
	parts := strings.Split(path, ".")
	offset := 0
	for i, part := range parts {
		if i > 0 {
			if _, ok := parseIndex(part); ok && offset-1 > last {
				last = offset - 1
			}
		}
		offset += len(part) + 1
	}
	return last
}

// Join appends a key to a parent path.
func Join(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// Index appends an element index to a parent path.
func Index(parent string, idx int) string {
	return parent + "[" + strconv.Itoa(idx) + "]"
}

// ResolveBytes resolves path directly against JSON text without decoding the
// whole document.
func ResolveBytes(raw []byte, path string) (any, bool) {
	res, ok := lookup(raw, path)
	if !ok {
		return nil, false
	}
	return res.Value(), true
}

// ResolveRaw is ResolveBytes returning the JSON text of the match, which keeps
// the member order of objects.
func ResolveRaw(raw []byte, path string) (string, bool) {
	res, ok := lookup(raw, path)
	if !ok {
		return "", false
	}
	return res.Raw, true
}

func lookup(raw []byte, path string) (gjson.Result, bool) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, false
	}
	segments := Segments(path)
	if len(segments) == 0 {
		return gjson.ParseBytes(raw), true
	}
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		if seg == "" {
			return gjson.Result{}, false
		}
		escaped[i] = escape(seg)
	}
	res := gjson.GetBytes(raw, strings.Join(escaped, "."))
	return res, res.Exists()
}

func isSafeKeyChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c <= ' ' || c > '~' || c == '_' ||
		c == '-' || c == ':'
}

// escape makes every gjson metacharacter in a key literal.
func escape(seg string) string {
	var sb strings.Builder
	for i := 0; i < len(seg); i++ {
		if !isSafeKeyChar(seg[i]) {
			sb.WriteByte('\\')
		}
		sb.WriteByte(seg[i])
	}
	return sb.String()
}
