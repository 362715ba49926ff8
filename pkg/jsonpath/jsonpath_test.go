package jsonpath_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/the-dev-tools/jsonflow/pkg/jsonpath"
)

func sample() map[string]any {
	return map[string]any{
		"a": map[string]any{
			"b": []any{
				map[string]any{"c": float64(5)},
			},
		},
		"items": []any{
			map[string]any{"a": float64(1)},
			map[string]any{"a": float64(2)},
		},
		"nothing": nil,
	}
}

func TestResolve(t *testing.T) {
	v := sample()

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{"nested index", "a.b[0].c", float64(5), true},
		{"dotted index", "a.b.0.c", float64(5), true},
		{"array suffix", "items[]", v["items"], true},
		{"element", "items[1].a", float64(2), true},
		{"null leaf", "nothing", nil, true},
		{"missing key", "a.x", nil, false},
		{"through null", "nothing.x", nil, false},
		{"out of range", "items[5]", nil, false},
		{"negative index", "items.-1", nil, false},
		{"index into object", "a.0", nil, false},
		{"scalar step", "a.b[0].c.d", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := jsonpath.Resolve(v, tt.path)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveEmptyPathIsIdentity(t *testing.T) {
	v := sample()
	got, ok := jsonpath.Resolve(v, "")
	require.True(t, ok)
	require.Equal(t, v, got)

	got, ok = jsonpath.Resolve("plain", "")
	require.True(t, ok)
	require.Equal(t, "plain", got)
}

func TestResolveRootArray(t *testing.T) {
	v := []any{map[string]any{"id": "x"}}
	got, ok := jsonpath.Resolve(v, "[0].id")
	require.True(t, ok)
	require.Equal(t, "x", got)
}

func TestSegments(t *testing.T) {
	require.Equal(t, []string{"a", "b", "0", "c"}, jsonpath.Segments("a.b[0].c"))
	require.Equal(t, []string{"items"}, jsonpath.Segments("items[]"))
	require.Nil(t, jsonpath.Segments(""))
	require.Equal(t, []string{"a[x]"}, jsonpath.Segments("a[x]"))
}

func TestTrimArraySuffix(t *testing.T) {
	p, ok := jsonpath.TrimArraySuffix("data.users[]")
	require.True(t, ok)
	require.Equal(t, "data.users", p)

	p, ok = jsonpath.TrimArraySuffix("data.users")
	require.False(t, ok)
	require.Equal(t, "data.users", p)
}

func TestContainerPath(t *testing.T) {
	tests := map[string]string{
		"items":         "items",
		"items[0]":      "items",
		"items.0":       "items",
		"items[0].a":    "items",
		"a.b.2":         "a.b",
		"a[0].b[1].c":   "a[0].b",
		"data.users[]":  "data.users",
		"data.users[3]": "data.users",
		"":              "",
		"v2.name":       "v2.name",
	}
	for in, want := range tests {
		require.Equal(t, want, jsonpath.ContainerPath(in), in)
	}
}

func TestJoinAndIndex(t *testing.T) {
	require.Equal(t, "a", jsonpath.Join("", "a"))
	require.Equal(t, "a.b", jsonpath.Join("a", "b"))
	require.Equal(t, "a[0]", jsonpath.Index("a", 0))
}

func TestResolveBytesAgrees(t *testing.T) {
	raw := []byte(`{"a":{"b":[{"c":5}]},"items":[{"a":1},{"a":2}],"odd.key":{"x#y":true},"nothing":null}`)

	got, ok := jsonpath.ResolveBytes(raw, "a.b[0].c")
	require.True(t, ok)
	require.Equal(t, float64(5), got)

	got, ok = jsonpath.ResolveBytes(raw, "items[1].a")
	require.True(t, ok)
	require.Equal(t, float64(2), got)

	_, ok = jsonpath.ResolveBytes(raw, "a.missing")
	require.False(t, ok)

	got, ok = jsonpath.ResolveBytes(raw, "nothing")
	require.True(t, ok)
	require.Nil(t, got)

	got, ok = jsonpath.ResolveBytes(raw, "")
	require.True(t, ok)
	require.IsType(t, map[string]any{}, got)

	_, ok = jsonpath.ResolveBytes([]byte(`{broken`), "a")
	require.False(t, ok)
}

func TestResolveBytesEscapesMetacharacters(t *testing.T) {
	raw := []byte(`{"x#y":1,"a*":2,"@this":3,"items":[1,2]}`)

	got, ok := jsonpath.ResolveBytes(raw, "x#y")
	require.True(t, ok)
	require.Equal(t, float64(1), got)

	got, ok = jsonpath.ResolveBytes(raw, "a*")
	require.True(t, ok)
	require.Equal(t, float64(2), got)

	got, ok = jsonpath.ResolveBytes(raw, "@this")
	require.True(t, ok)
	require.Equal(t, float64(3), got)
}

func TestResolveRawKeepsOrder(t *testing.T) {
	raw := []byte(`{"wrap":{"z":[1],"a":[2]}}`)
	got, ok := jsonpath.ResolveRaw(raw, "wrap")
	require.True(t, ok)
	require.Equal(t, `{"z":[1],"a":[2]}`, got)

	_, ok = jsonpath.ResolveRaw(raw, "nope")
	require.False(t, ok)
}
