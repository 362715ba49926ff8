package jsonvalue_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/the-dev-tools/jsonflow/pkg/jsonvalue"
)

func TestParse(t *testing.T) {
	v, err := jsonvalue.Parse(`{"a":[1,"x",true,null]}`)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"a": []any{float64(1), "x", true, nil}}, v)

	_, err = jsonvalue.Parse("  ")
	require.ErrorIs(t, err, jsonvalue.ErrEmpty)

	_, err = jsonvalue.Parse("{nope")
	require.Error(t, err)
}

func TestStringify(t *testing.T) {
	s, err := jsonvalue.Stringify(map[string]any{"b": 1, "a": "x"})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":"x","b":1}`, s)
}

func TestText(t *testing.T) {
	require.Equal(t, `[1,"a"]`, jsonvalue.Text(`[1,"a"]`))
	require.Equal(t, `{"a":[1]}`, jsonvalue.Text(map[string]any{"a": []any{1.0}}))
	require.Equal(t, "", jsonvalue.Text(nil))
	require.Equal(t, "", jsonvalue.Text(func() {}))
}

func TestTypeOf(t *testing.T) {
	require.Equal(t, jsonvalue.TypeNull, jsonvalue.TypeOf(nil))
	require.Equal(t, jsonvalue.TypeString, jsonvalue.TypeOf("x"))
	require.Equal(t, jsonvalue.TypeNumber, jsonvalue.TypeOf(float64(1)))
	require.Equal(t, jsonvalue.TypeBoolean, jsonvalue.TypeOf(false))
	require.Equal(t, jsonvalue.TypeArray, jsonvalue.TypeOf([]any{}))
	require.Equal(t, jsonvalue.TypeObject, jsonvalue.TypeOf(map[string]any{}))
}

func TestFieldsKeepDocumentOrder(t *testing.T) {
	fields := jsonvalue.Fields(`{"z":1,"a":{"k":2},"m":[3]}`)
	require.Len(t, fields, 3)
	require.Equal(t, "z", fields[0].Key)
	require.Equal(t, "a", fields[1].Key)
	require.Equal(t, `{"k":2}`, fields[1].Raw)
	require.Equal(t, "m", fields[2].Key)

	require.Nil(t, jsonvalue.Fields(`[1,2]`))
}

func TestFirstArray(t *testing.T) {
	raw := `{"meta":{"n":1},"second":[2],"first":[1]}`
	v, err := jsonvalue.Parse(raw)
	require.NoError(t, err)

	arr, ok := jsonvalue.FirstArray(v, raw)
	require.True(t, ok)
	require.Equal(t, []any{float64(2)}, arr)

	// without text, keys are sorted
	arr, ok = jsonvalue.FirstArray(v, "")
	require.True(t, ok)
	require.Equal(t, []any{float64(1)}, arr)

	_, ok = jsonvalue.FirstArray(map[string]any{"a": "x"}, "")
	require.False(t, ok)

	arr, ok = jsonvalue.FirstArray([]any{"x"}, "")
	require.True(t, ok)
	require.Len(t, arr, 1)
}

func TestIndent(t *testing.T) {
	require.Equal(t, "{\n  \"a\": 1\n}", jsonvalue.Indent(`{"a":1}`))
	require.Equal(t, "nope", jsonvalue.Indent("nope"))
}
