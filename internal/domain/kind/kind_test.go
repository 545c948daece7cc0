package kind

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/esquery/internal/domain"
)

type status string

func TestOf(t *testing.T) {
	var nilMap map[string]any
	var nilSlice []string
	var nilPtr *int
	n := 3

	tests := []struct {
		name string
		in   any
		want Kind
	}{
		{"nil", nil, Null},
		{"undefined", UndefinedValue, Undefined},
		{"bool", true, Boolean},
		{"string", "x", String},
		{"named string", status("active"), String},
		{"float", 1.5, Number},
		{"int", 7, Number},
		{"json number", json.Number("12"), Number},
		{"nan", math.NaN(), NotANumber},
		{"nan32", float32(math.NaN()), NotANumber},
		{"array", []any{1}, Array},
		{"typed slice", []string{"a"}, Array},
		{"fixed array", [2]int{1, 2}, Array},
		{"nil slice", nilSlice, Null},
		{"object", map[string]any{}, Object},
		{"typed map", map[string]int{"a": 1}, Object},
		{"nil map", nilMap, Null},
		{"struct", time.Time{}, Object},
		{"nil pointer", nilPtr, Null},
		{"pointer", &n, Number},
		{"func", func() {}, Undefined},
		{"chan", make(chan int), Undefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Of(tt.in))
		})
	}
}

func TestAssert(t *testing.T) {
	k, err := Assert("x", "name", String, Number)
	require.NoError(t, err)
	assert.Equal(t, String, k)

	k, err = Assert([]any{}, "$all", Boolean)
	assert.Equal(t, Array, k)
	var ke *domain.KindError
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, "$all", ke.Field)
	assert.EqualError(t, err, "$all should be one of [boolean], got array")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestAsObject(t *testing.T) {
	m := map[string]any{"a": 1}
	got, ok := AsObject(m)
	require.True(t, ok)
	assert.Equal(t, m, got)

	got, ok = AsObject(map[string]string{"a": "b"})
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": "b"}, got)

	got, ok = AsObject(time.Now())
	require.True(t, ok)
	assert.Empty(t, got)

	_, ok = AsObject(map[int]any{1: 1})
	assert.False(t, ok)
	_, ok = AsObject("x")
	assert.False(t, ok)
}

func TestAsArray(t *testing.T) {
	got, ok := AsArray([]string{"a", "b"})
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, got)

	got, ok = AsArray([2]int{1, 2})
	require.True(t, ok)
	assert.Equal(t, []any{1, 2}, got)

	_, ok = AsArray(map[string]any{})
	assert.False(t, ok)
}

func TestAsStrings(t *testing.T) {
	got, err := AsStrings([]any{"a", status("b")}, "$exists")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = AsStrings("a", "$exists")
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = AsStrings([]any{"a", 2}, "$exists")
	var ke *domain.KindError
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, "$exists[1]", ke.Field)
	assert.Equal(t, "number", ke.Actual)
}

func TestIsOperatorAndIsMap(t *testing.T) {
	assert.True(t, IsOperator("$or"))
	assert.False(t, IsOperator("status"))

	assert.True(t, IsMap(map[string]any{}))
	assert.True(t, IsMap(map[string]int{}))
	assert.False(t, IsMap(time.Time{}))
	assert.False(t, IsMap([]any{}))
}

func TestUndefinedMarshalsAsNull(t *testing.T) {
	out, err := json.Marshal(map[string]any{"a": UndefinedValue})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null}`, string(out))
}
