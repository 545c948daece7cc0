package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/esquery/internal/domain"
)

func TestPrefilter_SplitsDirectives(t *testing.T) {
	params := map[string]any{
		"status":  "active",
		"$or":     []any{map[string]any{"a": 1}},
		"$sort":   map[string]any{"created": -1.0, "name": 1.0},
		"$limit":  5.0,
		"$skip":   "10",
		"$select": []any{"title", "status"},
	}

	f, rest, err := Prefilter(params, PrefilterOptions{DefaultLimit: 20, MaxLimit: 100})
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"created": map[string]any{"order": "desc"}},
		{"name": map[string]any{"order": "asc"}},
	}, f.Sort)
	assert.Equal(t, 5, f.Limit)
	assert.Equal(t, 10, f.Skip)
	assert.Equal(t, []string{"title", "status"}, f.Select)
	assert.Equal(t, map[string]any{
		"status": "active",
		"$or":    []any{map[string]any{"a": 1}},
	}, rest)
	assert.Contains(t, params, "$sort", "params must not be modified")
}

func TestPrefilter_LimitDefaultsAndClamps(t *testing.T) {
	opts := PrefilterOptions{DefaultLimit: 20, MaxLimit: 50}

	f, _, err := Prefilter(map[string]any{}, opts)
	require.NoError(t, err)
	assert.Equal(t, 20, f.Limit)

	f, _, err = Prefilter(map[string]any{"$limit": 500}, opts)
	require.NoError(t, err)
	assert.Equal(t, 50, f.Limit)

	f, _, err = Prefilter(map[string]any{"$limit": json.Number("0")}, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Limit)
}

func TestPrefilter_RejectsUnknownOperator(t *testing.T) {
	_, _, err := Prefilter(map[string]any{"$where": "1 == 1"}, PrefilterOptions{})
	var pe *domain.ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "$where", pe.Param)
	assert.EqualError(t, err, "invalid query parameter $where")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestPrefilter_InvalidDirectives(t *testing.T) {
	tests := map[string]map[string]any{
		"negative limit":   {"$limit": -1},
		"fractional skip":  {"$skip": 1.5},
		"text limit":       {"$limit": "many"},
		"sort not object":  {"$sort": "name"},
		"zero direction":   {"$sort": map[string]any{"name": 0}},
		"select not array": {"$select": "title"},
		"bool skip":        {"$skip": true},
	}
	for name, params := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Prefilter(params, PrefilterOptions{})
			assert.ErrorIs(t, err, domain.ErrBadRequest)
		})
	}
}

func TestPrefilter_Sanitizes(t *testing.T) {
	params := map[string]any{
		"__proto__": map[string]any{"polluted": true},
		"safe":      map[string]any{"constructor": 1, "$gt": 2},
	}

	_, rest, err := Prefilter(params, PrefilterOptions{Sanitize: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"safe": map[string]any{"$gt": 2}}, rest)

	_, rest, err = Prefilter(params, PrefilterOptions{})
	require.NoError(t, err)
	assert.Contains(t, rest, "__proto__")
}
