package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTranslate_Stdin(t *testing.T) {
	out, err := run(t, `{"status":"active","$sort":{"created":-1}}`, "translate")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bool":{"filter":[{"term":{"status":"active"}}]}}`, out)
}

func TestTranslate_IDAlias(t *testing.T) {
	out, err := run(t, `{"uid":"x"}`, "translate", "--id-alias", "uid", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bool":{"filter":[{"term":{"_id":"x"}}]}}`, out)
}

func TestTranslate_EmptyFilterPrintsNull(t *testing.T) {
	for _, in := range []string{`{}`, `null`} {
		out, err := run(t, in, "translate")
		require.NoError(t, err)
		assert.Equal(t, "null\n", out)
	}
}

func TestTranslate_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"$or":[{"a":1},{"b":2}]}`), 0o600))

	out, err := run(t, "", "translate", "--pretty", path)
	require.NoError(t, err)
	assert.Contains(t, out, "\n  ")

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.EqualValues(t, 1, got["bool"]["minimum_should_match"])
	assert.Len(t, got["bool"]["should"], 2)
}

func TestTranslate_Errors(t *testing.T) {
	_, err := run(t, `{"$or":"x"}`, "translate")
	assert.ErrorContains(t, err, "$or")

	_, err = run(t, `{"$where":"1"}`, "translate")
	assert.ErrorContains(t, err, "$where")

	_, err = run(t, ``, "translate")
	assert.ErrorContains(t, err, "no filter object")

	_, err = run(t, `{`, "translate")
	assert.ErrorContains(t, err, "decode filter")

	_, err = run(t, "", "translate", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "open filter")
}

func TestTranslate_MaxDepth(t *testing.T) {
	filter := `{"$and":[{"$and":[{"a":1}]}]}`

	_, err := run(t, filter, "translate", "--max-depth", "1")
	assert.ErrorContains(t, err, "depth")

	_, err = run(t, filter, "translate", "--max-depth", "2")
	assert.NoError(t, err)
}

func TestTranslate_ZeroMaxDepth(t *testing.T) {
	out, err := run(t, `{"a":1}`, "translate", "--max-depth", "0")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bool":{"filter":[{"term":{"a":1}}]}}`, out)

	_, err = run(t, `{"$and":[{"a":1}]}`, "translate", "--max-depth", "0")
	assert.ErrorContains(t, err, "maximum depth of 0")
}

func TestComplexity(t *testing.T) {
	simple, err := run(t, `{"a":1}`, "complexity")
	require.NoError(t, err)

	withWildcard, err := run(t, `{"a":1,"b":{"$wildcard":"x*"}}`, "complexity")
	require.NoError(t, err)
	assert.Greater(t, atoi(t, withWildcard), atoi(t, simple))

	pretty, err := run(t, `{"a":1}`, "complexity", "--pretty", "--max-complexity", "7")
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(simple)+" / 7\n", pretty)
}

func TestCheck_AllPass(t *testing.T) {
	out, err := run(t, `{"status":"active","$limit":5}`, "check")
	require.NoError(t, err)
	for _, name := range []string{"directives", "depth", "complexity", "arrays", "translate"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "FAIL")
}

func TestCheck_ComplexityFails(t *testing.T) {
	out, err := run(t, `{"a":{"$wildcard":"x*"},"b":{"$regexp":"y.*"}}`, "check", "--max-complexity", "3", "--json")
	require.ErrorIs(t, err, errChecksFailed)

	var results []checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 5)
	assert.Equal(t, "complexity", results[2].Check)
	assert.False(t, results[2].OK)
	assert.True(t, results[1].OK)
}

func TestCheck_StopsAtDirectives(t *testing.T) {
	out, err := run(t, `{"$bogus":1}`, "check", "--json")
	require.ErrorIs(t, err, errChecksFailed)

	var results []checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "directives", results[0].Check)
}

func TestCheck_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "esquery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 8080
index:
  default: docs
mapping:
  id_alias: uid
security:
  max_query_complexity: 2
`), 0o600))

	_, err := run(t, `{"a":1,"b":2,"c":3}`, "check", "--config", path)
	require.ErrorIs(t, err, errChecksFailed)

	// an explicit flag wins over the file
	_, err = run(t, `{"a":1,"b":2,"c":3}`, "check", "--config", path, "--max-complexity", "100")
	require.NoError(t, err)

	out, err := run(t, `{"uid":"7"}`, "translate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"_id":"7"`)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "esqctl dev"))
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	var n int
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(s)), &n))
	return n
}
