package search

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/query"
	"github.com/kailas-cloud/esquery/internal/logger"
	"github.com/kailas-cloud/esquery/internal/resultmap"
	"github.com/kailas-cloud/esquery/internal/security"
	"github.com/kailas-cloud/esquery/internal/translate"
)

type mockTranslator struct {
	result *query.Bool
	err    error
	called bool
	alias  string
}

func (m *mockTranslator) Translate(_ any, idAlias string) (*query.Bool, error) {
	m.called = true
	m.alias = idAlias
	return m.result, m.err
}

func newRejections() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rejections_total"}, []string{"reason"})
}

func limits(mod func(c *security.Config)) security.Config {
	cfg := security.DefaultConfig()
	mod(&cfg)
	return cfg
}

func newService(cfg security.Config) (*Service, *prometheus.CounterVec) {
	rejections := newRejections()
	svc := New(
		translate.New(),
		security.NewGate(cfg),
		resultmap.New(resultmap.Options{IDAlias: "id"}),
		"docs",
	).WithIDAlias("id").WithPagination(10, 50).WithRejectionCounter(rejections)
	return svc, rejections
}

func TestPrepareFind_EndToEnd(t *testing.T) {
	svc, _ := newService(security.DefaultConfig())

	req, err := svc.PrepareFind(context.Background(), FindParams{
		Query: map[string]any{
			"status": "active",
			"$or": []any{
				map[string]any{"priority": "high"},
				map[string]any{"due": map[string]any{"$lt": "2024-01-01"}},
			},
			"$sort":  map[string]any{"created": -1},
			"$limit": 5,
		},
		Paginate: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "docs", req.Index)
	assert.Equal(t, 5, req.Size)
	assert.Zero(t, req.From)
	assert.True(t, req.Paginate)
	assert.Equal(t, []map[string]any{{"created": map[string]any{"order": "desc"}}}, req.Sort)

	b, ok := req.Query["bool"].(*query.Bool)
	require.True(t, ok)
	assert.Equal(t, []query.Clause{query.Term("status", "active")}, b.Filter)
	assert.Len(t, b.Should, 2)
	require.NotNil(t, b.MinimumShouldMatch)
	assert.Equal(t, 1, *b.MinimumShouldMatch)
}

func TestPrepareFind_IDAlias(t *testing.T) {
	svc, _ := newService(security.DefaultConfig())
	req, err := svc.PrepareFind(context.Background(), FindParams{Query: map[string]any{"id": "42"}})
	require.NoError(t, err)
	b := req.Query["bool"].(*query.Bool)
	assert.Equal(t, []query.Clause{query.Term("_id", "42")}, b.Filter)
	assert.Equal(t, 10, req.Size)
}

func TestPrepareFind_EmptyQueryMatchesAll(t *testing.T) {
	svc, _ := newService(security.DefaultConfig())
	req, err := svc.PrepareFind(context.Background(), FindParams{Query: map[string]any{"$limit": 3}})
	require.NoError(t, err)
	assert.Nil(t, req.Query)
	assert.Equal(t, 3, req.Size)
}

func TestPrepareFind_Rejections(t *testing.T) {
	deep := map[string]any{"a": 1}
	for range 10 {
		deep = map[string]any{"$and": []any{deep}}
	}
	tests := []struct {
		name   string
		cfg    security.Config
		params FindParams
		class  error
		reason string
	}{
		{
			name:   "index",
			cfg:    security.DefaultConfig(),
			params: FindParams{Index: "secrets", Query: map[string]any{}},
			class:  domain.ErrForbidden,
			reason: "forbidden_index",
		},
		{
			name:   "unknown operator",
			cfg:    security.DefaultConfig(),
			params: FindParams{Query: map[string]any{"$where": "x"}},
			class:  domain.ErrBadRequest,
			reason: "param",
		},
		{
			name:   "depth",
			cfg:    limits(func(c *security.Config) { c.MaxQueryDepth = 5 }),
			params: FindParams{Query: deep},
			class:  domain.ErrBadRequest,
			reason: "depth",
		},
		{
			name:   "complexity",
			cfg:    limits(func(c *security.Config) { c.MaxQueryComplexity = 5 }),
			params: FindParams{Query: map[string]any{"a": map[string]any{"$regexp": "x"}}},
			class:  domain.ErrBadRequest,
			reason: "complexity",
		},
		{
			name:   "array size",
			cfg:    limits(func(c *security.Config) { c.MaxArraySize = 2 }),
			params: FindParams{Query: map[string]any{"tag": map[string]any{"$in": []any{1, 2, 3}}}},
			class:  domain.ErrBadRequest,
			reason: "array_size",
		},
		{
			name: "searchable field",
			cfg:  limits(func(c *security.Config) { c.SearchableFields = []string{"title"} }),
			params: FindParams{Query: map[string]any{"$or": []any{map[string]any{
				"$sqs": map[string]any{"$fields": []any{"secret^2"}, "$query": "x"},
			}}}},
			class:  domain.ErrForbidden,
			reason: "forbidden_field",
		},
		{
			name:   "kind",
			cfg:    security.DefaultConfig(),
			params: FindParams{Query: map[string]any{"$all": "yes"}},
			class:  domain.ErrBadRequest,
			reason: "invalid_type",
		},
		{
			name:   "pattern",
			cfg:    security.DefaultConfig(),
			params: FindParams{Query: map[string]any{"$sqs": map[string]any{"$fields": []any{"t"}, "$query": "(.*)+"}}},
			class:  domain.ErrBadRequest,
			reason: "pattern",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, rejections := newService(tt.cfg)
			_, err := svc.PrepareFind(context.Background(), tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.class)
			assert.Equal(t, tt.reason, RejectionReason(err))
			assert.InDelta(t, 1, testutil.ToFloat64(rejections.WithLabelValues(tt.reason)), 0)
		})
	}
}

func TestPrepareFind_TranslatorError(t *testing.T) {
	boom := errors.New("boom")
	tr := &mockTranslator{err: boom}
	svc := New(tr, security.NewGate(security.DefaultConfig()), resultmap.New(resultmap.Options{}), "docs")

	_, err := svc.PrepareFind(context.Background(), FindParams{Query: map[string]any{"a": 1}})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "other", RejectionReason(err))
	assert.True(t, tr.called)
	assert.Empty(t, tr.alias)
}

func TestPrepareFind_GatesRunBeforeTranslation(t *testing.T) {
	tr := &mockTranslator{}
	svc := New(tr, security.NewGate(limits(func(c *security.Config) { c.MaxQueryComplexity = 1 })), resultmap.New(resultmap.Options{}), "docs")

	_, err := svc.PrepareFind(context.Background(), FindParams{Query: map[string]any{"a": 1, "b": 2}})
	require.Error(t, err)
	assert.False(t, tr.called)
}

func TestPrepareFind_LogsRejection(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))
	svc, _ := newService(security.DefaultConfig())

	_, err := svc.PrepareFind(ctx, FindParams{Index: "other"})
	require.Error(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "forbidden_index", logs.All()[0].ContextMap()["reason"])
}

func TestPrepareCount(t *testing.T) {
	svc, _ := newService(limits(func(c *security.Config) { c.AllowedIndices = []string{"docs", "logs"} }))
	req, err := svc.PrepareCount(context.Background(), "logs", map[string]any{"level": "error", "$limit": 1})
	require.NoError(t, err)
	assert.Equal(t, "logs", req.Index)
	b := req.Query["bool"].(*query.Bool)
	assert.Equal(t, []query.Clause{query.Term("level", "error")}, b.Filter)
}

func TestValidateBulk(t *testing.T) {
	svc, rejections := newService(limits(func(c *security.Config) { c.MaxBulkOperations, c.MaxDocumentSize = 2, 64 }))
	ctx := context.Background()

	docs, err := svc.ValidateBulk(ctx, "", []map[string]any{
		{"title": "a", "__proto__": map[string]any{"x": 1}},
		{"title": "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"title": "a"}, {"title": "b"}}, docs)

	_, err = svc.ValidateBulk(ctx, "", make([]map[string]any, 3))
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.InDelta(t, 1, testutil.ToFloat64(rejections.WithLabelValues("bulk_operations")), 0)

	big := map[string]any{"body": string(make([]byte, 100))}
	_, err = svc.ValidateBulk(ctx, "", []map[string]any{big})
	assert.ErrorContains(t, err, "document 0")
	assert.Equal(t, "document_size", RejectionReason(err))

	_, err = svc.ValidateBulk(ctx, "other", nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPrepareRaw(t *testing.T) {
	ctx := context.Background()

	disabled, _ := newService(security.DefaultConfig())
	_, err := disabled.PrepareRaw(ctx, "search", nil)
	assert.ErrorIs(t, err, domain.ErrMethodNotAllowed)

	svc, _ := newService(limits(func(c *security.Config) { c.AllowedRawMethods = []string{"search", "indices.getMapping"} }))
	req, err := svc.PrepareRaw(ctx, "indices.getMapping", map[string]any{"index": "docs"})
	require.NoError(t, err)
	assert.Equal(t, RawRequest{
		Method:    "indices.getMapping",
		Namespace: "indices",
		Name:      "getMapping",
		Params:    map[string]any{"index": "docs"},
	}, req)

	req, err = svc.PrepareRaw(ctx, "search", nil)
	require.NoError(t, err)
	assert.Empty(t, req.Namespace)
	assert.Equal(t, "search", req.Name)

	_, err = svc.PrepareRaw(ctx, "indices.delete", nil)
	assert.ErrorIs(t, err, domain.ErrMethodNotAllowed)

	_, err = svc.PrepareRaw(ctx, "search", map[string]any{"index": "secrets"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMapFind(t *testing.T) {
	svc, _ := newService(security.DefaultConfig())
	resp := map[string]any{"hits": map[string]any{
		"total": map[string]any{"value": 1, "relation": "eq"},
		"hits":  []any{map[string]any{"_id": "1", "_source": map[string]any{"a": 1}}},
	}}

	out, err := svc.MapFind(resp, true, 0, 10)
	require.NoError(t, err)
	page, ok := out.(resultmap.Page)
	require.True(t, ok)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "1", page.Data[0]["id"])

	out, err = svc.MapFind(resp, false, 0, 10)
	require.NoError(t, err)
	list, ok := out.([]map[string]any)
	require.True(t, ok)
	assert.Len(t, list, 1)
}

func TestMapGetPatchBulk(t *testing.T) {
	svc, _ := newService(security.DefaultConfig())

	doc := svc.MapGet(map[string]any{"_id": "1", "_source": map[string]any{"a": 1}})
	assert.Equal(t, "1", doc["id"])

	doc = svc.MapPatch(map[string]any{"_id": "2", "get": map[string]any{"_source": map[string]any{"b": 2}}})
	assert.Equal(t, 2, doc["b"])

	docs, err := svc.MapBulk(map[string]any{"items": []any{
		map[string]any{"index": map[string]any{"_id": "3"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "3", docs[0]["id"])
	assert.Equal(t, "docs", svc.DefaultIndex())
}
