// Package esquery translates Mongo-like filter objects into search engine
// bool queries and maps engine responses back into plain documents.
//
// It embeds the same pipeline the esquery service runs, without HTTP:
//
//	eng := esquery.New(esquery.WithDefaultIndex("docs"))
//	q, err := eng.Translate(map[string]any{"status": "active"})
package esquery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/querycache"
	"github.com/kailas-cloud/esquery/internal/resultmap"
	"github.com/kailas-cloud/esquery/internal/security"
	"github.com/kailas-cloud/esquery/internal/translate"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
)

// Error classes. Every error returned by an Engine matches exactly one via errors.Is.
var (
	ErrBadRequest       = domain.ErrBadRequest
	ErrForbidden        = domain.ErrForbidden
	ErrMethodNotAllowed = domain.ErrMethodNotAllowed
)

// Public aliases of the pipeline types.
type (
	// Limits are the security limits applied to every request.
	Limits = security.Config
	// Gate applies Limits.
	Gate = security.Gate
	// Mapper converts engine responses into documents.
	Mapper = resultmap.Mapper
	// Page is a paginated find result.
	Page = resultmap.Page
	// SearchRequest is the engine search body built for a find call.
	SearchRequest = searchuc.SearchRequest
	// CountRequest is the engine count body.
	CountRequest = searchuc.CountRequest
	// RawRequest is an allow-listed passthrough call.
	RawRequest = searchuc.RawRequest
	// CacheStats is a snapshot of the translation cache counters.
	CacheStats = querycache.Stats
)

// DefaultLimits returns the restrictive default limits.
func DefaultLimits() Limits { return security.DefaultConfig() }

// Engine is the esquery library entry point. It is safe for concurrent use.
type Engine struct {
	translator *translate.Translator
	gate       *security.Gate
	mapper     *resultmap.Mapper
	search     *searchuc.Service
	idAlias    string
}

// New creates an Engine. Without options it uses the default limits, the
// "id" alias and the index "default".
func New(opts ...Option) *Engine {
	cfg := &engineConfig{
		limits:       security.DefaultConfig(),
		idAlias:      resultmap.DefaultIDAlias,
		metaField:    resultmap.DefaultMetaField,
		defaultIndex: "default",
		cacheEntries: querycache.DefaultMaxEntries,
		cacheMaxAge:  querycache.DefaultMaxAge,
		evictProb:    translate.DefaultEvictProbability,
		logger:       zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}
	return wireEngine(cfg)
}

func wireEngine(cfg *engineConfig) *Engine {
	gate := security.NewGate(cfg.limits)
	tr := translate.New(
		translate.WithCache(querycache.New(cfg.cacheEntries, cfg.cacheMaxAge)),
		translate.WithMaxDepth(gate.Config().MaxQueryDepth),
		translate.WithEvictProbability(cfg.evictProb),
		translate.WithQueryStringSanitizer(gate.SanitizeQueryString),
		translate.WithLogger(cfg.logger),
	)
	mapper := resultmap.New(resultmap.Options{
		IDAlias:   cfg.idAlias,
		MetaField: cfg.metaField,
		JoinField: cfg.joinField,
	})
	search := searchuc.New(tr, gate, mapper, cfg.defaultIndex).
		WithIDAlias(cfg.idAlias).
		WithPagination(cfg.defaultPageSize, cfg.maxPageSize)

	return &Engine{
		translator: tr,
		gate:       gate,
		mapper:     mapper,
		search:     search,
		idAlias:    cfg.idAlias,
	}
}

// Translate converts a bare filter object, directives already removed,
// into a {"bool": ...} query. A filter that matches everything returns nil.
// Only the translator's own checks run; use Find for the full gate chain.
func (e *Engine) Translate(filter map[string]any) (map[string]any, error) {
	b, err := e.translator.Translate(filter, e.idAlias)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	if b == nil {
		return nil, nil
	}
	return b.Wrap(), nil
}

// Find runs every gate over a query carrying optional $sort, $limit,
// $skip and $select directives and builds the search body.
func (e *Engine) Find(ctx context.Context, index string, q map[string]any) (SearchRequest, error) {
	return e.search.PrepareFind(ctx, searchuc.FindParams{Index: index, Query: q})
}

// Count builds the count body for q.
func (e *Engine) Count(ctx context.Context, index string, q map[string]any) (CountRequest, error) {
	return e.search.PrepareCount(ctx, index, q)
}

// ValidateBulk checks a bulk write and returns the documents to send.
func (e *Engine) ValidateBulk(ctx context.Context, index string, docs []map[string]any) ([]map[string]any, error) {
	return e.search.ValidateBulk(ctx, index, docs)
}

// Raw checks a passthrough call against the raw-method allow-list.
func (e *Engine) Raw(ctx context.Context, method string, params map[string]any) (RawRequest, error) {
	return e.search.PrepareRaw(ctx, method, params)
}

// Gate returns the security gate.
func (e *Engine) Gate() *Gate { return e.gate }

// Mapper returns the result mapper.
func (e *Engine) Mapper() *Mapper { return e.mapper }

// CacheStats returns the translation cache counters.
func (e *Engine) CacheStats() CacheStats { return e.translator.Cache().Stats() }
