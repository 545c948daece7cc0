// Package translate converts Mongo-like filter objects into the native
// bool-query accumulator of the search engine.
package translate

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/kind"
	"github.com/kailas-cloud/esquery/internal/domain/query"
	"github.com/kailas-cloud/esquery/internal/querycache"
	"github.com/kailas-cloud/esquery/internal/security"
)

// IDField is the engine's reserved document id field.
const IDField = "_id"

const (
	// DefaultMaxDepth bounds operator and object nesting.
	DefaultMaxDepth = 50
	// DefaultEvictProbability is the chance a top-level call runs cache eviction.
	DefaultEvictProbability = 0.01
)

// Translator turns filter objects into bool queries, memoizing top-level
// results in a content-addressed cache.
type Translator struct {
	cache            *querycache.Cache
	maxDepth         int
	evictProbability float64
	random           func() float64
	sanitize         func(string) (string, error)
	duration         prometheus.Observer
	logger           *zap.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithCache replaces the result cache.
func WithCache(c *querycache.Cache) Option {
	return func(t *Translator) { t.cache = c }
}

// WithMaxDepth sets the depth limit used by Translate.
func WithMaxDepth(n int) Option {
	return func(t *Translator) { t.maxDepth = n }
}

// WithEvictProbability sets the chance a top-level call runs eviction.
func WithEvictProbability(p float64) Option {
	return func(t *Translator) { t.evictProbability = p }
}

// WithRandom overrides the random source used for eviction sampling.
func WithRandom(fn func() float64) Option {
	return func(t *Translator) { t.random = fn }
}

// WithQueryStringSanitizer replaces the $sqs query string check.
func WithQueryStringSanitizer(fn func(string) (string, error)) Option {
	return func(t *Translator) { t.sanitize = fn }
}

// WithDurationObserver records the time spent on uncached translations.
func WithDurationObserver(o prometheus.Observer) Option {
	return func(t *Translator) { t.duration = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{
		maxDepth:         DefaultMaxDepth,
		evictProbability: DefaultEvictProbability,
		random:           rand.Float64,
		sanitize: func(s string) (string, error) {
			return security.SanitizeQueryString(s, security.DefaultMaxQueryStringLength)
		},
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(t)
	}
	if t.cache == nil {
		t.cache = querycache.New(querycache.DefaultMaxEntries, querycache.DefaultMaxAge)
	}
	return t
}

// Cache returns the translator's result cache.
func (t *Translator) Cache() *querycache.Cache { return t.cache }

// MaxDepth returns the depth limit used by Translate.
func (t *Translator) MaxDepth() int { return t.maxDepth }

// Translate converts filter into a bool query. A nil result is the
// no-query sentinel. filter must be an object, nil or kind.UndefinedValue.
func (t *Translator) Translate(filter any, idAlias string) (*query.Bool, error) {
	return t.TranslateDepth(filter, idAlias, t.maxDepth, 0)
}

// TranslateDepth is Translate with explicit recursion bookkeeping. Only
// depth 0 reads and writes the cache.
func (t *Translator) TranslateDepth(filter any, idAlias string, maxDepth, depth int) (*query.Bool, error) {
	k, err := kind.Assert(filter, "query", kind.Object, kind.Null, kind.Undefined)
	if err != nil {
		return nil, err
	}
	if k != kind.Object {
		return nil, nil
	}

	var cacheKey string
	if depth == 0 {
		cacheKey = CacheKey(filter, idAlias)
		if cached, ok := t.cache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	if depth > maxDepth {
		return nil, &domain.DepthError{Max: maxDepth}
	}

	var start time.Time
	if depth == 0 {
		start = time.Now()
		if t.evictProbability > 0 && t.random() < t.evictProbability {
			expired, overflow := t.cache.Evict()
			t.logger.Debug("Query cache evicted",
				zap.Int("expired", expired),
				zap.Int("overflow", overflow),
				zap.Int("entries", t.cache.Len()),
			)
		}
	}

	obj, _ := kind.AsObject(filter)
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	acc := query.New()
	for _, key := range keys {
		acc, err = t.reduce(acc, key, obj[key], idAlias, maxDepth, depth)
		if err != nil {
			return nil, err
		}
	}
	result := acc.OrNil()

	if depth == 0 {
		t.cache.Set(cacheKey, result)
		if t.duration != nil {
			t.duration.Observe(time.Since(start).Seconds())
		}
	}
	return result, nil
}

// reduce folds one filter key into the accumulator.
func (t *Translator) reduce(
	acc *query.Bool, key string, value any, idAlias string, maxDepth, depth int,
) (*query.Bool, error) {
	if op, ok := LookupOperator(key); ok {
		return t.apply(op, value, acc, idAlias, maxDepth, depth)
	}

	field := key
	if idAlias != "" && key == idAlias {
		field = IDField
	}

	k, err := kind.Assert(value, field,
		kind.Number, kind.String, kind.Boolean, kind.Undefined, kind.Object, kind.Array)
	if err != nil {
		return nil, err
	}
	if k != kind.Object {
		return translateTermEquality(field, value, acc), nil
	}
	criteria, _ := kind.AsObject(value)
	return translateCriteria(field, criteria, acc), nil
}

var defaultTranslator = New()

// Translate converts filter with the process-wide translator and cache.
func Translate(filter any, idAlias string) (*query.Bool, error) {
	return defaultTranslator.Translate(filter, idAlias)
}

// Default returns the process-wide translator.
func Default() *Translator { return defaultTranslator }
