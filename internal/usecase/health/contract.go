package health

import (
	"github.com/kailas-cloud/esquery/internal/domain/query"
	"github.com/kailas-cloud/esquery/internal/querycache"
)

// Translator is probed with a canned filter.
type Translator interface {
	Translate(filter any, idAlias string) (*query.Bool, error)
}

// CacheReporter exposes translation cache counters.
type CacheReporter interface {
	Stats() querycache.Stats
}
