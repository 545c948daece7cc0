package esquery

import (
	"time"

	"go.uber.org/zap"
)

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	limits          Limits
	idAlias         string
	metaField       string
	joinField       string
	defaultIndex    string
	defaultPageSize int
	maxPageSize     int
	cacheEntries    int
	cacheMaxAge     time.Duration
	evictProb       float64
	logger          *zap.Logger
}

// WithLimits replaces the security limits.
func WithLimits(l Limits) Option {
	return func(c *engineConfig) { c.limits = l }
}

// WithIDAlias sets the document field standing in for the engine id field.
func WithIDAlias(alias string) Option {
	return func(c *engineConfig) { c.idAlias = alias }
}

// WithMetaField sets the field mapped documents carry engine metadata under.
func WithMetaField(name string) Option {
	return func(c *engineConfig) { c.metaField = name }
}

// WithJoinField names the parent/child join field unwrapped by the mapper.
func WithJoinField(name string) Option {
	return func(c *engineConfig) { c.joinField = name }
}

// WithDefaultIndex sets the index used when a call names none.
func WithDefaultIndex(index string) Option {
	return func(c *engineConfig) { c.defaultIndex = index }
}

// WithPagination sets the default and maximum page sizes for Find.
func WithPagination(defaultPageSize, maxPageSize int) Option {
	return func(c *engineConfig) {
		c.defaultPageSize = defaultPageSize
		c.maxPageSize = maxPageSize
	}
}

// WithCache bounds the translation cache.
func WithCache(maxEntries int, maxAge time.Duration) Option {
	return func(c *engineConfig) {
		c.cacheEntries = maxEntries
		c.cacheMaxAge = maxAge
	}
}

// WithEvictProbability sets the chance a translation runs cache eviction.
func WithEvictProbability(p float64) Option {
	return func(c *engineConfig) { c.evictProb = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *engineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
