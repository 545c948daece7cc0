// Package security bounds what an untrusted filter or document may cost:
// nesting depth, array and document sizes, query-string shapes, index and
// method allow-lists, searchable fields and a complexity budget.
package security

import "slices"

// Default limits. Allow-lists default to empty, the most restrictive setting.
const (
	DefaultMaxQueryDepth        = 50
	DefaultMaxArraySize         = 10000
	DefaultMaxBulkOperations    = 10000
	DefaultMaxDocumentSize      = 10 * 1024 * 1024
	DefaultMaxQueryStringLength = 500
	DefaultMaxQueryComplexity   = 100
)

// Config holds the security limits.
type Config struct {
	MaxQueryDepth           int
	MaxArraySize            int
	MaxBulkOperations       int
	MaxDocumentSize         int
	MaxQueryStringLength    int
	AllowedIndices          []string
	AllowedRawMethods       []string
	SearchableFields        []string
	MaxQueryComplexity      int
	EnableDetailedErrors    bool
	EnableInputSanitization bool
}

// DefaultConfig returns the restrictive default configuration.
func DefaultConfig() Config {
	return Config{
		MaxQueryDepth:           DefaultMaxQueryDepth,
		MaxArraySize:            DefaultMaxArraySize,
		MaxBulkOperations:       DefaultMaxBulkOperations,
		MaxDocumentSize:         DefaultMaxDocumentSize,
		MaxQueryStringLength:    DefaultMaxQueryStringLength,
		MaxQueryComplexity:      DefaultMaxQueryComplexity,
		EnableInputSanitization: true,
	}
}

// Gate applies a fixed Config. It is safe for concurrent use.
type Gate struct {
	cfg Config
}

// NewGate copies cfg; later changes to the caller's slices have no effect.
// Non-positive numeric limits fall back to the defaults, except
// MaxQueryDepth: 0 forbids any operator nesting and only a negative depth
// selects the default.
func NewGate(cfg Config) *Gate {
	def := DefaultConfig()
	if cfg.MaxQueryDepth < 0 {
		cfg.MaxQueryDepth = def.MaxQueryDepth
	}
	if cfg.MaxArraySize <= 0 {
		cfg.MaxArraySize = def.MaxArraySize
	}
	if cfg.MaxBulkOperations <= 0 {
		cfg.MaxBulkOperations = def.MaxBulkOperations
	}
	if cfg.MaxDocumentSize <= 0 {
		cfg.MaxDocumentSize = def.MaxDocumentSize
	}
	if cfg.MaxQueryStringLength <= 0 {
		cfg.MaxQueryStringLength = def.MaxQueryStringLength
	}
	if cfg.MaxQueryComplexity <= 0 {
		cfg.MaxQueryComplexity = def.MaxQueryComplexity
	}
	cfg.AllowedIndices = slices.Clone(cfg.AllowedIndices)
	cfg.AllowedRawMethods = slices.Clone(cfg.AllowedRawMethods)
	cfg.SearchableFields = slices.Clone(cfg.SearchableFields)
	return &Gate{cfg: cfg}
}

// Config returns a copy of the gate's configuration.
func (g *Gate) Config() Config {
	cfg := g.cfg
	cfg.AllowedIndices = slices.Clone(g.cfg.AllowedIndices)
	cfg.AllowedRawMethods = slices.Clone(g.cfg.AllowedRawMethods)
	cfg.SearchableFields = slices.Clone(g.cfg.SearchableFields)
	return cfg
}

// DetailedErrors reports whether error details may reach clients.
func (g *Gate) DetailedErrors() bool { return g.cfg.EnableDetailedErrors }

// SanitizeInput reports whether inputs should pass through SanitizeObject.
func (g *Gate) SanitizeInput() bool { return g.cfg.EnableInputSanitization }

// CheckDepth applies CheckDepth with the configured limit.
func (g *Gate) CheckDepth(q any) error { return CheckDepth(q, g.cfg.MaxQueryDepth) }

// CheckArraySize applies CheckArraySize with the configured limit.
func (g *Gate) CheckArraySize(items []any, field string) error {
	return CheckArraySize(items, field, g.cfg.MaxArraySize)
}

// CheckArrays applies CheckArrays with the configured limit.
func (g *Gate) CheckArrays(q any) error { return CheckArrays(q, g.cfg.MaxArraySize) }

// CheckBulkSize bounds the number of operations in one bulk call.
func (g *Gate) CheckBulkSize(n int) error { return CheckBulkSize(n, g.cfg.MaxBulkOperations) }

// CheckDocumentSize applies CheckDocumentSize with the configured limit.
func (g *Gate) CheckDocumentSize(doc any) error { return CheckDocumentSize(doc, g.cfg.MaxDocumentSize) }

// SanitizeQueryString applies SanitizeQueryString with the configured limit.
func (g *Gate) SanitizeQueryString(s string) (string, error) {
	return SanitizeQueryString(s, g.cfg.MaxQueryStringLength)
}

// CheckIndexName applies CheckIndexName with the configured allow-list.
func (g *Gate) CheckIndexName(requested, defaultIndex string) error {
	return CheckIndexName(requested, defaultIndex, g.cfg.AllowedIndices)
}

// CheckRawMethod applies CheckRawMethod with the configured allow-list.
func (g *Gate) CheckRawMethod(method string) error {
	return CheckRawMethod(method, g.cfg.AllowedRawMethods)
}

// CheckSearchableFields applies CheckSearchableFields with the configured allow-list.
func (g *Gate) CheckSearchableFields(fields []string) error {
	return CheckSearchableFields(fields, g.cfg.SearchableFields)
}

// CheckComplexity applies CheckComplexity with the configured budget.
func (g *Gate) CheckComplexity(q any) error { return CheckComplexity(q, g.cfg.MaxQueryComplexity) }
