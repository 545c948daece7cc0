package search

import (
	"github.com/kailas-cloud/esquery/internal/domain/query"
	"github.com/kailas-cloud/esquery/internal/resultmap"
)

// Translator converts a filter object into a bool query.
type Translator interface {
	Translate(filter any, idAlias string) (*query.Bool, error)
}

// Gate enforces the security limits on requests.
type Gate interface {
	CheckIndexName(requested, defaultIndex string) error
	CheckDepth(q any) error
	CheckComplexity(q any) error
	CheckArrays(q any) error
	CheckSearchableFields(fields []string) error
	CheckBulkSize(n int) error
	CheckDocumentSize(doc any) error
	CheckRawMethod(method string) error
	SanitizeInput() bool
}

// Mapper converts engine responses into documents.
type Mapper interface {
	MapGet(resp map[string]any) map[string]any
	MapFind(resp any) ([]map[string]any, error)
	MapPage(resp any, skip, limit int) (resultmap.Page, error)
	MapPatch(resp map[string]any) map[string]any
	MapBulkResponse(resp any) ([]map[string]any, error)
}
