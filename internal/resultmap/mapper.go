// Package resultmap turns native engine responses into the flat document
// shape handed to callers: source fields at the top level, the id under an
// alias and every other hit attribute under a metadata field.
package resultmap

import (
	"fmt"

	"github.com/kailas-cloud/esquery/internal/domain"
)

// Defaults for Options.
const (
	DefaultIDAlias   = "id"
	DefaultMetaField = "_meta"
)

const (
	sourceField = "_source"
	idField     = "_id"
	parentField = "_parent"
)

// Options names the document fields the mapper writes.
type Options struct {
	// IDAlias receives the hit's _id. Empty disables aliasing.
	IDAlias string
	// MetaField receives every hit attribute except _source.
	MetaField string
	// JoinField is a join-relation source field unwrapped to its name,
	// with its parent recorded as _parent in the metadata. Empty disables.
	JoinField string
}

// Page is a paginated find result.
type Page struct {
	Total int              `json:"total"`
	Skip  int              `json:"skip"`
	Limit int              `json:"limit"`
	Data  []map[string]any `json:"data"`
}

// Mapper maps engine responses. It holds no state besides its options.
type Mapper struct {
	opts Options
}

// New creates a Mapper. An empty MetaField falls back to DefaultMetaField.
func New(opts Options) *Mapper {
	if opts.MetaField == "" {
		opts.MetaField = DefaultMetaField
	}
	return &Mapper{opts: opts}
}

// Options returns the mapper's options.
func (m *Mapper) Options() Options { return m.opts }

// MapItem maps one hit. The hit is not modified.
func (m *Mapper) MapItem(hit map[string]any) map[string]any {
	meta := make(map[string]any, len(hit))
	for k, v := range hit {
		if k != sourceField {
			meta[k] = v
		}
	}

	doc := map[string]any{m.opts.MetaField: meta}
	if source, ok := hit[sourceField].(map[string]any); ok {
		for k, v := range source {
			doc[k] = v
		}
	}

	if m.opts.IDAlias != "" {
		if id, ok := meta[idField]; ok {
			doc[m.opts.IDAlias] = id
		}
	}

	if m.opts.JoinField != "" {
		if join, ok := doc[m.opts.JoinField].(map[string]any); ok {
			meta[parentField] = join["parent"]
			doc[m.opts.JoinField] = join["name"]
		}
	}
	return doc
}

// MapGet maps a single-document get response.
func (m *Mapper) MapGet(resp map[string]any) map[string]any {
	return m.MapItem(resp)
}

// MapFind maps every hit of a search response.
func (m *Mapper) MapFind(resp any) ([]map[string]any, error) {
	var sr searchResponse
	if err := decode(resp, &sr); err != nil {
		return nil, err
	}
	data := make([]map[string]any, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		data[i] = m.MapItem(hit)
	}
	return data, nil
}

// MapPage maps a search response into a Page carrying hits.total and the
// skip and limit the search was issued with.
func (m *Mapper) MapPage(resp any, skip, limit int) (Page, error) {
	var sr searchResponse
	if err := decode(resp, &sr); err != nil {
		return Page{}, err
	}
	n, err := total(sr.Hits.Total)
	if err != nil {
		return Page{}, err
	}
	data := make([]map[string]any, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		data[i] = m.MapItem(hit)
	}
	return Page{Total: n, Skip: skip, Limit: limit, Data: data}, nil
}

// MapPatch maps an update response whose document sits under get._source.
func (m *Mapper) MapPatch(resp map[string]any) map[string]any {
	item := make(map[string]any, len(resp))
	for k, v := range resp {
		if k != "get" {
			item[k] = v
		}
	}
	if get, ok := resp["get"].(map[string]any); ok {
		item[sourceField] = get[sourceField]
	}
	return m.MapItem(item)
}

// MapBulk maps the items of a bulk response. Update items go through
// MapPatch; create, index and delete items through MapItem.
func (m *Mapper) MapBulk(items []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, len(items))
	for i, raw := range items {
		var it bulkItem
		if err := decode(raw, &it); err != nil {
			return nil, err
		}
		switch {
		case it.Update != nil:
			out[i] = m.MapPatch(it.Update)
		case it.Create != nil:
			out[i] = m.MapItem(it.Create)
		case it.Index != nil:
			out[i] = m.MapItem(it.Index)
		case it.Delete != nil:
			out[i] = m.MapItem(it.Delete)
		default:
			return nil, fmt.Errorf("%w: bulk item %d carries no operation", domain.ErrBadRequest, i)
		}
	}
	return out, nil
}

// MapBulkResponse maps a full bulk response envelope ({errors, items}).
func (m *Mapper) MapBulkResponse(resp any) ([]map[string]any, error) {
	var br bulkResponse
	if err := decode(resp, &br); err != nil {
		return nil, err
	}
	return m.MapBulk(br.Items)
}
