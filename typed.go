package esquery

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode converts a mapped document into T, matching fields by their json
// tags. Numbers decode leniently into any numeric kind.
func Decode[T any](doc map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, fmt.Errorf("decode: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		var zero T
		return zero, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

// DecodeAll converts every document into T.
func DecodeAll[T any](docs []map[string]any) ([]T, error) {
	out := make([]T, len(docs))
	for i, doc := range docs {
		item, err := Decode[T](doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out[i] = item
	}
	return out, nil
}

// GetAs maps a single-document get response into T.
func GetAs[T any](e *Engine, resp map[string]any) (T, error) {
	return Decode[T](e.mapper.MapGet(resp))
}

// FindAs maps every hit of a search response into T.
func FindAs[T any](e *Engine, resp any) ([]T, error) {
	docs, err := e.mapper.MapFind(resp)
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](docs)
}

// TypedPage is a Page whose documents are decoded into T.
type TypedPage[T any] struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Data  []T `json:"data"`
}

// PageAs maps a search response into a TypedPage.
func PageAs[T any](e *Engine, resp any, skip, limit int) (TypedPage[T], error) {
	page, err := e.mapper.MapPage(resp, skip, limit)
	if err != nil {
		return TypedPage[T]{}, err
	}
	data, err := DecodeAll[T](page.Data)
	if err != nil {
		return TypedPage[T]{}, err
	}
	return TypedPage[T]{Total: page.Total, Skip: page.Skip, Limit: page.Limit, Data: data}, nil
}
