package resultmap

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/kailas-cloud/esquery/internal/domain"
)

type searchResponse struct {
	Hits struct {
		Total any              `esq:"total"`
		Hits  []map[string]any `esq:"hits"`
	} `esq:"hits"`
}

type totalHits struct {
	Value    int    `esq:"value"`
	Relation string `esq:"relation"`
}

type bulkResponse struct {
	Errors bool             `esq:"errors"`
	Items  []map[string]any `esq:"items"`
}

type bulkItem struct {
	Create map[string]any `esq:"create"`
	Index  map[string]any `esq:"index"`
	Update map[string]any `esq:"update"`
	Delete map[string]any `esq:"delete"`
}

// decode copies an engine response into tgt. Numeric JSON values decode
// into int fields.
func decode(src, tgt any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "esq",
		WeaklyTypedInput: true,
		Result:           tgt,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(src); err != nil {
		return fmt.Errorf("%w: malformed engine response: %w", domain.ErrBadRequest, err)
	}
	return nil
}

// total reads hits.total in either the bare-number or {value, relation} form.
func total(v any) (int, error) {
	if v == nil {
		return 0, nil
	}
	if _, ok := v.(map[string]any); ok {
		var t totalHits
		if err := decode(v, &t); err != nil {
			return 0, err
		}
		return t.Value, nil
	}
	var n int
	if err := decode(v, &n); err != nil {
		return 0, err
	}
	return n, nil
}
