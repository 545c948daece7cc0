package search

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/kind"
	"github.com/kailas-cloud/esquery/internal/security"
	"github.com/kailas-cloud/esquery/internal/translate"
)

// Directive keys split from a query before translation.
const (
	DirectiveSort   = "$sort"
	DirectiveLimit  = "$limit"
	DirectiveSkip   = "$skip"
	DirectiveSelect = "$select"
)

var directives = []string{DirectiveSort, DirectiveLimit, DirectiveSkip, DirectiveSelect}

// Filters are the directives of a query.
type Filters struct {
	Sort   []map[string]any
	Limit  int
	Skip   int
	Select []string
}

// PrefilterOptions configures Prefilter.
type PrefilterOptions struct {
	DefaultLimit int
	MaxLimit     int
	Sanitize     bool
}

// Prefilter splits the directives from params and returns them with the
// remaining filter object. A top-level $ key that is neither a directive
// nor a structural operator is rejected. params is not modified.
func Prefilter(params map[string]any, opts PrefilterOptions) (Filters, map[string]any, error) {
	f := Filters{Limit: opts.DefaultLimit}
	rest := make(map[string]any, len(params))

	for key, value := range params {
		if !kind.IsOperator(key) {
			rest[key] = value
			continue
		}
		if !slices.Contains(directives, key) {
			if _, ok := translate.LookupOperator(key); !ok {
				return Filters{}, nil, &domain.ParamError{Param: key}
			}
			rest[key] = value
			continue
		}

		var err error
		switch key {
		case DirectiveSort:
			f.Sort, err = parseSort(value)
		case DirectiveLimit:
			f.Limit, err = parseCount(key, value)
		case DirectiveSkip:
			f.Skip, err = parseCount(key, value)
		case DirectiveSelect:
			f.Select, err = kind.AsStrings(value, key)
		}
		if err != nil {
			return Filters{}, nil, err
		}
	}

	if opts.MaxLimit > 0 && f.Limit > opts.MaxLimit {
		f.Limit = opts.MaxLimit
	}
	if opts.Sanitize {
		rest = security.SanitizeMap(rest)
	}
	return f, rest, nil
}

// parseSort turns {field: 1|-1} into [{field: {order: asc|desc}}], fields
// ordered by name.
func parseSort(v any) ([]map[string]any, error) {
	if _, err := kind.Assert(v, DirectiveSort, kind.Object); err != nil {
		return nil, err
	}
	obj, _ := kind.AsObject(v)
	fields := make([]string, 0, len(obj))
	for field := range obj {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	out := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		dir, err := parseCountSigned(DirectiveSort, obj[field])
		if err != nil {
			return nil, err
		}
		order := "asc"
		switch {
		case dir < 0:
			order = "desc"
		case dir == 0:
			return nil, &domain.ParamError{Param: DirectiveSort, Reason: fmt.Sprintf("direction for %s must be 1 or -1", field)}
		}
		out = append(out, map[string]any{field: map[string]any{"order": order}})
	}
	return out, nil
}

func parseCount(param string, v any) (int, error) {
	n, err := parseCountSigned(param, v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &domain.ParamError{Param: param, Reason: "must not be negative"}
	}
	return n, nil
}

// parseCountSigned accepts integral numbers and numeric strings, the
// latter as they arrive from URL query strings.
func parseCountSigned(param string, v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, &domain.ParamError{Param: param, Reason: "must be an integer"}
		}
		return int(t), nil
	case json.Number:
		n, err := strconv.Atoi(t.String())
		if err != nil {
			return 0, &domain.ParamError{Param: param, Reason: "must be an integer"}
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, &domain.ParamError{Param: param, Reason: "must be an integer"}
		}
		return n, nil
	default:
		return 0, &domain.ParamError{Param: param, Reason: "must be an integer"}
	}
}
