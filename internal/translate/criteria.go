package translate

import (
	"github.com/kailas-cloud/esquery/internal/domain/kind"
	"github.com/kailas-cloud/esquery/internal/domain/query"
)

// criterion maps one per-field comparison key to its native clause.
type criterion struct {
	key     string
	section query.Section
	build   func(field string, value any) query.Clause
}

func rangeOp(op string) func(string, any) query.Clause {
	return func(field string, value any) query.Clause { return query.Range(field, op, value) }
}

func fieldOp(clauseType string) func(string, any) query.Clause {
	return func(field string, value any) query.Clause { return query.Field(clauseType, field, value) }
}

// criteria is ordered; a criteria object is applied in this order.
var criteria = []criterion{
	{"$nin", query.MustNot, query.Terms},
	{"$in", query.Filter, query.Terms},
	{"$gt", query.Filter, rangeOp("gt")},
	{"$gte", query.Filter, rangeOp("gte")},
	{"$lt", query.Filter, rangeOp("lt")},
	{"$lte", query.Filter, rangeOp("lte")},
	{"$ne", query.MustNot, query.Term},
	{"$prefix", query.Filter, fieldOp("prefix")},
	{"$wildcard", query.Filter, fieldOp("wildcard")},
	{"$regexp", query.Filter, fieldOp("regexp")},
	{"$match", query.Must, fieldOp("match")},
	{"$phrase", query.Must, fieldOp("match_phrase")},
	{"$phrase_prefix", query.Must, fieldOp("match_phrase_prefix")},
}

// CriteriaKeys returns the recognized per-field criterion keys.
func CriteriaKeys() []string {
	keys := make([]string, len(criteria))
	for i, c := range criteria {
		keys[i] = c.key
	}
	return keys
}

// translateCriteria appends one clause per recognized criterion of a
// field's criteria object. Unrecognized keys are ignored.
func translateCriteria(field string, obj map[string]any, acc *query.Bool) *query.Bool {
	for _, c := range criteria {
		value, ok := obj[c.key]
		if !ok {
			continue
		}
		acc.Add(c.section, c.build(field, value))
	}
	return acc
}

// translateTermEquality handles a bare value: a scalar becomes one filter
// term, an array one filter term per element.
func translateTermEquality(field string, value any, acc *query.Bool) *query.Bool {
	switch kind.Of(value) {
	case kind.Undefined:
		// an absent value constrains nothing, so the field adds no clause
		return acc
	case kind.Array:
		items, _ := kind.AsArray(value)
		for _, item := range items {
			acc.Add(query.Filter, query.Term(field, item))
		}
	default:
		acc.Add(query.Filter, query.Term(field, value))
	}
	return acc
}
