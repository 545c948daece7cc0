package translate

import (
	"fmt"

	"github.com/kailas-cloud/esquery/internal/domain/kind"
	"github.com/kailas-cloud/esquery/internal/domain/query"
)

// Operator is a structural filter operator.
type Operator int

// Operator constants.
const (
	OpOr Operator = iota + 1
	OpAnd
	OpAll
	OpSQS
	OpNested
	OpExists
	OpMissing
	OpChild
	OpParent
)

var operatorKeys = map[string]Operator{
	"$or":      OpOr,
	"$and":     OpAnd,
	"$all":     OpAll,
	"$sqs":     OpSQS,
	"$nested":  OpNested,
	"$exists":  OpExists,
	"$missing": OpMissing,
	"$child":   OpChild,
	"$parent":  OpParent,
}

// LookupOperator resolves a filter key to a structural operator.
func LookupOperator(key string) (Operator, bool) {
	op, ok := operatorKeys[key]
	return op, ok
}

// OperatorKeys returns the recognized structural operator keys.
func OperatorKeys() []string {
	keys := make([]string, 0, len(operatorKeys))
	for k := range operatorKeys {
		keys = append(keys, k)
	}
	return keys
}

func (o Operator) String() string {
	for k, op := range operatorKeys {
		if op == o {
			return k
		}
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// apply dispatches one operator. Handlers that recurse pass depth+1.
func (t *Translator) apply(
	op Operator, value any, acc *query.Bool, idAlias string, maxDepth, depth int,
) (*query.Bool, error) {
	switch op {
	case OpOr:
		return t.or(value, acc, idAlias, maxDepth, depth)
	case OpAnd:
		return t.and(value, acc, idAlias, maxDepth, depth)
	case OpAll:
		return all(value, acc)
	case OpSQS:
		return t.sqs(value, acc)
	case OpNested:
		return t.nested(value, acc, idAlias, maxDepth, depth)
	case OpExists:
		return exists(value, acc, "$exists", query.Must)
	case OpMissing:
		return exists(value, acc, "$missing", query.MustNot)
	case OpChild:
		return t.join(value, acc, "$child", "has_child", "type", idAlias, maxDepth, depth)
	case OpParent:
		return t.join(value, acc, "$parent", "has_parent", "parent_type", idAlias, maxDepth, depth)
	default:
		return nil, fmt.Errorf("unhandled operator %s", op)
	}
}

// or appends every non-empty sub-query as a wrapped should clause and
// always sets minimum_should_match to 1.
func (t *Translator) or(value any, acc *query.Bool, idAlias string, maxDepth, depth int) (*query.Bool, error) {
	if _, err := kind.Assert(value, "$or", kind.Array); err != nil {
		return nil, err
	}
	items, _ := kind.AsArray(value)
	for _, item := range items {
		sub, err := t.TranslateDepth(item, idAlias, maxDepth, depth+1)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			acc.Add(query.Should, sub.Wrap())
		}
	}
	acc.SetMinimumShouldMatch(1)
	return acc, nil
}

// and concatenates every section of each sub-query into acc; the last
// sub-query carrying minimum_should_match wins.
func (t *Translator) and(value any, acc *query.Bool, idAlias string, maxDepth, depth int) (*query.Bool, error) {
	if _, err := kind.Assert(value, "$and", kind.Array); err != nil {
		return nil, err
	}
	items, _ := kind.AsArray(value)
	for _, item := range items {
		sub, err := t.TranslateDepth(item, idAlias, maxDepth, depth+1)
		if err != nil {
			return nil, err
		}
		acc.Merge(sub)
	}
	return acc, nil
}

func all(value any, acc *query.Bool) (*query.Bool, error) {
	if _, err := kind.Assert(value, "$all", kind.Boolean); err != nil {
		return nil, err
	}
	if b, _ := value.(bool); b {
		acc.Add(query.Must, query.MatchAll())
	}
	return acc, nil
}

func (t *Translator) sqs(value any, acc *query.Bool) (*query.Bool, error) {
	if _, err := kind.Assert(value, "$sqs", kind.Object); err != nil {
		return nil, err
	}
	obj, _ := kind.AsObject(value)

	fields, err := kind.AsStrings(obj["$fields"], "$sqs.$fields")
	if err != nil {
		return nil, err
	}
	if _, err = kind.Assert(obj["$query"], "$sqs.$query", kind.String); err != nil {
		return nil, err
	}
	q, err := t.sanitize(fmt.Sprint(obj["$query"]))
	if err != nil {
		return nil, err
	}

	operator := "or"
	if raw, ok := obj["$operator"]; ok && kind.Of(raw) != kind.Undefined {
		if _, err = kind.Assert(raw, "$sqs.$operator", kind.String); err != nil {
			return nil, err
		}
		operator = fmt.Sprint(raw)
	}

	acc.Add(query.Must, query.Clause{
		"simple_query_string": map[string]any{
			"fields":           fields,
			"query":            q,
			"default_operator": operator,
		},
	})
	return acc, nil
}

func (t *Translator) nested(value any, acc *query.Bool, idAlias string, maxDepth, depth int) (*query.Bool, error) {
	if _, err := kind.Assert(value, "$nested", kind.Object); err != nil {
		return nil, err
	}
	obj, _ := kind.AsObject(value)
	if _, err := kind.Assert(obj["$path"], "$nested.$path", kind.String); err != nil {
		return nil, err
	}

	sub, err := t.TranslateDepth(without(obj, "$path"), idAlias, maxDepth, depth+1)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return acc, nil
	}
	acc.Add(query.Must, query.Clause{
		"nested": map[string]any{
			"path":  fmt.Sprint(obj["$path"]),
			"query": sub.Wrap(),
		},
	})
	return acc, nil
}

func exists(value any, acc *query.Bool, name string, section query.Section) (*query.Bool, error) {
	fields, err := kind.AsStrings(value, name)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		acc.Add(section, query.Exists(f))
	}
	return acc, nil
}

// join handles $child and $parent: a relationship-scoped sub-query whose
// relation name is keyed as typeKey.
func (t *Translator) join(
	value any, acc *query.Bool, name, clauseType, typeKey, idAlias string, maxDepth, depth int,
) (*query.Bool, error) {
	if _, err := kind.Assert(value, name, kind.Object); err != nil {
		return nil, err
	}
	obj, _ := kind.AsObject(value)
	if _, err := kind.Assert(obj["$type"], name+".$type", kind.String); err != nil {
		return nil, err
	}

	sub, err := t.TranslateDepth(without(obj, "$type"), idAlias, maxDepth, depth+1)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return acc, nil
	}
	acc.Add(query.Must, query.Clause{
		clauseType: map[string]any{
			typeKey: fmt.Sprint(obj["$type"]),
			"query": sub.Wrap(),
		},
	})
	return acc, nil
}

func without(obj map[string]any, key string) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if k != key {
			out[k] = v
		}
	}
	return out
}
