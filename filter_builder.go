package esquery

// FilterBuilder is a fluent builder for filter objects. Conditions on the
// same field merge into one criteria object; $or and $and accumulate.
type FilterBuilder struct {
	filter map[string]any
}

// Filter starts an empty filter.
func Filter() *FilterBuilder {
	return &FilterBuilder{filter: make(map[string]any)}
}

// Eq matches field exactly. A slice value matches every element.
func (b *FilterBuilder) Eq(field string, value any) *FilterBuilder {
	b.filter[field] = value
	return b
}

// In matches field against any of values.
func (b *FilterBuilder) In(field string, values ...any) *FilterBuilder {
	return b.criterion(field, "$in", values)
}

// NotIn excludes every one of values.
func (b *FilterBuilder) NotIn(field string, values ...any) *FilterBuilder {
	return b.criterion(field, "$nin", values)
}

// Ne excludes value.
func (b *FilterBuilder) Ne(field string, value any) *FilterBuilder {
	return b.criterion(field, "$ne", value)
}

// Gt adds a range lower bound, exclusive.
func (b *FilterBuilder) Gt(field string, value any) *FilterBuilder {
	return b.criterion(field, "$gt", value)
}

// Gte adds a range lower bound, inclusive.
func (b *FilterBuilder) Gte(field string, value any) *FilterBuilder {
	return b.criterion(field, "$gte", value)
}

// Lt adds a range upper bound, exclusive.
func (b *FilterBuilder) Lt(field string, value any) *FilterBuilder {
	return b.criterion(field, "$lt", value)
}

// Lte adds a range upper bound, inclusive.
func (b *FilterBuilder) Lte(field string, value any) *FilterBuilder {
	return b.criterion(field, "$lte", value)
}

// Prefix matches a term prefix.
func (b *FilterBuilder) Prefix(field, prefix string) *FilterBuilder {
	return b.criterion(field, "$prefix", prefix)
}

// Wildcard matches a wildcard pattern.
func (b *FilterBuilder) Wildcard(field, pattern string) *FilterBuilder {
	return b.criterion(field, "$wildcard", pattern)
}

// Regexp matches a regular expression.
func (b *FilterBuilder) Regexp(field, pattern string) *FilterBuilder {
	return b.criterion(field, "$regexp", pattern)
}

// Match adds a full-text match.
func (b *FilterBuilder) Match(field string, text any) *FilterBuilder {
	return b.criterion(field, "$match", text)
}

// Phrase adds a phrase match.
func (b *FilterBuilder) Phrase(field, text string) *FilterBuilder {
	return b.criterion(field, "$phrase", text)
}

// PhrasePrefix adds a phrase-prefix match.
func (b *FilterBuilder) PhrasePrefix(field, text string) *FilterBuilder {
	return b.criterion(field, "$phrase_prefix", text)
}

// Exists requires every field to be present.
func (b *FilterBuilder) Exists(fields ...string) *FilterBuilder {
	return b.fields("$exists", fields)
}

// Missing requires every field to be absent.
func (b *FilterBuilder) Missing(fields ...string) *FilterBuilder {
	return b.fields("$missing", fields)
}

// All matches every document.
func (b *FilterBuilder) All() *FilterBuilder {
	b.filter["$all"] = true
	return b
}

// Or requires at least one of subs to match.
func (b *FilterBuilder) Or(subs ...*FilterBuilder) *FilterBuilder {
	return b.list("$or", subs)
}

// And requires every one of subs to match.
func (b *FilterBuilder) And(subs ...*FilterBuilder) *FilterBuilder {
	return b.list("$and", subs)
}

// SimpleQueryString adds a simple_query_string search over fields with the
// default "or" operator.
func (b *FilterBuilder) SimpleQueryString(query string, fields ...string) *FilterBuilder {
	b.filter["$sqs"] = map[string]any{"$query": query, "$fields": fields}
	return b
}

// Nested scopes sub to the nested object at path.
func (b *FilterBuilder) Nested(path string, sub *FilterBuilder) *FilterBuilder {
	return b.scoped("$nested", "$path", path, sub)
}

// Child matches parents having a child of relation typ matching sub.
func (b *FilterBuilder) Child(typ string, sub *FilterBuilder) *FilterBuilder {
	return b.scoped("$child", "$type", typ, sub)
}

// Parent matches children whose parent of relation typ matches sub.
func (b *FilterBuilder) Parent(typ string, sub *FilterBuilder) *FilterBuilder {
	return b.scoped("$parent", "$type", typ, sub)
}

// Sort orders results by field. Calls accumulate.
func (b *FilterBuilder) Sort(field string, desc bool) *FilterBuilder {
	sort, _ := b.filter["$sort"].(map[string]any)
	if sort == nil {
		sort = make(map[string]any)
		b.filter["$sort"] = sort
	}
	dir := 1
	if desc {
		dir = -1
	}
	sort[field] = dir
	return b
}

// Limit sets the page size.
func (b *FilterBuilder) Limit(n int) *FilterBuilder {
	b.filter["$limit"] = n
	return b
}

// Skip sets the page offset.
func (b *FilterBuilder) Skip(n int) *FilterBuilder {
	b.filter["$skip"] = n
	return b
}

// Select restricts the returned source fields.
func (b *FilterBuilder) Select(fields ...string) *FilterBuilder {
	b.filter["$select"] = toAny(fields)
	return b
}

// Build returns the filter object. The builder can keep being used.
func (b *FilterBuilder) Build() map[string]any {
	return cloneFilter(b.filter)
}

func (b *FilterBuilder) criterion(field, op string, value any) *FilterBuilder {
	crit, ok := b.filter[field].(map[string]any)
	if !ok {
		crit = make(map[string]any)
		b.filter[field] = crit
	}
	crit[op] = value
	return b
}

func (b *FilterBuilder) fields(op string, fields []string) *FilterBuilder {
	existing, _ := b.filter[op].([]any)
	b.filter[op] = append(existing, toAny(fields)...)
	return b
}

func (b *FilterBuilder) list(op string, subs []*FilterBuilder) *FilterBuilder {
	items, _ := b.filter[op].([]any)
	for _, sub := range subs {
		items = append(items, sub.Build())
	}
	b.filter[op] = items
	return b
}

func (b *FilterBuilder) scoped(op, key, name string, sub *FilterBuilder) *FilterBuilder {
	obj := sub.Build()
	obj[key] = name
	b.filter[op] = obj
	return b
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func cloneFilter(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case map[string]any:
			out[k] = cloneFilter(t)
		case []any:
			items := make([]any, len(t))
			for i, item := range t {
				if sub, ok := item.(map[string]any); ok {
					item = cloneFilter(sub)
				}
				items[i] = item
			}
			out[k] = items
		default:
			out[k] = v
		}
	}
	return out
}
