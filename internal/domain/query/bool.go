// Package query holds the native bool-query accumulator the translator
// builds: the must/filter/should/must_not clause sections of a search
// engine bool query.
package query

// Clause is a single native query clause, e.g. {"term": {"status": "active"}}.
type Clause map[string]any

// Section names one of the four clause sequences of a bool query.
type Section string

// Section constants.
const (
	Must    Section = "must"
	Filter  Section = "filter"
	Should  Section = "should"
	MustNot Section = "must_not"
)

// Bool is the native bool-query accumulator. A nil *Bool is the
// no-query sentinel, meaning "match everything".
type Bool struct {
	Must               []Clause `json:"must,omitempty"`
	Filter             []Clause `json:"filter,omitempty"`
	Should             []Clause `json:"should,omitempty"`
	MustNot            []Clause `json:"must_not,omitempty"`
	MinimumShouldMatch *int     `json:"minimum_should_match,omitempty"`
}

// New returns an empty accumulator.
func New() *Bool { return &Bool{} }

// Add appends a clause to the given section.
func (b *Bool) Add(s Section, c Clause) {
	switch s {
	case Must:
		b.Must = append(b.Must, c)
	case Filter:
		b.Filter = append(b.Filter, c)
	case Should:
		b.Should = append(b.Should, c)
	case MustNot:
		b.MustNot = append(b.MustNot, c)
	}
}

// Section returns the clauses of the given section.
func (b *Bool) Section(s Section) []Clause {
	switch s {
	case Must:
		return b.Must
	case Filter:
		return b.Filter
	case Should:
		return b.Should
	case MustNot:
		return b.MustNot
	}
	return nil
}

// SetMinimumShouldMatch sets minimum_should_match.
func (b *Bool) SetMinimumShouldMatch(n int) {
	b.MinimumShouldMatch = &n
}

// Merge concatenates every section of other onto b. A minimum_should_match
// carried by other overwrites b's value (last write wins).
func (b *Bool) Merge(other *Bool) {
	if other == nil {
		return
	}
	b.Must = append(b.Must, other.Must...)
	b.Filter = append(b.Filter, other.Filter...)
	b.Should = append(b.Should, other.Should...)
	b.MustNot = append(b.MustNot, other.MustNot...)
	if other.MinimumShouldMatch != nil {
		b.SetMinimumShouldMatch(*other.MinimumShouldMatch)
	}
}

// IsEmpty reports whether b carries nothing: no clause in any section and
// no minimum_should_match.
func (b *Bool) IsEmpty() bool {
	if b == nil {
		return true
	}
	return len(b.Must) == 0 && len(b.Filter) == 0 && len(b.Should) == 0 &&
		len(b.MustNot) == 0 && b.MinimumShouldMatch == nil
}

// OrNil returns nil for an empty accumulator and b otherwise.
func (b *Bool) OrNil() *Bool {
	if b.IsEmpty() {
		return nil
	}
	return b
}

// Wrap returns b as a {"bool": b} clause.
func (b *Bool) Wrap() Clause {
	return Clause{"bool": b}
}

// Term returns {"term": {field: value}}.
func Term(field string, value any) Clause {
	return Clause{"term": map[string]any{field: value}}
}

// Terms returns {"terms": {field: values}}.
func Terms(field string, values any) Clause {
	return Clause{"terms": map[string]any{field: values}}
}

// Range returns {"range": {field: {op: value}}}.
func Range(field, op string, value any) Clause {
	return Clause{"range": map[string]any{field: map[string]any{op: value}}}
}

// Field returns {clauseType: {field: value}} for prefix, wildcard, regexp,
// match and the phrase variants.
func Field(clauseType, field string, value any) Clause {
	return Clause{clauseType: map[string]any{field: value}}
}

// Exists returns {"exists": {"field": field}}.
func Exists(field string) Clause {
	return Clause{"exists": map[string]any{"field": field}}
}

// MatchAll returns {"match_all": {}}.
func MatchAll() Clause {
	return Clause{"match_all": map[string]any{}}
}
