package query

import (
	"reflect"

	goreflect "github.com/goccy/go-reflect"
)

// Clone returns a structurally independent copy of b. The nil sentinel
// clones to nil.
func (b *Bool) Clone() *Bool {
	if b == nil {
		return nil
	}
	out := &Bool{
		Must:    cloneClauses(b.Must),
		Filter:  cloneClauses(b.Filter),
		Should:  cloneClauses(b.Should),
		MustNot: cloneClauses(b.MustNot),
	}
	if b.MinimumShouldMatch != nil {
		out.SetMinimumShouldMatch(*b.MinimumShouldMatch)
	}
	return out
}

func cloneClauses(in []Clause) []Clause {
	if in == nil {
		return nil
	}
	out := make([]Clause, len(in))
	for i, c := range in {
		out[i] = cloneClause(c)
	}
	return out
}

func cloneClause(c Clause) Clause {
	if c == nil {
		return nil
	}
	out := make(Clause, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Bool:
		return t.Clone()
	case Clause:
		return cloneClause(t)
	case []Clause:
		return cloneClauses(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return cloneReflect(v)
	}
}

// cloneReflect copies typed slices, arrays and maps such as []int or
// map[string]string, keeping their type. Anything else is returned as is.
func cloneReflect(v any) any {
	rv := goreflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := goreflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := range rv.Len() {
			setCloned(out.Index(i), rv.Index(i))
		}
		return out.Interface()
	case reflect.Array:
		out := goreflect.New(rv.Type()).Elem()
		for i := range rv.Len() {
			setCloned(out.Index(i), rv.Index(i))
		}
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := goreflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			elem := goreflect.New(rv.Type().Elem()).Elem()
			setCloned(elem, goreflect.ToValue(iter.Value()))
			out.SetMapIndex(goreflect.ToValue(iter.Key()), elem)
		}
		return out.Interface()
	default:
		// scalars are immutable
		return v
	}
}

func setCloned(dst, src goreflect.Value) {
	if !src.CanInterface() {
		dst.Set(src)
		return
	}
	c := cloneValue(src.Interface())
	if c == nil {
		return
	}
	cv := goreflect.ValueOf(c)
	if !cv.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return
	}
	dst.Set(cv)
}
