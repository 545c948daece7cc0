// Package kind classifies untrusted filter values into the small set of
// semantic kinds the query core makes structural decisions on.
package kind

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	goreflect "github.com/goccy/go-reflect"

	"github.com/kailas-cloud/esquery/internal/domain"
)

// Kind is the semantic kind of a filter value.
type Kind string

// Kind constants.
const (
	Number     Kind = "number"
	String     Kind = "string"
	Boolean    Kind = "boolean"
	Null       Kind = "null"
	Undefined  Kind = "undefined"
	Array      Kind = "array"
	Object     Kind = "object"
	NotANumber Kind = "NaN"
)

type undefined struct{}

// MarshalJSON renders the undefined value as null.
func (undefined) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// UndefinedValue stands for a declared but absent value. nil is null.
var UndefinedValue any = undefined{}

// Of classifies v. Arrays are checked before objects; NaN is never a number.
func Of(v any) Kind {
	switch t := v.(type) {
	case nil:
		return Null
	case undefined:
		return Undefined
	case bool:
		return Boolean
	case string:
		return String
	case float64:
		if math.IsNaN(t) {
			return NotANumber
		}
		return Number
	case float32:
		if math.IsNaN(float64(t)) {
			return NotANumber
		}
		return Number
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Number
	case json.Number:
		return Number
	case []any:
		return Array
	case map[string]any:
		return Object
	}
	return ofReflect(goreflect.ValueNoEscapeOf(v))
}

func ofReflect(rv goreflect.Value) Kind {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
		return ofReflect(rv.Elem())
	case reflect.Bool:
		return Boolean
	case reflect.String:
		return String
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number
	case reflect.Float32, reflect.Float64:
		if math.IsNaN(rv.Float()) {
			return NotANumber
		}
		return Number
	case reflect.Slice:
		if rv.IsNil() {
			return Null
		}
		return Array
	case reflect.Array:
		return Array
	case reflect.Map:
		if rv.IsNil() {
			return Null
		}
		return Object
	case reflect.Struct:
		return Object
	default:
		// functions, channels and the like serialize to nothing
		return Undefined
	}
}

// Assert classifies v and fails with a KindError unless the kind is allowed.
func Assert(v any, field string, allowed ...Kind) (Kind, error) {
	k := Of(v)
	for _, a := range allowed {
		if k == a {
			return k, nil
		}
	}
	expected := make([]string, len(allowed))
	for i, a := range allowed {
		expected[i] = string(a)
	}
	return k, &domain.KindError{Field: field, Expected: expected, Actual: string(k)}
}

// AsObject returns v as a string-keyed map. Typed maps are converted;
// non-map objects such as structs convert to an empty map.
func AsObject(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := goreflect.ValueNoEscapeOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			out[key.String()] = rv.MapIndex(key).Interface()
		}
		return out, true
	case reflect.Struct:
		return map[string]any{}, true
	default:
		return nil, false
	}
}

// AsArray returns v as []any. Typed slices and arrays are converted.
func AsArray(v any) ([]any, bool) {
	if a, ok := v.([]any); ok {
		return a, true
	}
	rv := goreflect.ValueNoEscapeOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// AsStrings returns v as []string, asserting that every element is a string.
func AsStrings(v any, field string) ([]string, error) {
	if _, err := Assert(v, field, Array); err != nil {
		return nil, err
	}
	items, _ := AsArray(v)
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			if Of(item) != String {
				return nil, &domain.KindError{
					Field:    field + "[" + strconv.Itoa(i) + "]",
					Expected: []string{string(String)},
					Actual:   string(Of(item)),
				}
			}
			s = goreflect.ValueNoEscapeOf(item).String()
		}
		out[i] = s
	}
	return out, nil
}

// IsOperator reports whether key carries the reserved operator marker.
func IsOperator(key string) bool {
	return strings.HasPrefix(key, "$")
}

// IsMap reports whether v is an object backed by a string-keyed map, as
// opposed to a struct such as time.Time.
func IsMap(v any) bool {
	if _, ok := v.(map[string]any); ok {
		return true
	}
	rv := goreflect.ValueNoEscapeOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
}
