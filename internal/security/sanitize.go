package security

import "github.com/kailas-cloud/esquery/internal/domain/kind"

// pollutingKeys are dropped at every level by SanitizeObject.
var pollutingKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// SanitizeObject rebuilds v without prototype-pollution key names at any
// depth. Maps and arrays are copied; every other value, structs such as
// time.Time included, is returned as is. v is never mutated.
func SanitizeObject(v any) any {
	switch kind.Of(v) {
	case kind.Object:
		if !kind.IsMap(v) {
			return v
		}
		obj, _ := kind.AsObject(v)
		return SanitizeMap(obj)
	case kind.Array:
		items, _ := kind.AsArray(v)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = SanitizeObject(item)
		}
		return out
	default:
		return v
	}
}

// SanitizeMap is SanitizeObject for a map.
func SanitizeMap(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if _, bad := pollutingKeys[k]; bad {
			continue
		}
		out[k] = SanitizeObject(v)
	}
	return out
}
