package security

import "github.com/kailas-cloud/esquery/internal/domain/kind"

func asMap(v any) (map[string]any, bool) {
	if kind.Of(v) != kind.Object {
		return nil, false
	}
	return kind.AsObject(v)
}

func asSlice(v any) ([]any, bool) {
	if kind.Of(v) != kind.Array {
		return nil, false
	}
	return kind.AsArray(v)
}
