package security

import (
	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/kind"
)

// CheckDepth fails when any path through q nests deeper than maxDepth.
// $or/$and items and $nested/$child/$parent payloads add one level each,
// as does every plain object or array value.
func CheckDepth(q any, maxDepth int) error {
	return checkDepth(q, maxDepth, 0)
}

func checkDepth(v any, maxDepth, depth int) error {
	if depth > maxDepth {
		return &domain.DepthError{Max: maxDepth}
	}

	switch kind.Of(v) {
	case kind.Object:
		obj, _ := kind.AsObject(v)
		for key, value := range obj {
			var err error
			switch key {
			case "$or", "$and":
				if kind.Of(value) != kind.Array {
					continue
				}
				items, _ := kind.AsArray(value)
				for _, item := range items {
					if err = checkDepth(item, maxDepth, depth+1); err != nil {
						return err
					}
				}
			case "$nested", "$child", "$parent":
				err = checkDepth(value, maxDepth, depth+1)
			default:
				if isContainer(value) {
					err = checkDepth(value, maxDepth, depth+1)
				}
			}
			if err != nil {
				return err
			}
		}
	case kind.Array:
		items, _ := kind.AsArray(v)
		for _, item := range items {
			if !isContainer(item) {
				continue
			}
			if err := checkDepth(item, maxDepth, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func isContainer(v any) bool {
	k := kind.Of(v)
	return k == kind.Object || k == kind.Array
}
