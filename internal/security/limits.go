package security

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/kind"
)

// CheckArraySize fails when items holds more than maxSize elements.
func CheckArraySize(items []any, field string, maxSize int) error {
	if len(items) > maxSize {
		return &domain.LimitError{Kind: domain.LimitArraySize, Subject: field, Limit: maxSize, Actual: len(items)}
	}
	return nil
}

// CheckArrays applies CheckArraySize to every array reachable from q,
// naming each by its key path.
func CheckArrays(q any, maxSize int) error {
	return checkArrays(q, "query", maxSize)
}

func checkArrays(v any, path string, maxSize int) error {
	switch kind.Of(v) {
	case kind.Array:
		items, _ := kind.AsArray(v)
		if err := CheckArraySize(items, path, maxSize); err != nil {
			return err
		}
		for i, item := range items {
			if err := checkArrays(item, fmt.Sprintf("%s[%d]", path, i), maxSize); err != nil {
				return err
			}
		}
	case kind.Object:
		obj, _ := kind.AsObject(v)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if err := checkArrays(obj[k], k, maxSize); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckBulkSize fails when a bulk call carries more than maxOps operations.
func CheckBulkSize(n, maxOps int) error {
	if n > maxOps {
		return &domain.LimitError{Kind: domain.LimitBulkOperations, Subject: "bulk", Limit: maxOps, Actual: n}
	}
	return nil
}

// CheckDocumentSize fails when the JSON form of doc exceeds maxBytes.
func CheckDocumentSize(doc any, maxBytes int) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: document is not serializable: %w", domain.ErrBadRequest, err)
	}
	if len(b) > maxBytes {
		return &domain.LimitError{Kind: domain.LimitDocumentSize, Subject: "document", Limit: maxBytes, Actual: len(b)}
	}
	return nil
}
