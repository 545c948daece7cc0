package security

import (
	"regexp"
	"slices"

	"github.com/kailas-cloud/esquery/internal/domain"
)

var boostSuffix = regexp.MustCompile(`\^\d+(\.\d+)?$`)

// CheckIndexName allows only defaultIndex when allowList is empty, and
// only members of allowList otherwise.
func CheckIndexName(requested, defaultIndex string, allowList []string) error {
	if len(allowList) == 0 {
		if requested == defaultIndex {
			return nil
		}
	} else if slices.Contains(allowList, requested) {
		return nil
	}
	return &domain.ForbiddenError{Resource: "index", Name: requested}
}

// CheckRawMethod disables raw calls entirely when allowList is empty and
// requires exact membership otherwise.
func CheckRawMethod(method string, allowList []string) error {
	if len(allowList) == 0 {
		return &domain.MethodError{Method: method, Disabled: true}
	}
	if !slices.Contains(allowList, method) {
		return &domain.MethodError{Method: method}
	}
	return nil
}

// CheckSearchableFields permits every field when allowList is empty.
// Otherwise each field, minus a trailing ^boost, must be listed.
func CheckSearchableFields(fields, allowList []string) error {
	if len(allowList) == 0 {
		return nil
	}
	for _, f := range fields {
		name := boostSuffix.ReplaceAllString(f, "")
		if !slices.Contains(allowList, name) {
			return &domain.ForbiddenError{Resource: "field", Name: name}
		}
	}
	return nil
}
