package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadRequest classifies malformed or over-limit input.
	ErrBadRequest = errors.New("bad request")
	// ErrForbidden classifies well-formed requests outside an allow-list.
	ErrForbidden = errors.New("forbidden")
	// ErrMethodNotAllowed classifies disabled or unlisted raw methods.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// DetailedError is implemented by every typed error of the query core.
// Details carries the structured context; Public is the message shown
// when detailed errors are disabled.
type DetailedError interface {
	error
	Details() map[string]any
	Public() string
}

// KindError reports a value whose kind is not one of the expected kinds.
type KindError struct {
	Field    string
	Expected []string
	Actual   string
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s should be one of [%s], got %s", e.Field, strings.Join(e.Expected, ", "), e.Actual)
}

func (e *KindError) Unwrap() error { return ErrBadRequest }

// Details returns the structured error context.
func (e *KindError) Details() map[string]any {
	return map[string]any{"field": e.Field, "expected": e.Expected, "actual": e.Actual}
}

// Public returns the generic message.
func (e *KindError) Public() string { return "invalid query" }

// DepthError reports a query nested deeper than the configured maximum.
type DepthError struct {
	Max int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("query nesting exceeds maximum depth of %d", e.Max)
}

func (e *DepthError) Unwrap() error { return ErrBadRequest }

// Details returns the structured error context.
func (e *DepthError) Details() map[string]any { return map[string]any{"max_depth": e.Max} }

// Public returns the generic message.
func (e *DepthError) Public() string { return "query is too deeply nested" }

// ComplexityError reports a query whose cost exceeds the budget.
type ComplexityError struct {
	Score int
	Max   int
}

func (e *ComplexityError) Error() string {
	return fmt.Sprintf("query complexity (%d) exceeds maximum allowed (%d)", e.Score, e.Max)
}

func (e *ComplexityError) Unwrap() error { return ErrBadRequest }

// Details returns the structured error context.
func (e *ComplexityError) Details() map[string]any {
	return map[string]any{"complexity": e.Score, "max_complexity": e.Max}
}

// Public returns the generic message.
func (e *ComplexityError) Public() string { return "query is too complex" }

// LimitKind names the bound a LimitError refers to.
type LimitKind string

const (
	// LimitArraySize bounds the number of array items.
	LimitArraySize LimitKind = "array_size"
	// LimitDocumentSize bounds the serialized document size in bytes.
	LimitDocumentSize LimitKind = "document_size"
	// LimitQueryString bounds the query string length.
	LimitQueryString LimitKind = "query_string_length"
	// LimitBulkOperations bounds the number of operations in one bulk call.
	LimitBulkOperations LimitKind = "bulk_operations"
)

// LimitError reports an array, document or string over its configured bound.
type LimitError struct {
	Kind    LimitKind
	Subject string
	Limit   int
	Actual  int
}

func (e *LimitError) Error() string {
	switch e.Kind {
	case LimitArraySize:
		return fmt.Sprintf("array '%s' exceeds maximum size of %d items", e.Subject, e.Limit)
	case LimitDocumentSize:
		return fmt.Sprintf("document size (%d bytes) exceeds maximum allowed size (%d bytes)", e.Actual, e.Limit)
	case LimitQueryString:
		return fmt.Sprintf("query string exceeds maximum length of %d characters", e.Limit)
	case LimitBulkOperations:
		return fmt.Sprintf("bulk operation count (%d) exceeds maximum of %d", e.Actual, e.Limit)
	default:
		return fmt.Sprintf("%s exceeds limit of %d", e.Subject, e.Limit)
	}
}

func (e *LimitError) Unwrap() error { return ErrBadRequest }

// Details returns the structured error context.
func (e *LimitError) Details() map[string]any {
	return map[string]any{"limit_kind": string(e.Kind), "subject": e.Subject, "limit": e.Limit, "actual": e.Actual}
}

// Public returns the generic message.
func (e *LimitError) Public() string { return "request exceeds a size limit" }

// PatternError reports a query string matching a catastrophic-backtracking shape.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string { return "query string contains potentially dangerous pattern" }

func (e *PatternError) Unwrap() error { return ErrBadRequest }

// Details returns the structured error context.
func (e *PatternError) Details() map[string]any { return map[string]any{"pattern": e.Pattern} }

// Public returns the generic message.
func (e *PatternError) Public() string { return "invalid query string" }

// ForbiddenError reports an index or field outside its allow-list.
type ForbiddenError struct {
	Resource string // "index" or "field"
	Name     string
}

func (e *ForbiddenError) Error() string {
	if e.Resource == "field" {
		return fmt.Sprintf("field '%s' is not searchable", e.Name)
	}
	return fmt.Sprintf("access to %s '%s' is not allowed", e.Resource, e.Name)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// Details returns the structured error context.
func (e *ForbiddenError) Details() map[string]any {
	return map[string]any{"resource": e.Resource, "name": e.Name}
}

// Public returns the generic message.
func (e *ForbiddenError) Public() string { return "access denied" }

// MethodError reports a raw method that is disabled or not allow-listed.
type MethodError struct {
	Method   string
	Disabled bool
}

func (e *MethodError) Error() string {
	if e.Disabled {
		return "raw method execution is disabled"
	}
	return fmt.Sprintf("raw method '%s' is not allowed", e.Method)
}

func (e *MethodError) Unwrap() error { return ErrMethodNotAllowed }

// Details returns the structured error context.
func (e *MethodError) Details() map[string]any {
	return map[string]any{"method": e.Method, "disabled": e.Disabled}
}

// Public returns the generic message.
func (e *MethodError) Public() string { return "method not allowed" }

// ParamError reports an unrecognized or malformed top-level query parameter.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid query parameter %s: %s", e.Param, e.Reason)
	}
	return "invalid query parameter " + e.Param
}

func (e *ParamError) Unwrap() error { return ErrBadRequest }

// Details returns the structured error context.
func (e *ParamError) Details() map[string]any {
	return map[string]any{"param": e.Param, "reason": e.Reason}
}

// Public returns the generic message.
func (e *ParamError) Public() string { return "invalid query parameter" }
