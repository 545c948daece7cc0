// Package search prepares engine requests from untrusted queries: it runs
// every security gate, translates the filter and maps responses back.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/kind"
	"github.com/kailas-cloud/esquery/internal/domain/query"
	"github.com/kailas-cloud/esquery/internal/logger"
	"github.com/kailas-cloud/esquery/internal/security"
)

// FindParams describes a find call.
type FindParams struct {
	Index    string
	Query    map[string]any
	Paginate bool
}

// SearchRequest is the engine search body built for a find call.
type SearchRequest struct {
	Index    string           `json:"index"`
	From     int              `json:"from"`
	Size     int              `json:"size"`
	Sort     []map[string]any `json:"sort,omitempty"`
	Source   []string         `json:"_source,omitempty"`
	Query    query.Clause     `json:"query,omitempty"`
	Paginate bool             `json:"paginate"`
}

// CountRequest is the engine count body.
type CountRequest struct {
	Index string       `json:"index"`
	Query query.Clause `json:"query,omitempty"`
}

// RawRequest is an allow-listed passthrough call. Method "indices.getMapping"
// splits into Namespace "indices" and Name "getMapping".
type RawRequest struct {
	Method    string         `json:"method"`
	Namespace string         `json:"namespace,omitempty"`
	Name      string         `json:"name"`
	Params    map[string]any `json:"params,omitempty"`
}

// Service prepares and validates requests.
type Service struct {
	translator      Translator
	gate            Gate
	mapper          Mapper
	idAlias         string
	defaultIndex    string
	defaultPageSize int
	maxPageSize     int
	rejections      *prometheus.CounterVec
}

// New creates a search service.
func New(translator Translator, gate Gate, mapper Mapper, defaultIndex string) *Service {
	return &Service{
		translator:      translator,
		gate:            gate,
		mapper:          mapper,
		defaultIndex:    defaultIndex,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// WithIDAlias sets the query field rewritten to the engine id field.
func (s *Service) WithIDAlias(alias string) *Service {
	s.idAlias = alias
	return s
}

// WithRejectionCounter counts rejected requests by reason.
func (s *Service) WithRejectionCounter(c *prometheus.CounterVec) *Service {
	s.rejections = c
	return s
}

// DefaultIndex returns the index used when a request names none.
func (s *Service) DefaultIndex() string { return s.defaultIndex }

// PrepareFind validates and translates a find call.
func (s *Service) PrepareFind(ctx context.Context, p FindParams) (SearchRequest, error) {
	index, err := s.index(ctx, p.Index)
	if err != nil {
		return SearchRequest{}, err
	}

	filters, clause, err := s.prepare(ctx, p.Query)
	if err != nil {
		return SearchRequest{}, err
	}

	return SearchRequest{
		Index:    index,
		From:     filters.Skip,
		Size:     filters.Limit,
		Sort:     filters.Sort,
		Source:   filters.Select,
		Query:    clause,
		Paginate: p.Paginate,
	}, nil
}

// PrepareCount validates and translates a count call. Directives are
// accepted and ignored.
func (s *Service) PrepareCount(ctx context.Context, index string, q map[string]any) (CountRequest, error) {
	index, err := s.index(ctx, index)
	if err != nil {
		return CountRequest{}, err
	}
	_, clause, err := s.prepare(ctx, q)
	if err != nil {
		return CountRequest{}, err
	}
	return CountRequest{Index: index, Query: clause}, nil
}

// ValidateBulk checks a bulk write and returns the documents to send,
// sanitized when input sanitization is enabled.
func (s *Service) ValidateBulk(ctx context.Context, index string, docs []map[string]any) ([]map[string]any, error) {
	if _, err := s.index(ctx, index); err != nil {
		return nil, err
	}
	if err := s.gate.CheckBulkSize(len(docs)); err != nil {
		return nil, s.reject(ctx, err)
	}

	out := make([]map[string]any, len(docs))
	for i, doc := range docs {
		if err := s.gate.CheckDocumentSize(doc); err != nil {
			return nil, s.reject(ctx, fmt.Errorf("document %d: %w", i, err))
		}
		if s.gate.SanitizeInput() {
			doc = security.SanitizeMap(doc)
		}
		out[i] = doc
	}
	return out, nil
}

// PrepareRaw checks a raw passthrough call against the method allow-list.
// A string "index" param must also pass the index allow-list.
func (s *Service) PrepareRaw(ctx context.Context, method string, params map[string]any) (RawRequest, error) {
	if err := s.gate.CheckRawMethod(method); err != nil {
		return RawRequest{}, s.reject(ctx, err)
	}
	if index, ok := params["index"].(string); ok {
		if _, err := s.index(ctx, index); err != nil {
			return RawRequest{}, err
		}
	}
	if s.gate.SanitizeInput() {
		params = security.SanitizeMap(params)
	}

	req := RawRequest{Method: method, Name: method, Params: params}
	if ns, name, ok := strings.Cut(method, "."); ok {
		req.Namespace, req.Name = ns, name
	}
	return req, nil
}

// MapGet maps a get response.
func (s *Service) MapGet(resp map[string]any) map[string]any {
	return s.mapper.MapGet(resp)
}

// MapPatch maps an update response.
func (s *Service) MapPatch(resp map[string]any) map[string]any {
	return s.mapper.MapPatch(resp)
}

// MapFind maps a search response into a page or a plain document list.
func (s *Service) MapFind(resp any, paginate bool, skip, limit int) (any, error) {
	if paginate {
		return s.mapper.MapPage(resp, skip, limit)
	}
	return s.mapper.MapFind(resp)
}

// MapBulk maps a bulk response.
func (s *Service) MapBulk(resp any) ([]map[string]any, error) {
	return s.mapper.MapBulkResponse(resp)
}

func (s *Service) index(ctx context.Context, requested string) (string, error) {
	if requested == "" {
		requested = s.defaultIndex
	}
	if err := s.gate.CheckIndexName(requested, s.defaultIndex); err != nil {
		return "", s.reject(ctx, err)
	}
	return requested, nil
}

// prepare runs the query gates in order, then translates. A nil clause
// means the query matches everything.
func (s *Service) prepare(ctx context.Context, q map[string]any) (Filters, query.Clause, error) {
	filters, filter, err := Prefilter(q, PrefilterOptions{
		DefaultLimit: s.defaultPageSize,
		MaxLimit:     s.maxPageSize,
		Sanitize:     s.gate.SanitizeInput(),
	})
	if err != nil {
		return Filters{}, nil, s.reject(ctx, err)
	}

	checks := []func(any) error{
		s.gate.CheckDepth,
		s.gate.CheckComplexity,
		s.gate.CheckArrays,
		s.checkSearchableFields,
	}
	for _, check := range checks {
		if err := check(filter); err != nil {
			return Filters{}, nil, s.reject(ctx, err)
		}
	}

	b, err := s.translator.Translate(filter, s.idAlias)
	if err != nil {
		return Filters{}, nil, s.reject(ctx, fmt.Errorf("translate query: %w", err))
	}
	if b == nil {
		return filters, nil, nil
	}
	return filters, b.Wrap(), nil
}

// checkSearchableFields checks the $fields of every $sqs reachable from q.
func (s *Service) checkSearchableFields(q any) error {
	switch kind.Of(q) {
	case kind.Object:
		obj, _ := kind.AsObject(q)
		for key, value := range obj {
			if key == "$sqs" {
				sqs, _ := kind.AsObject(value)
				if fields, err := kind.AsStrings(sqs["$fields"], "$sqs.$fields"); err == nil {
					if err := s.gate.CheckSearchableFields(fields); err != nil {
						return err
					}
				}
				continue
			}
			if err := s.checkSearchableFields(value); err != nil {
				return err
			}
		}
	case kind.Array:
		items, _ := kind.AsArray(q)
		for _, item := range items {
			if err := s.checkSearchableFields(item); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) reject(ctx context.Context, err error) error {
	reason := RejectionReason(err)
	if s.rejections != nil {
		s.rejections.WithLabelValues(reason).Inc()
	}
	logger.FromContext(ctx).Debug("Request rejected",
		zap.String("reason", reason),
		zap.Error(err),
	)
	return err
}

// RejectionReason returns the metrics label for a rejection error.
func RejectionReason(err error) string {
	var (
		kindErr       *domain.KindError
		depthErr      *domain.DepthError
		complexityErr *domain.ComplexityError
		limitErr      *domain.LimitError
		patternErr    *domain.PatternError
		forbiddenErr  *domain.ForbiddenError
		methodErr     *domain.MethodError
		paramErr      *domain.ParamError
	)
	switch {
	case errors.As(err, &kindErr):
		return "invalid_type"
	case errors.As(err, &depthErr):
		return "depth"
	case errors.As(err, &complexityErr):
		return "complexity"
	case errors.As(err, &limitErr):
		return string(limitErr.Kind)
	case errors.As(err, &patternErr):
		return "pattern"
	case errors.As(err, &forbiddenErr):
		return "forbidden_" + forbiddenErr.Resource
	case errors.As(err, &methodErr):
		return "method"
	case errors.As(err, &paramErr):
		return "param"
	default:
		return "other"
	}
}
