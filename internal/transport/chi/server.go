// Package chi exposes the query core over HTTP. Every handler validates and
// translates; none of them talks to a search engine.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/esquery/internal/logger"
	"github.com/kailas-cloud/esquery/internal/metrics"
	healthuc "github.com/kailas-cloud/esquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 16 << 20

// Result kinds accepted by POST /v1/results:map.
const (
	ResultKindGet   = "get"
	ResultKindFind  = "find"
	ResultKindPatch = "patch"
	ResultKindBulk  = "bulk"
)

// Server serves the esquery HTTP API.
type Server struct {
	search         *searchuc.Service
	health         *healthuc.Service
	base           *zap.Logger
	detailedErrors bool
	maxBodyBytes   int64
	errorHandlers  []errorHandler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithDetailedErrors passes full error messages and details to clients.
func WithDetailedErrors(enabled bool) ServerOption {
	return func(s *Server) { s.detailedErrors = enabled }
}

// WithMaxBodyBytes bounds request bodies. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:        search,
		health:        health,
		base:          logger,
		maxBodyBytes:  DefaultMaxBodyBytes,
		errorHandlers: defaultErrorHandlers,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search:translate", s.TranslateSearch)
		r.Post("/count:translate", s.TranslateCount)
		r.Post("/bulk:validate", s.ValidateBulk)
		r.Post("/raw/{method}:validate", s.ValidateRaw)
		r.Post("/results:map", s.MapResults)
	})
}

// NewRouter builds the full middleware chain around the API.
func NewRouter(s *Server, apiKeys []string) chi.Router {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.base))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.base))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})
	s.Routes(r)
	return r
}

type searchBody struct {
	Index    string         `json:"index"`
	Query    map[string]any `json:"query"`
	Paginate bool           `json:"paginate"`
}

type bulkBody struct {
	Index     string           `json:"index"`
	Documents []map[string]any `json:"documents"`
}

type bulkResponse struct {
	Index     string           `json:"index"`
	Count     int              `json:"count"`
	Documents []map[string]any `json:"documents"`
}

type mapBody struct {
	Kind     string `json:"kind"`
	Response any    `json:"response"`
	Paginate bool   `json:"paginate"`
	Skip     int    `json:"skip"`
	Limit    int    `json:"limit"`
}

// TranslateSearch handles POST /v1/search:translate.
func (s *Server) TranslateSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if !s.decode(w, r, &body) {
		return
	}
	req, err := s.search.PrepareFind(r.Context(), searchuc.FindParams{
		Index:    body.Index,
		Query:    body.Query,
		Paginate: body.Paginate,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// TranslateCount handles POST /v1/count:translate.
func (s *Server) TranslateCount(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if !s.decode(w, r, &body) {
		return
	}
	req, err := s.search.PrepareCount(r.Context(), body.Index, body.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ValidateBulk handles POST /v1/bulk:validate.
func (s *Server) ValidateBulk(w http.ResponseWriter, r *http.Request) {
	var body bulkBody
	if !s.decode(w, r, &body) {
		return
	}
	docs, err := s.search.ValidateBulk(r.Context(), body.Index, body.Documents)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	index := body.Index
	if index == "" {
		index = s.search.DefaultIndex()
	}
	writeJSON(w, http.StatusOK, bulkResponse{Index: index, Count: len(docs), Documents: docs})
}

// ValidateRaw handles POST /v1/raw/{method}:validate.
func (s *Server) ValidateRaw(w http.ResponseWriter, r *http.Request) {
	var params map[string]any
	if !s.decode(w, r, &params) {
		return
	}
	req, err := s.search.PrepareRaw(r.Context(), chi.URLParam(r, "method"), params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// MapResults handles POST /v1/results:map.
func (s *Server) MapResults(w http.ResponseWriter, r *http.Request) {
	var body mapBody
	if !s.decode(w, r, &body) {
		return
	}

	switch body.Kind {
	case ResultKindGet, ResultKindPatch:
		resp, ok := body.Response.(map[string]any)
		if !ok {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "response must be an object")
			return
		}
		if body.Kind == ResultKindGet {
			writeJSON(w, http.StatusOK, s.search.MapGet(resp))
		} else {
			writeJSON(w, http.StatusOK, s.search.MapPatch(resp))
		}
	case ResultKindFind:
		out, err := s.search.MapFind(body.Response, body.Paginate, body.Skip, body.Limit)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	case ResultKindBulk:
		out, err := s.search.MapBulk(body.Response)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	default:
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			fmt.Sprintf("unknown result kind %q", body.Kind))
	}
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// decode reads a JSON body into v, keeping numbers as json.Number so that
// integer literals survive into term clauses unchanged.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, CodeBadRequest, "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		}
		return false
	}
	return true
}

func (s *Server) logger(r *http.Request) *zap.Logger {
	if l, ok := logpkg.Lookup(r.Context()); ok {
		return l
	}
	return s.base
}
