package health

import (
	"context"
	"errors"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
	Cache  *CacheReport           `json:"cache,omitempty"`
}

// CacheReport is the cache section of a Report.
type CacheReport struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

var errProbeMismatch = errors.New("probe translated to an unexpected query")

// probeFilter must translate to exactly one match_all must clause.
var probeFilter = map[string]any{"$all": true}

// Service coordinates health checks.
type Service struct {
	translator Translator
	cache      CacheReporter
}

// New creates a Service. cache can be nil.
func New(translator Translator, cache CacheReporter) *Service {
	return &Service{translator: translator, cache: cache}
}

// Check probes the translator and reports cache counters. A failing
// translator makes the service unhealthy.
func (s *Service) Check(_ context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.probe(); err != nil {
		checks["translator"] = CheckError
		status = Unhealthy
	} else {
		checks["translator"] = CheckOK
	}

	r := Report{Status: status, Checks: checks}
	if s.cache != nil {
		st := s.cache.Stats()
		checks["cache"] = CheckOK
		r.Cache = &CacheReport{Entries: st.Entries, Hits: st.Hits, Misses: st.Misses, Evictions: st.Evictions}
	}
	return r
}

func (s *Service) probe() error {
	b, err := s.translator.Translate(probeFilter, "")
	if err != nil {
		return err
	}
	if b == nil || len(b.Must) != 1 || len(b.Filter)+len(b.Should)+len(b.MustNot) != 0 {
		return errProbeMismatch
	}
	if _, ok := b.Must[0]["match_all"]; !ok {
		return errProbeMismatch
	}
	return nil
}
