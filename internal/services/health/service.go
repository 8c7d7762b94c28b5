package health

import (
	"context"
	"sort"
	"time"
)

const checkTimeout = 2 * time.Second

// Check probes one dependency; a nil error means healthy.
type Check func(ctx context.Context) error

// Service encapsulates health-related checks.
type Service struct {
	checks map[string]Check
}

// Report is the health payload. Degraded components are named in Failing;
// the service still answers requests through its fallbacks.
type Report struct {
	OK         bool              `json:"ok"`
	Components map[string]string `json:"components,omitempty"`
	Failing    []string          `json:"failing,omitempty"`
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: map[string]Check{}}
}

// Register adds a named check. Registering the same name twice replaces it.
func (s *Service) Register(name string, check Check) {
	if check == nil {
		return
	}
	s.checks[name] = check
}

// Status runs every check and reports per-component state. OK stays true
// while at least the process is serving; Failing lists unhealthy components.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{OK: true}
	if len(s.checks) == 0 {
		return report
	}
	report.Components = make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := check(checkCtx)
		cancel()
		if err != nil {
			report.Components[name] = "down"
			report.Failing = append(report.Failing, name)
			continue
		}
		report.Components[name] = "up"
	}
	sort.Strings(report.Failing)
	return report
}
