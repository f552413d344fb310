package health

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

const defaultTimeout = 3 * time.Second

// Service runs dependency checks for the health endpoint.
type Service struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewService constructs a health service over named checks.
func NewService(checks map[string]Checker) *Service {
	return &Service{checks: checks, timeout: defaultTimeout}
}

// Report is the outcome of one health probe.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Status runs every check concurrently under a shared timeout. A check that
// fails or times out makes the whole report not OK.
func (s *Service) Status(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	// failures are recorded per check, so one failing check never cancels the others
	results := make([]error, len(names))
	var g errgroup.Group
	for i, name := range names {
		i := i
		check := s.checks[name]
		g.Go(func() error {
			results[i] = check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{OK: true, Checks: make(map[string]string, len(names))}
	for i, name := range names {
		if results[i] != nil {
			report.OK = false
			report.Checks[name] = results[i].Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
