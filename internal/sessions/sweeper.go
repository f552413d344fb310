package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"review-simulator/internal/shared/telemetry"
)

// Sweeper periodically expires idle sessions.
type Sweeper struct {
	scheduler gocron.Scheduler
	manager   *Manager
	ttl       time.Duration
	interval  time.Duration

	stopOnce sync.Once
	stopErr  error
}

// NewSweeper schedules Manager.Sweep every interval. Call Start to begin running it.
func NewSweeper(manager *Manager, ttl, interval time.Duration) (*Sweeper, error) {
	if manager == nil {
		return nil, errors.New("nil session manager")
	}
	if ttl <= 0 || interval <= 0 {
		return nil, fmt.Errorf("sweeper ttl and interval must be positive (ttl=%s interval=%s)", ttl, interval)
	}
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(schedulerLogger{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	sw := &Sweeper{scheduler: s, manager: manager, ttl: ttl, interval: interval}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sw.runOnce),
		gocron.WithName("session-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	return sw, nil
}

// Start begins running the sweep job.
func (s *Sweeper) Start() {
	s.scheduler.Start()
	telemetry.Info("session.sweeper_started", map[string]any{
		"ttl":      s.ttl.String(),
		"interval": s.interval.String(),
	})
}

// Stop waits for a running sweep to finish and shuts the scheduler down.
// Later calls return the first call's result.
func (s *Sweeper) Stop() error {
	s.stopOnce.Do(func() {
		if err := s.scheduler.Shutdown(); err != nil {
			s.stopErr = fmt.Errorf("failed to shutdown scheduler: %w", err)
		}
	})
	return s.stopErr
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	if _, err := s.manager.Sweep(ctx, s.ttl); err != nil {
		telemetry.Error("session.sweep_failed", map[string]any{"error": err})
	}
}

// schedulerLogger routes gocron's logs through telemetry.
type schedulerLogger struct{}

func (schedulerLogger) Debug(msg string, args ...any) { telemetry.Debug(msg, pairs(args)) }
func (schedulerLogger) Info(msg string, args ...any)  { telemetry.Info(msg, pairs(args)) }
func (schedulerLogger) Warn(msg string, args ...any)  { telemetry.Warn(msg, pairs(args)) }
func (schedulerLogger) Error(msg string, args ...any) { telemetry.Error(msg, pairs(args)) }

func pairs(args []any) map[string]any {
	fields := make(map[string]any, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["value"] = args[i]
			break
		}
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return fields
}
