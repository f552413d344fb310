package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"review-simulator/internal/backend"
	"review-simulator/internal/shared/metrics"
	"review-simulator/internal/shared/telemetry"
	"review-simulator/internal/wizard"
)

// Manager keeps live wizard controllers and persists their state after every action.
type Manager struct {
	repo    Repo
	backend backend.Client
	now     func() time.Time

	mu   sync.Mutex
	live map[string]*wizard.Controller
}

// NewManager constructs a Manager. A nil clock uses time.Now.
func NewManager(repo Repo, client backend.Client, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		repo:    repo,
		backend: client,
		now:     now,
		live:    make(map[string]*wizard.Controller),
	}
}

// Create starts a session and hydrates it from the backend's current results.
// A failed hydration is not an error here: it is shown as the session's banner.
func (m *Manager) Create(ctx context.Context) (string, wizard.PhaseView, error) {
	id := uuid.NewString()
	ctrl := wizard.New(m.backend, wizard.WithID(id), wizard.WithClock(m.now))
	if err := ctrl.Hydrate(ctx); err != nil {
		telemetry.Warn("session.hydrate_failed", map[string]any{"session_id": id, "error": err})
	}

	now := m.now().UTC()
	session := Session{ID: id, State: ctrl.Snapshot(), CreatedAt: now, UpdatedAt: now}
	if err := m.repo.Create(context.WithoutCancel(ctx), session); err != nil {
		return "", wizard.PhaseView{}, fmt.Errorf("create session: %w", err)
	}
	m.track(id, ctrl)
	telemetry.Info("session.created", map[string]any{"session_id": id, "phase": session.State.Phase.String()})
	return id, ctrl.View(), nil
}

// View renders a session without changing it.
func (m *Manager) View(ctx context.Context, id string) (wizard.PhaseView, error) {
	ctrl, err := m.controller(ctx, id)
	if err != nil {
		return wizard.PhaseView{}, err
	}
	return ctrl.View(), nil
}

// Do runs fn against a session's controller and persists the resulting state,
// even when fn fails or the caller has gone away. The returned view always
// reflects the state after fn; the error is fn's unless persistence failed.
func (m *Manager) Do(ctx context.Context, id string, fn func(ctx context.Context, ctrl *wizard.Controller) error) (wizard.PhaseView, error) {
	ctrl, err := m.controller(ctx, id)
	if err != nil {
		return wizard.PhaseView{}, err
	}
	actionErr := fn(ctx, ctrl)
	if errors.Is(actionErr, wizard.ErrBusy) {
		return ctrl.View(), actionErr
	}

	session := Session{ID: id, State: ctrl.Snapshot(), UpdatedAt: m.now().UTC()}
	if err := m.repo.Save(context.WithoutCancel(ctx), session); err != nil {
		if errors.Is(err, ErrNotFound) {
			m.untrack(id)
			return wizard.PhaseView{}, ErrNotFound
		}
		return ctrl.View(), fmt.Errorf("save session: %w", err)
	}
	return ctrl.View(), actionErr
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.repo.Delete(ctx, id); err != nil {
		return err
	}
	m.untrack(id)
	telemetry.Info("session.deleted", map[string]any{"session_id": id})
	return nil
}

// Sweep removes sessions idle for longer than ttl and returns how many were removed.
func (m *Manager) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := m.now().UTC().Add(-ttl)
	ids, err := m.repo.DeleteIdle(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		m.untrack(id)
	}
	if len(ids) > 0 {
		metrics.SessionsExpired.Add(float64(len(ids)))
		telemetry.Info("session.expired", map[string]any{"count": len(ids), "cutoff": cutoff.Format(time.RFC3339)})
	}
	return len(ids), nil
}

// Live reports the number of sessions with a controller in memory.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// controller returns the live controller for id, restoring it from the repo if needed.
func (m *Manager) controller(ctx context.Context, id string) (*wizard.Controller, error) {
	m.mu.Lock()
	ctrl, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		return ctrl, nil
	}

	session, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	restored := wizard.Restore(m.backend, session.State, wizard.WithID(id), wizard.WithClock(m.now))

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have restored it meanwhile
	if existing, ok := m.live[id]; ok {
		return existing, nil
	}
	m.live[id] = restored
	metrics.ActiveSessions.Set(float64(len(m.live)))
	return restored, nil
}

func (m *Manager) track(id string, ctrl *wizard.Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[id] = ctrl
	metrics.ActiveSessions.Set(float64(len(m.live)))
}

func (m *Manager) untrack(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, id)
	metrics.ActiveSessions.Set(float64(len(m.live)))
}
