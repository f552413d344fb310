package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-simulator/internal/simulator"
	"review-simulator/internal/wizard"
)

func TestManagerCreateHydratesAndPersists(t *testing.T) {
	stub := newStubBackend()
	stub.results = &simulator.SessionResults{
		Product:   &simulator.Product{Name: "Widget"},
		Reviewers: []simulator.BotProfile{{ID: 1}},
	}
	repo := NewMemoryRepo()
	m := NewManager(repo, stub, nil)

	id, view, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, "profiles", view.Phase)

	stored, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, wizard.PhaseProfiles, stored.State.Phase)
	assert.Equal(t, 1, m.Live())
}

func TestManagerRestoresFromRepo(t *testing.T) {
	stub := newStubBackend()
	repo := NewMemoryRepo()
	ctx := context.Background()

	first := NewManager(repo, stub, nil)
	id, _, err := first.Create(ctx)
	require.NoError(t, err)
	_, err = first.Do(ctx, id, func(ctx context.Context, w *wizard.Controller) error {
		return w.AnalyzeProduct(ctx, "https://shop.example/widget")
	})
	require.NoError(t, err)

	// a second manager simulates a process restart
	second := NewManager(repo, stub, nil)
	view, err := second.View(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "config", view.Phase)
	require.NotNil(t, view.Config)
	assert.Equal(t, 8, view.Config.ReviewerCount)
}

func TestManagerPersistsFailures(t *testing.T) {
	stub := newStubBackend()
	stub.bots = nil
	repo := NewMemoryRepo()
	m := NewManager(repo, stub, nil)
	ctx := context.Background()

	id, _, err := m.Create(ctx)
	require.NoError(t, err)
	_, err = m.Do(ctx, id, func(ctx context.Context, w *wizard.Controller) error {
		return w.AnalyzeProduct(ctx, "https://shop.example/widget")
	})
	require.NoError(t, err)

	view, err := m.Do(ctx, id, func(ctx context.Context, w *wizard.Controller) error {
		return w.GenerateBots(ctx)
	})
	require.Error(t, err)
	require.NotNil(t, view.Error)
	assert.Equal(t, 500, view.Error.Status)

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.State.Error)
	assert.Equal(t, "response contains no profiles", stored.State.Error.Message)
}

func TestManagerSweepExpiresIdleSessions(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	repo := NewMemoryRepo()
	m := NewManager(repo, newStubBackend(), clock)
	ctx := context.Background()

	stale, _, err := m.Create(ctx)
	require.NoError(t, err)
	now = now.Add(90 * time.Minute)
	fresh, _, err := m.Create(ctx)
	require.NoError(t, err)
	now = now.Add(45 * time.Minute)

	removed, err := m.Sweep(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Live())

	_, err = m.View(ctx, stale)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.View(ctx, fresh)
	assert.NoError(t, err)
}

func TestManagerUnknownSession(t *testing.T) {
	m := NewManager(NewMemoryRepo(), newStubBackend(), nil)
	_, err := m.Do(context.Background(), "missing", func(context.Context, *wizard.Controller) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}
