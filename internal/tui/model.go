package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"review-simulator/internal/wizard"
)

// actionDoneMsg is delivered when a controller call returns. The controller
// has already recorded any failure in its state.
type actionDoneMsg struct {
	err error
}

// refreshMsg re-renders after a timed banner expires.
type refreshMsg struct{}

// Model is the bubbletea model driving a wizard.Controller.
type Model struct {
	ctx    context.Context
	ctrl   *wizard.Controller
	styles Styles

	url     textinput.Model
	spinner spinner.Model
	bar     progress.Model

	// analyzedURL is the URL the held product came from.
	analyzedURL string

	width    int
	height   int
	pending  int
	quitting bool
}

// New builds a model over ctrl. ctx bounds every backend call the model starts.
func New(ctx context.Context, ctrl *wizard.Controller, styles Styles) Model {
	ti := textinput.New()
	ti.Placeholder = "https://shop.example.com/product/123"
	ti.Prompt = "URL › "
	ti.CharLimit = 2048
	ti.Width = 60
	ti.PromptStyle = styles.Prompt
	snap := ctrl.Snapshot()
	ti.SetValue(snap.ProductURL)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage())

	return Model{
		ctx:         ctx,
		ctrl:        ctrl,
		styles:      styles,
		url:         ti,
		spinner:     sp,
		bar:         bar,
		analyzedURL: snap.ProductURL,
		width:       80,
		height:      24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.url.Width = max(20, msg.Width-12)
		m.bar.Width = max(10, min(40, msg.Width/3))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case actionDoneMsg:
		m.pending--
		snap := m.ctrl.Snapshot()
		m.url.SetValue(snap.ProductURL)
		now := m.ctrl.Now()
		var wait time.Duration
		if snap.Celebrating(now) {
			wait = snap.CelebrateUntil.Sub(now)
		}
		if snap.ActiveNotice(now) != nil {
			wait = max(wait, snap.NoticeUntil.Sub(now))
		}
		if wait > 0 {
			return m, tea.Tick(wait, func(time.Time) tea.Msg { return refreshMsg{} })
		}
		return m, nil

	case refreshMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.ctrl.Snapshot()
	onProduct := snap.Phase == wizard.PhaseProduct

	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.ctrl.DismissError()
		return m, nil
	case tea.KeyEnter:
		return m.primaryAction(snap)
	case tea.KeyLeft:
		if snap.Phase > wizard.PhaseProduct {
			m.ctrl.GoToStep(snap.Phase - 1)
		}
		return m, nil
	case tea.KeyRight, tea.KeyTab:
		_ = m.ctrl.Continue()
		return m, nil
	case tea.KeyCtrlR:
		if m.pending > 0 {
			return m, nil
		}
		return m.start(func(ctx context.Context) error { return m.ctrl.Reset(ctx) })
	}

	if onProduct {
		var cmd tea.Cmd
		m.url, cmd = m.url.Update(msg)
		m.ctrl.SetProductURL(m.url.Value())
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "r":
		_ = m.ctrl.Restart()
	}
	return m, nil
}

// primaryAction runs the backend call that belongs to the current phase.
func (m Model) primaryAction(snap wizard.State) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		return m, nil
	}
	switch snap.Phase {
	case wizard.PhaseProduct:
		url := strings.TrimSpace(m.url.Value())
		if snap.Product.Name != "" && url == m.analyzedURL {
			_ = m.ctrl.Continue()
			return m, nil
		}
		m.analyzedURL = url
		return m.start(func(ctx context.Context) error { return m.ctrl.AnalyzeProduct(ctx, url) })
	case wizard.PhaseConfig:
		return m.start(m.ctrl.GenerateBots)
	case wizard.PhaseProfiles:
		return m.start(m.ctrl.GenerateReviews)
	case wizard.PhaseReviews:
		return m.start(m.ctrl.GenerateAnalysis)
	}
	return m, nil
}

func (m Model) start(fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	m.pending++
	ctx := m.ctx
	return m, func() tea.Msg {
		return actionDoneMsg{err: fn(ctx)}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render(m.ctrl.View())
}
