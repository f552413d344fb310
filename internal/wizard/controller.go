package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"review-simulator/internal/backend"
	"review-simulator/internal/shared/metrics"
	"review-simulator/internal/shared/telemetry"
	"review-simulator/internal/simulator"
)

// ErrBusy is returned when an action is triggered while its previous call is still in flight.
var ErrBusy = errors.New("action already in progress")

// Controller owns one wizard's state and runs its actions.
//
// Every backend-calling action follows the same contract: clear the error,
// set the action's busy flag, issue one call, apply the result and advance
// on success or store a normalized error on failure, then clear the busy
// flag. The lock is never held across a backend call, and a call whose
// caller has gone away still applies its result.
type Controller struct {
	mu       sync.Mutex
	backend  backend.Client
	now      func() time.Time
	id       string
	onChange func(State)
	state    State
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source used for the celebration and notice windows.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithID tags log lines with a session id.
func WithID(id string) Option {
	return func(c *Controller) {
		c.id = id
	}
}

// WithObserver registers a callback invoked with a snapshot after every state change.
// It runs without the controller lock held.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// New returns a controller for a fresh wizard at the product phase.
func New(client backend.Client, opts ...Option) *Controller {
	return Restore(client, NewState(), opts...)
}

// Restore returns a controller resuming from a saved state. Busy flags are
// dropped since their calls belonged to another process.
func Restore(client backend.Client, state State, opts ...Option) *Controller {
	c := &Controller{
		backend: client,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	state.Busy = map[Action]bool{}
	if !state.Phase.Valid() {
		state.Phase = PhaseProduct
	}
	c.state = state
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// View renders the active phase at the current time.
func (c *Controller) View() PhaseView {
	return Render(c.Snapshot(), c.now())
}

// Now exposes the controller clock to renderers.
func (c *Controller) Now() time.Time {
	return c.now()
}

// mutate applies fn under the lock, then notifies the observer.
func (c *Controller) mutate(fn func(*State)) {
	c.mu.Lock()
	from := c.state.Phase
	fn(&c.state)
	to := c.state.Phase
	snap := c.state.clone()
	c.mu.Unlock()
	c.transitioned(from, to)
	c.notify(snap)
}

func (c *Controller) notify(snap State) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}

func (c *Controller) transitioned(from, to Phase) {
	if from == to {
		return
	}
	metrics.ObserveTransition(from.String(), to.String())
	telemetry.Info("wizard.transition", map[string]any{
		"session_id":        c.id,
		"status_transition": from.String() + "->" + to.String(),
	})
}

// fail stores err as the banner without touching the phase.
func (c *Controller) fail(err *backend.APIError) error {
	c.mutate(func(s *State) {
		s.Error = err
	})
	return err
}

// run executes one backend-calling action. call performs the request and
// returns a function applying its result; it runs without the lock.
func (c *Controller) run(ctx context.Context, action Action, call func(ctx context.Context) (func(*State), error)) error {
	c.mu.Lock()
	if c.state.Busy[action] {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state.Error = nil
	c.state.Busy[action] = true
	snap := c.state.clone()
	c.mu.Unlock()
	c.notify(snap)

	apply, err := invoke(ctx, call)

	var apiErr *backend.APIError
	if err != nil {
		apiErr = backend.Normalize(action.label(), err)
		telemetry.Warn("wizard.action_failed", map[string]any{
			"session_id": c.id,
			"action":     string(action),
			"status":     apiErr.Status,
			"error":      apiErr.Message,
		})
	}
	c.mutate(func(s *State) {
		delete(s.Busy, action)
		if apiErr != nil {
			s.Error = apiErr
			return
		}
		if apply != nil {
			apply(s)
		}
	})
	if apiErr != nil {
		return apiErr
	}
	return nil
}

// invoke runs call, converting a panic into an error so the busy flag is always cleared.
func invoke(ctx context.Context, call func(ctx context.Context) (func(*State), error)) (apply func(*State), err error) {
	defer func() {
		if rec := recover(); rec != nil {
			apply = nil
			err = fmt.Errorf("unexpected failure: %v", rec)
		}
	}()
	return call(ctx)
}

// Hydrate restores artifacts from the backend's current results. A 404
// starts fresh at the product phase without a banner; any other failure
// shows the banner and also leaves the wizard at the product phase.
func (c *Controller) Hydrate(ctx context.Context) error {
	err := c.run(ctx, ActionHydrate, func(ctx context.Context) (func(*State), error) {
		results, err := c.backend.CurrentResults(ctx)
		if errors.Is(err, backend.ErrNoResults) {
			return func(s *State) { s.Phase = PhaseProduct }, nil
		}
		if err != nil {
			return nil, err
		}
		return func(s *State) {
			if results.Product != nil {
				s.Product = *results.Product
			}
			s.Bots = results.Reviewers
			s.Reviews = results.Reviews
			s.Analysis = results.Analysis
			s.Phase = s.furthestPhase()
		}, nil
	})
	if err != nil && !errors.Is(err, ErrBusy) {
		c.mutate(func(s *State) { s.Phase = PhaseProduct })
	}
	return err
}

// SetProductURL records the URL typed in the product form.
func (c *Controller) SetProductURL(url string) {
	c.mutate(func(s *State) {
		s.ProductURL = strings.TrimSpace(url)
	})
}

// AnalyzeProduct asks the backend to describe the product at url. An empty
// url is a validation error raised without a request.
func (c *Controller) AnalyzeProduct(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		c.mutate(func(s *State) { s.ProductURL = "" })
		return c.fail(backend.Validation("product URL is required"))
	}
	c.SetProductURL(url)
	return c.run(ctx, ActionAnalyzeProduct, func(ctx context.Context) (func(*State), error) {
		product, err := c.backend.AnalyzeProduct(ctx, url)
		if err != nil {
			return nil, err
		}
		return func(s *State) {
			s.Product = product
			s.Phase = PhaseConfig
		}, nil
	})
}

// SetProduct replaces the product with a manual edit.
func (c *Controller) SetProduct(product simulator.Product) error {
	if err := product.Validate(); err != nil {
		return c.fail(backend.Validation(err.Error()))
	}
	c.mutate(func(s *State) {
		s.Error = nil
		s.Product = product
	})
	return nil
}

// SaveProduct stores the edited product on the backend and shows a short success notice.
func (c *Controller) SaveProduct(ctx context.Context) error {
	product := c.Snapshot().Product
	if strings.TrimSpace(product.Name) == "" {
		return c.fail(backend.Validation("product name is required"))
	}
	return c.run(ctx, ActionSaveProduct, func(ctx context.Context) (func(*State), error) {
		saved, err := c.backend.UpdateProduct(ctx, product)
		if err != nil {
			return nil, err
		}
		return func(s *State) {
			s.Product = saved
			s.Notice = &backend.APIError{Status: http.StatusOK, Message: "product saved"}
			s.NoticeUntil = c.now().Add(NoticeWindow)
		}, nil
	})
}

// ImportDescription replaces the product description with text extracted from a datasheet.
func (c *Controller) ImportDescription(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return c.fail(backend.Validation("datasheet contains no text"))
	}
	c.mutate(func(s *State) {
		s.Error = nil
		s.Product.Description = text
	})
	return nil
}

// SetConfig replaces the generation configuration.
func (c *Controller) SetConfig(cfg simulator.GenerationConfig) error {
	if err := cfg.Validate(); err != nil {
		return c.fail(backend.Validation(err.Error()))
	}
	c.mutate(func(s *State) {
		s.Error = nil
		s.Config = cfg
	})
	return nil
}

// GenerateBots requests a reviewer population. An empty population is a failure.
func (c *Controller) GenerateBots(ctx context.Context) error {
	snap := c.Snapshot()
	if err := snap.Config.Validate(); err != nil {
		return c.fail(backend.Validation(err.Error()))
	}
	return c.run(ctx, ActionGenerateBots, func(ctx context.Context) (func(*State), error) {
		bots, err := c.backend.GenerateBots(ctx, snap.Config, snap.Product.ID)
		if err != nil {
			return nil, err
		}
		if len(bots) == 0 {
			return nil, backend.EmptyResult("generate bots", "response contains no profiles")
		}
		return func(s *State) {
			s.Bots = bots
			s.Phase = PhaseProfiles
		}, nil
	})
}

// GenerateReviews requests reviews from the population and starts the celebration.
func (c *Controller) GenerateReviews(ctx context.Context) error {
	return c.run(ctx, ActionGenerateReviews, func(ctx context.Context) (func(*State), error) {
		reviews, err := c.backend.GenerateReviews(ctx)
		if err != nil {
			return nil, err
		}
		if len(reviews) == 0 {
			return nil, backend.EmptyResult("generate reviews", "response contains no reviews")
		}
		return func(s *State) {
			s.Reviews = reviews
			s.Phase = PhaseReviews
			s.CelebrateUntil = c.now().Add(CelebrationWindow)
		}, nil
	})
}

// GenerateAnalysis requests the aggregate analysis.
func (c *Controller) GenerateAnalysis(ctx context.Context) error {
	return c.run(ctx, ActionGenerateAnalysis, func(ctx context.Context) (func(*State), error) {
		analysis, err := c.backend.GenerateAnalysis(ctx)
		if err != nil {
			return nil, err
		}
		return func(s *State) {
			s.Analysis = &analysis
			s.Phase = PhaseDashboard
		}, nil
	})
}

// RunAll runs every generation step on the backend in a single request and
// lands on the furthest phase the results support.
func (c *Controller) RunAll(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return c.fail(backend.Validation("product URL is required"))
	}
	c.SetProductURL(url)
	reviewers := c.Snapshot().Config.ReviewerCount()
	return c.run(ctx, ActionRunAll, func(ctx context.Context) (func(*State), error) {
		results, err := c.backend.AnalyzeAll(ctx, url, reviewers)
		if err != nil {
			return nil, err
		}
		if results.Product == nil {
			return nil, backend.EmptyResult("run full simulation", "response contains no product")
		}
		return func(s *State) {
			s.Product = *results.Product
			s.Bots = results.Reviewers
			s.Reviews = results.Reviews
			s.Analysis = results.Analysis
			s.Phase = s.furthestPhase()
		}, nil
	})
}

// Reset clears the backend's outputs and every local artifact, returning to the product phase.
func (c *Controller) Reset(ctx context.Context) error {
	return c.run(ctx, ActionReset, func(ctx context.Context) (func(*State), error) {
		if err := c.backend.CleanOutputs(ctx); err != nil {
			return nil, err
		}
		return func(s *State) {
			s.ProductURL = ""
			s.Product = simulator.Product{}
			s.Config = simulator.DefaultGenerationConfig()
			s.Bots = nil
			s.Reviews = nil
			s.Analysis = nil
			s.Notice = nil
			s.CelebrateUntil = time.Time{}
			s.Phase = PhaseProduct
		}, nil
	})
}

// GoToStep moves back to an earlier or the current step. Forward jumps are
// ignored and report false.
func (c *Controller) GoToStep(step Phase) bool {
	moved := false
	c.mutate(func(s *State) {
		if !step.Valid() || step > s.Phase {
			return
		}
		s.Phase = step
		moved = true
	})
	return moved
}

// Continue advances one phase when the next phase's artifacts are already
// held. It never calls the backend.
func (c *Controller) Continue() error {
	var failure *backend.APIError
	c.mutate(func(s *State) {
		s.Error = nil
		next := s.Phase + 1
		switch next {
		case PhaseConfig:
			if strings.TrimSpace(s.Product.Name) == "" {
				failure = backend.Validation("product name is required")
			}
		case PhaseProfiles:
			if len(s.Bots) == 0 {
				failure = backend.Validation("generate bot profiles first")
			}
		case PhaseReviews:
			if len(s.Reviews) == 0 {
				failure = backend.Validation("generate reviews first")
			}
		case PhaseDashboard:
			if s.Analysis == nil {
				failure = backend.Validation("generate the analysis first")
			}
		default:
			failure = backend.Validation("already at the last step")
		}
		if failure != nil {
			s.Error = failure
			return
		}
		s.Phase = next
	})
	if failure != nil {
		return failure
	}
	return nil
}

// Restart clears bots, reviews and analysis and returns to the configuration
// phase. It is refused while no product has been analyzed.
func (c *Controller) Restart() error {
	var failure *backend.APIError
	c.mutate(func(s *State) {
		if s.Phase < PhaseConfig {
			failure = backend.Validation("analyze a product first")
			s.Error = failure
			return
		}
		s.Error = nil
		s.Bots = nil
		s.Reviews = nil
		s.Analysis = nil
		s.CelebrateUntil = time.Time{}
		s.Phase = PhaseConfig
	})
	if failure != nil {
		return failure
	}
	return nil
}

// DismissError clears the banner. It never retries anything.
func (c *Controller) DismissError() {
	c.mutate(func(s *State) {
		s.Error = nil
	})
}
