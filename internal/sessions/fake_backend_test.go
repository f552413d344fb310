package sessions

import (
	"context"
	"sync"

	"review-simulator/internal/backend"
	"review-simulator/internal/simulator"
)

// stubBackend serves canned results and counts calls per operation.
type stubBackend struct {
	mu      sync.Mutex
	calls   map[string]int
	results *simulator.SessionResults
	bots    []simulator.BotProfile
	botsErr error
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		calls: map[string]int{},
		bots:  []simulator.BotProfile{{ID: 1, Name: "Ada"}},
	}
}

func (s *stubBackend) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubBackend) hit(op string) {
	s.mu.Lock()
	s.calls[op]++
	s.mu.Unlock()
}

func (s *stubBackend) CleanOutputs(context.Context) error { s.hit("clean"); return nil }

func (s *stubBackend) AnalyzeProduct(_ context.Context, url string) (simulator.Product, error) {
	s.hit("analyze")
	return simulator.Product{Name: "Widget", Description: url}, nil
}

func (s *stubBackend) UpdateProduct(_ context.Context, p simulator.Product) (simulator.Product, error) {
	s.hit("update")
	return p, nil
}

func (s *stubBackend) GenerateBots(context.Context, simulator.GenerationConfig, *int64) ([]simulator.BotProfile, error) {
	s.hit("bots")
	return s.bots, s.botsErr
}

func (s *stubBackend) GenerateReviews(context.Context) ([]simulator.Review, error) {
	s.hit("reviews")
	return []simulator.Review{{ID: 1, BotID: 1, Rating: 5}}, nil
}

func (s *stubBackend) GenerateAnalysis(context.Context) (simulator.AnalysisResult, error) {
	s.hit("analysis")
	avg := 5.0
	return simulator.AnalysisResult{AverageRating: &avg}, nil
}

func (s *stubBackend) AnalyzeAll(context.Context, string, int) (simulator.SessionResults, error) {
	s.hit("all")
	return simulator.SessionResults{}, nil
}

func (s *stubBackend) CurrentResults(context.Context) (simulator.SessionResults, error) {
	s.hit("results")
	if s.results == nil {
		return simulator.SessionResults{}, backend.ErrNoResults
	}
	return *s.results, nil
}

func (s *stubBackend) Health(context.Context) error { return nil }
