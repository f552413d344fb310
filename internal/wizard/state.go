package wizard

import (
	"encoding/json"
	"time"

	"review-simulator/internal/backend"
	"review-simulator/internal/simulator"
)

// CelebrationWindow is how long the celebration runs after reviews arrive.
const CelebrationWindow = 3 * time.Second

// NoticeWindow is how long a success notice stays visible.
const NoticeWindow = 3 * time.Second

// State is everything a wizard instance holds. It is also the persisted form of a session.
type State struct {
	Phase      Phase                      `json:"phase"`
	ProductURL string                     `json:"product_url"`
	Product    simulator.Product          `json:"product"`
	Config     simulator.GenerationConfig `json:"config"`
	Bots       []simulator.BotProfile     `json:"bots,omitempty"`
	Reviews    []simulator.Review         `json:"reviews,omitempty"`
	Analysis   *simulator.AnalysisResult  `json:"analysis,omitempty"`
	Error      *backend.APIError          `json:"error,omitempty"`
	Notice     *backend.APIError          `json:"notice,omitempty"`
	Busy       map[Action]bool            `json:"busy,omitempty"`

	CelebrateUntil time.Time `json:"celebrate_until"`
	NoticeUntil    time.Time `json:"notice_until"`
}

// NewState returns the state of a fresh wizard.
func NewState() State {
	return State{
		Phase:  PhaseProduct,
		Config: simulator.DefaultGenerationConfig(),
		Busy:   map[Action]bool{},
	}
}

// Celebrating reports whether the review celebration is running at now.
func (s State) Celebrating(now time.Time) bool {
	return now.Before(s.CelebrateUntil)
}

// ActiveNotice returns the success notice if it is still visible at now.
func (s State) ActiveNotice(now time.Time) *backend.APIError {
	if s.Notice == nil || !now.Before(s.NoticeUntil) {
		return nil
	}
	return s.Notice
}

// IsBusy reports whether the action's call is in flight.
func (s State) IsBusy(a Action) bool {
	return s.Busy[a]
}

// furthestPhase is the last phase whose artifacts are present.
func (s State) furthestPhase() Phase {
	switch {
	case s.Analysis != nil:
		return PhaseDashboard
	case len(s.Reviews) > 0:
		return PhaseReviews
	case len(s.Bots) > 0:
		return PhaseProfiles
	case s.Product.Name != "":
		return PhaseConfig
	default:
		return PhaseProduct
	}
}

// clone copies the slices, maps and pointers the controller writes so the
// result can be read without the controller lock. Elements of Bots and
// Reviews are shared; they are replaced wholesale, never edited.
func (s State) clone() State {
	out := s
	if s.Product.MainFeatures != nil {
		out.Product.MainFeatures = append([]simulator.Feature(nil), s.Product.MainFeatures...)
	}
	if s.Product.TechnicalSpecs != nil {
		out.Product.TechnicalSpecs = append([]simulator.Spec(nil), s.Product.TechnicalSpecs...)
	}
	if s.Bots != nil {
		out.Bots = append([]simulator.BotProfile(nil), s.Bots...)
	}
	if s.Reviews != nil {
		out.Reviews = append([]simulator.Review(nil), s.Reviews...)
	}
	if s.Analysis != nil {
		out.Analysis = cloneAnalysis(s.Analysis)
	}
	if s.Error != nil {
		e := *s.Error
		out.Error = &e
	}
	if s.Notice != nil {
		n := *s.Notice
		out.Notice = &n
	}
	out.Busy = make(map[Action]bool, len(s.Busy))
	for k, v := range s.Busy {
		if v {
			out.Busy[k] = true
		}
	}
	return out
}

func cloneAnalysis(a *simulator.AnalysisResult) *simulator.AnalysisResult {
	out := *a
	if a.AverageRating != nil {
		avg := *a.AverageRating
		out.AverageRating = &avg
	}
	if a.RatingDistribution != nil {
		out.RatingDistribution = append(json.RawMessage(nil), a.RatingDistribution...)
	}
	if a.PositivePoints != nil {
		out.PositivePoints = append([]string(nil), a.PositivePoints...)
	}
	if a.NegativePoints != nil {
		out.NegativePoints = append([]string(nil), a.NegativePoints...)
	}
	if a.DemographicInsights != nil {
		out.DemographicInsights = append([]string(nil), a.DemographicInsights...)
	}
	if a.KeywordAnalysis != nil {
		out.KeywordAnalysis = make([]simulator.KeywordAnalysis, len(a.KeywordAnalysis))
		for i, k := range a.KeywordAnalysis {
			k.Count = append(json.RawMessage(nil), k.Count...)
			out.KeywordAnalysis[i] = k
		}
	}
	return &out
}
