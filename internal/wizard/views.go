package wizard

import (
	"time"

	"review-simulator/internal/backend"
	"review-simulator/internal/dashboard"
	"review-simulator/internal/simulator"
)

// Step is one entry of the step indicator.
type Step struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	Active    bool   `json:"active"`
	Completed bool   `json:"completed"`
	Clickable bool   `json:"clickable"`
}

// PhaseView is the render-ready state of a wizard. Exactly one of the phase
// bodies is set, matching Phase.
type PhaseView struct {
	Phase       string            `json:"phase"`
	Steps       []Step            `json:"steps"`
	Busy        []Action          `json:"busy"`
	Error       *backend.APIError `json:"error,omitempty"`
	Notice      *backend.APIError `json:"notice,omitempty"`
	Celebrating bool              `json:"celebrating"`

	Product   *ProductView   `json:"product,omitempty"`
	Config    *ConfigView    `json:"config,omitempty"`
	Profiles  *ProfilesView  `json:"profiles,omitempty"`
	Reviews   *ReviewsView   `json:"reviews,omitempty"`
	Dashboard *DashboardView `json:"dashboard,omitempty"`
}

type ProductView struct {
	URL         string            `json:"url"`
	Product     simulator.Product `json:"product"`
	Analyzed    bool              `json:"analyzed"`
	CanContinue bool              `json:"can_continue"`
}

type ConfigView struct {
	Config           simulator.GenerationConfig `json:"config"`
	ReviewerCount    int                        `json:"reviewer_count"`
	EducationOptions []string                   `json:"education_options"`
	GenderOptions    []string                   `json:"gender_options"`
	HasProfiles      bool                       `json:"has_profiles"`
}

// BotCard is one reviewer in the profiles grid.
type BotCard struct {
	Bot    simulator.BotProfile `json:"bot"`
	Traits []simulator.Trait    `json:"traits"`
}

type ProfilesView struct {
	Bots       []BotCard `json:"bots"`
	HasReviews bool      `json:"has_reviews"`
}

// ReviewCard is a review joined with its author. Reviewer is nil when the
// bot id matches no profile.
type ReviewCard struct {
	Review   simulator.Review      `json:"review"`
	Reviewer *simulator.BotProfile `json:"reviewer,omitempty"`
}

type ReviewsView struct {
	Stats       dashboard.ReviewStats `json:"stats"`
	Reviews     []ReviewCard          `json:"reviews"`
	HasAnalysis bool                  `json:"has_analysis"`
}

// DashboardView echoes the demographics the reviewers were generated with.
type DashboardView struct {
	Product      simulator.Product           `json:"product"`
	Demographics simulator.DemographicConfig `json:"demographics"`
	Stats        dashboard.ReviewStats       `json:"stats"`
	Analysis     dashboard.View              `json:"analysis"`
}

var (
	educationOptions = []string{simulator.EducationLow, simulator.EducationMedium, simulator.EducationHigh, simulator.EducationMixed}
	genderOptions    = []string{simulator.GenderMale, simulator.GenderFemale, simulator.GenderMaleFemale}
)

// Render builds the view of s at now.
func Render(s State, now time.Time) PhaseView {
	v := PhaseView{
		Phase:       s.Phase.String(),
		Steps:       steps(s.Phase),
		Busy:        busyActions(s.Busy),
		Error:       s.Error,
		Notice:      s.ActiveNotice(now),
		Celebrating: s.Celebrating(now),
	}
	switch s.Phase {
	case PhaseProduct:
		v.Product = &ProductView{
			URL:         s.ProductURL,
			Product:     s.Product,
			Analyzed:    s.Product.Name != "",
			CanContinue: s.Product.Name != "",
		}
	case PhaseConfig:
		v.Config = &ConfigView{
			Config:           s.Config,
			ReviewerCount:    s.Config.ReviewerCount(),
			EducationOptions: educationOptions,
			GenderOptions:    genderOptions,
			HasProfiles:      len(s.Bots) > 0,
		}
	case PhaseProfiles:
		cards := make([]BotCard, 0, len(s.Bots))
		for _, b := range s.Bots {
			cards = append(cards, BotCard{Bot: b, Traits: b.Personality.Traits()})
		}
		v.Profiles = &ProfilesView{Bots: cards, HasReviews: len(s.Reviews) > 0}
	case PhaseReviews:
		v.Reviews = &ReviewsView{
			Stats:       dashboard.ComputeReviewStats(s.Reviews),
			Reviews:     reviewCards(s.Reviews, s.Bots),
			HasAnalysis: s.Analysis != nil,
		}
	case PhaseDashboard:
		v.Dashboard = &DashboardView{
			Product:      s.Product,
			Demographics: s.Config.Demographics,
			Stats:        dashboard.ComputeReviewStats(s.Reviews),
			Analysis:     dashboard.BuildView(s.Analysis),
		}
	}
	return v
}

func steps(current Phase) []Step {
	out := make([]Step, 0, PhaseCount)
	for p := PhaseProduct; p <= PhaseDashboard; p++ {
		out = append(out, Step{
			Index:     int(p),
			Name:      p.String(),
			Label:     p.Label(),
			Active:    p == current,
			Completed: p < current,
			Clickable: p <= current,
		})
	}
	return out
}

func busyActions(busy map[Action]bool) []Action {
	out := []Action{}
	// fixed order keeps the output stable
	for _, a := range []Action{
		ActionHydrate, ActionAnalyzeProduct, ActionSaveProduct, ActionGenerateBots,
		ActionGenerateReviews, ActionGenerateAnalysis, ActionRunAll, ActionReset,
	} {
		if busy[a] {
			out = append(out, a)
		}
	}
	return out
}

func reviewCards(reviews []simulator.Review, bots []simulator.BotProfile) []ReviewCard {
	byID := make(map[int64]int, len(bots))
	for i, b := range bots {
		byID[b.ID] = i
	}
	cards := make([]ReviewCard, 0, len(reviews))
	for _, r := range reviews {
		card := ReviewCard{Review: r}
		if i, ok := byID[r.BotID]; ok {
			bot := bots[i]
			card.Reviewer = &bot
		}
		cards = append(cards, card)
	}
	return cards
}
