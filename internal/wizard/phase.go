package wizard

import "fmt"

// Phase is one of the five linear wizard steps.
type Phase int

const (
	PhaseProduct Phase = iota
	PhaseConfig
	PhaseProfiles
	PhaseReviews
	PhaseDashboard
)

// PhaseCount is the number of wizard phases.
const PhaseCount = 5

var phaseNames = [PhaseCount]string{"product", "config", "profiles", "reviews", "dashboard"}

var phaseLabels = [PhaseCount]string{"Product", "Configuration", "Profiles", "Reviews", "Dashboard"}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Label is the human-readable step title.
func (p Phase) Label() string {
	if !p.Valid() {
		return p.String()
	}
	return phaseLabels[p]
}

// Valid reports whether p is one of the five phases.
func (p Phase) Valid() bool {
	return p >= PhaseProduct && p <= PhaseDashboard
}

// Action names a backend-calling operation. Each has its own busy flag.
type Action string

const (
	ActionHydrate          Action = "hydrate"
	ActionAnalyzeProduct   Action = "analyze_product"
	ActionSaveProduct      Action = "save_product"
	ActionGenerateBots     Action = "generate_bots"
	ActionGenerateReviews  Action = "generate_reviews"
	ActionGenerateAnalysis Action = "generate_analysis"
	ActionRunAll           Action = "run_all"
	ActionReset            Action = "reset"
)

func (a Action) label() string {
	switch a {
	case ActionHydrate:
		return "restore session"
	case ActionAnalyzeProduct:
		return "analyze product"
	case ActionSaveProduct:
		return "save product"
	case ActionGenerateBots:
		return "generate bots"
	case ActionGenerateReviews:
		return "generate reviews"
	case ActionGenerateAnalysis:
		return "generate analysis"
	case ActionRunAll:
		return "run full simulation"
	case ActionReset:
		return "reset"
	default:
		return string(a)
	}
}
