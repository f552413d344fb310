package simulator

// Gender ratio presets offered by the configuration phase.
const (
	GenderMale       = "Male"
	GenderFemale     = "Female"
	GenderMaleFemale = "Male&Female"
)

// Education presets offered by the configuration phase.
const (
	EducationLow    = "Low"
	EducationMedium = "Medium"
	EducationHigh   = "High"
	EducationMixed  = "Mixed"
)

// DefaultGenerationConfig returns the configuration a fresh wizard starts with.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		PopulationRange: Range{3, 8},
		PositivityBias:  Range{60, 80},
		Verbosity:       Range{40, 70},
		DetailLevel:     Range{50, 80},
		Demographics: DemographicConfig{
			AgeRange:       Range{25, 45},
			EducationLevel: EducationMixed,
			GenderRatio:    GenderMaleFemale,
		},
		Personality: PersonalityConfig{
			IntrovertExtrovert:     Range{40, 80},
			AnalyticalCreative:     Range{30, 60},
			BusyFreeTime:           Range{50, 90},
			DisorganizedOrganized:  Range{40, 70},
			IndependentCooperative: Range{10, 40},
			Environmentalist:       Range{50, 80},
			SafeRisky:              Range{60, 90},
		},
	}
}

// ReviewerCount is the number of reviewers requested from the backend: the
// upper bound of the population range.
func (c GenerationConfig) ReviewerCount() int {
	if c.PopulationRange.Max() < 1 {
		return 1
	}
	return c.PopulationRange.Max()
}
