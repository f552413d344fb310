package simulator

import "encoding/json"

// Feature is one headline feature of a product.
type Feature struct {
	Feature string `json:"feature"`
	Value   string `json:"value"`
}

// Spec is one technical specification line of a product.
type Spec struct {
	Spec  string `json:"spec"`
	Value string `json:"value"`
}

// Product is the record the whole wizard revolves around.
type Product struct {
	ID             *int64    `json:"id,omitempty"`
	Name           string    `json:"name" validate:"max=300"`
	Description    string    `json:"description"`
	Price          string    `json:"price" validate:"max=64"`
	Category       string    `json:"category" validate:"max=120"`
	Image          string    `json:"image"`
	MainFeatures   []Feature `json:"main_features,omitempty" validate:"dive"`
	TechnicalSpecs []Spec    `json:"technical_specs,omitempty" validate:"dive"`
}

// Range is an inclusive [min, max] pair.
type Range [2]int

// Min returns the lower bound.
func (r Range) Min() int { return r[0] }

// Max returns the upper bound.
func (r Range) Max() int { return r[1] }

// DemographicConfig describes the population the backend should synthesize.
// EducationRange is an alternative to EducationLevel expressed in years of schooling.
type DemographicConfig struct {
	AgeRange       Range  `json:"age_range" validate:"range_order"`
	EducationLevel string `json:"education_level,omitempty" validate:"omitempty,oneof=Low Medium High Mixed"`
	EducationRange *Range `json:"education_range,omitempty" validate:"omitempty,range_order"`
	GenderRatio    string `json:"gender_ratio" validate:"required"`
}

// PersonalityConfig holds the seven trait ranges on a 0-100 scale.
type PersonalityConfig struct {
	IntrovertExtrovert     Range `json:"introvert_extrovert" validate:"trait_range"`
	AnalyticalCreative     Range `json:"analytical_creative" validate:"trait_range"`
	BusyFreeTime           Range `json:"busy_free_time" validate:"trait_range"`
	DisorganizedOrganized  Range `json:"disorganized_organized" validate:"trait_range"`
	IndependentCooperative Range `json:"independent_cooperative" validate:"trait_range"`
	Environmentalist       Range `json:"environmentalist" validate:"trait_range"`
	SafeRisky              Range `json:"safe_risky" validate:"trait_range"`
}

// GenerationConfig is everything the configuration phase edits.
type GenerationConfig struct {
	PopulationRange Range             `json:"population_range" validate:"range_order"`
	PositivityBias  Range             `json:"positivity_bias" validate:"trait_range"`
	Verbosity       Range             `json:"verbosity" validate:"trait_range"`
	DetailLevel     Range             `json:"detail_level" validate:"trait_range"`
	Demographics    DemographicConfig `json:"demographics"`
	Personality     PersonalityConfig `json:"personality"`
}

// BotPersonality holds one bot's seven trait scalars.
type BotPersonality struct {
	IntrovertExtrovert     int `json:"introvert_extrovert"`
	AnalyticalCreative     int `json:"analytical_creative"`
	BusyFreeTime           int `json:"busy_free_time"`
	DisorganizedOrganized  int `json:"disorganized_organized"`
	IndependentCooperative int `json:"independent_cooperative"`
	Environmentalist       int `json:"environmentalist"`
	SafeRisky              int `json:"safe_risky"`
}

// Trait is a named personality scalar, used for rendering.
type Trait struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Traits lists the personality scalars in display order.
func (p BotPersonality) Traits() []Trait {
	return []Trait{
		{Name: "introvert_extrovert", Value: p.IntrovertExtrovert},
		{Name: "analytical_creative", Value: p.AnalyticalCreative},
		{Name: "busy_free_time", Value: p.BusyFreeTime},
		{Name: "disorganized_organized", Value: p.DisorganizedOrganized},
		{Name: "independent_cooperative", Value: p.IndependentCooperative},
		{Name: "environmentalist", Value: p.Environmentalist},
		{Name: "safe_risky", Value: p.SafeRisky},
	}
}

// BotProfile is a synthetic reviewer. Profiles are replaced wholesale on each generation.
type BotProfile struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Avatar         string         `json:"avatar"`
	Bio            string         `json:"bio"`
	Age            int            `json:"age"`
	Gender         string         `json:"gender"`
	Location       string         `json:"location"`
	EducationLevel string         `json:"education_level"`
	Personality    BotPersonality `json:"personality"`
	Backstory      string         `json:"backstory,omitempty"`
}

// Review is one generated review. BotID is a weak reference into the bot population.
type Review struct {
	ID           int64  `json:"id"`
	BotID        int64  `json:"bot_id"`
	ProductID    int64  `json:"product_id"`
	Rating       int    `json:"rating"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Date         string `json:"date,omitempty"`
	HelpfulVotes int    `json:"helpful_votes,omitempty"`
}

// Sentiment values used in keyword analysis.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// KeywordAnalysis is one keyword with its frequency and tone.
// Count is kept raw because backends occasionally send strings or nulls.
type KeywordAnalysis struct {
	Word      string          `json:"word"`
	Count     json.RawMessage `json:"count,omitempty"`
	Sentiment string          `json:"sentiment"`
}

// AnalysisResult is the backend's aggregate over all reviews.
// RatingDistribution is either a count array or a keyed object and is only
// interpreted by the dashboard normalizer.
type AnalysisResult struct {
	AverageRating       *float64          `json:"average_rating,omitempty"`
	RatingDistribution  json.RawMessage   `json:"rating_distribution,omitempty"`
	PositivePoints      []string          `json:"positive_points"`
	NegativePoints      []string          `json:"negative_points"`
	KeywordAnalysis     []KeywordAnalysis `json:"keyword_analysis"`
	DemographicInsights []string          `json:"demographic_insights"`
}

// SessionResults is everything the backend holds for the current run.
type SessionResults struct {
	Product   *Product        `json:"product,omitempty"`
	Reviewers []BotProfile    `json:"reviewers,omitempty"`
	Reviews   []Review        `json:"reviews,omitempty"`
	Analysis  *AnalysisResult `json:"analysis,omitempty"`
}
