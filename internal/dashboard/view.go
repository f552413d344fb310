package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"review-simulator/internal/simulator"
)

// Bar is one row of the rating distribution chart.
type Bar struct {
	Stars   int     `json:"stars"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Keyword is one entry of the keyword cloud.
type Keyword struct {
	Word      string `json:"word"`
	Count     int    `json:"count"`
	Sentiment string `json:"sentiment"`
	// Scale is the relative font size, 0.8 to 1.2.
	Scale float64 `json:"scale"`
}

// SentimentShare is the sentiment split with percentages.
type SentimentShare struct {
	Sentiment
	PositivePercent float64 `json:"positive_percent"`
	NeutralPercent  float64 `json:"neutral_percent"`
	NegativePercent float64 `json:"negative_percent"`
}

// View is the render-ready dashboard.
type View struct {
	HasData             bool           `json:"has_data"`
	AverageRating       float64        `json:"average_rating"`
	AverageLabel        string         `json:"average_label"`
	TotalRatings        int            `json:"total_ratings"`
	Distribution        []Bar          `json:"distribution"`
	Sentiment           SentimentShare `json:"sentiment"`
	Keywords            []Keyword      `json:"keywords"`
	PositivePoints      []string       `json:"positive_points"`
	NegativePoints      []string       `json:"negative_points"`
	DemographicInsights []string       `json:"demographic_insights"`
}

// BuildView normalizes an analysis for display. A nil analysis yields an empty view with HasData unset.
func BuildView(analysis *simulator.AnalysisResult) View {
	view := View{
		AverageLabel:        "0.0",
		Distribution:        make([]Bar, 0, Buckets),
		Keywords:            []Keyword{},
		PositivePoints:      []string{},
		NegativePoints:      []string{},
		DemographicInsights: []string{},
	}
	var (
		raw      json.RawMessage
		keywords []simulator.KeywordAnalysis
		average  *float64
	)
	if analysis != nil {
		raw = analysis.RatingDistribution
		keywords = analysis.KeywordAnalysis
		average = analysis.AverageRating
		view.HasData = hasData(analysis)
		view.PositivePoints = orEmpty(analysis.PositivePoints)
		view.NegativePoints = orEmpty(analysis.NegativePoints)
		view.DemographicInsights = orEmpty(analysis.DemographicInsights)
	}

	if average != nil {
		view.AverageRating = *average
		view.AverageLabel = fmt.Sprintf("%.1f", *average)
	}

	counts := NormalizeDistribution(raw)
	pct := Percentages(counts)
	for stars := Buckets; stars >= 1; stars-- {
		view.TotalRatings += counts[stars-1]
		view.Distribution = append(view.Distribution, Bar{
			Stars:   stars,
			Count:   counts[stars-1],
			Percent: pct[stars-1],
		})
	}

	s := SentimentCounts(keywords, average)
	pos, neu, neg := SentimentPercentages(s)
	view.Sentiment = SentimentShare{
		Sentiment:       s,
		PositivePercent: pos,
		NeutralPercent:  neu,
		NegativePercent: neg,
	}

	for _, kw := range keywords {
		n := toCount(kw.Count)
		view.Keywords = append(view.Keywords, Keyword{
			Word:      kw.Word,
			Count:     n,
			Sentiment: kw.Sentiment,
			Scale:     keywordScale(n),
		})
	}
	sort.SliceStable(view.Keywords, func(i, j int) bool {
		return view.Keywords[i].Count > view.Keywords[j].Count
	})
	return view
}

func keywordScale(count int) float64 {
	if count < 1 {
		count = 1
	}
	scale := 0.8 + float64(count)/5*0.2
	if scale > 1.2 {
		scale = 1.2
	}
	return scale
}

// hasData reports whether the analysis carries anything worth charting.
func hasData(a *simulator.AnalysisResult) bool {
	if a.AverageRating != nil || len(a.PositivePoints) > 0 || len(a.KeywordAnalysis) > 0 {
		return true
	}
	raw := bytes.TrimSpace(a.RatingDistribution)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		return json.Unmarshal(raw, &items) == nil && len(items) > 0
	case '{':
		var fields map[string]json.RawMessage
		if json.Unmarshal(raw, &fields) != nil {
			return false
		}
		for _, names := range starKeys {
			for _, name := range names {
				if _, ok := fields[name]; ok {
					return true
				}
			}
		}
	}
	return false
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
