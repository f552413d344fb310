package dashboard

import "review-simulator/internal/simulator"

// Sentiment is a three-bucket split of keyword tone.
type Sentiment struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	// Estimated is true when the split came from the rating fallback rather than keywords.
	Estimated bool `json:"estimated"`
}

// Total is the sum of all buckets.
func (s Sentiment) Total() int {
	return s.Positive + s.Neutral + s.Negative
}

// SentimentCounts sums keyword counts per tone. Unknown tones count as
// neutral and non-numeric counts as zero.
//
// When every bucket is zero the split is synthesized from the average rating
// (>= 4: 5/2/1, >= 3: 3/4/2, otherwise 1/2/5) or, with no rating, 1/1/1.
// This fallback exists only so the chart is never blank. It is a display
// approximation with no analytical meaning and is flagged via Estimated.
func SentimentCounts(keywords []simulator.KeywordAnalysis, averageRating *float64) Sentiment {
	var s Sentiment
	for _, kw := range keywords {
		n := toCount(kw.Count)
		switch kw.Sentiment {
		case simulator.SentimentPositive:
			s.Positive += n
		case simulator.SentimentNegative:
			s.Negative += n
		default:
			s.Neutral += n
		}
	}
	if s.Total() > 0 {
		return s
	}

	switch {
	case averageRating == nil:
		return Sentiment{Positive: 1, Neutral: 1, Negative: 1, Estimated: true}
	case *averageRating >= 4:
		return Sentiment{Positive: 5, Neutral: 2, Negative: 1, Estimated: true}
	case *averageRating >= 3:
		return Sentiment{Positive: 3, Neutral: 4, Negative: 2, Estimated: true}
	default:
		return Sentiment{Positive: 1, Neutral: 2, Negative: 5, Estimated: true}
	}
}

// SentimentPercentages returns each bucket's share of the total, guarded against a zero total.
func SentimentPercentages(s Sentiment) (positive, neutral, negative float64) {
	total := s.Total()
	if total < 1 {
		total = 1
	}
	t := float64(total)
	return float64(s.Positive) / t * 100, float64(s.Neutral) / t * 100, float64(s.Negative) / t * 100
}
