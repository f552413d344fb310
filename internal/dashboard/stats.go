package dashboard

import (
	"fmt"
	"math"

	"review-simulator/internal/simulator"
)

// ReviewStats summarizes the ratings of the reviews currently held.
type ReviewStats struct {
	Count int `json:"count"`
	// Average is the exact arithmetic mean.
	Average float64 `json:"average"`
	// Label is the mean to one decimal place.
	Label string `json:"label"`
	// Stars is the mean rounded to the nearest whole star, used only for highlighting.
	Stars int `json:"stars"`
}

// ComputeReviewStats averages review ratings. Zero reviews yield a zero mean.
func ComputeReviewStats(reviews []simulator.Review) ReviewStats {
	stats := ReviewStats{Count: len(reviews), Label: "0.0"}
	if len(reviews) == 0 {
		return stats
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	stats.Average = float64(sum) / float64(len(reviews))
	stats.Label = fmt.Sprintf("%.1f", stats.Average)
	stats.Stars = int(math.Round(stats.Average))
	return stats
}
