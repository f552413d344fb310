package dashboard

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Buckets is the number of star buckets; index 0 is one star, index 4 five stars.
const Buckets = 5

// starKeys lists keyed-object fields per bucket index. Backends have sent both
// singular and plural spellings; the first present spelling wins.
var starKeys = [Buckets][]string{
	{"one_star", "one_stars"},
	{"two_star", "two_stars"},
	{"three_star", "three_stars"},
	{"four_star", "four_stars"},
	{"five_star", "five_stars"},
}

// NormalizeDistribution coerces a rating_distribution payload into five
// ordered counts. Arrays are truncated or zero-padded; keyed objects map
// one_star..five_star to indexes 0..4 with unset fields as 0; any other shape
// yields all zeros.
func NormalizeDistribution(raw json.RawMessage) [Buckets]int {
	var out [Buckets]int
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return out
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return out
		}
		for i := 0; i < len(items) && i < Buckets; i++ {
			out[i] = toCount(items[i])
		}
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return out
		}
		for idx, names := range starKeys {
			for _, name := range names {
				if value, ok := fields[name]; ok {
					out[idx] = toCount(value)
					break
				}
			}
		}
	}
	return out
}

// toCount reads a non-negative count from a JSON number or numeric string.
// Anything else counts as zero.
func toCount(raw json.RawMessage) int {
	f, ok := toNumber(raw)
	if !ok || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

func toNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// Percentages returns count/total*100 per bucket, with total floored to 1 so
// an empty distribution renders as zeros.
func Percentages(counts [Buckets]int) [Buckets]float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total < 1 {
		total = 1
	}
	var out [Buckets]float64
	for i, c := range counts {
		out[i] = float64(c) / float64(total) * 100
	}
	return out
}
