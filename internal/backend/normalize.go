package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"review-simulator/internal/simulator"
)

// wireFeature accepts either value or description for the feature text.
type wireFeature struct {
	Feature     string `json:"feature"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type wireSpec struct {
	Spec        string `json:"spec"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type wireProduct struct {
	ID             *int64          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          json.RawMessage `json:"price"`
	Category       string          `json:"category"`
	Image          string          `json:"image"`
	MainFeatures   []wireFeature   `json:"main_features"`
	TechnicalSpecs []wireSpec      `json:"technical_specs"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// decodeProduct parses a product and folds description into value for features and specs.
func decodeProduct(raw []byte) (simulator.Product, error) {
	var wp wireProduct
	if err := json.Unmarshal(raw, &wp); err != nil {
		return simulator.Product{}, fmt.Errorf("decode product: %w", err)
	}
	p := simulator.Product{
		ID:          wp.ID,
		Name:        wp.Name,
		Description: wp.Description,
		Price:       scalarString(wp.Price),
		Category:    wp.Category,
		Image:       wp.Image,
	}
	if wp.MainFeatures != nil {
		p.MainFeatures = make([]simulator.Feature, 0, len(wp.MainFeatures))
		for _, f := range wp.MainFeatures {
			p.MainFeatures = append(p.MainFeatures, simulator.Feature{
				Feature: f.Feature,
				Value:   firstNonEmpty(f.Value, f.Description),
			})
		}
	}
	if wp.TechnicalSpecs != nil {
		p.TechnicalSpecs = make([]simulator.Spec, 0, len(wp.TechnicalSpecs))
		for _, s := range wp.TechnicalSpecs {
			p.TechnicalSpecs = append(p.TechnicalSpecs, simulator.Spec{
				Spec:  s.Spec,
				Value: firstNonEmpty(s.Value, s.Description),
			})
		}
	}
	return p, nil
}

// scalarString renders a JSON string or number as plain text.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// decodeProfiles extracts the profiles list. A missing key decodes to an empty list.
func decodeProfiles(raw []byte) ([]simulator.BotProfile, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	var body struct {
		Profiles []simulator.BotProfile `json:"profiles"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return body.Profiles, nil
}

// decodeReviews accepts a bare array, an object with a reviews array, or
// anything else as an empty list.
func decodeReviews(raw []byte) ([]simulator.Review, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var reviews []simulator.Review
		if err := json.Unmarshal(raw, &reviews); err != nil {
			return nil, fmt.Errorf("decode reviews: %w", err)
		}
		return reviews, nil
	case '{':
		var body struct {
			Reviews json.RawMessage `json:"reviews"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("decode reviews: %w", err)
		}
		inner := bytes.TrimSpace(body.Reviews)
		if len(inner) == 0 || inner[0] != '[' {
			return nil, nil
		}
		var reviews []simulator.Review
		if err := json.Unmarshal(inner, &reviews); err != nil {
			return nil, fmt.Errorf("decode reviews: %w", err)
		}
		return reviews, nil
	default:
		return nil, nil
	}
}

var (
	// errAnalysisShape is returned when the analysis payload is neither an object nor a JSON string holding one.
	errAnalysisShape = errors.New("analysis payload is not an object")
	// errAnalysisEmpty is returned for an object carrying none of the analysis fields.
	errAnalysisEmpty = errors.New("analysis payload has no analysis fields")
)

var analysisFields = []string{
	"average_rating",
	"rating_distribution",
	"positive_points",
	"negative_points",
	"keyword_analysis",
	"demographic_insights",
}

// decodeAnalysis accepts the analysis as an object or as a JSON-encoded string.
// List fields of the wrong shape decode as empty; keyword entries default to
// count 1 and neutral sentiment.
func decodeAnalysis(raw []byte) (simulator.AnalysisResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return simulator.AnalysisResult{}, fmt.Errorf("decode analysis string: %w", err)
		}
		raw = bytes.TrimSpace([]byte(inner))
		if len(raw) == 0 || raw[0] != '{' {
			return simulator.AnalysisResult{}, fmt.Errorf("parse analysis string: %w", errAnalysisShape)
		}
	}
	if len(raw) == 0 || raw[0] != '{' {
		return simulator.AnalysisResult{}, errAnalysisShape
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return simulator.AnalysisResult{}, fmt.Errorf("parse analysis: %w", err)
	}
	known := false
	for _, field := range analysisFields {
		if _, ok := keys[field]; ok {
			known = true
			break
		}
	}
	if !known {
		return simulator.AnalysisResult{}, errAnalysisEmpty
	}

	out := simulator.AnalysisResult{
		AverageRating:       parseNumber(keys["average_rating"]),
		RatingDistribution:  keys["rating_distribution"],
		PositivePoints:      stringList(keys["positive_points"]),
		NegativePoints:      stringList(keys["negative_points"]),
		DemographicInsights: stringList(keys["demographic_insights"]),
		KeywordAnalysis:     []simulator.KeywordAnalysis{},
	}
	var items []json.RawMessage
	if err := json.Unmarshal(keys["keyword_analysis"], &items); err != nil {
		items = nil
	}
	for _, item := range items {
		var kw struct {
			Word      string          `json:"word"`
			Count     json.RawMessage `json:"count"`
			Sentiment string          `json:"sentiment"`
		}
		if err := json.Unmarshal(item, &kw); err != nil {
			continue
		}
		count := bytes.TrimSpace(kw.Count)
		if len(count) == 0 || bytes.Equal(count, []byte("null")) {
			count = json.RawMessage("1")
		}
		if kw.Sentiment == "" {
			kw.Sentiment = simulator.SentimentNeutral
		}
		out.KeywordAnalysis = append(out.KeywordAnalysis, simulator.KeywordAnalysis{
			Word:      kw.Word,
			Count:     count,
			Sentiment: kw.Sentiment,
		})
	}
	return out, nil
}

// stringList decodes a JSON array of strings, skipping non-string entries.
func stringList(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// parseNumber reads a JSON number or numeric string. Anything else is nil.
func parseNumber(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}
	return nil
}

// decodeResults parses GET /results, tolerating nested reviews and absent slices.
func decodeResults(raw []byte) (simulator.SessionResults, error) {
	var body struct {
		Product   json.RawMessage        `json:"product"`
		Reviewers []simulator.BotProfile `json:"reviewers"`
		Reviews   json.RawMessage        `json:"reviews"`
		Analysis  json.RawMessage        `json:"analysis"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return simulator.SessionResults{}, fmt.Errorf("decode results: %w", err)
	}

	var out simulator.SessionResults
	if isPresent(body.Product) {
		p, err := decodeProduct(body.Product)
		if err != nil {
			return simulator.SessionResults{}, err
		}
		out.Product = &p
	}
	out.Reviewers = body.Reviewers
	reviews, err := decodeReviews(body.Reviews)
	if err != nil {
		return simulator.SessionResults{}, err
	}
	out.Reviews = reviews
	if isPresent(body.Analysis) {
		a, err := decodeAnalysis(body.Analysis)
		switch {
		case errors.Is(err, errAnalysisEmpty):
		case err != nil:
			return simulator.SessionResults{}, err
		default:
			out.Analysis = &a
		}
	}
	return out, nil
}

func isPresent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && !bytes.Equal(raw, []byte("{}"))
}
