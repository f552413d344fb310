package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"review-simulator/internal/simulator"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	client, err := NewHTTPClient(opts)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return client
}

func TestAnalyzeProductNormalizesFeatures(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/phase1" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = io.WriteString(w, `{
			"id": 7,
			"name": "Kettle",
			"price": 49.5,
			"main_features": [{"feature": "Capacity", "description": "1.7 L"}, {"feature": "Auto off", "value": "yes", "description": "ignored"}],
			"technical_specs": [{"spec": "Power"}]
		}`)
	}, Options{Model: "gpt-4o-mini"})

	product, err := client.AnalyzeProduct(context.Background(), "https://shop.example/kettle")
	if err != nil {
		t.Fatalf("AnalyzeProduct: %v", err)
	}

	if gotBody["product_url"] != "https://shop.example/kettle" || gotBody["model_name"] != "gpt-4o-mini" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
	id := int64(7)
	want := simulator.Product{
		ID:    &id,
		Name:  "Kettle",
		Price: "49.5",
		MainFeatures: []simulator.Feature{
			{Feature: "Capacity", Value: "1.7 L"},
			{Feature: "Auto off", Value: "yes"},
		},
		TechnicalSpecs: []simulator.Spec{{Spec: "Power", Value: ""}},
	}
	if diff := cmp.Diff(want, product); diff != "" {
		t.Fatalf("product mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateBotsSendsProfileParameters(t *testing.T) {
	var got struct {
		NumReviewers      int            `json:"num_reviewers"`
		ProfileParameters map[string]any `json:"profile_parameters"`
		ModelName         *string        `json:"model_name"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = io.WriteString(w, `{"profiles":[{"id":1,"name":"Ana","personality":{"safe_risky":70}}]}`)
	}, Options{})

	pid := int64(3)
	bots, err := client.GenerateBots(context.Background(), simulator.DefaultGenerationConfig(), &pid)
	if err != nil {
		t.Fatalf("GenerateBots: %v", err)
	}
	if len(bots) != 1 || bots[0].Name != "Ana" || bots[0].Personality.SafeRisky != 70 {
		t.Fatalf("unexpected bots: %+v", bots)
	}
	if got.NumReviewers != 8 {
		t.Fatalf("num_reviewers = %d, want 8", got.NumReviewers)
	}
	if got.ModelName != nil {
		t.Fatalf("model_name should be omitted when unset")
	}
	if got.ProfileParameters["product_id"] != float64(3) {
		t.Fatalf("product_id missing: %v", got.ProfileParameters)
	}
	if _, ok := got.ProfileParameters["personality"]; !ok {
		t.Fatalf("personality missing: %v", got.ProfileParameters)
	}
}

func TestGenerateBotsMissingProfilesKeyIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}, Options{})

	bots, err := client.GenerateBots(context.Background(), simulator.DefaultGenerationConfig(), nil)
	if err != nil {
		t.Fatalf("GenerateBots: %v", err)
	}
	if len(bots) != 0 {
		t.Fatalf("expected no bots, got %d", len(bots))
	}
}

func TestGenerateReviewsAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "object", body: `{"reviews":[{"id":1,"bot_id":1,"rating":5}]}`, want: 1},
		{name: "bare array", body: `[{"id":1,"rating":4},{"id":2,"rating":2}]`, want: 2},
		{name: "unexpected", body: `{"status":"ok"}`, want: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}, Options{})
			reviews, err := client.GenerateReviews(context.Background())
			if err != nil {
				t.Fatalf("GenerateReviews: %v", err)
			}
			if len(reviews) != tt.want {
				t.Fatalf("got %d reviews, want %d", len(reviews), tt.want)
			}
		})
	}
}

func TestGenerateAnalysisParsesStringPayload(t *testing.T) {
	inner := `{"average_rating":4.2,"rating_distribution":[0,1,2,3,4],"keyword_analysis":[{"word":"sturdy"}],"positive_points":["solid"]}`
	encoded, _ := json.Marshal(inner)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(encoded)
	}, Options{})

	analysis, err := client.GenerateAnalysis(context.Background())
	if err != nil {
		t.Fatalf("GenerateAnalysis: %v", err)
	}
	if analysis.AverageRating == nil || *analysis.AverageRating != 4.2 {
		t.Fatalf("unexpected average: %v", analysis.AverageRating)
	}
	if len(analysis.KeywordAnalysis) != 1 {
		t.Fatalf("expected one keyword, got %d", len(analysis.KeywordAnalysis))
	}
	kw := analysis.KeywordAnalysis[0]
	if string(kw.Count) != "1" || kw.Sentiment != simulator.SentimentNeutral {
		t.Fatalf("keyword defaults not applied: %+v", kw)
	}
	if analysis.NegativePoints == nil || len(analysis.NegativePoints) != 0 {
		t.Fatalf("expected empty negative points, got %v", analysis.NegativePoints)
	}
}

func TestGenerateAnalysisUnparseableString(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `"not json at all"`)
	}, Options{})

	_, err := client.GenerateAnalysis(context.Background())
	if err == nil {
		t.Fatalf("expected parse error")
	}
	apiErr := Normalize("generate analysis", err)
	if apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", apiErr.Status)
	}
	if apiErr.Details == "" {
		t.Fatalf("expected descriptive details")
	}
}

func TestGenerateAnalysisEmptyObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}, Options{})

	_, err := client.GenerateAnalysis(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 APIError, got %v", err)
	}
}

func TestStructuredErrorPassesThrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"phase 2 has not run","details":"no profiles"}`)
	}, Options{})

	_, err := client.GenerateReviews(context.Background())
	got := Normalize("generate reviews", err)
	want := &APIError{Status: http.StatusBadRequest, Message: "phase 2 has not run", Details: "no profiles", Structured: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("error mismatch (-want +got):\n%s", diff)
	}
}

func TestUnstructuredErrorKeepsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	}, Options{})

	_, err := client.GenerateReviews(context.Background())
	got := Normalize("generate reviews", err)
	if got.Status != http.StatusBadGateway || got.Message != "Error 502: Bad Gateway" {
		t.Fatalf("unexpected error: %+v", got)
	}
}

func TestConnectionErrorBecomes500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := NewHTTPClient(Options{BaseURL: url})
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	_, err = client.GenerateReviews(context.Background())
	got := Normalize("generate reviews", err)
	if got.Status != http.StatusInternalServerError || got.Message != "generate reviews failed" {
		t.Fatalf("unexpected error: %+v", got)
	}
}

func TestCurrentResults404IsNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"Recurso no encontrado"}`)
	}, Options{})

	_, err := client.CurrentResults(context.Background())
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestCurrentResultsUnwrapsNestedReviews(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"product": {"name": "Kettle", "main_features": [{"feature": "Capacity", "description": "1.7 L"}]},
			"reviewers": [{"id": 1, "name": "Ana"}],
			"reviews": {"reviews": [{"id": 1, "bot_id": 1, "rating": 5}]},
			"analysis": {}
		}`)
	}, Options{})

	results, err := client.CurrentResults(context.Background())
	if err != nil {
		t.Fatalf("CurrentResults: %v", err)
	}
	if results.Product == nil || results.Product.MainFeatures[0].Value != "1.7 L" {
		t.Fatalf("product not normalized: %+v", results.Product)
	}
	if len(results.Reviews) != 1 || len(results.Reviewers) != 1 {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results.Analysis != nil {
		t.Fatalf("empty analysis should be treated as absent")
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var auth atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}, Options{Token: "s3cret"})

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if got, _ := auth.Load().(string); got != "Bearer s3cret" {
		t.Fatalf("Authorization = %q", got)
	}
}

func TestNewHTTPClientRejectsBadScheme(t *testing.T) {
	if _, err := NewHTTPClient(Options{BaseURL: "ftp://example"}); err == nil {
		t.Fatalf("expected error for ftp url")
	}
}
