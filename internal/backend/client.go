package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"review-simulator/internal/shared/metrics"
	"review-simulator/internal/shared/telemetry"
	"review-simulator/internal/simulator"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

const defaultTimeout = 120 * time.Second

// Client is the generation backend as seen by the wizard. Each method issues
// exactly one HTTP request and never retries.
type Client interface {
	CleanOutputs(ctx context.Context) error
	AnalyzeProduct(ctx context.Context, productURL string) (simulator.Product, error)
	UpdateProduct(ctx context.Context, product simulator.Product) (simulator.Product, error)
	GenerateBots(ctx context.Context, cfg simulator.GenerationConfig, productID *int64) ([]simulator.BotProfile, error)
	GenerateReviews(ctx context.Context) ([]simulator.Review, error)
	GenerateAnalysis(ctx context.Context) (simulator.AnalysisResult, error)
	AnalyzeAll(ctx context.Context, productURL string, reviewers int) (simulator.SessionResults, error)
	CurrentResults(ctx context.Context) (simulator.SessionResults, error)
	Health(ctx context.Context) error
}

// Options configures an HTTPClient.
type Options struct {
	BaseURL string
	// Token, when set, is sent as a bearer token on every request.
	Token   string
	Timeout time.Duration
	// Model is forwarded as model_name; empty lets the backend pick.
	Model string
}

// HTTPClient talks JSON to the generation backend.
type HTTPClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewHTTPClient constructs a client from options.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("backend url must be http(s): %q", opts.BaseURL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport
	if token := strings.TrimSpace(opts.Token); token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   http.DefaultTransport,
		}
	}

	return &HTTPClient{
		baseURL: base,
		model:   strings.TrimSpace(opts.Model),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

type productURLRequest struct {
	ProductURL string `json:"product_url"`
	ModelName  string `json:"model_name,omitempty"`
}

type modelRequest struct {
	ModelName string `json:"model_name,omitempty"`
}

type profileParameters struct {
	ProductID *int64 `json:"product_id,omitempty"`
	simulator.GenerationConfig
}

type botsRequest struct {
	NumReviewers      int               `json:"num_reviewers"`
	ProfileParameters profileParameters `json:"profile_parameters"`
	ModelName         string            `json:"model_name,omitempty"`
}

type analyzeAllRequest struct {
	ProductURL   string `json:"product_url"`
	NumReviewers int    `json:"num_reviewers"`
	ModelName    string `json:"model_name,omitempty"`
}

type errorBody struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

// CleanOutputs clears the backend's artifacts from a previous run.
func (c *HTTPClient) CleanOutputs(ctx context.Context) error {
	_, err := c.do(ctx, "clean_outputs", http.MethodPost, "/clean-outputs", nil)
	return err
}

// AnalyzeProduct asks the backend to scrape and describe a product page.
func (c *HTTPClient) AnalyzeProduct(ctx context.Context, productURL string) (simulator.Product, error) {
	body, err := c.do(ctx, "phase1", http.MethodPost, "/phase1", productURLRequest{
		ProductURL: productURL,
		ModelName:  c.model,
	})
	if err != nil {
		return simulator.Product{}, err
	}
	return decodeProduct(body)
}

// UpdateProduct stores a user-edited product on the backend.
func (c *HTTPClient) UpdateProduct(ctx context.Context, product simulator.Product) (simulator.Product, error) {
	body, err := c.do(ctx, "update_product", http.MethodPut, "/product", product)
	if err != nil {
		return simulator.Product{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return product, nil
	}
	return decodeProduct(body)
}

// GenerateBots requests a reviewer population. An absent profiles key yields an empty slice.
func (c *HTTPClient) GenerateBots(ctx context.Context, cfg simulator.GenerationConfig, productID *int64) ([]simulator.BotProfile, error) {
	body, err := c.do(ctx, "phase2", http.MethodPost, "/phase2", botsRequest{
		NumReviewers: cfg.ReviewerCount(),
		ProfileParameters: profileParameters{
			ProductID:        productID,
			GenerationConfig: cfg,
		},
		ModelName: c.model,
	})
	if err != nil {
		return nil, err
	}
	return decodeProfiles(body)
}

// GenerateReviews requests reviews from the current population.
func (c *HTTPClient) GenerateReviews(ctx context.Context) ([]simulator.Review, error) {
	body, err := c.do(ctx, "phase3", http.MethodPost, "/phase3", modelRequest{ModelName: c.model})
	if err != nil {
		return nil, err
	}
	return decodeReviews(body)
}

// GenerateAnalysis requests the aggregate analysis, accepting a double-encoded payload.
func (c *HTTPClient) GenerateAnalysis(ctx context.Context) (simulator.AnalysisResult, error) {
	body, err := c.do(ctx, "phase4", http.MethodPost, "/phase4", modelRequest{ModelName: c.model})
	if err != nil {
		return simulator.AnalysisResult{}, err
	}
	result, err := decodeAnalysis(body)
	if errors.Is(err, errAnalysisEmpty) {
		return simulator.AnalysisResult{}, EmptyResult("generate analysis", "response contains no analysis")
	}
	if err != nil {
		return simulator.AnalysisResult{}, fmt.Errorf("generate analysis: %w", err)
	}
	return result, nil
}

// AnalyzeAll runs every phase on the backend in one request.
func (c *HTTPClient) AnalyzeAll(ctx context.Context, productURL string, reviewers int) (simulator.SessionResults, error) {
	body, err := c.do(ctx, "analyze_all", http.MethodPost, "/analyze-all", analyzeAllRequest{
		ProductURL:   productURL,
		NumReviewers: reviewers,
		ModelName:    c.model,
	})
	if err != nil {
		return simulator.SessionResults{}, err
	}
	return decodeResults(body)
}

// CurrentResults fetches every artifact of the current run. A 404 is ErrNoResults.
func (c *HTTPClient) CurrentResults(ctx context.Context) (simulator.SessionResults, error) {
	body, err := c.do(ctx, "results", http.MethodGet, "/results", nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return simulator.SessionResults{}, ErrNoResults
		}
		return simulator.SessionResults{}, err
	}
	return decodeResults(body)
}

// Health pings the backend.
func (c *HTTPClient) Health(ctx context.Context) error {
	_, err := c.do(ctx, "health", http.MethodGet, "/health", nil)
	return err
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	start := time.Now()
	body, status, err := c.roundTrip(ctx, method, path, payload)
	elapsed := time.Since(start)

	outcome := "ok"
	fields := map[string]any{
		"op":          op,
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
	}
	if err != nil {
		outcome = "error"
		fields["error"] = err
		telemetry.Warn("backend.call", fields)
	} else {
		telemetry.Info("backend.call", fields)
	}
	metrics.ObserveBackendCall(op, outcome, elapsed)
	return body, err
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, 0, fmt.Errorf("backend request timeout: %w", err)
		}
		return nil, 0, fmt.Errorf("backend connection error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, responseError(resp, body)
	}
	return body, resp.StatusCode, nil
}

// responseError builds an APIError from a non-2xx response, reusing the
// backend's {"error", "details"} body when present.
func responseError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Error) != "" {
		apiErr.Message = parsed.Error
		apiErr.Details = scalarString(parsed.Details)
		apiErr.Structured = true
	}
	return apiErr
}
