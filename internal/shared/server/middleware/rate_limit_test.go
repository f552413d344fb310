package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitGenerationOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		GroupFor: GenerationGroup,
		Limiter:  limiter,
		Rules: map[string]RateLimitRule{
			GroupGeneration: {Rate: 0.5, Burst: 2},
		},
	}))
	r.POST("/api/v1/sessions/:id/bots", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/sessions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func(id string) *httptest.ResponseRecorder {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/bots", nil))
		return resp
	}

	for i := 0; i < 2; i++ {
		if resp := post("s1"); resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.Code)
		}
	}
	limited := post("s1")
	if limited.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", limited.Code)
	}
	if got := limited.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
	if resp := post("s2"); resp.Code != http.StatusOK {
		t.Fatalf("other session must have its own bucket, got %d", resp.Code)
	}

	for i := 0; i < 5; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("reads must not be limited, got %d", resp.Code)
		}
	}

	now = now.Add(2 * time.Second)
	if resp := post("s1"); resp.Code != http.StatusOK {
		t.Fatalf("expected refill after 2s, got %d", resp.Code)
	}
}

func TestGenerationGroupCoversBackendRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		method, route, want string
	}{
		{http.MethodPost, "/api/v1/sessions/:id/product/analyze", GroupGeneration},
		{http.MethodPost, "/api/v1/sessions/:id/product/save", GroupGeneration},
		{http.MethodPost, "/api/v1/sessions/:id/bots", GroupGeneration},
		{http.MethodPost, "/api/v1/sessions/:id/reviews", GroupGeneration},
		{http.MethodPost, "/api/v1/sessions/:id/analysis", GroupGeneration},
		{http.MethodPost, "/api/v1/sessions/:id/run", GroupGeneration},
		{http.MethodPost, "/api/v1/sessions/:id/reset", GroupGeneration},
		{http.MethodPost, "/api/v1/sessions/:id/restart", GroupDefault},
		{http.MethodPost, "/api/v1/sessions/:id/continue", GroupDefault},
		{http.MethodPut, "/api/v1/sessions/:id/product", GroupDefault},
		{http.MethodGet, "/api/v1/sessions/:id", GroupDefault},
	}
	for _, tc := range cases {
		var got string
		r := gin.New()
		r.Handle(tc.method, tc.route, func(c *gin.Context) {
			got = GenerationGroup(c)
			c.Status(http.StatusOK)
		})
		path := strings.ReplaceAll(tc.route, ":id", "s1")
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, path, nil))
		if got != tc.want {
			t.Fatalf("%s %s: expected group %q, got %q", tc.method, tc.route, tc.want, got)
		}
	}
}
