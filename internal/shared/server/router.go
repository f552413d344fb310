package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"review-simulator/internal/services/health"
	"review-simulator/internal/shared/metrics"
	"review-simulator/internal/shared/server/middleware"
	"review-simulator/internal/shared/server/respond"
)

// RouteRegistrar attaches a feature's routes under /api/v1.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries everything NewRouter wires.
type RouterDeps struct {
	Env            string
	AllowedOrigins []string
	// Health backs /api/v1/health; a failing check turns the response into 503.
	Health     *health.Service
	RateLimits map[string]middleware.RateLimitRule
	Features   []RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.AllowedOrigins),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.Health))

	features := api.Group("")
	if len(deps.RateLimits) > 0 {
		features.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    deps.RateLimits,
			GroupFor: middleware.GenerationGroup,
		}))
	}
	for _, f := range deps.Features {
		f.RegisterRoutes(features)
	}
	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	if svc == nil {
		svc = health.NewService(nil)
	}
	return func(c *gin.Context) {
		report := svc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
