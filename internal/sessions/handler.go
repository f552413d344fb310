package sessions

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"review-simulator/internal/backend"
	"review-simulator/internal/extract"
	"review-simulator/internal/shared/server/respond"
	"review-simulator/internal/shared/util"
	"review-simulator/internal/simulator"
	"review-simulator/internal/wizard"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler exposes wizard sessions over HTTP.
type Handler struct {
	Manager *Manager
}

// NewHandler constructs a Handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{Manager: manager}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	s := rg.Group("/sessions")
	s.POST("", h.create)
	s.GET("/:id", h.get)
	s.DELETE("/:id", h.remove)

	s.POST("/:id/product/analyze", h.analyzeProduct)
	s.PUT("/:id/product", h.setProduct)
	s.POST("/:id/product/save", h.action(func(ctx context.Context, w *wizard.Controller) error { return w.SaveProduct(ctx) }))
	s.POST("/:id/product/datasheet", h.importDatasheet)
	s.PUT("/:id/config", h.setConfig)
	s.POST("/:id/bots", h.action(func(ctx context.Context, w *wizard.Controller) error { return w.GenerateBots(ctx) }))
	s.POST("/:id/reviews", h.action(func(ctx context.Context, w *wizard.Controller) error { return w.GenerateReviews(ctx) }))
	s.POST("/:id/analysis", h.action(func(ctx context.Context, w *wizard.Controller) error { return w.GenerateAnalysis(ctx) }))
	s.POST("/:id/run", h.runAll)
	s.POST("/:id/reset", h.action(func(ctx context.Context, w *wizard.Controller) error { return w.Reset(ctx) }))
	s.POST("/:id/step", h.goToStep)
	s.POST("/:id/continue", h.action(func(_ context.Context, w *wizard.Controller) error { return w.Continue() }))
	s.POST("/:id/restart", h.action(func(_ context.Context, w *wizard.Controller) error { return w.Restart() }))
	s.DELETE("/:id/error", h.action(func(_ context.Context, w *wizard.Controller) error { w.DismissError(); return nil }))
}

type sessionResponse struct {
	ID   string           `json:"id"`
	View wizard.PhaseView `json:"view"`
}

type productURLRequest struct {
	URL string `json:"url"`
}

type stepRequest struct {
	Step *int `json:"step"`
}

func (h *Handler) create(c *gin.Context) {
	id, view, err := h.Manager.Create(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create session", nil)
		return
	}
	c.Set(respond.SessionIDKey, id)
	respond.JSON(c, http.StatusCreated, sessionResponse{ID: id, View: view})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(respond.SessionIDKey, id)
	view, err := h.Manager.View(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, sessionResponse{ID: id, View: view})
}

func (h *Handler) remove(c *gin.Context) {
	id := c.Param("id")
	c.Set(respond.SessionIDKey, id)
	if err := h.Manager.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) analyzeProduct(c *gin.Context) {
	var req productURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	h.run(c, func(ctx context.Context, w *wizard.Controller) error {
		return w.AnalyzeProduct(ctx, req.URL)
	})
}

func (h *Handler) runAll(c *gin.Context) {
	var req productURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	h.run(c, func(ctx context.Context, w *wizard.Controller) error {
		return w.RunAll(ctx, req.URL)
	})
}

func (h *Handler) setProduct(c *gin.Context) {
	var product simulator.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid product", nil)
		return
	}
	h.run(c, func(_ context.Context, w *wizard.Controller) error {
		return w.SetProduct(product)
	})
}

func (h *Handler) setConfig(c *gin.Context) {
	var cfg simulator.GenerationConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid configuration", nil)
		return
	}
	h.run(c, func(_ context.Context, w *wizard.Controller) error {
		return w.SetConfig(cfg)
	})
}

func (h *Handler) goToStep(c *gin.Context) {
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Step == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "step is required", nil)
		return
	}
	h.run(c, func(_ context.Context, w *wizard.Controller) error {
		w.GoToStep(wizard.Phase(*req.Step))
		return nil
	})
}

func (h *Handler) importDatasheet(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	name, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	text, err := extract.Datasheet(c.Request.Context(), data, fileHeader.Header.Get("Content-Type"), name)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupported) {
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "datasheet must be a PDF or DOCX file", nil)
			return
		}
		respond.Error(c, http.StatusUnprocessableEntity, "extract_failed", "could not read text from datasheet", nil)
		return
	}
	h.run(c, func(_ context.Context, w *wizard.Controller) error {
		return w.ImportDescription(text)
	})
}

// action adapts a controller call that needs no request body.
func (h *Handler) action(fn func(ctx context.Context, w *wizard.Controller) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.run(c, fn)
	}
}

// run executes fn on the session and answers with its view. The action's
// context is detached from the request so a client disconnect does not
// discard a result that is already on its way.
func (h *Handler) run(c *gin.Context, fn func(ctx context.Context, w *wizard.Controller) error) {
	id := c.Param("id")
	c.Set(respond.SessionIDKey, id)
	before, _ := h.Manager.View(c.Request.Context(), id)

	view, err := h.Manager.Do(context.WithoutCancel(c.Request.Context()), id, fn)
	if before.Phase != "" && view.Phase != "" && before.Phase != view.Phase {
		c.Set(respond.PhaseTransitionKey, before.Phase+"->"+view.Phase)
	}
	if err == nil {
		respond.OK(c, sessionResponse{ID: id, View: view})
		return
	}

	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		// failed actions still return the view so the banner can be shown
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusInternalServerError
		}
		respond.JSON(c, status, sessionResponse{ID: id, View: view})
	default:
		h.fail(c, err)
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, wizard.ErrBusy):
		respond.Error(c, http.StatusConflict, "busy", "action already in progress", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "session update failed", nil)
	}
}
