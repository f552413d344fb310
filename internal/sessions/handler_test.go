package sessions

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"review-simulator/internal/wizard"
)

type viewEnvelope struct {
	ID   string           `json:"id"`
	View wizard.PhaseView `json:"view"`
}

func newTestRouter(stub *stubBackend) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewManager(NewMemoryRepo(), stub, nil)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, viewEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	var env viewEnvelope
	if resp.Body.Len() > 0 {
		_ = json.Unmarshal(resp.Body.Bytes(), &env)
	}
	return resp, env
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	resp, env := do(t, r, http.MethodPost, "/api/v1/sessions", "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if env.ID == "" || env.View.Phase != "product" {
		t.Fatalf("unexpected create response %+v", env)
	}
	return env.ID
}

func TestHandlerWalksAllPhases(t *testing.T) {
	stub := newStubBackend()
	r := newTestRouter(stub)
	id := createSession(t, r)
	base := "/api/v1/sessions/" + id

	steps := []struct {
		method, path, body, phase string
	}{
		{http.MethodPost, base + "/product/analyze", `{"url":"https://shop.example/widget"}`, "config"},
		{http.MethodPost, base + "/bots", "", "profiles"},
		{http.MethodPost, base + "/reviews", "", "reviews"},
		{http.MethodPost, base + "/analysis", "", "dashboard"},
	}
	for _, s := range steps {
		resp, env := do(t, r, s.method, s.path, s.body)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", s.path, resp.Code, resp.Body.String())
		}
		if env.View.Phase != s.phase {
			t.Fatalf("%s: expected phase %s, got %s", s.path, s.phase, env.View.Phase)
		}
	}

	_, env := do(t, r, http.MethodGet, base, "")
	if env.View.Dashboard == nil || env.View.Dashboard.Analysis.AverageLabel != "5.0" {
		t.Fatalf("unexpected dashboard %+v", env.View.Dashboard)
	}

	resp, env := do(t, r, http.MethodPost, base+"/step", `{"step":1}`)
	if resp.Code != http.StatusOK || env.View.Phase != "config" {
		t.Fatalf("step back failed: %d %s", resp.Code, env.View.Phase)
	}
	_, env = do(t, r, http.MethodPost, base+"/step", `{"step":4}`)
	if env.View.Phase != "config" {
		t.Fatalf("forward jump must be ignored, got %s", env.View.Phase)
	}
	_, env = do(t, r, http.MethodPost, base+"/restart", "")
	if env.View.Phase != "config" || env.View.Config == nil || env.View.Config.HasProfiles {
		t.Fatalf("restart must clear profiles: %+v", env.View.Config)
	}
}

func TestHandlerEmptyURLIsBadRequestWithoutCall(t *testing.T) {
	stub := newStubBackend()
	r := newTestRouter(stub)
	id := createSession(t, r)

	resp, env := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/product/analyze", `{"url":""}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if env.View.Error == nil || env.View.Error.Status != http.StatusBadRequest {
		t.Fatalf("expected banner in view, got %+v", env.View.Error)
	}
	if stub.count("analyze") != 0 {
		t.Fatalf("expected no backend call")
	}

	resp, env = do(t, r, http.MethodDelete, "/api/v1/sessions/"+id+"/error", "")
	if resp.Code != http.StatusOK || env.View.Error != nil {
		t.Fatalf("dismiss failed: %d %+v", resp.Code, env.View.Error)
	}
}

func TestHandlerRestartOnFreshSessionIsBadRequest(t *testing.T) {
	r := newTestRouter(newStubBackend())
	id := createSession(t, r)

	resp, env := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/restart", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if env.View.Phase != "product" || env.View.Error == nil {
		t.Fatalf("expected product phase with banner, got %+v", env.View)
	}
}

func TestHandlerEmptyProfilesAnswers500WithView(t *testing.T) {
	stub := newStubBackend()
	stub.bots = nil
	r := newTestRouter(stub)
	id := createSession(t, r)
	base := "/api/v1/sessions/" + id

	do(t, r, http.MethodPost, base+"/product/analyze", `{"url":"https://shop.example/widget"}`)
	resp, env := do(t, r, http.MethodPost, base+"/bots", "")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if env.View.Phase != "config" || env.View.Error == nil {
		t.Fatalf("expected config phase with banner, got %+v", env.View)
	}
}

func TestHandlerBadInput(t *testing.T) {
	r := newTestRouter(newStubBackend())
	id := createSession(t, r)

	resp, _ := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/product/analyze", `{`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", resp.Code)
	}
	resp, _ = do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/step", `{}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing step, got %d", resp.Code)
	}
	resp, _ = do(t, r, http.MethodPut, "/api/v1/sessions/"+id+"/config", `{"population_range":[5,2],"demographics":{"gender_ratio":"Male"}}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid config, got %d", resp.Code)
	}
}

func TestHandlerUnknownSession(t *testing.T) {
	r := newTestRouter(newStubBackend())
	resp, _ := do(t, r, http.MethodGet, "/api/v1/sessions/nope", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil || body.Error.Code != "not_found" {
		t.Fatalf("expected not_found envelope, got %s", resp.Body.String())
	}
	resp, _ = do(t, r, http.MethodPost, "/api/v1/sessions/nope/bots", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for action on unknown session, got %d", resp.Code)
	}
}

func TestHandlerDeleteSession(t *testing.T) {
	r := newTestRouter(newStubBackend())
	id := createSession(t, r)
	resp, _ := do(t, r, http.MethodDelete, "/api/v1/sessions/"+id, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	resp, _ = do(t, r, http.MethodGet, "/api/v1/sessions/"+id, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestHandlerDatasheetImport(t *testing.T) {
	r := newTestRouter(newStubBackend())
	id := createSession(t, r)

	var doc bytes.Buffer
	zw := zip.NewWriter(&doc)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	_, _ = w.Write([]byte(`<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>Stainless steel kettle</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "kettle.docx")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write(doc.Bytes())
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/product/datasheet", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var env viewEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.View.Product == nil || env.View.Product.Product.Description != "Stainless steel kettle" {
		t.Fatalf("unexpected product view %+v", env.View.Product)
	}
}
