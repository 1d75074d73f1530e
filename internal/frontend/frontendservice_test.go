package frontend

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jo-hoe/plantdoctor/internal/backend"
	"github.com/jo-hoe/plantdoctor/internal/backend/database"
	"github.com/jo-hoe/plantdoctor/internal/backend/prediction"
	"github.com/jo-hoe/plantdoctor/internal/backend/storage"
	"github.com/jo-hoe/plantdoctor/internal/core"
	"github.com/labstack/echo/v4"
)

// fixedPredictor returns the same diagnosis for every image.
type fixedPredictor struct {
	label      string
	confidence float64
}

func (p *fixedPredictor) Name() string { return "fixed" }

func (p *fixedPredictor) Predict(_ context.Context, _ []byte) prediction.Result {
	return prediction.Result{Outcome: prediction.Success, Label: p.label, Confidence: p.confidence}
}

func (p *fixedPredictor) Close() error { return nil }

func newTestServer(t *testing.T, predictor prediction.Predictor) (*echo.Echo, *core.CoreService) {
	t.Helper()
	config := core.DefaultConfig()
	config.UploadDir = filepath.Join(t.TempDir(), "uploads")

	store, err := storage.NewFileStore(config.UploadDir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	db, err := database.NewDatabase("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	coreService := core.NewCoreServiceWith(config, db, store, predictor)
	t.Cleanup(func() { _ = coreService.Close() })

	e := echo.New()
	backend.NewAPIService(config, coreService).SetRoutes(e)
	NewFrontendService(config, coreService).SetRoutes(e)
	return e, coreService
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/htmx/upload", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIndexHandler(t *testing.T) {
	e, _ := newTestServer(t, &fixedPredictor{label: "Healthy Leaf", confidence: 99})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/"+MainPageName, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected HTML content type, got %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`hx-post="/htmx/upload"`, `name="image"`, `hx-get="/htmx/history"`, "max 10 MiB"} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestRootStaysJSONStatus(t *testing.T) {
	e, _ := newTestServer(t, &fixedPredictor{label: "Healthy Leaf", confidence: 99})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Plant Disease Detection API is running!") {
		t.Errorf("expected JSON status on /, got %q", rec.Body.String())
	}
}

func TestHtmxUploadHandler_ShowsDiagnosisAndTip(t *testing.T) {
	e, _ := newTestServer(t, &fixedPredictor{label: "Apple Scab", confidence: 95.2})

	rec := serve(e, uploadRequest(t, "apple.png", []byte("leaf")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Image uploaded successfully!",
		`class="danger"`,
		"Apple Scab",
		"95.20%",
		"apple.png",
		"Prune infected branches; ensure good air flow.",
		`hx-swap-oob="true"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("upload fragment missing %q:\n%s", want, body)
		}
	}
}

func TestHtmxUploadHandler_NoImage(t *testing.T) {
	e, coreService := newTestServer(t, &fixedPredictor{label: "Apple Scab", confidence: 95.2})

	rec := serve(e, uploadRequest(t, "", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No image uploaded!") {
		t.Errorf("expected no-image message, got %q", rec.Body.String())
	}

	records, err := coreService.History(context.Background())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestHtmxUploadHandler_StorageFailure(t *testing.T) {
	e, coreService := newTestServer(t, &fixedPredictor{label: "Apple Scab", confidence: 95.2})
	_ = coreService.Close()

	rec := serve(e, uploadRequest(t, "leaf.png", []byte("x")))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `class="danger"`) {
		t.Errorf("expected error fragment, got %q", rec.Body.String())
	}
}

func TestHtmxUploadHandler_EscapesFilename(t *testing.T) {
	e, _ := newTestServer(t, &fixedPredictor{label: "Corn Rust", confidence: 91.8})

	// no slash, so the name survives base-name reduction
	rec := serve(e, uploadRequest(t, "<img src=x onerror=alert(1)>.png", []byte("x")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<img src=x") {
		t.Error("filename rendered without escaping")
	}
	if !strings.Contains(body, "&lt;img src=x") {
		t.Errorf("expected escaped filename in %q", body)
	}
}

func TestHtmxHistoryHandler(t *testing.T) {
	predictor := &fixedPredictor{}
	e, _ := newTestServer(t, predictor)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/htmx/history", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No uploads yet.") {
		t.Fatalf("expected empty history message, got %d %q", rec.Code, rec.Body.String())
	}

	uploads := []struct {
		filename   string
		label      string
		confidence float64
	}{
		{"healthy.png", "Tomato___healthy", 99},
		{"unsure.png", "Potato Late Blight", 65.5},
		{"sick.png", "Corn Rust", 91.8},
	}
	for _, u := range uploads {
		predictor.label, predictor.confidence = u.label, u.confidence
		if rec := serve(e, uploadRequest(t, u.filename, []byte(u.filename))); rec.Code != http.StatusOK {
			t.Fatalf("upload %s returned %d", u.filename, rec.Code)
		}
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/htmx/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Errorf("expected no-store cache header, got %q", got)
	}

	body := rec.Body.String()
	sick := strings.Index(body, "sick.png")
	unsure := strings.Index(body, "unsure.png")
	healthy := strings.Index(body, "healthy.png")
	if sick < 0 || unsure < 0 || healthy < 0 {
		t.Fatalf("history table missing rows:\n%s", body)
	}
	if !(sick < unsure && unsure < healthy) {
		t.Errorf("expected newest row first, got offsets sick=%d unsure=%d healthy=%d", sick, unsure, healthy)
	}
	for _, want := range []string{`<tr class="success">`, `<tr class="warning">`, `<tr class="danger">`, "65.50%"} {
		if !strings.Contains(body, want) {
			t.Errorf("history table missing %q", want)
		}
	}
}

func TestIconHandler(t *testing.T) {
	e, _ := newTestServer(t, &fixedPredictor{})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/icon.svg", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/svg+xml" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("expected SVG body")
	}
}
