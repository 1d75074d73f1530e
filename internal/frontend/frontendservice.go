package frontend

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/plantdoctor/internal/backend/database"
	"github.com/jo-hoe/plantdoctor/internal/backend/storage"
	"github.com/jo-hoe/plantdoctor/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"

	uploadResultTemplate = "upload-result"
	historyTemplate      = "history-table"
	noImageMessage       = "No image uploaded!"
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

// resultView is one diagnosis as shown on the page.
type resultView struct {
	Message    string
	Filename   string
	Disease    string
	Confidence float64
	Tip        string
	Class      string
}

type indexView struct {
	MaxUploadMiB int64
}

type historyRow struct {
	*database.UploadRecord
	Class string
}

type uploadView struct {
	Error   string
	Result  *resultView
	History []historyRow
	// HistoryOK is false when the history could not be refreshed.
	HistoryOK bool
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// SetRoutes mounts the HTML pages. "/" is left to the JSON status route.
func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/"+MainPageName, service.indexHandler)
	e.POST("/htmx/upload", service.htmxUploadHandler)
	e.GET("/htmx/history", service.htmxHistoryHandler)

	// Favicon (SVG) route
	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, indexView{MaxUploadMiB: service.config.MaxUploadBytes >> 20})
}

func (service *FrontendService) htmxUploadHandler(ctx echo.Context) error {
	file, err := ctx.FormFile("image")
	if err != nil || file.Filename == "" {
		slog.Warn("htmxUploadHandler: no image in request",
			"status", http.StatusBadRequest, "error", err)
		return ctx.Render(http.StatusBadRequest, uploadResultTemplate, uploadView{Error: noImageMessage})
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("htmxUploadHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.Render(http.StatusInternalServerError, uploadResultTemplate, uploadView{Error: err.Error()})
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("htmxUploadHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	upload, err := service.coreService.ProcessUpload(ctx.Request().Context(), file.Filename, src)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrInvalidFilename) {
			status = http.StatusBadRequest
		}
		slog.Error("htmxUploadHandler: failed to process upload",
			"status", status, "error", err, "filename", file.Filename)
		return ctx.Render(status, uploadResultTemplate, uploadView{Error: err.Error()})
	}

	record := upload.Record
	view := uploadView{
		Result: &resultView{
			Message:    "Image uploaded successfully!",
			Filename:   record.Filename,
			Disease:    record.Disease,
			Confidence: record.Confidence,
			Tip:        PreventionTip(record.Disease),
			Class:      SeverityClass(record.Disease, record.Confidence),
		},
	}

	// Refresh the history table out of band; the upload itself already succeeded.
	if rows, err := service.historyRows(ctx); err != nil {
		slog.Error("htmxUploadHandler: failed to list uploads for OOB update", "error", err)
	} else {
		view.History = rows
		view.HistoryOK = true
	}

	return ctx.Render(http.StatusOK, uploadResultTemplate, view)
}

func (service *FrontendService) htmxHistoryHandler(ctx echo.Context) error {
	rows, err := service.historyRows(ctx)
	if err != nil {
		slog.Error("htmxHistoryHandler: failed to list uploads",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Error loading history!")
	}

	// Prevent caching so the latest uploads are always shown
	service.setNoCache(ctx)

	return ctx.Render(http.StatusOK, historyTemplate, rows)
}

func (service *FrontendService) historyRows(ctx echo.Context) ([]historyRow, error) {
	records, err := service.coreService.History(ctx.Request().Context())
	if err != nil {
		return nil, err
	}
	rows := make([]historyRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, historyRow{
			UploadRecord: record,
			Class:        SeverityClass(record.Disease, record.Confidence),
		})
	}
	return rows, nil
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}
