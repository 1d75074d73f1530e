package backend

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
	statusMessage   = "Plant Disease Detection API is running!"
	uploadMessage   = "Image uploaded successfully!"
	noImageMessage  = "No image uploaded!"
	uploadFormField = "image"
)

type APIService struct {
	config      *core.ServiceConfig
	coreService *core.CoreService
}

type uploadResponse struct {
	Message    string  `json:"message"`
	Filename   string  `json:"filename"`
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

type historyResponse struct {
	History []*database.UploadRecord `json:"history"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Status route
	e.GET("/", s.statusHandler)

	e.POST("/upload", s.uploadHandler)
	e.GET("/history", s.historyHandler)
}

func (s *APIService) statusHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": statusMessage})
}

func (s *APIService) uploadHandler(ctx echo.Context) error {
	file, err := ctx.FormFile(uploadFormField)
	if err != nil || file.Filename == "" {
		slog.Warn("uploadHandler: no image in request",
			"status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, echo.Map{"error": noImageMessage})
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("uploadHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("uploadHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	upload, err := s.coreService.ProcessUpload(ctx.Request().Context(), file.Filename, src)
	if errors.Is(err, storage.ErrInvalidFilename) {
		slog.Warn("uploadHandler: rejected filename",
			"status", http.StatusBadRequest, "error", err, "filename", file.Filename)
		return ctx.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err != nil {
		slog.Error("uploadHandler: failed to process upload",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, uploadResponse{
		Message:    uploadMessage,
		Filename:   upload.Record.Filename,
		Disease:    upload.Record.Disease,
		Confidence: upload.Record.Confidence,
	})
}

func (s *APIService) historyHandler(ctx echo.Context) error {
	records, err := s.coreService.History(ctx.Request().Context())
	if err != nil {
		slog.Error("historyHandler: failed to list uploads",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if records == nil {
		records = []*database.UploadRecord{}
	}
	return ctx.JSON(http.StatusOK, historyResponse{History: records})
}
