package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "aadhaarpulse/internal/errors"
	"aadhaarpulse/internal/exporter"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

// ExportHandler serves report generation and download endpoints
type ExportHandler struct {
	service      ExportService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ExportService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/csv", h.ExportCSV)
		r.Get("/excel", h.ExportExcel)
		r.Get("/history", h.GetHistory)
	})

	// Download serves raw file bytes, not JSON
	r.Get("/download/{filename}", h.Download)

	return r
}

// ExportCSV handles GET /api/v1/exports/csv
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	dataType, err := dataTypeParam(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "generating csv export",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("data_type", string(dataType)),
	)

	receipt, err := h.service.ExportCSV(dataType)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, receipt)
}

// ExportExcel handles GET /api/v1/exports/excel
func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	dataType, err := dataTypeParam(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "generating excel export",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("data_type", string(dataType)),
	)

	receipt, err := h.service.ExportExcel(dataType)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, receipt)
}

// GetHistory handles GET /api/v1/exports/history
func (h *ExportHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxHistoryLimit {
			h.errorHandler.HandleError(w, r, apierrors.InvalidParameterError("limit",
				"limit must be an integer between 1 and 50"))
			return
		}
		limit = parsed
	}

	history := h.service.History(limit)
	render.JSON(w, r, map[string]interface{}{
		"exports": history,
		"count":   len(history),
	})
}

// Download handles GET /api/v1/exports/download/{filename}
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	path, err := h.service.FilePath(name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	http.ServeFile(w, r, path)
}

func dataTypeParam(r *http.Request) (exporter.DataType, error) {
	raw := r.URL.Query().Get("data_type")
	if raw == "" {
		return exporter.DataEnrolments, nil
	}

	dataType := exporter.DataType(raw)
	if !dataType.Valid() {
		return "", apierrors.InvalidParameterError("data_type",
			"data_type must be one of: enrolments, updates, states, anomalies")
	}
	return dataType, nil
}
