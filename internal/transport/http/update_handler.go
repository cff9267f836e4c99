package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"aadhaarpulse/internal/analytics"
	apierrors "aadhaarpulse/internal/errors"
)

// UpdateHandler serves update behaviour analytics endpoints
type UpdateHandler struct {
	service      AnalyticsService
	repo         RepositoryService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(service AnalyticsService, repo RepositoryService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *UpdateHandler {
	return &UpdateHandler{
		service:      service,
		repo:         repo,
		logger:       logger.With(slog.String("component", "update_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the update routes
func (h *UpdateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetUpdates)
	r.Get("/types", h.GetTypes)
	r.Get("/timeseries", h.GetTimeseries)
	r.Get("/patterns", h.GetPatterns)
	r.Get("/fatigue", h.GetFatigue)

	return r
}

// GetUpdates handles GET /api/v1/updates
func (h *UpdateHandler) GetUpdates(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching update analytics",
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, h.service.GetUpdateAnalytics())
}

// GetTypes handles GET /api/v1/updates/types
func (h *UpdateHandler) GetTypes(w http.ResponseWriter, r *http.Request) {
	a := h.service.GetUpdateAnalytics()
	render.JSON(w, r, map[string]interface{}{
		"update_types": a.UpdateTypes,
		"most_common":  a.Summary.MostCommonType,
	})
}

// GetTimeseries handles GET /api/v1/updates/timeseries
func (h *UpdateHandler) GetTimeseries(w http.ResponseWriter, r *http.Request) {
	months, err := monthsParam(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	series := analytics.NewSeriesPoints(h.repo.GetUpdateTimeseries(months))
	render.JSON(w, r, map[string]interface{}{
		"series": series,
		"count":  len(series),
	})
}

// GetPatterns handles GET /api/v1/updates/patterns
func (h *UpdateHandler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	a := h.service.GetUpdateAnalytics()
	render.JSON(w, r, map[string]interface{}{
		"seasonal_patterns":    a.SeasonalPatterns,
		"update_fatigue_index": a.UpdateFatigueIndex,
	})
}

// GetFatigue handles GET /api/v1/updates/fatigue
func (h *UpdateHandler) GetFatigue(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.GetUpdateAnalytics().UpdateFatigueIndex)
}
