package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "aadhaarpulse/internal/errors"
	"aadhaarpulse/internal/forecast"
)

// ForecastHandler serves forecasting and capacity planning endpoints
type ForecastHandler struct {
	service      ForecastService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(service ForecastService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ForecastHandler {
	return &ForecastHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "forecast_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the forecast routes
func (h *ForecastHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetForecast)
	r.Get("/enrolments", h.GetEnrolmentForecast)
	r.Get("/updates", h.GetUpdateForecast)
	r.Get("/capacity", h.GetCapacityForecast)
	r.Get("/accuracy", h.GetModelAccuracy)

	return r
}

// GetForecast handles GET /api/v1/forecasts with a metric query parameter
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	metric := forecast.Metric(r.URL.Query().Get("metric"))
	if metric == "" {
		metric = forecast.MetricEnrolments
	}
	if !metric.Valid() {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameterError("metric",
			"metric must be one of: enrolments, updates"))
		return
	}

	h.renderForecast(w, r, metric)
}

// GetEnrolmentForecast handles GET /api/v1/forecasts/enrolments
func (h *ForecastHandler) GetEnrolmentForecast(w http.ResponseWriter, r *http.Request) {
	h.renderForecast(w, r, forecast.MetricEnrolments)
}

// GetUpdateForecast handles GET /api/v1/forecasts/updates
func (h *ForecastHandler) GetUpdateForecast(w http.ResponseWriter, r *http.Request) {
	h.renderForecast(w, r, forecast.MetricUpdates)
}

// GetCapacityForecast handles GET /api/v1/forecasts/capacity
func (h *ForecastHandler) GetCapacityForecast(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "generating capacity forecast",
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	capacity, err := h.service.GetCapacityForecast()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, capacity)
}

// GetModelAccuracy handles GET /api/v1/forecasts/accuracy
func (h *ForecastHandler) GetModelAccuracy(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.GenerateForecast(forecast.MetricEnrolments)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"model_info":       f.ModelInfo,
		"accuracy_metrics": f.AccuracyMetrics,
	})
}

func (h *ForecastHandler) renderForecast(w http.ResponseWriter, r *http.Request, metric forecast.Metric) {
	h.logger.InfoContext(r.Context(), "generating forecast",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("metric", string(metric)),
	)

	f, err := h.service.GenerateForecast(metric)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, f)
}
