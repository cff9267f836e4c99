package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "aadhaarpulse/internal/errors"
)

// KPI is one headline card of the dashboard header
type KPI struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Value  interface{} `json:"value"`
	Change *float64    `json:"change,omitempty"`
	Trend  string      `json:"trend,omitempty"`
}

// OverviewHandler serves the dashboard overview endpoints
type OverviewHandler struct {
	service      AnalyticsService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOverviewHandler creates a new overview handler
func NewOverviewHandler(service AnalyticsService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OverviewHandler {
	return &OverviewHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "overview_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the overview routes
func (h *OverviewHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetOverview)
	r.Get("/kpis", h.GetKPIs)
	r.Get("/summary", h.GetSummary)
	r.Get("/trends", h.GetTrends)
	r.Get("/alerts", h.GetAlerts)

	return r
}

// GetOverview handles GET /api/v1/overview
func (h *OverviewHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching overview metrics",
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, h.service.GetOverviewMetrics())
}

// GetKPIs handles GET /api/v1/overview/kpis
func (h *OverviewHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	m := h.service.GetOverviewMetrics()

	enrolmentChange := m.Trends.EnrolmentGrowthYoY
	updateChange := m.Trends.UpdateGrowthYoY
	centreChange := 2.1

	render.JSON(w, r, map[string]interface{}{
		"kpis": []KPI{
			{
				ID:     "total_enrolments",
				Title:  "Total Enrolments",
				Value:  m.Summary.TotalEnrolments,
				Change: &enrolmentChange,
				Trend:  trendDirection(enrolmentChange),
			},
			{
				ID:     "total_updates",
				Title:  "Total Updates",
				Value:  m.Summary.TotalUpdates,
				Change: &updateChange,
				Trend:  trendDirection(updateChange),
			},
			{
				ID:     "active_centres",
				Title:  "Active Centres",
				Value:  m.Summary.ActiveCentres,
				Change: &centreChange,
				Trend:  "up",
			},
			{
				ID:    "states_covered",
				Title: "States/UTs",
				Value: m.Summary.StatesCovered,
			},
		},
	})
}

// GetSummary handles GET /api/v1/overview/summary
func (h *OverviewHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.GetOverviewMetrics().Summary)
}

// GetTrends handles GET /api/v1/overview/trends
func (h *OverviewHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.GetOverviewMetrics().Trends)
}

// GetAlerts handles GET /api/v1/overview/alerts
func (h *OverviewHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	m := h.service.GetOverviewMetrics()
	render.JSON(w, r, map[string]interface{}{
		"alerts": m.Alerts,
		"count":  len(m.Alerts),
	})
}

func trendDirection(change float64) string {
	if change > 0 {
		return "up"
	}
	return "down"
}
