package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"aadhaarpulse/internal/analytics"
	apierrors "aadhaarpulse/internal/errors"
)

const (
	defaultTimeseriesMonths = 24
	minTimeseriesMonths     = 6
	maxTimeseriesMonths     = 60
)

// EnrolmentHandler serves enrolment analytics endpoints
type EnrolmentHandler struct {
	service      AnalyticsService
	repo         RepositoryService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewEnrolmentHandler creates a new enrolment handler
func NewEnrolmentHandler(service AnalyticsService, repo RepositoryService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *EnrolmentHandler {
	return &EnrolmentHandler{
		service:      service,
		repo:         repo,
		logger:       logger.With(slog.String("component", "enrolment_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the enrolment routes
func (h *EnrolmentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetEnrolments)
	r.Get("/timeseries", h.GetTimeseries)
	r.Get("/states", h.GetStates)
	r.Get("/demographics", h.GetDemographics)
	r.Get("/state/{stateCode}", h.GetStateDetails)

	return r
}

// GetEnrolments handles GET /api/v1/enrolments
func (h *EnrolmentHandler) GetEnrolments(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching enrolment analytics",
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, h.service.GetEnrolmentAnalytics())
}

// GetTimeseries handles GET /api/v1/enrolments/timeseries
func (h *EnrolmentHandler) GetTimeseries(w http.ResponseWriter, r *http.Request) {
	months, err := monthsParam(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	series := analytics.NewSeriesPoints(h.repo.GetEnrolmentTimeseries(months))
	render.JSON(w, r, map[string]interface{}{
		"series": series,
		"count":  len(series),
		"period": fmt.Sprintf("Last %d months", months),
	})
}

// GetStates handles GET /api/v1/enrolments/states
func (h *EnrolmentHandler) GetStates(w http.ResponseWriter, r *http.Request) {
	states := h.repo.GetStateData()

	rows := make([]map[string]interface{}, 0, len(states))
	for _, s := range states {
		rows = append(rows, map[string]interface{}{
			"name":               s.Name,
			"code":               s.Code,
			"enrolments":         s.TotalEnrolments,
			"monthly_enrolments": s.MonthlyEnrolments,
			"growth":             s.YoYGrowth,
			"region":             s.Region,
		})
	}

	render.JSON(w, r, map[string]interface{}{
		"states":       rows,
		"total_states": len(rows),
	})
}

// GetDemographics handles GET /api/v1/enrolments/demographics
func (h *EnrolmentHandler) GetDemographics(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.GetEnrolmentAnalytics().Demographics)
}

// GetStateDetails handles GET /api/v1/enrolments/state/{stateCode}
func (h *EnrolmentHandler) GetStateDetails(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "stateCode")

	state, err := h.repo.GetStateByCode(code)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"state":         state,
		"monthly_trend": analytics.NewSeriesPoints(h.repo.GetEnrolmentTimeseries(12)),
	})
}

// monthsParam parses and validates the months query parameter shared by the
// timeseries endpoints
func monthsParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("months")
	if raw == "" {
		return defaultTimeseriesMonths, nil
	}

	months, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.InvalidParameterError("months", "months must be an integer")
	}
	if months < minTimeseriesMonths || months > maxTimeseriesMonths {
		return 0, apierrors.InvalidParameterError("months",
			fmt.Sprintf("months must be between %d and %d", minTimeseriesMonths, maxTimeseriesMonths))
	}
	return months, nil
}
