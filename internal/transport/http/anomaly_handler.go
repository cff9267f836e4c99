package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"aadhaarpulse/internal/anomaly"
	apierrors "aadhaarpulse/internal/errors"
)

// explanationConfidence is reported with every anomaly explanation; the
// detectors are rule-based so the figure is a fixed calibration, not a
// per-anomaly estimate.
const explanationConfidence = 0.85

// AnomalyHandler serves anomaly detection endpoints
type AnomalyHandler struct {
	service      AnomalyService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnomalyHandler creates a new anomaly handler
func NewAnomalyHandler(service AnomalyService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnomalyHandler {
	return &AnomalyHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "anomaly_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the anomaly routes
func (h *AnomalyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetAnomalies)
	r.Get("/summary", h.GetSummary)
	r.Get("/explain/{anomalyID}", h.ExplainAnomaly)
	r.Get("/{anomalyID}", h.GetAnomalyDetail)

	return r
}

// GetAnomalies handles GET /api/v1/anomalies with optional severity and
// type filters
func (h *AnomalyHandler) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "detecting anomalies",
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	anomalies := h.service.DetectAll()

	if severity := r.URL.Query().Get("severity"); severity != "" {
		anomalies = filterAnomalies(anomalies, func(a anomaly.Anomaly) bool {
			return string(a.Severity) == severity
		})
	}
	if typ := r.URL.Query().Get("type"); typ != "" {
		anomalies = filterAnomalies(anomalies, func(a anomaly.Anomaly) bool {
			return string(a.Type) == typ
		})
	}

	bySeverity := map[anomaly.Severity]int{
		anomaly.SeverityCritical: 0,
		anomaly.SeverityHigh:     0,
		anomaly.SeverityMedium:   0,
		anomaly.SeverityLow:      0,
	}
	for _, a := range anomalies {
		bySeverity[a.Severity]++
	}

	render.JSON(w, r, map[string]interface{}{
		"anomalies":       anomalies,
		"total_anomalies": len(anomalies),
		"by_severity":     bySeverity,
	})
}

// GetSummary handles GET /api/v1/anomalies/summary
func (h *AnomalyHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.GetSummary())
}

// GetAnomalyDetail handles GET /api/v1/anomalies/{anomalyID}
func (h *AnomalyHandler) GetAnomalyDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "anomalyID")

	found, ok := h.findAnomaly(id)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError(fmt.Sprintf("Anomaly %s", id)))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"anomaly": found,
	})
}

// ExplainAnomaly handles GET /api/v1/anomalies/explain/{anomalyID}
func (h *AnomalyHandler) ExplainAnomaly(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "anomalyID")

	found, ok := h.findAnomaly(id)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError(fmt.Sprintf("Anomaly %s", id)))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"anomaly_id":     found.ID,
		"type":           found.Type,
		"explanation":    found.Description,
		"evidence":       found.Evidence,
		"recommendation": found.Recommendation,
		"confidence":     explanationConfidence,
	})
}

func (h *AnomalyHandler) findAnomaly(id string) (anomaly.Anomaly, bool) {
	for _, a := range h.service.DetectAll() {
		if a.ID == id {
			return a, true
		}
	}
	return anomaly.Anomaly{}, false
}

func filterAnomalies(anomalies []anomaly.Anomaly, keep func(anomaly.Anomaly) bool) []anomaly.Anomaly {
	out := anomalies[:0:0]
	for _, a := range anomalies {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
