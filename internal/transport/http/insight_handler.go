package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "aadhaarpulse/internal/errors"
	"aadhaarpulse/internal/insights"
)

// InsightHandler serves rule-based insight endpoints
type InsightHandler struct {
	service      InsightService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(service InsightService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *InsightHandler {
	return &InsightHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "insight_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the insight routes
func (h *InsightHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetInsights)
	r.Get("/stats", h.GetStats)
	r.Get("/categories", h.GetCategories)
	r.Get("/{insightID}", h.GetInsightDetail)

	return r
}

// GetInsights handles GET /api/v1/insights with optional category and
// priority filters
func (h *InsightHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "generating insights",
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	generated := h.service.GenerateAll()

	category := r.URL.Query().Get("category")
	priority := r.URL.Query().Get("priority")

	filtered := generated[:0:0]
	for _, ins := range generated {
		if category != "" && !strings.EqualFold(string(ins.Category), category) {
			continue
		}
		if priority != "" && string(ins.Priority) != priority {
			continue
		}
		filtered = append(filtered, ins)
	}

	render.JSON(w, r, map[string]interface{}{
		"insights":       filtered,
		"total_insights": len(filtered),
	})
}

// GetStats handles GET /api/v1/insights/stats
func (h *InsightHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.GetStats())
}

// GetCategories handles GET /api/v1/insights/categories
func (h *InsightHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"categories": []insights.Category{
			insights.CategoryMigration,
			insights.CategoryDemographics,
			insights.CategoryOperations,
			insights.CategorySeasonal,
			insights.CategoryCapacity,
			insights.CategoryGrowth,
		},
	})
}

// GetInsightDetail handles GET /api/v1/insights/{insightID}
func (h *InsightHandler) GetInsightDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "insightID")

	for _, ins := range h.service.GenerateAll() {
		if ins.ID == id {
			render.JSON(w, r, map[string]interface{}{
				"insight": ins,
			})
			return
		}
	}

	h.errorHandler.HandleError(w, r, apierrors.NotFoundError(fmt.Sprintf("Insight %s", id)))
}
