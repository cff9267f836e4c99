package http

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "aadhaarpulse/internal/errors"
)

// District is one simulated district row of a state drilldown
type District struct {
	Name       string  `json:"name"`
	Enrolments int64   `json:"enrolments"`
	Growth     float64 `json:"growth"`
}

// GeographyHandler serves geographic analysis endpoints. rngMu serializes
// draws from rng across concurrent requests.
type GeographyHandler struct {
	service      AnalyticsService
	repo         RepositoryService
	rng          *rand.Rand
	rngMu        sync.Mutex
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewGeographyHandler creates a new geography handler. The rng drives the
// simulated district drilldown and is injectable for deterministic tests.
func NewGeographyHandler(service AnalyticsService, repo RepositoryService, rng *rand.Rand, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *GeographyHandler {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &GeographyHandler{
		service:      service,
		repo:         repo,
		rng:          rng,
		logger:       logger.With(slog.String("component", "geography_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the geography routes
func (h *GeographyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetGeography)
	r.Get("/heatmap", h.GetHeatmap)
	r.Get("/states", h.GetStates)
	r.Get("/regions", h.GetRegions)
	r.Get("/state/{stateCode}", h.GetStateDetail)
	r.Get("/districts/{stateCode}", h.GetDistricts)

	return r
}

// GetGeography handles GET /api/v1/geography
func (h *GeographyHandler) GetGeography(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching geography data",
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, h.service.GetGeographyData())
}

// GetHeatmap handles GET /api/v1/geography/heatmap
func (h *GeographyHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.GetGeographyData().Heatmap)
}

// GetStates handles GET /api/v1/geography/states with an optional region
// filter
func (h *GeographyHandler) GetStates(w http.ResponseWriter, r *http.Request) {
	states := h.service.GetGeographyData().States

	if region := r.URL.Query().Get("region"); region != "" {
		filtered := states[:0:0]
		for _, s := range states {
			if strings.EqualFold(string(s.Region), region) {
				filtered = append(filtered, s)
			}
		}
		states = filtered
	}

	render.JSON(w, r, map[string]interface{}{
		"states": states,
		"total":  len(states),
	})
}

// GetRegions handles GET /api/v1/geography/regions
func (h *GeographyHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"regions": h.service.GetGeographyData().ByRegion,
	})
}

// GetStateDetail handles GET /api/v1/geography/state/{stateCode}
func (h *GeographyHandler) GetStateDetail(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "stateCode")

	state, err := h.repo.GetStateByCode(code)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"state": map[string]interface{}{
			"name":               state.Name,
			"code":               state.Code,
			"region":             state.Region,
			"total_enrolments":   state.TotalEnrolments,
			"monthly_enrolments": state.MonthlyEnrolments,
			"yoy_growth":         state.YoYGrowth,
			"urban_pct":          math.Round(state.UrbanPct*1000) / 10,
			"update_rate":        math.Round(state.UpdateRate*10000) / 100,
		},
	})
}

// GetDistricts handles GET /api/v1/geography/districts/{stateCode}. District
// level figures are not in the upstream dataset, so the rows are simulated
// from the state totals.
func (h *GeographyHandler) GetDistricts(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "stateCode")

	state, err := h.repo.GetStateByCode(code)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.rngMu.Lock()
	n := 10 + h.rng.Intn(30)
	districts := make([]District, 0, n)
	for i := 0; i < n; i++ {
		pct := 0.01 + h.rng.Float64()*0.07
		growth := state.YoYGrowth + (h.rng.Float64()*10 - 5)
		districts = append(districts, District{
			Name:       fmt.Sprintf("%s District %d", state.Name, i+1),
			Enrolments: int64(float64(state.TotalEnrolments) * pct),
			Growth:     math.Round(growth*10) / 10,
		})
	}
	h.rngMu.Unlock()
	sort.SliceStable(districts, func(i, j int) bool {
		return districts[i].Enrolments > districts[j].Enrolments
	})

	render.JSON(w, r, map[string]interface{}{
		"state":     state.Name,
		"districts": districts,
	})
}
