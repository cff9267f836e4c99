package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"aadhaarpulse/internal/analytics"
	"aadhaarpulse/internal/anomaly"
	"aadhaarpulse/internal/dataset"
	apierrors "aadhaarpulse/internal/errors"
	"aadhaarpulse/internal/exporter"
	"aadhaarpulse/internal/forecast"
	"aadhaarpulse/internal/insights"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger())
}

// serveJSON performs a GET against the router and decodes the JSON body
func serveJSON(t *testing.T, router chi.Router, target string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest("GET", target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

var testOverview = analytics.OverviewMetrics{
	Summary: analytics.OverviewSummary{
		TotalEnrolments: 1_380_000_000,
		TotalUpdates:    420_000_000,
		ActiveCentres:   dataset.ActiveCentres,
		StatesCovered:   dataset.StatesCovered,
	},
	Trends: dataset.Trends{
		EnrolmentGrowthYoY:     4.2,
		UpdateGrowthYoY:        -1.3,
		DailyAverageEnrolments: 400_000,
		DailyAverageUpdates:    230_000,
		PeakMonth:              "Jan 2024",
		LowestMonth:            "Jul 2023",
	},
	TopPerformingStates: []analytics.StatePerformance{
		{State: "Bihar", Code: "BR", Enrolments: 118_000_000, Growth: 12.4},
	},
	Alerts: []analytics.Alert{
		{Type: "info", Message: "Enrolment surge detected in Bihar (+12.4% this week)", Region: "Bihar", Severity: "medium"},
	},
	Metadata: analytics.Metadata{
		DataSource:  dataset.SourceSimulated,
		LastRefresh: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	},
}

var testStates = []dataset.StateRecord{
	{
		Name: "Maharashtra", Code: "MH", Region: dataset.RegionWest,
		TotalEnrolments: 112_000_000, MonthlyEnrolments: 950_000,
		YoYGrowth: 6.1, UpdateRate: 0.09, UrbanPct: 0.45,
	},
	{
		Name: "Bihar", Code: "BR", Region: dataset.RegionEast,
		TotalEnrolments: 118_000_000, MonthlyEnrolments: 880_000,
		YoYGrowth: 12.4, UpdateRate: 0.07, UrbanPct: 0.12,
	},
}

func testSeries(n int) []dataset.TimePoint {
	points := make([]dataset.TimePoint, n)
	month := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range points {
		points[i] = dataset.TimePoint{
			Month:      month.AddDate(0, i, 0),
			Value:      int64(12_000_000 + i*10_000),
			Cumulative: int64(1_200_000_000 + i*12_000_000),
			YoYGrowth:  3.5,
		}
	}
	return points
}

// stubAnalytics serves canned dashboard payloads
type stubAnalytics struct{}

func (stubAnalytics) GetOverviewMetrics() analytics.OverviewMetrics { return testOverview }

func (stubAnalytics) GetEnrolmentAnalytics() analytics.EnrolmentAnalytics {
	return analytics.EnrolmentAnalytics{
		Timeseries: analytics.NewSeriesPoints(testSeries(24)),
		Summary:    analytics.SeriesSummary{Total: 288_000_000, Average: 12_000_000},
		ByState: []analytics.StatePerformance{
			{Name: "Bihar", Code: "BR", Enrolments: 118_000_000, Growth: 12.4},
		},
		Demographics: analytics.DemographicDistributions{
			AgeDistribution: []analytics.DistributionEntry{
				{Label: "18+ years", Count: 1_000_000_000, Percentage: 72.5},
			},
		},
	}
}

func (stubAnalytics) GetUpdateAnalytics() analytics.UpdateAnalytics {
	return analytics.UpdateAnalytics{
		UpdateTypes: []dataset.UpdateTypeShare{
			{Type: "Address", Count: 2_660_000, Percentage: 38.0},
			{Type: "Mobile", Count: 1_960_000, Percentage: 28.0},
		},
		Timeseries: analytics.NewSeriesPoints(testSeries(24)),
		SeasonalPatterns: []analytics.SeasonalIndex{
			{Month: "Jan", MonthNum: 1, Index: 1.12},
		},
		UpdateFatigueIndex: analytics.FatigueMetrics{
			NationalIndex: 0.72,
			HighFatigueDistricts: []analytics.DistrictFatigue{
				{District: "Maharashtra District 1", State: "Maharashtra", Score: 0.81},
			},
			Trend: "increasing",
		},
		Summary: analytics.UpdateSummary{
			TotalMonthlyAverage: 7_000_000,
			MostCommonType:      "Address",
			GrowthRate:          5.2,
		},
	}
}

func (stubAnalytics) GetGeographyData() analytics.GeographyData {
	return analytics.GeographyData{
		Heatmap: analytics.Heatmap{
			Data: []analytics.HeatmapEntry{
				{Code: "BR", Name: "Bihar", Value: 118_000_000, Normalized: 1.0},
				{Code: "MH", Name: "Maharashtra", Value: 112_000_000, Normalized: 0.949},
			},
			Total: 230_000_000,
		},
		States: []analytics.GeoState{
			{Code: "BR", Name: "Bihar", Region: dataset.RegionEast, Enrolments: 118_000_000, Growth: 12.4, UrbanPct: 12.0},
			{Code: "MH", Name: "Maharashtra", Region: dataset.RegionWest, Enrolments: 112_000_000, Growth: 6.1, UrbanPct: 45.0},
		},
		ByRegion: []analytics.RegionRollup{
			{Region: dataset.RegionEast, TotalEnrolments: 118_000_000, StateCount: 1},
			{Region: dataset.RegionWest, TotalEnrolments: 112_000_000, StateCount: 1},
		},
	}
}

// stubRepository serves canned dataset queries
type stubRepository struct{}

func (stubRepository) GetSummaryStats() dataset.SummaryStats {
	return dataset.SummaryStats{TotalEnrolments: 1_380_000_000}
}

func (stubRepository) GetTrends() dataset.Trends { return testOverview.Trends }

func (stubRepository) GetEnrolmentTimeseries(months int) []dataset.TimePoint {
	return testSeries(months)
}

func (stubRepository) GetUpdateTimeseries(months int) []dataset.TimePoint {
	return testSeries(months)
}

func (stubRepository) GetStateData() []dataset.StateRecord { return testStates }

func (stubRepository) GetStateByCode(code string) (dataset.StateRecord, error) {
	for _, s := range testStates {
		if s.Code == code {
			return s, nil
		}
	}
	return dataset.StateRecord{}, apierrors.NewNotFoundError("state "+code+" not found", nil)
}

func (stubRepository) GetDemographics() dataset.Demographics { return dataset.Demographics{} }

// stubAnomalies serves a fixed anomaly set
type stubAnomalies struct{}

var testAnomalies = []anomaly.Anomaly{
	{
		ID: "ANM-2024-001", Type: anomaly.TypeEnrolmentSurge, Severity: anomaly.SeverityHigh,
		State: "Karnataka", District: "Karnataka Metro",
		Description:    "Enrolment volume 2.1x higher than expected",
		DeviationScore: 3.2, DetectedAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		Recommendation: "Investigate the spike",
		Evidence:       map[string]interface{}{"z_score": 3.2},
	},
	{
		ID: "ANM-2024-002", Type: anomaly.TypeUpdateFatigue, Severity: anomaly.SeverityMedium,
		State: "Multiple States", District: "Metro Areas",
		Description:    "Address update share above expected band",
		DeviationScore: 1.4, DetectedAt: time.Date(2024, 12, 1, 1, 0, 0, 0, time.UTC),
		Recommendation: "Audit address update flows",
	},
}

func (stubAnomalies) DetectAll() []anomaly.Anomaly { return testAnomalies }

func (stubAnomalies) GetSummary() anomaly.Summary {
	return anomaly.Summary{
		TotalAnomalies: len(testAnomalies),
		BySeverity: map[anomaly.Severity]int{
			anomaly.SeverityHigh:   1,
			anomaly.SeverityMedium: 1,
		},
	}
}

// stubForecasts serves a canned forecast or a configured error
type stubForecasts struct {
	err error
}

func (s stubForecasts) GenerateForecast(metric forecast.Metric) (forecast.Forecast, error) {
	if s.err != nil {
		return forecast.Forecast{}, s.err
	}
	return forecast.Forecast{
		Metric: metric,
		Forecast: []forecast.Point{
			{Period: "2025-01", Predicted: 12_500_000, Lower: 11_000_000, Upper: 14_000_000, Confidence: 0.95},
		},
		AccuracyMetrics: forecast.AccuracyMetrics{RSquared: 0.91, MAPE: 3.4},
		ModelInfo:       forecast.ModelInfo{Name: "Prophet Time Series Model", TrainingSamples: 36},
	}, nil
}

func (s stubForecasts) GetCapacityForecast() (forecast.CapacityForecast, error) {
	if s.err != nil {
		return forecast.CapacityForecast{}, s.err
	}
	return forecast.CapacityForecast{
		CapacityAnalysis: forecast.CapacityAnalysis{
			CurrentCapacity:    196_451_250,
			CurrentUtilization: 0.06,
			Recommendation:     "Current capacity is adequate for predicted demand",
		},
	}, nil
}

// stubInsights serves a fixed insight set
type stubInsights struct{}

var testInsights = []insights.Insight{
	{
		ID: "INS-202412-001", Title: "Urban Migration Corridor Detected",
		Category: insights.CategoryMigration, Priority: insights.PriorityHigh,
		Summary: "Address update volumes point to active migration corridors", Confidence: 0.87,
	},
	{
		ID: "INS-202412-002", Title: "Youth Enrolment Momentum",
		Category: insights.CategoryDemographics, Priority: insights.PriorityMedium,
		Summary: "Young cohorts drive growth in the fastest growing states", Confidence: 0.82,
	},
}

func (stubInsights) GenerateAll() []insights.Insight { return testInsights }

func (stubInsights) GetStats() insights.Stats {
	return insights.Stats{
		TotalInsights: len(testInsights),
		ByCategory: map[insights.Category]int{
			insights.CategoryMigration:    1,
			insights.CategoryDemographics: 1,
		},
	}
}

func (stubInsights) Analyze(_ context.Context, _ interface{}, _ string) (insights.Analysis, error) {
	return insights.Analysis{}, apierrors.NewConfigurationError("text generation model not configured")
}

// stubExports serves canned export receipts
type stubExports struct {
	path string
	err  error
}

func (s stubExports) ExportCSV(dataType exporter.DataType) (exporter.Receipt, error) {
	if s.err != nil {
		return exporter.Receipt{}, s.err
	}
	return exporter.Receipt{
		Status:       "success",
		ExportID:     "EXP-2024-000001",
		DataType:     dataType,
		Format:       "csv",
		RecordsCount: 24,
		DownloadURL:  "/api/v1/exports/download/EXP-2024-000001.csv",
	}, nil
}

func (s stubExports) ExportExcel(dataType exporter.DataType) (exporter.Receipt, error) {
	if s.err != nil {
		return exporter.Receipt{}, s.err
	}
	return exporter.Receipt{
		Status:       "success",
		ExportID:     "EXP-2024-000002",
		DataType:     dataType,
		Format:       "xlsx",
		RecordsCount: 24,
		DownloadURL:  "/api/v1/exports/download/EXP-2024-000002.xlsx",
	}, nil
}

func (s stubExports) History(limit int) []exporter.Receipt {
	receipts := []exporter.Receipt{
		{ExportID: "EXP-2024-000002"},
		{ExportID: "EXP-2024-000001"},
	}
	if limit < len(receipts) {
		receipts = receipts[:limit]
	}
	return receipts
}

func (s stubExports) FilePath(name string) (string, error) {
	if s.path == "" {
		return "", apierrors.NewNotFoundError("export file "+name+" not found", nil)
	}
	return s.path, nil
}
