package http

import (
	"context"

	"aadhaarpulse/internal/analytics"
	"aadhaarpulse/internal/anomaly"
	"aadhaarpulse/internal/dataset"
	"aadhaarpulse/internal/exporter"
	"aadhaarpulse/internal/forecast"
	"aadhaarpulse/internal/insights"
)

// RepositoryService exposes the dataset queries handlers read directly
type RepositoryService interface {
	GetSummaryStats() dataset.SummaryStats
	GetTrends() dataset.Trends
	GetEnrolmentTimeseries(months int) []dataset.TimePoint
	GetUpdateTimeseries(months int) []dataset.TimePoint
	GetStateData() []dataset.StateRecord
	GetStateByCode(code string) (dataset.StateRecord, error)
	GetDemographics() dataset.Demographics
}

// AnalyticsService exposes the aggregated dashboard payload builders
type AnalyticsService interface {
	GetOverviewMetrics() analytics.OverviewMetrics
	GetEnrolmentAnalytics() analytics.EnrolmentAnalytics
	GetUpdateAnalytics() analytics.UpdateAnalytics
	GetGeographyData() analytics.GeographyData
}

// AnomalyService exposes statistical anomaly detection
type AnomalyService interface {
	DetectAll() []anomaly.Anomaly
	GetSummary() anomaly.Summary
}

// ForecastService exposes demand forecasting and capacity planning
type ForecastService interface {
	GenerateForecast(metric forecast.Metric) (forecast.Forecast, error)
	GetCapacityForecast() (forecast.CapacityForecast, error)
}

// InsightService exposes rule-based insight generation
type InsightService interface {
	GenerateAll() []insights.Insight
	GetStats() insights.Stats
	Analyze(ctx context.Context, data interface{}, analysisType string) (insights.Analysis, error)
}

// ExportService exposes report generation and download bookkeeping
type ExportService interface {
	ExportCSV(dataType exporter.DataType) (exporter.Receipt, error)
	ExportExcel(dataType exporter.DataType) (exporter.Receipt, error)
	History(limit int) []exporter.Receipt
	FilePath(name string) (string, error)
}
