package infrastructure

import (
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Data pipeline metrics
	DataRefreshTotal    metric.Int64Counter
	DataRefreshDuration metric.Float64Histogram
	DatasetRecords      metric.Int64UpDownCounter

	// Analytics metrics
	AnomaliesDetected  metric.Int64Counter
	ForecastsGenerated metric.Int64Counter
	ExportsGenerated   metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	dataRefreshTotal, err := meter.Int64Counter(
		"data_refresh_total",
		metric.WithDescription("Total number of dataset refresh attempts"),
	)
	if err != nil {
		return nil, err
	}

	dataRefreshDuration, err := meter.Float64Histogram(
		"data_refresh_duration_seconds",
		metric.WithDescription("Dataset refresh duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	datasetRecords, err := meter.Int64UpDownCounter(
		"dataset_records",
		metric.WithDescription("Number of records in the current dataset snapshot"),
	)
	if err != nil {
		return nil, err
	}

	anomaliesDetected, err := meter.Int64Counter(
		"anomalies_detected_total",
		metric.WithDescription("Total number of anomalies detected"),
	)
	if err != nil {
		return nil, err
	}

	forecastsGenerated, err := meter.Int64Counter(
		"forecasts_generated_total",
		metric.WithDescription("Total number of forecasts generated"),
	)
	if err != nil {
		return nil, err
	}

	exportsGenerated, err := meter.Int64Counter(
		"exports_generated_total",
		metric.WithDescription("Total number of export files generated"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		HTTPActiveRequests:  httpActiveRequests,
		DataRefreshTotal:    dataRefreshTotal,
		DataRefreshDuration: dataRefreshDuration,
		DatasetRecords:      datasetRecords,
		AnomaliesDetected:   anomaliesDetected,
		ForecastsGenerated:  forecastsGenerated,
		ExportsGenerated:    exportsGenerated,
	}, nil
}
