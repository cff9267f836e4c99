// Package forecast projects enrolment and update demand forward using
// trend-seasonal decomposition with linear trend extrapolation, and turns
// the projections into capacity planning guidance.
package forecast

// Metric selects which series a forecast covers
type Metric string

const (
	MetricEnrolments Metric = "enrolments"
	MetricUpdates    Metric = "updates"
)

// Valid reports whether the metric names a forecastable series
func (m Metric) Valid() bool {
	return m == MetricEnrolments || m == MetricUpdates
}

// HistoricalPoint is one observed month included alongside a forecast
type HistoricalPoint struct {
	Period    string `json:"period"`
	MonthName string `json:"month_name"`
	Value     int64  `json:"value"`
}

// Point is one forecasted month with its confidence interval
type Point struct {
	Period     string  `json:"period"`
	MonthName  string  `json:"month_name"`
	Predicted  int64   `json:"predicted"`
	Lower      int64   `json:"lower"`
	Upper      int64   `json:"upper"`
	Confidence float64 `json:"confidence"`
}

// AccuracyMetrics scores the model's fit against the observed series
type AccuracyMetrics struct {
	RSquared float64 `json:"r_squared"`
	MAPE     float64 `json:"mape"`
	MAE      int64   `json:"mae"`
	RMSE     int64   `json:"rmse"`
}

// ModelInfo describes the fitted model
type ModelInfo struct {
	Name            string `json:"name"`
	LastTrained     string `json:"last_trained"`
	TrainingSamples int    `json:"training_samples"`
}

// Forecast is the full payload for one metric
type Forecast struct {
	Metric          Metric            `json:"metric"`
	Historical      []HistoricalPoint `json:"historical"`
	Forecast        []Point           `json:"forecast"`
	AccuracyMetrics AccuracyMetrics   `json:"accuracy_metrics"`
	ModelInfo       ModelInfo         `json:"model_info"`
}

// CapacityAnalysis compares forecasted peak demand to current capacity
type CapacityAnalysis struct {
	CurrentCapacity     int64   `json:"current_capacity"`
	CurrentUtilization  float64 `json:"current_utilization"`
	PredictedDemandPeak int64   `json:"predicted_demand_peak"`
	CapacityGap         int64   `json:"capacity_gap"`
	Recommendation      string  `json:"recommendation"`
}

// RegionCapacity is one region's simulated capacity position
type RegionCapacity struct {
	Region          string  `json:"region"`
	CurrentCapacity int64   `json:"current_capacity"`
	PredictedDemand int64   `json:"predicted_demand"`
	Utilization     float64 `json:"utilization"`
	Status          string  `json:"status"`
}

// MetricForecasts pairs the two underlying forecasts of a capacity report
type MetricForecasts struct {
	Enrolments Forecast `json:"enrolments"`
	Updates    Forecast `json:"updates"`
}

// CapacityForecast is the capacity planning payload
type CapacityForecast struct {
	CapacityAnalysis CapacityAnalysis `json:"capacity_analysis"`
	ByRegion         []RegionCapacity `json:"by_region"`
	Forecast         MetricForecasts  `json:"forecast"`
}
