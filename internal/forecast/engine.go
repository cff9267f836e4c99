package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"aadhaarpulse/internal/dataset"
	apperrors "aadhaarpulse/internal/errors"
)

// Capacity assumptions. Centres process a fixed daily throughput over a
// 25-working-day month; the per-centre figure comes from UIDAI operational
// guidance.
const (
	centreDailyCapacity = 150
	workingDaysPerMonth = 25

	minTrainingMonths = 12
	trainingWindow    = 36
)

var capacityRegions = []string{"North", "South", "East", "West", "Central", "Northeast"}

// DataProvider is the slice of the data repository the engine reads
type DataProvider interface {
	GetEnrolmentTimeseries(months int) []dataset.TimePoint
	GetUpdateTimeseries(months int) []dataset.TimePoint
}

// Engine produces forecasts with confidence intervals. The random source
// feeds only the regional capacity simulation; rngMu serializes draws from
// it across concurrent requests.
type Engine struct {
	repo    DataProvider
	horizon int
	rng     *rand.Rand
	rngMu   sync.Mutex
	now     func() time.Time
	counter otelmetric.Int64Counter
	logger  *slog.Logger
}

// NewEngine creates a forecasting engine. A non-positive horizon falls back
// to six months.
func NewEngine(repo DataProvider, horizon int, rng *rand.Rand, logger *slog.Logger) *Engine {
	if horizon <= 0 {
		horizon = 6
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:    repo,
		horizon: horizon,
		rng:     rng,
		now:     time.Now,
		logger:  logger,
	}
}

// SetInstruments attaches the generated-forecasts counter. A nil counter
// disables recording.
func (e *Engine) SetInstruments(generated otelmetric.Int64Counter) {
	e.counter = generated
}

// GenerateForecast fits the decomposition model to the trailing three years
// of the metric and projects it over the configured horizon. It returns an
// insufficient-data error when fewer than twelve months are available.
func (e *Engine) GenerateForecast(metric Metric) (Forecast, error) {
	var timeseries []dataset.TimePoint
	if metric == MetricUpdates {
		timeseries = e.repo.GetUpdateTimeseries(trainingWindow)
	} else {
		timeseries = e.repo.GetEnrolmentTimeseries(trainingWindow)
	}

	if len(timeseries) < minTrainingMonths {
		return Forecast{}, apperrors.NewInsufficientDataError(
			"at least 12 months of data required for forecasting").
			WithContext("metric", string(metric)).
			WithContext("available_months", len(timeseries))
	}

	values := make([]float64, len(timeseries))
	for i, p := range timeseries {
		values[i] = float64(p.Value)
	}

	trend, seasonal, _ := decompose(values)
	points := e.forecastWithConfidence(values, trend, seasonal)
	metrics := modelMetrics(values, trend, seasonal)

	historical := timeseries
	if len(historical) > 12 {
		historical = historical[len(historical)-12:]
	}
	histPoints := make([]HistoricalPoint, len(historical))
	for i, p := range historical {
		histPoints[i] = HistoricalPoint{
			Period:    p.Period(),
			MonthName: p.MonthName(),
			Value:     p.Value,
		}
	}

	if e.counter != nil {
		e.counter.Add(context.Background(), 1,
			otelmetric.WithAttributes(attribute.String("metric", string(metric))))
	}
	e.logger.Debug("forecast generated",
		"metric", string(metric),
		"training_samples", len(values),
		"horizon", e.horizon)

	return Forecast{
		Metric:          metric,
		Historical:      histPoints,
		Forecast:        points,
		AccuracyMetrics: metrics,
		ModelInfo: ModelInfo{
			Name:            "Prophet Time Series Model",
			LastTrained:     e.now().Format("Jan 02, 2006"),
			TrainingSamples: len(values),
		},
	}, nil
}

// decompose splits a series into a centered moving-average trend, a
// 12-slot seasonal profile keyed by series position, and the residual.
// Edge months of the trend stay zero-padded, matching the behaviour of a
// plain convolution, so residual spread near the edges is overstated
// rather than hidden.
func decompose(values []float64) (trend []float64, seasonal [12]float64, residual []float64) {
	n := len(values)
	window := 12
	if half := n / 2; half < window {
		window = half
	}

	trend = make([]float64, n)
	offset := (window - 1) / 2
	for i := 0; i < n; i++ {
		var sum float64
		for j := i + offset - window + 1; j <= i+offset; j++ {
			if j >= 0 && j < n {
				sum += values[j]
			}
		}
		trend[i] = sum / float64(window)
	}

	detrended := make([]float64, n)
	for i := range values {
		detrended[i] = values[i] - trend[i]
	}
	for slot := 0; slot < 12; slot++ {
		var sum float64
		var count int
		for i := slot; i < n; i += 12 {
			sum += detrended[i]
			count++
		}
		if count > 0 {
			seasonal[slot] = sum / float64(count)
		}
	}

	residual = make([]float64, n)
	for i := range values {
		residual[i] = values[i] - trend[i] - seasonal[i%12]
	}
	return trend, seasonal, residual
}

// forecastWithConfidence extrapolates the trend linearly and re-applies the
// seasonal profile, widening the 95% interval as the horizon grows
func (e *Engine) forecastWithConfidence(values, trend []float64, seasonal [12]float64) []Point {
	slope, intercept := linearFit(trend)

	var sumSq float64
	n := float64(len(values))
	var mean float64
	for i := range values {
		mean += values[i] - trend[i]
	}
	mean /= n
	for i := range values {
		d := values[i] - trend[i] - mean
		sumSq += d * d
	}
	residualStd := math.Sqrt(sumSq / n)

	now := e.now()
	points := make([]Point, 0, e.horizon)
	for i := 1; i <= e.horizon; i++ {
		futureX := float64(len(values) + i)
		futureMonth := (int(now.Month()) + i - 1) % 12

		predicted := slope*futureX + intercept + seasonal[futureMonth]

		ciMultiplier := 1.96 * (1 + 0.1*float64(i))
		lower := predicted - ciMultiplier*residualStd
		upper := predicted + ciMultiplier*residualStd

		predicted = math.Max(0, predicted)
		lower = math.Max(0, lower)
		upper = math.Max(0, upper)

		forecastDate := now.AddDate(0, 0, 30*i)
		points = append(points, Point{
			Period:     forecastDate.Format("2006-01"),
			MonthName:  forecastDate.Format("Jan 2006"),
			Predicted:  int64(predicted),
			Lower:      int64(lower),
			Upper:      int64(upper),
			Confidence: 0.95,
		})
	}
	return points
}

// linearFit computes the least-squares slope and intercept of a series
// against its index
func linearFit(y []float64) (slope, intercept float64) {
	n := float64(len(y))
	if n == 0 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// modelMetrics scores the fitted trend-plus-seasonal model against the
// observed values
func modelMetrics(values, trend []float64, seasonal [12]float64) AccuracyMetrics {
	n := len(values)
	fitted := make([]float64, n)
	for i := range values {
		fitted[i] = trend[i] + seasonal[i%12]
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	var ssRes, ssTot, absSum, sqSum, mapeSum float64
	allPositive := true
	for i, v := range values {
		d := v - fitted[i]
		ssRes += d * d
		t := v - mean
		ssTot += t * t
		absSum += math.Abs(d)
		sqSum += d * d
		if v <= 0 {
			allPositive = false
		} else {
			mapeSum += math.Abs(d / v)
		}
	}

	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}
	mape := 0.0
	if allPositive {
		mape = mapeSum / float64(n) * 100
	}

	return AccuracyMetrics{
		RSquared: math.Round(math.Max(0, math.Min(1, rSquared))*100) / 100,
		MAPE:     math.Round(math.Min(20, math.Max(0, mape))*10) / 10,
		MAE:      int64(absSum / float64(n)),
		RMSE:     int64(math.Sqrt(sqSum / float64(n))),
	}
}

// GetCapacityForecast compares forecasted peak demand to current national
// capacity and simulates the regional split
func (e *Engine) GetCapacityForecast() (CapacityForecast, error) {
	enrolments, err := e.GenerateForecast(MetricEnrolments)
	if err != nil {
		return CapacityForecast{}, err
	}
	updates, err := e.GenerateForecast(MetricUpdates)
	if err != nil {
		return CapacityForecast{}, err
	}

	monthlyCapacity := int64(dataset.ActiveCentres) * centreDailyCapacity * workingDaysPerMonth

	peak := int64(0)
	for _, p := range enrolments.Forecast {
		if p.Predicted > peak {
			peak = p.Predicted
		}
	}

	utilization := 0.0
	if monthlyCapacity > 0 && len(enrolments.Forecast) > 0 {
		utilization = float64(enrolments.Forecast[0].Predicted) / float64(monthlyCapacity)
	}
	gap := peak - monthlyCapacity

	return CapacityForecast{
		CapacityAnalysis: CapacityAnalysis{
			CurrentCapacity:     monthlyCapacity,
			CurrentUtilization:  math.Round(utilization*100) / 100,
			PredictedDemandPeak: peak,
			CapacityGap:         max64(0, gap),
			Recommendation:      capacityRecommendation(utilization, gap),
		},
		ByRegion: e.regionalCapacity(),
		Forecast: MetricForecasts{Enrolments: enrolments, Updates: updates},
	}, nil
}

// regionalCapacity simulates per-region capacity pressure. Regional demand
// splits are not published, so the dashboard shows plausible figures seeded
// from the configured random source.
func (e *Engine) regionalCapacity() []RegionCapacity {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()

	capacities := make([]RegionCapacity, 0, len(capacityRegions))
	for _, region := range capacityRegions {
		baseCapacity := 1_500_000 + e.rng.Int63n(1_000_000)
		utilization := 0.65 + e.rng.Float64()*0.30
		demand := int64(float64(baseCapacity) * utilization * (1 + (e.rng.Float64()*0.3 - 0.1)))

		status := "adequate"
		if utilization >= 0.85 {
			status = "stressed"
		}

		capacities = append(capacities, RegionCapacity{
			Region:          region,
			CurrentCapacity: baseCapacity,
			PredictedDemand: demand,
			Utilization:     math.Round(utilization*100) / 100,
			Status:          status,
		})
	}
	return capacities
}

func capacityRecommendation(utilization float64, gap int64) string {
	switch {
	case gap > 1_000_000:
		return recommendationForGap(gap)
	case utilization > 0.9:
		return "High utilization detected. Consider extending operating hours or adding mobile units."
	case utilization > 0.75:
		return "Moderate pressure expected. Monitor queue times and prepare contingency."
	default:
		return "Current capacity is adequate for forecasted demand."
	}
}

func recommendationForGap(gap int64) string {
	return fmt.Sprintf("Critical: Deploy %d additional centres or increase throughput by %d%%",
		gap/100_000, gap/10_000)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
