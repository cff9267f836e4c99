// Package analytics derives dashboard-level KPIs, alerts, seasonal indices
// and geographic rollups from the repository's dataset. Every call recomputes
// from the current snapshot; nothing is cached and no raw value is invented
// outside the documented fatigue simulation.
package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"aadhaarpulse/internal/dataset"
)

// Alert thresholds. A state growing faster than the surge threshold is worth
// an operator's attention; a metro state above the capacity threshold is at
// risk of saturating its centres.
const (
	surgeGrowthThresholdPct  = 15.0
	capacityMonthlyThreshold = 1_000_000

	fatigueQualifyingRate   = 0.08
	defaultNationalFatigue  = 0.72
	fatigueDistrictsPerSeat = 2
)

// metroStateCodes are the states checked by the capacity alert rule
var metroStateCodes = map[string]bool{"DL": true, "MH": true, "KA": true, "TN": true}

// DataProvider is the slice of the data repository the aggregator reads
type DataProvider interface {
	GetSummaryStats() dataset.SummaryStats
	GetTrends() dataset.Trends
	GetDemographics() dataset.Demographics
	GetStateData() []dataset.StateRecord
	GetEnrolmentTimeseries(months int) []dataset.TimePoint
	GetUpdateTimeseries(months int) []dataset.TimePoint
	GetUpdateTypeBreakdown() []dataset.UpdateTypeShare
}

// Aggregator computes derived dashboard metrics from repository data.
// rngMu serializes draws from rng, which is not safe for concurrent use.
type Aggregator struct {
	repo   DataProvider
	rng    *rand.Rand
	rngMu  sync.Mutex
	logger *slog.Logger
}

// NewAggregator creates an aggregator. The random source feeds only the
// fatigue-district simulation; seed it for reproducible output.
func NewAggregator(repo DataProvider, rng *rand.Rand, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{repo: repo, rng: rng, logger: logger}
}

// GetOverviewMetrics computes the overview dashboard payload
func (a *Aggregator) GetOverviewMetrics() OverviewMetrics {
	summary := a.repo.GetSummaryStats()
	trends := a.repo.GetTrends()
	demographics := a.repo.GetDemographics()
	states := a.repo.GetStateData()

	topStates := make([]dataset.StateRecord, len(states))
	copy(topStates, states)
	sort.SliceStable(topStates, func(i, j int) bool {
		return topStates[i].YoYGrowth > topStates[j].YoYGrowth
	})
	if len(topStates) > 5 {
		topStates = topStates[:5]
	}

	top := make([]StatePerformance, 0, len(topStates))
	for _, s := range topStates {
		top = append(top, StatePerformance{
			State:      s.Name,
			Code:       s.Code,
			Enrolments: s.TotalEnrolments,
			Growth:     s.YoYGrowth,
		})
	}

	return OverviewMetrics{
		Summary: OverviewSummary{
			TotalEnrolments: summary.TotalEnrolments,
			TotalUpdates:    summary.TotalUpdates,
			ActiveCentres:   summary.ActiveCentres,
			StatesCovered:   summary.StatesCovered,
		},
		Trends: trends,
		Distribution: Distribution{
			UrbanRuralRatio: RatioSplit{
				Urban: demographics.Location["Urban"].Pct,
				Rural: demographics.Location["Rural"].Pct,
			},
			GenderSplit: GenderSplit{
				Male:   demographics.Gender["Male"].Pct,
				Female: demographics.Gender["Female"].Pct,
			},
		},
		TopPerformingStates: top,
		Alerts:              a.generateAlerts(states),
		Metadata: Metadata{
			DataSource:  summary.DataSource,
			LastRefresh: summary.LastRefresh,
			ComputedAt:  time.Now(),
		},
	}
}

// generateAlerts applies the alert rules in order: growth surge first, then
// metro capacity. Rules are independent and may both fire.
func (a *Aggregator) generateAlerts(states []dataset.StateRecord) []Alert {
	alerts := []Alert{}

	for _, s := range states {
		if s.YoYGrowth > surgeGrowthThresholdPct {
			alerts = append(alerts, Alert{
				Type:     "info",
				Message:  fmt.Sprintf("Enrolment surge detected in %s (+%.1f%% this week)", s.Name, s.YoYGrowth),
				Region:   s.Name,
				Severity: "medium",
			})
			break
		}
	}

	for _, s := range states {
		if metroStateCodes[s.Code] && s.MonthlyEnrolments > capacityMonthlyThreshold {
			alerts = append(alerts, Alert{
				Type:     "warning",
				Message:  fmt.Sprintf("Update centre capacity nearing limit in %s", s.Name),
				Region:   s.Name,
				Severity: "high",
			})
			break
		}
	}

	return alerts
}

// GetEnrolmentAnalytics computes the enrolment dashboard payload
func (a *Aggregator) GetEnrolmentAnalytics() EnrolmentAnalytics {
	timeseries := a.repo.GetEnrolmentTimeseries(24)
	states := a.repo.GetStateData()
	demographics := a.repo.GetDemographics()

	byState := make([]StatePerformance, 0, 10)
	for i, s := range states {
		if i >= 10 {
			break
		}
		byState = append(byState, StatePerformance{
			Name:       s.Name,
			Code:       s.Code,
			Enrolments: s.TotalEnrolments,
			Growth:     s.YoYGrowth,
		})
	}

	return EnrolmentAnalytics{
		Timeseries: NewSeriesPoints(timeseries),
		Summary:    summarizeSeries(timeseries),
		ByState:    byState,
		Demographics: DemographicDistributions{
			AgeDistribution:      distributionEntries(demographics.AgeGroups),
			GenderDistribution:   distributionEntries(demographics.Gender),
			LocationDistribution: distributionEntries(demographics.Location),
		},
	}
}

// summarizeSeries computes descriptive statistics over a series window
func summarizeSeries(points []dataset.TimePoint) SeriesSummary {
	if len(points) == 0 {
		return SeriesSummary{}
	}

	var total int64
	max, min := points[0].Value, points[0].Value
	for _, p := range points {
		total += p.Value
		if p.Value > max {
			max = p.Value
		}
		if p.Value < min {
			min = p.Value
		}
	}
	mean := float64(total) / float64(len(points))

	var sumSq float64
	for _, p := range points {
		d := float64(p.Value) - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(len(points)))

	return SeriesSummary{
		Total:   total,
		Average: int64(mean),
		Max:     max,
		Min:     min,
		Std:     int64(std),
	}
}

// distributionEntries flattens one demographic dimension into a stable,
// descending-by-count list
func distributionEntries(buckets map[string]dataset.DemographicBucket) []DistributionEntry {
	entries := make([]DistributionEntry, 0, len(buckets))
	for label, b := range buckets {
		entries = append(entries, DistributionEntry{
			Label:      label,
			Count:      b.Enrolments,
			Percentage: b.Pct,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// GetUpdateAnalytics computes the update dashboard payload
func (a *Aggregator) GetUpdateAnalytics() UpdateAnalytics {
	updateTypes := a.repo.GetUpdateTypeBreakdown()
	timeseries := a.repo.GetUpdateTimeseries(24)

	sorted := make([]dataset.UpdateTypeShare, len(updateTypes))
	copy(sorted, updateTypes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })

	summary := UpdateSummary{}
	if len(timeseries) > 0 {
		var total int64
		for _, p := range timeseries {
			total += p.Value
		}
		summary.TotalMonthlyAverage = total / int64(len(timeseries))

		if first := timeseries[0].Value; first > 0 {
			last := timeseries[len(timeseries)-1].Value
			summary.GrowthRate = math.Round(float64(last-first)/float64(first)*1000) / 10
		}
	}
	summary.MostCommonType = "Address"
	if len(sorted) > 0 {
		summary.MostCommonType = sorted[0].Type
	}

	return UpdateAnalytics{
		UpdateTypes:        sorted,
		Timeseries:         NewSeriesPoints(timeseries),
		SeasonalPatterns:   CalculateSeasonalPatterns(timeseries),
		UpdateFatigueIndex: a.calculateUpdateFatigue(),
		Summary:            summary,
	}
}

// monthNames indexes short month names by month number - 1
var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// CalculateSeasonalPatterns groups a series by calendar month across all
// years present and indexes each month's average against the grand mean.
// Only observed months are emitted; an index above 1 marks above-average
// demand for that month.
func CalculateSeasonalPatterns(points []dataset.TimePoint) []SeasonalIndex {
	if len(points) == 0 {
		return nil
	}

	var grand int64
	sums := make(map[int]int64)
	counts := make(map[int]int)
	for _, p := range points {
		grand += p.Value
		m := int(p.Month.Month())
		sums[m] += p.Value
		counts[m]++
	}

	grandMean := float64(grand) / float64(len(points))
	if grandMean == 0 {
		return nil
	}

	indices := make([]SeasonalIndex, 0, 12)
	for m := 1; m <= 12; m++ {
		if counts[m] == 0 {
			continue
		}
		monthMean := float64(sums[m]) / float64(counts[m])
		indices = append(indices, SeasonalIndex{
			Month:    monthNames[m-1],
			MonthNum: m,
			Index:    math.Round(monthMean/grandMean*1000) / 1000,
		})
	}
	return indices
}

// calculateUpdateFatigue synthesizes per-district fatigue scores for the
// top-volume states whose update rate exceeds the qualifying threshold. The
// district split is simulated; only the underlying update rates are real.
func (a *Aggregator) calculateUpdateFatigue() FatigueMetrics {
	states := a.repo.GetStateData()
	if len(states) > 10 {
		states = states[:10]
	}

	var districts []DistrictFatigue
	for _, s := range states {
		if s.UpdateRate <= fatigueQualifyingRate {
			continue
		}
		for i := 0; i < fatigueDistrictsPerSeat; i++ {
			score := s.UpdateRate + a.randFloat()*0.05
			districts = append(districts, DistrictFatigue{
				District: fmt.Sprintf("%s District %d", s.Name, i+1),
				State:    s.Name,
				Score:    math.Round(math.Min(1.0, score*8)*100) / 100,
			})
		}
	}

	sort.SliceStable(districts, func(i, j int) bool { return districts[i].Score > districts[j].Score })
	if len(districts) > 5 {
		districts = districts[:5]
	}

	national := defaultNationalFatigue
	if len(districts) > 0 {
		var sum float64
		for _, d := range districts {
			sum += d.Score
		}
		national = math.Round(sum/float64(len(districts))*100) / 100
	}

	return FatigueMetrics{
		NationalIndex:        national,
		HighFatigueDistricts: districts,
		Trend:                "increasing",
	}
}

func (a *Aggregator) randFloat() float64 {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.Float64()
}

// GetGeographyData computes the geography dashboard payload
func (a *Aggregator) GetGeographyData() GeographyData {
	states := a.repo.GetStateData()
	if len(states) == 0 {
		return GeographyData{}
	}

	var total, maxTotal int64
	for _, s := range states {
		total += s.TotalEnrolments
		if s.TotalEnrolments > maxTotal {
			maxTotal = s.TotalEnrolments
		}
	}

	heatmap := make([]HeatmapEntry, 0, len(states))
	geoStates := make([]GeoState, 0, len(states))
	rollups := make(map[dataset.Region]*RegionRollup)
	var regionOrder []dataset.Region

	for _, s := range states {
		normalized := 0.0
		if maxTotal > 0 {
			normalized = float64(s.TotalEnrolments) / float64(maxTotal)
		}
		heatmap = append(heatmap, HeatmapEntry{
			Code:       s.Code,
			Name:       s.Name,
			Value:      s.TotalEnrolments,
			Normalized: normalized,
		})

		geoStates = append(geoStates, GeoState{
			Code:       s.Code,
			Name:       s.Name,
			Region:     s.Region,
			Enrolments: s.TotalEnrolments,
			Growth:     s.YoYGrowth,
			UrbanPct:   math.Round(s.UrbanPct*1000) / 10,
		})

		rollup, ok := rollups[s.Region]
		if !ok {
			rollup = &RegionRollup{Region: s.Region}
			rollups[s.Region] = rollup
			regionOrder = append(regionOrder, s.Region)
		}
		rollup.TotalEnrolments += s.TotalEnrolments
		rollup.StateCount++
	}

	byRegion := make([]RegionRollup, 0, len(regionOrder))
	for _, region := range regionOrder {
		byRegion = append(byRegion, *rollups[region])
	}
	sort.SliceStable(byRegion, func(i, j int) bool {
		return byRegion[i].TotalEnrolments > byRegion[j].TotalEnrolments
	})

	return GeographyData{
		Heatmap:  Heatmap{Data: heatmap, Total: total},
		States:   geoStates,
		ByRegion: byRegion,
	}
}
