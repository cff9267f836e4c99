package analytics

import (
	"time"

	"aadhaarpulse/internal/dataset"
)

// SeriesPoint is the presentation form of one time series month
type SeriesPoint struct {
	Period     string  `json:"period"`
	MonthName  string  `json:"month_name"`
	Value      int64   `json:"value"`
	Cumulative int64   `json:"cumulative,omitempty"`
	YoYGrowth  float64 `json:"yoy_growth,omitempty"`
}

// NewSeriesPoint converts a dataset point to its presentation form
func NewSeriesPoint(p dataset.TimePoint) SeriesPoint {
	return SeriesPoint{
		Period:     p.Period(),
		MonthName:  p.MonthName(),
		Value:      p.Value,
		Cumulative: p.Cumulative,
		YoYGrowth:  p.YoYGrowth,
	}
}

// NewSeriesPoints converts a dataset series to its presentation form
func NewSeriesPoints(points []dataset.TimePoint) []SeriesPoint {
	out := make([]SeriesPoint, len(points))
	for i, p := range points {
		out[i] = NewSeriesPoint(p)
	}
	return out
}

// Alert is a rule-based dashboard alert
type Alert struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Region   string `json:"region"`
	Severity string `json:"severity"`
}

// OverviewSummary holds the headline counters of the overview dashboard
type OverviewSummary struct {
	TotalEnrolments int64 `json:"total_enrolments"`
	TotalUpdates    int64 `json:"total_updates"`
	ActiveCentres   int64 `json:"active_centres"`
	StatesCovered   int   `json:"states_covered"`
}

// RatioSplit is a two-way percentage split
type RatioSplit struct {
	Urban float64 `json:"urban,omitempty"`
	Rural float64 `json:"rural,omitempty"`
}

// GenderSplit is the male/female percentage split
type GenderSplit struct {
	Male   float64 `json:"male"`
	Female float64 `json:"female"`
}

// Distribution holds the overview's demographic splits
type Distribution struct {
	UrbanRuralRatio RatioSplit  `json:"urban_rural_ratio"`
	GenderSplit     GenderSplit `json:"gender_split"`
}

// StatePerformance is a per-state line of the leaderboards
type StatePerformance struct {
	State      string  `json:"state,omitempty"`
	Name       string  `json:"name,omitempty"`
	Code       string  `json:"code"`
	Enrolments int64   `json:"enrolments"`
	Growth     float64 `json:"growth"`
}

// Metadata describes when and from what the metrics were computed
type Metadata struct {
	DataSource  dataset.DataSource `json:"data_source"`
	LastRefresh time.Time          `json:"last_refresh"`
	ComputedAt  time.Time          `json:"computed_at"`
}

// OverviewMetrics is the overview dashboard payload
type OverviewMetrics struct {
	Summary             OverviewSummary    `json:"summary"`
	Trends              dataset.Trends     `json:"trends"`
	Distribution        Distribution       `json:"distribution"`
	TopPerformingStates []StatePerformance `json:"top_performing_states"`
	Alerts              []Alert            `json:"alerts"`
	Metadata            Metadata           `json:"metadata"`
}

// SeriesSummary holds descriptive statistics of a series window
type SeriesSummary struct {
	Total   int64 `json:"total"`
	Average int64 `json:"average"`
	Max     int64 `json:"max"`
	Min     int64 `json:"min"`
	Std     int64 `json:"std"`
}

// DistributionEntry is one bucket of a demographic dimension
type DistributionEntry struct {
	Label      string  `json:"label"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DemographicDistributions holds all demographic dimensions in list form
type DemographicDistributions struct {
	AgeDistribution      []DistributionEntry `json:"age_distribution"`
	GenderDistribution   []DistributionEntry `json:"gender_distribution"`
	LocationDistribution []DistributionEntry `json:"location_distribution"`
}

// EnrolmentAnalytics is the enrolment dashboard payload
type EnrolmentAnalytics struct {
	Timeseries   []SeriesPoint            `json:"timeseries"`
	Summary      SeriesSummary            `json:"summary"`
	ByState      []StatePerformance       `json:"by_state"`
	Demographics DemographicDistributions `json:"demographics"`
}

// SeasonalIndex is one calendar month's demand index: the month's average
// value divided by the series' grand mean
type SeasonalIndex struct {
	Month    string  `json:"month"`
	MonthNum int     `json:"month_num"`
	Index    float64 `json:"index"`
}

// DistrictFatigue scores repeat-update pressure in one sub-region
type DistrictFatigue struct {
	District string  `json:"district"`
	State    string  `json:"state"`
	Score    float64 `json:"score"`
}

// FatigueMetrics is the update-fatigue index with its contributing districts
type FatigueMetrics struct {
	NationalIndex        float64           `json:"national_index"`
	HighFatigueDistricts []DistrictFatigue `json:"high_fatigue_districts"`
	Trend                string            `json:"trend"`
}

// UpdateSummary holds headline figures of the update dashboard
type UpdateSummary struct {
	TotalMonthlyAverage int64   `json:"total_monthly_average"`
	MostCommonType      string  `json:"most_common_type"`
	GrowthRate          float64 `json:"growth_rate"`
}

// UpdateAnalytics is the update dashboard payload
type UpdateAnalytics struct {
	UpdateTypes        []dataset.UpdateTypeShare `json:"update_types"`
	Timeseries         []SeriesPoint             `json:"timeseries"`
	SeasonalPatterns   []SeasonalIndex           `json:"seasonal_patterns"`
	UpdateFatigueIndex FatigueMetrics            `json:"update_fatigue_index"`
	Summary            UpdateSummary             `json:"summary"`
}

// HeatmapEntry is one state's normalized heatmap cell
type HeatmapEntry struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Value      int64   `json:"value"`
	Normalized float64 `json:"normalized"`
}

// Heatmap is the national choropleth payload
type Heatmap struct {
	Data  []HeatmapEntry `json:"data"`
	Total int64          `json:"total"`
}

// GeoState is one state's line of the geography table
type GeoState struct {
	Code       string         `json:"code"`
	Name       string         `json:"name"`
	Region     dataset.Region `json:"region"`
	Enrolments int64          `json:"enrolments"`
	Growth     float64        `json:"growth"`
	UrbanPct   float64        `json:"urban_pct"`
}

// RegionRollup aggregates member states of one region
type RegionRollup struct {
	Region          dataset.Region `json:"region"`
	TotalEnrolments int64          `json:"total_enrolments"`
	StateCount      int            `json:"state_count"`
}

// GeographyData is the geography dashboard payload
type GeographyData struct {
	Heatmap  Heatmap        `json:"heatmap"`
	States   []GeoState     `json:"states"`
	ByRegion []RegionRollup `json:"by_region"`
}
