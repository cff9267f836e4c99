package dataset

import (
	"time"
)

// DataSource identifies where the repository's dataset came from
type DataSource string

const (
	// SourceAPI means the dataset was built from live Data.gov.in records
	SourceAPI DataSource = "Data.gov.in API"
	// SourceSimulated means the dataset came from the synthetic generator
	SourceSimulated DataSource = "simulated"
)

// Region is a coarse geographic grouping of states
type Region string

const (
	RegionNorth     Region = "North"
	RegionSouth     Region = "South"
	RegionEast      Region = "East"
	RegionWest      Region = "West"
	RegionCentral   Region = "Central"
	RegionNortheast Region = "Northeast"
	RegionIslands   Region = "Islands"
	RegionOther     Region = "Other"
)

// TimePoint is one month of a metric's time series. Cumulative and YoYGrowth
// are only populated for the enrolment series; the update series carries the
// monthly value alone.
type TimePoint struct {
	Month      time.Time `json:"-"`
	Value      int64     `json:"value"`
	Cumulative int64     `json:"cumulative,omitempty"`
	YoYGrowth  float64   `json:"yoy_growth,omitempty"`
}

// Period returns the point's calendar month as "YYYY-MM"
func (p TimePoint) Period() string {
	return p.Month.Format("2006-01")
}

// MonthName returns the point's calendar month as "Jan 2006"
func (p TimePoint) MonthName() string {
	return p.Month.Format("Jan 2006")
}

// UpdateTypeCount is one raw row of the update dataset: how many updates of
// one category happened in one month
type UpdateTypeCount struct {
	Month time.Time
	Type  string
	Count int64
}

// UpdateTypeShare is one category's share of the latest month's updates
type UpdateTypeShare struct {
	Type       string  `json:"type"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// StateRecord holds per-state enrolment aggregates and derived rates
type StateRecord struct {
	Name              string  `json:"name"`
	Code              string  `json:"code"`
	Region            Region  `json:"region"`
	TotalEnrolments   int64   `json:"total_enrolments"`
	Age0to5           int64   `json:"age_0_5,omitempty"`
	Age5to17          int64   `json:"age_5_17,omitempty"`
	Age18Plus         int64   `json:"age_18_greater,omitempty"`
	MonthlyEnrolments int64   `json:"monthly_enrolments"`
	YoYGrowth         float64 `json:"yoy_growth"`
	UpdateRate        float64 `json:"update_rate"`
	UrbanPct          float64 `json:"urban_pct"`
}

// DemographicBucket is one bucket of a demographic dimension
type DemographicBucket struct {
	Enrolments int64   `json:"enrolments"`
	Pct        float64 `json:"pct"`
}

// Demographics holds the national demographic breakdowns. Within each
// dimension the Pct values sum to roughly 100.
type Demographics struct {
	AgeGroups map[string]DemographicBucket `json:"age_groups"`
	Gender    map[string]DemographicBucket `json:"gender"`
	Location  map[string]DemographicBucket `json:"location"`
}

// SummaryStats holds the latest headline figures
type SummaryStats struct {
	TotalEnrolments         int64      `json:"total_enrolments"`
	TotalUpdates            int64      `json:"total_updates"`
	ActiveCentres           int64      `json:"active_centres"`
	StatesCovered           int        `json:"states_covered"`
	LatestMonthlyEnrolments int64      `json:"latest_monthly_enrolments"`
	LatestMonthlyUpdates    int64      `json:"latest_monthly_updates"`
	EnrolmentYoYGrowth      float64    `json:"enrolment_yoy_growth"`
	DataSource              DataSource `json:"data_source"`
	APITotalRecords         int        `json:"api_total_records"`
	LastRefresh             time.Time  `json:"last_refresh"`
}

// Trends holds growth figures derived from the trailing two years
type Trends struct {
	EnrolmentGrowthYoY     float64 `json:"enrolment_growth_yoy"`
	UpdateGrowthYoY        float64 `json:"update_growth_yoy"`
	DailyAverageEnrolments int64   `json:"daily_average_enrolments"`
	DailyAverageUpdates    int64   `json:"daily_average_updates"`
	PeakMonth              string  `json:"peak_month"`
	LowestMonth            string  `json:"lowest_month"`
}

// APIMetadata describes the upstream connection backing the dataset
type APIMetadata struct {
	DataSource            DataSource `json:"data_source"`
	TotalRecordsAvailable int        `json:"total_records_available"`
	LastRefresh           time.Time  `json:"last_refresh"`
	Title                 string     `json:"api_title,omitempty"`
	Org                   []string   `json:"org,omitempty"`
	UpdatedDate           string     `json:"updated_date,omitempty"`
}

// ActiveCentres is the national count of operational enrolment centres.
// The public datasets do not expose this, so the repository reports the
// figure published in the annual UIDAI summary.
const ActiveCentres int64 = 52387

// StatesCovered is the number of states and union territories served
const StatesCovered = 36
