package dataset

import (
	"math"
	"math/rand"
	"time"
)

// Synthetic dataset constants. The generated series mirror the published
// national figures closely enough for the analytics pipeline to behave the
// way it does against live data.
const (
	baseMonthlyEnrolments = 12_000_000
	baseCumulative        = 1_200_000_000
	baseMonthlyUpdates    = 7_000_000

	generatorStartYear = 2020
	generatorEndYear   = 2024
)

// UpdateTypeProportion pairs an update category with its long-run share of
// monthly update volume
type UpdateTypeProportion struct {
	Type       string
	Proportion float64
}

// UpdateTypeProportions is the fixed category split of update volume
var UpdateTypeProportions = []UpdateTypeProportion{
	{"Address", 0.38},
	{"Mobile", 0.28},
	{"Email", 0.14},
	{"Biometric", 0.12},
	{"Photo", 0.05},
	{"Name", 0.02},
	{"Date of Birth", 0.01},
}

// Generator produces the synthetic fallback dataset. All randomness flows
// through the injected source, so a fixed seed reproduces the dataset
// byte for byte.
type Generator struct {
	rng   *rand.Rand
	noise bool
}

// NewGenerator creates a generator backed by the given random source
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng, noise: true}
}

// SetNoiseEnabled toggles the random factors. With noise disabled every
// series is a pure function of the seasonal and trend terms, which is what
// regression tests assert against.
func (g *Generator) SetNoiseEnabled(enabled bool) {
	g.noise = enabled
}

// normal returns a sample from Normal(0, stddev), or 0 with noise disabled
func (g *Generator) normal(stddev float64) float64 {
	if !g.noise {
		return 0
	}
	return g.rng.NormFloat64() * stddev
}

// uniform returns a sample from Uniform(min, max)
func (g *Generator) uniform(min, max float64) float64 {
	return min + g.rng.Float64()*(max-min)
}

// months returns the first day of every month in the generator's range
func (g *Generator) months() []time.Time {
	var out []time.Time
	for year := generatorStartYear; year <= generatorEndYear; year++ {
		for month := time.January; month <= time.December; month++ {
			out = append(out, time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
		}
	}
	return out
}

// EnrolmentSeries generates the monthly enrolment series. Each month's count
// is base * seasonal * year * random where the seasonal factor peaks in
// January, the year factor decays a growth premium toward a 2% floor, and the
// random factor is 1 + Normal(0, 0.05).
func (g *Generator) EnrolmentSeries() []TimePoint {
	months := g.months()
	series := make([]TimePoint, 0, len(months))

	cumulative := int64(baseCumulative)
	for _, month := range months {
		seasonal := 1 + 0.15*math.Cos(2*math.Pi*float64(month.Month()-1)/12)
		yearFactor := 1 + math.Max(0.02, 0.15-0.03*float64(month.Year()-generatorStartYear))
		randomFactor := 1 + g.normal(0.05)

		value := int64(baseMonthlyEnrolments * seasonal * yearFactor * randomFactor)
		cumulative += value

		series = append(series, TimePoint{
			Month:      month,
			Value:      value,
			Cumulative: cumulative,
		})
	}

	fillYoYGrowth(series)
	return series
}

// fillYoYGrowth computes year-over-year growth against the same calendar
// month one year prior. The first 12 points have no baseline and stay 0.
func fillYoYGrowth(series []TimePoint) {
	for i := range series {
		if i < 12 || series[i-12].Value == 0 {
			series[i].YoYGrowth = 0
			continue
		}
		prior := float64(series[i-12].Value)
		series[i].YoYGrowth = (float64(series[i].Value) - prior) / prior * 100
	}
}

// UpdateRows generates the raw monthly update dataset, one row per category
// per month. The update seasonality is phase-shifted three months relative
// to the enrolment series.
func (g *Generator) UpdateRows() []UpdateTypeCount {
	months := g.months()
	rows := make([]UpdateTypeCount, 0, len(months)*len(UpdateTypeProportions))

	for _, month := range months {
		base := baseMonthlyUpdates * (1 + 0.05*float64(month.Year()-generatorStartYear))
		seasonal := 1 + 0.1*math.Cos(2*math.Pi*float64(month.Month()-3)/12)
		total := base * seasonal * (1 + g.normal(0.03))

		for _, ut := range UpdateTypeProportions {
			count := int64(total * ut.Proportion * (1 + g.normal(0.10)))
			rows = append(rows, UpdateTypeCount{
				Month: month,
				Type:  ut.Type,
				Count: count,
			})
		}
	}

	return rows
}

// Demographics returns the national demographic distribution
func (g *Generator) Demographics() Demographics {
	return Demographics{
		AgeGroups: map[string]DemographicBucket{
			"0-5":   {Enrolments: 45_000_000, Pct: 3.1},
			"5-18":  {Enrolments: 280_000_000, Pct: 19.3},
			"18-30": {Enrolments: 350_000_000, Pct: 24.1},
			"30-45": {Enrolments: 320_000_000, Pct: 22.1},
			"45-60": {Enrolments: 250_000_000, Pct: 17.2},
			"60+":   {Enrolments: 205_000_000, Pct: 14.2},
		},
		Gender: map[string]DemographicBucket{
			"Male":   {Enrolments: 740_000_000, Pct: 51.0},
			"Female": {Enrolments: 700_000_000, Pct: 48.3},
			"Other":  {Enrolments: 10_000_000, Pct: 0.7},
		},
		Location: map[string]DemographicBucket{
			"Urban": {Enrolments: 845_000_000, Pct: 58.2},
			"Rural": {Enrolments: 605_000_000, Pct: 41.8},
		},
	}
}

// stateInfo is a known state with its approximate total enrolments
type stateInfo struct {
	name   string
	code   string
	region Region
	total  int64
}

// simulatedStates are the states emitted by the synthetic fallback path
var simulatedStates = []stateInfo{
	{"Uttar Pradesh", "UP", RegionNorth, 185_000_000},
	{"Maharashtra", "MH", RegionWest, 128_000_000},
	{"Bihar", "BR", RegionEast, 112_000_000},
	{"West Bengal", "WB", RegionEast, 98_000_000},
	{"Madhya Pradesh", "MP", RegionCentral, 89_000_000},
	{"Rajasthan", "RJ", RegionNorth, 82_000_000},
	{"Tamil Nadu", "TN", RegionSouth, 78_000_000},
	{"Karnataka", "KA", RegionSouth, 72_000_000},
	{"Gujarat", "GJ", RegionWest, 68_000_000},
	{"Andhra Pradesh", "AP", RegionSouth, 52_000_000},
	{"Odisha", "OD", RegionEast, 48_000_000},
	{"Telangana", "TS", RegionSouth, 42_000_000},
	{"Kerala", "KL", RegionSouth, 38_000_000},
	{"Jharkhand", "JH", RegionEast, 35_000_000},
	{"Assam", "AS", RegionNortheast, 32_000_000},
	{"Punjab", "PB", RegionNorth, 30_000_000},
	{"Chhattisgarh", "CG", RegionCentral, 28_000_000},
	{"Haryana", "HR", RegionNorth, 27_000_000},
	{"Delhi", "DL", RegionNorth, 22_000_000},
}

// StateRecords generates the per-state table. Growth, update and
// urbanization rates are sampled fresh; a seeded source keeps them stable
// across restarts.
func (g *Generator) StateRecords() []StateRecord {
	records := make([]StateRecord, 0, len(simulatedStates))
	for _, s := range simulatedStates {
		records = append(records, g.stateRecord(s))
	}
	return records
}

// stateRecord fills the sampled fields of one state
func (g *Generator) stateRecord(s stateInfo) StateRecord {
	return StateRecord{
		Name:              s.name,
		Code:              s.code,
		Region:            s.region,
		TotalEnrolments:   s.total,
		MonthlyEnrolments: int64(float64(s.total) * 0.008),
		YoYGrowth:         math.Round(g.uniform(5, 18)*10) / 10,
		UpdateRate:        g.uniform(0.05, 0.12),
		UrbanPct:          g.uniform(0.25, 0.70),
	}
}

// SupplementStates appends any well-known state missing from existing,
// using the estimated totals. Used on the live-data path when the API
// returns a partial state list.
func (g *Generator) SupplementStates(existing []StateRecord) []StateRecord {
	present := make(map[string]bool, len(existing))
	for _, s := range existing {
		present[s.Name] = true
	}

	out := existing
	for _, s := range simulatedStates[:16] {
		if present[s.name] {
			continue
		}
		rec := g.stateRecord(s)
		rec.Age0to5 = int64(float64(s.total) * 0.03)
		rec.Age5to17 = int64(float64(s.total) * 0.20)
		rec.Age18Plus = int64(float64(s.total) * 0.77)
		out = append(out, rec)
	}
	return out
}
