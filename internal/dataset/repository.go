package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"aadhaarpulse/internal/datagov"
	apperrors "aadhaarpulse/internal/errors"
)

// Instruments are optional telemetry hooks recorded when the dataset is
// loaded. Unset instruments are skipped.
type Instruments struct {
	RefreshTotal    metric.Int64Counter
	RefreshDuration metric.Float64Histogram
	Records         metric.Int64UpDownCounter
}

// Fetcher is the slice of the Data.gov.in client the repository needs
type Fetcher interface {
	FetchResource(ctx context.Context, resourceID string, limit, offset int, filters map[string]string) (*datagov.ResourceResponse, error)
}

// stateCodes maps official state names to (code, region)
var stateCodes = map[string]struct {
	code   string
	region Region
}{
	"Andhra Pradesh":       {"AP", RegionSouth},
	"Arunachal Pradesh":    {"AR", RegionNortheast},
	"Assam":                {"AS", RegionNortheast},
	"Bihar":                {"BR", RegionEast},
	"Chhattisgarh":         {"CG", RegionCentral},
	"Delhi":                {"DL", RegionNorth},
	"Goa":                  {"GA", RegionWest},
	"Gujarat":              {"GJ", RegionWest},
	"Haryana":              {"HR", RegionNorth},
	"Himachal Pradesh":     {"HP", RegionNorth},
	"Jharkhand":            {"JH", RegionEast},
	"Karnataka":            {"KA", RegionSouth},
	"Kerala":               {"KL", RegionSouth},
	"Madhya Pradesh":       {"MP", RegionCentral},
	"Maharashtra":          {"MH", RegionWest},
	"Manipur":              {"MN", RegionNortheast},
	"Meghalaya":            {"ML", RegionNortheast},
	"Mizoram":              {"MZ", RegionNortheast},
	"Nagaland":             {"NL", RegionNortheast},
	"Odisha":               {"OD", RegionEast},
	"Punjab":               {"PB", RegionNorth},
	"Rajasthan":            {"RJ", RegionNorth},
	"Sikkim":               {"SK", RegionNortheast},
	"Tamil Nadu":           {"TN", RegionSouth},
	"Telangana":            {"TS", RegionSouth},
	"Tripura":              {"TR", RegionNortheast},
	"Uttar Pradesh":        {"UP", RegionNorth},
	"Uttarakhand":          {"UK", RegionNorth},
	"West Bengal":          {"WB", RegionEast},
	"Jammu & Kashmir":      {"JK", RegionNorth},
	"Ladakh":               {"LA", RegionNorth},
	"Andaman & Nicobar":    {"AN", RegionIslands},
	"Chandigarh":           {"CH", RegionNorth},
	"Dadra & Nagar Haveli": {"DN", RegionWest},
	"Daman & Diu":          {"DD", RegionWest},
	"Lakshadweep":          {"LD", RegionIslands},
	"Puducherry":           {"PY", RegionSouth},
}

// Repository holds the authoritative dataset backing all analytics. It is
// populated once by Initialize and treated as an immutable snapshot
// afterwards: every getter returns freshly allocated views, so concurrent
// readers never share mutable state.
type Repository struct {
	fetcher     Fetcher
	resourceID  string
	maxRecords  int
	gen         *Generator
	logger      *slog.Logger
	instruments Instruments

	enrolments      []TimePoint
	updateRows      []UpdateTypeCount
	demographics    Demographics
	states          []StateRecord
	source          DataSource
	totalAPIRecords int
	apiTitle        string
	apiOrg          []string
	apiUpdatedDate  string
	lastRefresh     time.Time
}

// New creates a repository. A nil fetcher skips the live-data path entirely
// and always uses the synthetic generator.
func New(fetcher Fetcher, resourceID string, maxRecords int, gen *Generator, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		fetcher:    fetcher,
		resourceID: resourceID,
		maxRecords: maxRecords,
		gen:        gen,
		logger:     logger,
		source:     SourceSimulated,
	}
}

// SetInstruments attaches telemetry instruments. Call before Initialize.
func (r *Repository) SetInstruments(in Instruments) {
	r.instruments = in
}

// Initialize populates the dataset. It attempts one live fetch and falls
// back to the synthetic generator on any failure or empty result, so the
// repository always holds a usable dataset when Initialize returns.
func (r *Repository) Initialize(ctx context.Context) {
	start := time.Now()
	r.logger.InfoContext(ctx, "initializing data repository")

	if r.fetcher != nil {
		resp, err := r.fetcher.FetchResource(ctx, r.resourceID, r.maxRecords, 0, nil)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "live data fetch failed, using simulated data",
				slog.String("error", err.Error()))
		case len(resp.Records) == 0:
			r.logger.WarnContext(ctx, "live data fetch returned no records, using simulated data")
		default:
			r.processAPIResponse(ctx, resp)
			r.lastRefresh = time.Now()
			r.recordRefresh(ctx, start)
			r.logger.InfoContext(ctx, "data repository initialized from live data",
				slog.Int("records", len(resp.Records)),
				slog.Int("total_available", resp.Total))
			return
		}
	}

	r.generateSimulatedData()
	r.lastRefresh = time.Now()
	r.recordRefresh(ctx, start)
	r.logger.InfoContext(ctx, "data repository initialized with simulated data",
		slog.Int("enrolment_months", len(r.enrolments)),
		slog.Int("states", len(r.states)))
}

// recordRefresh emits the refresh counters for the snapshot just loaded
func (r *Repository) recordRefresh(ctx context.Context, start time.Time) {
	if r.instruments.RefreshTotal != nil {
		r.instruments.RefreshTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("source", string(r.source))))
	}
	if r.instruments.RefreshDuration != nil {
		r.instruments.RefreshDuration.Record(ctx, time.Since(start).Seconds())
	}
	if r.instruments.Records != nil {
		r.instruments.Records.Add(ctx, int64(len(r.enrolments)+len(r.updateRows)+len(r.states)))
	}
}

// generateSimulatedData builds the full synthetic dataset
func (r *Repository) generateSimulatedData() {
	r.source = SourceSimulated
	r.enrolments = r.gen.EnrolmentSeries()
	r.updateRows = r.gen.UpdateRows()
	r.demographics = r.gen.Demographics()
	r.states = r.gen.StateRecords()
}

// processAPIResponse transforms live records into the internal views. The
// public dataset has no update records, so the update series stays synthetic.
func (r *Repository) processAPIResponse(ctx context.Context, resp *datagov.ResourceResponse) {
	r.source = SourceAPI
	r.totalAPIRecords = resp.Total
	r.apiTitle = resp.Title
	r.apiOrg = resp.Org
	r.apiUpdatedDate = resp.UpdatedDate

	r.buildStatesFromRecords(resp.Records)
	r.buildEnrolmentSeriesFromRecords(resp.Records)
	r.buildDemographicsFromRecords(resp.Records)
	r.updateRows = r.gen.UpdateRows()

	r.logger.DebugContext(ctx, "processed live records",
		slog.Int("states", len(r.states)),
		slog.Int("enrolment_months", len(r.enrolments)))
}

// recordTotal sums the per-record age-group enrolment counts
func recordTotal(rec datagov.Record) int64 {
	return int64(rec.Int("age_0_5") + rec.Int("age_5_17") + rec.Int("age_18_greater"))
}

// buildStatesFromRecords aggregates records by state. API samples cover only
// a fraction of national volume, so totals are scaled up proportionally to
// the dataset's advertised record count.
func (r *Repository) buildStatesFromRecords(records []datagov.Record) {
	type agg struct {
		age0to5   int64
		age5to17  int64
		age18Plus int64
		total     int64
	}
	byState := make(map[string]*agg)
	var order []string

	for _, rec := range records {
		name := rec.String("state")
		if name == "" {
			continue
		}
		a, ok := byState[name]
		if !ok {
			a = &agg{}
			byState[name] = a
			order = append(order, name)
		}
		a.age0to5 += int64(rec.Int("age_0_5"))
		a.age5to17 += int64(rec.Int("age_5_17"))
		a.age18Plus += int64(rec.Int("age_18_greater"))
		a.total += recordTotal(rec)
	}

	if len(byState) == 0 {
		r.states = r.gen.StateRecords()
		return
	}

	scale := float64(r.totalAPIRecords) / math.Max(1, float64(len(records))) * 100

	states := make([]StateRecord, 0, len(byState))
	for _, name := range order {
		a := byState[name]
		code, region := "XX", RegionOther
		if info, ok := stateCodes[name]; ok {
			code, region = info.code, info.region
		}

		total := int64(float64(a.total) * scale)
		rec := StateRecord{
			Name:              name,
			Code:              code,
			Region:            region,
			TotalEnrolments:   total,
			Age0to5:           int64(float64(a.age0to5) * scale),
			Age5to17:          int64(float64(a.age5to17) * scale),
			Age18Plus:         int64(float64(a.age18Plus) * scale),
			MonthlyEnrolments: int64(float64(total) * 0.008),
			YoYGrowth:         math.Round(r.gen.uniform(5, 18)*10) / 10,
			UpdateRate:        r.gen.uniform(0.05, 0.12),
			UrbanPct:          r.gen.uniform(0.25, 0.70),
		}
		states = append(states, rec)
	}

	// Sparse samples can miss whole states entirely
	if len(states) < 28 {
		states = r.gen.SupplementStates(states)
	}

	r.states = states
}

// buildEnrolmentSeriesFromRecords derives the monthly enrolment series from
// record dates, scaled so the monthly mean lands near the national run rate
func (r *Repository) buildEnrolmentSeriesFromRecords(records []datagov.Record) {
	totals := make(map[time.Time]int64)
	for _, rec := range records {
		date := rec.Date("date")
		if date.IsZero() {
			continue
		}
		month := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
		totals[month] += recordTotal(rec)
	}

	if len(totals) == 0 {
		r.enrolments = r.gen.EnrolmentSeries()
		return
	}

	months := make([]time.Time, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	var sum int64
	for _, m := range months {
		sum += totals[m]
	}
	mean := float64(sum) / float64(len(months))
	scale := 12_500_000 / math.Max(1, mean)

	series := make([]TimePoint, 0, len(months))
	cumulative := int64(baseCumulative)
	for _, m := range months {
		value := int64(float64(totals[m]) * scale)
		cumulative += value
		series = append(series, TimePoint{Month: m, Value: value, Cumulative: cumulative})
	}
	fillYoYGrowth(series)

	r.enrolments = series
}

// buildDemographicsFromRecords derives the age distribution from record
// sums; gender and location splits come from the census baseline because the
// enrolment dataset does not carry them
func (r *Repository) buildDemographicsFromRecords(records []datagov.Record) {
	var total0to5, total5to17, total18Plus int64
	for _, rec := range records {
		total0to5 += int64(rec.Int("age_0_5"))
		total5to17 += int64(rec.Int("age_5_17"))
		total18Plus += int64(rec.Int("age_18_greater"))
	}

	total := total0to5 + total5to17 + total18Plus
	if total == 0 {
		total = 1
	}

	pct := func(part int64) float64 {
		return math.Round(float64(part)/float64(total)*1000) / 10
	}

	baseline := r.gen.Demographics()
	r.demographics = Demographics{
		AgeGroups: map[string]DemographicBucket{
			"0-5":  {Enrolments: total0to5 * 100_000, Pct: pct(total0to5)},
			"5-18": {Enrolments: total5to17 * 100_000, Pct: pct(total5to17)},
			"18+":  {Enrolments: total18Plus * 100_000, Pct: pct(total18Plus)},
		},
		Gender:   baseline.Gender,
		Location: baseline.Location,
	}
}

// updateMonthlyTotals aggregates the raw update rows into a chronological
// monthly series
func (r *Repository) updateMonthlyTotals() []TimePoint {
	totals := make(map[time.Time]int64)
	for _, row := range r.updateRows {
		totals[row.Month] += row.Count
	}

	months := make([]time.Time, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	series := make([]TimePoint, 0, len(months))
	for _, m := range months {
		series = append(series, TimePoint{Month: m, Value: totals[m]})
	}
	return series
}

// GetSummaryStats returns the latest headline figures
func (r *Repository) GetSummaryStats() SummaryStats {
	stats := SummaryStats{
		ActiveCentres:   ActiveCentres,
		StatesCovered:   StatesCovered,
		DataSource:      r.source,
		APITotalRecords: r.totalAPIRecords,
		LastRefresh:     r.lastRefresh,
	}

	if len(r.enrolments) > 0 {
		latest := r.enrolments[len(r.enrolments)-1]
		stats.TotalEnrolments = latest.Cumulative
		stats.LatestMonthlyEnrolments = latest.Value
		stats.EnrolmentYoYGrowth = math.Round(latest.YoYGrowth*10) / 10
	}

	if updates := r.updateMonthlyTotals(); len(updates) > 0 {
		latest := updates[len(updates)-1].Value
		stats.TotalUpdates = latest
		stats.LatestMonthlyUpdates = latest
	}

	return stats
}

// GetEnrolmentTimeseries returns the trailing months of the enrolment
// series, chronological
func (r *Repository) GetEnrolmentTimeseries(months int) []TimePoint {
	return tail(r.enrolments, months)
}

// GetUpdateTimeseries returns the trailing months of the aggregated update
// series, chronological
func (r *Repository) GetUpdateTimeseries(months int) []TimePoint {
	return tail(r.updateMonthlyTotals(), months)
}

// tail returns a copy of the last n points
func tail(series []TimePoint, n int) []TimePoint {
	if n <= 0 || len(series) == 0 {
		return nil
	}
	if n > len(series) {
		n = len(series)
	}
	out := make([]TimePoint, n)
	copy(out, series[len(series)-n:])
	return out
}

// GetUpdateTypeBreakdown returns the latest month's update counts by
// category with their percentage shares. Shares sum to 100 within rounding.
func (r *Repository) GetUpdateTypeBreakdown() []UpdateTypeShare {
	if len(r.updateRows) == 0 {
		return nil
	}

	var latest time.Time
	for _, row := range r.updateRows {
		if row.Month.After(latest) {
			latest = row.Month
		}
	}

	var total int64
	var rows []UpdateTypeCount
	for _, row := range r.updateRows {
		if row.Month.Equal(latest) {
			rows = append(rows, row)
			total += row.Count
		}
	}
	if total == 0 {
		return nil
	}

	shares := make([]UpdateTypeShare, 0, len(rows))
	for _, row := range rows {
		shares = append(shares, UpdateTypeShare{
			Type:       row.Type,
			Count:      row.Count,
			Percentage: math.Round(float64(row.Count)/float64(total)*1000) / 10,
		})
	}
	return shares
}

// GetStateData returns all states sorted by total enrolments descending
func (r *Repository) GetStateData() []StateRecord {
	out := make([]StateRecord, len(r.states))
	copy(out, r.states)
	sort.Slice(out, func(i, j int) bool {
		return out[i].TotalEnrolments > out[j].TotalEnrolments
	})
	return out
}

// GetStateByCode looks up a state by its two-letter code
func (r *Repository) GetStateByCode(code string) (StateRecord, error) {
	for _, s := range r.states {
		if s.Code == code {
			return s, nil
		}
	}
	return StateRecord{}, apperrors.NewNotFoundError(
		fmt.Sprintf("state %q not found", code), nil).
		WithContext("code", code)
}

// GetDemographics returns the national demographic breakdowns
func (r *Repository) GetDemographics() Demographics {
	return r.demographics
}

// Trend defaults used when the update series is too short to compare two
// full years
const (
	defaultRecentMonthlyUpdates = 8_400_000
	defaultPriorMonthlyUpdates  = 7_000_000
)

// GetTrends derives year-over-year growth from the trailing 12 months
// against the 12 months before them
func (r *Repository) GetTrends() Trends {
	var trends Trends

	window := tail(r.enrolments, 24)
	if len(window) == 24 {
		recent := meanValue(window[12:])
		prior := meanValue(window[:12])
		if prior > 0 {
			trends.EnrolmentGrowthYoY = math.Round((recent-prior)/prior*1000) / 10
		}
		trends.DailyAverageEnrolments = int64(recent / 30)

		peak, lowest := window[0], window[0]
		for _, p := range window {
			if p.Value > peak.Value {
				peak = p
			}
			if p.Value < lowest.Value {
				lowest = p
			}
		}
		trends.PeakMonth = peak.MonthName()
		trends.LowestMonth = lowest.MonthName()
	}

	updateRecent := float64(defaultRecentMonthlyUpdates)
	updatePrior := float64(defaultPriorMonthlyUpdates)
	if updates := r.updateMonthlyTotals(); len(updates) >= 24 {
		updateWindow := updates[len(updates)-24:]
		updateRecent = meanValue(updateWindow[12:])
		updatePrior = meanValue(updateWindow[:12])
	}
	if updatePrior > 0 {
		trends.UpdateGrowthYoY = math.Round((updateRecent-updatePrior)/updatePrior*1000) / 10
	}
	trends.DailyAverageUpdates = int64(updateRecent / 30)

	return trends
}

// meanValue averages the values of a window; empty windows yield 0
func meanValue(points []TimePoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum int64
	for _, p := range points {
		sum += p.Value
	}
	return float64(sum) / float64(len(points))
}

// GetAPIMetadata describes the upstream connection backing the dataset
func (r *Repository) GetAPIMetadata() APIMetadata {
	return APIMetadata{
		DataSource:            r.source,
		TotalRecordsAvailable: r.totalAPIRecords,
		LastRefresh:           r.lastRefresh,
		Title:                 r.apiTitle,
		Org:                   r.apiOrg,
		UpdatedDate:           r.apiUpdatedDate,
	}
}

// Source reports where the current dataset came from
func (r *Repository) Source() DataSource {
	return r.source
}
