package anomaly

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadhaarpulse/internal/dataset"
)

type stubProvider struct {
	enrolments   []dataset.TimePoint
	states       []dataset.StateRecord
	breakdown    []dataset.UpdateTypeShare
	demographics dataset.Demographics
}

func (s *stubProvider) GetEnrolmentTimeseries(months int) []dataset.TimePoint {
	if months > 0 && len(s.enrolments) > months {
		return s.enrolments[len(s.enrolments)-months:]
	}
	return s.enrolments
}
func (s *stubProvider) GetStateData() []dataset.StateRecord               { return s.states }
func (s *stubProvider) GetUpdateTypeBreakdown() []dataset.UpdateTypeShare { return s.breakdown }
func (s *stubProvider) GetDemographics() dataset.Demographics             { return s.demographics }

func balancedDemographics() dataset.Demographics {
	return dataset.Demographics{
		Gender: map[string]dataset.DemographicBucket{
			"Male":   {Pct: 51.0},
			"Female": {Pct: 48.3},
		},
	}
}

func flatSeries(n int, value int64) []dataset.TimePoint {
	points := make([]dataset.TimePoint, 0, n)
	month := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		points = append(points, dataset.TimePoint{Month: month, Value: value})
		month = month.AddDate(0, 1, 0)
	}
	return points
}

func TestSequentialIDs(t *testing.T) {
	ids := &SequentialIDs{}

	first := ids.NextID()
	second := ids.NextID()

	assert.Equal(t, fmt.Sprintf("ANM-%d-001", time.Now().Year()), first)
	assert.True(t, strings.HasSuffix(second, "-002"))
}

func TestUUIDGenerator(t *testing.T) {
	ids := UUIDGenerator{}
	a, b := ids.NextID(), ids.NextID()
	assert.True(t, strings.HasPrefix(a, "ANM-"))
	assert.NotEqual(t, a, b)
}

func TestDetectEnrolmentAnomalies(t *testing.T) {
	t.Run("flags a spike month as a surge", func(t *testing.T) {
		series := flatSeries(24, 100)
		series[10].Value = 200
		provider := &stubProvider{
			enrolments:   series,
			states:       []dataset.StateRecord{{Name: "Karnataka", Code: "KA"}},
			demographics: balancedDemographics(),
		}

		anomalies := NewDetector(provider, nil, 2.5, nil).detectEnrolmentAnomalies()

		require.Len(t, anomalies, 1)
		a := anomalies[0]
		assert.Equal(t, TypeEnrolmentSurge, a.Type)
		assert.Equal(t, SeverityHigh, a.Severity)
		assert.Equal(t, "Karnataka", a.State)
		assert.Equal(t, "Karnataka Metro", a.District)
		assert.Equal(t, series[10].Period(), a.Period)
		assert.Greater(t, a.DeviationScore, 2.5)
		assert.Equal(t, int64(200), a.Evidence["actual_value"])
		assert.Contains(t, a.Description, "higher than expected")
	})

	t.Run("flags a collapsed month as a drop", func(t *testing.T) {
		series := flatSeries(24, 1000)
		series[5].Value = 10
		provider := &stubProvider{
			enrolments:   series,
			states:       []dataset.StateRecord{{Name: "Bihar", Code: "BR"}},
			demographics: balancedDemographics(),
		}

		anomalies := NewDetector(provider, nil, 2.5, nil).detectEnrolmentAnomalies()

		require.Len(t, anomalies, 1)
		assert.Equal(t, TypeEnrolmentDrop, anomalies[0].Type)
		assert.Less(t, anomalies[0].DeviationScore, 0.0)
		assert.Contains(t, anomalies[0].Description, "below monthly average")
	})

	t.Run("requires at least a year of data", func(t *testing.T) {
		provider := &stubProvider{enrolments: flatSeries(11, 100)}
		assert.Nil(t, NewDetector(provider, nil, 2.5, nil).detectEnrolmentAnomalies())
	})

	t.Run("flat series produces nothing", func(t *testing.T) {
		provider := &stubProvider{enrolments: flatSeries(24, 100)}
		assert.Nil(t, NewDetector(provider, nil, 2.5, nil).detectEnrolmentAnomalies())
	})
}

func TestDetectUpdateAnomalies(t *testing.T) {
	t.Run("high address share triggers fatigue alert", func(t *testing.T) {
		provider := &stubProvider{
			breakdown: []dataset.UpdateTypeShare{
				{Type: "Address", Percentage: 48.0},
				{Type: "Mobile Number", Percentage: 20.0},
			},
		}

		anomalies := NewDetector(provider, nil, 2.5, nil).detectUpdateAnomalies()

		require.Len(t, anomalies, 1)
		a := anomalies[0]
		assert.Equal(t, TypeUpdateFatigue, a.Type)
		assert.Equal(t, SeverityMedium, a.Severity)
		assert.Equal(t, "Multiple States", a.State)
		assert.Equal(t, "Metro Areas", a.District)
		assert.Equal(t, 2.0, a.DeviationScore)
		assert.Equal(t, 48.0, a.Evidence["percentage"])
		assert.Equal(t, "35-40%", a.Evidence["expected_range"])
		assert.Contains(t, a.Description, "48.0%")
	})

	t.Run("high state update rate yields low severity with evidence", func(t *testing.T) {
		provider := &stubProvider{
			states: []dataset.StateRecord{
				{Name: "Maharashtra", Code: "MH", UpdateRate: 0.1504},
			},
		}

		anomalies := NewDetector(provider, nil, 2.5, nil).detectUpdateAnomalies()

		require.Len(t, anomalies, 1)
		a := anomalies[0]
		assert.Equal(t, SeverityLow, a.Severity)
		assert.Equal(t, "Maharashtra Urban", a.District)
		assert.Equal(t, 1.5, a.DeviationScore)
		assert.Equal(t, 0.15, a.Evidence["update_rate"])
		assert.Equal(t, "MH", a.Evidence["state_code"])
	})

	t.Run("only the top five states are checked", func(t *testing.T) {
		states := make([]dataset.StateRecord, 6)
		for i := range states {
			states[i] = dataset.StateRecord{Name: "Quiet", UpdateRate: 0.02}
		}
		states[5] = dataset.StateRecord{Name: "Busy", UpdateRate: 0.20}
		provider := &stubProvider{states: states}

		assert.Empty(t, NewDetector(provider, nil, 2.5, nil).detectUpdateAnomalies())
	})

	t.Run("caps at two anomalies", func(t *testing.T) {
		provider := &stubProvider{
			breakdown: []dataset.UpdateTypeShare{{Type: "Address", Percentage: 50.0}},
			states: []dataset.StateRecord{
				{Name: "A", Code: "AA", UpdateRate: 0.12},
				{Name: "B", Code: "BB", UpdateRate: 0.13},
			},
		}

		anomalies := NewDetector(provider, nil, 2.5, nil).detectUpdateAnomalies()
		assert.Len(t, anomalies, maxUpdateAnomalies)
	})
}

func TestDetectGeographicAnomalies(t *testing.T) {
	states := make([]dataset.StateRecord, 0, 11)
	for i := 0; i < 10; i++ {
		states = append(states, dataset.StateRecord{Name: "Typical", UrbanPct: 0.40})
	}
	states = append(states, dataset.StateRecord{Name: "Delhi", UrbanPct: 0.90})
	provider := &stubProvider{states: states}

	anomalies := NewDetector(provider, nil, 2.5, nil).detectGeographicAnomalies()

	require.Len(t, anomalies, 1)
	a := anomalies[0]
	assert.Equal(t, TypeGeographicDisparity, a.Type)
	assert.Equal(t, SeverityMedium, a.Severity)
	assert.Equal(t, "Delhi", a.State)
	assert.Equal(t, "Delhi", a.District)
	assert.Greater(t, a.DeviationScore, 2.5)
	assert.Contains(t, a.Description, "above national average")
	assert.Contains(t, a.Recommendation, "rural outreach in Delhi")
	assert.Equal(t, 90.0, a.Evidence["state_urban_pct"])
}

func TestDetectDemographicAnomalies(t *testing.T) {
	t.Run("skewed gender ratio flagged nationally", func(t *testing.T) {
		provider := &stubProvider{
			demographics: dataset.Demographics{
				Gender: map[string]dataset.DemographicBucket{
					"Male":   {Pct: 54.0},
					"Female": {Pct: 45.3},
				},
			},
		}

		anomalies := NewDetector(provider, nil, 2.5, nil).detectDemographicAnomalies()

		require.Len(t, anomalies, 1)
		a := anomalies[0]
		assert.Equal(t, TypeDemographicImbalance, a.Type)
		assert.Equal(t, SeverityLow, a.Severity)
		assert.Equal(t, "National", a.State)
		assert.Equal(t, "All Districts", a.District)
		assert.Equal(t, 1.5, a.DeviationScore)
		assert.Equal(t, "51:49", a.Evidence["expected_ratio"])
	})

	t.Run("ratio within tolerance passes", func(t *testing.T) {
		provider := &stubProvider{demographics: balancedDemographics()}
		assert.Nil(t, NewDetector(provider, nil, 2.5, nil).detectDemographicAnomalies())
	})
}

func TestDetectAllOrdersBySeverity(t *testing.T) {
	series := flatSeries(24, 100)
	series[3].Value = 220
	provider := &stubProvider{
		enrolments: series,
		states: []dataset.StateRecord{
			{Name: "Maharashtra", Code: "MH", UpdateRate: 0.12, UrbanPct: 0.45},
		},
		breakdown: []dataset.UpdateTypeShare{{Type: "Address", Percentage: 48.0}},
		demographics: dataset.Demographics{
			Gender: map[string]dataset.DemographicBucket{
				"Male":   {Pct: 54.0},
				"Female": {Pct: 45.3},
			},
		},
	}

	detector := NewDetector(provider, nil, 2.5, nil)
	anomalies := detector.DetectAll()

	require.NotEmpty(t, anomalies)
	for i := 1; i < len(anomalies); i++ {
		assert.LessOrEqual(t,
			anomalies[i-1].Severity.rank(),
			anomalies[i].Severity.rank())
	}
	ids := map[string]bool{}
	for _, a := range anomalies {
		assert.False(t, ids[a.ID], "duplicate id %s", a.ID)
		ids[a.ID] = true
	}
}

func TestGetSummary(t *testing.T) {
	provider := &stubProvider{
		breakdown: []dataset.UpdateTypeShare{{Type: "Address", Percentage: 48.0}},
		demographics: dataset.Demographics{
			Gender: map[string]dataset.DemographicBucket{
				"Male":   {Pct: 54.0},
				"Female": {Pct: 45.3},
			},
		},
	}

	summary := NewDetector(provider, nil, 2.5, nil).GetSummary()

	assert.Equal(t, 2, summary.TotalAnomalies)
	assert.Equal(t, 1, summary.BySeverity[SeverityMedium])
	assert.Equal(t, 1, summary.BySeverity[SeverityLow])
	assert.Equal(t, 0, summary.BySeverity[SeverityCritical])
	require.Len(t, summary.ByType, 2)
	assert.Equal(t, 12, summary.Summary.Resolved)
	assert.Equal(t, 18, summary.Summary.UnderInvestigation)
	assert.Equal(t, 2, summary.Summary.New)
	assert.Equal(t, "decreasing", summary.Trend.Direction)
	assert.Equal(t, -8.5, summary.Trend.Change)
}
