package dataset

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aadhaarpulse/internal/datagov"
	apperrors "aadhaarpulse/internal/errors"
)

// stubFetcher returns a canned response or error
type stubFetcher struct {
	resp *datagov.ResourceResponse
	err  error
}

func (f *stubFetcher) FetchResource(ctx context.Context, resourceID string, limit, offset int, filters map[string]string) (*datagov.ResourceResponse, error) {
	return f.resp, f.err
}

func newSimulatedRepository(t *testing.T, seed int64) *Repository {
	t.Helper()
	repo := New(nil, "res-1", 10000, newTestGenerator(seed), nil)
	repo.Initialize(context.Background())
	return repo
}

func TestInitializeFallsBackOnFetchError(t *testing.T) {
	fetcher := &stubFetcher{err: fmt.Errorf("connection refused")}
	repo := New(fetcher, "res-1", 10000, newTestGenerator(1), nil)

	repo.Initialize(context.Background())

	assert.Equal(t, SourceSimulated, repo.Source())
	assert.Len(t, repo.GetEnrolmentTimeseries(120), 60)
	assert.NotEmpty(t, repo.GetStateData())
}

func TestInitializeFallsBackOnEmptyRecords(t *testing.T) {
	fetcher := &stubFetcher{resp: &datagov.ResourceResponse{Total: 0}}
	repo := New(fetcher, "res-1", 10000, newTestGenerator(1), nil)

	repo.Initialize(context.Background())

	assert.Equal(t, SourceSimulated, repo.Source())
}

func TestInitializeFromLiveRecords(t *testing.T) {
	records := []datagov.Record{
		{"state": "Karnataka", "date": "10-01-2024", "age_0_5": "5", "age_5_17": "20", "age_18_greater": "75"},
		{"state": "Karnataka", "date": "12-02-2024", "age_0_5": "3", "age_5_17": "10", "age_18_greater": "40"},
		{"state": "Delhi", "date": "05-02-2024", "age_0_5": "2", "age_5_17": "8", "age_18_greater": "30"},
		{"state": "", "date": "05-02-2024", "age_0_5": "1"}, // ignored: no state
	}
	fetcher := &stubFetcher{resp: &datagov.ResourceResponse{
		Title:   "Aadhaar Enrolment",
		Total:   40000,
		Count:   len(records),
		Records: records,
	}}

	repo := New(fetcher, "res-1", 10000, newTestGenerator(1), nil)
	repo.Initialize(context.Background())

	assert.Equal(t, SourceAPI, repo.Source())

	t.Run("states aggregated and supplemented", func(t *testing.T) {
		states := repo.GetStateData()
		// 2 states from records plus the supplemented well-known states
		assert.GreaterOrEqual(t, len(states), 16)

		ka, err := repo.GetStateByCode("KA")
		require.NoError(t, err)
		assert.Equal(t, "Karnataka", ka.Name)
		assert.Equal(t, RegionSouth, ka.Region)
		// scale = total/len(records)*100 = 40000/4*100 = 1e6; KA record sum = 153
		assert.EqualValues(t, 153_000_000, ka.TotalEnrolments)
	})

	t.Run("timeseries derived from record dates", func(t *testing.T) {
		series := repo.GetEnrolmentTimeseries(24)
		require.Len(t, series, 2)
		assert.Equal(t, "2024-01", series[0].Period())
		assert.Equal(t, "2024-02", series[1].Period())

		// scaled so the mean lands at 12.5M: totals 100 and 94, mean 97
		scale := 12_500_000.0 / 97.0
		assert.EqualValues(t, int64(100*scale), series[0].Value)
		assert.EqualValues(t, int64(94*scale), series[1].Value)
		assert.Equal(t, series[0].Cumulative+series[1].Value, series[1].Cumulative)
	})

	t.Run("demographics from age sums", func(t *testing.T) {
		demo := repo.GetDemographics()
		require.Contains(t, demo.AgeGroups, "18+")
		var pctSum float64
		for _, bucket := range demo.AgeGroups {
			pctSum += bucket.Pct
		}
		assert.InDelta(t, 100.0, pctSum, 0.5)
	})

	t.Run("metadata reflects the upstream", func(t *testing.T) {
		meta := repo.GetAPIMetadata()
		assert.Equal(t, SourceAPI, meta.DataSource)
		assert.Equal(t, 40000, meta.TotalRecordsAvailable)
		assert.Equal(t, "Aadhaar Enrolment", meta.Title)
		assert.False(t, meta.LastRefresh.IsZero())
	})
}

func TestGetSummaryStats(t *testing.T) {
	repo := newSimulatedRepository(t, 1)
	stats := repo.GetSummaryStats()

	series := repo.GetEnrolmentTimeseries(60)
	latest := series[len(series)-1]

	assert.Equal(t, latest.Cumulative, stats.TotalEnrolments)
	assert.Equal(t, latest.Value, stats.LatestMonthlyEnrolments)
	assert.Equal(t, ActiveCentres, stats.ActiveCentres)
	assert.Equal(t, StatesCovered, stats.StatesCovered)
	assert.Equal(t, SourceSimulated, stats.DataSource)
	assert.Positive(t, stats.TotalUpdates)
}

func TestGetEnrolmentTimeseriesTail(t *testing.T) {
	repo := newSimulatedRepository(t, 1)

	tests := []struct {
		name      string
		months    int
		wantLen   int
		wantFirst string
	}{
		{"last 24 months", 24, 24, "2023-01"},
		{"more than available", 120, 60, "2020-01"},
		{"zero months", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := repo.GetEnrolmentTimeseries(tt.months)
			assert.Len(t, series, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, series[0].Period())
				assert.Equal(t, "2024-12", series[len(series)-1].Period())
			}
		})
	}
}

func TestGetUpdateTimeseriesChronological(t *testing.T) {
	repo := newSimulatedRepository(t, 1)
	series := repo.GetUpdateTimeseries(24)

	require.Len(t, series, 24)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i-1].Month.Before(series[i].Month))
		assert.Positive(t, series[i].Value)
	}
}

func TestGetUpdateTypeBreakdown(t *testing.T) {
	repo := newSimulatedRepository(t, 1)
	shares := repo.GetUpdateTypeBreakdown()

	require.Len(t, shares, len(UpdateTypeProportions))

	var pctSum float64
	for _, s := range shares {
		assert.Positive(t, s.Count)
		pctSum += s.Percentage
	}
	assert.InDelta(t, 100.0, pctSum, 0.5)
}

func TestGetStateData(t *testing.T) {
	repo := newSimulatedRepository(t, 1)
	states := repo.GetStateData()

	require.Len(t, states, 19)
	for i := 1; i < len(states); i++ {
		assert.GreaterOrEqual(t, states[i-1].TotalEnrolments, states[i].TotalEnrolments,
			"states must be sorted by total enrolments descending")
	}
	assert.Equal(t, "Uttar Pradesh", states[0].Name)
}

func TestGetStateByCodeNotFound(t *testing.T) {
	repo := newSimulatedRepository(t, 1)

	_, err := repo.GetStateByCode("ZZ")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestGetTrends(t *testing.T) {
	repo := newSimulatedRepository(t, 1)
	trends := repo.GetTrends()

	assert.NotZero(t, trends.EnrolmentGrowthYoY)
	assert.Positive(t, trends.DailyAverageEnrolments)
	assert.Positive(t, trends.DailyAverageUpdates)
	assert.NotEmpty(t, trends.PeakMonth)
	assert.NotEmpty(t, trends.LowestMonth)
	assert.NotZero(t, trends.UpdateGrowthYoY)
}

func TestRepositoryReproducibleWithSeed(t *testing.T) {
	first := newSimulatedRepository(t, 42)
	second := newSimulatedRepository(t, 42)

	assert.Equal(t, first.GetEnrolmentTimeseries(60), second.GetEnrolmentTimeseries(60))
	assert.Equal(t, first.GetUpdateTypeBreakdown(), second.GetUpdateTypeBreakdown())
	assert.Equal(t, first.GetStateData(), second.GetStateData())
}

func TestGettersReturnFreshCopies(t *testing.T) {
	repo := newSimulatedRepository(t, 1)

	series := repo.GetEnrolmentTimeseries(12)
	series[0].Value = -1

	again := repo.GetEnrolmentTimeseries(12)
	assert.NotEqual(t, int64(-1), again[0].Value, "mutating a returned view must not affect the repository")

	states := repo.GetStateData()
	states[0].Name = "mutated"
	assert.NotEqual(t, "mutated", repo.GetStateData()[0].Name)
}

func TestGeneratorSeedZeroStillInitializes(t *testing.T) {
	repo := New(nil, "res-1", 10000, NewGenerator(rand.New(rand.NewSource(0))), nil)
	repo.Initialize(context.Background())
	assert.Len(t, repo.GetEnrolmentTimeseries(60), 60)
}
