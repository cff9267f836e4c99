package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOverviewRouter() *OverviewHandler {
	return NewOverviewHandler(stubAnalytics{}, testLogger(), testErrorHandler())
}

func TestOverviewHandler_GetOverview(t *testing.T) {
	status, body := serveJSON(t, newOverviewRouter().Routes(), "/")

	require.Equal(t, http.StatusOK, status)
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(1_380_000_000), summary["total_enrolments"])
	assert.Equal(t, float64(36), summary["states_covered"])
}

func TestOverviewHandler_GetKPIs(t *testing.T) {
	status, body := serveJSON(t, newOverviewRouter().Routes(), "/kpis")

	require.Equal(t, http.StatusOK, status)
	kpis := body["kpis"].([]interface{})
	require.Len(t, kpis, 4)

	enrolments := kpis[0].(map[string]interface{})
	assert.Equal(t, "total_enrolments", enrolments["id"])
	assert.Equal(t, 4.2, enrolments["change"])
	assert.Equal(t, "up", enrolments["trend"])

	updates := kpis[1].(map[string]interface{})
	assert.Equal(t, "down", updates["trend"])

	centres := kpis[2].(map[string]interface{})
	assert.Equal(t, 2.1, centres["change"])
	assert.Equal(t, "up", centres["trend"])

	states := kpis[3].(map[string]interface{})
	assert.Equal(t, "states_covered", states["id"])
	_, hasChange := states["change"]
	assert.False(t, hasChange)
}

func TestOverviewHandler_GetSummary(t *testing.T) {
	status, body := serveJSON(t, newOverviewRouter().Routes(), "/summary")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(52387), body["active_centres"])
}

func TestOverviewHandler_GetTrends(t *testing.T) {
	status, body := serveJSON(t, newOverviewRouter().Routes(), "/trends")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 4.2, body["enrolment_growth_yoy"])
	assert.Equal(t, "Jan 2024", body["peak_month"])
}

func TestOverviewHandler_GetAlerts(t *testing.T) {
	status, body := serveJSON(t, newOverviewRouter().Routes(), "/alerts")

	require.Equal(t, http.StatusOK, status)
	alerts := body["alerts"].([]interface{})
	require.Len(t, alerts, 1)
	assert.Equal(t, float64(1), body["count"])

	alert := alerts[0].(map[string]interface{})
	assert.Equal(t, "Bihar", alert["region"])
	assert.Equal(t, "medium", alert["severity"])
}
