package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnomalyRouter() *AnomalyHandler {
	return NewAnomalyHandler(stubAnomalies{}, testLogger(), testErrorHandler())
}

func TestAnomalyHandler_GetAnomalies(t *testing.T) {
	status, body := serveJSON(t, newAnomalyRouter().Routes(), "/")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["total_anomalies"])

	bySeverity := body["by_severity"].(map[string]interface{})
	assert.Equal(t, float64(1), bySeverity["high"])
	assert.Equal(t, float64(1), bySeverity["medium"])
	assert.Equal(t, float64(0), bySeverity["low"])
	assert.Equal(t, float64(0), bySeverity["critical"])
}

func TestAnomalyHandler_GetAnomaliesFiltered(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantTotal float64
	}{
		{name: "by severity", target: "/?severity=high", wantTotal: 1},
		{name: "by type", target: "/?type=Update+Fatigue", wantTotal: 1},
		{name: "both filters exclude all", target: "/?severity=low&type=Update+Fatigue", wantTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serveJSON(t, newAnomalyRouter().Routes(), tt.target)

			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.wantTotal, body["total_anomalies"])
		})
	}
}

func TestAnomalyHandler_GetSummary(t *testing.T) {
	status, body := serveJSON(t, newAnomalyRouter().Routes(), "/summary")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["total_anomalies"])
}

func TestAnomalyHandler_GetAnomalyDetail(t *testing.T) {
	status, body := serveJSON(t, newAnomalyRouter().Routes(), "/ANM-2024-001")

	require.Equal(t, http.StatusOK, status)
	detail := body["anomaly"].(map[string]interface{})
	assert.Equal(t, "Enrolment Surge", detail["type"])
	assert.Equal(t, "Karnataka", detail["state"])
}

func TestAnomalyHandler_GetAnomalyDetailNotFound(t *testing.T) {
	status, body := serveJSON(t, newAnomalyRouter().Routes(), "/ANM-2024-999")

	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}

func TestAnomalyHandler_ExplainAnomaly(t *testing.T) {
	status, body := serveJSON(t, newAnomalyRouter().Routes(), "/explain/ANM-2024-001")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ANM-2024-001", body["anomaly_id"])
	assert.Equal(t, "Enrolment volume 2.1x higher than expected", body["explanation"])
	assert.Equal(t, "Investigate the spike", body["recommendation"])
	assert.Equal(t, 0.85, body["confidence"])
}

func TestAnomalyHandler_ExplainAnomalyNotFound(t *testing.T) {
	status, _ := serveJSON(t, newAnomalyRouter().Routes(), "/explain/ANM-2024-999")

	require.Equal(t, http.StatusNotFound, status)
}
