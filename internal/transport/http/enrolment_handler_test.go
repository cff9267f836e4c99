package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnrolmentRouter() *EnrolmentHandler {
	return NewEnrolmentHandler(stubAnalytics{}, stubRepository{}, testLogger(), testErrorHandler())
}

func TestEnrolmentHandler_GetEnrolments(t *testing.T) {
	status, body := serveJSON(t, newEnrolmentRouter().Routes(), "/")

	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["timeseries"].([]interface{}), 24)
	assert.NotNil(t, body["demographics"])
}

func TestEnrolmentHandler_GetTimeseries(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCount  int
	}{
		{name: "default window", target: "/timeseries", wantStatus: http.StatusOK, wantCount: 24},
		{name: "explicit window", target: "/timeseries?months=12", wantStatus: http.StatusOK, wantCount: 12},
		{name: "window too small", target: "/timeseries?months=3", wantStatus: http.StatusBadRequest},
		{name: "window too large", target: "/timeseries?months=120", wantStatus: http.StatusBadRequest},
		{name: "not an integer", target: "/timeseries?months=abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serveJSON(t, newEnrolmentRouter().Routes(), tt.target)

			require.Equal(t, tt.wantStatus, status)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, float64(tt.wantCount), body["count"])
				assert.Len(t, body["series"].([]interface{}), tt.wantCount)
			} else {
				assert.Equal(t, "INVALID_PARAMETER", body["error_code"])
			}
		})
	}
}

func TestEnrolmentHandler_GetStates(t *testing.T) {
	status, body := serveJSON(t, newEnrolmentRouter().Routes(), "/states")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["total_states"])

	first := body["states"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Maharashtra", first["name"])
	assert.Equal(t, "West", first["region"])
	assert.Equal(t, float64(112_000_000), first["enrolments"])
}

func TestEnrolmentHandler_GetStateDetails(t *testing.T) {
	status, body := serveJSON(t, newEnrolmentRouter().Routes(), "/state/BR")

	require.Equal(t, http.StatusOK, status)
	state := body["state"].(map[string]interface{})
	assert.Equal(t, "Bihar", state["name"])
	assert.Len(t, body["monthly_trend"].([]interface{}), 12)
}

func TestEnrolmentHandler_GetStateDetailsNotFound(t *testing.T) {
	status, body := serveJSON(t, newEnrolmentRouter().Routes(), "/state/XX")

	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}
