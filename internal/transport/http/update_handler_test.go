package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpdateRouter() *UpdateHandler {
	return NewUpdateHandler(stubAnalytics{}, stubRepository{}, testLogger(), testErrorHandler())
}

func TestUpdateHandler_GetUpdates(t *testing.T) {
	status, body := serveJSON(t, newUpdateRouter().Routes(), "/")

	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["update_types"].([]interface{}), 2)
	assert.NotNil(t, body["update_fatigue_index"])
}

func TestUpdateHandler_GetTypes(t *testing.T) {
	status, body := serveJSON(t, newUpdateRouter().Routes(), "/types")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Address", body["most_common"])

	first := body["update_types"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 38.0, first["percentage"])
}

func TestUpdateHandler_GetTimeseries(t *testing.T) {
	status, body := serveJSON(t, newUpdateRouter().Routes(), "/timeseries?months=6")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(6), body["count"])
}

func TestUpdateHandler_GetTimeseriesRejectsBadWindow(t *testing.T) {
	status, body := serveJSON(t, newUpdateRouter().Routes(), "/timeseries?months=0")

	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_PARAMETER", body["error_code"])
}

func TestUpdateHandler_GetPatterns(t *testing.T) {
	status, body := serveJSON(t, newUpdateRouter().Routes(), "/patterns")

	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, body["seasonal_patterns"])

	fatigue := body["update_fatigue_index"].(map[string]interface{})
	assert.Equal(t, 0.72, fatigue["national_index"])
}

func TestUpdateHandler_GetFatigue(t *testing.T) {
	status, body := serveJSON(t, newUpdateRouter().Routes(), "/fatigue")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "increasing", body["trend"])
	assert.Len(t, body["high_fatigue_districts"].([]interface{}), 1)
}
