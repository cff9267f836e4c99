package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := NewNetworkError("fetch failed", cause)

		assert.Equal(t, "[NETWORK] fetch failed: connection refused", err.Error())
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewInsufficientDataError("need 12 points")
		assert.Equal(t, "[INSUFFICIENT_DATA] need 12 points", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("context", func(t *testing.T) {
		err := NewParsingError("bad record", nil).WithContext("row", 7)
		assert.Equal(t, 7, err.Context["row"])
	})

	t.Run("IsType", func(t *testing.T) {
		err := NewNotFoundError("state XX", nil)
		assert.True(t, IsType(err, ErrTypeNotFound))
		assert.False(t, IsType(err, ErrTypeNetwork))
		assert.False(t, IsType(fmt.Errorf("plain"), ErrTypeNotFound))
	})
}

func TestToAPIErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error passthrough", ErrInvalidParameter, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"not found", NewNotFoundError("missing", nil), http.StatusNotFound, "NOT_FOUND"},
		{"insufficient data", NewInsufficientDataError("short series"), http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"},
		{"network", NewNetworkError("upstream down", nil), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"parsing maps to internal", NewParsingError("bad payload", nil), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"unknown error", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := toAPIError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestErrorHandlerWritesResponse(t *testing.T) {
	handler := NewErrorHandler(slog.Default())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/forecasts/enrolments", nil)

	handler.HandleError(w, r, NewInsufficientDataError("need at least 12 points"))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_DATA")
	assert.Contains(t, w.Body.String(), "need at least 12 points")
}
