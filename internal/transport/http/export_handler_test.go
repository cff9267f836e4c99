package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExportRouter(s ExportService) *ExportHandler {
	return NewExportHandler(s, testLogger(), testErrorHandler())
}

func TestExportHandler_ExportCSV(t *testing.T) {
	status, body := serveJSON(t, newExportRouter(stubExports{}).Routes(), "/csv?data_type=states")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "states", body["data_type"])
	assert.Equal(t, "/api/v1/exports/download/EXP-2024-000001.csv", body["download_url"])
}

func TestExportHandler_ExportCSVDefaultsToEnrolments(t *testing.T) {
	status, body := serveJSON(t, newExportRouter(stubExports{}).Routes(), "/csv")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "enrolments", body["data_type"])
}

func TestExportHandler_ExportCSVRejectsUnknownType(t *testing.T) {
	status, body := serveJSON(t, newExportRouter(stubExports{}).Routes(), "/csv?data_type=centres")

	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_PARAMETER", body["error_code"])
}

func TestExportHandler_ExportExcel(t *testing.T) {
	status, body := serveJSON(t, newExportRouter(stubExports{}).Routes(), "/excel?data_type=updates")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "xlsx", body["format"])
}

func TestExportHandler_GetHistory(t *testing.T) {
	status, body := serveJSON(t, newExportRouter(stubExports{}).Routes(), "/history?limit=1")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])
}

func TestExportHandler_GetHistoryRejectsBadLimit(t *testing.T) {
	for _, target := range []string{"/history?limit=0", "/history?limit=51", "/history?limit=many"} {
		status, body := serveJSON(t, newExportRouter(stubExports{}).Routes(), target)

		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "INVALID_PARAMETER", body["error_code"])
	}
}

func TestExportHandler_Download(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "EXP-2024-000001.csv")
	require.NoError(t, os.WriteFile(path, []byte("Period,Enrolments\n"), 0o644))

	router := newExportRouter(stubExports{path: path}).Routes()
	req := httptest.NewRequest("GET", "/download/EXP-2024-000001.csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "EXP-2024-000001.csv")
	assert.Equal(t, "Period,Enrolments\n", rec.Body.String())
}

func TestExportHandler_DownloadNotFound(t *testing.T) {
	status, body := serveJSON(t, newExportRouter(stubExports{}).Routes(), "/download/missing.csv")

	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}
