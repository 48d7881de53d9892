package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs routes the default logger into a buffer for the test's duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	NewRouter(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestUploadRoute(t *testing.T) {
	called := false
	upload := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	})
	router := NewRouter(upload)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusAccepted, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestUnmatchedRequestsAreLogged(t *testing.T) {
	logs := captureLogs(t)
	router := NewRouter(http.NotFoundHandler())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	dec := json.NewDecoder(logs)
	var entries []map[string]any
	for dec.More() {
		var entry map[string]any
		require.NoError(t, dec.Decode(&entry))
		entries = append(entries, entry)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "/missing", entries[0]["path"])
	assert.EqualValues(t, http.StatusNotFound, entries[0]["status"])
	assert.Equal(t, http.MethodDelete, entries[1]["method"])
	assert.EqualValues(t, http.StatusMethodNotAllowed, entries[1]["status"])
}
