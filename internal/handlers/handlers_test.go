package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-fim/internal/chainlog"
	"github.com/telhawk-systems/telhawk-fim/internal/handlers"
	"github.com/telhawk-systems/telhawk-fim/internal/models"
	"github.com/telhawk-systems/telhawk-fim/internal/server"
)

// seedLog writes n chained records spaced one minute apart and returns the
// log path.
func seedLog(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.log")

	l, err := chainlog.Open(path, chainlog.RecoveryReset, nil)
	require.NoError(t, err)
	defer l.Close()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := l.Append(models.FIMEvent{
			EventID:    string(rune('a' + i)),
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			EventType:  models.EventModify,
			FilePath:   "/a.txt",
			HashBefore: "old",
			HashAfter:  "new",
		})
		require.NoError(t, err)
	}
	return path
}

func get(t *testing.T, logPath, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := server.NewRouter(handlers.New(logPath, nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decodeEvents(t *testing.T, w *httptest.ResponseRecorder) []models.FIMEvent {
	t.Helper()
	var body struct {
		Events []models.FIMEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Events
}

func TestEventsDefaultLimit(t *testing.T) {
	logPath := seedLog(t, 5)
	w := get(t, logPath, "/events")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Len(t, decodeEvents(t, w), 5)
}

func TestEventsLimitReturnsMostRecentAscending(t *testing.T) {
	logPath := seedLog(t, 5)
	w := get(t, logPath, "/events?limit=2")

	require.Equal(t, http.StatusOK, w.Code)
	events := decodeEvents(t, w)
	require.Len(t, events, 2)
	assert.Equal(t, "d", events[0].EventID)
	assert.Equal(t, "e", events[1].EventID)
	assert.True(t, events[0].Timestamp.Before(events[1].Timestamp))
}

func TestEventsLimitClamping(t *testing.T) {
	logPath := seedLog(t, 3)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"zero clamps to one", "/events?limit=0", 1},
		{"negative clamps to one", "/events?limit=-5", 1},
		{"above max clamps to max", "/events?limit=9999", 3},
		{"malformed falls back to default", "/events?limit=abc", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, logPath, tt.target)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Len(t, decodeEvents(t, w), tt.want)
		})
	}
}

func TestEventsEmptyLog(t *testing.T) {
	w := get(t, filepath.Join(t.TempDir(), "missing.log"), "/events")

	require.Equal(t, http.StatusOK, w.Code)
	events := decodeEvents(t, w)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestUnknownPathReturnsJSON404(t *testing.T) {
	logPath := seedLog(t, 1)
	w := get(t, logPath, "/nope")

	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not found", body["error"])
}

func TestEventsRejectsNonGET(t *testing.T) {
	logPath := seedLog(t, 1)
	router := server.NewRouter(handlers.New(logPath, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHealthz(t *testing.T) {
	logPath := seedLog(t, 1)
	w := get(t, logPath, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}
