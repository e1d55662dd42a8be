package client

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gamehub/automation-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.URL, 2*time.Second, zaptest.NewLogger(t))
}

func TestStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/status", r.URL.Path)
		w.Write([]byte(`{"recording":false,"playing":true,"macro_length":4,"mode":"macro"}`))
	})

	st, err := c.Status()
	require.NoError(t, err)
	assert.True(t, st.Playing)
	assert.Equal(t, 4, st.MacroLength)
	assert.Equal(t, models.ModeMacro, st.Mode)
}

func TestPlayMacroSendsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/play-macro", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.PlayMacroRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Loop)
		assert.Equal(t, int64(50), req.Interval)
		assert.Len(t, req.Macro, 1)

		w.Write([]byte(`{"status":"playing","session_id":"abc"}`))
	})

	id, err := c.PlayMacro(models.PlayMacroRequest{
		Macro:    models.Macro{{Type: models.EventKeyDown, Key: "a"}},
		Loop:     true,
		Interval: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestErrorResponsesBecomeAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"already recording","code":"already_recording"}`))
	})

	_, err := c.StartRecording()
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsConflict())
	assert.Equal(t, "already_recording", apiErr.Code)
	assert.Equal(t, "already recording", apiErr.Message)
}

func TestNonJSONErrorKeepsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	})

	err := c.HealthCheck()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "gateway down")
	assert.Empty(t, apiErr.Code)
}

func TestLoadMacroFileSendsRawBody(t *testing.T) {
	file := []byte(`[{"type":"move","time":0,"x":1,"y":1}]`)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, file, body)
		w.Write([]byte(`{"status":"loaded","macro_length":1}`))
	})

	n, err := c.LoadMacroFile(file)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSessionsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"id":"s1","kind":"playback","outcome":"completed","started_at":"2026-01-02T03:04:05Z"}]`))
	})

	sessions, err := c.Sessions(3)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.OutcomeCompleted, sessions[0].Outcome)
}

func TestBackgroundClickerIntervalInMilliseconds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.BackgroundClickerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, models.WindowHandle(77), req.Hwnd)
		assert.Equal(t, int64(250), req.Interval)
		w.Write([]byte(`{"status":"started","session_id":"clk"}`))
	})

	id, err := c.StartBackgroundClicker(77, 250*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "clk", id)
}
