package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"gamehub/automation-agent/internal/config"
	"gamehub/automation-agent/internal/database"
	"gamehub/automation-agent/internal/handler"
	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/platform/platformtest"
	"gamehub/automation-agent/internal/repository"
	"gamehub/automation-agent/internal/router"
	"gamehub/automation-agent/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testServer struct {
	engine *gin.Engine
	svc    *service.AutomationService
	fake   *platformtest.Fake
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	db, err := database.New(filepath.Join(t.TempDir(), "handler.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fake := platformtest.NewFake()
	svc := service.NewAutomationService(
		fake,
		service.EngineConfig(config.AutomationConfig{
			MinClickInterval:     10 * time.Millisecond,
			DefaultClickInterval: 20 * time.Millisecond,
			ClickPointX:          100,
			ClickPointY:          100,
			ColorPickDelay:       10 * time.Millisecond,
			WindowPollInterval:   5 * time.Millisecond,
			CaptureBufferSize:    64,
			StopTimeout:          2 * time.Second,
		}),
		repository.NewMacroRepository(db.DB),
		repository.NewSessionRepository(db.DB),
		config.HistoryConfig{Retention: time.Hour, ListLimit: 20},
		logger,
	)
	require.NoError(t, svc.Start())
	t.Cleanup(svc.Stop)

	engine := router.New(router.Handlers{
		Automation: handler.NewAutomationHandler(svc, logger),
		Macros:     handler.NewMacroHandler(svc, logger),
	}, []string{"*"}, logger)

	return &testServer{engine: engine, svc: svc, fake: fake}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestStatusStartsIdle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	st := decode[models.AutomationStatus](t, w)
	assert.False(t, st.Recording)
	assert.False(t, st.Playing)
	assert.Equal(t, 0, st.MacroLength)
}

func TestRecordingRoundTrip(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/start-recording", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "started", decode[map[string]any](t, w)["status"])

	w = s.do(t, http.MethodPost, "/start-recording", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_recording", decode[handler.ErrorResponse](t, w).Code)

	now := time.Now()
	require.True(t, s.fake.Inject(models.InputEvent{Type: models.EventMouseMove, X: 5, Y: 6}, now))
	require.True(t, s.fake.Inject(models.InputEvent{Type: models.EventKeyDown, Key: "a"}, now.Add(10*time.Millisecond)))

	w = s.do(t, http.MethodPost, "/stop-recording", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string       `json:"status"`
		Macro  models.Macro `json:"macro"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "stopped", body.Status)
	require.Len(t, body.Macro, 2)
	assert.Equal(t, models.EventMouseMove, body.Macro[0].Type)

	st := decode[models.AutomationStatus](t, s.do(t, http.MethodGet, "/status", nil))
	assert.False(t, st.Recording)
	assert.Equal(t, 2, st.MacroLength)
}

func TestStopRecordingWhenIdle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/stop-recording", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_recording", decode[handler.ErrorResponse](t, w).Code)
}

func TestPlayMacroEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := map[string]any{
		"macro": []map[string]any{
			{"type": "mouse_move", "time": 0, "x": 1, "y": 2},
			{"type": "click", "time": 0.01, "x": 1, "y": 2, "button": "left"},
		},
		"loop":     false,
		"interval": 0,
	}
	w := s.do(t, http.MethodPost, "/play-macro", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[map[string]any](t, w)
	assert.Equal(t, "playing", resp["status"])
	assert.NotEmpty(t, resp["session_id"])

	s.svc.WaitPlayback()
	assert.Equal(t, 2, s.fake.EmittedCount())
}

func TestPlayMacroErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/play-macro", map[string]any{"macro": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_macro", decode[handler.ErrorResponse](t, w).Code)

	// no body plays the current macro, which is empty
	w = s.do(t, http.MethodPost, "/play-macro", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/play-macro", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decode[handler.ErrorResponse](t, w).Code)

	w = s.do(t, http.MethodPost, "/play-macro", map[string]any{
		"macro": []map[string]any{{"type": "mouse_move", "time": 0}},
		"hwnd":  999,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_window", decode[handler.ErrorResponse](t, w).Code)
}

func TestPlayWhilePlayingConflicts(t *testing.T) {
	s := newTestServer(t)

	req := map[string]any{
		"macro": []map[string]any{{"type": "mouse_move", "time": 0, "x": 1, "y": 1}},
		"loop":  true,
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/play-macro", req).Code)

	w := s.do(t, http.MethodPost, "/play-macro", req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_playing", decode[handler.ErrorResponse](t, w).Code)

	w = s.do(t, http.MethodPost, "/stop-playback", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stopped", decode[map[string]any](t, w)["status"])
	assert.False(t, s.svc.Status().Playing)

	// stop is idempotent
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/stop-playback", nil).Code)
}

func TestBackgroundClickerEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddWindow(42, "Game")

	w := s.do(t, http.MethodPost, "/start-background-clicker", map[string]any{"hwnd": 42, "interval": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Eventually(t, func() bool { return s.fake.EmittedCount() >= 2 }, time.Second, 5*time.Millisecond)
	st := s.svc.Status()
	assert.True(t, st.Playing)
	assert.Equal(t, models.ModeBackgroundClicker, st.Mode)

	s.fake.CloseWindow(42)
	require.Eventually(t, func() bool { return !s.svc.Status().Playing }, time.Second, 5*time.Millisecond)

	w = s.do(t, http.MethodPost, "/start-background-clicker", map[string]any{"hwnd": 42, "interval": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_window", decode[handler.ErrorResponse](t, w).Code)
}

func TestIntervalOutOfRangeIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddWindow(42, "Game")

	w := s.do(t, http.MethodPost, "/start-background-clicker", map[string]any{"hwnd": 42, "interval": int64(1) << 50})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_interval", decode[handler.ErrorResponse](t, w).Code)

	req := map[string]any{
		"macro":    []map[string]any{{"type": "click", "time": 0, "x": 1, "y": 1}},
		"interval": -1,
	}
	w = s.do(t, http.MethodPost, "/play-macro", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_interval", decode[handler.ErrorResponse](t, w).Code)

	assert.Zero(t, s.fake.EmittedCount())
	assert.False(t, s.svc.Status().Playing)
}

func TestWindowsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.fake.AddWindow(1, "Editor")
	s.fake.AddWindow(2, "")

	w := s.do(t, http.MethodGet, "/windows", nil)
	require.Equal(t, http.StatusOK, w.Code)

	windows := decode[[]models.WindowInfo](t, w)
	require.Len(t, windows, 1)
	assert.Equal(t, models.WindowHandle(1), windows[0].Handle)
	assert.Equal(t, "Editor", windows[0].Title)
}

func TestWindowsEndpointEmptyIsArray(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/windows", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestColorEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.fake.SetCursor(10, 20)
	s.fake.SetPixel(10, 20, "#ff8800")

	info := decode[models.CursorInfo](t, s.do(t, http.MethodGet, "/get-cursor-info", nil))
	assert.Equal(t, models.CursorInfo{X: 10, Y: 20, Color: "#ff8800"}, info)

	w := s.do(t, http.MethodGet, "/trigger-color", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// no target yet
	res := decode[models.CheckColorResult](t, s.do(t, http.MethodPost, "/check-color", nil))
	assert.False(t, res.Matches)
	assert.Equal(t, "#ff8800", res.Color)

	w = s.do(t, http.MethodPost, "/pick-color", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "#ff8800", decode[models.TriggerColor](t, w).Color)

	res = decode[models.CheckColorResult](t, s.do(t, http.MethodPost, "/check-color", map[string]any{}))
	assert.True(t, res.Matches)

	res = decode[models.CheckColorResult](t, s.do(t, http.MethodPost, "/check-color", map[string]any{"x": 0, "y": 0, "color": "#FF8800"}))
	assert.False(t, res.Matches)
	assert.Equal(t, "#000000", res.Color)

	w = s.do(t, http.MethodPost, "/check-color", map[string]any{"color": "orange"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_color", decode[handler.ErrorResponse](t, w).Code)
}

func TestLoadMacroEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/load-macro", `[{"type":"move","time":0,"x":3,"y":4},{"type":"click","time":0.2,"x":3,"y":4,"button":"Button.left","pressed":true}]`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["macro_length"])

	macro := decode[models.Macro](t, s.do(t, http.MethodGet, "/macro", nil))
	require.Len(t, macro, 2)
	assert.Equal(t, models.EventMouseDown, macro[1].Type)

	w = s.do(t, http.MethodPost, "/load-macro", `{"type":"move"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_macro_file", decode[handler.ErrorResponse](t, w).Code)
	assert.Equal(t, 2, s.svc.Status().MacroLength)
}

func TestSessionsEndpoint(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/start-recording", nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/stop-recording", nil).Code)

	require.Eventually(t, func() bool {
		w := s.do(t, http.MethodGet, "/sessions?limit=5", nil)
		if w.Code != http.StatusOK {
			return false
		}
		sessions := decode[[]models.Session](t, w)
		return len(sessions) == 1 && sessions[0].Outcome == models.OutcomeCompleted
	}, 2*time.Second, 10*time.Millisecond)

	w := s.do(t, http.MethodGet, "/sessions?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
