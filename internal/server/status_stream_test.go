package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gamehub/automation-agent/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func dialStream(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return websocket.DefaultDialer.Dial(url, header)
}

func readStatus(t *testing.T, conn *websocket.Conn) models.AutomationStatus {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var status models.AutomationStatus
	require.NoError(t, json.Unmarshal(data, &status))
	return status
}

func TestStatusStreamBroadcast(t *testing.T) {
	stream := NewStatusStream(nil, zaptest.NewLogger(t))
	stream.Start()
	defer stream.Stop()

	srv := httptest.NewServer(stream)
	defer srv.Close()

	conn, _, err := dialStream(t, srv, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return stream.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	stream.Publish(models.AutomationStatus{Recording: true})
	assert.True(t, readStatus(t, conn).Recording)

	stream.Publish(models.AutomationStatus{Playing: true, MacroLength: 3, Mode: models.ModeMacro})
	got := readStatus(t, conn)
	assert.True(t, got.Playing)
	assert.Equal(t, 3, got.MacroLength)
	assert.Equal(t, models.ModeMacro, got.Mode)
}

func TestStatusStreamSendsLastSnapshotOnConnect(t *testing.T) {
	stream := NewStatusStream(nil, zaptest.NewLogger(t))
	stream.Start()
	defer stream.Stop()

	stream.Publish(models.AutomationStatus{MacroLength: 7})

	srv := httptest.NewServer(stream)
	defer srv.Close()

	// the hub may not have broadcast yet; either path delivers the snapshot
	conn, _, err := dialStream(t, srv, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, 7, readStatus(t, conn).MacroLength)
}

func TestStatusStreamRejectsForeignOrigin(t *testing.T) {
	stream := NewStatusStream([]string{"http://localhost:3000"}, zaptest.NewLogger(t))
	stream.Start()
	defer stream.Stop()

	srv := httptest.NewServer(stream)
	defer srv.Close()

	_, resp, err := dialStream(t, srv, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dialStream(t, srv, http.Header{"Origin": []string{"http://localhost:3000"}})
	require.NoError(t, err)
	conn.Close()
}

func TestStatusStreamStopClosesClients(t *testing.T) {
	stream := NewStatusStream(nil, zaptest.NewLogger(t))
	stream.Start()

	srv := httptest.NewServer(stream)
	defer srv.Close()

	conn, _, err := dialStream(t, srv, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return stream.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	stream.Stop()
	stream.Stop()
	assert.Equal(t, 0, stream.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
