package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/intent"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/attention/internal/testutil"
)

func startStream(t *testing.T) (*websocket.Conn, *attention.Store) {
	t.Helper()
	return startStreamWith(t, nil)
}

func startStreamWith(t *testing.T, configure func(*Handler)) (*websocket.Conn, *attention.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := testutil.NewLogger(t)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	store := attention.NewStore(logger, attention.DefaultCapacity())
	coord := intent.NewCoordinator(store, logger, 16)

	ctx, cancel := context.WithCancel(context.Background())
	go coord.Run(ctx)

	// a long poll interval keeps ticks out of the way
	handler := NewHandler(coord, logger, time.Hour, OriginChecker([]string{"*"})).WithMetrics(metrics)
	if configure != nil {
		configure(handler)
	}
	router := gin.New()
	router.GET("/stream", handler.HandleConnection)

	srv := httptest.NewServer(router)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Close()
		cancel()
	})
	return conn, store
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil skips frames until match accepts one
func readUntil(t *testing.T, conn *websocket.Conn, match func(Frame) bool) Frame {
	t.Helper()
	for i := 0; i < 20; i++ {
		if f := readFrame(t, conn); match(f) {
			return f
		}
	}
	t.Fatal("expected frame never arrived")
	return Frame{}
}

func TestStreamSendsSnapshotOnConnect(t *testing.T) {
	conn, _ := startStream(t)

	f := readFrame(t, conn)

	assert.Equal(t, "snapshot", f.Type)
	assert.NotEmpty(t, f.ConnectionID)
	require.NotNil(t, f.Snapshot)
	assert.Equal(t, attention.ModalityScreen, f.Snapshot.Context.Modality)
}

func TestStreamPing(t *testing.T) {
	conn, _ := startStream(t)
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))

	f := readUntil(t, conn, func(f Frame) bool { return f.Type != "snapshot" })
	assert.Equal(t, "pong", f.Type)
}

func TestStreamPushesStoreChanges(t *testing.T) {
	conn, store := startStream(t)
	readFrame(t, conn)

	store.Register(testutil.Widget("pushed", attention.UrgencyHigh, 50, attention.Needs{Screen: 10}))

	f := readUntil(t, conn, func(f Frame) bool {
		return f.Snapshot != nil && len(f.Snapshot.Elements) == 1
	})
	assert.Equal(t, "pushed", f.Snapshot.Elements[0].ID)
}

func TestStreamRoutesIntents(t *testing.T) {
	conn, store := startStream(t)
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: "set_modality", Modality: attention.ModalityVoiceOnly}))
	readUntil(t, conn, func(f Frame) bool {
		return f.Snapshot != nil && f.Snapshot.Context.Modality == attention.ModalityVoiceOnly
	})

	require.NoError(t, conn.WriteJSON(Message{
		Type:    "update_context",
		Context: &attention.ContextUpdate{User: &attention.User{InFocusMode: true}},
	}))
	readUntil(t, conn, func(f Frame) bool {
		return f.Snapshot != nil && f.Snapshot.Context.User.InFocusMode
	})

	assert.True(t, store.Context().User.InFocusMode)
	assert.Equal(t, attention.ModalityVoiceOnly, store.Context().Modality)
}

func TestStreamReportsErrors(t *testing.T) {
	conn, _ := startStream(t)
	readFrame(t, conn)

	tests := []struct {
		msg  Message
		want string
	}{
		{Message{Type: "dance"}, "unknown message type"},
		{Message{Type: "update_context"}, "requires context"},
		{Message{Type: "set_modality"}, "empty modality"},
	}

	for _, tt := range tests {
		require.NoError(t, conn.WriteJSON(tt.msg))
		f := readUntil(t, conn, func(f Frame) bool { return f.Type == "error" })
		assert.Contains(t, f.Error, tt.want)
	}
}

func TestOriginChecker(t *testing.T) {
	check := OriginChecker([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, OriginChecker([]string{"*"})(req))
}

func TestFailedInitialWriteClosesConnection(t *testing.T) {
	// a deadline in the past makes the first snapshot write fail
	conn, _ := startStreamWith(t, func(h *Handler) { h.writeTimeout = -time.Second })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "server left the connection open: %v", err)
	}
}
