package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/inspect"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/intent"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/monitoring"
)

const (
	writeTimeout  = 10 * time.Second
	submitTimeout = 5 * time.Second
	controlBuffer = 8

	// client frames are small control messages
	maxMessageSize = 64 * 1024
)

// Message is a client to server frame
type Message struct {
	Type     string                   `json:"type"`
	Context  *attention.ContextUpdate `json:"context,omitempty"`
	Modality attention.Modality       `json:"modality,omitempty"`
}

// Frame is a server to client frame
type Frame struct {
	Type         string            `json:"type"`
	ConnectionID string            `json:"connectionId,omitempty"`
	Snapshot     *inspect.Snapshot `json:"snapshot,omitempty"`
	Error        string            `json:"error,omitempty"`
	Timestamp    int64             `json:"timestamp"`
}

// Handler serves the devtools stream
type Handler struct {
	coord        *intent.Coordinator
	store        *attention.Store
	metrics      *monitoring.Metrics
	logger       *zap.Logger
	upgrader     websocket.Upgrader
	pollInterval time.Duration
	writeTimeout time.Duration
}

// NewHandler creates a stream handler. Connections send a snapshot on
// connect, after every store change and every pollInterval.
func NewHandler(coord *intent.Coordinator, logger *zap.Logger, pollInterval time.Duration, checkOrigin func(*http.Request) bool) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Handler{
		coord:        coord,
		store:        coord.Store(),
		logger:       logger,
		upgrader:     websocket.Upgrader{CheckOrigin: checkOrigin},
		pollInterval: pollInterval,
		writeTimeout: writeTimeout,
	}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// OriginChecker allows requests without an Origin header and those whose
// origin is listed. A "*" entry allows everything.
func OriginChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[strings.TrimSpace(origin)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

// client owns one connection's writer goroutine
type client struct {
	id      string
	conn    *websocket.Conn
	control chan Frame    // pongs and errors
	dirty   chan struct{} // store changed since the last snapshot
	done    chan struct{}
}

// markDirty never blocks: a pending signal already covers this change
func (cl *client) markDirty() {
	select {
	case cl.dirty <- struct{}{}:
	default:
	}
}

// HandleConnection upgrades the request and serves it until the client
// disconnects
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	cl := &client{
		id:      uuid.NewString(),
		conn:    conn,
		control: make(chan Frame, controlBuffer),
		dirty:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	logger := h.logger.With(zap.String("connection", cl.id))
	logger.Info("Stream client connected", zap.String("remote", c.ClientIP()))

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	unsubscribe := h.store.OnChange(func(attention.Context) { cl.markDirty() })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(cl, logger)
	}()

	h.readLoop(c.Request.Context(), cl, logger)

	unsubscribe()
	close(cl.done)
	wg.Wait()
	conn.Close()
	logger.Info("Stream client disconnected")
}

func (h *Handler) readLoop(ctx context.Context, cl *client, logger *zap.Logger) {
	for {
		var msg Message
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.record("in", msg.Type)

		switch msg.Type {
		case "ping":
			h.sendControl(cl, Frame{Type: "pong"})
		case "update_context":
			if msg.Context == nil {
				h.sendControl(cl, Frame{Type: "error", Error: "update_context requires context"})
				continue
			}
			h.submit(ctx, cl, intent.UpdateContext(*msg.Context))
		case "set_modality":
			h.submit(ctx, cl, intent.SetModality(msg.Modality))
		case "refresh":
			h.submit(ctx, cl, intent.Refresh())
		default:
			h.sendControl(cl, Frame{Type: "error", Error: "unknown message type: " + msg.Type})
		}
	}
}

func (h *Handler) submit(ctx context.Context, cl *client, in intent.Intent) {
	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	if err := h.coord.Submit(ctx, in); err != nil {
		h.sendControl(cl, Frame{Type: "error", Error: err.Error()})
	}
}

func (h *Handler) sendControl(cl *client, f Frame) {
	select {
	case cl.control <- f:
	default:
		h.logger.Warn("Dropping control frame for slow client",
			zap.String("connection", cl.id),
			zap.String("type", f.Type),
		)
	}
}

func (h *Handler) writeLoop(cl *client, logger *zap.Logger) {
	if err := h.writeFrames(cl); err != nil {
		logger.Warn("WebSocket write error", zap.Error(err))
		// unblock the reader so the connection is torn down
		cl.conn.Close()
	}
}

// writeFrames sends the initial snapshot and then every queued frame until
// the client is done or a write fails
func (h *Handler) writeFrames(cl *client) error {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	if err := h.writeSnapshot(cl); err != nil {
		return err
	}

	for {
		var err error
		select {
		case <-cl.done:
			return nil
		case f := <-cl.control:
			err = h.write(cl, f)
		case <-cl.dirty:
			err = h.writeSnapshot(cl)
		case <-ticker.C:
			err = h.writeSnapshot(cl)
		}
		if err != nil {
			return err
		}
	}
}

func (h *Handler) writeSnapshot(cl *client) error {
	snap := inspect.Take(h.store)
	return h.write(cl, Frame{Type: "snapshot", ConnectionID: cl.id, Snapshot: &snap})
}

func (h *Handler) write(cl *client, f Frame) error {
	f.Timestamp = time.Now().Unix()
	if err := cl.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	if err := cl.conn.WriteJSON(f); err != nil {
		return err
	}
	h.record("out", f.Type)
	return nil
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
