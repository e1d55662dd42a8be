package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"gamehub/automation-agent/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	clientBuffer = 16
)

// StatusStream pushes automation status snapshots to websocket clients
type StatusStream struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	clients    map[*streamClient]bool
	register   chan *streamClient
	unregister chan *streamClient
	pending    chan models.AutomationStatus

	mu     sync.RWMutex
	last   []byte
	stopCh chan struct{}
	wg     sync.WaitGroup
}

type streamClient struct {
	stream *StatusStream
	conn   *websocket.Conn
	send   chan []byte
}

// NewStatusStream creates a stream. An empty allowedOrigins accepts any origin.
func NewStatusStream(allowedOrigins []string, logger *zap.Logger) *StatusStream {
	s := &StatusStream{
		logger:     logger,
		clients:    make(map[*streamClient]bool),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		pending:    make(chan models.AutomationStatus, 1),
		stopCh:     make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return s
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		if len(set) == 0 || set["*"] {
			return true
		}
		origin := r.Header.Get("Origin")
		// non-browser clients send no origin
		return origin == "" || set[origin]
	}
}

// Start runs the hub loop
func (s *StatusStream) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop disconnects every client and ends the hub loop
func (s *StatusStream) Stop() {
	select {
	case <-s.stopCh:
		return
	default:
		close(s.stopCh)
	}
	s.wg.Wait()
}

// Publish queues a snapshot for broadcast. It never blocks; when the hub is
// behind, the older queued snapshot is replaced.
func (s *StatusStream) Publish(status models.AutomationStatus) {
	for {
		select {
		case s.pending <- status:
			return
		default:
		}
		select {
		case <-s.pending:
		default:
		}
	}
}

// ClientCount returns the number of connected clients
func (s *StatusStream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *StatusStream) run() {
	defer s.wg.Done()

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			last := s.last
			total := len(s.clients)
			s.mu.Unlock()
			if last != nil {
				client.send <- last
			}
			s.logger.Debug("Status stream client connected", zap.Int("clients", total))

		case client := <-s.unregister:
			s.remove(client)

		case status := <-s.pending:
			s.broadcast(status)

		case <-s.stopCh:
			s.mu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.mu.Unlock()
			return
		}
	}
}

func (s *StatusStream) remove(client *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
		s.logger.Debug("Status stream client disconnected", zap.Int("clients", len(s.clients)))
	}
}

func (s *StatusStream) broadcast(status models.AutomationStatus) {
	data, err := json.Marshal(status)
	if err != nil {
		s.logger.Error("Failed to marshal status", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = data
	for client := range s.clients {
		select {
		case client.send <- data:
		default:
			// slow client
			delete(s.clients, client)
			close(client.send)
			s.logger.Warn("Dropping slow status stream client")
		}
	}
}

// ServeHTTP upgrades the request and streams status until the client leaves
func (s *StatusStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := &streamClient{
		stream: s,
		conn:   conn,
		send:   make(chan []byte, clientBuffer),
	}

	select {
	case s.register <- client:
	case <-s.stopCh:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only exists to process pongs and notice the close
func (c *streamClient) readPump() {
	defer func() {
		select {
		case c.stream.unregister <- c:
		case <-c.stream.stopCh:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.stream.logger.Debug("Status stream read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
