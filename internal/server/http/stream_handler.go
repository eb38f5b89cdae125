package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"taskhub/internal/logging"
	"taskhub/internal/observability"
	"taskhub/internal/task/ports"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
	streamSendBuffer   = 16
)

// StreamHub fans notifications out to connected websocket clients. It is the
// dispatcher's sink: users with at least one open socket count as active.
type StreamHub struct {
	logger   logging.Logger
	metrics  *observability.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*streamClient]struct{}
}

type streamClient struct {
	send chan ports.Notification
}

// NewStreamHub builds an empty hub. Origin checking is left to the CORS
// middleware in front of the handshake.
func NewStreamHub(metrics *observability.Metrics) *StreamHub {
	return &StreamHub{
		logger:  logging.NewComponentLogger("StreamHub"),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]map[*streamClient]struct{}),
	}
}

var _ ports.NotificationSink = (*StreamHub)(nil)

// Publish queues a notification for every client of the user. Slow clients
// drop messages rather than block the dispatcher.
func (hub *StreamHub) Publish(userID string, n ports.Notification) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	for client := range hub.clients[userID] {
		select {
		case client.send <- n:
		default:
			hub.logger.Warn("dropping notification for slow client of user %s", userID)
		}
	}
}

// ActiveUsers lists users with at least one connected client.
func (hub *StreamHub) ActiveUsers() []string {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	users := make([]string, 0, len(hub.clients))
	for userID, conns := range hub.clients {
		if len(conns) > 0 {
			users = append(users, userID)
		}
	}
	return users
}

// HandleStream processes GET /api/notifications/stream, upgrading to a
// websocket and pushing notifications until the client goes away.
func (hub *StreamHub) HandleStream(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed: %v", err)
		return
	}

	client := &streamClient{send: make(chan ports.Notification, streamSendBuffer)}
	hub.register(user.ID, client)
	defer hub.unregister(user.ID, client)

	// Reader only pumps control frames; clients never send data.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()
	defer func() {
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case n := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (hub *StreamHub) register(userID string, client *streamClient) {
	hub.mu.Lock()
	if hub.clients[userID] == nil {
		hub.clients[userID] = make(map[*streamClient]struct{})
	}
	hub.clients[userID][client] = struct{}{}
	hub.mu.Unlock()
	if hub.metrics != nil {
		hub.metrics.StreamClientConnected(1)
	}
	hub.logger.Info("stream client connected: user=%s", userID)
}

func (hub *StreamHub) unregister(userID string, client *streamClient) {
	hub.mu.Lock()
	delete(hub.clients[userID], client)
	if len(hub.clients[userID]) == 0 {
		delete(hub.clients, userID)
	}
	hub.mu.Unlock()
	if hub.metrics != nil {
		hub.metrics.StreamClientConnected(-1)
	}
	hub.logger.Info("stream client disconnected: user=%s", userID)
}
