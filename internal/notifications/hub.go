package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"viralpik/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	maxSocketsPerUser = 12
	maxSockets        = 10000
)

var (
	ErrHubFull       = errors.New("server connection limit reached")
	ErrUserSocketCap = errors.New("user connection limit reached")
	ErrHubClosed     = errors.New("notification hub is shutting down")
)

// Hub maps a user to the notification sockets open on this instance.
type Hub struct {
	mu       sync.RWMutex
	sockets  map[uint]map[*Socket]struct{}
	total    int
	closed   bool
	presence *Presence
}

// NewHub creates a Hub. rdb may be nil, in which case presence is local only.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		sockets:  make(map[uint]map[*Socket]struct{}),
		presence: NewPresence(rdb),
	}
}

// Name labels hub metrics.
func (h *Hub) Name() string { return "notifications" }

// Register adds a socket for userID. conn may be nil in tests that only
// inspect the outbox.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Socket, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	if h.total >= maxSockets {
		h.mu.Unlock()
		return nil, ErrHubFull
	}
	mine := h.sockets[userID]
	if len(mine) >= maxSocketsPerUser {
		h.mu.Unlock()
		return nil, ErrUserSocketCap
	}
	if mine == nil {
		mine = make(map[*Socket]struct{})
		h.sockets[userID] = mine
	}
	s := newSocket(h, conn, userID)
	mine[s] = struct{}{}
	h.total++
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	h.presence.Connected(context.Background(), userID)
	return s, nil
}

// UnregisterClient drops s. Calling it more than once is harmless.
func (h *Hub) UnregisterClient(s *Socket) {
	h.mu.Lock()
	mine, ok := h.sockets[s.UserID]
	if ok {
		_, ok = mine[s]
	}
	if ok {
		delete(mine, s)
		h.total--
		if len(mine) == 0 {
			delete(h.sockets, s.UserID)
		}
	}
	h.mu.Unlock()

	if ok {
		observability.WebSocketConnectionsTotal.Dec()
		h.presence.Disconnected(context.Background(), s.UserID)
	}
}

func (h *Hub) touch(userID uint) {
	h.presence.Touch(context.Background(), userID)
}

// Broadcast sends message to every local socket of userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for s := range h.sockets[userID] {
		s.Deliver(data)
	}
}

// BroadcastAll sends message to every local socket.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, mine := range h.sockets {
		for s := range mine {
			s.Deliver(data)
		}
	}
}

// IsOnline reports whether userID has a socket open on any instance.
func (h *Hub) IsOnline(ctx context.Context, userID uint) bool {
	return h.presence.IsOnline(ctx, userID)
}

// ConnectedUsers returns the number of users with a local socket.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sockets)
}

// StartWiring forwards events published by any instance to the matching
// local sockets.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.Subscribe(ctx, func(channel, payload string) {
		if channel == broadcastChannel {
			h.BroadcastAll(payload)
			return
		}
		userID, ok := parseUserChannel(channel)
		if !ok {
			observability.For("notifications").Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown sends a going-away close frame to every socket and refuses new
// registrations. Socket loops exit once their connection is closed.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	frame := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for userID, mine := range h.sockets {
		for s := range mine {
			if s.conn == nil {
				continue
			}
			if err := s.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeTimeout)); err != nil {
				observability.For("notifications").Debug("close frame failed", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			}
			_ = s.conn.Close()
		}
	}
	return nil
}

// eventType extracts the envelope type for metrics.
func eventType(msg []byte) string {
	var ev struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(msg, &ev) != nil || ev.Type == "" {
		return "unknown"
	}
	return ev.Type
}
