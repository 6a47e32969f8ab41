package notifications

import (
	"log/slog"
	"time"

	"viralpik/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeTimeout = 10 * time.Second
	// idleTimeout bounds the gap between inbound frames or pongs.
	idleTimeout  = 60 * time.Second
	pingInterval = idleTimeout * 9 / 10
	// Clients only ever send acks and keepalives.
	maxInboundSize = 4096
	outboxSize     = 64
)

var resyncNotice = []byte(`{"type":"resync","payload":{"reason":"outbox_full"}}`)

// Socket is one browser tab listening for a user's notifications.
type Socket struct {
	UserID uint

	conn   *websocket.Conn
	outbox chan []byte
	hub    *Hub
}

func newSocket(hub *Hub, conn *websocket.Conn, userID uint) *Socket {
	return &Socket{
		UserID: userID,
		conn:   conn,
		outbox: make(chan []byte, outboxSize),
		hub:    hub,
	}
}

// Deliver queues msg without blocking. When the outbox is full the message
// is dropped and the client is told to refetch its notification state.
func (s *Socket) Deliver(msg []byte) {
	select {
	case s.outbox <- msg:
		return
	default:
	}
	observability.WebSocketBackpressureDrops.WithLabelValues(s.hub.Name(), "full").Inc()
	select {
	case s.outbox <- resyncNotice:
	default:
	}
}

// Serve runs the socket until the peer goes away or the hub shuts down.
// It blocks the calling goroutine, which must be the upgrade handler.
func (s *Socket) Serve() {
	done := make(chan struct{})
	go s.writeLoop(done)
	s.readLoop()
	close(done)
}

func (s *Socket) readLoop() {
	defer s.hub.UnregisterClient(s)

	s.conn.SetReadLimit(maxInboundSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.hub.touch(s.UserID)
		return s.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				observability.For("notifications").Info("socket closed unexpectedly", slog.Uint64("user_id", uint64(s.UserID)), slog.String("error", err.Error()))
			}
			return
		}
		s.hub.touch(s.UserID)
		_ = s.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	}
}

func (s *Socket) writeLoop(done <-chan struct{}) {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-s.outbox:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			observability.WebSocketEventsTotal.WithLabelValues(eventType(msg)).Inc()
		case <-ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
