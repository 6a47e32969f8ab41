// Package notifications delivers real-time user events over websockets,
// fanned out across instances through Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"viralpik/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "notifications:user:"
	broadcastChannel  = "notifications:broadcast"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Encode marshals an event for the wire.
func Encode(eventType string, payload interface{}) (string, error) {
	b, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return string(b), nil
}

// Notifier publishes encoded events to Redis. A nil client turns every
// call into a no-op so single-instance and test setups need no Redis.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

func (n *Notifier) publish(ctx context.Context, channel, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// PublishUser targets every connection of one user on any instance.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	return n.publish(ctx, UserChannel(userID), payload)
}

// PublishBroadcast targets every connected user.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	return n.publish(ctx, broadcastChannel, payload)
}

// Subscribe listens on all user channels and the broadcast channel. It
// returns once the subscription is confirmed and delivers messages to
// onMessage from a background goroutine until ctx is done.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", broadcastChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	go n.pump(ctx, sub, onMessage)
	return nil
}

func (n *Notifier) pump(ctx context.Context, sub *redis.PubSub, onMessage func(channel, payload string)) {
	defer func() { _ = sub.Close() }()
	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			deliver(msg, onMessage)
		}
	}
}

// deliver isolates a panicking handler so one bad message does not stop
// the subscription.
func deliver(msg *redis.Message, onMessage func(channel, payload string)) {
	defer func() {
		if r := recover(); r != nil {
			observability.For("notifications").Error("subscriber callback panicked",
				slog.String("channel", msg.Channel), slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()
	onMessage(msg.Channel, msg.Payload)
}

func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// parseUserChannel is the inverse of UserChannel.
func parseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
