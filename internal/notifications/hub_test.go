package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, s *Socket) string {
	t.Helper()
	select {
	case msg := <-s.outbox:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatalf("nothing delivered to user %d", s.UserID)
		return ""
	}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub(nil)
	ctx := context.Background()

	a, err := hub.Register(10, nil)
	require.NoError(t, err)
	b, err := hub.Register(10, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.ConnectedUsers())
	assert.True(t, hub.IsOnline(ctx, 10))

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.True(t, hub.IsOnline(ctx, 10), "second tab still open")

	hub.UnregisterClient(b)
	assert.False(t, hub.IsOnline(ctx, 10))
	assert.Zero(t, hub.ConnectedUsers())
}

func TestHub_PerUserConnectionLimit(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < maxSocketsPerUser; i++ {
		_, err := hub.Register(3, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrUserSocketCap)

	_, err = hub.Register(4, nil)
	assert.NoError(t, err)
}

func TestHub_RefusesAfterShutdown(t *testing.T) {
	hub := NewHub(nil)
	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestSocket_DeliverDropsWhenFull(t *testing.T) {
	hub := NewHub(nil)
	s, err := hub.Register(8, nil)
	require.NoError(t, err)

	for i := 0; i < outboxSize; i++ {
		s.Deliver([]byte(`{"type":"new_comment"}`))
	}
	s.Deliver([]byte(`{"type":"dropped"}`))
	assert.Len(t, s.outbox, outboxSize)

	<-s.outbox
	s.Deliver([]byte(`{"type":"after_drain"}`))
	for i := 0; i < outboxSize-1; i++ {
		<-s.outbox
	}
	assert.JSONEq(t, `{"type":"after_drain"}`, receive(t, s))
}

func TestHub_StartWiringDeliversUserAndBroadcastEvents(t *testing.T) {
	_, rdb := newTestRedis(t)
	hub := NewHub(rdb)

	target, err := hub.Register(5, nil)
	require.NoError(t, err)
	other, err := hub.Register(6, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	require.NoError(t, n.PublishUser(ctx, 5, `{"type":"asset_approved"}`))
	assert.JSONEq(t, `{"type":"asset_approved"}`, receive(t, target))
	assert.Empty(t, other.outbox)

	require.NoError(t, n.PublishBroadcast(ctx, `{"type":"maintenance"}`))
	for _, s := range []*Socket{target, other} {
		assert.JSONEq(t, `{"type":"maintenance"}`, receive(t, s))
	}
}

func TestPresence_SharedAcrossInstances(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	east := NewHub(rdb)
	west := NewHub(rdb)

	s, err := east.Register(21, nil)
	require.NoError(t, err)
	assert.True(t, west.IsOnline(ctx, 21))
	assert.True(t, mr.TTL(presenceKey(21)) > 0)

	east.UnregisterClient(s)
	assert.False(t, west.IsOnline(ctx, 21))
	assert.False(t, mr.Exists(presenceKey(21)))
}

func TestPresence_ExpiresWithoutTouch(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	east := NewHub(rdb)
	west := NewHub(rdb)

	_, err := east.Register(30, nil)
	require.NoError(t, err)

	mr.FastForward(presenceTTL / 2)
	east.touch(30)
	mr.FastForward(presenceTTL / 2)
	assert.True(t, west.IsOnline(ctx, 30))

	mr.FastForward(presenceTTL)
	assert.False(t, west.IsOnline(ctx, 30), "crashed instance ages out")
	assert.True(t, east.IsOnline(ctx, 30), "local view still counts its own sockets")
}

func TestEventType(t *testing.T) {
	assert.Equal(t, "asset_rejected", eventType([]byte(`{"type":"asset_rejected","payload":{}}`)))
	assert.Equal(t, "unknown", eventType([]byte(`not json`)))
	assert.Equal(t, "unknown", eventType([]byte(`{}`)))
}
