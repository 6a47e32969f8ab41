package notifications

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"viralpik/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix = "viralpik:presence:"
	// presenceTTL must outlive pingInterval so an idle but healthy socket
	// keeps its user online.
	presenceTTL = 90 * time.Second
)

// Presence counts open notification sockets per user. Counts are kept
// locally and mirrored to a Redis counter so every instance agrees. A
// crashed instance's share of the counter expires with the TTL.
type Presence struct {
	rdb   *redis.Client
	mu    sync.Mutex
	local map[uint]int
}

func NewPresence(rdb *redis.Client) *Presence {
	return &Presence{rdb: rdb, local: make(map[uint]int)}
}

func presenceKey(userID uint) string {
	return presenceKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Connected records a newly opened socket.
func (p *Presence) Connected(ctx context.Context, userID uint) {
	p.mu.Lock()
	p.local[userID]++
	p.mu.Unlock()

	if p.rdb == nil {
		return
	}
	pipe := p.rdb.TxPipeline()
	pipe.Incr(ctx, presenceKey(userID))
	pipe.Expire(ctx, presenceKey(userID), presenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.For("presence").WarnContext(ctx, "connect not recorded", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
	}
}

// Disconnected records a closed socket.
func (p *Presence) Disconnected(ctx context.Context, userID uint) {
	p.mu.Lock()
	if p.local[userID] <= 1 {
		delete(p.local, userID)
	} else {
		p.local[userID]--
	}
	p.mu.Unlock()

	if p.rdb == nil {
		return
	}
	n, err := p.rdb.Decr(ctx, presenceKey(userID)).Result()
	if err != nil {
		observability.For("presence").WarnContext(ctx, "disconnect not recorded", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		return
	}
	if n <= 0 {
		_ = p.rdb.Del(ctx, presenceKey(userID)).Err()
	}
}

// Touch extends the user's presence TTL.
func (p *Presence) Touch(ctx context.Context, userID uint) {
	if p.rdb == nil {
		return
	}
	_ = p.rdb.Expire(ctx, presenceKey(userID), presenceTTL).Err()
}

// IsOnline reports whether the user has a socket open on any instance.
// Redis errors fall back to the local view.
func (p *Presence) IsOnline(ctx context.Context, userID uint) bool {
	p.mu.Lock()
	local := p.local[userID]
	p.mu.Unlock()
	if local > 0 || p.rdb == nil {
		return local > 0
	}
	n, err := p.rdb.Get(ctx, presenceKey(userID)).Int64()
	return err == nil && n > 0
}
