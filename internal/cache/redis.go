// Package cache holds the shared Redis client and the cache-aside helpers
// the repositories use for assets, profiles and feed pages. Every helper
// degrades to a no-op when Redis is not configured.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"viralpik/internal/middleware"
	"viralpik/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
)

var client *redis.Client

const pingTimeout = 5 * time.Second

// instrumentation traces each command and counts failures. A miss
// (redis.Nil) is not a failure.
type instrumentation struct{}

func (instrumentation) DialHook(next redis.DialHook) redis.DialHook { return next }

func (instrumentation) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := observability.StartCacheSpan(ctx, cmd.Name(), commandKey(cmd))
		defer span.End()
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}

func (instrumentation) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := observability.StartCacheSpan(ctx, "pipeline", fmt.Sprintf("%d commands", len(cmds)))
		defer span.End()
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
			span.RecordError(err)
		}
		return err
	}
}

func commandKey(cmd redis.Cmder) string {
	if args := cmd.Args(); len(args) > 1 {
		if k, ok := args[1].(string); ok {
			return k
		}
	}
	return ""
}

// ParseAddr accepts a redis:// URL or a bare host:port.
func ParseAddr(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis address is empty")
	}
	if !strings.Contains(addr, "://") {
		return &redis.Options{Addr: addr}, nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}

// Open connects to addr, checks the server answers and installs the client
// for the cache helpers.
func Open(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Addr, err)
	}
	SetClient(c)
	return c, nil
}

// InitRedis is Open for callers that run without Redis when it is missing.
// The marketplace still serves; download quotas fall back to the database
// and realtime events stay on this instance.
func InitRedis(addr string) *redis.Client {
	c, err := Open(context.Background(), addr)
	if err != nil {
		middleware.Logger.Warn("continuing without redis", slog.String("error", err.Error()))
		SetClient(nil)
		return nil
	}
	middleware.Logger.Info("redis connected", slog.String("addr", c.Options().Addr))
	return c
}

// GetClient returns the installed client, or nil.
func GetClient() *redis.Client {
	return client
}

// SetClient installs c for the cache helpers.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(instrumentation{})
	}
	client = c
}
