// Package middleware holds the Fiber middleware and request-scoped helpers shared by the API.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens when Redis cannot be reached.
type FailPolicy int

const (
	FailOpen FailPolicy = iota
	FailClosed
)

var errNoLimiterStore = errors.New("rate limiter has no redis client")

// Rule is a fixed-window limit: at most Limit hits per Window per subject.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// Decision is the outcome of one hit.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// limiterBypassed is true in environments where throttling would get in the
// way of local work and load tests.
func limiterBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return true
	}
	return false
}

func rateKey(rule, subject string) string {
	return "rl:" + rule + ":" + subject
}

// Allow counts one hit for subject against rule.
func Allow(ctx context.Context, rdb *redis.Client, rule Rule, subject string) (Decision, error) {
	if limiterBypassed() {
		return Decision{Allowed: true, Remaining: rule.Limit, ResetIn: rule.Window}, nil
	}
	if rdb == nil {
		return Decision{}, errNoLimiterStore
	}

	key := rateKey(rule.Name, subject)
	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		RedisErrors.WithLabelValues("incr").Inc()
		return Decision{}, err
	}

	resetIn := ttl.Val()
	if resetIn < 0 {
		// first hit in the window
		if err := rdb.PExpire(ctx, key, rule.Window).Err(); err != nil {
			RedisErrors.WithLabelValues("pexpire").Inc()
		}
		resetIn = rule.Window
	}

	n := int(incr.Val())
	return Decision{
		Allowed:   n <= rule.Limit,
		Remaining: max(rule.Limit-n, 0),
		ResetIn:   resetIn,
	}, nil
}

// RateLimit limits by authenticated user, else by client IP. It fails open.
// The rule name defaults to the request path.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	rule := Rule{Limit: limit, Window: window, Policy: policy}
	if len(name) > 0 {
		rule.Name = name[0]
	}
	return Limit(rdb, rule)
}

// Limit enforces rule and reports it in X-RateLimit-* headers.
func Limit(rdb *redis.Client, rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r := rule
		if r.Name == "" {
			r.Name = c.Path()
		}
		subject := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			subject = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		ctx := c.UserContext()
		d, err := Allow(ctx, rdb, r, subject)
		if err != nil {
			if r.Policy == FailOpen {
				return c.Next()
			}
			Logger.WarnContext(ctx, "rate limiter unavailable, refusing request",
				slog.String("rule", r.Name),
				slog.String("error", err.Error()),
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "rate limit unavailable",
				"code":  "SERVICE_UNAVAILABLE",
			})
		}

		resetSecs := strconv.Itoa(int((d.ResetIn + time.Second - 1) / time.Second))
		c.Set("X-RateLimit-Limit", strconv.Itoa(r.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Set("X-RateLimit-Reset", resetSecs)

		if !d.Allowed {
			RateLimitRejections.WithLabelValues(r.Name).Inc()
			c.Set(fiber.HeaderRetryAfter, resetSecs)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
