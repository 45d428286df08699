package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appLogger "github.com/jimrulison/CustomermindIQ-sub005/internal/infra/logger"
)

// RateLimitStore is the sliding-window persistence the limiter needs.
type RateLimitStore interface {
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}

// RateLimitRule configures a sliding-window limit keyed by client IP.
type RateLimitRule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// RateLimiter throttles endpoints with a Redis-backed sliding window. A store
// failure lets the request through: the per-account lockout still stands, and
// an unavailable Redis must not take logins down with it.
type RateLimiter struct {
	store  RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

func NewRateLimiter(store RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock injects a custom clock, primarily for tests.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// Limit returns a Gin middleware enforcing the rule per client IP.
func (rl *RateLimiter) Limit(rule RateLimitRule) gin.HandlerFunc {
	if rl == nil || rl.store == nil || rule.Limit <= 0 || rule.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if rule.Name == "" {
		rule.Name = "default"
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := rl.now()
		key := rule.Name + ":" + ip

		if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
			rl.failOpen(c, rule, ip, err)
			return
		}

		count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
		if err != nil {
			rl.failOpen(c, rule, ip, err)
			return
		}

		if count >= rule.Limit {
			reset := now.Add(rule.Window)
			if oldest, ok, err := rl.store.OldestAttempt(ctx, key, rule.Window, now); err == nil && ok {
				reset = oldest.Add(rule.Window)
			}

			retryAfter := reset.Sub(now)
			if retryAfter < 0 {
				retryAfter = 0
			}

			rl.setHeaders(c, rule.Limit, 0, reset)
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				newErrorResponse(c, "too many requests, slow down"))
			return
		}

		if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
			rl.failOpen(c, rule, ip, err)
			return
		}

		rl.setHeaders(c, rule.Limit, rule.Limit-count-1, now.Add(rule.Window))
		c.Next()
	}
}

func (rl *RateLimiter) failOpen(c *gin.Context, rule RateLimitRule, ip string, err error) {
	rl.logger.Warn("rate limit check failed",
		zap.String("rule", rule.Name),
		zap.String("client_ip", appLogger.MaskIP(ip)),
		zap.Error(err))
	c.Next()
}

func (rl *RateLimiter) setHeaders(c *gin.Context, limit, remaining int, reset time.Time) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	if remaining < 0 {
		remaining = 0
	}
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}
