package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
)

const defaultKeyPrefix = "cmiq:login:ip"

// ThrottleConfig tunes the sliding-window login throttle.
type ThrottleConfig struct {
	KeyPrefix string
	TTL       time.Duration
}

// LoginThrottleRepository tracks login attempts per client identifier in a
// Redis sorted set scored by attempt time. It backs the per-IP throttle that
// sits in front of the per-account lockout.
type LoginThrottleRepository struct {
	client *redis.Client
	cfg    ThrottleConfig
}

func NewLoginThrottleRepository(client *redis.Client, cfg ThrottleConfig) *LoginThrottleRepository {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &LoginThrottleRepository{client: client, cfg: cfg}
}

// RecordAttempt appends an attempt timestamp and refreshes the key TTL in a
// single pipeline round trip.
func (r *LoginThrottleRepository) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := r.key(identifier)

	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixNano()), Member: at.UnixNano()})
	if r.cfg.TTL > 0 {
		pipe.Expire(ctx, key, r.cfg.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}

	return nil
}

// CountAttempts returns the number of attempts inside the window ending at the
// reference instant.
func (r *LoginThrottleRepository) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	count, err := r.client.ZCount(ctx, r.key(identifier),
		scoreBound(reference.Add(-window)), scoreBound(reference)).Result()
	if err != nil {
		return 0, fmt.Errorf("count login attempts: %w", err)
	}

	return int(count), nil
}

// TrimWindow drops attempts that fell out of the window.
func (r *LoginThrottleRepository) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	if err := r.client.ZRemRangeByScore(ctx, r.key(identifier),
		"-inf", scoreBound(reference.Add(-window))).Err(); err != nil {
		return fmt.Errorf("trim login attempts: %w", err)
	}

	return nil
}

// OldestAttempt returns the earliest attempt still inside the window, so
// callers can compute a Retry-After hint.
func (r *LoginThrottleRepository) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errors.New("window must be positive")
	}

	values, err := r.client.ZRangeByScore(ctx, r.key(identifier), &redis.ZRangeBy{
		Min:   scoreBound(reference.Add(-window)),
		Max:   scoreBound(reference),
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("oldest login attempt: %w", err)
	}
	if len(values) == 0 {
		return time.Time{}, false, nil
	}

	ts, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse attempt timestamp: %w", err)
	}

	return time.Unix(0, ts), true, nil
}

func (r *LoginThrottleRepository) key(identifier string) string {
	return fmt.Sprintf("%s:%s", r.cfg.KeyPrefix, identifier)
}

func scoreBound(t time.Time) string {
	return fmt.Sprintf("%f", float64(t.UnixNano()))
}

var _ port.RateLimitStore = (*LoginThrottleRepository)(nil)
