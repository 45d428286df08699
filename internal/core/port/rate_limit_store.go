package port

import (
	"context"
	"time"
)

// RateLimitStore persists sliding-window request attempts keyed by an opaque
// identifier (typically client IP). Distinct from the per-account lockout,
// which lives in the CredentialStore.
type RateLimitStore interface {
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}
