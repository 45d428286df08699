package port

import (
	"context"
	"time"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
)

// LockoutState reports the per-account attempt counter after a mutation.
type LockoutState struct {
	Attempts    int
	LockedUntil *time.Time
}

// AccountFilter narrows List results.
type AccountFilter struct {
	Role     domain.Role
	Tier     domain.SubscriptionTier
	IsActive *bool
	Limit    int
	Offset   int
}

// CredentialStore exposes persistence behavior for accounts. It owns the
// email-uniqueness invariant and the atomicity of failed-attempt accounting;
// no caller mutates account fields outside these operations.
type CredentialStore interface {
	// Create persists a new account. Caller-supplied lockout fields are
	// overridden: accounts always start active with a zero attempt counter.
	Create(ctx context.Context, account domain.Account) error
	// FindByEmail looks an account up by its normalized (lower-cased) email.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// UpdateCredential replaces the password hash, stamps password_changed_at,
	// and restores full access (zero attempts, no lock).
	UpdateCredential(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	// RecordFailedAttempt atomically increments login_attempts and arms
	// locked_until when the post-increment count reaches the configured
	// threshold. Safe under concurrent failures against the same account.
	RecordFailedAttempt(ctx context.Context, id string) (LockoutState, error)
	// RecordSuccessfulLogin stamps last_login and clears attempts and lock.
	RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error
	// ResetLockout clears attempts and lock without touching the credential.
	ResetLockout(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	SetTier(ctx context.Context, id string, tier domain.SubscriptionTier) error
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
}
