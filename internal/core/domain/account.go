package domain

import (
	"errors"
	"strings"
	"time"
)

// Role enumerates account privilege levels. Higher roles satisfy lower
// requirements: super_admin > admin > user.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// SubscriptionTier enumerates the CustomerMind IQ subscription levels.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierLaunch     SubscriptionTier = "launch"
	TierGrowth     SubscriptionTier = "growth"
	TierScale      SubscriptionTier = "scale"
	TierWhiteLabel SubscriptionTier = "white_label"
	TierCustom     SubscriptionTier = "custom"
)

var (
	// ErrInvalidRole indicates a role value outside the closed enumeration.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidTier indicates a subscription tier outside the closed enumeration.
	ErrInvalidTier = errors.New("invalid subscription tier")
)

var roleRank = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// ParseRole validates a raw role value against the enumeration.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := roleRank[role]; !ok {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Valid reports whether the role belongs to the enumeration.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role satisfies the required role under the
// strict hierarchy user < admin < super_admin.
func (r Role) AtLeast(required Role) bool {
	return roleRank[r] >= roleRank[required] && required.Valid()
}

var validTiers = map[SubscriptionTier]struct{}{
	TierFree:       {},
	TierLaunch:     {},
	TierGrowth:     {},
	TierScale:      {},
	TierWhiteLabel: {},
	TierCustom:     {},
}

// ParseTier validates a raw subscription tier value against the enumeration.
func ParseTier(raw string) (SubscriptionTier, error) {
	tier := SubscriptionTier(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validTiers[tier]; !ok {
		return "", ErrInvalidTier
	}
	return tier, nil
}

// Valid reports whether the tier belongs to the enumeration.
func (t SubscriptionTier) Valid() bool {
	_, ok := validTiers[t]
	return ok
}

// Premium reports whether the tier unlocks premium features. The launch tier
// does NOT qualify despite sitting above free.
func (t SubscriptionTier) Premium() bool {
	switch t {
	case TierGrowth, TierScale, TierWhiteLabel, TierCustom:
		return true
	default:
		return false
	}
}

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID                string
	Email             string
	PasswordHash      string
	Role              Role
	Tier              SubscriptionTier
	IsActive          bool
	LoginAttempts     int
	LockedUntil       *time.Time
	CreatedAt         time.Time
	LastLogin         *time.Time
	PasswordChangedAt *time.Time
}

// LockedAt reports whether the account lockout is still in force at the given
// instant. An elapsed locked_until is treated as unlocked (lazy expiry).
func (a Account) LockedAt(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// NormalizeEmail lower-cases and trims an email address. All lookups and
// uniqueness checks operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LockoutPolicy bounds consecutive failed login attempts per account.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy matches the platform default of 5 attempts / 15 minutes.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: 5, Duration: 15 * time.Minute}
}
