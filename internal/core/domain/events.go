package domain

import "time"

// AccountRegisteredEvent is emitted when a new account is provisioned.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Email        string
	Tier         SubscriptionTier
	RegisteredAt time.Time
	Method       string
	Metadata     map[string]any
}

// LoginSucceededEvent is emitted after a successful authentication.
type LoginSucceededEvent struct {
	EventID   string
	AccountID string
	Email     string
	IP        *string
	At        time.Time
	Metadata  map[string]any
}

// LoginFailedEvent is emitted for every failed password check.
type LoginFailedEvent struct {
	EventID   string
	AccountID string
	Email     string
	Attempts  int
	Locked    bool
	IP        *string
	At        time.Time
	Metadata  map[string]any
}

// AccountLockedEvent is emitted when the failed-attempt threshold trips.
type AccountLockedEvent struct {
	EventID   string
	AccountID string
	Email     string
	Until     time.Time
	At        time.Time
	Metadata  map[string]any
}

// PasswordChangedEvent is emitted when a credential is replaced.
type PasswordChangedEvent struct {
	EventID   string
	AccountID string
	ChangedBy string
	At        time.Time
	Metadata  map[string]any
}

// TierChangedEvent is emitted when an administrator moves an account between
// subscription tiers.
type TierChangedEvent struct {
	EventID   string
	AccountID string
	From      SubscriptionTier
	To        SubscriptionTier
	ChangedBy string
	At        time.Time
	Metadata  map[string]any
}
