package port

import (
	"context"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
)

// EventPublisher delivers security audit events to the platform event bus.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error
	PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error
	PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishTierChanged(ctx context.Context, event domain.TierChangedEvent) error
}
