package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured, typically in development.
type StubPublisher struct {
	logger *zap.Logger
}

func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	fields = append([]zap.Field{
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
	}, fields...)

	p.logger.Info("Stub event published", fields...)
}

func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.logEvent(topicAccountRegistered, event.AccountID, event.RegisteredAt,
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.String("tier", string(event.Tier)))
	return nil
}

func (p *StubPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	p.logEvent(topicLoginSucceeded, event.AccountID, event.At,
		zap.String("email", logger.MaskEmail(event.Email)))
	return nil
}

func (p *StubPublisher) PublishLoginFailed(_ context.Context, event domain.LoginFailedEvent) error {
	p.logEvent(topicLoginFailed, event.AccountID, event.At,
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.Int("attempts", event.Attempts),
		zap.Bool("locked", event.Locked))
	return nil
}

func (p *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.logEvent(topicAccountLocked, event.AccountID, event.At,
		zap.Time("until", event.Until))
	return nil
}

func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent(topicPasswordChanged, event.AccountID, event.At,
		zap.String("changed_by", event.ChangedBy))
	return nil
}

func (p *StubPublisher) PublishTierChanged(_ context.Context, event domain.TierChangedEvent) error {
	p.logEvent(topicTierChanged, event.AccountID, event.At,
		zap.String("from", string(event.From)),
		zap.String("to", string(event.To)))
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
