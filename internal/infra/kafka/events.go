package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/config"
)

const schemaVersion = "1.0"

// Topic suffixes; the producer prepends the configured prefix (cmiq by
// default), e.g. cmiq.auth.login.failed.
const (
	topicAccountRegistered = "auth.account.registered"
	topicLoginSucceeded    = "auth.login.succeeded"
	topicLoginFailed       = "auth.login.failed"
	topicAccountLocked     = "auth.account.locked"
	topicPasswordChanged   = "auth.password.changed"
	topicTierChanged       = "auth.tier.changed"
)

// EventPublisher implements port.EventPublisher on Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	AccountID string            `json:"account_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	envelope := eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(accountID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		AccountID    string         `json:"account_id"`
		Email        string         `json:"email"`
		Tier         string         `json:"tier"`
		RegisteredAt time.Time      `json:"registered_at"`
		Method       string         `json:"method"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:    event.AccountID,
		Email:        event.Email,
		Tier:         string(event.Tier),
		RegisteredAt: event.RegisteredAt.UTC(),
		Method:       event.Method,
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, topicAccountRegistered, event.AccountID, event.RegisteredAt, payload)
}

func (p *EventPublisher) PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error {
	payload := struct {
		AccountID string         `json:"account_id"`
		Email     string         `json:"email"`
		IP        *string        `json:"ip,omitempty"`
		At        time.Time      `json:"at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		AccountID: event.AccountID,
		Email:     event.Email,
		IP:        event.IP,
		At:        event.At.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, topicLoginSucceeded, event.AccountID, event.At, payload)
}

func (p *EventPublisher) PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error {
	payload := struct {
		AccountID string         `json:"account_id"`
		Email     string         `json:"email"`
		Attempts  int            `json:"attempts"`
		Locked    bool           `json:"locked"`
		IP        *string        `json:"ip,omitempty"`
		At        time.Time      `json:"at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		AccountID: event.AccountID,
		Email:     event.Email,
		Attempts:  event.Attempts,
		Locked:    event.Locked,
		IP:        event.IP,
		At:        event.At.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, topicLoginFailed, event.AccountID, event.At, payload)
}

func (p *EventPublisher) PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error {
	payload := struct {
		AccountID string         `json:"account_id"`
		Email     string         `json:"email"`
		Until     time.Time      `json:"until"`
		At        time.Time      `json:"at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		AccountID: event.AccountID,
		Email:     event.Email,
		Until:     event.Until.UTC(),
		At:        event.At.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, topicAccountLocked, event.AccountID, event.At, payload)
}

func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		AccountID string         `json:"account_id"`
		ChangedBy string         `json:"changed_by"`
		At        time.Time      `json:"at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		AccountID: event.AccountID,
		ChangedBy: event.ChangedBy,
		At:        event.At.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, topicPasswordChanged, event.AccountID, event.At, payload)
}

func (p *EventPublisher) PublishTierChanged(ctx context.Context, event domain.TierChangedEvent) error {
	payload := struct {
		AccountID string         `json:"account_id"`
		From      string         `json:"from"`
		To        string         `json:"to"`
		ChangedBy string         `json:"changed_by"`
		At        time.Time      `json:"at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		AccountID: event.AccountID,
		From:      string(event.From),
		To:        string(event.To),
		ChangedBy: event.ChangedBy,
		At:        event.At.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, topicTierChanged, event.AccountID, event.At, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
