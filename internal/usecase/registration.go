package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/logger"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/security"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/repository"
)

// ErrInvalidEmail indicates the registration email failed syntactic checks.
var ErrInvalidEmail = errors.New("invalid email address")

// RegisterInput carries the fields needed to provision an account.
type RegisterInput struct {
	Email    string
	Password string
	Tier     domain.SubscriptionTier
}

// RegistrationService provisions new accounts.
type RegistrationService struct {
	store     port.CredentialStore
	events    port.EventPublisher
	validator *security.PasswordValidator
	log       *zap.Logger
	now       func() time.Time
}

func NewRegistrationService(store port.CredentialStore, events port.EventPublisher, validator *security.PasswordValidator, log *zap.Logger) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	return &RegistrationService{
		store:     store,
		events:    events,
		validator: validator,
		log:       log,
		now:       time.Now,
	}
}

// Register validates input, hashes the password, and persists the account.
// New accounts always start as active users; role and tier promotions are
// admin operations.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	email := domain.NormalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, err
	}

	tier := input.Tier
	if tier == "" {
		tier = domain.TierFree
	}
	if !tier.Valid() {
		return nil, domain.ErrInvalidTier
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Tier:         tier,
		IsActive:     true,
		CreatedAt:    now,
	}

	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create account: %w: %v", ErrStoreUnavailable, err)
	}

	s.publishRegistered(ctx, account, now)

	account.PasswordHash = ""
	return &account, nil
}

func (s *RegistrationService) publishRegistered(ctx context.Context, account domain.Account, now time.Time) {
	if s.events == nil {
		return
	}
	event := domain.AccountRegisteredEvent{
		EventID:      uuid.NewString(),
		AccountID:    account.ID,
		Email:        account.Email,
		Tier:         account.Tier,
		RegisteredAt: now,
		Method:       "password",
	}
	if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
		s.log.Warn("publish account registered event",
			zap.String("account_id", account.ID),
			zap.String("email", logger.MaskEmail(account.Email)),
			zap.Error(err))
	}
}
