package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/security"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/repository"
)

// ErrWrongPassword indicates the current password supplied to a password
// change did not match.
var ErrWrongPassword = errors.New("current password does not match")

// AccountService covers admin account management and self-service password
// changes.
type AccountService struct {
	store     port.CredentialStore
	events    port.EventPublisher
	validator *security.PasswordValidator
	log       *zap.Logger
	verify    func(password, hash string) (bool, error)
	now       func() time.Time
}

func NewAccountService(store port.CredentialStore, events port.EventPublisher, validator *security.PasswordValidator, log *zap.Logger) *AccountService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	return &AccountService{
		store:     store,
		events:    events,
		validator: validator,
		log:       log,
		verify:    security.VerifyPassword,
		now:       time.Now,
	}
}

// WithVerifier overrides the password verification function, primarily for
// tests.
func (s *AccountService) WithVerifier(verify func(password, hash string) (bool, error)) *AccountService {
	if verify != nil {
		s.verify = verify
	}
	return s
}

// Get returns a single account without its password hash.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get account", err)
	}

	account.PasswordHash = ""
	return account, nil
}

// List returns accounts matching the filter, without password hashes.
func (s *AccountService) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	accounts, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w: %v", ErrStoreUnavailable, err)
	}

	for i := range accounts {
		accounts[i].PasswordHash = ""
	}
	return accounts, nil
}

// SetActive enables or disables an account. Disabling takes effect on the
// next login; outstanding session tokens stay valid until expiry.
func (s *AccountService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.store.SetActive(ctx, id, active); err != nil {
		return s.storeErr("set active", err)
	}
	return nil
}

// ChangeRole moves an account to a different role.
func (s *AccountService) ChangeRole(ctx context.Context, id string, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	if err := s.store.SetRole(ctx, id, role); err != nil {
		return s.storeErr("set role", err)
	}
	return nil
}

// ChangeTier moves an account to a different subscription tier and emits a
// tier-changed event for downstream billing and support routing.
func (s *AccountService) ChangeTier(ctx context.Context, id string, tier domain.SubscriptionTier, changedBy string) error {
	if !tier.Valid() {
		return domain.ErrInvalidTier
	}

	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		return s.storeErr("get account", err)
	}
	if account.Tier == tier {
		return nil
	}

	if err := s.store.SetTier(ctx, id, tier); err != nil {
		return s.storeErr("set tier", err)
	}

	s.publishTierChanged(ctx, account, tier, changedBy)
	return nil
}

// ResetLockout clears the failed-attempt counter and any active lock.
func (s *AccountService) ResetLockout(ctx context.Context, id string) error {
	if err := s.store.ResetLockout(ctx, id); err != nil {
		return s.storeErr("reset lockout", err)
	}
	return nil
}

// ChangePassword verifies the current password before installing a new one.
// The store clears lockout state alongside the credential swap.
func (s *AccountService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		return s.storeErr("get account", err)
	}

	ok, err := s.verify(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrWrongPassword
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	if err := s.store.UpdateCredential(ctx, id, hash, now); err != nil {
		return s.storeErr("update credential", err)
	}

	s.publishPasswordChanged(ctx, id, now)
	return nil
}

func (s *AccountService) storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrAccountNotFound
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

func (s *AccountService) publishTierChanged(ctx context.Context, account *domain.Account, to domain.SubscriptionTier, changedBy string) {
	if s.events == nil {
		return
	}
	event := domain.TierChangedEvent{
		EventID:   uuid.NewString(),
		AccountID: account.ID,
		From:      account.Tier,
		To:        to,
		ChangedBy: changedBy,
		At:        s.now().UTC(),
	}
	if err := s.events.PublishTierChanged(ctx, event); err != nil {
		s.log.Warn("publish tier changed event",
			zap.String("account_id", account.ID),
			zap.Error(err))
	}
}

func (s *AccountService) publishPasswordChanged(ctx context.Context, accountID string, now time.Time) {
	if s.events == nil {
		return
	}
	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		AccountID: accountID,
		ChangedBy: accountID,
		At:        now,
	}
	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.log.Warn("publish password changed event",
			zap.String("account_id", accountID),
			zap.Error(err))
	}
}
