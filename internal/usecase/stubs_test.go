package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/repository"
)

// testCredentialStore keeps a single-account store in memory and counts the
// mutating calls the login flow makes.
type testCredentialStore struct {
	mu sync.Mutex

	accounts map[string]*domain.Account
	byEmail  map[string]string

	lockoutPolicy domain.LockoutPolicy
	now           func() time.Time

	findErr   error
	recordErr error

	failedAttemptCalls int
	successCalls       int
	createCalls        int
}

func newTestCredentialStore(policy domain.LockoutPolicy, now func() time.Time) *testCredentialStore {
	return &testCredentialStore{
		accounts:      make(map[string]*domain.Account),
		byEmail:       make(map[string]string),
		lockoutPolicy: policy,
		now:           now,
	}
}

func (s *testCredentialStore) add(account domain.Account) {
	stored := account
	s.accounts[account.ID] = &stored
	s.byEmail[domain.NormalizeEmail(account.Email)] = account.ID
}

func (s *testCredentialStore) Create(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if _, exists := s.byEmail[domain.NormalizeEmail(account.Email)]; exists {
		return repository.ErrDuplicateEmail
	}
	s.add(account)
	return nil
}

func (s *testCredentialStore) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *s.accounts[id]
	return &clone, nil
}

func (s *testCredentialStore) GetByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *account
	return &clone, nil
}

func (s *testCredentialStore) UpdateCredential(_ context.Context, id string, hash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = hash
	stamp := changedAt
	account.PasswordChangedAt = &stamp
	account.LoginAttempts = 0
	account.LockedUntil = nil
	return nil
}

func (s *testCredentialStore) RecordFailedAttempt(_ context.Context, id string) (port.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedAttemptCalls++
	if s.recordErr != nil {
		return port.LockoutState{}, s.recordErr
	}
	account, ok := s.accounts[id]
	if !ok {
		return port.LockoutState{}, repository.ErrNotFound
	}
	account.LoginAttempts++
	if account.LoginAttempts >= s.lockoutPolicy.Threshold {
		until := s.now().UTC().Add(s.lockoutPolicy.Duration)
		account.LockedUntil = &until
	}
	state := port.LockoutState{Attempts: account.LoginAttempts}
	if account.LockedUntil != nil {
		until := *account.LockedUntil
		state.LockedUntil = &until
	}
	return state, nil
}

func (s *testCredentialStore) RecordSuccessfulLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successCalls++
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	stamp := at
	account.LastLogin = &stamp
	account.LoginAttempts = 0
	account.LockedUntil = nil
	return nil
}

func (s *testCredentialStore) ResetLockout(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.LoginAttempts = 0
	account.LockedUntil = nil
	return nil
}

func (s *testCredentialStore) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.IsActive = active
	return nil
}

func (s *testCredentialStore) SetRole(_ context.Context, id string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Role = role
	return nil
}

func (s *testCredentialStore) SetTier(_ context.Context, id string, tier domain.SubscriptionTier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Tier = tier
	return nil
}

func (s *testCredentialStore) List(_ context.Context, _ port.AccountFilter) ([]domain.Account, error) {
	return nil, errors.New("unexpected call")
}

var _ port.CredentialStore = (*testCredentialStore)(nil)

// testPublisher records published events.
type testPublisher struct {
	mu         sync.Mutex
	registered []domain.AccountRegisteredEvent
	succeeded  []domain.LoginSucceededEvent
	failed     []domain.LoginFailedEvent
	locked     []domain.AccountLockedEvent
	passwords  []domain.PasswordChangedEvent
	tiers      []domain.TierChangedEvent
}

func (p *testPublisher) PublishAccountRegistered(_ context.Context, e domain.AccountRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, e)
	return nil
}

func (p *testPublisher) PublishLoginSucceeded(_ context.Context, e domain.LoginSucceededEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.succeeded = append(p.succeeded, e)
	return nil
}

func (p *testPublisher) PublishLoginFailed(_ context.Context, e domain.LoginFailedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, e)
	return nil
}

func (p *testPublisher) PublishAccountLocked(_ context.Context, e domain.AccountLockedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = append(p.locked, e)
	return nil
}

func (p *testPublisher) PublishPasswordChanged(_ context.Context, e domain.PasswordChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwords = append(p.passwords, e)
	return nil
}

func (p *testPublisher) PublishTierChanged(_ context.Context, e domain.TierChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tiers = append(p.tiers, e)
	return nil
}

var _ port.EventPublisher = (*testPublisher)(nil)
