package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/repository"
)

// AccountStore is an in-memory CredentialStore used by tests and local
// development. A single mutex guards the maps, so failed-attempt accounting
// stays exact under concurrent callers.
type AccountStore struct {
	mu      sync.Mutex
	byID    map[string]*domain.Account
	byEmail map[string]string
	policy  domain.LockoutPolicy
	now     func() time.Time
}

func NewAccountStore(policy domain.LockoutPolicy) *AccountStore {
	if policy.Threshold <= 0 {
		policy = domain.DefaultLockoutPolicy()
	}
	return &AccountStore{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
		policy:  policy,
		now:     time.Now,
	}
}

// WithClock overrides the store clock, primarily for tests.
func (s *AccountStore) WithClock(now func() time.Time) *AccountStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *AccountStore) Create(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := domain.NormalizeEmail(account.Email)
	if _, exists := s.byEmail[email]; exists {
		return repository.ErrDuplicateEmail
	}

	account.Email = email
	account.IsActive = true
	account.LoginAttempts = 0
	account.LockedUntil = nil
	account.LastLogin = nil
	if account.CreatedAt.IsZero() {
		account.CreatedAt = s.now().UTC()
	}

	stored := account
	s.byID[account.ID] = &stored
	s.byEmail[email] = account.ID

	return nil
}

func (s *AccountStore) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}

	clone := *s.byID[id]
	return &clone, nil
}

func (s *AccountStore) GetByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	clone := *account
	return &clone, nil
}

func (s *AccountStore) UpdateCredential(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}

	account.PasswordHash = passwordHash
	changed := changedAt
	account.PasswordChangedAt = &changed
	account.LoginAttempts = 0
	account.LockedUntil = nil

	return nil
}

func (s *AccountStore) RecordFailedAttempt(_ context.Context, id string) (port.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return port.LockoutState{}, repository.ErrNotFound
	}

	account.LoginAttempts++
	if account.LoginAttempts >= s.policy.Threshold {
		until := s.now().UTC().Add(s.policy.Duration)
		account.LockedUntil = &until
	}

	state := port.LockoutState{Attempts: account.LoginAttempts}
	if account.LockedUntil != nil {
		until := *account.LockedUntil
		state.LockedUntil = &until
	}

	return state, nil
}

func (s *AccountStore) RecordSuccessfulLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}

	stamp := at
	account.LastLogin = &stamp
	account.LoginAttempts = 0
	account.LockedUntil = nil

	return nil
}

func (s *AccountStore) ResetLockout(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}

	account.LoginAttempts = 0
	account.LockedUntil = nil

	return nil
}

func (s *AccountStore) SetActive(_ context.Context, id string, active bool) error {
	return s.mutate(id, func(a *domain.Account) { a.IsActive = active })
}

func (s *AccountStore) SetRole(_ context.Context, id string, role domain.Role) error {
	return s.mutate(id, func(a *domain.Account) { a.Role = role })
}

func (s *AccountStore) SetTier(_ context.Context, id string, tier domain.SubscriptionTier) error {
	return s.mutate(id, func(a *domain.Account) { a.Tier = tier })
}

func (s *AccountStore) mutate(id string, fn func(*domain.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}

	fn(account)
	return nil
}

func (s *AccountStore) List(_ context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]domain.Account, 0, len(s.byID))
	for _, account := range s.byID {
		if filter.Role != "" && account.Role != filter.Role {
			continue
		}
		if filter.Tier != "" && account.Tier != filter.Tier {
			continue
		}
		if filter.IsActive != nil && account.IsActive != *filter.IsActive {
			continue
		}
		accounts = append(accounts, *account)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(accounts) {
			return []domain.Account{}, nil
		}
		accounts = accounts[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(accounts) {
		accounts = accounts[:filter.Limit]
	}

	return accounts, nil
}

var _ port.CredentialStore = (*AccountStore)(nil)
