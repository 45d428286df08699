package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/repository"
)

func seedAccount(t *testing.T, store *AccountStore, id, email string) {
	t.Helper()
	err := store.Create(context.Background(), domain.Account{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		Tier:         domain.TierFree,
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func TestAccountStore_DuplicateEmailCaseInsensitive(t *testing.T) {
	store := NewAccountStore(domain.DefaultLockoutPolicy())
	seedAccount(t, store, "acct-1", "Owner@Example.com")

	err := store.Create(context.Background(), domain.Account{
		ID:    "acct-2",
		Email: "owner@example.com",
	})
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAccountStore_FindByEmailNormalizes(t *testing.T) {
	store := NewAccountStore(domain.DefaultLockoutPolicy())
	seedAccount(t, store, "acct-1", "Owner@Example.com")

	account, err := store.FindByEmail(context.Background(), "  OWNER@example.COM ")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if account.ID != "acct-1" {
		t.Fatalf("expected acct-1, got %s", account.ID)
	}
	if account.Email != "owner@example.com" {
		t.Fatalf("expected stored email to be normalized, got %q", account.Email)
	}
}

func TestAccountStore_RecordFailedAttemptLocksAtThreshold(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewAccountStore(domain.LockoutPolicy{Threshold: 5, Duration: 15 * time.Minute}).
		WithClock(func() time.Time { return now })
	seedAccount(t, store, "acct-1", "owner@example.com")

	for i := 1; i <= 4; i++ {
		state, err := store.RecordFailedAttempt(context.Background(), "acct-1")
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if state.Attempts != i {
			t.Fatalf("attempt %d: expected counter %d, got %d", i, i, state.Attempts)
		}
		if state.LockedUntil != nil {
			t.Fatalf("attempt %d: unexpected lock", i)
		}
	}

	state, err := store.RecordFailedAttempt(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("threshold attempt: %v", err)
	}
	if state.Attempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", state.Attempts)
	}
	want := now.Add(15 * time.Minute)
	if state.LockedUntil == nil || !state.LockedUntil.Equal(want) {
		t.Fatalf("expected lock until %v, got %v", want, state.LockedUntil)
	}
}

func TestAccountStore_ConcurrentFailedAttemptsNeverUndercount(t *testing.T) {
	store := NewAccountStore(domain.LockoutPolicy{Threshold: 1000, Duration: 15 * time.Minute})
	seedAccount(t, store, "acct-1", "owner@example.com")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := store.RecordFailedAttempt(context.Background(), "acct-1"); err != nil {
				t.Errorf("RecordFailedAttempt: %v", err)
			}
		}()
	}
	wg.Wait()

	account, err := store.GetByID(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if account.LoginAttempts != workers {
		t.Fatalf("expected %d attempts, got %d", workers, account.LoginAttempts)
	}
}

func TestAccountStore_SuccessfulLoginClearsLockout(t *testing.T) {
	store := NewAccountStore(domain.LockoutPolicy{Threshold: 2, Duration: 15 * time.Minute})
	seedAccount(t, store, "acct-1", "owner@example.com")

	for i := 0; i < 2; i++ {
		if _, err := store.RecordFailedAttempt(context.Background(), "acct-1"); err != nil {
			t.Fatalf("RecordFailedAttempt: %v", err)
		}
	}

	at := time.Now().UTC()
	if err := store.RecordSuccessfulLogin(context.Background(), "acct-1", at); err != nil {
		t.Fatalf("RecordSuccessfulLogin: %v", err)
	}

	account, err := store.GetByID(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if account.LoginAttempts != 0 || account.LockedUntil != nil {
		t.Fatalf("expected cleared lockout state, got attempts=%d lock=%v", account.LoginAttempts, account.LockedUntil)
	}
	if account.LastLogin == nil || !account.LastLogin.Equal(at) {
		t.Fatalf("expected last login %v, got %v", at, account.LastLogin)
	}
}

func TestAccountStore_ReturnsCopies(t *testing.T) {
	store := NewAccountStore(domain.DefaultLockoutPolicy())
	seedAccount(t, store, "acct-1", "owner@example.com")

	first, err := store.GetByID(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	first.Role = domain.RoleSuperAdmin

	second, err := store.GetByID(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if second.Role != domain.RoleUser {
		t.Fatalf("mutating a returned account leaked into the store")
	}
}
