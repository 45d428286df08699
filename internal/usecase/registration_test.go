package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/security"
)

// lenientValidator keeps registration tests fast and focused on the flow, not
// on zxcvbn scoring.
func lenientValidator() *security.PasswordValidator {
	return security.NewPasswordValidator(security.MinLengthRule(8))
}

func newRegistrationFixture() (*RegistrationService, *testCredentialStore, *testPublisher) {
	store := newTestCredentialStore(domain.DefaultLockoutPolicy(), func() time.Time { return time.Now() })
	events := &testPublisher{}
	service := NewRegistrationService(store, events, lenientValidator(), zap.NewNop())
	return service, store, events
}

func TestRegisterCreatesActiveUserAccount(t *testing.T) {
	service, store, events := newRegistrationFixture()

	account, err := service.Register(context.Background(), RegisterInput{
		Email:    "New.User@Example.com",
		Password: "harbor-lantern-42",
		Tier:     domain.TierLaunch,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if account.Email != "new.user@example.com" {
		t.Fatalf("expected normalized email, got %s", account.Email)
	}
	if account.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %s", account.Role)
	}
	if account.Tier != domain.TierLaunch {
		t.Fatalf("expected launch tier, got %s", account.Tier)
	}
	if !account.IsActive {
		t.Fatal("expected new account to be active")
	}
	if account.PasswordHash != "" {
		t.Fatal("expected password hash to be stripped from result")
	}

	stored, err := store.GetByID(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "harbor-lantern-42" {
		t.Fatal("expected stored password to be hashed")
	}

	if len(events.registered) != 1 {
		t.Fatalf("expected one registered event, got %d", len(events.registered))
	}
	if events.registered[0].AccountID != account.ID {
		t.Fatalf("event references wrong account: %s", events.registered[0].AccountID)
	}
}

func TestRegisterDefaultsToFreeTier(t *testing.T) {
	service, _, _ := newRegistrationFixture()

	account, err := service.Register(context.Background(), RegisterInput{
		Email:    "free@example.com",
		Password: "harbor-lantern-42",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.Tier != domain.TierFree {
		t.Fatalf("expected free tier default, got %s", account.Tier)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _, _ := newRegistrationFixture()

	input := RegisterInput{Email: "dup@example.com", Password: "harbor-lantern-42"}
	if _, err := service.Register(context.Background(), input); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	input.Email = "DUP@example.com"
	if _, err := service.Register(context.Background(), input); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail for case-variant duplicate, got %v", err)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	service, store, _ := newRegistrationFixture()

	if _, err := service.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "harbor-lantern-42"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	if _, err := service.Register(context.Background(), RegisterInput{Email: "ok@example.com", Password: "short"}); err == nil {
		t.Fatal("expected password policy violation")
	}

	if _, err := service.Register(context.Background(), RegisterInput{Email: "ok@example.com", Password: "harbor-lantern-42", Tier: "platinum"}); !errors.Is(err, domain.ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}

	if store.createCalls != 0 {
		t.Fatalf("rejected input must not reach the store, got %d creates", store.createCalls)
	}
}
