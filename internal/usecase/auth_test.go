package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testAuthSettings() config.AuthSettings {
	return config.AuthSettings{
		LockoutThreshold: 5,
		LockoutDuration:  15 * time.Minute,
		TokenSecret:      testSecret,
		TokenTTL:         24 * time.Hour,
		RememberMeTTL:    30 * 24 * time.Hour,
		TokenIssuer:      "customermind-iq",
	}
}

// plainVerifier compares passwords directly so tests can count hash checks
// without paying for argon2.
func plainVerifier(calls *int) func(password, hash string) (bool, error) {
	return func(password, hash string) (bool, error) {
		*calls++
		return password == hash, nil
	}
}

type authFixture struct {
	service     *AuthService
	store       *testCredentialStore
	events      *testPublisher
	now         time.Time
	verifyCalls int
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		events: &testPublisher{},
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.store = newTestCredentialStore(domain.LockoutPolicy{Threshold: 5, Duration: 15 * time.Minute}, clock)
	f.service = NewAuthService(testAuthSettings(), f.store, f.events, zap.NewNop()).
		WithClock(clock).
		WithVerifier(plainVerifier(&f.verifyCalls))

	f.store.add(domain.Account{
		ID:           "acct-1",
		Email:        "owner@example.com",
		PasswordHash: "correct-password",
		Role:         domain.RoleUser,
		Tier:         domain.TierGrowth,
		IsActive:     true,
		CreatedAt:    f.now.Add(-30 * 24 * time.Hour),
	})

	return f
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.service.Login(context.Background(), "Owner@Example.COM", "correct-password", false)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if result.Token == "" {
		t.Fatal("expected a session token")
	}
	if result.Account.PasswordHash != "" {
		t.Fatal("expected password hash to be stripped from result")
	}
	if result.Account.LastLogin == nil || !result.Account.LastLogin.Equal(f.now) {
		t.Fatalf("expected last login %v, got %v", f.now, result.Account.LastLogin)
	}
	if result.Support.Tier != domain.SupportGrowth {
		t.Fatalf("expected growth support tier, got %s", result.Support.Tier)
	}
	if f.store.successCalls != 1 {
		t.Fatalf("expected one successful-login record, got %d", f.store.successCalls)
	}
	if len(f.events.succeeded) != 1 {
		t.Fatalf("expected one login-succeeded event, got %d", len(f.events.succeeded))
	}

	claims, err := f.service.ParseSessionToken(result.Token)
	if err != nil {
		t.Fatalf("ParseSessionToken: %v", err)
	}
	if claims.AccountID() != "acct-1" {
		t.Fatalf("expected subject acct-1, got %s", claims.AccountID())
	}
	if claims.Email != "owner@example.com" {
		t.Fatalf("expected normalized email in claims, got %s", claims.Email)
	}
	if claims.Role != domain.RoleUser || claims.Tier != domain.TierGrowth {
		t.Fatalf("unexpected claims role/tier: %s/%s", claims.Role, claims.Tier)
	}
	wantExpiry := f.now.Add(24 * time.Hour)
	if !claims.ExpiresAt.Time.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, claims.ExpiresAt.Time)
	}
}

func TestLoginUnknownEmailIsInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Login(context.Background(), "ghost@example.com", "whatever", false)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginStoreFailureIsNotInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.store.findErr = errors.New("connection refused")

	_, err := f.service.Login(context.Background(), "owner@example.com", "correct-password", false)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("store failure must not be reported as invalid credentials")
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.store.accounts["acct-1"].IsActive = false

	_, err := f.service.Login(context.Background(), "owner@example.com", "correct-password", false)
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
	if f.store.failedAttemptCalls != 0 {
		t.Fatalf("disabled login must not touch the attempt counter, got %d calls", f.store.failedAttemptCalls)
	}
	if f.verifyCalls != 0 {
		t.Fatalf("disabled login must not compare hashes, got %d calls", f.verifyCalls)
	}
}

func TestLoginWrongPasswordIncrementsCounter(t *testing.T) {
	f := newAuthFixture(t)

	for i := 1; i <= 4; i++ {
		_, err := f.service.Login(context.Background(), "owner@example.com", "wrong", false)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
		if errors.Is(err, ErrAccountLocked) {
			t.Fatalf("attempt %d: locked too early", i)
		}
	}

	if f.store.failedAttemptCalls != 4 {
		t.Fatalf("expected 4 recorded attempts, got %d", f.store.failedAttemptCalls)
	}
	if len(f.events.failed) != 4 {
		t.Fatalf("expected 4 login-failed events, got %d", len(f.events.failed))
	}
}

func TestLoginFifthFailureLocksAndReportsDuration(t *testing.T) {
	f := newAuthFixture(t)

	for i := 0; i < 4; i++ {
		f.service.Login(context.Background(), "owner@example.com", "wrong", false)
	}

	_, err := f.service.Login(context.Background(), "owner@example.com", "wrong", false)
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected lock on fifth failure, got %v", err)
	}

	var lockErr *AccountLockedError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected AccountLockedError, got %T", err)
	}
	if lockErr.RetryAfter != 15*time.Minute {
		t.Fatalf("expected retry after 15m, got %v", lockErr.RetryAfter)
	}

	if len(f.events.locked) != 1 {
		t.Fatalf("expected one account-locked event, got %d", len(f.events.locked))
	}
	wantUntil := f.now.Add(15 * time.Minute)
	if !f.events.locked[0].Until.Equal(wantUntil) {
		t.Fatalf("expected lock until %v, got %v", wantUntil, f.events.locked[0].Until)
	}
}

func TestLoginLockedAccountSkipsHashComparison(t *testing.T) {
	f := newAuthFixture(t)

	for i := 0; i < 5; i++ {
		f.service.Login(context.Background(), "owner@example.com", "wrong", false)
	}
	callsBeforeLockedAttempt := f.verifyCalls

	_, err := f.service.Login(context.Background(), "owner@example.com", "correct-password", false)
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	if f.verifyCalls != callsBeforeLockedAttempt {
		t.Fatal("locked login must not perform hash comparison")
	}
	if f.store.failedAttemptCalls != 5 {
		t.Fatalf("locked login must not increment the counter, got %d calls", f.store.failedAttemptCalls)
	}

	var lockErr *AccountLockedError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected AccountLockedError, got %T", err)
	}
	if lockErr.RetryAfter <= 0 || lockErr.RetryAfter > 15*time.Minute {
		t.Fatalf("unexpected retry hint %v", lockErr.RetryAfter)
	}
}

func TestLoginSucceedsAfterLockExpires(t *testing.T) {
	f := newAuthFixture(t)

	for i := 0; i < 5; i++ {
		f.service.Login(context.Background(), "owner@example.com", "wrong", false)
	}

	f.now = f.now.Add(15*time.Minute + time.Second)

	result, err := f.service.Login(context.Background(), "owner@example.com", "correct-password", false)
	if err != nil {
		t.Fatalf("expected login to succeed after lock expiry, got %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a session token")
	}

	account, err := f.store.GetByID(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if account.LoginAttempts != 0 || account.LockedUntil != nil {
		t.Fatalf("expected cleared lockout state, got attempts=%d lock=%v", account.LoginAttempts, account.LockedUntil)
	}
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	f := newAuthFixture(t)

	for i := 0; i < 3; i++ {
		f.service.Login(context.Background(), "owner@example.com", "wrong", false)
	}

	if _, err := f.service.Login(context.Background(), "owner@example.com", "correct-password", false); err != nil {
		t.Fatalf("Login: %v", err)
	}

	for i := 0; i < 4; i++ {
		_, err := f.service.Login(context.Background(), "owner@example.com", "wrong", false)
		if errors.Is(err, ErrAccountLocked) {
			t.Fatalf("counter was not reset by successful login, locked on post-reset attempt %d", i+1)
		}
	}
}

func TestLoginRememberMeExtendsExpiry(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.service.Login(context.Background(), "owner@example.com", "correct-password", true)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	want := f.now.Add(30 * 24 * time.Hour)
	if !result.ExpiresAt.Equal(want) {
		t.Fatalf("expected remember-me expiry %v, got %v", want, result.ExpiresAt)
	}
}

func TestParseSessionTokenExpired(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.service.Login(context.Background(), "owner@example.com", "correct-password", false)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.now = f.now.Add(24*time.Hour + time.Minute)

	if _, err := f.service.ParseSessionToken(result.Token); !errors.Is(err, ErrExpiredSessionToken) {
		t.Fatalf("expected ErrExpiredSessionToken, got %v", err)
	}
}

func TestParseSessionTokenTampered(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.service.Login(context.Background(), "owner@example.com", "correct-password", false)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	parts := strings.Split(result.Token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %s", result.Token)
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	if _, err := f.service.ParseSessionToken(tampered); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken, got %v", err)
	}

	if _, err := f.service.ParseSessionToken("not-a-token"); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken for garbage input, got %v", err)
	}
}

func TestParseSessionTokenWrongSecret(t *testing.T) {
	f := newAuthFixture(t)

	otherSettings := testAuthSettings()
	otherSettings.TokenSecret = "ffffffffffffffffffffffffffffffff"
	other := NewAuthService(otherSettings, f.store, f.events, zap.NewNop()).
		WithClock(func() time.Time { return f.now })

	account, _ := f.store.GetByID(context.Background(), "acct-1")
	token, _, err := other.IssueToken(*account, false)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := f.service.ParseSessionToken(token); !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken for foreign signature, got %v", err)
	}
}

func TestLoginEmptyInputs(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.service.Login(context.Background(), "", "password", false); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty email, got %v", err)
	}
	if _, err := f.service.Login(context.Background(), "owner@example.com", "", false); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}
