package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/config"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/logger"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/infra/security"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/repository"
)

// SessionClaims is the payload of a stateless session token. The subject is
// the account id; role and tier ride along so authorization never needs a
// store round trip.
type SessionClaims struct {
	Email string                  `json:"email"`
	Role  domain.Role             `json:"role"`
	Tier  domain.SubscriptionTier `json:"tier"`
	jwt.RegisteredClaims
}

// AccountID returns the token subject.
func (c *SessionClaims) AccountID() string {
	return c.Subject
}

// LoginResult bundles the issued token with the authenticated account.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   domain.Account
	Support   domain.SupportLevel
}

// AuthService owns the login state machine and session token lifecycle.
type AuthService struct {
	cfg    config.AuthSettings
	store  port.CredentialStore
	events port.EventPublisher
	log    *zap.Logger
	verify func(password, hash string) (bool, error)
	now    func() time.Time
}

// NewAuthService constructs an AuthService. The publisher may be a stub; the
// logger must not be nil.
func NewAuthService(cfg config.AuthSettings, store port.CredentialStore, events port.EventPublisher, log *zap.Logger) *AuthService {
	return &AuthService{
		cfg:    cfg,
		store:  store,
		events: events,
		log:    log,
		verify: security.VerifyPassword,
		now:    time.Now,
	}
}

// WithClock overrides the service clock, primarily for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithVerifier overrides the password verification function, primarily for
// tests that assert hash comparison is skipped on locked accounts.
func (s *AuthService) WithVerifier(verify func(password, hash string) (bool, error)) *AuthService {
	if verify != nil {
		s.verify = verify
	}
	return s
}

// Login authenticates an email/password pair and issues a session token.
//
// The lockout state machine: a disabled account fails before any counter
// changes; an active lock fails without comparing hashes; a wrong password
// increments the counter and may trip the lock; a correct password clears
// the counter. Unknown emails report ErrInvalidCredentials so callers cannot
// probe which addresses are registered.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.store.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w: %v", ErrStoreUnavailable, err)
	}

	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.now().UTC()
	if account.LockedAt(now) {
		return nil, &AccountLockedError{RetryAfter: account.LockedUntil.Sub(now)}
	}

	ok, err := s.verify(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, s.recordFailure(ctx, account, now)
	}

	if err := s.store.RecordSuccessfulLogin(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w: %v", ErrStoreUnavailable, err)
	}

	token, expiresAt, err := s.IssueToken(*account, rememberMe)
	if err != nil {
		return nil, err
	}

	s.publishLoginSucceeded(ctx, account, now)

	authenticated := *account
	authenticated.PasswordHash = ""
	authenticated.LoginAttempts = 0
	authenticated.LockedUntil = nil
	authenticated.LastLogin = &now

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   authenticated,
		Support:   domain.SupportLevelFor(account.Tier),
	}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, account *domain.Account, now time.Time) error {
	state, err := s.store.RecordFailedAttempt(ctx, account.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Account vanished between lookup and increment.
			return ErrInvalidCredentials
		}
		return fmt.Errorf("record failed attempt: %w: %v", ErrStoreUnavailable, err)
	}

	locked := state.LockedUntil != nil && state.LockedUntil.After(now)
	s.publishLoginFailed(ctx, account, state, locked, now)

	if locked {
		s.publishAccountLocked(ctx, account, *state.LockedUntil, now)
		return &AccountLockedError{RetryAfter: state.LockedUntil.Sub(now)}
	}

	return ErrInvalidCredentials
}

// IssueToken signs a session token for the account. Remember-me extends the
// lifetime.
func (s *AuthService) IssueToken(account domain.Account, rememberMe bool) (string, time.Time, error) {
	if account.ID == "" {
		return "", time.Time{}, fmt.Errorf("account id is required")
	}

	now := s.now().UTC()
	ttl := s.cfg.TokenTTL
	if rememberMe && s.cfg.RememberMeTTL > ttl {
		ttl = s.cfg.RememberMeTTL
	}
	expiresAt := now.Add(ttl)

	claims := SessionClaims{
		Email: account.Email,
		Role:  account.Role,
		Tier:  account.Tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.TokenIssuer,
			Subject:   account.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	return token, expiresAt, nil
}

// ParseSessionToken verifies the signature and expiry of a session token and
// returns its claims. Tokens remain valid until expiry regardless of later
// account changes.
func (s *AuthService) ParseSessionToken(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.TokenSecret), nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredSessionToken
		}
		return nil, ErrInvalidSessionToken
	}
	if !token.Valid {
		return nil, ErrInvalidSessionToken
	}

	if claims.Subject == "" || !claims.Role.Valid() || !claims.Tier.Valid() {
		return nil, ErrInvalidSessionToken
	}

	return claims, nil
}

func (s *AuthService) publishLoginSucceeded(ctx context.Context, account *domain.Account, now time.Time) {
	if s.events == nil {
		return
	}
	event := domain.LoginSucceededEvent{
		EventID:   uuid.NewString(),
		AccountID: account.ID,
		Email:     account.Email,
		At:        now,
	}
	if err := s.events.PublishLoginSucceeded(ctx, event); err != nil {
		s.log.Warn("publish login succeeded event",
			zap.String("account_id", account.ID),
			zap.Error(err))
	}
}

func (s *AuthService) publishLoginFailed(ctx context.Context, account *domain.Account, state port.LockoutState, locked bool, now time.Time) {
	if s.events == nil {
		return
	}
	event := domain.LoginFailedEvent{
		EventID:   uuid.NewString(),
		AccountID: account.ID,
		Email:     account.Email,
		Attempts:  state.Attempts,
		Locked:    locked,
		At:        now,
	}
	if err := s.events.PublishLoginFailed(ctx, event); err != nil {
		s.log.Warn("publish login failed event",
			zap.String("account_id", account.ID),
			zap.String("email", logger.MaskEmail(account.Email)),
			zap.Error(err))
	}
}

func (s *AuthService) publishAccountLocked(ctx context.Context, account *domain.Account, until, now time.Time) {
	if s.events == nil {
		return
	}
	event := domain.AccountLockedEvent{
		EventID:   uuid.NewString(),
		AccountID: account.ID,
		Email:     account.Email,
		Until:     until,
		At:        now,
	}
	if err := s.events.PublishAccountLocked(ctx, event); err != nil {
		s.log.Warn("publish account locked event",
			zap.String("account_id", account.ID),
			zap.Error(err))
	}
}
