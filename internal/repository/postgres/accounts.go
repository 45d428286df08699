package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/domain"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/core/port"
	"github.com/jimrulison/CustomermindIQ-sub005/internal/repository"
)

const accountsTable = "cmiq.accounts"

var accountColumns = []string{
	"id",
	"email",
	"password_hash",
	"role",
	"subscription_tier",
	"is_active",
	"login_attempts",
	"locked_until",
	"created_at",
	"last_login",
	"password_changed_at",
}

// AccountRepository implements port.CredentialStore using PostgreSQL.
type AccountRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	policy  domain.LockoutPolicy
	now     func() time.Time
}

// NewAccountRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewAccountRepository(exec pgExecutor, policy domain.LockoutPolicy) *AccountRepository {
	if policy.Threshold <= 0 {
		policy = domain.DefaultLockoutPolicy()
	}
	repo := &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		policy:  policy,
		now:     time.Now,
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithClock overrides the repository clock, primarily for tests.
func (r *AccountRepository) WithClock(now func() time.Time) *AccountRepository {
	if now != nil {
		r.now = now
	}
	return r
}

// Create inserts a new account row. Lockout fields are forced to their
// initial values regardless of what the caller supplied.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	createdAt := account.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}

	stmt, args, err := r.builder.Insert(accountsTable).
		Columns(accountColumns...).
		Values(
			account.ID,
			domain.NormalizeEmail(account.Email),
			account.PasswordHash,
			account.Role,
			account.Tier,
			true,
			0,
			nil,
			createdAt,
			nil,
			account.PasswordChangedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByEmail retrieves an account by normalized email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From(accountsTable).
		Where(squirrel.Eq{"email": domain.NormalizeEmail(email)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by email sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From(accountsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// UpdateCredential replaces the password hash and restores full access.
func (r *AccountRepository) UpdateCredential(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("password_hash", passwordHash).
		Set("password_changed_at", changedAt).
		Set("login_attempts", 0).
		Set("locked_until", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update credential sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RecordFailedAttempt increments login_attempts and arms locked_until when the
// post-increment count reaches the threshold. The single-statement UPDATE keeps
// concurrent failures against one account serializable at the row level, so
// attempts are never under-counted.
func (r *AccountRepository) RecordFailedAttempt(ctx context.Context, id string) (port.LockoutState, error) {
	stmt := `
		UPDATE cmiq.accounts
		   SET login_attempts = login_attempts + 1,
		       locked_until = CASE WHEN login_attempts + 1 >= $2 THEN $3 ELSE locked_until END
		 WHERE id = $1
		RETURNING login_attempts, locked_until
	`

	lockUntil := r.now().UTC().Add(r.policy.Duration)

	var state port.LockoutState
	if err := r.exec.QueryRow(ctx, stmt, id, r.policy.Threshold, lockUntil).
		Scan(&state.Attempts, &state.LockedUntil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return port.LockoutState{}, repository.ErrNotFound
		}
		return port.LockoutState{}, fmt.Errorf("record failed attempt: %w", err)
	}

	return state, nil
}

// RecordSuccessfulLogin stamps last_login and clears the attempt state.
func (r *AccountRepository) RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("last_login", at).
		Set("login_attempts", 0).
		Set("locked_until", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record login sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ResetLockout clears the attempt counter and lock timestamp.
func (r *AccountRepository) ResetLockout(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("login_attempts", 0).
		Set("locked_until", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reset lockout sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetActive toggles the soft-delete flag.
func (r *AccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.setColumn(ctx, id, "is_active", active)
}

// SetRole updates the account role.
func (r *AccountRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	return r.setColumn(ctx, id, "role", role)
}

// SetTier updates the subscription tier.
func (r *AccountRepository) SetTier(ctx context.Context, id string, tier domain.SubscriptionTier) error {
	return r.setColumn(ctx, id, "subscription_tier", tier)
}

func (r *AccountRepository) setColumn(ctx context.Context, id, column string, value any) error {
	stmt, args, err := r.builder.Update(accountsTable).
		Set(column, value).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update %s sql: %w", column, err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns accounts with optional filtering and pagination.
func (r *AccountRepository) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	query := r.builder.Select(accountColumns...).
		From(accountsTable).
		OrderBy("created_at DESC")

	if filter.Role != "" {
		query = query.Where(squirrel.Eq{"role": filter.Role})
	}
	if filter.Tier != "" {
		query = query.Where(squirrel.Eq{"subscription_tier": filter.Tier})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list accounts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID,
			&account.Email,
			&account.PasswordHash,
			&account.Role,
			&account.Tier,
			&account.IsActive,
			&account.LoginAttempts,
			&account.LockedUntil,
			&account.CreatedAt,
			&account.LastLogin,
			&account.PasswordChangedAt,
		); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Tier,
		&account.IsActive,
		&account.LoginAttempts,
		&account.LockedUntil,
		&account.CreatedAt,
		&account.LastLogin,
		&account.PasswordChangedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &account, nil
}

var _ port.CredentialStore = (*AccountRepository)(nil)
