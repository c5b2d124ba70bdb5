package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"thumbly/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)

// Create inserts a new user; a unique violation on email or username maps to
// domain.ErrDuplicateUser.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
INSERT INTO users (id, username, email, password_hash, role, locale, email_verified)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, username, email, password_hash, role, locale, email_verified, created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Locale,
		user.EmailVerified,
	)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDuplicateUser
		}
		return nil, err
	}
	return created, nil
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, username, email, password_hash, role, locale, email_verified, created_at, updated_at
FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByIdentifier fetches a user by email or username, whichever matches.
func (r *UserRepositoryPG) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, username, email, password_hash, role, locale, email_verified, created_at, updated_at
FROM users WHERE email = $1 OR username = $1`, identifier)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Locale,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
