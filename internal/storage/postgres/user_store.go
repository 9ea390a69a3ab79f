package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JakeFAU/empresasbrasil/internal/auth"
)

const uniqueViolation = "23505"

const userColumns = "id, email, password, COALESCE(name, ''), COALESCE(plan, ''), COALESCE(created_at, NOW())"

// UserStore persists accounts in simple_users.
type UserStore struct {
	db DB
}

// NewUserStore wraps db.
func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row pgx.Row) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Plan, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, err
}

// ByEmail implements auth.UserStore.
func (s *UserStore) ByEmail(ctx context.Context, email string) (auth.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM simple_users WHERE email = $1", auth.NormalizeEmail(email)))
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return auth.User{}, fmt.Errorf("query user by email: %w", err)
	}
	return u, err
}

// ByID implements auth.UserStore.
func (s *UserStore) ByID(ctx context.Context, id int64) (auth.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, "SELECT "+userColumns+" FROM simple_users WHERE id = $1", id))
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return auth.User{}, fmt.Errorf("query user by id: %w", err)
	}
	return u, err
}

// Create implements auth.UserStore.
func (s *UserStore) Create(ctx context.Context, u auth.User) (auth.User, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO simple_users (email, password, name)
VALUES ($1, $2, $3)
RETURNING `+userColumns, auth.NormalizeEmail(u.Email), u.PasswordHash, u.Name)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return auth.User{}, auth.ErrEmailTaken
		}
		return auth.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// UpdatePassword implements auth.UserStore.
func (s *UserStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return s.exec(ctx, "UPDATE simple_users SET password = $1, updated_at = NOW() WHERE id = $2", hash, id)
}

// SetPlan implements auth.UserStore.
func (s *UserStore) SetPlan(ctx context.Context, id int64, plan string) error {
	return s.exec(ctx, "UPDATE simple_users SET plan = $1, updated_at = NOW() WHERE id = $2", plan, id)
}

func (s *UserStore) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}
