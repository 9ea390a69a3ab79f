// Package auth issues and verifies JWT sessions for registered users.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Errors surfaced by the service and the user stores.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must have at least 6 characters")
	ErrInvalidInput       = errors.New("invalid input")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// User is an account row.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Plan         string
	CreatedAt    time.Time
}

// PublicUser is the user view safe to send to clients.
type PublicUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Plan  string `json:"plan,omitempty"`
}

// Public strips the password hash.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name, Plan: u.Plan}
}

// UserStore persists accounts. Implementations return ErrUserNotFound and
// ErrEmailTaken for the matching conditions.
type UserStore interface {
	ByEmail(ctx context.Context, email string) (User, error)
	ByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, u User) (User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetPlan(ctx context.Context, id int64, plan string) error
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
