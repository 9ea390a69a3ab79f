package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notifier sends the account emails triggered by the service.
type Notifier interface {
	Welcome(ctx context.Context, to, name string) error
	PasswordReset(ctx context.Context, to, name, password string) error
}

// Users yields the user store for the current connection mode.
type Users func() UserStore

// Session is the response of a successful login or registration.
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      PublicUser `json:"user"`
}

// Service implements login, registration and password management.
type Service struct {
	users       Users
	tokens      *Tokens
	notifier    Notifier
	logger      *zap.Logger
	genPassword func() (string, error)
}

// NewService wires the store selector, the token signer and the notifier.
// notifier may be nil, in which case no email is sent.
func NewService(users Users, tokens *Tokens, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:       users,
		tokens:      tokens,
		notifier:    notifier,
		logger:      logger,
		genPassword: func() (string, error) { return GeneratePassword(10) },
	}
}

// Tokens exposes the signer for the HTTP middleware.
func (s *Service) Tokens() *Tokens { return s.tokens }

// Login checks the credentials and issues a session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	u, err := s.users().ByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	s.logger.Info("user logged in", zap.Int64("user_id", u.ID))
	return s.session(u)
}

// Register creates an account and sends the welcome email. A failed email
// does not fail the registration.
func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" {
		return Session{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return Session{}, ErrWeakPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users().Create(ctx, User{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	if s.notifier != nil {
		if err := s.notifier.Welcome(ctx, u.Email, u.Name); err != nil {
			s.logger.Warn("welcome email failed", zap.Int64("user_id", u.ID), zap.Error(err))
		}
	}
	s.logger.Info("user registered", zap.Int64("user_id", u.ID))
	return s.session(u)
}

// ChangePassword replaces the password of userID after checking current.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if len(next) < MinPasswordLength {
		return ErrWeakPassword
	}
	store := s.users()
	u, err := store.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := store.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ResetPassword emails a fresh password to the account, if any. Unknown
// addresses succeed silently.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	store := s.users()
	u, err := store.ByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.logger.Info("password reset for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	password, err := s.genPassword()
	if err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := store.UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if s.notifier != nil {
		if err := s.notifier.PasswordReset(ctx, u.Email, u.Name, password); err != nil {
			return fmt.Errorf("send reset email: %w", err)
		}
	}
	return nil
}

// Me returns the public profile of userID.
func (s *Service) Me(ctx context.Context, userID int64) (PublicUser, error) {
	u, err := s.users().ByID(ctx, userID)
	if err != nil {
		return PublicUser{}, err
	}
	return u.Public(), nil
}

// SetPlan records the subscription plan of userID.
func (s *Service) SetPlan(ctx context.Context, userID int64, plan string) error {
	if err := s.users().SetPlan(ctx, userID, plan); err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	s.logger.Info("plan updated", zap.Int64("user_id", userID), zap.String("plan", plan))
	return nil
}

func (s *Service) session(u User) (Session, error) {
	token, expires, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expires, User: u.Public()}, nil
}
