// Package email delivers transactional mail through an ordered list of
// providers, falling through to the next one when a send fails.
package email

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoProvider is returned when every configured provider failed.
var ErrNoProvider = errors.New("no email provider available")

// Message is one outgoing email.
type Message struct {
	FromName string
	From     string
	To       []string
	Subject  string
	HTML     string
	Text     string
}

// Provider delivers a message and returns the provider's message id.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) (string, error)
}

// Attempt records one provider try.
type Attempt struct {
	Provider string `json:"provider"`
	Err      error  `json:"-"`
}

// Result describes a delivered message.
type Result struct {
	Provider  string    `json:"provider"`
	MessageID string    `json:"messageId"`
	Attempts  []Attempt `json:"-"`
}

// Observer is notified after each provider attempt.
type Observer func(provider string, ok bool)

// Chain tries providers in order until one succeeds.
type Chain struct {
	providers []Provider
	observe   Observer
	logger    *zap.Logger
}

// NewChain builds a chain over providers in priority order.
func NewChain(providers []Provider, observe Observer, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{providers: providers, observe: observe, logger: logger}
}

// Providers lists the provider names in priority order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Send delivers msg through the first provider that accepts it. When all
// fail the error wraps ErrNoProvider joined with each provider error.
func (c *Chain) Send(ctx context.Context, msg Message) (Result, error) {
	var (
		attempts []Attempt
		errs     = []error{ErrNoProvider}
	)
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		id, err := p.Send(ctx, msg)
		attempts = append(attempts, Attempt{Provider: p.Name(), Err: err})
		if c.observe != nil {
			c.observe(p.Name(), err == nil)
		}
		if err == nil {
			c.logger.Info("email sent",
				zap.String("provider", p.Name()),
				zap.String("message_id", id),
				zap.String("subject", msg.Subject),
				zap.Int("attempts", len(attempts)),
			)
			return Result{Provider: p.Name(), MessageID: id, Attempts: attempts}, nil
		}
		c.logger.Warn("email provider failed, trying next",
			zap.String("provider", p.Name()), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return Result{Attempts: attempts}, errors.Join(errs...)
}
