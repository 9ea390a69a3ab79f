package mode

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/empresasbrasil/internal/storage/postgres"
)

// Opener creates a database handle and the function that releases it.
type Opener func(ctx context.Context) (postgres.DB, func(), error)

// Switcher performs the Offline to Railway switch once the monitor sees
// the database come back.
type Switcher struct {
	state   *State
	open    Opener
	verify  func(context.Context, postgres.DB) error
	migrate func(context.Context) error
	logger  *zap.Logger
}

// NewSwitcher wires a Switcher. migrate may be nil when the owned tables are
// managed elsewhere.
func NewSwitcher(state *State, open Opener, migrate func(context.Context) error, logger *zap.Logger) *Switcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Switcher{
		state:   state,
		open:    open,
		verify:  postgres.VerifyRegistry,
		migrate: migrate,
		logger:  logger,
	}
}

// Restore opens a pool, checks the registry schema, applies migrations and
// promotes the state. On any failure the state is left Offline and the
// error is returned so the caller can keep polling.
func (s *Switcher) Restore(ctx context.Context) error {
	db, closer, err := s.open(ctx)
	if err != nil {
		s.state.Demote()
		return fmt.Errorf("open registry pool: %w", err)
	}
	fail := func(err error) error {
		if closer != nil {
			closer()
		}
		s.state.Demote()
		return err
	}
	if err := s.verify(ctx, db); err != nil {
		return fail(fmt.Errorf("verify registry: %w", err))
	}
	if s.migrate != nil {
		if err := s.migrate(ctx); err != nil {
			return fail(fmt.Errorf("migrate owned tables: %w", err))
		}
	}
	s.state.Promote(db, closer)
	s.logger.Info("switched to live registry", zap.String("mode", Railway.String()))
	return nil
}
