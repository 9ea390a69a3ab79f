package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Clock supplies timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator creates lead ids.
type IDGenerator interface {
	NewID() (string, error)
}

// Stores yields the lead store for the current connection mode.
type Stores func() Store

// StageCount is one funnel column.
type StageCount struct {
	Stage Stage  `json:"stage"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Funnel summarises the board of one user.
type Funnel struct {
	Stages         []StageCount `json:"stages"`
	Total          int64        `json:"total"`
	ConversionRate float64      `json:"conversionRate"`
}

// Service implements the lead operations.
type Service struct {
	stores Stores
	clock  Clock
	ids    IDGenerator
	logger *zap.Logger
}

// NewService wires the store selector with the clock and id generator.
func NewService(stores Stores, clock Clock, ids IDGenerator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{stores: stores, clock: clock, ids: ids, logger: logger}
}

// Create saves l for userID in the first stage.
func (s *Service) Create(ctx context.Context, userID int64, l Lead) (Lead, error) {
	l.Nome = strings.TrimSpace(l.Nome)
	if l.Nome == "" {
		return Lead{}, fmt.Errorf("%w: nome is required", ErrInvalid)
	}
	if l.Stage == "" {
		l.Stage = StageNew
	}
	if !l.Stage.Valid() {
		return Lead{}, fmt.Errorf("%w: unknown stage %q", ErrInvalid, l.Stage)
	}
	l.CNPJ = digitsOnly(l.CNPJ)
	if l.CNPJ != "" && len(l.CNPJ) != 14 {
		return Lead{}, fmt.Errorf("%w: cnpj must have 14 digits", ErrInvalid)
	}
	id, err := s.ids.NewID()
	if err != nil {
		return Lead{}, err
	}
	now := s.clock.Now()
	l.ID = id
	l.UserID = userID
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := s.stores().Create(ctx, l); err != nil {
		return Lead{}, err
	}
	s.logger.Info("lead created", zap.Int64("user_id", userID), zap.String("lead_id", l.ID), zap.String("fonte", l.Fonte))
	return l, nil
}

// List returns the leads of userID, optionally restricted to stage.
func (s *Service) List(ctx context.Context, userID int64, stage Stage) ([]Lead, error) {
	if stage != "" && !stage.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %q", ErrInvalid, stage)
	}
	return s.stores().List(ctx, userID, stage)
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, userID int64, id string) (Lead, error) {
	return s.stores().Get(ctx, userID, id)
}

// Move sets the stage of a lead.
func (s *Service) Move(ctx context.Context, userID int64, id string, stage Stage) (Lead, error) {
	if !stage.Valid() {
		return Lead{}, fmt.Errorf("%w: unknown stage %q", ErrInvalid, stage)
	}
	return s.stores().UpdateStage(ctx, userID, id, stage, s.clock.Now())
}

// UpdateNotes replaces the notes of a lead.
func (s *Service) UpdateNotes(ctx context.Context, userID int64, id, notes string) (Lead, error) {
	return s.stores().UpdateNotes(ctx, userID, id, notes, s.clock.Now())
}

// Delete removes a lead.
func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	return s.stores().Delete(ctx, userID, id)
}

// CheckDuplicates returns the keys of candidates already saved by userID.
func (s *Service) CheckDuplicates(ctx context.Context, userID int64, candidates []Lead) ([]string, error) {
	if len(candidates) == 0 {
		return []string{}, nil
	}
	keys := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		k := c.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	existing, err := s.stores().ExistingKeys(ctx, userID, keys)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = []string{}
	}
	return existing, nil
}

// Funnel counts leads per stage in board order.
func (s *Service) Funnel(ctx context.Context, userID int64) (Funnel, error) {
	counts, err := s.stores().CountByStage(ctx, userID)
	if err != nil {
		return Funnel{}, err
	}
	f := Funnel{Stages: make([]StageCount, 0, len(stages))}
	for _, st := range stages {
		n := counts[st]
		f.Stages = append(f.Stages, StageCount{Stage: st, Label: st.Label(), Count: n})
		f.Total += n
	}
	if f.Total > 0 {
		f.ConversionRate = float64(counts[StageWon]) / float64(f.Total)
	}
	return f, nil
}

// digitsOnly drops the punctuation of a formatted CNPJ such as 12.345.678/0001-90.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
