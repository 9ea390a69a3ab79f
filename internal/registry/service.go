package registry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/empresasbrasil/internal/reference"
)

// Options is the filter vocabulary served to the search form. Optional
// lists are omitted when they would offer a single choice.
type Options struct {
	BusinessSegments  []reference.Segment `json:"businessSegments"`
	UFs               []reference.Option  `json:"ufs"`
	SituacaoCadastral []reference.Option  `json:"situacaoCadastral"`
	MotivoSituacao    []reference.Option  `json:"motivoSituacao,omitempty"`
	QualificacaoSocio []reference.Option  `json:"qualificacaoSocio,omitempty"`
	NaturezaJuridica  []reference.Option  `json:"naturezaJuridica,omitempty"`
}

// SearchObserver records search latency per data source.
type SearchObserver func(source string, d time.Duration)

// Service routes registry queries to the live database when connected and
// to the sample dataset otherwise.
type Service struct {
	live    Source
	offline Store
	observe SearchObserver
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewService wires the live source and the offline store. live may be nil.
func NewService(live Source, offline Store, observe SearchObserver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if live == nil {
		live = func() (Store, bool) { return nil, false }
	}
	return &Service{
		live:    live,
		offline: offline,
		observe: observe,
		logger:  logger,
		nowFunc: time.Now,
	}
}

func (s *Service) store() (Store, bool) {
	if st, ok := s.live(); ok && st != nil {
		return st, true
	}
	return s.offline, false
}

// Live reports whether searches currently hit the database.
func (s *Service) Live() bool {
	_, ok := s.store()
	return ok
}

// Search returns the requested page of companies matching c.
func (s *Service) Search(ctx context.Context, c Criteria) (Result, error) {
	start := s.nowFunc()
	st, live := s.store()
	source := SourceDatabase
	if !live {
		source = SourceSample
	}

	total, err := st.Count(ctx, c)
	if err != nil {
		return Result{}, fmt.Errorf("count companies: %w", err)
	}
	offset, size := c.Window(total)
	companies := []Company{}
	if size > 0 {
		companies, err = st.Search(ctx, c, offset, size)
		if err != nil {
			return Result{}, fmt.Errorf("search companies: %w", err)
		}
	}
	elapsed := s.nowFunc().Sub(start)
	if s.observe != nil {
		s.observe(source, elapsed)
	}
	s.logger.Debug("company search",
		zap.String("source", source),
		zap.String("mode", string(c.Mode)),
		zap.Int("page", c.Page),
		zap.Int64("total_available", total),
		zap.Int("results", len(companies)),
		zap.Duration("elapsed", elapsed),
	)
	return Result{
		Companies:  companies,
		Pagination: c.Paginate(total),
		QueryTime:  elapsed,
		Offline:    !live,
		Source:     source,
	}, nil
}

// Count returns the number of matching companies, not capped by the limit.
func (s *Service) Count(ctx context.Context, c Criteria) (int64, bool, error) {
	st, live := s.store()
	n, err := st.Count(ctx, c)
	if err != nil {
		return 0, live, fmt.Errorf("count companies: %w", err)
	}
	return n, live, nil
}

// Options assembles the filter vocabulary. When live, each lookup list is
// read from the database and falls back to static data on failure.
func (s *Service) Options(ctx context.Context) (Options, string) {
	opts := Options{
		BusinessSegments:  reference.BusinessSegments(),
		UFs:               reference.States(),
		SituacaoCadastral: reference.RegistrationStatuses(),
	}
	st, live := s.store()
	source := SourceStatic
	if live {
		source = SourceDatabase
	}
	lookup := func(table LookupTable) []reference.Option {
		if live {
			rows, err := st.Lookup(ctx, table)
			if err == nil {
				return rows
			}
			s.logger.Warn("lookup query failed, using static data",
				zap.String("table", string(table)), zap.Error(err))
			source = SourceStatic
		}
		rows, _ := s.offline.Lookup(ctx, table)
		return rows
	}
	opts.MotivoSituacao = multi(lookup(LookupMotives))
	opts.QualificacaoSocio = multi(lookup(LookupQualifications))
	opts.NaturezaJuridica = multi(lookup(LookupLegalNatures))
	return opts, source
}

func multi(opts []reference.Option) []reference.Option {
	if len(opts) > 1 {
		return opts
	}
	return nil
}
