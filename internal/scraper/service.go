package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Runner is the subset of the Apify client the service depends on.
type Runner interface {
	Configured() bool
	StartRun(ctx context.Context, actorID string, input json.RawMessage) (Run, error)
	GetRun(ctx context.Context, runID string) (Run, error)
	DatasetItems(ctx context.Context, datasetID string, limit int) ([]json.RawMessage, error)
}

// Options selects actors and result caps.
type Options struct {
	PlacesActor    string
	InstagramActor string
	InstagramLimit int
	// ResultLimit caps dataset items returned per run. Zero means all.
	ResultLimit int
}

// RunStatus is a run plus its results once it succeeded.
type RunStatus struct {
	Run     Run
	Results []json.RawMessage
}

// Progress reports an Instagram search.
type Progress struct {
	Status  string    `json:"status"`
	Total   int       `json:"total"`
	Results []Profile `json:"results"`
}

// Service drives Apify actors for the lead extraction screens.
type Service struct {
	runner Runner
	opts   Options
	logger *zap.Logger
}

// NewService returns a service with defaulted actor ids.
func NewService(runner Runner, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PlacesActor == "" {
		opts.PlacesActor = DefaultPlacesActor
	}
	if opts.InstagramActor == "" {
		opts.InstagramActor = DefaultInstagramActor
	}
	if opts.InstagramLimit <= 0 {
		opts.InstagramLimit = DefaultInstagramLimit
	}
	return &Service{runner: runner, opts: opts, logger: logger}
}

// Configured reports whether runs can be started.
func (s *Service) Configured() bool { return s.runner != nil && s.runner.Configured() }

// StartActor starts actorID with a caller-provided input object.
func (s *Service) StartActor(ctx context.Context, actorID string, input json.RawMessage) (Run, error) {
	if !s.Configured() {
		return Run{}, ErrNotConfigured
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return Run{}, fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	if len(input) > 0 && !json.Valid(input) {
		return Run{}, fmt.Errorf("%w: input is not valid json", ErrInvalidInput)
	}
	return s.runner.StartRun(ctx, actorID, input)
}

// Status fetches runID. Results are attached only when the run succeeded;
// Google Maps results are deduplicated.
func (s *Service) Status(ctx context.Context, runID string) (RunStatus, error) {
	if !s.Configured() {
		return RunStatus{}, ErrNotConfigured
	}
	run, err := s.runner.GetRun(ctx, runID)
	if err != nil {
		return RunStatus{}, err
	}
	st := RunStatus{Run: run}
	if run.Status != StatusSucceeded || run.DefaultDatasetID == "" {
		return st, nil
	}
	items, err := s.runner.DatasetItems(ctx, run.DefaultDatasetID, s.opts.ResultLimit)
	if err != nil {
		return RunStatus{}, fmt.Errorf("fetch results of run %s: %w", runID, err)
	}
	if run.ActID == s.opts.PlacesActor {
		before := len(items)
		items = DedupePlaces(items)
		s.logger.Debug("deduplicated places", zap.String("run_id", runID), zap.Int("before", before), zap.Int("after", len(items)))
	}
	st.Results = items
	return st, nil
}

// SearchInstagram starts a profile search for keyword.
func (s *Service) SearchInstagram(ctx context.Context, keyword string) (Run, error) {
	if !s.Configured() {
		return Run{}, ErrNotConfigured
	}
	input, err := InstagramInput(keyword, s.opts.InstagramLimit)
	if err != nil {
		return Run{}, err
	}
	return s.runner.StartRun(ctx, s.opts.InstagramActor, input)
}

// InstagramProgress returns the profiles collected so far by runID.
func (s *Service) InstagramProgress(ctx context.Context, runID string) (Progress, error) {
	if !s.Configured() {
		return Progress{}, ErrNotConfigured
	}
	run, err := s.runner.GetRun(ctx, runID)
	if err != nil {
		return Progress{}, err
	}
	p := Progress{Status: run.Status, Results: []Profile{}}
	if run.DefaultDatasetID == "" {
		return p, nil
	}
	items, err := s.runner.DatasetItems(ctx, run.DefaultDatasetID, 0)
	if err != nil {
		return Progress{}, fmt.Errorf("fetch profiles of run %s: %w", runID, err)
	}
	p.Results = ShapeProfiles(items)
	p.Total = len(p.Results)
	return p, nil
}
