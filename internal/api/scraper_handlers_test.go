package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/empresasbrasil/internal/scraper"
)

type stubRunner struct {
	mu     sync.Mutex
	runs   map[string]scraper.Run
	items  map[string][]json.RawMessage
	inputs map[string]json.RawMessage
}

func newStubRunner() *stubRunner {
	return &stubRunner{
		runs:   map[string]scraper.Run{},
		items:  map[string][]json.RawMessage{},
		inputs: map[string]json.RawMessage{},
	}
}

func (s *stubRunner) Configured() bool { return true }

func (s *stubRunner) StartRun(_ context.Context, actorID string, input json.RawMessage) (scraper.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[actorID] = input
	run := scraper.Run{ID: "run-" + actorID, ActID: actorID, Status: scraper.StatusRunning, DefaultDatasetID: "ds-" + actorID}
	s.runs[run.ID] = run
	return run, nil
}

func (s *stubRunner) GetRun(_ context.Context, runID string) (scraper.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return scraper.Run{}, scraper.ErrNotFound
	}
	return run, nil
}

func (s *stubRunner) DatasetItems(_ context.Context, datasetID string, _ int) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[datasetID], nil
}

func (s *stubRunner) finish(runID string, items ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := s.runs[runID]
	run.Status = scraper.StatusSucceeded
	s.runs[runID] = run
	for _, it := range items {
		s.items[run.DefaultDatasetID] = append(s.items[run.DefaultDatasetID], json.RawMessage(it))
	}
}

func newScraperHarness(t *testing.T, runner *stubRunner) *harness {
	t.Helper()
	return newHarness(t, func(d *Deps, _ *Options) {
		d.Scraper = scraper.NewService(runner, scraper.Options{}, nil)
	})
}

func TestScraper_UnavailableWithoutToken(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/apify/run/"+scraper.DefaultPlacesActor, `{}`, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])
}

func TestScraper_GoogleMapsRunFlow(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	h := newScraperHarness(t, runner)

	input := `{"searchStringsArray":["padaria"],"locationQuery":"São Paulo","maxCrawledPlacesPerSearch":20}`
	rec := h.do(http.MethodPost, "/api/apify/run/"+scraper.DefaultPlacesActor, input, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	started := decodeBody(t, rec)
	runID := started["runId"].(string)
	assert.Equal(t, scraper.StatusRunning, started["status"])
	assert.JSONEq(t, input, string(runner.inputs[scraper.DefaultPlacesActor]))

	rec = h.do(http.MethodGet, "/api/apify/runs/"+runID, nil, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, decodeBody(t, rec), "results")

	runner.finish(runID,
		`{"placeId":"p1","title":"Padaria A"}`,
		`{"placeId":"p1","title":"Padaria A"}`,
		`{"title":"Padaria B","address":"Rua 1","phone":"11"}`,
	)
	rec = h.do(http.MethodGet, "/api/apify/runs/"+runID, nil, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, scraper.StatusSucceeded, resp.Status)
	assert.Len(t, resp.Results, 2)
}

func TestScraper_RunNotFound(t *testing.T) {
	t.Parallel()

	h := newScraperHarness(t, newStubRunner())
	rec := h.do(http.MethodGet, "/api/apify/runs/missing", nil, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScraper_StartRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	h := newScraperHarness(t, newStubRunner())
	rec := h.do(http.MethodPost, "/api/apify/run/"+scraper.DefaultPlacesActor, `{not json`, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScraper_InstagramFlow(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	h := newScraperHarness(t, runner)

	rec := h.do(http.MethodPost, "/api/instagram/scrape", map[string]string{}, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/instagram/scrape", map[string]string{"keyword": "confeitaria"}, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	runID := decodeBody(t, rec)["runId"].(string)

	var input map[string]any
	require.NoError(t, json.Unmarshal(runner.inputs[scraper.DefaultInstagramActor], &input))
	assert.Equal(t, "confeitaria", input["search"])

	runner.finish(runID,
		`{"username":"doce.lar","fullName":"Doce Lar","businessEmail":"oi@docelar.com"}`,
		`{"username":"bolo.bom","biography":"pedidos: bolo@bom.com.br"}`,
	)
	rec = h.do(http.MethodGet, "/api/instagram/progress/"+runID, nil, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp progressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, scraper.StatusSucceeded, resp.Status)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "oi@docelar.com", resp.Results[0].Email)
}

func TestScraper_RateLimited(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(d *Deps, o *Options) {
		d.Scraper = scraper.NewService(newStubRunner(), scraper.Options{}, nil)
		o.ScraperLimiter = newTestLimiter(2)
	})
	for range 2 {
		rec := h.do(http.MethodPost, "/api/instagram/scrape", map[string]string{"keyword": "x"}, bearer(h.token(t, 1)))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := h.do(http.MethodPost, "/api/instagram/scrape", map[string]string{"keyword": "x"}, bearer(h.token(t, 1)))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestScraper_RequiresAuthentication(t *testing.T) {
	t.Parallel()

	runner := newStubRunner()
	h := newScraperHarness(t, runner)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/apify/run/" + scraper.DefaultPlacesActor},
		{http.MethodGet, "/api/apify/runs/run-1"},
		{http.MethodPost, "/api/instagram/scrape"},
		{http.MethodGet, "/api/instagram/progress/run-1"},
	} {
		rec := h.do(tc.method, tc.path, map[string]string{"keyword": "x"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)

		rec = h.do(tc.method, tc.path, map[string]string{"keyword": "x"}, bearer("not-a-token"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
	assert.Empty(t, runner.inputs)
}
