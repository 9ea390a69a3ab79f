package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JakeFAU/empresasbrasil/internal/scraper"
)

type instagramRequest struct {
	Keyword string `json:"keyword" validate:"required"`
}

type runResponse struct {
	Success    bool              `json:"success"`
	RunID      string            `json:"runId"`
	Status     string            `json:"status"`
	StartedAt  *time.Time        `json:"startedAt,omitempty"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
	Results    []json.RawMessage `json:"results,omitempty"`
}

type progressResponse struct {
	Success bool `json:"success"`
	scraper.Progress
}

func newRunResponse(run scraper.Run) runResponse {
	return runResponse{
		Success:    true,
		RunID:      run.ID,
		Status:     run.Status,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

func (s *Server) scraperAvailable(w http.ResponseWriter, r *http.Request) bool {
	if s.deps.Scraper == nil || !s.deps.Scraper.Configured() {
		s.fail(w, r, "APIFY_API_KEY não configurada", scraper.ErrNotConfigured)
		return false
	}
	return true
}

func (s *Server) startActor(w http.ResponseWriter, r *http.Request) {
	if !s.scraperAvailable(w, r) {
		return
	}
	input, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, r, "Corpo da requisição inválido", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	run, err := s.deps.Scraper.StartActor(r.Context(), chi.URLParam(r, "actorId"), input)
	if err != nil {
		s.fail(w, r, "Erro ao iniciar scraper", err)
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(run))
}

func (s *Server) runStatus(w http.ResponseWriter, r *http.Request) {
	if !s.scraperAvailable(w, r) {
		return
	}
	st, err := s.deps.Scraper.Status(r.Context(), chi.URLParam(r, "runId"))
	if err != nil {
		s.fail(w, r, "Erro ao consultar execução", err)
		return
	}
	resp := newRunResponse(st.Run)
	resp.Results = st.Results
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) instagramScrape(w http.ResponseWriter, r *http.Request) {
	if !s.scraperAvailable(w, r) {
		return
	}
	var req instagramRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "Palavra-chave é obrigatória", err)
		return
	}
	run, err := s.deps.Scraper.SearchInstagram(r.Context(), req.Keyword)
	if err != nil {
		s.fail(w, r, "Erro ao iniciar scraping do Instagram", err)
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(run))
}

func (s *Server) instagramProgress(w http.ResponseWriter, r *http.Request) {
	if !s.scraperAvailable(w, r) {
		return
	}
	p, err := s.deps.Scraper.InstagramProgress(r.Context(), chi.URLParam(r, "runId"))
	if err != nil {
		s.fail(w, r, "Erro ao consultar progresso", err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{Success: true, Progress: p})
}
