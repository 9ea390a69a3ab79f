package api

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/empresasbrasil/internal/registry"
)

type performance struct {
	QueryTimeMs  int64 `json:"queryTimeMs"`
	ResultsCount int   `json:"resultsCount"`
}

type searchResponse struct {
	Success     bool                `json:"success"`
	Data        []registry.Company  `json:"data"`
	Pagination  registry.Pagination `json:"pagination"`
	Performance performance         `json:"performance"`
	Offline     bool                `json:"offline"`
	Source      string              `json:"source"`
	Message     string              `json:"message,omitempty"`
}

type optionsResponse struct {
	Success bool             `json:"success"`
	Data    registry.Options `json:"data"`
	Source  string           `json:"source"`
}

type countResponse struct {
	Success bool   `json:"success"`
	Count   int64  `json:"count"`
	Offline bool   `json:"offline"`
	Source  string `json:"source"`
}

func (s *Server) criteria(w http.ResponseWriter, r *http.Request) (registry.Criteria, error) {
	var f registry.Filters
	if err := s.decode(w, r, &f); err != nil {
		return registry.Criteria{}, err
	}
	return f.Normalize()
}

func (s *Server) filterOptions(w http.ResponseWriter, r *http.Request) {
	opts, source := s.deps.Registry.Options(r.Context())
	writeJSON(w, http.StatusOK, optionsResponse{Success: true, Data: opts, Source: source})
}

func (s *Server) searchCompanies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	c, err := s.criteria(w, r)
	if err != nil {
		s.fail(w, r, "Filtros de busca inválidos", err)
		return
	}
	res, err := s.deps.Registry.Search(r.Context(), c)
	if err != nil {
		s.logger.Error("company search failed",
			zap.Int64("query_time_ms", time.Since(start).Milliseconds()), zap.Error(err))
		s.fail(w, r, "Erro na busca de empresas", err)
		return
	}
	resp := searchResponse{
		Success:    true,
		Data:       res.Companies,
		Pagination: res.Pagination,
		Performance: performance{
			QueryTimeMs:  res.QueryTime.Milliseconds(),
			ResultsCount: len(res.Companies),
		},
		Offline: res.Offline,
		Source:  res.Source,
	}
	if res.Offline {
		resp.Message = registry.OfflineMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) countCompanies(w http.ResponseWriter, r *http.Request) {
	c, err := s.criteria(w, r)
	if err != nil {
		s.fail(w, r, "Filtros de busca inválidos", err)
		return
	}
	n, live, err := s.deps.Registry.Count(r.Context(), c)
	if err != nil {
		s.fail(w, r, "Erro ao contar empresas", err)
		return
	}
	source := registry.SourceDatabase
	if !live {
		source = registry.SourceSample
	}
	writeJSON(w, http.StatusOK, countResponse{Success: true, Count: n, Offline: !live, Source: source})
}

// exportCompanies streams the CSV. Once the first byte is out the status
// can no longer change, so later failures only end the stream early.
func (s *Server) exportCompanies(w http.ResponseWriter, r *http.Request) {
	c, err := s.criteria(w, r)
	if err != nil {
		s.fail(w, r, "Filtros de busca inválidos", err)
		return
	}
	filename := fmt.Sprintf("empresas_%s.csv", s.opts.Today())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	n, err := s.deps.Registry.Export(r.Context(), c, w)
	if err != nil {
		s.logger.Error("company export aborted",
			zap.String("request_id", RequestID(r.Context())),
			zap.Int("rows_written", n),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("company export finished", zap.Int("rows", n))
}
