package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JakeFAU/empresasbrasil/internal/crm"
)

type moveLeadRequest struct {
	Stage crm.Stage `json:"stage" validate:"required"`
}

type notesRequest struct {
	Notas string `json:"notas"`
}

type checkDuplicatesRequest struct {
	Leads []crm.Lead `json:"leads"`
}

type leadResponse struct {
	Success bool     `json:"success"`
	Lead    crm.Lead `json:"lead"`
}

func (s *Server) writeLead(w http.ResponseWriter, status int, l crm.Lead) {
	writeJSON(w, status, leadResponse{Success: true, Lead: l})
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	stage := crm.Stage(r.URL.Query().Get("stage"))
	leads, err := s.deps.CRM.List(r.Context(), claims(r).UserID, stage)
	if err != nil {
		s.fail(w, r, "Erro ao listar leads", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool       `json:"success"`
		Leads   []crm.Lead `json:"leads"`
		Total   int        `json:"total"`
	}{Success: true, Leads: leads, Total: len(leads)})
}

func (s *Server) createLead(w http.ResponseWriter, r *http.Request) {
	var req crm.Lead
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "Dados do lead inválidos", err)
		return
	}
	lead, err := s.deps.CRM.Create(r.Context(), claims(r).UserID, req)
	if err != nil {
		message := "Erro ao salvar lead"
		if statusFor(err) == http.StatusConflict {
			message = "Lead já existe no CRM"
		}
		s.fail(w, r, message, err)
		return
	}
	s.writeLead(w, http.StatusCreated, lead)
}

func (s *Server) checkDuplicates(w http.ResponseWriter, r *http.Request) {
	var req checkDuplicatesRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "Lista de leads inválida", err)
		return
	}
	existing, err := s.deps.CRM.CheckDuplicates(r.Context(), claims(r).UserID, req.Leads)
	if err != nil {
		s.fail(w, r, "Erro ao verificar duplicatas", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success       bool     `json:"success"`
		ExistingLeads []string `json:"existingLeads"`
	}{Success: true, ExistingLeads: existing})
}

func (s *Server) getLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.deps.CRM.Get(r.Context(), claims(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "Lead não encontrado", err)
		return
	}
	s.writeLead(w, http.StatusOK, lead)
}

func (s *Server) moveLead(w http.ResponseWriter, r *http.Request) {
	var req moveLeadRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "Estágio inválido", err)
		return
	}
	lead, err := s.deps.CRM.Move(r.Context(), claims(r).UserID, chi.URLParam(r, "id"), req.Stage)
	if err != nil {
		s.fail(w, r, "Erro ao mover lead", err)
		return
	}
	s.writeLead(w, http.StatusOK, lead)
}

func (s *Server) updateNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "Notas inválidas", err)
		return
	}
	lead, err := s.deps.CRM.UpdateNotes(r.Context(), claims(r).UserID, chi.URLParam(r, "id"), req.Notas)
	if err != nil {
		s.fail(w, r, "Erro ao atualizar notas", err)
		return
	}
	s.writeLead(w, http.StatusOK, lead)
}

func (s *Server) deleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.CRM.Delete(r.Context(), claims(r).UserID, chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "Erro ao remover lead", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Lead removido"})
}

func (s *Server) funnel(w http.ResponseWriter, r *http.Request) {
	f, err := s.deps.CRM.Funnel(r.Context(), claims(r).UserID)
	if err != nil {
		s.fail(w, r, "Erro ao calcular funil", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool       `json:"success"`
		Funnel  crm.Funnel `json:"funnel"`
	}{Success: true, Funnel: f})
}
