package api

import (
	"net/http"

	"github.com/JakeFAU/empresasbrasil/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type sessionResponse struct {
	Success bool `json:"success"`
	auth.Session
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "Email e senha são obrigatórios", err)
		return
	}
	session, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, "Email ou senha inválidos", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "Dados de cadastro inválidos", err)
		return
	}
	session, err := s.deps.Auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(w, r, "Não foi possível criar a conta", err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Success: true, Session: session})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "Email inválido", err)
		return
	}
	if err := s.deps.Auth.ResetPassword(r.Context(), req.Email); err != nil {
		s.fail(w, r, "Erro ao redefinir senha", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Se o email estiver cadastrado, você receberá uma nova senha",
	})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, "A nova senha deve ter pelo menos 6 caracteres", err)
		return
	}
	err := s.deps.Auth.ChangePassword(r.Context(), claims(r).UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		message := "Erro ao alterar senha"
		if statusFor(err) == http.StatusUnauthorized {
			message = "Senha atual incorreta"
		}
		s.fail(w, r, message, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Senha alterada com sucesso"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.deps.Auth.Me(r.Context(), claims(r).UserID)
	if err != nil {
		s.fail(w, r, "Usuário não encontrado", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool            `json:"success"`
		User    auth.PublicUser `json:"user"`
	}{Success: true, User: user})
}
