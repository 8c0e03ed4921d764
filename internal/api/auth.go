package api

import (
	"net/http"
	"time"

	"github.com/waflora/waflora/internal/domain"
)

// ─── Sessions and Workers ───────────────────────────────────────────────────

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type addWorkerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=4,max=72"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p, err := s.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logger.Warn().Str("username", req.Username).Msg("login failed")
		s.writeDomainError(w, r, err)
		return
	}
	token, exp, err := s.accounts.IssueToken(*p)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": exp,
		"user":       p,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, principalFrom(r.Context()))
}

func (s *Server) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	list, err := s.accounts.ListWorkers(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Worker{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"workers": list})
}

func (s *Server) handleAddWorker(w http.ResponseWriter, r *http.Request) {
	var req addWorkerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	wk, err := s.accounts.AddWorker(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wk)
}

func (s *Server) handleDeleteWorker(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.accounts.DeleteWorker(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
