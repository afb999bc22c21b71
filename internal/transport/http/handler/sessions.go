package handler

import (
	"net/http"

	"github.com/findoctor/clinic-api/internal/application/auth"
	"github.com/findoctor/clinic-api/internal/domain"
)

// SessionHandler serves staff authentication.
type SessionHandler struct {
	svc auth.Service
}

func NewSessionHandler(svc auth.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Login handles POST /sessions.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	token, user, err := h.svc.Login(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, "login successful", map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
