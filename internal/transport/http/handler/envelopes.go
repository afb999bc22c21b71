package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/findoctor/clinic-api/internal/domain"
	"github.com/findoctor/clinic-api/internal/pkg/paginate"
)

// envelope is the uniform response shape for every endpoint.
type envelope struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Data       interface{}    `json:"data,omitempty"`
	Pagination *paginate.Meta `json:"pagination,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("could not encode response", "err", err)
	}
}

func respondOK(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func respondCreated(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

func respondPage(w http.ResponseWriter, message string, data interface{}, meta paginate.Meta) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data, Pagination: &meta})
}

// respondError maps the domain sentinels onto HTTP statuses. Unrecognized
// errors become opaque 500s so internals never leak to clients.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, domain.ErrBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	default:
		slog.Error("request failed", "err", err)
	}

	writeJSON(w, status, envelope{Success: false, Message: msg})
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrBadRequest
	}
	return nil
}
