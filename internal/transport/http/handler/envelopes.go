package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fuziondot/auth-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterEnvelope acknowledges a registration and reports whether the
// confirmation email was delivered.
type RegisterEnvelope struct {
	Message        string `json:"message"`
	EmailDelivered bool   `json:"email_delivered"`
}

// TokenEnvelope wraps a successful login.
type TokenEnvelope struct {
	Token string `json:"token"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps the domain sentinel taxonomy onto HTTP statuses. All
// flow-level rejections surface as 400 with the wrapped message; anything
// unrecognised is an internal failure and its detail stays out of the response.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrEmailNotVerified),
		errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server error")
	}
}
