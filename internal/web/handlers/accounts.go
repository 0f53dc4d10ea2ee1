package handlers

import (
	"net/http"

	"github.com/saltyorg/smalltalk/internal/monitoring"
	"github.com/saltyorg/smalltalk/internal/social"
)

// registerRequest ignores any client-supplied accountId
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Register(r.Context(), social.RegisterCandidate{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		monitoring.RegisterFailure.WithLabelValues(social.KindOf(err).String()).Inc()
		h.writeError(w, r, err)
		return
	}

	monitoring.RegisterSuccess.Inc()
	h.jsonResponse(w, newAccountResponse(account))
}

// Login checks credentials and returns the matching account
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), social.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		monitoring.LoginFailure.WithLabelValues(social.KindOf(err).String()).Inc()
		h.writeError(w, r, err)
		return
	}

	monitoring.LoginSuccess.Inc()
	h.jsonResponse(w, newAccountResponse(account))
}
