package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/smalltalk/internal/database"
	"github.com/saltyorg/smalltalk/internal/social"
	"github.com/saltyorg/smalltalk/internal/web/feed"
	"github.com/saltyorg/smalltalk/internal/web/middleware"
)

// Publisher receives message events after successful writes
type Publisher interface {
	Broadcast(event feed.Event)
}

// Pinger reports whether the datastore is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	accounts  *social.AccountManager
	messages  *social.MessageManager
	publisher Publisher
	db        Pinger
}

// New creates a new Handlers instance. publisher may be nil.
func New(accounts *social.AccountManager, messages *social.MessageManager, publisher Publisher, db Pinger) *Handlers {
	return &Handlers{
		accounts:  accounts,
		messages:  messages,
		publisher: publisher,
		db:        db,
	}
}

// accountResponse is the wire form of an account
type accountResponse struct {
	AccountID int64  `json:"accountId"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

func newAccountResponse(a *database.Account) accountResponse {
	return accountResponse{AccountID: a.ID, Username: a.Username, Password: a.Password}
}

// messageResponse is the wire form of a message
type messageResponse struct {
	MessageID       int64  `json:"messageId"`
	PostedBy        int64  `json:"postedBy"`
	MessageText     string `json:"messageText"`
	TimePostedEpoch int64  `json:"timePostedEpoch"`
}

func newMessageResponse(m *database.Message) messageResponse {
	return messageResponse{
		MessageID:       m.ID,
		PostedBy:        m.PostedBy,
		MessageText:     m.Text,
		TimePostedEpoch: m.TimePostedEpoch,
	}
}

func newMessageResponses(msgs []*database.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, newMessageResponse(m))
	}
	return out
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind social.Kind) int {
	switch kind {
	case social.KindInvalidUsername, social.KindInvalidPassword, social.KindInvalidMessage:
		return http.StatusBadRequest
	case social.KindDuplicateUsername:
		return http.StatusConflict
	case social.KindAuthenticationFailed:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates a manager failure into a status and JSON error body.
// Unexpected failures are logged and answered with a fixed phrase.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := social.KindOf(err)
	status := statusFor(kind)

	if status == http.StatusInternalServerError {
		middleware.RequestLogger(r).Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		h.jsonError(w, social.ErrUnexpected.Msg, status)
		return
	}

	msg := kind.String()
	var socialErr *social.Error
	if errors.As(err, &socialErr) {
		msg = socialErr.Msg
	}
	middleware.RequestLogger(r).Warn().Str("kind", kind.String()).Str("path", r.URL.Path).Msg(msg)
	h.jsonError(w, msg, status)
}

// jsonError sends a JSON error response
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonResponse sends v as a 200 JSON response
func (h *Handlers) jsonResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// emptyResponse answers 200 with no body, used where the result is absent
func (h *Handlers) emptyResponse(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

// decodeJSON reads the request body into dst, answering 400 on failure
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.RequestLogger(r).Debug().Err(err).Str("path", r.URL.Path).Msg("Malformed request body")
		h.jsonError(w, "Malformed request body", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses a numeric URL parameter, answering 400 on failure
func (h *Handlers) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		h.jsonError(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handlers) publish(eventType feed.EventType, data any) {
	if h.publisher == nil {
		return
	}
	h.publisher.Broadcast(feed.Event{Type: eventType, Data: data})
}
