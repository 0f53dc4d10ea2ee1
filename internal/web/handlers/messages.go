package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/smalltalk/internal/monitoring"
	"github.com/saltyorg/smalltalk/internal/social"
	"github.com/saltyorg/smalltalk/internal/web/feed"
)

// createMessageRequest ignores any client-supplied messageId
type createMessageRequest struct {
	PostedBy        int64  `json:"postedBy"`
	MessageText     string `json:"messageText"`
	TimePostedEpoch int64  `json:"timePostedEpoch"`
}

type updateMessageRequest struct {
	MessageText string `json:"messageText"`
}

// CreateMessage posts a new message
func (h *Handlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messages.Create(r.Context(), social.MessageCandidate{
		MessageText:     req.MessageText,
		PostedBy:        req.PostedBy,
		TimePostedEpoch: req.TimePostedEpoch,
	})
	if err != nil {
		monitoring.MessageFailure.WithLabelValues("create", social.KindOf(err).String()).Inc()
		h.writeError(w, r, err)
		return
	}

	monitoring.MessagesPosted.Inc()
	resp := newMessageResponse(msg)
	h.publish(feed.EventMessageCreated, resp)
	h.jsonResponse(w, resp)
}

// ListMessages returns every message
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, newMessageResponses(msgs))
}

// GetMessage returns one message, or an empty body when it does not exist
func (h *Handlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	msg, err := h.messages.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if msg == nil {
		h.emptyResponse(w)
		return
	}
	h.jsonResponse(w, newMessageResponse(msg))
}

// DeleteMessage removes a message. The body is 1 when a message was removed
// and empty when there was nothing to remove.
func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	n, err := h.messages.Delete(r.Context(), id)
	if err != nil {
		monitoring.MessageFailure.WithLabelValues("delete", social.KindOf(err).String()).Inc()
		h.writeError(w, r, err)
		return
	}
	if n == 0 {
		h.emptyResponse(w)
		return
	}

	monitoring.MessagesDeleted.Inc()
	h.publish(feed.EventMessageDeleted, map[string]int64{"messageId": id})
	h.jsonResponse(w, n)
}

// UpdateMessage replaces the text of a message
func (h *Handlers) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateMessageRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	n, err := h.messages.UpdateText(r.Context(), id, social.MessageUpdate{MessageText: req.MessageText})
	if err != nil {
		monitoring.MessageFailure.WithLabelValues("update", social.KindOf(err).String()).Inc()
		h.writeError(w, r, err)
		return
	}

	monitoring.MessagesUpdated.Inc()
	if h.publisher != nil {
		if msg, err := h.messages.Get(r.Context(), id); err != nil {
			log.Warn().Err(err).Int64("message_id", id).Msg("Failed to load updated message for feed")
		} else if msg != nil {
			h.publish(feed.EventMessageUpdated, newMessageResponse(msg))
		}
	}
	h.jsonResponse(w, n)
}

// ListAccountMessages returns the messages posted by one account
func (h *Handlers) ListAccountMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	msgs, err := h.messages.ListByAccount(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.jsonResponse(w, newMessageResponses(msgs))
}
