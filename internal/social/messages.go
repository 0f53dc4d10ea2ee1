package social

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/smalltalk/internal/database"
)

// MessageCandidate is the input to MessageManager.Create.
type MessageCandidate struct {
	MessageText     string
	PostedBy        int64
	TimePostedEpoch int64
}

// MessageUpdate is the input to MessageManager.UpdateText.
type MessageUpdate struct {
	MessageText string
}

// MessageManager creates, reads, updates and deletes messages.
type MessageManager struct {
	store MessageStore
	now   func() time.Time
}

// NewMessageManager creates a MessageManager
func NewMessageManager(store MessageStore) *MessageManager {
	return &MessageManager{store: store, now: time.Now}
}

// Create validates the candidate and persists it. Checks run in order: blank
// text, text too long, unknown posting account. A zero TimePostedEpoch is
// stamped with the current time.
func (m *MessageManager) Create(ctx context.Context, candidate MessageCandidate) (*database.Message, error) {
	if err := checkMessageText(candidate.MessageText); err != nil {
		return nil, err
	}

	exists, err := m.store.AccountExists(ctx, candidate.PostedBy)
	if err != nil {
		return nil, unexpected("failed to check account", err)
	}
	if !exists {
		return nil, invalidMessage(MsgUnknownAccount)
	}

	msg := &database.Message{
		PostedBy:        candidate.PostedBy,
		Text:            candidate.MessageText,
		TimePostedEpoch: candidate.TimePostedEpoch,
	}
	if msg.TimePostedEpoch == 0 {
		msg.TimePostedEpoch = m.now().Unix()
	}

	if err := m.store.CreateMessage(ctx, msg); err != nil {
		return nil, unexpected("failed to create message", err)
	}

	log.Debug().Int64("message_id", msg.ID).Int64("posted_by", msg.PostedBy).Msg("Message created")
	return msg, nil
}

// List returns every stored message. The result is never nil.
func (m *MessageManager) List(ctx context.Context) ([]*database.Message, error) {
	messages, err := m.store.ListMessages(ctx)
	if err != nil {
		return nil, unexpected("failed to list messages", err)
	}
	if messages == nil {
		messages = []*database.Message{}
	}
	return messages, nil
}

// Get returns the message with the given ID, or nil when there is none.
func (m *MessageManager) Get(ctx context.Context, id int64) (*database.Message, error) {
	msg, err := m.store.GetMessage(ctx, id)
	if err != nil {
		return nil, unexpected("failed to get message", err)
	}
	return msg, nil
}

// Delete removes the message with the given ID and returns the number of
// messages removed: 1, or 0 when it did not exist.
func (m *MessageManager) Delete(ctx context.Context, id int64) (int64, error) {
	n, err := m.store.DeleteMessage(ctx, id)
	if err != nil {
		return 0, unexpected("failed to delete message", err)
	}
	if n > 0 {
		log.Debug().Int64("message_id", id).Msg("Message deleted")
	}
	return n, nil
}

// UpdateText replaces the text of an existing message and returns the number
// of messages changed. Checks run in order: message exists, blank text, text
// too long.
func (m *MessageManager) UpdateText(ctx context.Context, id int64, update MessageUpdate) (int64, error) {
	exists, err := m.store.MessageExists(ctx, id)
	if err != nil {
		return 0, unexpected("failed to check message", err)
	}
	if !exists {
		return 0, invalidMessage(MsgMessageNotExists)
	}

	if err := checkMessageText(update.MessageText); err != nil {
		return 0, err
	}

	n, err := m.store.UpdateMessageText(ctx, id, update.MessageText)
	if err != nil {
		return 0, unexpected("failed to update message", err)
	}
	if n == 0 {
		// Deleted between the existence check and the write
		return 0, invalidMessage(MsgMessageNotExists)
	}

	log.Debug().Int64("message_id", id).Msg("Message updated")
	return n, nil
}

// ListByAccount returns the messages posted by accountID. An unknown account
// yields an empty list.
func (m *MessageManager) ListByAccount(ctx context.Context, accountID int64) ([]*database.Message, error) {
	messages, err := m.store.ListMessagesByAccount(ctx, accountID)
	if err != nil {
		return nil, unexpected("failed to list account messages", err)
	}
	if messages == nil {
		messages = []*database.Message{}
	}
	return messages, nil
}
