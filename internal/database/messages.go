package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Message represents a posted message stored in the database.
type Message struct {
	ID              int64
	PostedBy        int64
	Text            string
	TimePostedEpoch int64
}

const messageColumns = "message_id, posted_by, message_text, time_posted_epoch"

func scanMessage(row rowScanner) (*Message, error) {
	msg := &Message{}
	if err := row.Scan(&msg.ID, &msg.PostedBy, &msg.Text, &msg.TimePostedEpoch); err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateMessage inserts a new message and fills in its ID.
func (db *DB) CreateMessage(ctx context.Context, msg *Message) error {
	now := time.Now()
	result, err := db.exec(ctx, `
		INSERT INTO messages (posted_by, message_text, time_posted_epoch, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.PostedBy, msg.Text, msg.TimePostedEpoch, now, now)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get message id: %w", err)
	}
	msg.ID = id

	return nil
}

// GetMessage retrieves a message by ID. A missing message is (nil, nil).
func (db *DB) GetMessage(ctx context.Context, id int64) (*Message, error) {
	msg, err := scanMessage(db.queryRow(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE message_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// MessageExists reports whether a message with the given ID exists.
func (db *DB) MessageExists(ctx context.Context, id int64) (bool, error) {
	exists, err := db.existsQuery(ctx, "SELECT EXISTS(SELECT 1 FROM messages WHERE message_id = ?)", id)
	if err != nil {
		return false, fmt.Errorf("failed to check message: %w", err)
	}
	return exists, nil
}

// ListMessages returns every message ordered by ID.
func (db *DB) ListMessages(ctx context.Context) ([]*Message, error) {
	return db.listMessages(ctx, "SELECT "+messageColumns+" FROM messages ORDER BY message_id")
}

// ListMessagesByAccount returns the messages posted by an account ordered by ID.
func (db *DB) ListMessagesByAccount(ctx context.Context, accountID int64) ([]*Message, error) {
	return db.listMessages(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE posted_by = ? ORDER BY message_id", accountID)
}

func (db *DB) listMessages(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// UpdateMessageText replaces the text of a message and returns the number of rows changed.
func (db *DB) UpdateMessageText(ctx context.Context, id int64, text string) (int64, error) {
	result, err := db.exec(ctx, `
		UPDATE messages SET message_text = ?, updated_at = ? WHERE message_id = ?
	`, text, time.Now(), id)
	if err != nil {
		return 0, fmt.Errorf("failed to update message: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// DeleteMessage removes a message by ID and returns the number of rows removed.
func (db *DB) DeleteMessage(ctx context.Context, id int64) (int64, error) {
	result, err := db.exec(ctx, "DELETE FROM messages WHERE message_id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete message: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}
