//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
package social

import (
	"context"

	"github.com/saltyorg/smalltalk/internal/database"
)

// AccountStore is the persistence used by AccountManager.
// Lookups return (nil, nil) when no account matches.
type AccountStore interface {
	CreateAccount(ctx context.Context, username, password string) (*database.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*database.Account, error)
	GetAccountByCredentials(ctx context.Context, username, password string) (*database.Account, error)
}

// MessageStore is the persistence used by MessageManager.
// GetMessage returns (nil, nil) when no message matches.
type MessageStore interface {
	AccountExists(ctx context.Context, id int64) (bool, error)
	CreateMessage(ctx context.Context, msg *database.Message) error
	GetMessage(ctx context.Context, id int64) (*database.Message, error)
	MessageExists(ctx context.Context, id int64) (bool, error)
	ListMessages(ctx context.Context) ([]*database.Message, error)
	ListMessagesByAccount(ctx context.Context, accountID int64) ([]*database.Message, error)
	UpdateMessageText(ctx context.Context, id int64, text string) (int64, error)
	DeleteMessage(ctx context.Context, id int64) (int64, error)
}

// PasswordHasher turns passwords into their stored form and checks them later.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, password string) bool
}
