package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Account represents a registered account stored in the database.
type Account struct {
	ID        int64
	Username  string
	Password  string
	CreatedAt time.Time
}

const accountColumns = "account_id, username, password, created_at"

func scanAccount(row rowScanner) (*Account, error) {
	account := &Account{}
	if err := row.Scan(&account.ID, &account.Username, &account.Password, &account.CreatedAt); err != nil {
		return nil, err
	}
	return account, nil
}

// CreateAccount inserts a new account record. It returns ErrDuplicate when the
// username is already taken.
func (db *DB) CreateAccount(ctx context.Context, username, password string) (*Account, error) {
	now := time.Now()
	result, err := db.exec(ctx, `
		INSERT INTO accounts (username, password, created_at)
		VALUES (?, ?, ?)
	`, username, password, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username %q: %w", username, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get account id: %w", err)
	}

	return &Account{
		ID:        id,
		Username:  username,
		Password:  password,
		CreatedAt: now,
	}, nil
}

// GetAccountByUsername retrieves an account by username. A missing account is (nil, nil).
func (db *DB) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	account, err := scanAccount(db.queryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE username = ?", username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetAccountByCredentials retrieves the account whose username and password both
// match exactly. A missing account is (nil, nil).
func (db *DB) GetAccountByCredentials(ctx context.Context, username, password string) (*Account, error) {
	account, err := scanAccount(db.queryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE username = ? AND password = ?", username, password))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetAccountByID retrieves an account by ID. A missing account is (nil, nil).
func (db *DB) GetAccountByID(ctx context.Context, id int64) (*Account, error) {
	account, err := scanAccount(db.queryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE account_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// AccountExists reports whether an account with the given ID exists.
func (db *DB) AccountExists(ctx context.Context, id int64) (bool, error) {
	exists, err := db.existsQuery(ctx, "SELECT EXISTS(SELECT 1 FROM accounts WHERE account_id = ?)", id)
	if err != nil {
		return false, fmt.Errorf("failed to check account: %w", err)
	}
	return exists, nil
}

// CountAccounts returns the number of registered accounts.
func (db *DB) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	if err := db.queryRow(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}
