package social

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/smalltalk/internal/database"
)

// RegisterCandidate is the input to AccountManager.Register.
type RegisterCandidate struct {
	Username string
	Password string
}

// Credentials is the input to AccountManager.Authenticate.
type Credentials struct {
	Username string
	Password string
}

// AccountManager registers accounts and verifies credentials.
type AccountManager struct {
	store  AccountStore
	hasher PasswordHasher
}

// NewAccountManager creates an AccountManager. With a nil hasher passwords are
// stored and compared verbatim.
func NewAccountManager(store AccountStore, hasher PasswordHasher) *AccountManager {
	return &AccountManager{store: store, hasher: hasher}
}

// Register validates the candidate and persists it as a new account.
// Checks run in order: blank username, short password, taken username.
func (m *AccountManager) Register(ctx context.Context, candidate RegisterCandidate) (*database.Account, error) {
	if isBlank(candidate.Username) {
		return nil, ErrInvalidUsername
	}
	if passwordTooShort(candidate.Password) {
		return nil, ErrInvalidPassword
	}

	existing, err := m.store.GetAccountByUsername(ctx, candidate.Username)
	if err != nil {
		return nil, unexpected("failed to look up username", err)
	}
	if existing != nil {
		return nil, ErrDuplicateUsername
	}

	stored := candidate.Password
	if m.hasher != nil {
		if stored, err = m.hasher.Hash(candidate.Password); err != nil {
			return nil, unexpected("failed to hash password", err)
		}
	}

	account, err := m.store.CreateAccount(ctx, candidate.Username, stored)
	if errors.Is(err, database.ErrDuplicate) {
		// Lost a race with a concurrent registration of the same name
		return nil, ErrDuplicateUsername
	}
	if err != nil {
		return nil, unexpected("failed to create account", err)
	}

	log.Info().Int64("account_id", account.ID).Str("username", account.Username).Msg("Account registered")
	return account, nil
}

// Authenticate returns the account matching the credentials. Missing and wrong
// credentials both fail with ErrAuthenticationFailed.
func (m *AccountManager) Authenticate(ctx context.Context, creds Credentials) (*database.Account, error) {
	if isBlank(creds.Username) || isBlank(creds.Password) {
		return nil, ErrAuthenticationFailed
	}

	if m.hasher == nil {
		account, err := m.store.GetAccountByCredentials(ctx, creds.Username, creds.Password)
		if err != nil {
			return nil, unexpected("failed to look up credentials", err)
		}
		if account == nil {
			return nil, ErrAuthenticationFailed
		}
		return account, nil
	}

	account, err := m.store.GetAccountByUsername(ctx, creds.Username)
	if err != nil {
		return nil, unexpected("failed to look up username", err)
	}
	if account == nil || !m.hasher.Compare(account.Password, creds.Password) {
		return nil, ErrAuthenticationFailed
	}
	return account, nil
}
