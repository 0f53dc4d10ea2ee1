package social_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/saltyorg/smalltalk/internal/database"
	"github.com/saltyorg/smalltalk/internal/social"
	"github.com/saltyorg/smalltalk/internal/social/mocks"
)

func TestAccountManager_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("should register and return the assigned id", func(t *testing.T) {
		req := require.New(t)
		store := mocks.NewMockAccountStore(gomock.NewController(t))
		mgr := social.NewAccountManager(store, nil)

		gomock.InOrder(
			store.EXPECT().GetAccountByUsername(ctx, "alice").Return(nil, nil),
			store.EXPECT().CreateAccount(ctx, "alice", "pass1").
				Return(&database.Account{ID: 1, Username: "alice", Password: "pass1"}, nil),
		)

		account, err := mgr.Register(ctx, social.RegisterCandidate{Username: "alice", Password: "pass1"})

		req.NoError(err)
		req.Equal(int64(1), account.ID)
		req.Equal("alice", account.Username)
	})

	t.Run("should reject blank usernames regardless of password", func(t *testing.T) {
		for _, username := range []string{"", " ", "\t", "  \n  "} {
			for _, password := range []string{"", "ab", "longenough"} {
				store := mocks.NewMockAccountStore(gomock.NewController(t))
				mgr := social.NewAccountManager(store, nil)

				// Repository should never be called
				_, err := mgr.Register(ctx, social.RegisterCandidate{Username: username, Password: password})

				require.ErrorIs(t, err, social.ErrInvalidUsername, "username %q password %q", username, password)
			}
		}
	})

	t.Run("should reject passwords shorter than four characters", func(t *testing.T) {
		for _, password := range []string{"", "a", "ab", "abc"} {
			store := mocks.NewMockAccountStore(gomock.NewController(t))
			mgr := social.NewAccountManager(store, nil)

			_, err := mgr.Register(ctx, social.RegisterCandidate{Username: "alice", Password: password})

			require.ErrorIs(t, err, social.ErrInvalidPassword, "password %q", password)
			require.Equal(t, social.KindInvalidPassword, social.KindOf(err))
		}
	})

	t.Run("should accept a four character password", func(t *testing.T) {
		store := mocks.NewMockAccountStore(gomock.NewController(t))
		mgr := social.NewAccountManager(store, nil)

		store.EXPECT().GetAccountByUsername(ctx, "alice").Return(nil, nil)
		store.EXPECT().CreateAccount(ctx, "alice", "abcd").Return(&database.Account{ID: 3, Username: "alice"}, nil)

		_, err := mgr.Register(ctx, social.RegisterCandidate{Username: "alice", Password: "abcd"})
		require.NoError(t, err)
	})

	t.Run("should reject a taken username without writing", func(t *testing.T) {
		store := mocks.NewMockAccountStore(gomock.NewController(t))
		mgr := social.NewAccountManager(store, nil)

		store.EXPECT().GetAccountByUsername(ctx, "alice").Return(&database.Account{ID: 1, Username: "alice"}, nil)
		store.EXPECT().CreateAccount(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := mgr.Register(ctx, social.RegisterCandidate{Username: "alice", Password: "other"})

		require.ErrorIs(t, err, social.ErrDuplicateUsername)
	})

	t.Run("should map a storage uniqueness violation to a duplicate username", func(t *testing.T) {
		store := mocks.NewMockAccountStore(gomock.NewController(t))
		mgr := social.NewAccountManager(store, nil)

		store.EXPECT().GetAccountByUsername(ctx, "alice").Return(nil, nil)
		store.EXPECT().CreateAccount(ctx, "alice", "pass1").
			Return(nil, errors.Join(errors.New("username \"alice\""), database.ErrDuplicate))

		_, err := mgr.Register(ctx, social.RegisterCandidate{Username: "alice", Password: "pass1"})

		require.ErrorIs(t, err, social.ErrDuplicateUsername)
	})

	t.Run("should report storage failures as unexpected", func(t *testing.T) {
		store := mocks.NewMockAccountStore(gomock.NewController(t))
		mgr := social.NewAccountManager(store, nil)
		boom := errors.New("disk I/O error")

		store.EXPECT().GetAccountByUsername(ctx, "alice").Return(nil, boom)

		_, err := mgr.Register(ctx, social.RegisterCandidate{Username: "alice", Password: "pass1"})

		require.ErrorIs(t, err, social.ErrUnexpected)
		require.ErrorIs(t, err, boom)
	})

	t.Run("should store the hashed password when a hasher is set", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockAccountStore(ctrl)
		hasher := mocks.NewMockPasswordHasher(ctrl)
		mgr := social.NewAccountManager(store, hasher)

		store.EXPECT().GetAccountByUsername(ctx, "alice").Return(nil, nil)
		hasher.EXPECT().Hash("pass1").Return("hashed", nil)
		store.EXPECT().CreateAccount(ctx, "alice", "hashed").
			Return(&database.Account{ID: 1, Username: "alice", Password: "hashed"}, nil)

		account, err := mgr.Register(ctx, social.RegisterCandidate{Username: "alice", Password: "pass1"})

		require.NoError(t, err)
		require.Equal(t, "hashed", account.Password)
	})
}

func TestAccountManager_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the matching account", func(t *testing.T) {
		store := mocks.NewMockAccountStore(gomock.NewController(t))
		mgr := social.NewAccountManager(store, nil)
		stored := &database.Account{ID: 1, Username: "alice", Password: "pass1"}

		store.EXPECT().GetAccountByCredentials(ctx, "alice", "pass1").Return(stored, nil)

		account, err := mgr.Authenticate(ctx, social.Credentials{Username: "alice", Password: "pass1"})

		require.NoError(t, err)
		require.Equal(t, stored, account)
	})

	t.Run("should fail when nothing matches", func(t *testing.T) {
		store := mocks.NewMockAccountStore(gomock.NewController(t))
		mgr := social.NewAccountManager(store, nil)

		store.EXPECT().GetAccountByCredentials(ctx, "alice", "wrong").Return(nil, nil)

		_, err := mgr.Authenticate(ctx, social.Credentials{Username: "alice", Password: "wrong"})

		require.ErrorIs(t, err, social.ErrAuthenticationFailed)
	})

	t.Run("should fail on blank credentials without a lookup", func(t *testing.T) {
		cases := []social.Credentials{
			{Username: "", Password: "pass1"},
			{Username: "alice", Password: ""},
			{Username: "  ", Password: "pass1"},
			{Username: "alice", Password: "\t"},
		}
		for _, creds := range cases {
			store := mocks.NewMockAccountStore(gomock.NewController(t))
			mgr := social.NewAccountManager(store, nil)

			_, err := mgr.Authenticate(ctx, creds)

			require.ErrorIs(t, err, social.ErrAuthenticationFailed)
		}
	})

	t.Run("should compare through the hasher when one is set", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockAccountStore(ctrl)
		hasher := mocks.NewMockPasswordHasher(ctrl)
		mgr := social.NewAccountManager(store, hasher)
		stored := &database.Account{ID: 1, Username: "alice", Password: "hashed"}

		store.EXPECT().GetAccountByUsername(ctx, "alice").Return(stored, nil).Times(2)
		hasher.EXPECT().Compare("hashed", "pass1").Return(true)
		hasher.EXPECT().Compare("hashed", "wrong").Return(false)

		account, err := mgr.Authenticate(ctx, social.Credentials{Username: "alice", Password: "pass1"})
		require.NoError(t, err)
		require.Equal(t, int64(1), account.ID)

		_, err = mgr.Authenticate(ctx, social.Credentials{Username: "alice", Password: "wrong"})
		require.ErrorIs(t, err, social.ErrAuthenticationFailed)
	})

	t.Run("should report storage failures as unexpected", func(t *testing.T) {
		store := mocks.NewMockAccountStore(gomock.NewController(t))
		mgr := social.NewAccountManager(store, nil)

		store.EXPECT().GetAccountByCredentials(ctx, "alice", "pass1").Return(nil, errors.New("closed"))

		_, err := mgr.Authenticate(ctx, social.Credentials{Username: "alice", Password: "pass1"})

		require.Equal(t, social.KindUnexpected, social.KindOf(err))
	})
}
