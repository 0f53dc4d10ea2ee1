package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open db")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()), "failed to migrate")
	return db
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Migrate(context.Background()))

	var version int
	require.NoError(t, db.queryRow(context.Background(), "SELECT MAX(version) FROM schema_migrations").Scan(&version))
	require.Equal(t, len(migrations), version)
}

func TestCreateAccount_AssignsIDAndRejectsDuplicates(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)

	first, err := db.CreateAccount(ctx, "alice", "pass1")
	req.NoError(err)
	req.Equal(int64(1), first.ID)

	second, err := db.CreateAccount(ctx, "bob", "pass2")
	req.NoError(err)
	req.Equal(int64(2), second.ID)

	_, err = db.CreateAccount(ctx, "alice", "other")
	req.Error(err)
	req.True(errors.Is(err, ErrDuplicate), "expected ErrDuplicate, got %v", err)

	count, err := db.CountAccounts(ctx)
	req.NoError(err)
	req.Equal(int64(2), count)
}

func TestAccountLookups(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := openTestDB(t)

	created, err := db.CreateAccount(ctx, "alice", "pass1")
	req.NoError(err)

	byName, err := db.GetAccountByUsername(ctx, "alice")
	req.NoError(err)
	req.NotNil(byName)
	req.Equal(created.ID, byName.ID)

	missing, err := db.GetAccountByUsername(ctx, "nobody")
	req.NoError(err)
	req.Nil(missing)

	match, err := db.GetAccountByCredentials(ctx, "alice", "pass1")
	req.NoError(err)
	req.NotNil(match)
	req.Equal("alice", match.Username)

	wrong, err := db.GetAccountByCredentials(ctx, "alice", "PASS1")
	req.NoError(err)
	req.Nil(wrong)

	byID, err := db.GetAccountByID(ctx, created.ID)
	req.NoError(err)
	req.Equal("pass1", byID.Password)

	exists, err := db.AccountExists(ctx, created.ID)
	req.NoError(err)
	req.True(exists)

	exists, err = db.AccountExists(ctx, 99)
	req.NoError(err)
	req.False(exists)
}

func TestSettings_RoundTrip(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	val, err := db.GetSetting("log.max_size_mb")
	req.NoError(err)
	req.Empty(val)

	req.NoError(db.SetSetting("log.max_size_mb", "10"))
	req.NoError(db.SetSetting("log.max_size_mb", "20"))

	val, err = db.GetSetting("log.max_size_mb")
	req.NoError(err)
	req.Equal("20", val)

	all, err := db.GetAllSettings()
	req.NoError(err)
	req.Equal(map[string]string{"log.max_size_mb": "20"}, all)

	req.NoError(db.DeleteSetting("log.max_size_mb"))
	val, err = db.GetSetting("log.max_size_mb")
	req.NoError(err)
	req.Empty(val)
}

func TestMaintenance(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Optimize(context.Background()))
	require.NoError(t, db.Vacuum(context.Background()))
}

func TestSplitSQLStatements(t *testing.T) {
	stmts := splitSQLStatements(`
		-- comment
		CREATE TABLE a (id INTEGER);

		CREATE TABLE b (
			id INTEGER
		);
		CREATE INDEX idx ON b(id)
	`)
	require.Len(t, stmts, 3)
	require.Equal(t, "CREATE INDEX idx ON b(id)", stmts[2])
}
