package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"), MigrationsFS())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// =============================================================================
// splitStatements
// =============================================================================

func TestSplitStatements(t *testing.T) {
	t.Run("plain statements", func(t *testing.T) {
		got := splitStatements("CREATE TABLE a (x INT);\nCREATE TABLE b (y INT);")
		assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE TABLE b (y INT)"}, got)
	})

	t.Run("semicolon inside string literal", func(t *testing.T) {
		got := splitStatements("INSERT INTO t VALUES ('a;b');INSERT INTO t VALUES ('it''s')")
		assert.Equal(t, []string{"INSERT INTO t VALUES ('a;b')", "INSERT INTO t VALUES ('it''s')"}, got)
	})

	t.Run("line comments are dropped", func(t *testing.T) {
		got := splitStatements("-- header; with semicolon\nSELECT 1; -- trailing\n")
		require.Len(t, got, 1)
		assert.Equal(t, "SELECT 1", got[0])
	})

	t.Run("trigger body is kept whole", func(t *testing.T) {
		src := `CREATE TRIGGER t1 AFTER INSERT ON a BEGIN
    INSERT INTO b VALUES (new.x);
    INSERT INTO c VALUES (new.x);
END;
SELECT 1;`
		got := splitStatements(src)
		require.Len(t, got, 2)
		assert.Contains(t, got[0], "INSERT INTO c VALUES (new.x);\nEND")
		assert.Equal(t, "SELECT 1", got[1])
	})

	t.Run("missing trailing semicolon", func(t *testing.T) {
		assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, splitStatements("SELECT 1;SELECT 2"))
	})
}

// =============================================================================
// Migrations
// =============================================================================

func TestNew_AppliesEmbeddedMigrations(t *testing.T) {
	db := openTestDB(t)

	files, err := db.AppliedMigrations()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_marketplace.sql", "003_community.sql", "004_chat_deletions.sql"}, files)

	for _, table := range []string{"users", "sessions", "entities", "offers", "offers_fts", "reviews", "chat_messages", "verification_requests"} {
		var n int
		err := db.Conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = ?", table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s", table)
	}
}

func TestNew_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	db, err := New(path, MigrationsFS())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(path, MigrationsFS())
	require.NoError(t, err)
	defer db.Close()

	files, err := db.AppliedMigrations()
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestRunMigrations_SkipsRecoverableErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE users (id TEXT PRIMARY KEY);")},
		"002_b.sql": {Data: []byte("ALTER TABLE users ADD COLUMN name TEXT;ALTER TABLE users ADD COLUMN name TEXT;")},
	}
	db, err := New(filepath.Join(t.TempDir(), "rec.db"), fsys)
	require.NoError(t, err)
	defer db.Close()

	files, err := db.AppliedMigrations()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)
}

func TestOffersFTSTriggers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Conn.ExecContext(ctx, `INSERT INTO users (id, username, email, password_hash) VALUES ('u1','ann','ann@x.io','h')`)
	require.NoError(t, err)
	_, err = db.Conn.ExecContext(ctx, `INSERT INTO entities (id, owner_id, name, type) VALUES ('e1','u1','Acme','advertiser')`)
	require.NoError(t, err)
	_, err = db.Conn.ExecContext(ctx, `INSERT INTO offers (id, entity_id, created_by, title, payout_model) VALUES ('o1','e1','u1','Crypto wallet installs','CPI')`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM offers_fts WHERE offers_fts MATCH '"wallet"*'`).Scan(&n))
	assert.Equal(t, 1, n)

	_, err = db.Conn.ExecContext(ctx, `UPDATE offers SET title = 'Finance leads' WHERE id = 'o1'`)
	require.NoError(t, err)
	require.NoError(t, db.Conn.QueryRow(`SELECT COUNT(*) FROM offers_fts WHERE offers_fts MATCH '"wallet"*'`).Scan(&n))
	assert.Equal(t, 0, n)
}

// =============================================================================
// WithTx
// =============================================================================

func TestWithTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	insert := func(tx *sql.Tx, id string) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, 'h')`, id, id, id+"@x.io")
		return err
	}

	t.Run("commit", func(t *testing.T) {
		err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error { return insert(tx, "a") })
		require.NoError(t, err)

		var n int
		require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM users WHERE id='a'").Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			if err := insert(tx, "b"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var n int
		require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM users WHERE id='b'").Scan(&n))
		assert.Zero(t, n)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
				_ = insert(tx, "c")
				panic("boom")
			})
		})

		var n int
		require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM users WHERE id='c'").Scan(&n))
		assert.Zero(t, n)
	})
}
