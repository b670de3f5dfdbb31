// Package database owns the SQLite connection and the migration runner.
//
// The driver is modernc.org/sqlite (pure Go, no CGO). It registers itself
// under the name "sqlite" through a blank import.
package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"

	_ "modernc.org/sqlite"
)

var log = logger.Component("database")

// recoverableErrors are migration errors that are safe to skip when a
// half-applied migration is run again.
var recoverableErrors = []string{
	"duplicate column name",
}

// DB wraps the *sql.DB connection pool.
type DB struct {
	Conn *sql.DB
}

// DSN builds the connection string with the pragmas every connection needs.
// foreign_keys is off by default in SQLite; WAL lets readers run next to a
// writer; busy_timeout makes concurrent writers wait instead of failing.
func DSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// New opens the database at dbPath and applies pending migrations.
func New(dbPath string, migrationsFS fs.FS) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn}

	if err := db.runMigrations(migrationsFS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("connected and migrations applied")
	return db, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// runMigrations applies every *.sql file in migrationsFS that is not yet
// recorded in schema_migrations, in file name order (001_, 002_, ...).
func (db *DB) runMigrations(migrationsFS fs.FS) error {
	if _, err := db.Conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	applied, err := db.appliedMigrations()
	if err != nil {
		return err
	}

	// An existing install that predates schema_migrations: mark everything
	// as applied instead of replaying non-idempotent statements.
	if len(applied) == 0 {
		var tableCount int
		if err := db.Conn.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='users'",
		).Scan(&tableCount); err != nil {
			return fmt.Errorf("failed to check existing tables: %w", err)
		}

		if tableCount > 0 {
			for _, file := range sqlFiles {
				if _, err := db.Conn.Exec(
					"INSERT INTO schema_migrations (filename) VALUES (?)", file,
				); err != nil {
					return fmt.Errorf("failed to bootstrap migration %s: %w", file, err)
				}
			}
			log.Info().Int("count", len(sqlFiles)).Msg("bootstrapped existing migrations")
			return nil
		}
	}

	for _, file := range sqlFiles {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		if err := db.execStatements(file, string(content)); err != nil {
			return err
		}

		if _, err := db.Conn.Exec(
			"INSERT INTO schema_migrations (filename) VALUES (?)", file,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		log.Info().Str("file", file).Msg("migration applied")
	}

	return nil
}

func (db *DB) appliedMigrations() (map[string]bool, error) {
	applied := make(map[string]bool)
	rows, err := db.Conn.Query("SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migration rows: %w", err)
	}
	return applied, nil
}

// AppliedMigrations lists recorded migration files in order.
func (db *DB) AppliedMigrations() ([]string, error) {
	applied, err := db.appliedMigrations()
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(applied))
	for f := range applied {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// execStatements runs a migration one statement at a time so that
// recoverable errors can be skipped individually.
func (db *DB) execStatements(filename, content string) error {
	for i, stmt := range splitStatements(content) {
		if _, err := db.Conn.Exec(stmt); err != nil {
			errMsg := err.Error()
			recoverable := false
			for _, pattern := range recoverableErrors {
				if strings.Contains(errMsg, pattern) {
					recoverable = true
					break
				}
			}

			if recoverable {
				log.Warn().Str("file", filename).Int("statement", i+1).Str("reason", errMsg).
					Msg("statement skipped")
				continue
			}

			return fmt.Errorf("failed to execute migration %s (statement %d): %w", filename, i+1, err)
		}
	}

	return nil
}

// splitStatements splits SQL text on semicolons. Semicolons inside string
// literals, "--" line comments and CREATE TRIGGER ... BEGIN ... END bodies
// do not end a statement. Comment text is dropped.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			statements = append(statements, s)
		}
		current.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		if !inString && ch == '-' && i+1 < len(sql) && sql[i+1] == '-' {
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
			continue
		}

		if ch == '\'' {
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteString("''")
				i++
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			if inTriggerBody(current.String()) {
				current.WriteByte(ch)
				continue
			}
			flush()
			continue
		}

		current.WriteByte(ch)
	}

	flush()
	return statements
}

// inTriggerBody reports whether stmt is a CREATE TRIGGER whose END has not
// been reached yet.
func inTriggerBody(stmt string) bool {
	upper := strings.ToUpper(strings.TrimSpace(stmt))
	if !strings.HasPrefix(upper, "CREATE TRIGGER") && !strings.HasPrefix(upper, "CREATE TEMP TRIGGER") {
		return false
	}
	fields := strings.Fields(upper)
	return len(fields) == 0 || fields[len(fields)-1] != "END"
}
