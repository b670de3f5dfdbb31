// Package repository is the data access layer. Each aggregate has an
// interface (xxx_repository.go) and a SQLite implementation (sqlite_xxx.go);
// services only see the interfaces.
//
// Implementations take a database.TxQuerier so the same code runs on the
// pool or inside database.WithTx.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// newID returns a fresh primary key.
func newID() string {
	return uuid.NewString()
}

func isUniqueViolation(err error) bool {
	return err != nil && !errors.Is(err, sql.ErrNoRows) &&
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// joinTags stores a tag list as ",a,b," so one tag matches LIKE '%,a,%'.
func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "," + strings.Join(tags, ",") + ","
}

func splitTags(s string) []string {
	s = strings.Trim(s, ",")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// tagPattern is the LIKE pattern matching one stored tag.
func tagPattern(tag string) string {
	return "%," + escapeLike(tag) + ",%"
}

// containsPattern is a LIKE pattern for a substring search. Use with ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// sanitizeFTSQuery turns user input into an FTS5 query of quoted prefix
// terms: `wallet inst` -> `"wallet"* "inst"*`. Quotes and stars are removed
// so the input cannot inject FTS5 syntax. Terms are ANDed.
func sanitizeFTSQuery(query string) string {
	var safe []string
	for _, w := range strings.Fields(query) {
		cleaned := strings.ReplaceAll(w, `"`, "")
		cleaned = strings.ReplaceAll(cleaned, "*", "")
		if cleaned == "" {
			continue
		}
		safe = append(safe, `"`+cleaned+`"*`)
	}
	return strings.Join(safe, " ")
}

// where accumulates SQL conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// authorColumns selects the public author fields from alias u.
const authorColumns = `u.id, u.username, u.display_name, u.avatar_url, u.role, u.is_verified`
