package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

type sqliteChatRepo struct {
	db database.TxQuerier
}

func NewSQLiteChatRepo(db database.TxQuerier) ChatRepository {
	return &sqliteChatRepo{db: db}
}

const chatColumns = `m.seq, m.id, m.user_id, m.content, m.reply_to_id, m.created_at, m.deleted_at, ` + authorColumns

const chatFrom = ` FROM chat_messages m JOIN users u ON u.id = m.user_id`

func scanChatMessage(row rowScanner) (*models.ChatMessage, error) {
	m := &models.ChatMessage{Author: &models.Author{}}
	err := row.Scan(
		&m.Seq, &m.ID, &m.UserID, &m.Content, &m.ReplyToID, &m.CreatedAt, &m.DeletedAt,
		&m.Author.ID, &m.Author.Username, &m.Author.DisplayName, &m.Author.AvatarURL,
		&m.Author.Role, &m.Author.IsVerified,
	)
	if err != nil {
		return nil, err
	}
	if m.DeletedAt != nil {
		m.Content = ""
	}
	return m, nil
}

func (r *sqliteChatRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = newID()
	msg.CreatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, user_id, content, reply_to_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.UserID, msg.Content, msg.ReplyToID, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read chat message seq: %w", err)
	}
	msg.Seq = seq
	return nil
}

func (r *sqliteChatRepo) GetByID(ctx context.Context, id string) (*models.ChatMessage, error) {
	m, err := scanChatMessage(r.db.QueryRowContext(ctx, `SELECT `+chatColumns+chatFrom+` WHERE m.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat message: %w", err)
	}
	return m, nil
}

func (r *sqliteChatRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE chat_messages SET deleted_at = ?, content = '' WHERE id = ? AND deleted_at IS NULL`,
		at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete chat message: %w", err)
	}
	return requireOne(result, "message")
}

// List fetches Limit+1 rows to learn whether another page exists.
func (r *sqliteChatRepo) List(ctx context.Context, p models.ChatPollParams) ([]models.ChatMessage, bool, error) {
	var (
		query string
		args  []any
		desc  bool
	)
	switch {
	case p.After > 0:
		query = `SELECT ` + chatColumns + chatFrom + ` WHERE m.seq > ? ORDER BY m.seq ASC LIMIT ?`
		args = []any{p.After, p.Limit + 1}
	case p.Before > 0:
		query = `SELECT ` + chatColumns + chatFrom + ` WHERE m.seq < ? ORDER BY m.seq DESC LIMIT ?`
		args = []any{p.Before, p.Limit + 1}
		desc = true
	default:
		query = `SELECT ` + chatColumns + chatFrom + ` ORDER BY m.seq DESC LIMIT ?`
		args = []any{p.Limit + 1}
		desc = true
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0, p.Limit+1)
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("error iterating chat rows: %w", err)
	}

	hasMore := len(messages) > p.Limit
	if hasMore {
		messages = messages[:p.Limit]
	}
	if desc {
		slices.Reverse(messages)
	}
	return messages, hasMore, nil
}

func (r *sqliteChatRepo) LatestSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM chat_messages`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to get latest chat seq: %w", err)
	}
	return seq, nil
}

func (r *sqliteChatRepo) DeletedSince(ctx context.Context, after int64, limit int) ([]string, int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, message_id FROM chat_deletions WHERE seq > ? ORDER BY seq ASC LIMIT ?`,
		after, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list chat deletions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	cursor := after
	for rows.Next() {
		var id string
		if err := rows.Scan(&cursor, &id); err != nil {
			return nil, 0, fmt.Errorf("failed to scan chat deletion: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating chat deletions: %w", err)
	}
	return ids, cursor, nil
}

func (r *sqliteChatRepo) LatestDeletionSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM chat_deletions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to get latest chat deletion seq: %w", err)
	}
	return seq, nil
}

func (r *sqliteChatRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chat messages: %w", err)
	}
	return n, nil
}
