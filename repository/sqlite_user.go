package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/database"
	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

type sqliteUserRepo struct {
	db database.TxQuerier
}

func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

const userColumns = `id, username, email, display_name, avatar_url, password_hash, role, is_verified, status, last_login_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.AvatarURL, &u.PasswordHash,
		&u.Role, &u.IsVerified, &u.Status, &u.LastLoginAt, &u.CreatedAt,
	)
	return u, err
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	if user.Status == "" {
		user.Status = models.UserStatusOffline
	}
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, display_name, avatar_url, password_hash, role, is_verified, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.DisplayName, user.AvatarURL, user.PasswordHash,
		user.Role, user.IsVerified, user.Status, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users.email") {
				return fmt.Errorf("%w: email already in use", pkg.ErrAlreadyExists)
			}
			return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *sqliteUserRepo) getOne(ctx context.Context, cond string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = ? COLLATE NOCASE", username)
}

func (r *sqliteUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ? COLLATE NOCASE", email)
}

func (r *sqliteUserRepo) List(ctx context.Context, params models.UserListParams) ([]models.User, int, error) {
	var w where
	if q := strings.TrimSpace(params.Query); q != "" {
		p := containsPattern(q)
		w.add(`(username LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\' OR display_name LIKE ? ESCAPE '\')`, p, p, p)
	}
	if params.Role != "" {
		w.add("role = ?", params.Role)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	args := append(w.args, params.Limit, params.Offset())
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users`+w.sql()+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, total, nil
}

func (r *sqliteUserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// exec runs an UPDATE that must touch exactly one user.
func (r *sqliteUserRepo) exec(ctx context.Context, what, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", what, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user not found", pkg.ErrNotFound)
	}
	return nil
}

func (r *sqliteUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	return r.exec(ctx, "profile",
		`UPDATE users SET display_name = ?, avatar_url = ? WHERE id = ?`,
		user.DisplayName, user.AvatarURL, user.ID)
}

func (r *sqliteUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.exec(ctx, "password", `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
}

func (r *sqliteUserRepo) UpdateRole(ctx context.Context, userID string, role models.Role) error {
	return r.exec(ctx, "role", `UPDATE users SET role = ? WHERE id = ?`, role, userID)
}

func (r *sqliteUserRepo) UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error {
	return r.exec(ctx, "status", `UPDATE users SET status = ? WHERE id = ?`, status, userID)
}

func (r *sqliteUserRepo) SetVerified(ctx context.Context, userID string, verified bool) error {
	return r.exec(ctx, "verification", `UPDATE users SET is_verified = ? WHERE id = ?`, verified, userID)
}

func (r *sqliteUserRepo) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	return r.exec(ctx, "last login", `UPDATE users SET last_login_at = ? WHERE id = ?`, at.UTC(), userID)
}

func (r *sqliteUserRepo) ResetAllStatuses(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET status = ? WHERE status != ?`,
		models.UserStatusOffline, models.UserStatusOffline); err != nil {
		return fmt.Errorf("failed to reset user statuses: %w", err)
	}
	return nil
}
