package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

const userNotFoundMsg = "user not found"

// User is a row of the users table.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type Repository struct {
	q db.Querier
}

func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

const userColumns = `id, username, email, password_hash, role, created_at`

func scanUser(s db.Scanner) (User, error) {
	var (
		u     User
		email sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return User{}, err
	}
	u.Email = email.String
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// CreateUser inserts a user. A taken username is reported as a duplicate.
func (r *Repository) CreateUser(ctx context.Context, u User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, db.NullString(u.Email), u.PasswordHash, u.Role, u.CreatedAt.UTC(),
	)
	if db.IsUniqueViolation(err) {
		return apperr.Duplicate("username already taken")
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
	if db.IsNoRows(err) {
		return User{}, apperr.NotFound(userNotFoundMsg)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByUsername matches the username case-insensitively.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = ?`, strings.ToLower(username)))
	if db.IsNoRows(err) {
		return User{}, apperr.NotFound(userNotFoundMsg)
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
