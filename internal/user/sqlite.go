package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLiteRepository handles user persistence against the local SQLite store.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLiteRepository over an opened SQLite handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new user record.
func (r *SQLiteRepository) Create(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FullName,
		u.CreatedAt.UTC().UnixMilli(), u.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID fetches a user by their UUID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.get(ctx,
		`SELECT id, email, password_hash, full_name, created_at, updated_at
		 FROM users WHERE id = ?`, id)
}

// GetByEmail fetches a user by their email address.
func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.get(ctx,
		`SELECT id, email, password_hash, full_name, created_at, updated_at
		 FROM users WHERE email = ?`, email)
}

func (r *SQLiteRepository) get(ctx context.Context, query string, arg interface{}) (*User, error) {
	u := &User{}
	var createdAt, updatedAt int64
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	u.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return u, nil
}

// isSQLiteUniqueViolation checks for a UNIQUE constraint failure.
func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
