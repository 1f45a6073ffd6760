// Package user manages host accounts and their persistence.
package user

import (
	"context"
	"errors"
	"time"
)

// User represents a registered host account. Guests never have accounts;
// they hold space access tokens instead.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     *string   `json:"fullName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrAlreadyExists is returned when an email is already registered.
var ErrAlreadyExists = errors.New("user already exists")

// Repository is the persistence interface for users. Two implementations
// exist: PostgresRepository (remote, shared) and SQLiteRepository (local
// file); one is selected at composition time.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
