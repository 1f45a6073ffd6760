package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service contains business logic for host account management.
type Service struct {
	repo Repository
}

// NewService creates a new user Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new host account with a pre-hashed password.
func (s *Service) Create(ctx context.Context, email, passwordHash string, fullName *string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID returns a user by their UUID.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns a user by their email address.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// IsNotFound returns true when the error indicates a user was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
