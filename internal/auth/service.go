// Package auth implements host registration and login with email and password.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/homeguide/service/internal/config"
	"github.com/homeguide/service/internal/user"
)

const tokenTTL = 7 * 24 * time.Hour

// ErrInvalidCredentials is returned for an unknown email or wrong password.
// One error for both: login failures must not reveal whether the email exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken is returned when registering an already-registered email.
var ErrEmailTaken = errors.New("email already registered")

// Service contains the business logic for host authentication.
type Service struct {
	userSvc *user.Service
	cfg     *config.Config
}

// NewService creates a new auth Service.
func NewService(userSvc *user.Service, cfg *config.Config) *Service {
	return &Service{userSvc: userSvc, cfg: cfg}
}

// Register creates a new host account and issues a JWT.
func (s *Service) Register(ctx context.Context, email, password string, fullName *string) (string, *user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.userSvc.Create(ctx, email, string(hash), fullName)
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return "", nil, ErrEmailTaken
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(u.ID, u.Email)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// Login validates credentials and issues a JWT.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.userSvc.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(u.ID, u.Email)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// issueToken signs a JWT with the owner's ID and email.
func (s *Service) issueToken(userID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
