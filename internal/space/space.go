// Package space manages property guides ("spaces") and their markdown pages.
//
// A space belongs to one host and carries an opaque access token that is the
// sole credential for public read access. Pages belong to exactly one space
// and are deleted with it.
package space

import (
	"context"
	"errors"
	"time"
)

// Space is a host's property guide.
type Space struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address,omitempty"`
	Contact     string    `json:"contact,omitempty"`
	AccessToken string    `json:"accessToken"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Page is one markdown document belonging to a space. SortOrder defines
// display order within the space; values need not be contiguous.
type Page struct {
	ID        string    `json:"id"`
	SpaceID   string    `json:"spaceId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ErrSpaceNotFound is returned when a space does not exist or is not
// visible to the caller. Ownership violations surface as this same error:
// the API never reveals whether a space exists to a non-owner.
var ErrSpaceNotFound = errors.New("space not found")

// ErrPageNotFound is returned when a page does not exist in the given space.
var ErrPageNotFound = errors.New("page not found")

// Repository is the persistence interface for spaces and pages. It covers
// the full capability set {create, read, update, delete, list-by-owner,
// find-by-token}; PostgresRepository and SQLiteRepository implement it and
// one is selected at composition time.
type Repository interface {
	// CreateSpace inserts a space together with its initial pages in a
	// single atomic write. On failure nothing is persisted.
	CreateSpace(ctx context.Context, s *Space, pages []Page) error
	GetSpace(ctx context.Context, id string) (*Space, error)
	GetSpaceByToken(ctx context.Context, accessToken string) (*Space, error)
	ListSpacesByOwner(ctx context.Context, userID string) ([]Space, error)
	UpdateSpace(ctx context.Context, s *Space) error
	// DeleteSpace removes the space and cascades to all of its pages.
	DeleteSpace(ctx context.Context, id string) error

	CreatePage(ctx context.Context, p *Page) error
	GetPage(ctx context.Context, id string) (*Page, error)
	ListPagesBySpace(ctx context.Context, spaceID string) ([]Page, error)
	UpdatePage(ctx context.Context, p *Page) error
	DeletePage(ctx context.Context, id string) error
}
