package space

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// welcomeTitle and welcomeContent seed the page every new space starts with.
const welcomeTitle = "Welcome"

const welcomeContent = `# Welcome to your guide

This is your first page. Edit it to greet your guests, or add more pages
for check-in instructions, house rules, wifi details, and local tips.
`

// SpaceUpdate carries a partial update; nil fields are left unchanged.
type SpaceUpdate struct {
	Name        *string
	Description *string
	Address     *string
	Contact     *string
}

// PageUpdate carries a partial update; nil fields are left unchanged.
type PageUpdate struct {
	Title     *string
	Content   *string
	SortOrder *int
}

// Service contains business logic for spaces and pages. Every operation
// that names an owner verifies ownership before touching anything; a
// non-owner sees not-found, never forbidden.
type Service struct {
	repo Repository
}

// NewService creates a new space Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create mints an access token, builds the space and its welcome page, and
// persists both atomically.
func (s *Service) Create(ctx context.Context, userID, name, description, address, contact string) (*Space, error) {
	token, err := generateAccessToken()
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	now := time.Now().UTC()
	sp := &Space{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Address:     address,
		Contact:     contact,
		AccessToken: token,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	welcome := Page{
		ID:        uuid.NewString(),
		SpaceID:   sp.ID,
		Title:     welcomeTitle,
		Content:   welcomeContent,
		SortOrder: 0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateSpace(ctx, sp, []Page{welcome}); err != nil {
		return nil, fmt.Errorf("create space: %w", err)
	}
	return sp, nil
}

// List returns all spaces of the given owner.
func (s *Service) List(ctx context.Context, userID string) ([]Space, error) {
	return s.repo.ListSpacesByOwner(ctx, userID)
}

// Get returns one space, scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, spaceID string) (*Space, error) {
	return s.getOwned(ctx, userID, spaceID)
}

// Update applies a partial update to an owned space. On any failure the
// stored record is left untouched.
func (s *Service) Update(ctx context.Context, userID, spaceID string, upd SpaceUpdate) (*Space, error) {
	sp, err := s.getOwned(ctx, userID, spaceID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		sp.Name = *upd.Name
	}
	if upd.Description != nil {
		sp.Description = *upd.Description
	}
	if upd.Address != nil {
		sp.Address = *upd.Address
	}
	if upd.Contact != nil {
		sp.Contact = *upd.Contact
	}
	sp.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateSpace(ctx, sp); err != nil {
		return nil, fmt.Errorf("update space: %w", err)
	}
	return sp, nil
}

// Delete removes an owned space and, by cascade, all of its pages.
func (s *Service) Delete(ctx context.Context, userID, spaceID string) error {
	if _, err := s.getOwned(ctx, userID, spaceID); err != nil {
		return err
	}
	if err := s.repo.DeleteSpace(ctx, spaceID); err != nil {
		return fmt.Errorf("delete space: %w", err)
	}
	return nil
}

// GetByToken resolves a space and its ordered pages from a public access
// token. Callers must map every failure to one generic response: "unknown
// token" and "malformed token" are indistinguishable to guests.
func (s *Service) GetByToken(ctx context.Context, accessToken string) (*Space, []Page, error) {
	if accessToken == "" {
		return nil, nil, ErrSpaceNotFound
	}
	sp, err := s.repo.GetSpaceByToken(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}
	pages, err := s.repo.ListPagesBySpace(ctx, sp.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list pages: %w", err)
	}
	return sp, pages, nil
}

// CreatePage appends a page to an owned space, after the existing pages.
func (s *Service) CreatePage(ctx context.Context, userID, spaceID, title, content string) (*Page, error) {
	if _, err := s.getOwned(ctx, userID, spaceID); err != nil {
		return nil, err
	}

	existing, err := s.repo.ListPagesBySpace(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	sortOrder := 0
	for _, p := range existing {
		if p.SortOrder >= sortOrder {
			sortOrder = p.SortOrder + 1
		}
	}

	now := time.Now().UTC()
	p := &Page{
		ID:        uuid.NewString(),
		SpaceID:   spaceID,
		Title:     title,
		Content:   content,
		SortOrder: sortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreatePage(ctx, p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return p, nil
}

// GetPage returns one page of an owned space.
func (s *Service) GetPage(ctx context.Context, userID, spaceID, pageID string) (*Page, error) {
	if _, err := s.getOwned(ctx, userID, spaceID); err != nil {
		return nil, err
	}
	return s.getSpacePage(ctx, spaceID, pageID)
}

// ListPages returns the ordered pages of an owned space.
func (s *Service) ListPages(ctx context.Context, userID, spaceID string) ([]Page, error) {
	if _, err := s.getOwned(ctx, userID, spaceID); err != nil {
		return nil, err
	}
	return s.repo.ListPagesBySpace(ctx, spaceID)
}

// UpdatePage applies a partial update to a page of an owned space.
func (s *Service) UpdatePage(ctx context.Context, userID, spaceID, pageID string, upd PageUpdate) (*Page, error) {
	if _, err := s.getOwned(ctx, userID, spaceID); err != nil {
		return nil, err
	}
	p, err := s.getSpacePage(ctx, spaceID, pageID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Content != nil {
		p.Content = *upd.Content
	}
	if upd.SortOrder != nil {
		p.SortOrder = *upd.SortOrder
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdatePage(ctx, p); err != nil {
		return nil, fmt.Errorf("update page: %w", err)
	}
	return p, nil
}

// DeletePage removes one page of an owned space.
func (s *Service) DeletePage(ctx context.Context, userID, spaceID, pageID string) error {
	if _, err := s.getOwned(ctx, userID, spaceID); err != nil {
		return err
	}
	if _, err := s.getSpacePage(ctx, spaceID, pageID); err != nil {
		return err
	}
	if err := s.repo.DeletePage(ctx, pageID); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}

// getOwned fetches a space and enforces ownership. A space owned by someone
// else returns ErrSpaceNotFound.
func (s *Service) getOwned(ctx context.Context, userID, spaceID string) (*Space, error) {
	sp, err := s.repo.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if sp.UserID != userID {
		return nil, ErrSpaceNotFound
	}
	return sp, nil
}

// getSpacePage fetches a page and verifies it belongs to the given space.
func (s *Service) getSpacePage(ctx context.Context, spaceID, pageID string) (*Page, error) {
	p, err := s.repo.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if p.SpaceID != spaceID {
		return nil, ErrPageNotFound
	}
	return p, nil
}

// IsNotFound reports whether err is a space or page not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSpaceNotFound) || errors.Is(err, ErrPageNotFound)
}
