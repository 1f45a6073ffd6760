package space

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteRepository persists spaces and pages in the local SQLite store.
// Timestamps are stored as Unix milliseconds.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLiteRepository over an opened SQLite handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// CreateSpace inserts the space and its initial pages in one transaction.
func (r *SQLiteRepository) CreateSpace(ctx context.Context, s *Space, pages []Page) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO spaces (id, user_id, name, description, address, contact, access_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Name, s.Description, s.Address, s.Contact,
		s.AccessToken, toMillis(s.CreatedAt), toMillis(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert space: %w", err)
	}

	for i := range pages {
		p := &pages[i]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pages (id, space_id, title, content, sort_order, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.SpaceID, p.Title, p.Content, p.SortOrder,
			toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert initial page: %w", err)
		}
	}

	return tx.Commit()
}

// GetSpace fetches a space by its UUID.
func (r *SQLiteRepository) GetSpace(ctx context.Context, id string) (*Space, error) {
	return r.getSpace(ctx,
		`SELECT id, user_id, name, description, address, contact, access_token, created_at, updated_at
		 FROM spaces WHERE id = ?`, id)
}

// GetSpaceByToken fetches the unique space holding the given access token.
func (r *SQLiteRepository) GetSpaceByToken(ctx context.Context, accessToken string) (*Space, error) {
	return r.getSpace(ctx,
		`SELECT id, user_id, name, description, address, contact, access_token, created_at, updated_at
		 FROM spaces WHERE access_token = ?`, accessToken)
}

func (r *SQLiteRepository) getSpace(ctx context.Context, query string, arg interface{}) (*Space, error) {
	s := &Space{}
	var createdAt, updatedAt int64
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID, &s.UserID, &s.Name, &s.Description, &s.Address, &s.Contact,
		&s.AccessToken, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSpaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get space: %w", err)
	}
	s.CreatedAt = fromMillis(createdAt)
	s.UpdatedAt = fromMillis(updatedAt)
	return s, nil
}

// ListSpacesByOwner returns all spaces of a host, newest first.
func (r *SQLiteRepository) ListSpacesByOwner(ctx context.Context, userID string) ([]Space, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, description, address, contact, access_token, created_at, updated_at
		 FROM spaces WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()

	spaces := []Space{}
	for rows.Next() {
		var s Space
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Name, &s.Description, &s.Address, &s.Contact,
			&s.AccessToken, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan space: %w", err)
		}
		s.CreatedAt = fromMillis(createdAt)
		s.UpdatedAt = fromMillis(updatedAt)
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

// UpdateSpace writes all mutable columns of the space.
func (r *SQLiteRepository) UpdateSpace(ctx context.Context, s *Space) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE spaces
		 SET name = ?, description = ?, address = ?, contact = ?, updated_at = ?
		 WHERE id = ?`,
		s.Name, s.Description, s.Address, s.Contact, toMillis(s.UpdatedAt), s.ID,
	)
	if err != nil {
		return fmt.Errorf("update space: %w", err)
	}
	return checkAffected(res, ErrSpaceNotFound)
}

// DeleteSpace removes the space; the pages foreign key cascades.
func (r *SQLiteRepository) DeleteSpace(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spaces WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete space: %w", err)
	}
	return checkAffected(res, ErrSpaceNotFound)
}

// CreatePage inserts a new page.
func (r *SQLiteRepository) CreatePage(ctx context.Context, p *Page) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pages (id, space_id, title, content, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SpaceID, p.Title, p.Content, p.SortOrder,
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

// GetPage fetches a page by its UUID.
func (r *SQLiteRepository) GetPage(ctx context.Context, id string) (*Page, error) {
	p := &Page{}
	var createdAt, updatedAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, space_id, title, content, sort_order, created_at, updated_at
		 FROM pages WHERE id = ?`, id,
	).Scan(&p.ID, &p.SpaceID, &p.Title, &p.Content, &p.SortOrder, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

// ListPagesBySpace returns the pages of a space in display order.
func (r *SQLiteRepository) ListPagesBySpace(ctx context.Context, spaceID string) ([]Page, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, space_id, title, content, sort_order, created_at, updated_at
		 FROM pages WHERE space_id = ? ORDER BY sort_order ASC`,
		spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	pages := []Page{}
	for rows.Next() {
		var p Page
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&p.ID, &p.SpaceID, &p.Title, &p.Content, &p.SortOrder, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.CreatedAt = fromMillis(createdAt)
		p.UpdatedAt = fromMillis(updatedAt)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// UpdatePage writes all mutable columns of the page.
func (r *SQLiteRepository) UpdatePage(ctx context.Context, p *Page) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pages
		 SET title = ?, content = ?, sort_order = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.Content, p.SortOrder, toMillis(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return checkAffected(res, ErrPageNotFound)
}

// DeletePage removes a single page.
func (r *SQLiteRepository) DeletePage(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return checkAffected(res, ErrPageNotFound)
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
