package space

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists spaces and pages in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a PostgresRepository with the given connection pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const spaceColumns = `id, user_id, name, description, address, contact, access_token, created_at, updated_at`

const pageColumns = `id, space_id, title, content, sort_order, created_at, updated_at`

// CreateSpace inserts the space and its initial pages in one transaction.
func (r *PostgresRepository) CreateSpace(ctx context.Context, s *Space, pages []Page) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO spaces (`+spaceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.UserID, s.Name, s.Description, s.Address, s.Contact,
		s.AccessToken, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert space: %w", err)
	}

	for i := range pages {
		p := &pages[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO pages (`+pageColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, p.SpaceID, p.Title, p.Content, p.SortOrder, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert initial page: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetSpace fetches a space by its UUID.
func (r *PostgresRepository) GetSpace(ctx context.Context, id string) (*Space, error) {
	return r.getSpace(ctx,
		`SELECT `+spaceColumns+` FROM spaces WHERE id = $1`, id)
}

// GetSpaceByToken fetches the unique space holding the given access token.
func (r *PostgresRepository) GetSpaceByToken(ctx context.Context, accessToken string) (*Space, error) {
	return r.getSpace(ctx,
		`SELECT `+spaceColumns+` FROM spaces WHERE access_token = $1`, accessToken)
}

func (r *PostgresRepository) getSpace(ctx context.Context, query string, arg interface{}) (*Space, error) {
	s := &Space{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&s.ID, &s.UserID, &s.Name, &s.Description, &s.Address, &s.Contact,
		&s.AccessToken, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSpaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get space: %w", err)
	}
	return s, nil
}

// ListSpacesByOwner returns all spaces of a host, newest first.
func (r *PostgresRepository) ListSpacesByOwner(ctx context.Context, userID string) ([]Space, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+spaceColumns+` FROM spaces WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()

	spaces := []Space{}
	for rows.Next() {
		var s Space
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Name, &s.Description, &s.Address, &s.Contact,
			&s.AccessToken, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan space: %w", err)
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

// UpdateSpace writes all mutable columns of the space.
func (r *PostgresRepository) UpdateSpace(ctx context.Context, s *Space) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE spaces
		 SET name = $2, description = $3, address = $4, contact = $5, updated_at = $6
		 WHERE id = $1`,
		s.ID, s.Name, s.Description, s.Address, s.Contact, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update space: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSpaceNotFound
	}
	return nil
}

// DeleteSpace removes the space; the pages foreign key cascades.
func (r *PostgresRepository) DeleteSpace(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM spaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete space: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSpaceNotFound
	}
	return nil
}

// CreatePage inserts a new page.
func (r *PostgresRepository) CreatePage(ctx context.Context, p *Page) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO pages (`+pageColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.SpaceID, p.Title, p.Content, p.SortOrder, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

// GetPage fetches a page by its UUID.
func (r *PostgresRepository) GetPage(ctx context.Context, id string) (*Page, error) {
	p := &Page{}
	err := r.db.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = $1`, id,
	).Scan(&p.ID, &p.SpaceID, &p.Title, &p.Content, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

// ListPagesBySpace returns the pages of a space in display order.
func (r *PostgresRepository) ListPagesBySpace(ctx context.Context, spaceID string) ([]Page, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE space_id = $1 ORDER BY sort_order ASC`,
		spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	pages := []Page{}
	for rows.Next() {
		var p Page
		if err := rows.Scan(
			&p.ID, &p.SpaceID, &p.Title, &p.Content, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// UpdatePage writes all mutable columns of the page.
func (r *PostgresRepository) UpdatePage(ctx context.Context, p *Page) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE pages
		 SET title = $2, content = $3, sort_order = $4, updated_at = $5
		 WHERE id = $1`,
		p.ID, p.Title, p.Content, p.SortOrder, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPageNotFound
	}
	return nil
}

// DeletePage removes a single page.
func (r *PostgresRepository) DeletePage(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPageNotFound
	}
	return nil
}
