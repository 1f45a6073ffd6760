package space

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/homeguide/service/internal/db"
)

// newTestService backs the service with an in-memory SQLite store and seeds
// one host, returning their ID.
func newTestService(t *testing.T) (*Service, *sql.DB, string) {
	t.Helper()
	sqlDB, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	ownerID := seedUser(t, sqlDB, "host@example.com")
	return NewService(NewSQLiteRepository(sqlDB)), sqlDB, ownerID
}

func seedUser(t *testing.T, sqlDB *sql.DB, email string) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC().UnixMilli()
	_, err := sqlDB.Exec(
		`INSERT INTO users (id, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, email, "x", now, now,
	)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func TestCreateSpaceMintsTokenAndWelcomePage(t *testing.T) {
	svc, _, owner := newTestService(t)
	ctx := context.Background()

	sp, err := svc.Create(ctx, owner, "Beach House", "Seaside apartment", "", "")
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	if sp.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	if len(sp.AccessToken) < 40 {
		t.Fatalf("access token suspiciously short: %d chars", len(sp.AccessToken))
	}

	pages, err := svc.ListPages(ctx, owner, sp.ID)
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("want exactly one auto-created page, got %d", len(pages))
	}
	if pages[0].Title != "Welcome" || pages[0].SortOrder != 0 {
		t.Fatalf("unexpected welcome page: %+v", pages[0])
	}
}

func TestAccessTokensAreUnique(t *testing.T) {
	svc, _, owner := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, owner, "Beach House", "", "", "")
	if err != nil {
		t.Fatalf("create first space: %v", err)
	}
	b, err := svc.Create(ctx, owner, "Mountain Cabin", "", "", "")
	if err != nil {
		t.Fatalf("create second space: %v", err)
	}
	if a.AccessToken == b.AccessToken {
		t.Fatal("two spaces share an access token")
	}
}

func TestGetByTokenReturnsOrderedPages(t *testing.T) {
	svc, _, owner := newTestService(t)
	ctx := context.Background()

	sp, err := svc.Create(ctx, owner, "Beach House", "", "", "")
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	if _, err := svc.CreatePage(ctx, owner, sp.ID, "Check-in", ""); err != nil {
		t.Fatalf("create page: %v", err)
	}
	if _, err := svc.CreatePage(ctx, owner, sp.ID, "House rules", ""); err != nil {
		t.Fatalf("create page: %v", err)
	}

	got, pages, err := svc.GetByToken(ctx, sp.AccessToken)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got.ID != sp.ID {
		t.Fatalf("resolved wrong space %q", got.ID)
	}
	titles := []string{}
	for _, p := range pages {
		titles = append(titles, p.Title)
	}
	want := []string{"Welcome", "Check-in", "House rules"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("page order = %v, want %v", titles, want)
		}
	}
}

func TestGetByTokenUnknown(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, token := range []string{"", "definitely-not-a-token"} {
		if _, _, err := svc.GetByToken(context.Background(), token); !errors.Is(err, ErrSpaceNotFound) {
			t.Fatalf("token %q: want ErrSpaceNotFound, got %v", token, err)
		}
	}
}

func TestDeleteSpaceCascadesPages(t *testing.T) {
	svc, _, owner := newTestService(t)
	ctx := context.Background()

	sp, err := svc.Create(ctx, owner, "Beach House", "", "", "")
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	extra, err := svc.CreatePage(ctx, owner, sp.ID, "Check-in", "")
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	if err := svc.Delete(ctx, owner, sp.ID); err != nil {
		t.Fatalf("delete space: %v", err)
	}

	if _, _, err := svc.GetByToken(ctx, sp.AccessToken); !errors.Is(err, ErrSpaceNotFound) {
		t.Fatalf("deleted space still resolvable: %v", err)
	}
	if _, err := svc.repo.GetPage(ctx, extra.ID); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("page survived cascade: %v", err)
	}
}

func TestOwnerScoping(t *testing.T) {
	svc, sqlDB, owner := newTestService(t)
	ctx := context.Background()
	stranger := seedUser(t, sqlDB, "other@example.com")

	sp, err := svc.Create(ctx, owner, "Beach House", "", "", "")
	if err != nil {
		t.Fatalf("create space: %v", err)
	}

	name := "Hijacked"
	if _, err := svc.Get(ctx, stranger, sp.ID); !errors.Is(err, ErrSpaceNotFound) {
		t.Fatalf("stranger Get: want ErrSpaceNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, stranger, sp.ID, SpaceUpdate{Name: &name}); !errors.Is(err, ErrSpaceNotFound) {
		t.Fatalf("stranger Update: want ErrSpaceNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, stranger, sp.ID); !errors.Is(err, ErrSpaceNotFound) {
		t.Fatalf("stranger Delete: want ErrSpaceNotFound, got %v", err)
	}

	// The refused mutations left the record untouched.
	got, err := svc.Get(ctx, owner, sp.ID)
	if err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if got.Name != "Beach House" {
		t.Fatalf("space mutated by stranger: %q", got.Name)
	}
}

func TestUpdateSpacePartial(t *testing.T) {
	svc, _, owner := newTestService(t)
	ctx := context.Background()

	sp, err := svc.Create(ctx, owner, "Beach House", "Old description", "", "")
	if err != nil {
		t.Fatalf("create space: %v", err)
	}

	desc := "New description"
	updated, err := svc.Update(ctx, owner, sp.ID, SpaceUpdate{Description: &desc})
	if err != nil {
		t.Fatalf("update space: %v", err)
	}
	if updated.Name != "Beach House" {
		t.Fatalf("name changed unexpectedly: %q", updated.Name)
	}
	if updated.Description != desc {
		t.Fatalf("description = %q", updated.Description)
	}
	if updated.AccessToken != sp.AccessToken {
		t.Fatal("access token must be immutable")
	}
}

func TestCreatePageAppendsAfterExisting(t *testing.T) {
	svc, _, owner := newTestService(t)
	ctx := context.Background()

	sp, err := svc.Create(ctx, owner, "Beach House", "", "", "")
	if err != nil {
		t.Fatalf("create space: %v", err)
	}

	p1, err := svc.CreatePage(ctx, owner, sp.ID, "Check-in", "")
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	p2, err := svc.CreatePage(ctx, owner, sp.ID, "House rules", "")
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	if !(p1.SortOrder > 0 && p2.SortOrder > p1.SortOrder) {
		t.Fatalf("sort orders not increasing: %d, %d", p1.SortOrder, p2.SortOrder)
	}
}

func TestUpdatePageReorders(t *testing.T) {
	svc, _, owner := newTestService(t)
	ctx := context.Background()

	sp, err := svc.Create(ctx, owner, "Beach House", "", "", "")
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	p, err := svc.CreatePage(ctx, owner, sp.ID, "Check-in", "")
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	last := 99
	if _, err := svc.UpdatePage(ctx, owner, sp.ID, p.ID, PageUpdate{SortOrder: &last}); err != nil {
		t.Fatalf("update page: %v", err)
	}

	pages, err := svc.ListPages(ctx, owner, sp.ID)
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if pages[len(pages)-1].ID != p.ID {
		t.Fatal("reordered page not listed last")
	}
}

func TestPageNotFoundAcrossSpaces(t *testing.T) {
	svc, _, owner := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, owner, "Beach House", "", "", "")
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	b, err := svc.Create(ctx, owner, "Mountain Cabin", "", "", "")
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	p, err := svc.CreatePage(ctx, owner, a.ID, "Check-in", "")
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	// Addressing a page through the wrong space must not resolve it.
	if _, err := svc.GetPage(ctx, owner, b.ID, p.ID); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("want ErrPageNotFound, got %v", err)
	}
}
