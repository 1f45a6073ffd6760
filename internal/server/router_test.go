package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/homeguide/service/internal/auth"
	"github.com/homeguide/service/internal/config"
	"github.com/homeguide/service/internal/db"
	"github.com/homeguide/service/internal/image"
	"github.com/homeguide/service/internal/space"
	"github.com/homeguide/service/internal/user"
)

// memStorage satisfies storage.Storage without a real bucket.
type memStorage struct{}

func (memStorage) Upload(context.Context, string, io.Reader, int64, string) error { return nil }
func (memStorage) Delete(context.Context, string) error                           { return nil }
func (memStorage) PresignedGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://store.example/%s?expires=%ds", key, int(expiry.Seconds())), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	sqlDB, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := &config.Config{JWTSecret: "test-secret", StoragePublicBase: "http://localhost:9000/page-images"}
	store := memStorage{}

	userSvc := user.NewService(user.NewSQLiteRepository(sqlDB))
	authSvc := auth.NewService(userSvc, cfg)
	spaceRepo := space.NewSQLiteRepository(sqlDB)
	spaceSvc := space.NewService(spaceRepo)
	imageSvc := image.NewService(spaceRepo, store)

	r := New(cfg, Handlers{
		Auth:  auth.NewHandler(authSvc),
		User:  user.NewHandler(userSvc),
		Space: space.NewHandler(spaceSvc),
		Image: image.NewHandler(imageSvc, store, cfg.StoragePublicBase),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, bearer string, body interface{}) (int, envelope) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("%s %s: decode envelope: %v", method, path, err)
		}
	}
	return resp.StatusCode, env
}

func registerHost(t *testing.T, srv *httptest.Server, email string) (bearer, userID string) {
	t.Helper()
	status, env := doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"email": email, "password": "a long password"})
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d (%s)", email, status, env.Error)
	}
	var data struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode register data: %v", err)
	}
	return data.Token, data.User.ID
}

func createSpace(t *testing.T, srv *httptest.Server, bearer, name string) space.Space {
	t.Helper()
	status, env := doJSON(t, srv, http.MethodPost, "/api/v1/spaces", bearer,
		map[string]string{"name": name})
	if status != http.StatusCreated {
		t.Fatalf("create space %s: status %d (%s)", name, status, env.Error)
	}
	var sp space.Space
	if err := json.Unmarshal(env.Data, &sp); err != nil {
		t.Fatalf("decode space: %v", err)
	}
	return sp
}

func TestGuestFlow(t *testing.T) {
	srv := newTestServer(t)

	hostA, _ := registerHost(t, srv, "ada@example.com")
	hostB, ownerB := registerHost(t, srv, "ben@example.com")

	beach := createSpace(t, srv, hostA, "Beach House")
	cabin := createSpace(t, srv, hostB, "Mountain Cabin")
	if beach.AccessToken == cabin.AccessToken {
		t.Fatal("spaces share an access token")
	}

	// Guest views Beach House: exactly the auto-created welcome page.
	status, env := doJSON(t, srv, http.MethodGet, "/api/v1/view/"+beach.AccessToken, "", nil)
	if status != http.StatusOK {
		t.Fatalf("public view: status %d (%s)", status, env.Error)
	}
	var view struct {
		Space struct {
			Name string `json:"name"`
		} `json:"space"`
		Pages []struct {
			Title string `json:"title"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Space.Name != "Beach House" {
		t.Fatalf("view space name = %q", view.Space.Name)
	}
	if len(view.Pages) != 1 || view.Pages[0].Title != "Welcome" {
		t.Fatalf("view pages = %+v, want single welcome page", view.Pages)
	}

	// Beach House's token must not sign an image owned by Mountain Cabin's host.
	resp, err := srv.Client().Get(srv.URL + "/api/v1/images/sign?path=" + ownerB + "%2Fphoto.jpg&token=" + beach.AccessToken)
	if err != nil {
		t.Fatalf("sign request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-owner sign: status %d, want 403", resp.StatusCode)
	}
	var signErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signErr); err != nil {
		t.Fatalf("decode sign error: %v", err)
	}
	if signErr.Error != "Invalid token or access denied" {
		t.Fatalf("sign error = %q", signErr.Error)
	}

	// The rightful token signs the same path.
	resp2, err := srv.Client().Get(srv.URL + "/api/v1/images/sign?path=" + ownerB + "%2Fphoto.jpg&token=" + cabin.AccessToken)
	if err != nil {
		t.Fatalf("sign request: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("rightful sign: status %d, want 200", resp2.StatusCode)
	}
	var signOK struct {
		SignedURL string `json:"signedUrl"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&signOK); err != nil {
		t.Fatalf("decode sign response: %v", err)
	}
	if !strings.Contains(signOK.SignedURL, ownerB+"/photo.jpg") {
		t.Fatalf("signed url %q does not reference the requested object", signOK.SignedURL)
	}
	if !strings.Contains(signOK.SignedURL, "expires=3600s") {
		t.Fatalf("signed url %q not minted with 1h validity", signOK.SignedURL)
	}
}

func TestPublicViewUnknownTokenIsGeneric(t *testing.T) {
	srv := newTestServer(t)

	// Unknown and malformed tokens get the same empty-handed 404.
	for _, token := range []string{"nope", "a%2Fb", "0000000000000000000000000000000000000000000"} {
		status, env := doJSON(t, srv, http.MethodGet, "/api/v1/view/"+token, "", nil)
		if status != http.StatusNotFound {
			t.Fatalf("view %q: status %d, want 404", token, status)
		}
		if env.Error != "access required" {
			t.Fatalf("view %q: error = %q", token, env.Error)
		}
	}
}

func TestOwnerEndpointsRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	status, _ := doJSON(t, srv, http.MethodGet, "/api/v1/spaces", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: status %d, want 401", status)
	}
	status, _ = doJSON(t, srv, http.MethodGet, "/api/v1/spaces", "garbage-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("garbage bearer: status %d, want 401", status)
	}
}

func TestDeleteSpaceRemovesPublicView(t *testing.T) {
	srv := newTestServer(t)
	host, _ := registerHost(t, srv, "ada@example.com")
	sp := createSpace(t, srv, host, "Beach House")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/spaces/"+sp.ID, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+host)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("delete space: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete space: status %d, want 204", resp.StatusCode)
	}

	status, env := doJSON(t, srv, http.MethodGet, "/api/v1/view/"+sp.AccessToken, "", nil)
	if status != http.StatusNotFound || env.Error != "access required" {
		t.Fatalf("deleted space view: status %d error %q", status, env.Error)
	}
}

func TestSignPreflightAllowsGuestOrigin(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/images/sign", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Origin", "https://guides.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", image.AccessTokenHeader)

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		t.Fatalf("preflight rejected with %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
	allowed := strings.ToLower(resp.Header.Get("Access-Control-Allow-Headers"))
	if !strings.Contains(allowed, image.AccessTokenHeader) {
		t.Fatalf("Access-Control-Allow-Headers = %q, missing %s", allowed, image.AccessTokenHeader)
	}
}
