package image

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/homeguide/service/internal/space"
)

type fakeFinder struct {
	spaces map[string]*space.Space // access token → space
	calls  int
}

func (f *fakeFinder) GetSpaceByToken(_ context.Context, token string) (*space.Space, error) {
	f.calls++
	if sp, ok := f.spaces[token]; ok {
		return sp, nil
	}
	return nil, space.ErrSpaceNotFound
}

type fakeStore struct {
	lastKey    string
	lastExpiry time.Duration
	err        error
}

func (f *fakeStore) Upload(context.Context, string, io.Reader, int64, string) error {
	return nil
}

func (f *fakeStore) Delete(context.Context, string) error { return nil }

func (f *fakeStore) PresignedGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	f.lastKey = key
	f.lastExpiry = expiry
	if f.err != nil {
		return "", f.err
	}
	return "https://store.example/" + key + "?sig=abc", nil
}

func TestParsePath(t *testing.T) {
	cases := []struct {
		in      string
		owner   string
		file    string
		wantErr bool
	}{
		{in: "owner-1/photo.jpg", owner: "owner-1", file: "photo.jpg"},
		{in: "photo.jpg", wantErr: true},
		{in: "/photo.jpg", wantErr: true},
		{in: "owner-1/", wantErr: true},
		{in: "owner-1/a/b.jpg", wantErr: true},
		{in: "../secret.jpg", wantErr: true},
		{in: "owner-1/..", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		ref, err := ParsePath(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("ParsePath(%q): want ErrInvalidPath, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePath(%q): unexpected error %v", tc.in, err)
			continue
		}
		if ref.OwnerID != tc.owner || ref.Filename != tc.file {
			t.Errorf("ParsePath(%q) = %+v, want owner %q file %q", tc.in, ref, tc.owner, tc.file)
		}
	}
}

func TestSignURLValidToken(t *testing.T) {
	finder := &fakeFinder{spaces: map[string]*space.Space{
		"tok-1": {ID: "s1", UserID: "owner-1", AccessToken: "tok-1"},
	}}
	store := &fakeStore{}
	svc := NewService(finder, store)

	url, err := svc.SignURL(context.Background(), "owner-1/photo.jpg", "tok-1")
	if err != nil {
		t.Fatalf("sign url: %v", err)
	}
	if url == "" {
		t.Fatal("expected a signed url")
	}
	if store.lastKey != "owner-1/photo.jpg" {
		t.Fatalf("signed wrong key %q", store.lastKey)
	}
	if store.lastExpiry != time.Hour {
		t.Fatalf("signed url validity = %v, want 1h", store.lastExpiry)
	}
}

func TestSignURLUnknownToken(t *testing.T) {
	svc := NewService(&fakeFinder{spaces: map[string]*space.Space{}}, &fakeStore{})

	_, err := svc.SignURL(context.Background(), "owner-1/photo.jpg", "no-such-token")
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("want ErrAccessDenied, got %v", err)
	}
}

func TestSignURLTokenForDifferentOwner(t *testing.T) {
	// The token is real but belongs to another host's space; the response
	// must be the same denial as an unknown token.
	finder := &fakeFinder{spaces: map[string]*space.Space{
		"tok-2": {ID: "s2", UserID: "owner-2", AccessToken: "tok-2"},
	}}
	svc := NewService(finder, &fakeStore{})

	_, err := svc.SignURL(context.Background(), "owner-1/photo.jpg", "tok-2")
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("want ErrAccessDenied, got %v", err)
	}
}

func TestSignURLMalformedPathSkipsLookup(t *testing.T) {
	finder := &fakeFinder{spaces: map[string]*space.Space{}}
	svc := NewService(finder, &fakeStore{})

	_, err := svc.SignURL(context.Background(), "no-slash-here", "tok-1")
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("want ErrAccessDenied, got %v", err)
	}
	if finder.calls != 0 {
		t.Fatalf("malformed path should be rejected before any lookup, got %d lookups", finder.calls)
	}
}

func TestSignURLStoreFailure(t *testing.T) {
	finder := &fakeFinder{spaces: map[string]*space.Space{
		"tok-1": {ID: "s1", UserID: "owner-1", AccessToken: "tok-1"},
	}}
	store := &fakeStore{err: errors.New("store down")}
	svc := NewService(finder, store)

	_, err := svc.SignURL(context.Background(), "owner-1/photo.jpg", "tok-1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrAccessDenied) {
		t.Fatal("store failure must not look like an authorization failure")
	}
}
