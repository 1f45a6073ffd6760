// Package image implements the signed-URL issuer for private page images.
//
// Images live in a private bucket under {ownerID}/{filename}. The issuer is
// the sole authority that exchanges a space access token for a short-lived
// download URL. It never exposes store credentials to the browser and it
// never reveals, through its responses, whether a given image or space
// exists.
package image

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/homeguide/service/internal/space"
	"github.com/homeguide/service/internal/storage"
)

// signedURLTTL is the validity of every issued URL. The resolver cache on
// the client side assumes this value; change both together.
const signedURLTTL = time.Hour

// ErrInvalidPath is returned for paths that don't parse as {ownerID}/{filename}.
var ErrInvalidPath = errors.New("invalid image path")

// ErrAccessDenied is returned when the token grants no access to the image's
// owner. Wrong token and wrong owner are deliberately indistinguishable:
// a caller probing paths learns nothing from the response.
var ErrAccessDenied = errors.New("invalid token or access denied")

// PathRef is a parsed image reference. OwnerID is an explicit, validated
// field rather than an ad-hoc split at each use site: the first path
// segment is the convention the whole trust check hangs on.
type PathRef struct {
	OwnerID  string
	Filename string
}

// ParsePath validates and splits an image path of the form {ownerID}/{filename}.
func ParsePath(p string) (PathRef, error) {
	owner, filename, ok := strings.Cut(p, "/")
	if !ok || owner == "" || filename == "" {
		return PathRef{}, ErrInvalidPath
	}
	if strings.Contains(filename, "/") {
		return PathRef{}, ErrInvalidPath
	}
	for _, seg := range []string{owner, filename} {
		if seg == "." || seg == ".." {
			return PathRef{}, ErrInvalidPath
		}
	}
	return PathRef{OwnerID: owner, Filename: filename}, nil
}

// SpaceFinder resolves an access token to its space. space.Repository
// satisfies it; tests substitute a fake.
type SpaceFinder interface {
	GetSpaceByToken(ctx context.Context, accessToken string) (*space.Space, error)
}

// Service validates token-to-owner bindings and mints signed URLs.
type Service struct {
	spaces SpaceFinder
	store  storage.Storage
}

// NewService creates a new image Service.
func NewService(spaces SpaceFinder, store storage.Storage) *Service {
	return &Service{spaces: spaces, store: store}
}

// SignURL checks that accessToken belongs to a space owned by the image
// path's owner segment and, if so, returns a signed URL valid for one hour.
// Stateless and read-only: every call validates from scratch, and repeated
// calls yield independent URLs for the unchanged object.
func (s *Service) SignURL(ctx context.Context, imagePath, accessToken string) (string, error) {
	ref, err := ParsePath(imagePath)
	if err != nil {
		// Malformed paths are rejected before any lookup, but surface as
		// the same generic denial as a bad token.
		return "", ErrAccessDenied
	}

	sp, err := s.spaces.GetSpaceByToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, space.ErrSpaceNotFound) {
			return "", ErrAccessDenied
		}
		return "", fmt.Errorf("look up space by token: %w", err)
	}
	if sp.UserID != ref.OwnerID {
		return "", ErrAccessDenied
	}

	url, err := s.store.PresignedGet(ctx, imagePath, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign image %q: %w", imagePath, err)
	}
	return url, nil
}
