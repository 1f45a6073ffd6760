// Package secureimage resolves image references from page markdown into
// displayable URLs, caching signed URLs so repeated renders of the same
// image within a session don't re-hit the issuer.
//
// References that are not private-storage paths (external or public URLs)
// pass through unchanged. Private references are exchanged for signed URLs
// at the issuer endpoint using the space's access token. Every failure mode
// degrades to "image unavailable": a broken image must never break the page.
package secureimage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// cacheTTL sits safely inside the issuer's one-hour signed-URL validity.
	cacheTTL = 55 * time.Minute
	// safetyMargin is the minimum remaining validity for a cache hit; an
	// entry closer than this to expiry is re-fetched.
	safetyMargin = 5 * time.Minute
	// pruneAbove bounds cache growth in long-running processes: once the
	// map passes this size, expired entries are swept on the next store.
	pruneAbove = 256
)

type entry struct {
	url       string
	expiresAt time.Time
}

// Resolver exchanges private image references for signed URLs through the
// issuer endpoint and caches the results in process memory. Safe for
// concurrent use. Concurrent first resolutions of the same path are not
// deduplicated; both hit the issuer and the later result wins the cache slot.
type Resolver struct {
	issuerURL  string
	storageURL string
	client     *http.Client
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]entry
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithHTTPClient substitutes the HTTP client used to call the issuer.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithClock substitutes the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver. issuerURL is the signing endpoint (e.g.
// "https://api.example.com/api/v1/images/sign"); storageBaseURL is the
// prefix under which page markdown references private images.
func NewResolver(issuerURL, storageBaseURL string, opts ...Option) *Resolver {
	r := &Resolver{
		issuerURL:  issuerURL,
		storageURL: strings.TrimRight(storageBaseURL, "/") + "/",
		client:     http.DefaultClient,
		now:        time.Now,
		cache:      make(map[string]entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve turns an image reference from page content into a displayable URL.
//
// Non-private references are returned unchanged with ok=true and no network
// call. Private references return a cached or freshly issued signed URL with
// ok=true, or ok=false when the image cannot be made available — callers
// omit the image rather than failing.
func (r *Resolver) Resolve(ctx context.Context, src, accessToken string) (resolved string, ok bool) {
	imagePath, private := r.privatePath(src)
	if !private {
		return src, true
	}

	if cached, hit := r.lookup(imagePath); hit {
		return cached, true
	}

	signed, err := r.fetchSignedURL(ctx, imagePath, accessToken)
	if err != nil {
		return "", false
	}

	r.store(imagePath, signed)
	return signed, true
}

// privatePath reports whether src points into private storage and, if so,
// returns the {ownerID}/{filename} path relative to the storage base.
func (r *Resolver) privatePath(src string) (string, bool) {
	rest, found := strings.CutPrefix(src, r.storageURL)
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

// lookup returns a cached signed URL when it still has more than
// safetyMargin of validity left.
func (r *Resolver) lookup(imagePath string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, hit := r.cache[imagePath]
	if !hit || !r.now().Add(safetyMargin).Before(e.expiresAt) {
		return "", false
	}
	return e.url, true
}

func (r *Resolver) store(imagePath, signed string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.cache) > pruneAbove {
		now := r.now()
		for k, e := range r.cache {
			if !now.Before(e.expiresAt) {
				delete(r.cache, k)
			}
		}
	}
	r.cache[imagePath] = entry{url: signed, expiresAt: r.now().Add(cacheTTL)}
}

// fetchSignedURL calls the issuer. Network failure, a non-200 status, and a
// malformed or empty body are all the same to the caller: no URL.
func (r *Resolver) fetchSignedURL(ctx context.Context, imagePath, accessToken string) (string, error) {
	reqURL := r.issuerURL + "?path=" + url.QueryEscape(imagePath) + "&token=" + url.QueryEscape(accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errUnavailable
	}

	var body struct {
		SignedURL string `json:"signedUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.SignedURL == "" {
		return "", errUnavailable
	}
	return body.SignedURL, nil
}

// errUnavailable is internal only; Resolve collapses every failure to ok=false.
var errUnavailable = errors.New("image unavailable")
