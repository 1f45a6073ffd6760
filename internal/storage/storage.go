// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"io"
	"time"
)

// Storage is the interface for uploading, removing, and signing objects.
// The backing bucket is private: objects are only ever read through
// time-limited signed URLs.
type Storage interface {
	// Upload streams data to the store under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Delete removes an object identified by key.
	Delete(ctx context.Context, key string) error
	// PresignedGet returns a time-limited URL that grants read access to
	// exactly one object without exposing store credentials.
	PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
