package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrSigningUnsupported is returned by stores that cannot mint signed URLs.
var ErrSigningUnsupported = errors.New("object store does not support signed urls")

// ObjectStore defines the contract for saving, retrieving and addressing
// binary objects. Keys are slash-separated and relative to the store root.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// SignedURL returns a time-limited URL for key. Stores may shorten ttl
	// to their own maximum.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) (string, error)
}
