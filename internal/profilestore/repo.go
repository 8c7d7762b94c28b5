package profilestore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("profile not found")

	// ErrPersistenceFailed is returned by Save when neither the primary nor
	// the fallback store accepted the draft.
	ErrPersistenceFailed = errors.New("profile persistence failed")
)

// Repo is the primary profile store.
type Repo interface {
	Get(ctx context.Context, userID string) (Record, error)
	Upsert(ctx context.Context, rec Record) error
}
