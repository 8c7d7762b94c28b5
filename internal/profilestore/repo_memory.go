package profilestore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"profile-backend/internal/profile"
)

// MemoryRepo stores drafts as JSON so callers never share slices with it.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	payload   []byte
	updatedAt time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string]memoryRecord)}
}

func (r *MemoryRepo) Get(ctx context.Context, userID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	stored, ok := r.records[userID]
	r.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	var draft profile.Draft
	if err := json.Unmarshal(stored.payload, &draft); err != nil {
		return Record{}, err
	}
	return Record{UserID: userID, Draft: draft, UpdatedAt: stored.updatedAt}, nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(rec.Draft.Normalize())
	if err != nil {
		return err
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	r.records[rec.UserID] = memoryRecord{payload: payload, updatedAt: updatedAt}
	r.mu.Unlock()
	return nil
}
