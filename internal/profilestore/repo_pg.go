package profilestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"profile-backend/internal/profile"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, userID string) (Record, error) {
	const query = `
SELECT profile_data, updated_at
FROM profiles
WHERE user_id = $1
LIMIT 1`
	var raw []byte
	var updatedAt sql.NullTime
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&raw, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	var draft profile.Draft
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &draft); err != nil {
			return Record{}, fmt.Errorf("decode profile_data: %w", err)
		}
	}
	rec := Record{UserID: userID, Draft: draft}
	if updatedAt.Valid {
		rec.UpdatedAt = updatedAt.Time
	}
	return rec, nil
}

func (r *PGRepo) Upsert(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO profiles (user_id, profile_data, created_at, updated_at)
VALUES ($1, $2, now(), $3)
ON CONFLICT (user_id) DO UPDATE SET
  profile_data = EXCLUDED.profile_data,
  updated_at = EXCLUDED.updated_at`
	payload, err := json.Marshal(rec.Draft.Normalize())
	if err != nil {
		return fmt.Errorf("encode profile_data: %w", err)
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err = r.DB.ExecContext(ctx, query, rec.UserID, payload, updatedAt)
	return err
}
