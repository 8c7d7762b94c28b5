package profilestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"profile-backend/internal/profile"
	"profile-backend/internal/shared/metrics"
	"profile-backend/internal/shared/storage/kv"
	"profile-backend/internal/shared/telemetry"
)

// FallbackKey is the local store key holding a user's draft.
func FallbackKey(userID string) string {
	return "profile_" + userID
}

// Gateway reads and writes drafts against the primary store and falls back
// to the local key-value store when the primary is unavailable.
type Gateway struct {
	Primary  Repo
	Fallback kv.Store
	Now      func() time.Time
}

func NewGateway(primary Repo, fallback kv.Store) *Gateway {
	return &Gateway{Primary: primary, Fallback: fallback, Now: time.Now}
}

// Load returns the stored draft. The primary store is consulted first; on
// absence or error the fallback entry is used; with neither, an empty draft.
// Loaded drafts always have non-nil lists and normalized dates.
func (g *Gateway) Load(ctx context.Context, userID string) Outcome {
	var reason error
	if g.Primary != nil {
		rec, err := g.Primary.Get(ctx, userID)
		if err == nil {
			metrics.IncProfileLoad(string(SourcePrimary))
			return Outcome{Draft: prepare(rec.Draft), Source: SourcePrimary}
		}
		if !errors.Is(err, ErrNotFound) {
			telemetry.Warn("profile.load.primary_failed", map[string]any{
				"user_id": userID,
				"error":   err,
			})
		}
		reason = err
	}

	if draft, ok := g.loadFallback(ctx, userID); ok {
		metrics.IncProfileLoad(string(SourceFallback))
		return Outcome{Draft: draft, Source: SourceFallback, Reason: reason}
	}

	metrics.IncProfileLoad(string(SourceDefault))
	return Outcome{Draft: profile.Empty(), Source: SourceDefault, Reason: reason}
}

func (g *Gateway) loadFallback(ctx context.Context, userID string) (profile.Draft, bool) {
	if g.Fallback == nil {
		return profile.Draft{}, false
	}
	raw, err := g.Fallback.Get(ctx, FallbackKey(userID))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			telemetry.Warn("profile.load.fallback_failed", map[string]any{
				"user_id": userID,
				"error":   err,
			})
		}
		return profile.Draft{}, false
	}
	var draft profile.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		telemetry.Warn("profile.load.fallback_corrupt", map[string]any{
			"user_id": userID,
			"error":   err,
		})
		return profile.Draft{}, false
	}
	return prepare(draft), true
}

// Save persists the draft with its skills cleaned. A primary failure is absorbed by writing
// the full draft to the fallback store; only a failure of both is an error.
func (g *Gateway) Save(ctx context.Context, userID string, draft profile.Draft) (Outcome, error) {
	draft = draft.Normalize().CleanSkills()
	var primaryErr error
	if g.Primary != nil {
		primaryErr = g.Primary.Upsert(ctx, Record{UserID: userID, Draft: draft, UpdatedAt: g.now()})
		if primaryErr == nil {
			metrics.IncProfileSave(string(SourcePrimary))
			return Outcome{Draft: draft, Source: SourcePrimary}, nil
		}
		telemetry.Warn("profile.save.primary_failed", map[string]any{
			"user_id": userID,
			"error":   primaryErr,
		})
	} else {
		primaryErr = errors.New("primary store not configured")
	}

	fallbackErr := g.saveFallback(ctx, userID, draft)
	if fallbackErr == nil {
		metrics.IncProfileSave(string(SourceFallback))
		return Outcome{Draft: draft, Source: SourceFallback, Reason: primaryErr}, nil
	}

	telemetry.Error("profile.save.failed", map[string]any{
		"user_id":  userID,
		"primary":  primaryErr.Error(),
		"fallback": fallbackErr.Error(),
	})
	metrics.IncProfileSave(string(SourceFailed))
	return Outcome{Draft: draft, Source: SourceFailed, Reason: primaryErr},
		fmt.Errorf("%w: primary: %v; fallback: %v", ErrPersistenceFailed, primaryErr, fallbackErr)
}

func (g *Gateway) saveFallback(ctx context.Context, userID string, draft profile.Draft) error {
	if g.Fallback == nil {
		return errors.New("fallback store not configured")
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return g.Fallback.Set(ctx, FallbackKey(userID), payload)
}

func (g *Gateway) now() time.Time {
	if g.Now == nil {
		return time.Now().UTC()
	}
	return g.Now().UTC()
}

func prepare(d profile.Draft) profile.Draft {
	return d.Normalize().CleanSkills().NormalizeDates()
}
