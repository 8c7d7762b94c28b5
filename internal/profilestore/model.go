package profilestore

import (
	"time"

	"profile-backend/internal/profile"
)

// Record is a persisted profile row.
type Record struct {
	UserID    string
	Draft     profile.Draft
	UpdatedAt time.Time
}

// Source tells where a load was served from or where a save landed.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceDefault  Source = "default"
	SourceFailed   Source = "failed"
)

// Outcome reports the result of a gateway operation. Reason carries the
// primary store error that forced a fallback, if any.
type Outcome struct {
	Draft  profile.Draft
	Source Source
	Reason error
}
