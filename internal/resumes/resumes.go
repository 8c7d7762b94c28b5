// Package resumes stores uploaded resume files and resolves the URL saved on
// the profile.
package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"profile-backend/internal/shared/storage/object"
	"profile-backend/internal/shared/telemetry"
	"profile-backend/internal/shared/util"
)

const (
	MaxUploadBytes = 5 << 20

	// DefaultSignedURLTTL is the requested lifetime of signed resume links.
	// Stores may clamp it.
	DefaultSignedURLTTL = 365 * 24 * time.Hour
)

var (
	ErrInvalidFileName = errors.New("invalid file name")
	ErrTooLarge        = errors.New("file exceeds upload limit")
	ErrNoURL           = errors.New("no url available for stored resume")
)

// URLKind says how a resume URL was produced.
type URLKind string

const (
	URLKindSigned URLKind = "signed"
	URLKindPublic URLKind = "public"
)

// Resume is a stored file plus the URL to reach it.
type Resume struct {
	URL       string  `json:"url"`
	Path      string  `json:"path"`
	Kind      URLKind `json:"kind"`
	SizeBytes int64   `json:"sizeBytes"`
}

type Uploader struct {
	Store     object.ObjectStore
	SignedTTL time.Duration
	Now       func() time.Time
}

func NewUploader(store object.ObjectStore, signedTTL time.Duration) *Uploader {
	if signedTTL <= 0 {
		signedTTL = DefaultSignedURLTTL
	}
	return &Uploader{Store: store, SignedTTL: signedTTL, Now: time.Now}
}

// Key builds the object key for a user's upload:
// <user path key>/<unix millis>_<sanitized name>.
func Key(userID, fileName string, at time.Time) (string, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, fileName)
	}
	return path.Join(util.UserPathKey(userID), strconv.FormatInt(at.UnixMilli(), 10)+"_"+sanitized), nil
}

// Upload streams r to the object store and resolves its URL.
func (u *Uploader) Upload(ctx context.Context, userID, fileName, contentType string, r io.Reader) (Resume, error) {
	key, err := Key(userID, fileName, u.now())
	if err != nil {
		return Resume{}, err
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	limited := &io.LimitedReader{R: r, N: MaxUploadBytes + 1}
	size, err := u.Store.Put(ctx, key, contentType, limited)
	if err != nil {
		return Resume{}, fmt.Errorf("store resume: %w", err)
	}
	if size > MaxUploadBytes {
		if delErr := u.Store.Delete(ctx, key); delErr != nil {
			telemetry.Warn("resume.upload.cleanup_failed", map[string]any{
				"path":  key,
				"error": delErr,
			})
		}
		return Resume{}, ErrTooLarge
	}

	res, err := u.ResolveURL(ctx, key)
	if err != nil {
		return Resume{}, err
	}
	res.SizeBytes = size
	telemetry.Info("resume.upload.complete", map[string]any{
		"user_id":    userID,
		"path":       key,
		"size_bytes": size,
		"url_kind":   string(res.Kind),
	})
	return res, nil
}

type urlAttempt struct {
	kind    URLKind
	resolve func(ctx context.Context, key string) (string, error)
}

// ResolveURL tries a signed URL first and falls back to the public URL.
func (u *Uploader) ResolveURL(ctx context.Context, key string) (Resume, error) {
	attempts := []urlAttempt{
		{kind: URLKindSigned, resolve: func(ctx context.Context, key string) (string, error) {
			return u.Store.SignedURL(ctx, key, u.SignedTTL)
		}},
		{kind: URLKindPublic, resolve: func(_ context.Context, key string) (string, error) {
			return u.Store.PublicURL(key)
		}},
	}

	var errs []error
	for _, a := range attempts {
		url, err := a.resolve(ctx, key)
		if err == nil && url != "" {
			return Resume{URL: url, Path: key, Kind: a.kind}, nil
		}
		if err != nil {
			if !errors.Is(err, object.ErrSigningUnsupported) {
				telemetry.Warn("resume.url.attempt_failed", map[string]any{
					"kind":  string(a.kind),
					"path":  key,
					"error": err,
				})
			}
			errs = append(errs, err)
		}
	}
	return Resume{}, fmt.Errorf("%w: %v", ErrNoURL, errors.Join(errs...))
}

func (u *Uploader) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}
