package llm

import (
	"context"
	"errors"
	"fmt"

	"profile-backend/internal/profile"
)

// Client abstracts structured-extraction providers for resume text.
type Client interface {
	ExtractProfile(ctx context.Context, resumeText string) (profile.ExtractionResult, error)
}

var (
	// ErrMissingCredential is returned before any network call when no API key is configured.
	ErrMissingCredential = errors.New("extraction service API key is not configured")

	// ErrEmptyResponse is returned when the service answers without content.
	ErrEmptyResponse = errors.New("No content received from OpenAI")

	// ErrMalformedResponse is returned when the content is not the expected JSON object.
	ErrMalformedResponse = errors.New("malformed extraction response")
)

// ServiceError is a non-success answer from the extraction service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("OpenAI API error: %d %s", e.Status, e.Message)
}

// UnavailableClient is used when no provider is configured.
type UnavailableClient struct{}

// ExtractProfile returns ErrMissingCredential.
func (UnavailableClient) ExtractProfile(context.Context, string) (profile.ExtractionResult, error) {
	return profile.ExtractionResult{}, ErrMissingCredential
}
