package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"profile-backend/internal/shared/telemetry"
	"profile-backend/internal/users"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	ErrGoogleNotConfigured = errors.New("Google auth not configured")
	ErrInvalidState        = errors.New("invalid or expired state")
	ErrExchangeFailed      = errors.New("failed to exchange code")
	ErrUserInfoFailed      = errors.New("failed to fetch user profile")
)

// GoogleService runs the Google OAuth flow for clients that open the
// provider page themselves and post the final redirect URL back.
type GoogleService struct {
	oauthConfig *oauth2.Config
	userInfoURL string
	stateTTL    time.Duration
	states      StateStore
	users       *users.Service
}

// NewGoogleService builds a GoogleService. defaultRedirect is used when a
// flow is started without an explicit redirect URL.
func NewGoogleService(clientID, clientSecret, defaultRedirect string, states StateStore, userSvc *users.Service) *GoogleService {
	if states == nil {
		states = NewMemoryStateStore()
	}
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  defaultRedirect,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		stateTTL:    5 * time.Minute,
		states:      states,
		users:       userSvc,
	}
}

// StartResult is handed to the client so it can open the provider page.
type StartResult struct {
	AuthURL     string `json:"authUrl"`
	State       string `json:"state"`
	RedirectURL string `json:"redirectUrl"`
}

func (s *GoogleService) configured() bool {
	return s.oauthConfig.ClientID != "" && s.oauthConfig.ClientSecret != ""
}

// Start creates a state and returns the authorization URL.
func (s *GoogleService) Start(ctx context.Context, redirectURL string) (StartResult, error) {
	redirectURL = strings.TrimSpace(redirectURL)
	if redirectURL == "" {
		redirectURL = s.oauthConfig.RedirectURL
	}
	if !s.configured() || redirectURL == "" {
		return StartResult{}, ErrGoogleNotConfigured
	}

	state := uuid.NewString()
	if err := s.states.Put(ctx, state, redirectURL, s.stateTTL); err != nil {
		return StartResult{}, fmt.Errorf("store oauth state: %w", err)
	}

	cfg := s.configFor(redirectURL)
	return StartResult{
		AuthURL:     cfg.AuthCodeURL(state, oauth2.AccessTypeOffline),
		State:       state,
		RedirectURL: redirectURL,
	}, nil
}

// Complete reads the code from the final redirect URL, exchanges it and
// signs the user in.
func (s *GoogleService) Complete(ctx context.Context, callbackURL string) (Session, error) {
	if !s.configured() {
		return Session{}, ErrGoogleNotConfigured
	}
	cb, err := ExtractAuthCode(callbackURL)
	if err != nil {
		return Session{}, err
	}
	if cb.State == "" {
		return Session{}, ErrInvalidState
	}
	redirectURL, ok, err := s.states.Consume(ctx, cb.State)
	if err != nil {
		return Session{}, fmt.Errorf("consume oauth state: %w", err)
	}
	if !ok {
		return Session{}, ErrInvalidState
	}

	cfg := s.configFor(redirectURL)
	token, err := cfg.Exchange(ctx, cb.Code)
	if err != nil {
		telemetry.Warn("auth.google.exchange_failed", map[string]any{"error": err})
		return Session{}, ErrExchangeFailed
	}

	info, err := s.fetchUserInfo(ctx, cfg, token)
	if err != nil {
		telemetry.Warn("auth.google.userinfo_failed", map[string]any{"error": err})
		return Session{}, ErrUserInfoFailed
	}
	if info.Sub == "" || info.Email == "" {
		return Session{}, ErrUserInfoFailed
	}

	user, err := s.upsertUser(ctx, info)
	if err != nil {
		return Session{}, err
	}
	return issueSession(user)
}

func (s *GoogleService) upsertUser(ctx context.Context, info googleUserInfo) (users.User, error) {
	user := users.User{
		ID:         "google:" + info.Sub,
		Email:      info.Email,
		FullName:   info.Name,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
		PictureURL: info.Picture,
		Provider:   users.ProviderGoogle,
	}
	if s.users == nil {
		return user, nil
	}
	// An account created with a password keeps its id and hash.
	if existing, err := s.users.GetByEmail(ctx, info.Email); err == nil {
		user.ID = existing.ID
		user.PasswordHash = existing.PasswordHash
	} else if !errors.Is(err, users.ErrNotFound) {
		return users.User{}, err
	}
	if err := s.users.UpsertFromAuth(ctx, user); err != nil {
		return users.User{}, err
	}
	return user, nil
}

func (s *GoogleService) configFor(redirectURL string) *oauth2.Config {
	cfg := *s.oauthConfig
	cfg.RedirectURL = redirectURL
	return &cfg
}

type googleUserInfo struct {
	Sub        string `json:"sub"`
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

func (s *GoogleService) fetchUserInfo(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (googleUserInfo, error) {
	client := cfg.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}

	// The v2 endpoint uses "id" instead of "sub".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	return info, nil
}
