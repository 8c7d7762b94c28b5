package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"profile-backend/internal/users"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserAlreadyExists  = errors.New("user already registered")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// PasswordService handles email and password accounts.
type PasswordService struct {
	Users *users.Service
}

func NewPasswordService(svc *users.Service) *PasswordService {
	return &PasswordService{Users: svc}
}

func (s *PasswordService) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return Session{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return Session{}, ErrWeakPassword
	}

	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return Session{}, ErrUserAlreadyExists
	} else if !errors.Is(err, users.ErrNotFound) {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, err
	}
	user := users.User{
		ID:           uuid.NewString(),
		Email:        email,
		Provider:     users.ProviderPassword,
		PasswordHash: string(hash),
	}
	if err := s.Users.UpsertFromAuth(ctx, user); err != nil {
		return Session{}, err
	}
	return issueSession(user)
}

func (s *PasswordService) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return issueSession(user)
}
