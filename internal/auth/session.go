package auth

import (
	sharedauth "profile-backend/internal/shared/auth"
	"profile-backend/internal/users"
)

// Session is what a successful sign-in hands back to the client.
type Session struct {
	Token string     `json:"token"`
	User  users.User `json:"user"`
}

func issueSession(user users.User) (Session, error) {
	claims := sharedauth.Claims{
		Email:    user.Email,
		Name:     user.FullName,
		Picture:  user.PictureURL,
		Provider: user.Provider,
	}
	claims.Subject = user.ID
	token, err := sharedauth.SignJWT(claims)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}
