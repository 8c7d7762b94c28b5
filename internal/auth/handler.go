package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"profile-backend/internal/shared/server/respond"
)

type Handler struct {
	Password *PasswordService
	Google   *GoogleService
}

func NewHandler(password *PasswordService, google *GoogleService) *Handler {
	return &Handler{Password: password, Google: google}
}

// RegisterRoutes attaches the auth routes. They must be public.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", h.signUp)
	rg.POST("/auth/signin", h.signIn)
	rg.GET("/auth/google/start", h.googleStart)
	rg.POST("/auth/google/complete", h.googleComplete)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	session, err := h.Password.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	respond.Created(c, session)
}

func (h *Handler) signIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	session, err := h.Password.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	respond.OK(c, session)
}

func (h *Handler) googleStart(c *gin.Context) {
	res, err := h.Google.Start(c.Request.Context(), c.Query("redirectUrl"))
	if err != nil {
		writeAuthError(c, err)
		return
	}
	respond.OK(c, res)
}

type completeRequest struct {
	CallbackURL string `json:"callbackUrl"`
}

func (h *Handler) googleComplete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CallbackURL == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "callbackUrl is required", nil)
		return
	}
	session, err := h.Google.Complete(c.Request.Context(), req.CallbackURL)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	respond.OK(c, session)
}

func writeAuthError(c *gin.Context, err error) {
	var providerErr *ProviderError
	switch {
	case errors.As(err, &providerErr):
		respond.Error(c, http.StatusBadRequest, "oauth_error", providerErr.Error(), nil)
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNoAuthCode), errors.Is(err, ErrInvalidState), errors.Is(err, ErrExchangeFailed):
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "Invalid login credentials", nil)
	case errors.Is(err, ErrUserAlreadyExists):
		respond.Error(c, http.StatusConflict, "user_exists", "User already registered", nil)
	case errors.Is(err, ErrGoogleNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "auth_not_configured", err.Error(), nil)
	case errors.Is(err, ErrUserInfoFailed):
		respond.Error(c, http.StatusBadGateway, "auth_failed", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "authentication failed", nil)
	}
}
