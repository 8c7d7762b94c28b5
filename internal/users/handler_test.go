package users

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"profile-backend/internal/shared/telemetry"
)

func newMeRouter(svc *Service, userID, email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		if email != "" {
			c.Set("userEmail", email)
		}
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestMeReturnsStoredUser(t *testing.T) {
	repo := NewMemoryRepo()
	_ = repo.Upsert(context.Background(), User{ID: "u1", Email: "ada@example.com", FullName: "Ada", Provider: ProviderGoogle})
	r := newMeRouter(NewService(repo), "u1", "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["fullName"] != "Ada" || body["provider"] != ProviderGoogle {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMeFallsBackToClaims(t *testing.T) {
	r := newMeRouter(NewService(NewMemoryRepo()), "u2", "grace@example.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["email"] != "grace@example.com" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMeRequiresIdentity(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	r := newMeRouter(NewService(NewMemoryRepo()), "", "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}
