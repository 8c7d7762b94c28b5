package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"profile-backend/internal/shared/telemetry"
)

func TestRecoveryLogsAndReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	r := gin.New()
	r.Use(RequestID(), func(c *gin.Context) {
		c.Set("userId", "user-9")
		c.Next()
	}, Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Unexpected server error") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	logged := buf.String()
	if !strings.Contains(logged, "kaboom") || !strings.Contains(logged, "user-9") {
		t.Fatalf("panic log missing fields: %s", logged)
	}
}
