package server

import (
	"github.com/gin-gonic/gin"

	"profile-backend/internal/auth"
	"profile-backend/internal/services/health"
	"profile-backend/internal/shared/config"
	"profile-backend/internal/shared/metrics"
	"profile-backend/internal/shared/server/middleware"
	"profile-backend/internal/shared/server/respond"
	localstore "profile-backend/internal/shared/storage/object/local"
	"profile-backend/internal/users"
	"profile-backend/internal/workspace"
)

// RouterDeps are the handlers mounted under /api/v1. FilesDir, when set,
// is served at /files/ for the local object store.
type RouterDeps struct {
	Config         config.Config
	AuthHandler    *auth.Handler
	UserHandler    *users.Handler
	ProfileHandler *workspace.Handler
	Health         *health.Service
	FilesDir       string
}

var rateLimitRules = map[string]middleware.RateLimitRule{
	middleware.GroupDefault:  {Rate: 10, Burst: 30},
	middleware.GroupPipeline: {Rate: 0.2, Burst: 3},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth("/api/v1/auth/", "/api/v1/health", "/metrics", localstore.RoutePrefix),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rateLimitRules,
			GroupFor: middleware.PipelineGroup,
		}),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.FilesDir != "" {
		r.Static(localstore.RoutePrefix, deps.FilesDir)
	}

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status(c.Request.Context()))
	})
	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
