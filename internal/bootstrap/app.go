package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"profile-backend/internal/auth"
	"profile-backend/internal/llm"
	openai "profile-backend/internal/llm/openai"
	"profile-backend/internal/profile"
	"profile-backend/internal/profilestore"
	"profile-backend/internal/resumes"
	"profile-backend/internal/services/health"
	"profile-backend/internal/shared/config"
	"profile-backend/internal/shared/server"
	"profile-backend/internal/shared/storage/db"
	"profile-backend/internal/shared/storage/kv"
	"profile-backend/internal/shared/storage/object"
	localstore "profile-backend/internal/shared/storage/object/local"
	s3store "profile-backend/internal/shared/storage/object/s3"
	"profile-backend/internal/shared/telemetry"
	"profile-backend/internal/users"
	"profile-backend/internal/workspace"
)

const llmTimeout = 60 * time.Second

// App holds shared dependencies and the HTTP router.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Fallback         *kv.Cache
	Store            object.ObjectStore
	LLM              llm.Client
	Gateway          *profilestore.Gateway
	UsersService     *users.Service
	PasswordAuth     *auth.PasswordService
	GoogleAuth       *auth.GoogleService
	WorkspaceService *workspace.Service
	Health           *health.Service

	closers []func() error
}

// Build prepares dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if cfg.JWTSecret != "" && os.Getenv("JWT_SECRET") == "" {
		_ = os.Setenv("JWT_SECRET", cfg.JWTSecret)
	}

	app := &App{Config: cfg, Health: health.NewService()}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	fallback, err := app.buildFallback(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Fallback = fallback

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	app.LLM = openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.LLMModel,
		Timeout: llmTimeout,
	})

	app.buildServices(ctx)
	if app.DB != nil {
		app.Health.Register("postgres", app.DB.PingContext)
	}

	var filesDir string
	if local, ok := store.(*localstore.Store); ok {
		filesDir = local.Dir()
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		AuthHandler:    auth.NewHandler(app.PasswordAuth, app.GoogleAuth),
		UserHandler:    users.NewHandler(app.UsersService),
		ProfileHandler: workspace.NewHandler(app.WorkspaceService),
		Health:         app.Health,
		FilesDir:       filesDir,
	})
	return app, nil
}

// Close releases database and cache handles.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			telemetry.Warn("bootstrap.db.migrate_failed", map[string]any{"error": err})
		}
	}
	return sqlDB, nil
}

func (a *App) buildFallback(ctx context.Context, cfg config.Config) (*kv.Cache, error) {
	var backing kv.Store
	if path := strings.TrimSpace(cfg.FallbackDBPath); path != "" {
		sqliteStore, err := kv.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sqliteStore.Close)
		a.Health.Register("fallback", sqliteStore.DB.PingContext)
		backing = sqliteStore
	} else {
		backing = kv.NewMemoryStore()
	}
	cache := kv.NewCache(backing)
	if err := cache.Warm(ctx); err != nil {
		return nil, err
	}
	return cache, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:        cfg.AWSRegion,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			KMSKeyID:      cfg.SSEKMSKeyID,
			PublicBaseURL: strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
		})
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

func (a *App) buildServices(ctx context.Context) {
	var userRepo users.Repo
	var profileRepo profilestore.Repo
	if a.DB != nil {
		userRepo = &users.PGRepo{DB: a.DB}
		profileRepo = &profilestore.PGRepo{DB: a.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		profileRepo = profilestore.NewMemoryRepo()
	}

	a.UsersService = users.NewService(userRepo)
	a.PasswordAuth = auth.NewPasswordService(a.UsersService)
	a.GoogleAuth = auth.NewGoogleService(
		a.Config.GoogleClientID,
		a.Config.GoogleClientSecret,
		a.Config.GoogleRedirectURL,
		a.buildStateStore(ctx),
		a.UsersService,
	)

	a.Gateway = profilestore.NewGateway(profileRepo, a.Fallback)
	a.WorkspaceService = workspace.NewService(
		a.Gateway,
		a.LLM,
		profile.ReconcilerFor(a.Config.ReconcileStrategy),
		resumes.NewUploader(a.Store, a.Config.SignedURLTTL),
	)
}

func (a *App) buildStateStore(ctx context.Context) auth.StateStore {
	url := strings.TrimSpace(a.Config.RedisURL)
	if url == "" {
		return auth.NewMemoryStateStore()
	}
	redisStore, err := auth.NewRedisStateStore(url)
	if err != nil {
		telemetry.Warn("bootstrap.redis.invalid_url", map[string]any{"error": err})
		return auth.NewMemoryStateStore()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisStore.Ping(pingCtx); err != nil {
		telemetry.Warn("bootstrap.redis.unreachable", map[string]any{"error": err})
		_ = redisStore.Close()
		return auth.NewMemoryStateStore()
	}
	a.closers = append(a.closers, redisStore.Close)
	a.Health.Register("redis", redisStore.Ping)
	return redisStore
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
