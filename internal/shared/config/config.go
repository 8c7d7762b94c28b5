package config

import (
	"os"
	"strings"
	"time"

	"profile-backend/internal/shared/telemetry"
)

const defaultSignedURLTTL = 365 * 24 * time.Hour

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	CORSAllowOrigin    []string
	DatabaseURL        string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	LLMModel           string
	ObjectStoreType    string
	LocalStoreDir      string
	PublicBaseURL      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	SignedURLTTL       time.Duration
	FallbackDBPath     string
	RedisURL           string
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	ReconcileStrategy  string
}

// Load reads configuration from .env files, the optional CONFIG_FILE and
// environment variables, in increasing priority. Missing credentials are
// logged and never abort startup.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var fc FileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			telemetry.Warn("config.file_failed", map[string]any{"path": path, "err": err})
		} else {
			fc = loaded
		}
	}

	cfg := Config{
		Port:               getEnv("PORT", fc.Server.Port, "8080"),
		Env:                normalizeEnv(getEnv("ENV", fc.Server.Env, "dev")),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", strings.Join(fc.Server.CORSAllowOrigins, ","), "chrome-extension://*")),
		DatabaseURL:        getEnv("DATABASE_URL", fc.Database.URL, ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", fc.LLM.APIKey, ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", fc.LLM.BaseURL, ""),
		LLMModel:           getEnv("LLM_MODEL", fc.LLM.Model, "gpt-4o-mini"),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", fc.Storage.Type, "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", fc.Storage.LocalDir, "./data"),
		AWSRegion:          getEnv("AWS_REGION", fc.Storage.Region, ""),
		S3Bucket:           getEnv("S3_BUCKET", fc.Storage.Bucket, ""),
		S3Prefix:           getEnv("S3_PREFIX", fc.Storage.Prefix, ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", fc.Storage.SSEKMSKeyID, ""),
		SignedURLTTL:       parseDuration(getEnv("SIGNED_URL_TTL", fc.Storage.SignedURLTTL, ""), defaultSignedURLTTL),
		FallbackDBPath:     getEnv("FALLBACK_DB_PATH", fc.Fallback.Path, ""),
		RedisURL:           getEnv("REDIS_URL", fc.Redis.URL, ""),
		JWTSecret:          getEnv("JWT_SECRET", fc.Auth.JWTSecret, ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", fc.Auth.GoogleClientID, ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", fc.Auth.GoogleClientSecret, ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", fc.Auth.GoogleRedirectURL, ""),
		ReconcileStrategy:  getEnv("PROFILE_RECONCILE", fc.Profile.Reconcile, "overwrite"),
	}
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", fc.Storage.PublicBaseURL, "http://localhost:"+cfg.Port)

	if cfg.OpenAIAPIKey == "" {
		telemetry.Warn("config.missing", map[string]any{"key": "OPENAI_API_KEY"})
	}
	if cfg.DatabaseURL == "" {
		telemetry.Warn("config.missing", map[string]any{"key": "DATABASE_URL"})
	}
	return cfg
}

func getEnv(key, fileVal, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if strings.TrimSpace(fileVal) != "" {
		return fileVal
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
