package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreSQL       = "sql"
	StoreFirestore = "firestore"
	StoreMemory    = "memory"

	GenAIHTTP  = "http"
	GenAISDK   = "genai"
	GenAIMock  = "mock"
	DefaultURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"
)

type Config struct {
	// Application
	AppEnv string
	Port   string

	// Goal store
	StoreBackend     string // "sql", "firestore" or "memory"
	DBDriver         string
	DBConnection     string
	FirestoreProject string
	GoalsCollection  string

	// Generative text service
	GenAIBackend string // "http", "genai" or "mock"
	GenAIAPIURL  string
	GenAIAPIKey  string
	GenAIModel   string
	GenAITimeout time.Duration

	// Security
	JWTSecret    string
	JWTExpiry    time.Duration
	AuthRequired bool

	// Rate limiting for generation requests
	GenerateRateLimit  int
	GenerateRateWindow time.Duration
	// TrustProxy keys rate limits on X-Forwarded-For / X-Real-IP.
	TrustProxy         bool

	// Observability (optional)
	SentryDSN string

	// Archive storage (S3-compatible, optional)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration
	ArchiveSchedule string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	appEnv := envRequired("APP_ENV") // 'development' or 'production'
	defaultGenAI := GenAIHTTP
	if appEnv == "development" {
		defaultGenAI = GenAIMock
	}

	cfg := &Config{
		AppEnv: appEnv,
		Port:   envString("PORT", "8090"),

		StoreBackend:     envString("STORE_BACKEND", StoreSQL),
		DBDriver:         envString("DB_DRIVER", "sqlite"),
		DBConnection:     envString("DB_CONNECTION", "./data/goals.db?_pragma=journal_mode(WAL)"),
		FirestoreProject: envString("FIRESTORE_PROJECT", ""),
		GoalsCollection:  envString("GOALS_COLLECTION", "goals"),

		GenAIBackend: envString("GENAI_BACKEND", defaultGenAI),
		GenAIAPIURL:  envString("GENAI_API_URL", DefaultURL),
		GenAIAPIKey:  envString("GENAI_API_KEY", ""),
		GenAIModel:   envString("GENAI_MODEL", "gemini-2.5-flash"),
		GenAITimeout: envDuration("GENAI_TIMEOUT", 60*time.Second),

		JWTSecret:    envString("JWT_SECRET", ""),
		JWTExpiry:    envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days
		AuthRequired: envBool("AUTH_REQUIRED", appEnv == "production"),

		GenerateRateLimit:  envInt("GENERATE_RATE_LIMIT", 10),
		GenerateRateWindow: envDuration("GENERATE_RATE_WINDOW", time.Minute),
		TrustProxy:         envBool("TRUST_PROXY", false),

		SentryDSN: envString("SENTRY_DSN", ""),

		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", time.Hour),
		ArchiveSchedule: envString("ARCHIVE_SCHEDULE", ""),
	}

	err = cfg.Validate()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	return cfg
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreSQL, StoreMemory:
	case StoreFirestore:
		if c.FirestoreProject == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT is required for the firestore store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.GenAIBackend {
	case GenAIMock:
		if c.IsProduction() {
			errs = append(errs, errors.New("GENAI_BACKEND=mock is not allowed in production"))
		}
	case GenAIHTTP, GenAISDK:
		if c.GenAIAPIKey == "" {
			errs = append(errs, fmt.Errorf("GENAI_API_KEY is required for the %s backend", c.GenAIBackend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown GENAI_BACKEND %q", c.GenAIBackend))
	}

	if c.AuthRequired && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when AUTH_REQUIRED is set"))
	}
	if c.ArchiveSchedule != "" && !c.ArchiveEnabled() {
		errs = append(errs, errors.New("ARCHIVE_SCHEDULE requires S3_BUCKET"))
	}
	if c.GenerateRateLimit < 0 {
		errs = append(errs, errors.New("GENERATE_RATE_LIMIT must not be negative"))
	}

	return errors.Join(errs...)
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ArchiveEnabled reports whether goal archives can be written to object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}
