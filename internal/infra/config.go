package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	WorkerMetricsAddr string
	DatabaseURL       string
	DBMaxConns        int32

	JobPollInterval     time.Duration
	JobStaleAfter       time.Duration
	JobTimeout          time.Duration
	StaticConfigFile    string
	RecentArticleWindow int

	StorageBackend string
	StoragePath    string
	StorageBaseURL string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	GeminiBaseURL    string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	OpenAIOrg        string
	DefaultProvider  string

	ImageMaxAttempts int
	ImageRetryDelays []time.Duration
	ImageConcurrency int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	CORSOrigins      []string
	RateLimitPerMin  int
}

const (
	StorageFilesystem = "filesystem"
	StorageMinio      = "minio"
)

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// Values from .env and .env.local are used for keys not already set.
func LoadConfig() (*Config, error) {
	for _, file := range []string{".env.local", ".env"} {
		_ = godotenv.Load(file)
	}

	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                port,
		WorkerMetricsAddr:   os.Getenv("WORKER_METRICS_ADDR"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DBMaxConns:          int32(getEnvInt("DB_MAX_CONNS", 10)),
		JobPollInterval:     getEnvDuration("JOB_POLL_INTERVAL", 2*time.Second),
		JobStaleAfter:       getEnvDuration("JOB_STALE_AFTER", 0),
		JobTimeout:          getEnvDuration("JOB_TIMEOUT", 15*time.Minute),
		StaticConfigFile:    os.Getenv("STATIC_CONFIG_FILE"),
		RecentArticleWindow: getEnvInt("RECENT_ARTICLE_WINDOW", 20),
		StorageBackend:      strings.ToLower(getEnv("STORAGE_BACKEND", StorageFilesystem)),
		StoragePath:         getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:      getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		MinioEndpoint:       os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:      os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:      os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:         getEnv("MINIO_BUCKET", "article-assets"),
		MinioUseSSL:         getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL:      os.Getenv("MINIO_PUBLIC_URL"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:    getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:           os.Getenv("OPENAI_ORG"),
		DefaultProvider:     strings.ToLower(getEnv("LLM_DEFAULT_PROVIDER", "openai")),
		ImageMaxAttempts:    getEnvInt("IMAGE_MAX_ATTEMPTS", 3),
		ImageRetryDelays:    getEnvDurations("IMAGE_RETRY_DELAYS", []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}),
		ImageConcurrency:    getEnvInt("IMAGE_CONCURRENCY", 3),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		CORSOrigins:         getEnvList("API_CORS_ORIGINS"),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	switch cfg.StorageBackend {
	case StorageFilesystem:
	case StorageMinio:
		if cfg.MinioEndpoint == "" {
			return nil, fmt.Errorf("MINIO_ENDPOINT is required when STORAGE_BACKEND=minio")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if cfg.ImageMaxAttempts < 1 {
		return nil, fmt.Errorf("IMAGE_MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvDurations parses a list like "5s,10s,20s". Any invalid entry keeps
// the fallback.
func getEnvDurations(key string, fallback []time.Duration) []time.Duration {
	parts := getEnvList(key)
	if len(parts) == 0 {
		return fallback
	}
	out := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(p)
		if err != nil || d < 0 {
			return fallback
		}
		out = append(out, d)
	}
	return out
}
