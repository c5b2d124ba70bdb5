package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration

	// GeminiAPIKey may be empty; the pipeline then skips the model call and
	// echoes the first input image instead.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	ImageKitPublicKey  string
	ImageKitPrivateKey string
	ImageKitUploadURL  string
	UploadFolder       string

	FetchTimeout   time.Duration
	ModelTimeout   time.Duration
	PublishTimeout time.Duration

	CacheEnable   bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	GeoIPDBPath     string
	AllowedOrigins  []string
	RateLimitPerMin int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		AccessTokenTTL:     time.Minute * time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 15)),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		RefreshTokenTTL:    time.Hour * time.Duration(getEnvInt("REFRESH_TOKEN_TTL_HOURS", 168)),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-image-preview"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		ImageKitPublicKey:  os.Getenv("IMAGEKIT_PUBLIC_KEY"),
		ImageKitPrivateKey: os.Getenv("IMAGEKIT_PRIVATE_KEY"),
		ImageKitUploadURL:  getEnv("IMAGEKIT_UPLOAD_URL", "https://upload.imagekit.io"),
		UploadFolder:       getEnv("UPLOAD_FOLDER", "/generated/thumbnails"),

		FetchTimeout:   time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 15)),
		ModelTimeout:   time.Second * time.Duration(getEnvInt("MODEL_TIMEOUT_SECONDS", 120)),
		PublishTimeout: time.Second * time.Duration(getEnvInt("PUBLISH_TIMEOUT_SECONDS", 30)),

		CacheEnable:   getEnv("CACHE_ENABLE", "false") == "true",
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisTTL:      time.Minute * time.Duration(getEnvInt("REDIS_TTL_MINUTES", 10)),

		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),
		AllowedOrigins:  splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if cfg.RefreshTokenSecret == "" {
		cfg.RefreshTokenSecret = cfg.AccessTokenSecret
	}
	if cfg.ImageKitPrivateKey == "" {
		return nil, fmt.Errorf("IMAGEKIT_PRIVATE_KEY is required")
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

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
