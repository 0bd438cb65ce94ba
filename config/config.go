package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
// It is built once in main and handed to the components that need it.
type Config struct {
	DatabaseURL string
	ServerPort  int
	PublicURL   string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieTTL       time.Duration
	CookieSecure    bool
	UserSessionTTL  time.Duration

	MailDSN  string
	MailFrom string

	RedisURL    string
	CORSOrigins []string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	MCPAddr   string
	MCPAPIKey string

	RecalculateSchedule  string
	TokenCleanupSchedule string
}

// R2Enabled reports whether every Cloudflare R2 setting is present.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// A .env file is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		DatabaseURL:          get("DATABASE_URL", ""),
		JWTSecretKey:         get("JWT_SECRET_KEY", ""),
		PublicURL:            strings.TrimRight(get("PUBLIC_URL", "http://localhost:8080"), "/"),
		MailDSN:              get("MAIL_DSN", ""),
		MailFrom:             get("MAIL_FROM", "Tournament <postmaster@localhost>"),
		RedisURL:             get("REDIS_URL", ""),
		R2AccountID:          get("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:        get("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:    get("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:         get("R2_BUCKET_NAME", ""),
		R2PublicBaseURL:      get("R2_PUBLIC_BASE_URL", ""),
		MCPAddr:              get("MCP_ADDR", ":8090"),
		MCPAPIKey:            get("MCP_API_KEY", ""),
		RecalculateSchedule:  get("RECALCULATE_SCHEDULE", "0 0 * * * *"),
		TokenCleanupSchedule: get("TOKEN_CLEANUP_SCHEDULE", "0 */15 * * * *"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(get("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", "15m", &cfg.AccessTokenTTL},
		{"REFRESH_TOKEN_TTL", "720h", &cfg.RefreshTokenTTL},
		{"COOKIE_TTL", "168h", &cfg.CookieTTL},
		{"USER_SESSION_TTL", "1h", &cfg.UserSessionTTL},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(get(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s environment variable: %w", d.key, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", d.key, v)
		}
		*d.dst = v
	}

	secure, err := strconv.ParseBool(get("COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE environment variable: %w", err)
	}
	cfg.CookieSecure = secure

	for _, origin := range strings.Split(get("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg, nil
}
