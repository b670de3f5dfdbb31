// Package config loads the server configuration from environment variables.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vignesh0909/adbond.net-sub002/pkg/crypto"
	"github.com/vignesh0909/adbond.net-sub002/pkg/ratelimit"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Upload    UploadConfig
	Email     EmailConfig
	Security  SecurityConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Janitor   JanitorConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
	// WSOrigins limits the Origin header of WebSocket upgrades. Empty or "*"
	// accepts any origin.
	WSOrigins []string
	// TrustedProxies are IPs or CIDRs whose forwarding headers are believed
	// when resolving the client address.
	TrustedProxies []string
}

type DatabaseConfig struct {
	Path string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  int // minutes
	RefreshTokenExpiry int // days
}

type UploadConfig struct {
	Dir     string
	MaxSize int64 // bytes
}

// EmailConfig enables transactional mail through Resend. Without an API
// key mail is disabled and reset links are only logged.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	AppURL       string
}

func (c EmailConfig) Enabled() bool {
	return c.ResendAPIKey != "" && c.FromEmail != ""
}

type SecurityConfig struct {
	// EncryptionKey is the 32-byte AES key for document numbers.
	EncryptionKey []byte
	// KeyDerived is true when ENCRYPTION_KEY was empty and the key was
	// derived from JWT_SECRET.
	KeyDerived bool
}

type LogConfig struct {
	Level  string
	Format string
}

type RateLimitConfig struct {
	APIRequestsPerSecond float64 // 0 disables the API limiter
	APIBurst             int
}

type JanitorConfig struct {
	Interval time.Duration
}

// Load builds the Config. JWT_SECRET is the only required variable.
func Load() (*Config, error) {
	// Missing .env is fine; production sets real variables.
	_ = godotenv.Load()

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	accessExpiry, err := intEnv("JWT_ACCESS_EXPIRY_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	refreshExpiry, err := intEnv("JWT_REFRESH_EXPIRY_DAYS", 7)
	if err != nil {
		return nil, err
	}
	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "10485760"), 10, 64) // 10MB
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}
	rps, err := strconv.ParseFloat(getEnv("API_RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid API_RATE_LIMIT_RPS: %w", err)
	}
	burst, err := intEnv("API_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, err
	}
	interval, err := time.ParseDuration(getEnv("JANITOR_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JANITOR_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid JANITOR_INTERVAL: must be positive")
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	security := SecurityConfig{}
	if raw := getEnv("ENCRYPTION_KEY", ""); raw != "" {
		key, err := crypto.DeriveKey(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ENCRYPTION_KEY: %w", err)
		}
		security.EncryptionKey = key
	} else {
		security.EncryptionKey = crypto.KeyFromSecret(jwtSecret)
		security.KeyDerived = true
	}

	trustedProxies := listEnv("TRUSTED_PROXIES", "")
	if _, err := ratelimit.NewIPResolver(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			CORSOrigins:    listEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
			WSOrigins:      listEnv("WS_ALLOWED_ORIGINS", ""),
			TrustedProxies: trustedProxies,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/adbond.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "./data/uploads"),
			MaxSize: maxSize,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			AppURL:       strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		},
		Security: security,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			APIRequestsPerSecond: rps,
			APIBurst:             burst,
		},
		Janitor: JanitorConfig{
			Interval: interval,
		},
	}

	return cfg, nil
}

// Addr returns the listen address, e.g. "0.0.0.0:8080".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// listEnv splits a comma separated variable and drops empty entries.
func listEnv(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
