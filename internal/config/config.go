package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration read from the environment.
type Config struct {
	Port     string
	LogLevel string
	LogJSON  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	SessionTTL    time.Duration

	MountTTL time.Duration

	CollectorURL     string
	CollectorTimeout time.Duration
	CheckoutURL      string

	// EncryptionKey is base64 and must decode to 32 bytes. Empty disables encryption.
	EncryptionKey  string
	FallbackKeys   []string
	AllowedOrigins []string
	CookieSecure   bool
}

// LoadDotEnv loads the given .env files (default ".env") into the environment.
// Missing files are not an error; existing variables are never overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvAsBool("LOG_JSON", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", "funnel:"),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		MountTTL: getEnvAsDuration("MOUNT_TTL", 30*time.Minute),

		CollectorURL:     getEnv("COLLECTOR_URL", ""),
		CollectorTimeout: getEnvAsDuration("COLLECTOR_TIMEOUT", 10*time.Second),
		CheckoutURL:      getEnv("CHECKOUT_URL", ""),

		EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
		FallbackKeys:   getEnvAsList("ENCRYPTION_FALLBACK_KEYS"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),
		CookieSecure:   getEnvAsBool("COOKIE_SECURE", false),
	}
}

// Keys decodes the active and fallback encryption keys.
// It returns a nil active key when encryption is not configured.
func (c *Config) Keys() (active []byte, fallback [][]byte, err error) {
	if c.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(c.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("ENCRYPTION_KEY: %w", err)
	}
	for i, raw := range c.FallbackKeys {
		k, err := decodeKey(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("ENCRYPTION_FALLBACK_KEYS[%d]: %w", i, err)
		}
		fallback = append(fallback, k)
	}
	return active, fallback, nil
}

func decodeKey(raw string) ([]byte, error) {
	k, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if len(k) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(k))
	}
	return k, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
