// loads up the .env files to be used internally by Saffron.

package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is every environment driven setting Saffron reads on boot.
type Config struct {
	Env     string
	Version string

	SrvAddr    string
	SrvPort    string
	CORSOrigin string

	AccessSecret   string
	AccessTokenTTL time.Duration
	AdminUsername  string
	AdminPassword  string

	StoreDriver string
	StorePath   string
	StoreDSN    string

	RedisAddr         string
	RedisPort         string
	RedisPassword     string
	RedisDBNumber     int
	RedisTxMaxRetries int

	MenuFile      string
	UploadPath    string
	MaxUploadSize int64
	SSEHeartbeat  time.Duration

	SMSGatewayURL string
	SMSAPIKey     string
	SMSSender     string
	ResendAPIKey  string
	FromEmail     string

	// Values which couldn't be parsed and fell back to their default.
	Warnings []string
}

// Load reads the env file at path with godotenv (a missing file is fine, the
// environment may already be populated) and returns the typed configuration.
func Load(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	return FromEnv(), nil
}

// uses go package: godotenv to load up development enviroment variables
func LoadDevConfig() (Config, error) {
	return Load("config/dev.env")
}

// FromEnv builds a Config out of the current process environment.
func FromEnv() Config {
	c := Config{
		Env:           getenv("ENV", "DEV"),
		Version:       getenv("VERSION", "1.0.0"),
		SrvAddr:       os.Getenv("SRV_ADDR"),
		SrvPort:       getenv("SRV_PORT", "8080"),
		CORSOrigin:    getenv("CORS_ORIGIN", "*"),
		AccessSecret:  os.Getenv("ACCESS_SECRET"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		StoreDriver:   strings.ToLower(getenv("STORE_DRIVER", "json")),
		StorePath:     getenv("STORE_PATH", "data"),
		StoreDSN:      os.Getenv("STORE_DSN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPort:     getenv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		MenuFile:      getenv("MENU_FILE", "config/menu.yaml"),
		UploadPath:    getenv("UPLOAD_PATH", "uploads"),
		SMSGatewayURL: os.Getenv("SMS_GATEWAY_URL"),
		SMSAPIKey:     os.Getenv("SMS_API_KEY"),
		SMSSender:     getenv("SMS_SENDER", "SAFFRN"),
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		FromEmail:     getenv("FROM_EMAIL", "noreply@saffron.local"),
	}
	c.AccessTokenTTL = c.duration("ACCESS_TOKEN_TTL", 12*time.Hour)
	c.SSEHeartbeat = c.duration("SSE_HEARTBEAT", 20*time.Second)
	c.RedisDBNumber = int(c.integer("REDIS_DB_NUMBER", 0))
	c.RedisTxMaxRetries = int(c.integer("REDIS_TX_MAX_RETRIES", 5))
	// Default to 5MBs, menu images only
	c.MaxUploadSize = c.integer("MAX_UPLOAD_SIZE", 5242880)
	return c
}

// IsDev reports whether Saffron runs in the local development environment.
func (c Config) IsDev() bool {
	return c.Env == "DEV"
}

// RedisEnabled reports whether a Redis server is configured.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		c.Warnings = append(c.Warnings, key)
		return fallback
	}
	return d
}

func (c *Config) integer(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.Warnings = append(c.Warnings, key)
		return fallback
	}
	return n
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
