package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BackendURL       string
	HTTPPort         string
	LogLevel         string
	AppEnv           string
	SessionSecret    string
	DatabaseURL      string
	RequestTimeout   time.Duration
	ChatTimeout      time.Duration
	CacheTTL         time.Duration
	SessionIdleTTL   time.Duration
	// SessionRetention bounds both the cookie lifetime and how long an untouched
	// session stays in the database.
	SessionRetention time.Duration
	MaxHistory       int
}

var AppConfig Config

// Defaults returns the configuration used when no environment is set.
// SessionSecret is left empty; Validate rejects that, so serving needs one.
func Defaults() Config {
	return Config{
		BackendURL:       "http://localhost:8000",
		HTTPPort:         "8080",
		LogLevel:         "INFO",
		AppEnv:           "dev",
		DatabaseURL:      "unibio_workbench.db",
		RequestTimeout:   30 * time.Second,
		ChatTimeout:      120 * time.Second,
		CacheTTL:         10 * time.Minute,
		SessionIdleTTL:   30 * time.Minute,
		SessionRetention: 30 * 24 * time.Hour,
		MaxHistory:       50,
	}
}

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	def := Defaults()
	AppConfig = Config{
		BackendURL:       getEnv("BACKEND_URL", def.BackendURL),
		HTTPPort:         getEnv("HTTP_PORT", def.HTTPPort),
		LogLevel:         getEnv("LOG_LEVEL", def.LogLevel),
		AppEnv:           getEnv("APP_ENV", def.AppEnv),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		DatabaseURL:      getEnv("DATABASE_URL", def.DatabaseURL),
		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", def.RequestTimeout),
		ChatTimeout:      getEnvAsDuration("CHAT_TIMEOUT", def.ChatTimeout),
		CacheTTL:         getEnvAsDuration("CACHE_TTL", def.CacheTTL),
		SessionIdleTTL:   getEnvAsDuration("SESSION_IDLE_TTL", def.SessionIdleTTL),
		SessionRetention: getEnvAsDuration("SESSION_RETENTION", def.SessionRetention),
		MaxHistory:       getEnvAsInt("CHAT_MAX_HISTORY", def.MaxHistory),
	}
}

// Validate checks the settings the web server cannot run without. Commands that never
// issue session cookies skip it.
func (c Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET environment variable is required")
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}
