package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Provider ProviderConfig
	Mailer   MailerConfig
	Session  SessionConfig
	App      AppConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	DSN       string
	ConnectTO time.Duration
	PingTO    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProviderConfig points at the hosted auth provider.
type ProviderConfig struct {
	URL       string
	PublicKey string
}

type MailerConfig struct {
	APIKey string
	From   string
}

type SessionConfig struct {
	CookieName   string
	TTL          time.Duration
	RefreshSkew  time.Duration
	CookieSecure bool
}

type AppConfig struct {
	Environment string
	Version     string
	SiteURL     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			DSN:       getEnv("DB_DSN", ""),
			ConnectTO: getEnvAsDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
			PingTO:    getEnvAsDuration("DB_PING_TIMEOUT", 2*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Provider: ProviderConfig{
			URL:       getEnv("PROVIDER_URL", ""),
			PublicKey: getEnv("PROVIDER_PUBLIC_KEY", ""),
		},
		Mailer: MailerConfig{
			APIKey: getEnv("EMAIL_API_KEY", ""),
			From:   getEnv("EMAIL_FROM", "no-reply@impactlens.app"),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE", "impact_session"),
			TTL:          getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
			RefreshSkew:  getEnvAsDuration("SESSION_REFRESH_SKEW", 60*time.Second),
			CookieSecure: getEnv("APP_ENV", "development") == "production",
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			SiteURL:     getEnv("SITE_URL", "http://localhost:3000"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if c.Provider.URL == "" {
		return fmt.Errorf("PROVIDER_URL is required")
	}

	if c.Provider.PublicKey == "" {
		return fmt.Errorf("PROVIDER_PUBLIC_KEY is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
