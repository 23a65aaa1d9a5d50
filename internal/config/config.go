package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Session  SessionConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret      string
	Issuer      string
	Audience    string
	ExpiryHours int
}

// RedisConfig holds the optional session liveness cache configuration.
// An empty host disables the cache; the database stays the source of
// truth either way.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// SessionConfig holds session enforcement configuration
type SessionConfig struct {
	// CheckLiveness makes the access gate reject cryptographically
	// valid tokens whose session has been revoked
	CheckLiveness bool
	// RetentionDays is how long expired session rows are kept before
	// the cleanup job purges them
	RetentionDays int
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Redis:    loadRedisConfig(),
		Session:  loadSessionConfig(),
	}

	// A missing signing secret is a configuration error and fatal at
	// startup, never a per-request failure
	if config.IsProd() && config.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set in prod mode")
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "bookhaven"),
	}
}

// loadJWTConfig loads token config based on mode
func loadJWTConfig(mode string) JWTConfig {
	secret := getEnv("DEV_JWT_SECRET", "dev_only_secret")
	if mode == "prod" {
		secret = getEnv("PROD_JWT_SECRET", "")
	}

	// Long-lived web session token, days not minutes
	expiryHours, _ := strconv.Atoi(getEnv("TOKEN_EXPIRY_HOURS", "72"))

	return JWTConfig{
		Secret:      secret,
		Issuer:      getEnv("JWT_ISSUER", "bookhaven"),
		Audience:    getEnv("JWT_AUDIENCE", "bookhaven-web"),
		ExpiryHours: expiryHours,
	}
}

// loadRedisConfig loads the optional redis config
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", ""),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
	}
}

// loadSessionConfig loads session enforcement config
func loadSessionConfig() SessionConfig {
	check, _ := strconv.ParseBool(getEnv("SESSION_CHECK", "true"))
	retention, _ := strconv.Atoi(getEnv("SESSION_RETENTION_DAYS", "30"))

	return SessionConfig{
		CheckLiveness: check,
		RetentionDays: retention,
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://shop.bookhaven.io"
	}
	return origins
}
