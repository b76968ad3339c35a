package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(LevelForEnv(GetEnvWithDefault("APP_ENV", "development")))
}

// LevelForEnv maps an APP_ENV value to the default log level
func LevelForEnv(environment string) logrus.Level {
	switch environment {
	case "development":
		return logrus.DebugLevel
	case "production":
		return logrus.ErrorLevel
	default:
		// Default to info level for other environments
		return logrus.InfoLevel
	}
}

const (
	devJWTSecret       = "bonos-development-secret-change-me"
	minProdSecretBytes = 32
)

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Env  string `json:"env"`
	Port int    `json:"port"`
	Host string `json:"host"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_ssl_mode"`
	DBPath     string `json:"db_path"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret          string `json:"jwt_secret"`
	JWTIssuer          string `json:"jwt_issuer"`
	SessionTTLMinutes  int    `json:"session_ttl_minutes"`
	OAuthTokenMinutes  int    `json:"oauth_token_minutes"`
	SecureCookies      bool   `json:"secure_cookies"`
	LoginRatePerMinute int    `json:"login_rate_per_minute"`

	// Uploads
	UploadDir      string `json:"upload_dir"`
	MaxUploadBytes int    `json:"max_upload_bytes"`

	// Offer list cache, disabled when RedisAddr is empty
	RedisAddr       string `json:"redis_addr"`
	RedisPassword   string `json:"redis_password"`
	RedisDB         int    `json:"redis_db"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds"`

	CORSAllowedOrigins []string `json:"cors_allowed_origins"`
	// TrustedProxies may set X-Forwarded-For; empty means the peer address is the client IP
	TrustedProxies []string `json:"trusted_proxies"`
	SeedDemoData   bool     `json:"seed_demo_data"`
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Port: %d, Host: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], DBPath: %s, LogLevel: %s, JWTSecret: [REDACTED], SessionTTLMinutes: %d, UploadDir: %s, RedisAddr: %s, RedisPassword: [REDACTED], CORSAllowedOrigins: %v, TrustedProxies: %v, SeedDemoData: %t}",
		c.Env, c.Port, c.Host, c.DBDriver, c.DBHost, c.DBName, c.DBUser, c.DBPath, c.LogLevel,
		c.SessionTTLMinutes, c.UploadDir, c.RedisAddr, c.CORSAllowedOrigins, c.TrustedProxies, c.SeedDemoData)
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// Returns an error if any environment variable is present but invalid
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	env := GetEnvWithDefault("APP_ENV", "development")
	config := &Config{
		Env:                env,
		Port:               port,
		Host:               GetEnvWithDefault("APP_HOST", "localhost"),
		DBDriver:           strings.ToLower(GetEnvWithDefault("DB_DRIVER", "sqlite")),
		DBHost:             GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:             GetEnvWithDefault("DB_PORT", "5432"),
		DBName:             GetEnvWithDefault("DB_NAME", "bonos"),
		DBUser:             GetEnvWithDefault("DB_USER", "bonos"),
		DBPassword:         GetEnvWithDefault("DB_PASSWORD", ""),
		DBSSLMode:          GetEnvWithDefault("DB_SSLMODE", "disable"),
		DBPath:             GetEnvWithDefault("DB_PATH", "bonos.db"),
		LogLevel:           GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:          GetEnvWithDefault("JWT_SECRET", ""),
		JWTIssuer:          GetEnvWithDefault("JWT_ISSUER", "bonos-api"),
		SessionTTLMinutes:  GetEnvAsType("SESSION_TTL_MINUTES", 60*24),
		OAuthTokenMinutes:  GetEnvAsType("OAUTH_TOKEN_TTL_MINUTES", 60),
		SecureCookies:      GetEnvAsType("SECURE_COOKIES", env == "production"),
		LoginRatePerMinute: GetEnvAsType("LOGIN_RATE_PER_MINUTE", 10),
		UploadDir:          GetEnvWithDefault("UPLOAD_DIR", "./public/images"),
		MaxUploadBytes:     GetEnvAsType("MAX_UPLOAD_BYTES", 5*1024*1024),
		RedisAddr:          GetEnvWithDefault("REDIS_ADDR", ""),
		RedisPassword:      GetEnvWithDefault("REDIS_PASSWORD", ""),
		RedisDB:            GetEnvAsType("REDIS_DB", 0),
		CacheTTLSeconds:    GetEnvAsType("CACHE_TTL_SECONDS", 60),
		CORSAllowedOrigins: splitList(GetEnvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		TrustedProxies:     splitList(GetEnvWithDefault("TRUSTED_PROXIES", "")),
		SeedDemoData:       GetEnvAsType("SEED_DEMO_DATA", false),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres, mysql)", c.DBDriver)
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET environment variable is required in production")
		}
		log.Warn("JWT_SECRET not set, using the development secret")
		c.JWTSecret = devJWTSecret
	}
	if c.IsProduction() && len(c.JWTSecret) < minProdSecretBytes {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in production", minProdSecretBytes)
	}

	if c.SessionTTLMinutes <= 0 {
		return errors.New("SESSION_TTL_MINUTES must be positive")
	}
	if c.OAuthTokenMinutes <= 0 {
		return errors.New("OAUTH_TOKEN_TTL_MINUTES must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.LoginRatePerMinute <= 0 {
		return errors.New("LOGIN_RATE_PER_MINUTE must be positive")
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			log.Warnf("Environment variable %s is not an integer, using default", key)
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			log.Warnf("Environment variable %s is not a boolean, using default", key)
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
