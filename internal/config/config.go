package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Retention RetentionConfig `yaml:"retention"`
	Activity  ActivityConfig  `yaml:"activity"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Mode           string   `yaml:"mode"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type         string         `yaml:"type"`
	MySQL        MySQLConfig    `yaml:"mysql"`
	Postgres     PostgresConfig `yaml:"postgres"`
	MaxOpenConns int            `yaml:"max_open_conns"`
	MaxIdleConns int            `yaml:"max_idle_conns"`
	LogSQL       bool           `yaml:"log_sql"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// Enabled reports whether a search host is configured
func (c MeilisearchConfig) Enabled() bool {
	return c.Host != ""
}

// AuthConfig contains token and bootstrap-account settings
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// TokenTTL returns the token lifetime as a duration
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// SchedulerConfig contains background job timings
type SchedulerConfig struct {
	Enabled                   bool   `yaml:"enabled"`
	ReconcileIntervalSeconds  int    `yaml:"reconcile_interval_seconds"`
	ActivityCleanupTime       string `yaml:"activity_cleanup_time"`
	DormantUserCleanupEnabled bool   `yaml:"dormant_user_cleanup_enabled"`
	DormantUserCleanupCron    string `yaml:"dormant_user_cleanup_cron"`
}

// ReconcileInterval returns the reconcile period as a duration
func (c *SchedulerConfig) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// RetentionConfig contains data retention windows
type RetentionConfig struct {
	ActivityDays    int `yaml:"activity_days"`
	DormantUserDays int `yaml:"dormant_user_days"`
}

// ActivityConfig contains activity logger settings
type ActivityConfig struct {
	QueueBufferSize     int `yaml:"queue_buffer_size"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
}

// WriteTimeout returns the per-write timeout as a duration
func (c *ActivityConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "5000",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			Mode:           "release",
		},
		Database: DatabaseConfig{
			Type: "postgres",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Database: "dreambid",
				SSLMode:  "disable",
			},
			MySQL: MySQLConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Database: "dreambid",
			},
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{
				Index: "properties",
			},
		},
		Auth: AuthConfig{
			TokenTTLHours: 24 * 7,
		},
		Scheduler: SchedulerConfig{
			Enabled:                   true,
			ReconcileIntervalSeconds:  60,
			ActivityCleanupTime:       "02:00",
			DormantUserCleanupEnabled: true,
			DormantUserCleanupCron:    "0 3 * * 0",
		},
		Retention: RetentionConfig{
			ActivityDays:    90,
			DormantUserDays: 365,
		},
		Activity: ActivityConfig{
			QueueBufferSize:     100,
			WriteTimeoutSeconds: 5,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			Burst:             10,
		},
		Logging: LoggingConfig{
			Level:       "info",
			LogRequests: true,
		},
		Timezone: "UTC",
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides configuration values with environment variables
func (c *Config) ApplyEnv() {
	c.Database.Type = getEnv("DB_TYPE", c.Database.Type)

	switch c.Database.Type {
	case "mysql":
		c.Database.MySQL.Host = getEnv("DB_HOST", c.Database.MySQL.Host)
		c.Database.MySQL.Port = getEnvInt("DB_PORT", c.Database.MySQL.Port)
		c.Database.MySQL.User = getEnv("DB_USER", c.Database.MySQL.User)
		c.Database.MySQL.Password = getEnv("DB_PASSWORD", c.Database.MySQL.Password)
		c.Database.MySQL.Database = getEnv("DB_NAME", c.Database.MySQL.Database)
	default:
		c.Database.Postgres.Host = getEnv("DB_HOST", c.Database.Postgres.Host)
		c.Database.Postgres.Port = getEnvInt("DB_PORT", c.Database.Postgres.Port)
		c.Database.Postgres.User = getEnv("DB_USER", c.Database.Postgres.User)
		c.Database.Postgres.Password = getEnv("DB_PASSWORD", c.Database.Postgres.Password)
		c.Database.Postgres.Database = getEnv("DB_NAME", c.Database.Postgres.Database)
		c.Database.Postgres.SSLMode = getEnv("DB_SSLMODE", c.Database.Postgres.SSLMode)
	}

	c.Server.Port = getEnv("PORT", c.Server.Port)
	if origin := os.Getenv("FRONTEND_URL"); origin != "" {
		c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, origin)
	}

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.AdminEmail = getEnv("ADMIN_EMAIL", c.Auth.AdminEmail)
	c.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", c.Auth.AdminPassword)

	c.Search.Meilisearch.Host = getEnv("MEILISEARCH_HOST", c.Search.Meilisearch.Host)
	c.Search.Meilisearch.APIKey = getEnv("MEILISEARCH_KEY", c.Search.Meilisearch.APIKey)
}

// Validate checks settings the server cannot start without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (or JWT_SECRET) must be set")
	}
	if c.Database.Type != "postgres" && c.Database.Type != "mysql" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Retention.ActivityDays <= 0 {
		return fmt.Errorf("retention.activity_days must be positive, got %d", c.Retention.ActivityDays)
	}
	if c.Scheduler.ReconcileIntervalSeconds <= 0 {
		return fmt.Errorf("scheduler.reconcile_interval_seconds must be positive, got %d", c.Scheduler.ReconcileIntervalSeconds)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
