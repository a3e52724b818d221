package config

import (
	"fmt"
	"os"
	"site-inventory/internal/models"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppPort string
	AppURL  string

	// Database
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUsername        string
	DBPassword        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBMigrateOnStart  bool

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret       string
	JWTAccessExpire time.Duration

	// Upload
	UploadMaxSize int

	// Import pipeline
	ImportMaxValidRows     int
	ImportMaxErrorRows     int
	ImportPreviewRows      int
	ImportErrorPreviewRows int
	ImportCommitLease      time.Duration
	ImportProgressEvery    int
	AuditEnabled           bool
	AuditMode              string // queue, direct, off

	// Worker
	WorkerConcurrency int

	// Asynq
	AsynqRedisAddr     string
	AsynqRedisPassword string
	AsynqRedisDB       int
}

func Load() (*Config, error) {
	// Load .env file if exists
	// Try to load from current dir first, then parent dirs
	_ = godotenv.Load()
	_ = godotenv.Load("../../.env") // For when running from cmd/web or cmd/worker

	cfg := &Config{
		AppName: getEnv("APP_NAME", "Site Inventory"),
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),
		AppURL:  getEnv("APP_URL", "http://localhost:8080"),

		DBHost:            getEnv("DB_HOST", "127.0.0.1"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", "site_inventory"),
		DBUsername:        getEnv("DB_USERNAME", "root"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBMigrateOnStart:  getEnvAsBool("DB_MIGRATE_ON_START", true),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret:       getEnv("JWT_SECRET", "change-this-secret-key"),
		JWTAccessExpire: getEnvAsDuration("JWT_ACCESS_EXPIRE", 24*time.Hour),

		UploadMaxSize: getEnvAsInt("UPLOAD_MAX_SIZE", 52428800), // 50MB

		ImportMaxValidRows:     getEnvAsInt("IMPORT_MAX_VALID_ROWS", models.DefaultMaxValidRows),
		ImportMaxErrorRows:     getEnvAsInt("IMPORT_MAX_ERROR_ROWS", models.DefaultMaxErrorRows),
		ImportPreviewRows:      getEnvAsInt("IMPORT_PREVIEW_ROWS", 20),
		ImportErrorPreviewRows: getEnvAsInt("IMPORT_ERROR_PREVIEW_ROWS", 100),
		ImportCommitLease:      getEnvAsDuration("IMPORT_COMMIT_LEASE", 10*time.Minute),
		ImportProgressEvery:    getEnvAsInt("IMPORT_PROGRESS_EVERY", 250),
		AuditEnabled:           getEnvAsBool("AUDIT_ENABLED", true),
		AuditMode:              strings.ToLower(getEnv("AUDIT_MODE", "queue")),

		WorkerConcurrency: getEnvAsInt("WORKER_CONCURRENCY", 4),

		AsynqRedisAddr:     getEnv("ASYNQ_REDIS_ADDR", "127.0.0.1:6379"),
		AsynqRedisPassword: getEnv("ASYNQ_REDIS_PASSWORD", ""),
		AsynqRedisDB:       getEnvAsInt("ASYNQ_REDIS_DB", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ImportMaxValidRows < 1 {
		return fmt.Errorf("IMPORT_MAX_VALID_ROWS must be positive")
	}
	if c.ImportMaxErrorRows < 1 {
		return fmt.Errorf("IMPORT_MAX_ERROR_ROWS must be positive")
	}
	switch c.AuditMode {
	case "queue", "direct", "off":
	default:
		return fmt.Errorf("AUDIT_MODE must be one of queue, direct, off (got %q)", c.AuditMode)
	}
	return nil
}

// ImportOptions builds the pipeline settings handed to each stage/commit call.
func (c *Config) ImportOptions() models.ImportOptions {
	return models.ImportOptions{
		MaxValidRows:     c.ImportMaxValidRows,
		MaxErrorRows:     c.ImportMaxErrorRows,
		PreviewRows:      c.ImportPreviewRows,
		ErrorPreviewRows: c.ImportErrorPreviewRows,
		CommitLease:      c.ImportCommitLease,
		ProgressEvery:    c.ImportProgressEvery,
		AuditEnabled:     c.AuditEnabled && c.AuditMode != "off",
	}
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&multiStatements=true",
		c.DBUsername,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBDatabase,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
