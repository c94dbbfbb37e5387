// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir       string // Base directory for the run-history database (always absolute)
	Port          int
	LogLevel      string
	DevMode       bool
	MaxAttempts   int    // Outer factoring attempts per run
	OrderRetries  int    // Circuit executions per order-finding call
	MaxQubits     int    // Ceiling on simulated circuit width
	Seed          uint64 // 0 means non-deterministic sampling
	RetentionDays int    // Run-history retention for the pruning job
	Backup        *BackupConfig
}

// BackupConfig holds S3-compatible backup configuration. Backups stay
// disabled unless a bucket is configured.
type BackupConfig struct {
	Enabled   bool
	Bucket    string
	Endpoint  string // Custom endpoint for S3-compatible stores; empty for AWS
	Region    string
	AccessKey string
	SecretKey string
	Retention int // Days of backups kept during rotation; 0 keeps all
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Resolve the data directory to an absolute path and make sure it
	// exists before anything opens a database under it.
	dataDir := getEnv("QFACTOR_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:       absDataDir,
		Port:          getEnvAsInt("PORT", 8080),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DevMode:       getEnvAsBool("DEV_MODE", false),
		MaxAttempts:   getEnvAsInt("QFACTOR_MAX_ATTEMPTS", 8),
		OrderRetries:  getEnvAsInt("QFACTOR_ORDER_RETRIES", 5),
		MaxQubits:     getEnvAsInt("QFACTOR_MAX_QUBITS", 26),
		Seed:          getEnvAsUint64("QFACTOR_SEED", 0),
		RetentionDays: getEnvAsInt("QFACTOR_RETENTION_DAYS", 90),
		Backup:        loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("QFACTOR_MAX_ATTEMPTS must be at least 1")
	}
	if c.OrderRetries < 1 {
		return fmt.Errorf("QFACTOR_ORDER_RETRIES must be at least 1")
	}
	// Below 8 qubits not even n=4's circuit fits; above 30 the
	// amplitude array would pass 16 GiB.
	if c.MaxQubits < 8 || c.MaxQubits > 30 {
		return fmt.Errorf("QFACTOR_MAX_QUBITS must be between 8 and 30")
	}
	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_BUCKET required when backups are enabled")
	}
	return nil
}

// DatabasePath returns the path of the run-history database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "runs.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// loadBackupConfig loads backup configuration; disabled unless
// BACKUP_ENABLED is set.
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:   getEnvAsBool("BACKUP_ENABLED", false),
		Bucket:    getEnv("BACKUP_BUCKET", ""),
		Endpoint:  getEnv("BACKUP_ENDPOINT", ""),
		Region:    getEnv("BACKUP_REGION", "auto"),
		AccessKey: getEnv("BACKUP_ACCESS_KEY", ""),
		SecretKey: getEnv("BACKUP_SECRET_KEY", ""),
		Retention: getEnvAsInt("BACKUP_RETENTION", 7),
	}
}
