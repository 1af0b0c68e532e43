package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/scanreview/reconciler/internal/match"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Matching MatchingConfig
	Local    LocalStoreConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// MatchingConfig holds the tunable scoring and decision policy.
type MatchingConfig struct {
	SelectionThreshold   float64
	PreSelectThreshold   float64
	AutoApproveThreshold float64
	PositionalWeight     float64
	TokenOverlapWeight   float64
	EditWeight           float64
}

// LocalStoreConfig holds the embedded store used by the CLI.
type LocalStoreConfig struct {
	Path string
}

// LoadConfig loads configuration from the environment, reading a .env file
// first when one is present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Matching: MatchingConfig{
			SelectionThreshold:   getEnvAsFloat64("MATCH_SELECTION_THRESHOLD", match.DefaultSelectionThreshold),
			PreSelectThreshold:   getEnvAsFloat64("MATCH_PRESELECT_THRESHOLD", match.DefaultPreSelectThreshold),
			AutoApproveThreshold: getEnvAsFloat64("MATCH_AUTO_APPROVE_THRESHOLD", match.DefaultAutoApproveThreshold),
			PositionalWeight:     getEnvAsFloat64("MATCH_POSITIONAL_WEIGHT", match.DefaultWeights.Positional),
			TokenOverlapWeight:   getEnvAsFloat64("MATCH_TOKEN_OVERLAP_WEIGHT", match.DefaultWeights.TokenOverlap),
			EditWeight:           getEnvAsFloat64("MATCH_EDIT_WEIGHT", match.DefaultWeights.Edit),
		},
		Local: LocalStoreConfig{
			Path: getEnv("RECONCILER_DB", "reconciler.db"),
		},
	}
}

// MatchConfig materializes the matching policy struct.
func (c *Config) MatchConfig() match.Config {
	return match.Config{
		Weights: match.Weights{
			Positional:   c.Matching.PositionalWeight,
			TokenOverlap: c.Matching.TokenOverlapWeight,
			Edit:         c.Matching.EditWeight,
		},
		SelectionThreshold:   c.Matching.SelectionThreshold,
		PreSelectThreshold:   c.Matching.PreSelectThreshold,
		AutoApproveThreshold: c.Matching.AutoApproveThreshold,
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
