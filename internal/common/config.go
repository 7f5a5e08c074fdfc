package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/jobs-etl/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Source   SourceConfig
	Staging  StagingConfig
	Pipeline PipelineConfig
	Log      LogConfig
	Export   ExportConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "sqlite" | "postgres"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// SourceConfig describes the tabular input of the extract stage
type SourceConfig struct {
	Path   string
	Column string
	Sheet  string
}

// StagingConfig holds the hand-off directories between stages
type StagingConfig struct {
	ExtractedDir   string
	TransformedDir string
	QuarantineDir  string
	RejectPolicy   constants.RejectPolicy
}

// PipelineConfig holds orchestrator settings
type PipelineConfig struct {
	Retries    int
	RetryDelay time.Duration
	Every      time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// ExportConfig holds export settings
type ExportConfig struct {
	Path string
}

// LoadDotEnv loads variables from the given .env files (default ".env") without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:              getEnv("DB_URL", "file:jobs.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 4),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Source: SourceConfig{
			Path:   getEnv("SOURCE_PATH", "source/jobs.csv"),
			Column: getEnv("SOURCE_COLUMN", "context"),
			Sheet:  getEnv("SOURCE_SHEET", ""),
		},
		Staging: StagingConfig{
			ExtractedDir:   getEnv("STAGING_EXTRACTED_DIR", "staging/extracted"),
			TransformedDir: getEnv("STAGING_TRANSFORMED_DIR", "staging/transformed"),
			QuarantineDir:  getEnv("QUARANTINE_DIR", "staging/quarantine"),
			RejectPolicy:   constants.RejectPolicy(strings.ToLower(getEnv("REJECT_POLICY", string(constants.RejectDrop)))),
		},
		Pipeline: PipelineConfig{
			Retries:    getEnvAsInt("PIPELINE_RETRIES", 3),
			RetryDelay: getEnvAsDuration("PIPELINE_RETRY_DELAY", 15*time.Minute),
			Every:      getEnvAsDuration("PIPELINE_EVERY", 0),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Export: ExportConfig{
			Path: getEnv("EXPORT_PATH", "jobs.xlsx"),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
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
	v := NewValidator().
		Field("DB_DRIVER", c.Database.Driver, Required, OneOf("sqlite", "postgres")).
		Field("DB_URL", c.Database.DSN, Required).
		Field("SOURCE_PATH", c.Source.Path, Required).
		Field("SOURCE_COLUMN", c.Source.Column, Required).
		Field("STAGING_EXTRACTED_DIR", c.Staging.ExtractedDir, Required).
		Field("STAGING_TRANSFORMED_DIR", c.Staging.TransformedDir, Required).
		Field("REJECT_POLICY", string(c.Staging.RejectPolicy), OneOf(string(constants.RejectDrop), string(constants.RejectQuarantine))).
		Field("PIPELINE_RETRIES", c.Pipeline.Retries, NonNegative).
		Field("PIPELINE_RETRY_DELAY", c.Pipeline.RetryDelay, NonNegative).
		Field("PIPELINE_EVERY", c.Pipeline.Every, NonNegative).
		Field("LOG_FORMAT", c.Log.Format, OneOf("json", "text"))
	if c.Staging.RejectPolicy == constants.RejectQuarantine {
		v.Field("QUARANTINE_DIR", c.Staging.QuarantineDir, Required)
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
