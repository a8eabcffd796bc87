package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	Gemini   GeminiConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds database-related configuration. An empty DSN
// selects the embedded SQLite fallback.
type DatabaseConfig struct {
	DSN              string
	SQLitePath       string
	MaxConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr        string
	CORSOrigins string
}

// StorageConfig holds the on-disk artifact areas and the upload bound.
type StorageConfig struct {
	UploadDir     string
	OutputDir     string
	MaxUploadSize int64 // bytes
}

// GeminiConfig holds AI provider configuration.
type GeminiConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// PipelineConfig holds orchestrator tunables.
type PipelineConfig struct {
	MaxRetries     int // additional AI attempts after the first
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables.
// The source never specified an upload bound or an AI timeout; both are
// explicit here (50 MiB, 120s) and overridable through the environment.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DATABASE_URL", ""),
			SQLitePath:       getEnv("SQLITE_PATH", "./fundxtract.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":8000"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		},
		Storage: StorageConfig{
			UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
			OutputDir:     getEnv("OUTPUT_DIR", "./outputs"),
			MaxUploadSize: getEnvAsInt64("MAX_UPLOAD_SIZE", 50<<20),
		},
		Gemini: GeminiConfig{
			Model:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			BaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", 120*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxRetries:     getEnvAsInt("AI_MAX_RETRIES", 2),
			Workers:        getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueSize:      getEnvAsInt("PIPELINE_QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("PIPELINE_PROCESS_TIMEOUT", 10*time.Minute),
		},
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Storage.MaxUploadSize <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_SIZE must be positive", ErrInvalidInput)
	}
	if c.Pipeline.MaxRetries < 0 {
		return NewAppError("CONFIG_ERROR", "AI_MAX_RETRIES must be >= 0", ErrInvalidInput)
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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
