package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Extraction ExtractionConfig
	Validation ValidationConfig
	Cache      CacheConfig
	Watch      WatchConfig
	Log        LogConfig
}

// DatabaseConfig holds report store configuration
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

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	GRPCAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// ExtractionConfig holds field-extraction configuration
type ExtractionConfig struct {
	Profile     string
	ProfileFile string
	Workers     int
	Timeout     time.Duration
}

// ValidationConfig holds rule engine configuration
type ValidationConfig struct {
	Tolerance float64
}

// CacheConfig holds extraction cache configuration
type CacheConfig struct {
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
}

// WatchConfig holds inbox watcher configuration
type WatchConfig struct {
	Dir      string
	Debounce time.Duration
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string // "text" | "json"
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present;
// variables already set in the environment win.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:              getEnv("DB_URL", "file:invoice-qc.db?_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
			GRPCAddr:        getEnv("GRPC_ADDR", ":8081"),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 2*time.Minute),
			MaxUploadBytes:  int64(getEnvAsInt("HTTP_MAX_UPLOAD_MB", 32)) << 20,
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Extraction: ExtractionConfig{
			Profile:     strings.ToLower(getEnv("EXTRACT_PROFILE", "english")),
			ProfileFile: getEnv("EXTRACT_PROFILE_FILE", ""),
			Workers:     getEnvAsInt("EXTRACT_WORKERS", 4),
			Timeout:     getEnvAsDuration("EXTRACT_TIMEOUT", 2*time.Minute),
		},
		Validation: ValidationConfig{
			Tolerance: getEnvAsFloat64("VALIDATE_TOLERANCE", 0.02),
		},
		Cache: CacheConfig{
			RedisAddr: getEnv("CACHE_REDIS_ADDR", ""),
			RedisDB:   getEnvAsInt("CACHE_REDIS_DB", 0),
			TTL:       getEnvAsDuration("CACHE_TTL", 24*time.Hour),
		},
		Watch: WatchConfig{
			Dir:      getEnv("WATCH_DIR", ""),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
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
	v := NewValidator().
		Field("DB_DRIVER", c.Database.Driver, OneOf("sqlite", "postgres")).
		Field("DB_URL", c.Database.DSN, Required).
		Field("HTTP_ADDR", c.Server.HTTPAddr, Required).
		Field("EXTRACT_PROFILE", c.Extraction.Profile, Required).
		Field("EXTRACT_WORKERS", c.Extraction.Workers, IntRange(1, 256)).
		Field("VALIDATE_TOLERANCE", c.Validation.Tolerance, Tolerance).
		Field("LOG_FORMAT", c.Log.Format, OneOf("text", "json"))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
