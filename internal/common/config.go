package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// OCR engine names accepted by OCR_ENGINE.
const (
	EngineLib = "lib" // in-process tesseract via gosseract
	EngineCLI = "cli" // tesseract binary, TSV output
)

// Config holds all application configuration
type Config struct {
	OCR     OCRConfig
	Server  ServerConfig
	History HistoryConfig
	Log     LogConfig
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine      string
	Tesseract   string
	Lang        string
	TessdataDir string
	PSM         int
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCHealthAddr string
	QueueSize      int
	ShutdownGrace  time.Duration
}

// HistoryConfig holds run history store configuration. An empty DSN disables the store.
type HistoryConfig struct {
	DSN         string
	DialTimeout time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Engine:      getEnv("OCR_ENGINE", EngineLib),
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Lang:        getEnv("TESSERACT_LANG", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			PSM:         getEnvAsInt("TESSERACT_PSM", 6),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8081"),
			GRPCHealthAddr: getEnv("GRPC_HEALTH_ADDR", ""),
			QueueSize:      getEnvAsInt("QUEUE_SIZE", 16),
			ShutdownGrace:  getEnvAsDuration("SHUTDOWN_GRACE", 10*time.Second),
		},
		History: HistoryConfig{
			DSN:         getEnv("HISTORY_DSN", ""),
			DialTimeout: getEnvAsDuration("HISTORY_DIAL_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
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
	switch c.OCR.Engine {
	case EngineLib, EngineCLI:
	default:
		return NewAppError("CONFIG_ERROR", "OCR_ENGINE must be one of: lib | cli", ErrInvalidInput)
	}
	// tesseract page segmentation modes are 0..13
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		return NewAppError("CONFIG_ERROR", "TESSERACT_PSM must be between 0 and 13", ErrInvalidInput)
	}
	if c.OCR.Engine == EngineCLI && c.OCR.Tesseract == "" {
		return NewAppError("CONFIG_ERROR", "TESSERACT_BIN is required for the cli engine", ErrInvalidInput)
	}
	if c.Server.QueueSize <= 0 {
		return NewAppError("CONFIG_ERROR", "QUEUE_SIZE must be positive", ErrInvalidInput)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
