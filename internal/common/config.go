package common

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	Server  ServerConfig  `envconfig:"SERVER"`
	Store   StoreConfig   `envconfig:"STORE"`
	Extract ExtractConfig `envconfig:"EXTRACT"`
	Insight InsightConfig `envconfig:"INSIGHT"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// StoreConfig holds document-store settings.
type StoreConfig struct {
	DBPath    string `envconfig:"DB_PATH" default:"./reports.db"`
	UploadDir string `envconfig:"UPLOAD_DIR" default:"./uploads"`
}

// ExtractConfig holds document-extraction settings.
type ExtractConfig struct {
	OCRBackend       string        `envconfig:"OCR_BACKEND" default:"tesseract"` // "tesseract" | "remote"
	OCRLanguage      string        `envconfig:"OCR_LANGUAGE" default:"eng"`
	OCRTimeout       time.Duration `envconfig:"OCR_TIMEOUT" default:"60s"`
	OCRRemoteURL     string        `envconfig:"OCR_REMOTE_URL"`
	OCRRemoteAPIKey  string        `envconfig:"OCR_REMOTE_API_KEY"`
	Pdftoppm         string        `envconfig:"PDFTOPPM" default:"pdftoppm"`
	DPI              int           `envconfig:"RASTER_DPI" default:"300"`
	ScannedThreshold int           `envconfig:"SCANNED_TEXT_THRESHOLD" default:"50"`
}

// InsightConfig holds generative-model settings.
type InsightConfig struct {
	Backend     string        `envconfig:"LLM_BACKEND" default:"gemini"` // "gemini" | "openai"
	Model       string        `envconfig:"LLM_MODEL"`
	APIKey      string        `envconfig:"LLM_API_KEY"`
	BaseURL     string        `envconfig:"LLM_BASE_URL"`
	Temperature float32       `envconfig:"LLM_TEMPERATURE" default:"0"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"45s"`
	MaxRetries  int           `envconfig:"LLM_MAX_RETRIES" default:"1"`
	Backoff     time.Duration `envconfig:"LLM_RETRY_BACKOFF" default:"2s"`
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	// .env is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Insight.APIKey == "" {
		return NewAppError(CodeConfig, "LLM_API_KEY is required", ErrInvalidInput)
	}
	if c.Extract.OCRBackend == "remote" && c.Extract.OCRRemoteURL == "" {
		return NewAppError(CodeConfig, "OCR_REMOTE_URL is required for the remote OCR backend", ErrInvalidInput)
	}
	if c.Extract.ScannedThreshold <= 0 {
		return NewAppError(CodeConfig, "SCANNED_TEXT_THRESHOLD must be positive", ErrInvalidInput)
	}
	return nil
}
