package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"notecal/internal/logger"
)

type Config struct {
	// Storage
	DBPath string

	// Identity of the local user the CLI acts for
	UserID   int64
	Timezone string

	// Device cloud API
	DeviceAPIURL   string
	DeviceAPIToken string
	DeviceFolder   string

	// OCR defaults. Stored per-user settings take precedence.
	OCRProvider         string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	AnthropicAPIKey     string
	AnthropicModel      string
	AnthropicBaseURL    string
	GeminiAPIKey        string
	GeminiModel         string
	GeminiBaseURL       string
	GoogleVisionAPIKey  string
	DocumentAIProcessor string

	// Google service account, used by Document AI and Sheets
	GoogleCredentials     string
	GoogleCredentialsFile string

	// Agenda processing
	BareHourPolicy   string
	AutoCreateEvents bool
	BatchWorkers     int

	// Google Sheets audit log (optional)
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		DBPath:                getEnv("NOTECAL_DB_PATH", "notecal.db"),
		Timezone:              getEnv("NOTECAL_TIMEZONE", "Local"),
		DeviceAPIURL:          getEnv("DEVICE_API_URL", ""),
		DeviceAPIToken:        getEnv("DEVICE_API_TOKEN", ""),
		DeviceFolder:          getEnv("DEVICE_FOLDER", "/"),
		OCRProvider:           getEnv("OCR_PROVIDER", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", ""),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:       getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:        getEnv("ANTHROPIC_MODEL", ""),
		AnthropicBaseURL:      getEnv("ANTHROPIC_BASE_URL", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", ""),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", ""),
		GoogleVisionAPIKey:    getEnv("GOOGLE_VISION_API_KEY", ""),
		DocumentAIProcessor:   getEnv("DOCUMENT_AI_PROCESSOR", ""),
		GoogleCredentials:     getEnv("GOOGLE_CREDENTIALS", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		BareHourPolicy:        getEnv("AGENDA_BARE_HOUR_POLICY", "afternoon"),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", "Agenda_Events"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.UserID, err = strconv.ParseInt(getEnv("NOTECAL_USER_ID", "1"), 10, 64); err != nil {
		return nil, fmt.Errorf("config validation failed: NOTECAL_USER_ID: %w", err)
	}
	if config.AutoCreateEvents, err = strconv.ParseBool(getEnv("AUTO_CREATE_EVENTS", "true")); err != nil {
		return nil, fmt.Errorf("config validation failed: AUTO_CREATE_EVENTS: %w", err)
	}
	if config.BatchWorkers, err = strconv.Atoi(getEnv("BATCH_WORKERS", "2")); err != nil {
		return nil, fmt.Errorf("config validation failed: BATCH_WORKERS: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.UserID <= 0 {
		return fmt.Errorf("NOTECAL_USER_ID must be positive")
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("NOTECAL_TIMEZONE: %w", err)
	}
	switch strings.ToLower(c.BareHourPolicy) {
	case "afternoon", "literal":
	default:
		return fmt.Errorf("AGENDA_BARE_HOUR_POLICY must be afternoon or literal, got %q", c.BareHourPolicy)
	}
	return nil
}

// Location returns the timezone agenda times are interpreted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// EnvSettings returns the env-provided defaults for the "ocr" settings category,
// keyed the same way stored settings are.
func (c *Config) EnvSettings() map[string]string {
	return map[string]string{
		"provider":              c.OCRProvider,
		"openai_api_key":        c.OpenAIAPIKey,
		"anthropic_api_key":     c.AnthropicAPIKey,
		"gemini_api_key":        c.GeminiAPIKey,
		"google_vision_api_key": c.GoogleVisionAPIKey,
		"document_ai_processor": c.DocumentAIProcessor,
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
