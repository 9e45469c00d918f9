package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Data sources accepted by DATA_SOURCE.
const (
	SourceURL    = "url"
	SourceUpload = "upload"
	SourceSheets = "sheets"
	SourceFile   = "file"
)

var validSources = []string{SourceURL, SourceUpload, SourceSheets, SourceFile}

type Config struct {
	// HTTP Server
	Port string

	// Source selection
	DataSource string

	// CSV export
	SourceURL string

	// Local file
	SourceFile string

	// Google Sheets (public, API key)
	GoogleSpreadsheetID string
	GoogleSheetName     string
	GoogleAPIKey        string

	FetchTimeout time.Duration

	// Uploads
	MaxUploadBytes int64
	UploadTTL      time.Duration
	UploadCapacity int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataSource: strings.ToLower(getEnv("DATA_SOURCE", SourceURL)),
		SourceURL:  getEnv("SOURCE_URL", ""),
		SourceFile: getEnv("SOURCE_FILE", "./data/gastos.csv"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", ""),
		GoogleAPIKey:        getEnv("GOOGLE_API_KEY", ""),

		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 15*time.Second),

		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		UploadTTL:      getEnvDuration("UPLOAD_TTL", 30*time.Minute),
		UploadCapacity: getEnvInt("UPLOAD_CAPACITY", 64),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data source
	if !slices.Contains(validSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	switch c.DataSource {
	case SourceURL:
		if c.SourceURL == "" {
			errors = append(errors, "SOURCE_URL is required when using url source")
		} else if parsedURL, err := url.Parse(c.SourceURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid source URL '%s': %v", c.SourceURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid source URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		} else if parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid source URL '%s': missing host", c.SourceURL))
		}
	case SourceFile:
		if c.SourceFile == "" {
			errors = append(errors, "SOURCE_FILE cannot be empty when using file source")
		} else if _, err := os.Stat(c.SourceFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("source file does not exist: %s", c.SourceFile))
		}
	case SourceSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets source")
		}
		if c.GoogleAPIKey == "" {
			errors = append(errors, "GOOGLE_API_KEY is required when using sheets source")
		}
	}

	if c.FetchTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	} else if c.FetchTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at most 5 minutes", c.FetchTimeout))
	}

	// Validate upload limits
	if c.MaxUploadBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload bytes %d: must be at least 1024", c.MaxUploadBytes))
	}
	if c.UploadTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid upload TTL %v: must be at least 1 minute", c.UploadTTL))
	}
	if c.UploadCapacity < 1 {
		errors = append(errors, fmt.Sprintf("invalid upload capacity %d: must be at least 1", c.UploadCapacity))
	} else if c.UploadCapacity > 10000 {
		errors = append(errors, fmt.Sprintf("invalid upload capacity %d: must be at most 10000", c.UploadCapacity))
	}

	// Validate logging
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
