package backend

import (
	"fmt"
	"strings"

	"gastos/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sourceType := SourceType(appConfig.DataSource)
	if !sourceType.IsValid() {
		return Config{}, fmt.Errorf("invalid source type in config: %s (valid: %s)", appConfig.DataSource, validSourceTypes())
	}

	return Config{
		Type: sourceType,

		SourceURL:  appConfig.SourceURL,
		SourceFile: appConfig.SourceFile,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,
		GoogleAPIKey:        appConfig.GoogleAPIKey,

		FetchTimeout: appConfig.FetchTimeout,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type: %s (valid: %s)", c.Type, validSourceTypes())
	}

	switch c.Type {
	case URLSource:
		if c.SourceURL == "" {
			return fmt.Errorf("source URL is required for url source")
		}
	case FileSource:
		if c.SourceFile == "" {
			return fmt.Errorf("source file is required for file source")
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets source")
		}
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("Google API key is required for sheets source")
		}
	case UploadSource:
		// Uploads bring their own data
	}

	return nil
}

// GetSourceTypes returns all valid source types
func GetSourceTypes() []SourceType {
	return []SourceType{URLSource, UploadSource, SheetsSource, FileSource}
}

func validSourceTypes() string {
	types := GetSourceTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
