package backend

import (
	"context"
	"slices"
	"time"

	"gastos/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the configured source and optional cleanup function.
// Reader is nil for the upload source: each upload supplies its own reader.
type BackendResult struct {
	Reader  sheets.TableReader
	Uploads bool
	Cleanup CleanupFunc
}

// Factory creates table sources based on configuration
type Factory interface {
	// CreateBackend creates a source instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for source creation
type Config struct {
	Type SourceType

	// CSV export
	SourceURL string

	// Local file
	SourceFile string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string
	GoogleAPIKey        string

	FetchTimeout time.Duration
}

// SourceType represents where the dashboard reads its table from
type SourceType string

const (
	URLSource    SourceType = "url"
	UploadSource SourceType = "upload"
	SheetsSource SourceType = "sheets"
	FileSource   SourceType = "file"
)

// String implements fmt.Stringer
func (st SourceType) String() string {
	return string(st)
}

// IsValid returns true if the source type is valid
func (st SourceType) IsValid() bool {
	return slices.Contains(GetSourceTypes(), st)
}
