package backend

import (
	"context"
	"fmt"

	applog "gastos/internal/log"
	"gastos/internal/sheets/csvexport"
	gsheet "gastos/internal/sheets/google"
	"gastos/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case URLSource:
		return f.createURLBackend(config)
	case SheetsSource:
		return f.createSheetsBackend(ctx, config)
	case FileSource:
		return f.createFileBackend(config)
	case UploadSource:
		f.logger.Info("Using upload source; data arrives per request")
		return &BackendResult{Uploads: true}, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}
}

func (f *DefaultFactory) createURLBackend(config Config) (*BackendResult, error) {
	client, err := csvexport.New(config.SourceURL, config.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize CSV export client: %w", err)
	}

	f.logger.Info("Initialized CSV export source",
		applog.FieldSource, client.Describe(),
		"timeout", config.FetchTimeout.String())

	return &BackendResult{Reader: client, Cleanup: client.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID: config.GoogleSpreadsheetID,
		SheetName:     config.GoogleSheetName,
		APIKey:        config.GoogleAPIKey,
		Timeout:       config.FetchTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets source", applog.FieldSource, cli.Describe())

	return &BackendResult{Reader: cli}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	file := memory.NewFromFile(config.SourceFile)

	f.logger.Info("Initialized file source", applog.FieldSource, config.SourceFile)

	return &BackendResult{Reader: file}, nil
}
