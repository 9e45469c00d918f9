package cli

import (
	"context"
	"log/slog"
	"testing"

	"gastos/internal/config"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		cfg  config.Config
		want string
	}{
		{config.Config{DataSource: config.SourceURL, SourceURL: "https://x/export"}, "csv export https://x/export"},
		{config.Config{DataSource: config.SourceSheets, GoogleSpreadsheetID: "abc"}, "google sheets abc"},
		{config.Config{DataSource: config.SourceFile, SourceFile: "./data/gastos.csv"}, "file ./data/gastos.csv"},
		{config.Config{DataSource: config.SourceUpload}, "xlsx upload"},
	}
	for _, tt := range tests {
		if got := Describe(&tt.cfg); got != tt.want {
			t.Errorf("Describe(%s) = %q, want %q", tt.cfg.DataSource, got, tt.want)
		}
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_SOURCE", "upload")
	t.Setenv("PORT", "8082")
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8082" {
		t.Errorf("Port = %s, want 8082", cfg.Port)
	}

	t.Setenv("DATA_SOURCE", "nope")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Error("expected validation error for unknown source")
	}
}

func TestSetupLoggerFallsBackToInfo(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "shouting", LogFormat: "json"})
	if logger == nil {
		t.Fatal("nil logger")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) || logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
}
