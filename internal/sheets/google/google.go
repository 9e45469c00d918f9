// Package google reads a publicly shared spreadsheet through the Sheets API.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gastos/internal/core"
	ports "gastos/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet. SheetName may be empty to read the first sheet.
type Config struct {
	SpreadsheetID string
	SheetName     string
	APIKey        string
	Timeout       time.Duration
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	timeout       time.Duration
}

// Ensure interface conformance
var (
	_ ports.TableReader = (*Client)(nil)
	_ ports.Describer   = (*Client)(nil)
)

// New creates a Sheets client authenticated only by an API key, which is
// enough for spreadsheets shared publicly. Extra options are appended after
// the key (tests use them to point at a local endpoint).
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("missing API key")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	all := append([]goption.ClientOption{goption.WithAPIKey(key)}, opts...)
	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets reader created",
		"spreadsheet_id", id,
		"sheet", cfg.SheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: id,
		sheetName:     strings.TrimSpace(cfg.SheetName),
		timeout:       cfg.Timeout,
	}, nil
}

func (c *Client) Describe() string {
	if c.sheetName != "" {
		return "Google Sheets (" + c.sheetName + ")"
	}
	return "Google Sheets"
}

// ReadTable fetches the used range of the sheet in a single call.
// Numbers come back unformatted and dates as their displayed text.
func (c *Client) ReadTable(ctx context.Context) (core.Table, error) {
	if c.svc == nil {
		return core.Table{}, core.NewLoadError(c.Describe(), errors.New("sheets service not initialized"))
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange()).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return core.Table{}, core.NewLoadError(c.Describe(), fmt.Errorf("read %s: %w", c.readRange(), err))
	}

	t, err := parseValues(resp.Values)
	if err != nil {
		return core.Table{}, core.NewLoadError(c.Describe(), err)
	}
	return t, nil
}

// readRange returns "A:Z" for the first sheet or "'<name>'!A:Z".
func (c *Client) readRange() string {
	if c.sheetName == "" {
		return "A:Z"
	}
	return fmt.Sprintf("'%s'!A:Z", strings.ReplaceAll(c.sheetName, "'", "''"))
}
