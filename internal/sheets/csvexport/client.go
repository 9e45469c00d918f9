// Package csvexport reads a spreadsheet published as a CSV export URL,
// such as a Google Sheets "export?format=csv" link.
package csvexport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"gastos/internal/core"
	ports "gastos/internal/sheets"
)

// maxBodyBytes bounds the size of a downloaded export.
const maxBodyBytes = 32 << 20

// ErrExportTooLarge is returned when the export exceeds maxBodyBytes. The
// body is rejected rather than decoded partially.
var ErrExportTooLarge = errors.New("exportação CSV excede o tamanho máximo")

type Client struct {
	httpClient *http.Client
	url        string
	timeout    time.Duration
	maxBytes   int64
}

var (
	_ ports.TableReader = (*Client)(nil)
	_ ports.Describer   = (*Client)(nil)
)

// New creates a client for the given export URL. A zero timeout means 15s.
func New(exportURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(exportURL)
	if err != nil {
		return nil, fmt.Errorf("parse export url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("export url must be http or https, got %q", u.Scheme)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: newHTTPClientWithPooling(timeout),
		url:        exportURL,
		timeout:    timeout,
		maxBytes:   maxBodyBytes,
	}, nil
}

// Close releases idle keep-alive connections to the export host.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Describe names the source by host, without query strings that may carry IDs.
func (c *Client) Describe() string {
	u, err := url.Parse(c.url)
	if err != nil || u.Host == "" {
		return "exportação CSV"
	}
	return u.Host
}

// ReadTable downloads the export once and decodes it. There is no retry.
func (c *Client) ReadTable(ctx context.Context) (core.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return core.Table{}, core.NewLoadError(c.Describe(), fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Table{}, core.NewLoadError(c.Describe(), fmt.Errorf("fetch export: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return core.Table{}, core.NewLoadError(c.Describe(), fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return core.Table{}, core.NewLoadError(c.Describe(), fmt.Errorf("read export: %w", err))
	}
	if int64(len(body)) > c.maxBytes {
		return core.Table{}, core.NewLoadError(c.Describe(), fmt.Errorf("%w (%d bytes)", ErrExportTooLarge, c.maxBytes))
	}

	t, err := Decode(bytes.NewReader(body))
	if err != nil {
		return core.Table{}, core.NewLoadError(c.Describe(), err)
	}

	slog.DebugContext(ctx, "CSV export fetched",
		"source", c.Describe(),
		"columns", len(t.Columns),
		"rows", len(t.Rows),
		"duration_ms", time.Since(start).Milliseconds())
	return t, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling
// and bounded dial/TLS/header timeouts.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
