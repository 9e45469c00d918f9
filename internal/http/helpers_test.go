package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

func TestBarRows(t *testing.T) {
	totals := []core.CategoryTotal{
		{Category: "Aluguel", Total: decimal.RequireFromString("-1000")},
		{Category: "Mercado", Total: decimal.RequireFromString("-333.33")},
		{Category: "Café", Total: decimal.RequireFromString("-4.50")},
	}

	rows := barRows(totals)
	if len(rows) != 3 {
		t.Fatalf("len = %d", len(rows))
	}
	wantWidths := []int{100, 33, minBarWidth}
	for i, want := range wantWidths {
		if rows[i].Width != want {
			t.Errorf("rows[%d].Width = %d, want %d", i, rows[i].Width, want)
		}
	}
	if rows[0].Amount != "R$ -1,000.00" {
		t.Errorf("Amount = %q", rows[0].Amount)
	}
}

func TestBarRows_ZeroLargest(t *testing.T) {
	rows := barRows([]core.CategoryTotal{{Category: "x", Total: decimal.Zero}})
	if rows[0].Width != 0 {
		t.Errorf("Width = %d, want 0", rows[0].Width)
	}
	if got := barRows(nil); len(got) != 0 {
		t.Errorf("barRows(nil) = %v", got)
	}
}

func TestClassifyError(t *testing.T) {
	load := core.NewLoadError("planilha", errors.New("boom"))
	tests := []struct {
		name     string
		err      error
		upload   bool
		wantCode int
		wantType string
	}{
		{"expired upload", ErrUploadExpired, true, http.StatusGone, "not_found_error"},
		{"bad month", fmt.Errorf("parse: %w", core.ErrInvalidMonth), false, http.StatusBadRequest, "validation_error"},
		{"schema", &core.SchemaError{Missing: []string{"valor"}}, false, http.StatusUnprocessableEntity, "schema_error"},
		{"remote load", load, false, http.StatusBadGateway, "load_error"},
		{"upload load", load, true, http.StatusUnprocessableEntity, "load_error"},
		{"wrapped load", fmt.Errorf("run: %w", load), false, http.StatusBadGateway, "load_error"},
		{"unknown", errors.New("nil pointer"), false, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg, errType := classifyError(tt.err, tt.upload)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if errType != tt.wantType {
				t.Errorf("type = %q, want %q", errType, tt.wantType)
			}
			if msg == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  2024-03\x00\x07 "); got != "2024-03" {
		t.Errorf("sanitizeInput = %q", got)
	}
}

func TestUploadLimitLabel(t *testing.T) {
	if got := uploadLimitLabel(10 << 20); got != "10 MiB" {
		t.Errorf("uploadLimitLabel = %q", got)
	}
	if got := uploadLimitLabel(0); got != "" {
		t.Errorf("uploadLimitLabel(0) = %q", got)
	}
}

func TestUploadStore(t *testing.T) {
	store := newUploadStore(2, time.Hour)

	a := store.Put("a.csv", []byte("data,valor,categoria\n"))
	got, err := store.Get(a.ID)
	if err != nil || got.Name != "a.csv" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	store.Put("b.csv", nil)
	store.Put("c.csv", nil)
	if _, err := store.Get(a.ID); !errors.Is(err, ErrUploadExpired) {
		t.Errorf("oldest upload should be evicted, err = %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d", store.Len())
	}
	if _, err := store.Get("../../etc/passwd"); !errors.Is(err, ErrUploadExpired) {
		t.Errorf("malformed id err = %v", err)
	}
}
