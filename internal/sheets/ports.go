package sheets

import (
	"context"

	"gastos/internal/core"
)

// Ports for outbound adapters.
type (
	// TableReader loads the raw spreadsheet rows from one source.
	// Each call performs a fresh read; implementations do not cache.
	TableReader interface {
		ReadTable(ctx context.Context) (core.Table, error)
	}

	// Describer is implemented by readers that can name their source for logs
	// and error messages.
	Describer interface {
		Describe() string
	}
)

// Describe returns a short label for r, falling back to "fonte de dados".
func Describe(r TableReader) string {
	if d, ok := r.(Describer); ok {
		return d.Describe()
	}
	return "fonte de dados"
}
