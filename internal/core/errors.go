package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoUsableRows is reported (wrapped in a LoadError) when coercion leaves nothing to aggregate.
var ErrNoUsableRows = errors.New("nenhuma linha válida após conversão de data e valor")

// SchemaError is returned when the source lacks one of the required columns.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("a planilha deve conter as colunas: '%s' (faltando: %s)",
		strings.Join(RequiredColumns, "', '"), strings.Join(e.Missing, ", "))
}

// LoadError wraps any failure to obtain usable rows from a source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("erro ao processar os dados: %v", e.Err)
	}
	return fmt.Sprintf("erro ao carregar dados de %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError is a shorthand used by the source adapters.
func NewLoadError(source string, err error) *LoadError {
	return &LoadError{Source: source, Err: err}
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsLoadError reports whether err is or wraps a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
