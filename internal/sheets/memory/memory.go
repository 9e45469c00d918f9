package memory

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gastos/internal/core"
	ports "gastos/internal/sheets"
	"gastos/internal/sheets/csvexport"
	"gastos/internal/sheets/xlsx"
)

// Store serves a table held in memory. It backs tests and local demos.
type Store struct {
	table core.Table
}

var _ ports.TableReader = (*Store)(nil)

func New(t core.Table) *Store {
	return &Store{table: cloneTable(t)}
}

// ReadTable returns a copy so callers cannot mutate the stored rows.
func (s *Store) ReadTable(_ context.Context) (core.Table, error) {
	return cloneTable(s.table), nil
}

func cloneTable(t core.Table) core.Table {
	out := core.Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]core.RawRow, len(t.Rows)),
	}
	for i, r := range t.Rows {
		row := make(core.RawRow, len(r))
		for k, v := range r {
			row[k] = v
		}
		out.Rows[i] = row
	}
	return out
}

// File reads a local .csv or .xlsx file on every ReadTable call.
type File struct {
	path string
}

var (
	_ ports.TableReader = (*File)(nil)
	_ ports.Describer   = (*File)(nil)
)

func NewFromFile(path string) *File {
	return &File{path: path}
}

func (f *File) Describe() string {
	return filepath.Base(f.path)
}

func (f *File) ReadTable(_ context.Context) (core.Table, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return core.Table{}, core.NewLoadError(f.Describe(), err)
	}
	t, err := DecodeByName(f.path, data)
	if err != nil {
		return core.Table{}, core.NewLoadError(f.Describe(), err)
	}
	return t, nil
}

// DecodeByName picks the decoder from the file extension.
func DecodeByName(name string, data []byte) (core.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return xlsx.Decode(bytes.NewReader(data))
	case ".csv", ".txt":
		return csvexport.Decode(bytes.NewReader(data))
	default:
		return core.Table{}, fmt.Errorf("unsupported file type %q: expected .xlsx or .csv", filepath.Ext(name))
	}
}

// Bytes is a TableReader over an in-memory file, decoded on every read.
type Bytes struct {
	name string
	data []byte
}

var (
	_ ports.TableReader = (*Bytes)(nil)
	_ ports.Describer   = (*Bytes)(nil)
)

func NewBytes(name string, data []byte) *Bytes {
	return &Bytes{name: name, data: data}
}

func (b *Bytes) Describe() string {
	if b.name == "" {
		return "arquivo enviado"
	}
	return filepath.Base(b.name)
}

func (b *Bytes) ReadTable(_ context.Context) (core.Table, error) {
	t, err := DecodeByName(b.name, b.data)
	if err != nil {
		return core.Table{}, core.NewLoadError(b.Describe(), err)
	}
	return t, nil
}
