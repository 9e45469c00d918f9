package csvexport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"gastos/internal/core"

	"github.com/gocarina/gocsv"
)

var (
	ErrEmptyCSV    = errors.New("empty CSV: no header row")
	ErrTooManyRows = errors.New("csv has too many records")

	utf8BOM          = []byte{0xEF, 0xBB, 0xBF}
	maxRecordsPerCSV = 1_000_000
)

// Decode streams a CSV document whose first non-blank record is the header.
//
// Quotes are handled leniently, header names are trimmed, short rows are padded
// with empty cells and blank lines are skipped. Documents with more than
// maxRecordsPerCSV records are rejected as soon as the limit is crossed.
func Decode(r io.Reader) (core.Table, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := gocsv.LazyCSVReader(br)
	if cr, ok := reader.(*csv.Reader); ok {
		cr.FieldsPerRecord = -1
		cr.ReuseRecord = true
	}
	dec := gocsv.NewSimpleDecoderFromCSVReader(reader)

	var b *tableBuilder
	records := 0
	for {
		rec, err := dec.GetCSVRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.Table{}, fmt.Errorf("parse csv: %w", err)
		}
		if records++; records > maxRecordsPerCSV {
			return core.Table{}, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRecordsPerCSV)
		}
		if b == nil {
			if isBlank(rec) {
				continue
			}
			b = newTableBuilder(rec)
			continue
		}
		b.add(rec)
	}
	if b == nil {
		return core.Table{}, ErrEmptyCSV
	}
	return b.table, nil
}

// FromRecords builds a table from a header record followed by data records.
// It is shared by every source that yields a matrix of strings.
func FromRecords(records [][]string) core.Table {
	if len(records) == 0 {
		return core.Table{}
	}
	b := newTableBuilder(records[0])
	for _, rec := range records[1:] {
		b.add(rec)
	}
	return b.table
}

// tableBuilder copies records into rows keyed by the trimmed header, so the
// records themselves may be reused by the caller.
type tableBuilder struct {
	header []string
	table  core.Table
}

func newTableBuilder(header []string) *tableBuilder {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}
	return &tableBuilder{header: cols, table: core.Table{Columns: cols, Rows: []core.RawRow{}}}
}

func (b *tableBuilder) add(rec []string) {
	if isBlank(rec) {
		return
	}
	row := make(core.RawRow, len(b.header))
	for i, col := range b.header {
		if col == "" {
			continue
		}
		if i < len(rec) {
			row[col] = rec[i]
		} else {
			row[col] = ""
		}
	}
	b.table.Rows = append(b.table.Rows, row)
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
