// Package xlsx decodes spreadsheet workbooks (.xlsx) supplied by users.
package xlsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gastos/internal/core"
	ports "gastos/internal/sheets"
	"gastos/internal/sheets/csvexport"

	"github.com/xuri/excelize/v2"
)

var ErrNoSheets = errors.New("workbook has no sheets")

// Decode reads the first sheet of a workbook. The first row is the header.
//
// Cells are read without number formatting so that amounts keep full precision.
// Numeric cells in the date column are Excel serial dates and are rewritten as
// YYYY-MM-DD.
func Decode(r io.Reader) (core.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return core.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return core.Table{}, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return core.Table{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return core.Table{}, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	convertSerialDates(rows, date1904)
	return csvexport.FromRecords(rows), nil
}

// convertSerialDates rewrites numeric cells of the date column in place.
func convertSerialDates(rows [][]string, date1904 bool) {
	col := -1
	for i, h := range rows[0] {
		if strings.TrimSpace(h) == core.ColumnDate {
			col = i
			break
		}
	}
	if col < 0 {
		return
	}
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil || serial <= 0 {
			continue
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			continue
		}
		row[col] = t.Format("2006-01-02")
	}
}

// Reader serves a workbook held in memory, decoding it on every read.
type Reader struct {
	name string
	data []byte
}

var (
	_ ports.TableReader = (*Reader)(nil)
	_ ports.Describer   = (*Reader)(nil)
)

// NewReader wraps an uploaded workbook. name is the original file name.
func NewReader(name string, data []byte) *Reader {
	return &Reader{name: name, data: data}
}

func (r *Reader) Describe() string {
	if r.name == "" {
		return "arquivo enviado"
	}
	return r.name
}

func (r *Reader) ReadTable(_ context.Context) (core.Table, error) {
	t, err := Decode(bytes.NewReader(r.data))
	if err != nil {
		return core.Table{}, core.NewLoadError(r.Describe(), err)
	}
	return t, nil
}
