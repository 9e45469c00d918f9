package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gastos/internal/core"
	"gastos/internal/sheets/csvexport"
)

var errEmptySheet = errors.New("sheet is empty")

// parseValues converts a values matrix (as returned by the Sheets API) into a
// table. The first row is the header; trailing empty cells are omitted by the
// API, so rows may be shorter than the header.
func parseValues(values [][]interface{}) (core.Table, error) {
	if len(values) == 0 {
		return core.Table{}, errEmptySheet
	}
	records := make([][]string, len(values))
	for i, row := range values {
		records[i] = toStrings(row)
	}
	return csvexport.FromRecords(records), nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
