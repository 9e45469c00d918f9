package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Required column names of the source spreadsheet.
const (
	ColumnDate     = "data"
	ColumnAmount   = "valor"
	ColumnCategory = "categoria"
)

// RequiredColumns lists the columns every source must provide, in display order.
var RequiredColumns = []string{ColumnDate, ColumnAmount, ColumnCategory}

type (
	// RawRow maps a column name to the raw cell text as read from the source.
	RawRow map[string]string

	// Table is the loader's output: the header in source order plus every data row.
	Table struct {
		Columns []string
		Rows    []RawRow
	}

	// Record is a row whose date and amount both parsed.
	Record struct {
		Date     time.Time
		Amount   decimal.Decimal
		Category string
	}

	// MonthKey identifies a calendar year+month as "YYYY-MM".
	MonthKey string
)

var (
	ErrInvalidMonth    = errors.New("invalid month")
	ErrNoMonthSelected = errors.New("no month selected")
)

var monthNamesPT = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// HasColumn reports whether the header contains name (exact match).
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MonthKeyOf truncates t to its year and month.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// ParseMonthKey validates a "YYYY-MM" string.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthKeyOf(t), nil
}

func (m MonthKey) String() string {
	return string(m)
}

// IsZero reports whether no month has been selected.
func (m MonthKey) IsZero() bool {
	return m == ""
}

// Year returns the year part, or 0 if the key is malformed.
func (m MonthKey) Year() int {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return 0
	}
	return t.Year()
}

// Month returns the month number (1-12), or 0 if the key is malformed.
func (m MonthKey) Month() int {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return 0
	}
	return int(t.Month())
}

// Label renders the key for humans, e.g. "março de 2024".
func (m MonthKey) Label() string {
	month := m.Month()
	if month == 0 {
		return string(m)
	}
	return fmt.Sprintf("%s de %d", monthNamesPT[month-1], m.Year())
}
