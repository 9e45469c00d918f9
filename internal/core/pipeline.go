package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// ValidateSchema fails with a SchemaError unless the table has every required column.
func ValidateSchema(t Table) error {
	var missing []string
	for _, col := range RequiredColumns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// CoerceRow parses the date and amount of a raw row. ok is false when either fails.
func CoerceRow(row RawRow) (Record, bool) {
	date, err := ParseDate(row[ColumnDate])
	if err != nil {
		return Record{}, false
	}
	amount, err := ParseAmount(row[ColumnAmount])
	if err != nil {
		return Record{}, false
	}
	return Record{
		Date:     date,
		Amount:   amount,
		Category: NormalizeCategory(row[ColumnCategory]),
	}, true
}

// NormalizeCategory trims a category and puts it in Unicode NFC, so that
// "Alimentação" typed on different systems groups as one category.
func NormalizeCategory(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Prepare validates the schema, coerces every row, drops the invalid ones and
// collects the selectable months.
//
// A table whose rows all fail coercion yields a LoadError wrapping ErrNoUsableRows.
func Prepare(t Table) (Dataset, error) {
	if err := ValidateSchema(t); err != nil {
		return Dataset{}, err
	}

	ds := Dataset{Records: make([]Record, 0, len(t.Rows))}
	seen := make(map[MonthKey]struct{})
	for _, row := range t.Rows {
		rec, ok := CoerceRow(row)
		if !ok {
			ds.Dropped++
			continue
		}
		ds.Records = append(ds.Records, rec)
		key := MonthKeyOf(rec.Date)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			ds.Months = append(ds.Months, key)
		}
	}
	if len(ds.Records) == 0 {
		return Dataset{}, &LoadError{Err: ErrNoUsableRows}
	}

	// "YYYY-MM" sorts chronologically as a string.
	sort.Slice(ds.Months, func(i, j int) bool { return ds.Months[i] > ds.Months[j] })
	return ds, nil
}

// Summarize aggregates the expenses of one month by category.
//
// Only rows with a strictly negative amount count as expenses; zero and positive
// amounts are ignored. The result is ordered by total ascending, so the largest
// expense comes first; equal totals are ordered by category name.
// A month with no rows produces an empty overview.
func Summarize(ds Dataset, month MonthKey) (MonthOverview, error) {
	if month.IsZero() {
		return MonthOverview{}, ErrNoMonthSelected
	}

	ov := MonthOverview{Month: month, Total: decimal.Zero}
	sums := make(map[string]decimal.Decimal)
	for _, rec := range ds.Records {
		if MonthKeyOf(rec.Date) != month || !rec.Amount.IsNegative() {
			continue
		}
		ov.ExpenseRows++
		sums[rec.Category] = sums[rec.Category].Add(rec.Amount)
	}

	ov.ByCategory = make([]CategoryTotal, 0, len(sums))
	for cat, total := range sums {
		ov.ByCategory = append(ov.ByCategory, CategoryTotal{Category: cat, Total: total})
		ov.Total = ov.Total.Add(total)
	}
	sort.Slice(ov.ByCategory, func(i, j int) bool {
		a, b := ov.ByCategory[i], ov.ByCategory[j]
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c < 0
		}
		return a.Category < b.Category
	})
	return ov, nil
}

// Run is Prepare followed by Summarize. An empty month selects the most recent one.
func Run(t Table, month MonthKey) (Dataset, MonthOverview, error) {
	ds, err := Prepare(t)
	if err != nil {
		return Dataset{}, MonthOverview{}, err
	}
	if month.IsZero() {
		month = ds.Latest()
	}
	ov, err := Summarize(ds, month)
	if err != nil {
		return ds, MonthOverview{}, err
	}
	return ds, ov, nil
}
