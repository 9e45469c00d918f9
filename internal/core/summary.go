package core

import "github.com/shopspring/decimal"

// CategoryTotal is the sum of the expense amounts of one category in a month.
// Totals are negative, matching the sign of the rows they aggregate.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// MonthOverview is the aggregated result for a selected month.
type MonthOverview struct {
	Month       MonthKey
	Total       decimal.Decimal
	ExpenseRows int
	ByCategory  []CategoryTotal
}

// Dataset is the cleaned table: records that survived coercion and the months they span.
type Dataset struct {
	Records []Record
	// Months are distinct and sorted most recent first.
	Months []MonthKey
	// Dropped counts rows discarded because date or amount did not parse.
	Dropped int
}

// HasMonth reports whether m is one of the selectable months.
func (d Dataset) HasMonth(m MonthKey) bool {
	for _, k := range d.Months {
		if k == m {
			return true
		}
	}
	return false
}

// Latest returns the most recent month, or the zero key if the dataset is empty.
func (d Dataset) Latest() MonthKey {
	if len(d.Months) == 0 {
		return ""
	}
	return d.Months[0]
}
