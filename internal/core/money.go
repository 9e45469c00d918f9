// Package core provides the dashboard's domain types and the aggregation pipeline.
//
// This file contains permissive parsing of spreadsheet amounts and the
// currency formatting used by the table and the chart.
package core

import (
	"errors"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var currencyReplacer = strings.NewReplacer(
	"R$", "", "BRL", "", "US$", "", "$", "", "€", "",
	" ", "", "\u00a0", "", "'", "",
)

// ParseAmount converts a spreadsheet cell into a signed decimal.
//
// Accepted shapes include "-50", "1234.56", "1.234,56", "1,234.56", "1234,56",
// "R$ -12,30", "(12.30)" and "12.30-". Anything else yields ErrInvalidAmount.
// A single comma followed by three digits groups thousands ("1,234" is 1234)
// unless the integer part is zero ("0,123" is 0.123).
//
// Examples:
//
//	ParseAmount("-1.234,56") -> -1234.56
//	ParseAmount("R$ 10")     -> 10
//	ParseAmount("(7,5)")     -> -7.5
func ParseAmount(s string) (decimal.Decimal, error) {
	s = currencyReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		neg = !neg
		s = strings.TrimSuffix(s, "-")
	}
	switch {
	case strings.HasPrefix(s, "-"):
		neg = !neg
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if s == "" || strings.ContainsAny(s, "+-()") {
		return decimal.Zero, ErrInvalidAmount
	}

	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites grouping and decimal marks into the "1234.56" form.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		// 1,234.56
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		// A lone comma is a decimal mark unless it groups exactly three
		// digits after a non-zero integer part: "1,234" but "0,123".
		intPart := s[:lastComma]
		if strings.Count(s, ",") == 1 && (len(s)-lastComma-1 != 3 || strings.Trim(intPart, "0") == "") {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// FormatBRL renders an amount like the dashboard table does: "R$ -1,234.56".
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}
