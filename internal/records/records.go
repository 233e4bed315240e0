// Package records applies a confirmed field mapping to raw rows, producing
// typed statement records for downstream consumers.
package records

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/pattern"
)

// ErrInvalidAmount is returned for cells that are not monetary values.
var ErrInvalidAmount = errors.New("invalid amount")

// numericFields are parsed as decimals; every other mapped field is kept as text.
var numericFields = map[model.FieldKey]bool{
	model.FieldAmount:               true,
	model.FieldBalance:              true,
	model.FieldEmployeeContribution: true,
	model.FieldEmployerContribution: true,
	model.FieldTaxRelief:            true,
	model.FieldInterest:             true,
	model.FieldMinimumPayment:       true,
	model.FieldUnits:                true,
	model.FieldUnitPrice:            true,
	model.FieldInterestRate:         true,
}

var (
	currencyNoise = regexp.MustCompile(`(?i)[£$€\s]|gbp|usd|eur`)
	decimalComma  = regexp.MustCompile(`^[+-]?\d+,\d{2}$`)
)

// Record is one typed statement line.
type Record struct {
	Date    time.Time
	Values  map[model.FieldKey]decimal.Decimal
	Text    map[model.FieldKey]string
	Line    int
	HasDate bool
}

// Amount returns the record's amount, or zero when none was mapped or parsed.
func (r Record) Amount() decimal.Decimal {
	return r.Values[model.FieldAmount]
}

// Balance returns the record's balance and whether it was present.
func (r Record) Balance() (decimal.Decimal, bool) {
	b, ok := r.Values[model.FieldBalance]
	return b, ok
}

// RowError reports one cell that could not be typed.
type RowError struct {
	Err   error
	Field model.FieldKey
	Value string
	Line  int
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Result holds the typed records and the cells that failed to parse.
type Result struct {
	Records []Record
	Errors  []RowError
}

// Apply types every row under mapping. Dates are parsed with the named
// format from the pattern package; an empty format leaves dates untyped.
// Blank cells are omitted and rows with no mapped values are skipped.
// Line numbers are 1-based data row positions.
func Apply(mapping model.FieldMapping, rows []model.RawRow, dateFormat string) *Result {
	result := &Result{}
	fields := mapping.Fields()

	for i, row := range rows {
		rec := Record{
			Line:   i + 1,
			Values: make(map[model.FieldKey]decimal.Decimal),
			Text:   make(map[model.FieldKey]string),
		}
		empty := true

		for _, field := range fields {
			raw := row.Value(mapping[field])
			if raw == "" {
				continue
			}
			empty = false

			switch {
			case field == model.FieldDate:
				rec.Text[field] = raw
				if dateFormat == "" {
					continue
				}
				t, err := pattern.ParseDate(raw, dateFormat)
				if err != nil {
					result.Errors = append(result.Errors, RowError{Line: rec.Line, Field: field, Value: raw, Err: err})
					continue
				}
				rec.Date, rec.HasDate = t, true
			case numericFields[field]:
				d, err := ParseAmount(raw)
				if err != nil {
					result.Errors = append(result.Errors, RowError{Line: rec.Line, Field: field, Value: raw, Err: err})
					continue
				}
				rec.Values[field] = d
			default:
				rec.Text[field] = raw
			}
		}

		if !empty {
			result.Records = append(result.Records, rec)
		}
	}
	return result
}

// ParseAmount parses a statement amount. It accepts currency symbols and
// codes, thousands separators, a decimal comma with two places, accounting
// parentheses, trailing minus signs and CR/DR markers (DR is negative),
// and a trailing percent sign.
func ParseAmount(value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	negative := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		negative = true
		v = strings.TrimSpace(v[1 : len(v)-1])
	}

	upper := strings.ToUpper(v)
	switch {
	case strings.HasSuffix(upper, "DR"):
		negative = !negative
		v = strings.TrimSpace(v[:len(v)-2])
	case strings.HasSuffix(upper, "CR"):
		v = strings.TrimSpace(v[:len(v)-2])
	}

	v = strings.TrimSuffix(currencyNoise.ReplaceAllString(v, ""), "%")
	if strings.HasSuffix(v, "-") {
		negative = !negative
		v = strings.TrimSuffix(v, "-")
	}
	if decimalComma.MatchString(v) {
		v = strings.Replace(v, ",", ".", 1)
	} else {
		v = strings.ReplaceAll(v, ",", "")
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// Summary totals a result.
type Summary struct {
	Earliest time.Time
	Latest   time.Time
	Total    decimal.Decimal
	In       decimal.Decimal
	Out      decimal.Decimal
	Records  int
	Errors   int
}

// Summary totals the amounts of every record and the date span of the
// dated ones. Out is reported as a positive value.
func (r *Result) Summary() Summary {
	s := Summary{Records: len(r.Records), Errors: len(r.Errors)}
	for _, rec := range r.Records {
		amount := rec.Amount()
		s.Total = s.Total.Add(amount)
		if amount.IsPositive() {
			s.In = s.In.Add(amount)
		} else {
			s.Out = s.Out.Add(amount.Neg())
		}

		if !rec.HasDate {
			continue
		}
		if s.Earliest.IsZero() || rec.Date.Before(s.Earliest) {
			s.Earliest = rec.Date
		}
		if rec.Date.After(s.Latest) {
			s.Latest = rec.Date
		}
	}
	return s
}
