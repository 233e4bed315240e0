package pattern

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownDateFormat is returned when a format name is not a known candidate.
var ErrUnknownDateFormat = errors.New("unknown date format")

// DateFormat pairs a human-readable format name with its Go layout.
type DateFormat struct {
	Name   string
	Layout string
}

// Candidate formats in preference order. UK ordering comes before US
// ordering so that ties resolve to day-first.
var dateFormats = []DateFormat{
	{Name: "DD/MM/YYYY", Layout: "02/01/2006"},
	{Name: "MM/DD/YYYY", Layout: "01/02/2006"},
	{Name: "YYYY-MM-DD", Layout: "2006-01-02"},
	{Name: "DD-MM-YYYY", Layout: "02-01-2006"},
	{Name: "MM-DD-YYYY", Layout: "01-02-2006"},
	{Name: "DD.MM.YYYY", Layout: "02.01.2006"},
	{Name: "YYYY/MM/DD", Layout: "2006/01/02"},
	{Name: "DD/MM/YY", Layout: "02/01/06"},
	{Name: "MM/DD/YY", Layout: "01/02/06"},
	{Name: "D/M/YYYY", Layout: "2/1/2006"},
	{Name: "M/D/YYYY", Layout: "1/2/2006"},
	{Name: "DD MMM YYYY", Layout: "02 Jan 2006"},
	{Name: "D MMM YYYY", Layout: "2 Jan 2006"},
	{Name: "DD MMMM YYYY", Layout: "2 January 2006"},
	{Name: "MMM DD, YYYY", Layout: "Jan 2, 2006"},
	{Name: "MMMM DD, YYYY", Layout: "January 2, 2006"},
	{Name: "DD-MMM-YYYY", Layout: "02-Jan-2006"},
	{Name: "YYYYMMDD", Layout: "20060102"},
	{Name: "DD-MMM-YY", Layout: "02-Jan-06"},
}

// ambiguousPairs maps each day/month-ambiguous format to its
// (day-first, month-first) pair.
var ambiguousPairs = map[string][2]string{
	"DD/MM/YYYY": {"DD/MM/YYYY", "MM/DD/YYYY"},
	"MM/DD/YYYY": {"DD/MM/YYYY", "MM/DD/YYYY"},
	"DD-MM-YYYY": {"DD-MM-YYYY", "MM-DD-YYYY"},
	"MM-DD-YYYY": {"DD-MM-YYYY", "MM-DD-YYYY"},
	"DD/MM/YY":   {"DD/MM/YY", "MM/DD/YY"},
	"MM/DD/YY":   {"DD/MM/YY", "MM/DD/YY"},
	"D/M/YYYY":   {"D/M/YYYY", "M/D/YYYY"},
	"M/D/YYYY":   {"D/M/YYYY", "M/D/YYYY"},
}

const (
	minFormatScore        = 0.5
	disambiguateBelow     = 95
	maxConsistentGap      = 5 * 365 * 24 * time.Hour
	ukTieWeight           = 0.1
	parseWeight           = 0.7
	chronologicalWeight   = 0.3
	ambiguousMonthCeiling = 12
)

var (
	timeSuffixPattern = regexp.MustCompile(`(?i)(?:[T\s]+\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:\s*[ap]m)?(?:\s*(?:Z|[+-]\d{2}:?\d{2}|[A-Z]{3,4}))?)$`)
	ordinalPattern    = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
	numericToken      = regexp.MustCompile(`\d+`)
)

// Formats returns the candidate date formats in preference order.
func Formats() []DateFormat {
	out := make([]DateFormat, len(dateFormats))
	copy(out, dateFormats)
	return out
}

// LookupFormat returns the candidate format with the given name.
func LookupFormat(name string) (DateFormat, bool) {
	for _, f := range dateFormats {
		if f.Name == name {
			return f, true
		}
	}
	return DateFormat{}, false
}

// CleanDateValue trims a raw cell, strips a trailing time component and
// removes ordinal suffixes such as "1st" or "22nd".
func CleanDateValue(value string) string {
	v := strings.TrimSpace(value)
	v = strings.TrimSpace(timeSuffixPattern.ReplaceAllString(v, ""))
	v = ordinalPattern.ReplaceAllString(v, "$1")
	return strings.Join(strings.Fields(v), " ")
}

// ParseDate parses a raw cell using a named candidate format.
func ParseDate(value, format string) (time.Time, error) {
	f, ok := LookupFormat(format)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownDateFormat, format)
	}
	t, err := time.Parse(f.Layout, CleanDateValue(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q as %s: %w", value, format, err)
	}
	return t, nil
}

// DetectDateFormat picks the candidate format that parses the most values
// in a plausible order. Values are cleaned and blank cells skipped before
// sampling.
func (d *Detector) DetectDateFormat(values []string, sampleSize int) *DateFormatResult {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	sample := make([]string, 0, sampleSize)
	for _, v := range values {
		if len(sample) >= sampleSize {
			break
		}
		if cleaned := CleanDateValue(v); cleaned != "" {
			sample = append(sample, cleaned)
		}
	}
	if len(sample) == 0 {
		return &DateFormatResult{Method: MethodNoFormat}
	}

	var (
		best      DateFormat
		bestScore float64
		bestDates []time.Time
	)
	for _, f := range dateFormats {
		dates := parseAll(f.Layout, sample)
		if len(dates) == 0 {
			continue
		}
		score := parseWeight*float64(len(dates))/float64(len(sample)) +
			chronologicalWeight*chronologicalRate(dates)
		if score > bestScore {
			best, bestScore, bestDates = f, score, dates
		}
	}

	if bestScore < minFormatScore {
		return &DateFormatResult{Method: MethodNoFormat}
	}

	result := &DateFormatResult{
		Format:      best.Name,
		Layout:      best.Layout,
		Confidence:  int(math.Round(bestScore * 100)),
		ParsedDates: bestDates,
		Method:      MethodPatternMatch,
	}

	if pair, ambiguous := ambiguousPairs[best.Name]; ambiguous && result.Confidence < disambiguateBelow {
		d.disambiguate(result, pair, sample)
	}

	return result
}

// disambiguate settles day-first versus month-first ordering by looking at
// which numeric position ever exceeds 12.
func (d *Detector) disambiguate(result *DateFormatResult, pair [2]string, sample []string) {
	var dayFirst, monthFirst float64
	for _, v := range sample {
		tokens := numericToken.FindAllString(v, 2)
		if len(tokens) < 2 {
			continue
		}
		first, _ := strconv.Atoi(tokens[0])
		second, _ := strconv.Atoi(tokens[1])
		switch {
		case first > ambiguousMonthCeiling:
			dayFirst++
		case second > ambiguousMonthCeiling:
			monthFirst++
		default:
			dayFirst += ukTieWeight
		}
	}

	total := dayFirst + monthFirst
	if total == 0 {
		return
	}

	chosen, share := pair[0], dayFirst/total
	if monthFirst > dayFirst {
		chosen, share = pair[1], monthFirst/total
	}

	f, _ := LookupFormat(chosen)
	result.Format = f.Name
	result.Layout = f.Layout
	result.ParsedDates = parseAll(f.Layout, sample)
	result.Confidence = int(math.Round(share * 100))
	result.Method = MethodNumericDisambiguation
}

func parseAll(layout string, values []string) []time.Time {
	var dates []time.Time
	for _, v := range values {
		if t, err := time.Parse(layout, v); err == nil {
			dates = append(dates, t)
		}
	}
	return dates
}

// chronologicalRate is the share of consecutive dates less than five years
// apart. A single date is trivially consistent.
func chronologicalRate(dates []time.Time) float64 {
	if len(dates) < 2 {
		return 1
	}
	consistent := 0
	for i := 1; i < len(dates); i++ {
		gap := dates[i].Sub(dates[i-1])
		if gap < 0 {
			gap = -gap
		}
		if gap < maxConsistentGap {
			consistent++
		}
	}
	return float64(consistent) / float64(len(dates)-1)
}
