package pattern

import (
	"math"
	"time"

	"github.com/Veraticus/statement-mapper/internal/model"
)

// AnalyzePatterns detects the date format of a column, then parses every
// value with it to derive the date range and payment frequency.
func (d *Detector) AnalyzePatterns(values []string) *model.PatternAnalysis {
	format := d.DetectDateFormat(values, DefaultSampleSize)
	if !format.Found() {
		freq := insufficientData()
		return &model.PatternAnalysis{
			Frequency:      freq.Frequency,
			FrequencyLabel: freq.Label,
		}
	}

	dates := parseColumn(format.Layout, values)
	freq := d.DetectFrequency(dates, DefaultMinSamples)

	return &model.PatternAnalysis{
		DateFormat:          format.Format,
		FormatConfidence:    format.Confidence,
		Frequency:           freq.Frequency,
		FrequencyLabel:      freq.Label,
		FrequencyConfidence: freq.Confidence,
		AverageIntervalDays: freq.AverageIntervalDays,
		DateRange:           dateRange(dates),
	}
}

func parseColumn(layout string, values []string) []time.Time {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		cleaned := CleanDateValue(v)
		if cleaned == "" {
			continue
		}
		if t, err := time.Parse(layout, cleaned); err == nil {
			dates = append(dates, t)
		}
	}
	return dates
}

func dateRange(dates []time.Time) *model.DateRange {
	if len(dates) == 0 {
		return nil
	}
	earliest, latest := dates[0], dates[0]
	for _, t := range dates[1:] {
		if t.Before(earliest) {
			earliest = t
		}
		if t.After(latest) {
			latest = t
		}
	}
	return &model.DateRange{
		Earliest: earliest,
		Latest:   latest,
		SpanDays: int(math.Round(latest.Sub(earliest).Hours() / hoursPerDay)),
	}
}
