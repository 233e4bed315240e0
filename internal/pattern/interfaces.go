// Package pattern detects date formats and payment cadence in statement columns.
package pattern

import (
	"time"

	"github.com/Veraticus/statement-mapper/internal/model"
)

// Detection defaults.
const (
	DefaultSampleSize = 20
	DefaultMinSamples = 3
)

// Detection methods reported on date format results.
const (
	MethodPatternMatch          = "pattern_match"
	MethodNumericDisambiguation = "numeric_disambiguation"
	MethodNoFormat              = "none"
)

// FormatDetector infers the date format of a column.
type FormatDetector interface {
	// DetectDateFormat scores every candidate format against up to sampleSize values.
	DetectDateFormat(values []string, sampleSize int) *DateFormatResult
}

// FrequencyDetector infers payment cadence from a set of dates.
type FrequencyDetector interface {
	// DetectFrequency classifies the intervals between dates.
	DetectFrequency(dates []time.Time, minSamples int) *FrequencyResult
}

// Analyzer produces the composite date-column snapshot for an upload.
type Analyzer interface {
	FormatDetector
	FrequencyDetector
	// AnalyzePatterns runs format and frequency detection over a date column.
	AnalyzePatterns(values []string) *model.PatternAnalysis
}

// DateFormatResult is the outcome of date format detection. An empty Format
// means no candidate scored well enough.
type DateFormatResult struct {
	Format      string      `json:"format"`
	Layout      string      `json:"layout"`
	Method      string      `json:"method"`
	ParsedDates []time.Time `json:"parsed_dates"`
	Confidence  int         `json:"confidence"`
}

// Found reports whether a format was detected.
func (r *DateFormatResult) Found() bool {
	return r != nil && r.Format != ""
}

// FrequencyResult is the outcome of frequency detection.
type FrequencyResult struct {
	Frequency           model.Frequency `json:"frequency"`
	Label               string          `json:"label"`
	Confidence          int             `json:"confidence"`
	AverageIntervalDays float64         `json:"average_interval_days"`
	StandardDeviation   float64         `json:"standard_deviation"`
}

// Detector implements Analyzer. It is stateless and safe for concurrent use.
type Detector struct{}

// NewDetector creates a pattern detector.
func NewDetector() *Detector {
	return &Detector{}
}

var _ Analyzer = (*Detector)(nil)
