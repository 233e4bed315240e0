package model

import "time"

// Frequency is the detected payment cadence of a statement.
type Frequency string

// Payment frequencies.
const (
	FrequencyWeekly           Frequency = "weekly"
	FrequencyBiweekly         Frequency = "biweekly"
	FrequencyMonthly          Frequency = "monthly"
	FrequencyQuarterly        Frequency = "quarterly"
	FrequencyAnnual           Frequency = "annual"
	FrequencyCustom           Frequency = "custom"
	FrequencyIrregular        Frequency = "irregular"
	FrequencyInsufficientData Frequency = "insufficient_data"
)

// DateRange summarizes the span of parsed statement dates.
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
	SpanDays int       `json:"span_days"`
}

// PatternAnalysis is the date-column snapshot derived once per upload.
// An empty DateFormat means no format could be detected.
type PatternAnalysis struct {
	DateRange           *DateRange `json:"date_range,omitempty"`
	DateFormat          string     `json:"date_format"`
	Frequency           Frequency  `json:"frequency"`
	FrequencyLabel      string     `json:"frequency_label"`
	FormatConfidence    int        `json:"format_confidence"`
	FrequencyConfidence int        `json:"frequency_confidence"`
	AverageIntervalDays float64    `json:"average_interval_days"`
}

// HasDateFormat reports whether a date format was detected.
func (p *PatternAnalysis) HasDateFormat() bool {
	return p != nil && p.DateFormat != ""
}

// UnknownProvider is reported when no provider could be identified.
const UnknownProvider = "Unknown"

// ProviderMatch is the result of provider detection.
type ProviderMatch struct {
	Provider   string `json:"provider"`
	Method     string `json:"method"`
	Confidence int    `json:"confidence"`
}

// IsKnown reports whether a provider was identified.
func (p ProviderMatch) IsKnown() bool {
	return p.Provider != "" && p.Provider != UnknownProvider
}
