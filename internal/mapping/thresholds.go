// Package mapping infers which statement columns hold which canonical fields.
package mapping

// Thresholds are the tuning knobs of header matching and auto-mapping.
// Confidences are on a 0-100 scale; rates are fractions.
type Thresholds struct {
	// ExactMatch is awarded when a header equals a synonym.
	ExactMatch int
	// SubstringMatch is awarded when a header contains a synonym or vice versa.
	SubstringMatch int
	// MinSubstringLength is the shortest string considered for containment.
	// A value of 1 allows any containment.
	MinSubstringLength int
	// MinSuggestion is the exclusive floor for keeping a candidate.
	MinSuggestion int
	// AutoAccept is the inclusive bar for committing a candidate without review.
	AutoAccept int
	// TemplateBonus is added to learned template confidences.
	TemplateBonus int
	// PatternBonusWeight scales the valid rate into a confidence bonus.
	PatternBonusWeight float64
	// PatternPenalty is subtracted when sample values do not fit the field.
	PatternPenalty int
	// PatternHighRate is the valid rate at or above which the bonus applies.
	PatternHighRate float64
	// PatternLowRate is the valid rate below which the penalty applies.
	PatternLowRate float64
	// MatchSampleSize bounds how many cell values feed pattern validation.
	MatchSampleSize int
	// ValidationSampleSize bounds how many rows ValidateMapping inspects.
	ValidationSampleSize int
	// ValidationErrorRate is the valid rate below which a field is an error.
	ValidationErrorRate float64
	// ValidationWarningRate is the valid rate below which a field is a warning.
	ValidationWarningRate float64
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExactMatch:            100,
		SubstringMatch:        85,
		MinSubstringLength:    3,
		MinSuggestion:         40,
		AutoAccept:            65,
		TemplateBonus:         10,
		PatternBonusWeight:    15,
		PatternPenalty:        20,
		PatternHighRate:       0.7,
		PatternLowRate:        0.3,
		MatchSampleSize:       10,
		ValidationSampleSize:  20,
		ValidationErrorRate:   0.5,
		ValidationWarningRate: 0.8,
	}
}
