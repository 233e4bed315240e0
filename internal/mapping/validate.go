package mapping

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/statement-mapper/internal/catalog"
	"github.com/Veraticus/statement-mapper/internal/model"
)

// Field validation statuses.
const (
	StatusOK        = "ok"
	StatusWarning   = "warning"
	StatusError     = "error"
	StatusUnchecked = "unchecked"
)

// FieldCheck is the per-field outcome of validating a mapping.
type FieldCheck struct {
	Field     model.FieldKey `json:"field"`
	Header    string         `json:"header"`
	Status    string         `json:"status"`
	Sampled   int            `json:"sampled"`
	ValidRate float64        `json:"valid_rate"`
}

// Validation reports how well a mapping fits the file's data.
type Validation struct {
	Errors   []string     `json:"errors"`
	Warnings []string     `json:"warnings"`
	Fields   []FieldCheck `json:"fields"`
	Score    int          `json:"score"`
	IsValid  bool         `json:"is_valid"`
}

// Validator checks a mapping against sample rows.
type Validator struct {
	catalog    *catalog.Catalog
	logger     *slog.Logger
	thresholds Thresholds
}

// NewValidator creates a mapping validator.
func NewValidator(c *catalog.Catalog, thresholds Thresholds, logger *slog.Logger) *Validator {
	if c == nil {
		c = catalog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{catalog: c, thresholds: thresholds, logger: logger}
}

// ValidateMapping checks each mapped column's values against its field's
// validator and reports any required fields left unmapped.
func (v *Validator) ValidateMapping(mapping model.FieldMapping, rows []model.RawRow, ctx model.Context) *Validation {
	result := &Validation{}

	sample := rows
	if len(sample) > v.thresholds.ValidationSampleSize {
		sample = sample[:v.thresholds.ValidationSampleSize]
	}

	for _, field := range mapping.Fields() {
		header := mapping[field]
		check := FieldCheck{Field: field, Header: header, Status: StatusUnchecked}

		validate, ok := v.catalog.Validator(ctx, field)
		if !ok {
			result.Fields = append(result.Fields, check)
			continue
		}

		values := sampleValues(header, sample, len(sample))
		check.Sampled = len(values)
		if len(values) == 0 {
			check.Status = StatusWarning
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("column %q mapped to %s has no values", header, field))
			result.Fields = append(result.Fields, check)
			continue
		}

		check.ValidRate = validRate(validate, values)
		switch {
		case check.ValidRate < v.thresholds.ValidationErrorRate:
			check.Status = StatusError
			result.Errors = append(result.Errors,
				fmt.Sprintf("column %q does not look like %s (%.0f%% of values valid)", header, field, check.ValidRate*100))
		case check.ValidRate < v.thresholds.ValidationWarningRate:
			check.Status = StatusWarning
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("column %q has some values that do not look like %s (%.0f%% valid)", header, field, check.ValidRate*100))
		default:
			check.Status = StatusOK
		}
		result.Fields = append(result.Fields, check)
	}

	for _, field := range missingRequired(v.catalog, ctx, mapping) {
		result.Errors = append(result.Errors, fmt.Sprintf("required field %s is not mapped", field))
	}

	if len(result.Errors) == 0 {
		result.Score = max(0, 100-10*len(result.Warnings))
	} else {
		result.Score = max(0, 50-15*len(result.Errors))
	}
	result.IsValid = len(result.Errors) == 0

	v.logger.Debug("validated mapping",
		"context", ctx,
		"fields", len(mapping),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"score", result.Score)

	return result
}
