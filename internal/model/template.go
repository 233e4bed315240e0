package model

import (
	"math"
	"strings"
	"time"
)

// TemplateFieldMapping is one learned header-to-field assignment.
type TemplateFieldMapping struct {
	OriginalHeader string   `json:"original_header"`
	MappedField    FieldKey `json:"mapped_field"`
	Confidence     int      `json:"confidence"`
	SuccessCount   int      `json:"success_count"`
	TotalAttempts  int      `json:"total_attempts"`
}

// Template is a persisted, provider-specific field mapping learned from
// previously confirmed uploads.
type Template struct {
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	Provider       string                 `json:"provider"`
	Context        Context                `json:"context"`
	DateFormat     string                 `json:"date_format,omitempty"`
	Frequency      Frequency              `json:"frequency,omitempty"`
	FieldMappings  []TemplateFieldMapping `json:"field_mappings"`
	ExampleHeaders []string               `json:"example_headers"`
	UsageCount     int                    `json:"usage_count"`
	SuccessRate    int                    `json:"success_rate"`
}

// FindMapping returns the index of the entry for field and header, matching
// the header case-insensitively, or -1 if none exists.
func (t *Template) FindMapping(field FieldKey, header string) int {
	for i, fm := range t.FieldMappings {
		if fm.MappedField == field && strings.EqualFold(fm.OriginalHeader, header) {
			return i
		}
	}
	return -1
}

// RecalculateSuccessRate recomputes SuccessRate from the entries' counts.
func (t *Template) RecalculateSuccessRate() {
	var success, attempts int
	for _, fm := range t.FieldMappings {
		success += fm.SuccessCount
		attempts += fm.TotalAttempts
	}
	if attempts == 0 {
		t.SuccessRate = 0
		return
	}
	t.SuccessRate = int(math.Round(100 * float64(success) / float64(attempts)))
}

// ProviderKey returns the normalized provider used for template lookups.
func ProviderKey(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

// Clone returns a deep copy of the template.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.FieldMappings = append([]TemplateFieldMapping(nil), t.FieldMappings...)
	out.ExampleHeaders = append([]string(nil), t.ExampleHeaders...)
	return &out
}
