package mapping

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/Veraticus/statement-mapper/internal/catalog"
	"github.com/Veraticus/statement-mapper/internal/model"
)

// Result is the outcome of auto-mapping one file's headers.
type Result struct {
	Mapping          model.FieldMapping                `json:"mapping"`
	ConfidenceScores model.ConfidenceScores            `json:"confidence_scores"`
	Methods          map[model.FieldKey]string         `json:"methods"`
	Suggestions      map[string][]model.CandidateMatch `json:"suggestions"`
	UnmappedHeaders  []string                          `json:"unmapped_headers"`
	MissingRequired  []model.FieldKey                  `json:"missing_required"`
	// OverallConfidence is the mean confidence of the assigned fields.
	OverallConfidence int  `json:"overall_confidence"`
	IsComplete        bool `json:"is_complete"`
}

// AutoMapper proposes a complete field mapping for a file.
type AutoMapper struct {
	catalog    *catalog.Catalog
	matcher    *Matcher
	logger     *slog.Logger
	thresholds Thresholds
}

// NewAutoMapper creates an auto-mapper over the given catalog.
func NewAutoMapper(c *catalog.Catalog, thresholds Thresholds, logger *slog.Logger) *AutoMapper {
	if c == nil {
		c = catalog.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoMapper{
		catalog:    c,
		matcher:    NewMatcher(c, thresholds),
		logger:     logger,
		thresholds: thresholds,
	}
}

// Matcher returns the header matcher used by the auto-mapper.
func (a *AutoMapper) Matcher() *Matcher {
	return a.matcher
}

// AutoMapHeaders assigns fields to headers. Learned template entries are
// applied first, then each remaining header's best candidate is accepted
// when it clears the auto-accept bar and its field is still free.
func (a *AutoMapper) AutoMapHeaders(headers []string, ctx model.Context, sampleRows []model.RawRow, tmpl *model.Template) *Result {
	result := &Result{
		Mapping:          make(model.FieldMapping),
		ConfidenceScores: make(model.ConfidenceScores),
		Methods:          make(map[model.FieldKey]string),
		Suggestions:      make(map[string][]model.CandidateMatch),
	}

	if tmpl != nil {
		if tmpl.Context != ctx {
			a.logger.Warn("ignoring template for different context",
				"template_id", tmpl.ID, "template_context", tmpl.Context, "context", ctx)
		} else {
			a.applyTemplate(result, headers, ctx, tmpl)
		}
	}

	for _, header := range headers {
		if result.Mapping.HeaderUsed(header) {
			continue
		}

		candidates := a.matcher.MatchHeader(header, ctx, sampleRows)
		if len(candidates) == 0 {
			result.UnmappedHeaders = append(result.UnmappedHeaders, header)
			continue
		}
		result.Suggestions[header] = candidates

		// Only the best candidate is considered; a taken field leaves the
		// header for review rather than falling through to weaker guesses.
		best := candidates[0]
		if best.Confidence < a.thresholds.AutoAccept {
			continue
		}
		if _, taken := result.Mapping[best.Field]; taken {
			continue
		}
		result.Mapping[best.Field] = header
		result.ConfidenceScores[best.Field] = best.Confidence
		result.Methods[best.Field] = best.Method
	}

	result.OverallConfidence = meanConfidence(result.ConfidenceScores)
	result.MissingRequired = missingRequired(a.catalog, ctx, result.Mapping)
	result.IsComplete = len(result.MissingRequired) == 0

	a.logger.Debug("auto-mapped headers",
		"context", ctx,
		"headers", len(headers),
		"mapped", len(result.Mapping),
		"unmapped", len(result.UnmappedHeaders),
		"overall_confidence", result.OverallConfidence,
		"complete", result.IsComplete)

	return result
}

func (a *AutoMapper) applyTemplate(result *Result, headers []string, ctx model.Context, tmpl *model.Template) {
	entries := make([]model.TemplateFieldMapping, len(tmpl.FieldMappings))
	copy(entries, tmpl.FieldMappings)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Confidence > entries[j].Confidence
	})

	for _, entry := range entries {
		if entry.Confidence <= a.thresholds.MinSuggestion {
			continue
		}
		if _, known := a.catalog.Field(ctx, entry.MappedField); !known {
			continue
		}
		if _, taken := result.Mapping[entry.MappedField]; taken {
			continue
		}

		header, ok := findHeader(headers, entry.OriginalHeader)
		if !ok || result.Mapping.HeaderUsed(header) {
			continue
		}

		result.Mapping[entry.MappedField] = header
		result.ConfidenceScores[entry.MappedField] = min(100, entry.Confidence+a.thresholds.TemplateBonus)
		result.Methods[entry.MappedField] = MethodTemplate
	}
}

func findHeader(headers []string, want string) (string, bool) {
	want = strings.TrimSpace(want)
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return h, true
		}
	}
	return "", false
}

func meanConfidence(scores model.ConfidenceScores) int {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	return int(math.Round(float64(total) / float64(len(scores))))
}

func missingRequired(c *catalog.Catalog, ctx model.Context, mapping model.FieldMapping) []model.FieldKey {
	var missing []model.FieldKey
	for _, field := range c.RequiredFields(ctx) {
		if _, ok := mapping[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}
