// Package training learns provider templates from confirmed mappings.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/service"
	"github.com/Veraticus/statement-mapper/internal/storage"
)

// ErrInvalidRequest is returned for requests missing their key fields.
var ErrInvalidRequest = errors.New("invalid training request")

// Weights tune how templates are merged and ranked.
type Weights struct {
	// MergeHistory is the share of an entry's old confidence kept on re-confirmation.
	MergeHistory float64
	// RankSuccess and RankUsage order templates within a context.
	RankSuccess float64
	RankUsage   float64
	// MatchSuccess, MatchOverlap and MatchUsage score templates against new headers.
	MatchSuccess float64
	MatchOverlap float64
	MatchUsage   float64
	// MatchUsageCap bounds how much usage can contribute to a match.
	MatchUsageCap int
	// MinMatchScore is the exclusive floor for a best match.
	MinMatchScore float64
}

// DefaultWeights returns the tuned defaults.
func DefaultWeights() Weights {
	return Weights{
		MergeHistory:  0.4,
		RankSuccess:   0.6,
		RankUsage:     0.4,
		MatchSuccess:  0.5,
		MatchOverlap:  0.3,
		MatchUsage:    0.2,
		MatchUsageCap: 10,
		MinMatchScore: 30,
	}
}

// SaveRequest carries one confirmed mapping to learn from.
type SaveRequest struct {
	Mapping          model.FieldMapping
	ConfidenceScores model.ConfidenceScores
	UserID           string
	Provider         string
	Context          model.Context
	DateFormat       string
	Frequency        model.Frequency
	Headers          []string
}

// FeedbackRequest is an explicit correct/incorrect signal for one entry.
type FeedbackRequest struct {
	UserID     string
	Provider   string
	Context    model.Context
	Field      model.FieldKey
	Header     string
	WasCorrect bool
}

// Match is a stored template judged similar to a new file.
type Match struct {
	Template *model.Template
	Score    float64
	Overlap  float64
}

// Trainer is the sole writer of templates.
type Trainer struct {
	store   service.TemplateStore
	logger  *slog.Logger
	weights Weights
}

// NewTrainer creates a trainer over a template store.
func NewTrainer(store service.TemplateStore, weights Weights, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{store: store, weights: weights, logger: logger}
}

// GetTemplate returns the template for a key, or storage.ErrTemplateNotFound.
func (t *Trainer) GetTemplate(ctx context.Context, userID, provider string, statementContext model.Context) (*model.Template, error) {
	tmpl, err := t.store.GetTemplate(ctx, userID, provider, statementContext)
	if err != nil {
		return nil, fmt.Errorf("failed to get template for %s: %w", provider, err)
	}
	return tmpl, nil
}

// SaveTemplate creates or merges the template for the request's key and
// returns the stored result.
func (t *Trainer) SaveTemplate(ctx context.Context, req SaveRequest) (*model.Template, error) {
	if err := validateKey(req.UserID, req.Provider, req.Context); err != nil {
		return nil, err
	}

	tmpl, err := t.store.GetTemplate(ctx, req.UserID, req.Provider, req.Context)
	switch {
	case errors.Is(err, storage.ErrTemplateNotFound):
		tmpl = &model.Template{
			ID:       uuid.New().String(),
			UserID:   req.UserID,
			Provider: strings.TrimSpace(req.Provider),
			Context:  req.Context,
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load template for %s: %w", req.Provider, err)
	}

	t.merge(tmpl, req)

	if err := t.store.SaveTemplate(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("failed to save template for %s: %w", req.Provider, err)
	}

	t.logger.Info("learned template",
		"provider", tmpl.Provider,
		"context", tmpl.Context,
		"fields", len(req.Mapping),
		"usage_count", tmpl.UsageCount,
		"success_rate", tmpl.SuccessRate)
	return tmpl, nil
}

// merge folds a confirmed mapping into tmpl. Re-confirmed entries move
// toward the fresh confidence; other entries are left alone.
func (t *Trainer) merge(tmpl *model.Template, req SaveRequest) {
	for _, field := range req.Mapping.Fields() {
		header := req.Mapping[field]
		observed := req.ConfidenceScores[field]

		if idx := tmpl.FindMapping(field, header); idx >= 0 {
			entry := &tmpl.FieldMappings[idx]
			entry.SuccessCount++
			entry.TotalAttempts++
			entry.Confidence = t.blend(entry.Confidence, observed)
		} else {
			tmpl.FieldMappings = append(tmpl.FieldMappings, model.TemplateFieldMapping{
				OriginalHeader: header,
				MappedField:    field,
				Confidence:     clamp(observed),
				SuccessCount:   1,
				TotalAttempts:  1,
			})
		}
	}

	tmpl.RecalculateSuccessRate()
	tmpl.UsageCount++
	tmpl.ExampleHeaders = append([]string(nil), req.Headers...)
	if req.DateFormat != "" {
		tmpl.DateFormat = req.DateFormat
	}
	if req.Frequency != "" && req.Frequency != model.FrequencyInsufficientData {
		tmpl.Frequency = req.Frequency
	}
}

// GetTemplatesByContext returns a user's templates for a context, best first.
func (t *Trainer) GetTemplatesByContext(ctx context.Context, userID string, statementContext model.Context) ([]model.Template, error) {
	templates, err := t.store.GetTemplatesByContext(ctx, userID, statementContext)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	sort.SliceStable(templates, func(i, j int) bool {
		return t.rank(&templates[i]) > t.rank(&templates[j])
	})
	return templates, nil
}

func (t *Trainer) rank(tmpl *model.Template) float64 {
	return float64(tmpl.SuccessRate)*t.weights.RankSuccess + float64(tmpl.UsageCount)*t.weights.RankUsage
}

// FindBestMatchingTemplate scores the user's templates for a context
// against a new file's headers. It returns nil when no template clears the
// minimum score.
func (t *Trainer) FindBestMatchingTemplate(ctx context.Context, userID string, statementContext model.Context, headers []string) (*Match, error) {
	templates, err := t.store.GetTemplatesByContext(ctx, userID, statementContext)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[foldHeader(h)] = true
	}

	var best *Match
	for i := range templates {
		tmpl := &templates[i]
		overlap := overlapRatio(tmpl.ExampleHeaders, present)
		usage := min(tmpl.UsageCount, t.weights.MatchUsageCap)
		score := float64(tmpl.SuccessRate)*t.weights.MatchSuccess +
			overlap*100*t.weights.MatchOverlap +
			float64(usage)*10*t.weights.MatchUsage

		if score <= t.weights.MinMatchScore {
			continue
		}
		if best == nil || score > best.Score {
			best = &Match{Template: tmpl, Score: score, Overlap: overlap}
		}
	}

	if best != nil {
		t.logger.Debug("matched template by headers",
			"provider", best.Template.Provider,
			"score", best.Score,
			"overlap", best.Overlap)
	}
	return best, nil
}

// overlapRatio is the fraction of the template's example headers present
// in the new file.
func overlapRatio(exampleHeaders []string, present map[string]bool) float64 {
	if len(exampleHeaders) == 0 {
		return 0
	}
	hits := 0
	for _, h := range exampleHeaders {
		if present[foldHeader(h)] {
			hits++
		}
	}
	return float64(hits) / float64(len(exampleHeaders))
}

// RecordFeedback adjusts a single entry from an explicit signal. Negative
// feedback for an entry the template never learned is ignored.
func (t *Trainer) RecordFeedback(ctx context.Context, req FeedbackRequest) error {
	if err := validateKey(req.UserID, req.Provider, req.Context); err != nil {
		return err
	}
	if req.Field == "" || strings.TrimSpace(req.Header) == "" {
		return fmt.Errorf("%w: field and header are required", ErrInvalidRequest)
	}

	tmpl, err := t.store.GetTemplate(ctx, req.UserID, req.Provider, req.Context)
	if err != nil {
		return fmt.Errorf("failed to load template for %s: %w", req.Provider, err)
	}

	idx := tmpl.FindMapping(req.Field, req.Header)
	switch {
	case idx >= 0 && req.WasCorrect:
		entry := &tmpl.FieldMappings[idx]
		entry.SuccessCount++
		entry.TotalAttempts++
		entry.Confidence = t.blend(entry.Confidence, 100)
	case idx >= 0:
		entry := &tmpl.FieldMappings[idx]
		entry.TotalAttempts++
		entry.Confidence = t.blend(entry.Confidence, 0)
	case req.WasCorrect:
		tmpl.FieldMappings = append(tmpl.FieldMappings, model.TemplateFieldMapping{
			OriginalHeader: req.Header,
			MappedField:    req.Field,
			Confidence:     100,
			SuccessCount:   1,
			TotalAttempts:  1,
		})
	default:
		t.logger.Debug("ignoring negative feedback for unknown mapping",
			"provider", req.Provider, "field", req.Field, "header", req.Header)
		return nil
	}

	tmpl.RecalculateSuccessRate()
	if err := t.store.SaveTemplate(ctx, tmpl); err != nil {
		return fmt.Errorf("failed to save feedback for %s: %w", req.Provider, err)
	}

	t.logger.Info("recorded feedback",
		"provider", tmpl.Provider,
		"field", req.Field,
		"header", req.Header,
		"correct", req.WasCorrect)
	return nil
}

// blend weights history against a fresh observation.
func (t *Trainer) blend(old, fresh int) int {
	h := t.weights.MergeHistory
	return clamp(int(math.Round(float64(old)*h + float64(fresh)*(1-h))))
}

func clamp(confidence int) int {
	return max(0, min(100, confidence))
}

func foldHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func validateKey(userID, provider string, statementContext model.Context) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(provider) == "" {
		return fmt.Errorf("%w: provider is required", ErrInvalidRequest)
	}
	if !statementContext.IsValid() {
		return fmt.Errorf("%w: unknown context %q", ErrInvalidRequest, statementContext)
	}
	return nil
}
