// Package ingest orchestrates a statement upload: provider detection,
// template lookup, header auto-mapping, date analysis, validation, review
// and learning from the confirmed result.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/statement-mapper/internal/classification"
	"github.com/Veraticus/statement-mapper/internal/mapping"
	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/pattern"
	"github.com/Veraticus/statement-mapper/internal/records"
	"github.com/Veraticus/statement-mapper/internal/storage"
	"github.com/Veraticus/statement-mapper/internal/training"
)

// Errors returned by the service.
var (
	ErrInvalidMapping = errors.New("invalid mapping")
	ErrReviewDeclined = errors.New("mapping review declined")
)

// Template sources reported on an analysis.
const (
	TemplateExplicit = "explicit"
	TemplateProvider = "provider"
	TemplateHeaders  = "headers"
	TemplateNone     = ""

	// MethodUser marks a provider named by the caller.
	MethodUser = "user"
	// MethodTemplate marks a provider inferred from a matched template.
	MethodTemplate = "template"

	// ManualConfidence is recorded for assignments a reviewer made without
	// any supporting suggestion.
	ManualConfidence = 100

	maxTemplateConfidence = 90
)

// Upload is one file's parsed content awaiting a mapping.
type Upload struct {
	// Template primes the mapping when set; otherwise one is looked up.
	Template *model.Template
	UserID   string
	Context  model.Context
	FileName string
	// Provider overrides detection when set.
	Provider   string
	Headers    []string
	Rows       []model.RawRow
	NoTemplate bool
}

// Analysis is everything inferred about an upload before review.
type Analysis struct {
	Upload         Upload
	Provider       model.ProviderMatch
	Template       *model.Template
	TemplateSource string
	TemplateScore  float64
	Mapping        *mapping.Result
	DateColumn     string
	Patterns       *model.PatternAnalysis
	Validation     *mapping.Validation
}

// Review is a reviewer's verdict on an analysis.
type Review struct {
	Mapping    model.FieldMapping
	Provider   string
	DateFormat string
	Accepted   bool
}

// Reviewer lets a person (or policy) accept or adjust a proposed mapping.
type Reviewer interface {
	Review(ctx context.Context, analysis *Analysis) (*Review, error)
}

// AutoReviewer accepts every analysis unchanged.
type AutoReviewer struct{}

// Review implements Reviewer.
func (AutoReviewer) Review(_ context.Context, analysis *Analysis) (*Review, error) {
	return &Review{
		Mapping:    analysis.Mapping.Mapping.Clone(),
		Provider:   analysis.Provider.Provider,
		DateFormat: analysis.Patterns.DateFormat,
		Accepted:   true,
	}, nil
}

// Confirmation is a reviewed mapping ready to be learned and applied.
type Confirmation struct {
	Analysis   *Analysis
	Mapping    model.FieldMapping
	Provider   string
	DateFormat string
}

// ConfirmResult is the outcome of confirming a mapping.
type ConfirmResult struct {
	Mapping    model.FieldMapping
	Scores     model.ConfidenceScores
	Template   *model.Template
	Records    *records.Result
	Overridden []model.FieldKey
	// SaveErr holds the learning failure, if any. Confirmation still succeeds.
	SaveErr error
	Learned bool
}

// Service wires the mapping components together for one upload at a time.
// It holds no per-upload state and is safe for concurrent use.
type Service struct {
	autoMapper *mapping.AutoMapper
	validator  *mapping.Validator
	patterns   pattern.Analyzer
	providers  *classification.ProviderDetector
	trainer    *training.Trainer
	logger     *slog.Logger
}

// NewService creates an ingest service.
func NewService(
	autoMapper *mapping.AutoMapper,
	validator *mapping.Validator,
	patterns pattern.Analyzer,
	providers *classification.ProviderDetector,
	trainer *training.Trainer,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		autoMapper: autoMapper,
		validator:  validator,
		patterns:   patterns,
		providers:  providers,
		trainer:    trainer,
		logger:     logger,
	}
}

// Analyze proposes a mapping for an upload. Inference that finds nothing
// is reported in the analysis rather than as an error; only an invalid
// context fails.
func (s *Service) Analyze(ctx context.Context, upload Upload) (*Analysis, error) {
	if !upload.Context.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownContext, upload.Context)
	}

	analysis := &Analysis{Upload: upload}
	analysis.Provider = s.detectProvider(upload)
	s.resolveTemplate(ctx, analysis)

	analysis.Mapping = s.autoMapper.AutoMapHeaders(upload.Headers, upload.Context, upload.Rows, analysis.Template)

	if !analysis.Provider.IsKnown() {
		if header, ok := analysis.Mapping.Mapping[model.FieldProvider]; ok {
			analysis.Provider = s.providers.DetectFromValues(columnValues(upload.Rows, header))
		}
	}

	analysis.DateColumn = dateColumn(analysis.Mapping)
	analysis.Patterns = s.patterns.AnalyzePatterns(columnValues(upload.Rows, analysis.DateColumn))
	if !analysis.Patterns.HasDateFormat() && analysis.Template != nil && analysis.Template.DateFormat != "" {
		s.logger.Debug("using learned date format", "format", analysis.Template.DateFormat)
		analysis.Patterns.DateFormat = analysis.Template.DateFormat
	}

	analysis.Validation = s.validator.ValidateMapping(analysis.Mapping.Mapping, upload.Rows, upload.Context)

	s.logger.Info("analyzed upload",
		"file", upload.FileName,
		"context", upload.Context,
		"provider", analysis.Provider.Provider,
		"template", analysis.TemplateSource,
		"mapped", len(analysis.Mapping.Mapping),
		"date_format", analysis.Patterns.DateFormat,
		"frequency", analysis.Patterns.Frequency,
		"valid", analysis.Validation.IsValid)

	return analysis, nil
}

func (s *Service) detectProvider(upload Upload) model.ProviderMatch {
	if name := strings.TrimSpace(upload.Provider); name != "" {
		return model.ProviderMatch{Provider: name, Method: MethodUser, Confidence: 100}
	}
	return s.providers.Detect(upload.FileName, upload.Headers)
}

// resolveTemplate picks the explicit template, else the provider's, else the
// best header match. Lookup failures degrade to mapping without a template.
func (s *Service) resolveTemplate(ctx context.Context, analysis *Analysis) {
	upload := analysis.Upload
	switch {
	case upload.Template != nil:
		analysis.Template = upload.Template
		analysis.TemplateSource = TemplateExplicit
		return
	case upload.NoTemplate || upload.UserID == "":
		return
	}

	if analysis.Provider.IsKnown() {
		tmpl, err := s.trainer.GetTemplate(ctx, upload.UserID, analysis.Provider.Provider, upload.Context)
		switch {
		case err == nil:
			analysis.Template = tmpl
			analysis.TemplateSource = TemplateProvider
			return
		case errors.Is(err, storage.ErrTemplateNotFound):
		default:
			s.logger.Warn("template lookup failed", "provider", analysis.Provider.Provider, "error", err)
		}
	}

	match, err := s.trainer.FindBestMatchingTemplate(ctx, upload.UserID, upload.Context, upload.Headers)
	if err != nil {
		s.logger.Warn("template match failed", "context", upload.Context, "error", err)
		return
	}
	if match == nil {
		return
	}

	analysis.Template = match.Template
	analysis.TemplateSource = TemplateHeaders
	analysis.TemplateScore = match.Score
	if !analysis.Provider.IsKnown() {
		analysis.Provider = model.ProviderMatch{
			Provider:   match.Template.Provider,
			Method:     MethodTemplate,
			Confidence: min(int(match.Score), maxTemplateConfidence),
		}
	}
}

// dateColumn returns the header mapped to date, else the header whose
// suggestions rate date highest.
func dateColumn(result *mapping.Result) string {
	if header, ok := result.Mapping[model.FieldDate]; ok {
		return header
	}

	best, bestConfidence := "", 0
	for header, candidates := range result.Suggestions {
		if result.Mapping.HeaderUsed(header) {
			continue
		}
		for _, c := range candidates {
			if c.Field != model.FieldDate {
				continue
			}
			if c.Confidence > bestConfidence || (c.Confidence == bestConfidence && header < best) {
				best, bestConfidence = header, c.Confidence
			}
		}
	}
	return best
}

func columnValues(rows []model.RawRow, header string) []string {
	if header == "" {
		return nil
	}
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.Value(header))
	}
	return values
}

// Confirm learns from a reviewed mapping and types the upload's rows with it.
// Learning is best effort: its failure is reported in the result.
func (s *Service) Confirm(ctx context.Context, c Confirmation) (*ConfirmResult, error) {
	if c.Analysis == nil {
		return nil, fmt.Errorf("%w: no analysis", ErrInvalidMapping)
	}
	upload := c.Analysis.Upload
	if len(c.Mapping) == 0 {
		return nil, fmt.Errorf("%w: no fields mapped", ErrInvalidMapping)
	}
	if err := c.Mapping.Validate(upload.Headers); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}

	dateFormat := c.DateFormat
	if dateFormat == "" {
		dateFormat = c.Analysis.Patterns.DateFormat
	}
	provider := strings.TrimSpace(c.Provider)
	if provider == "" {
		provider = c.Analysis.Provider.Provider
	}

	result := &ConfirmResult{
		Mapping:    c.Mapping.Clone(),
		Scores:     confirmedScores(c.Analysis.Mapping, c.Mapping),
		Overridden: overridden(c.Analysis.Mapping.Mapping, c.Mapping),
		Records:    records.Apply(c.Mapping, upload.Rows, dateFormat),
	}

	switch {
	case upload.UserID == "":
		s.logger.Debug("skipping template learning without a user")
	case provider == "" || provider == model.UnknownProvider:
		s.logger.Warn("skipping template learning for unknown provider", "file", upload.FileName)
	default:
		s.learn(ctx, c, result, provider, dateFormat)
	}

	return result, nil
}

func (s *Service) learn(ctx context.Context, c Confirmation, result *ConfirmResult, provider, dateFormat string) {
	upload := c.Analysis.Upload
	tmpl, err := s.trainer.SaveTemplate(ctx, training.SaveRequest{
		UserID:           upload.UserID,
		Provider:         provider,
		Context:          upload.Context,
		Mapping:          c.Mapping,
		ConfidenceScores: result.Scores,
		DateFormat:       dateFormat,
		Frequency:        c.Analysis.Patterns.Frequency,
		Headers:          upload.Headers,
	})
	if err != nil {
		s.logger.Error("failed to save template", "provider", provider, "error", err)
		result.SaveErr = err
		return
	}
	result.Template = tmpl
	result.Learned = true

	// Proposals the reviewer moved or cleared get explicit negative feedback.
	suggested := c.Analysis.Mapping.Mapping
	for _, field := range result.Overridden {
		err := s.trainer.RecordFeedback(ctx, training.FeedbackRequest{
			UserID:   upload.UserID,
			Provider: provider,
			Context:  upload.Context,
			Field:    field,
			Header:   suggested[field],
		})
		if err != nil {
			s.logger.Warn("failed to record feedback", "field", field, "error", err)
			result.SaveErr = errors.Join(result.SaveErr, err)
		}
	}

	if result.SaveErr == nil {
		if latest, err := s.trainer.GetTemplate(ctx, upload.UserID, provider, upload.Context); err == nil {
			result.Template = latest
		}
	}
}

// confirmedScores keeps the mapper's confidence for accepted assignments,
// uses the suggestion's confidence for reassigned ones, and falls back to
// ManualConfidence for choices no suggestion supported.
func confirmedScores(proposed *mapping.Result, confirmed model.FieldMapping) model.ConfidenceScores {
	scores := make(model.ConfidenceScores, len(confirmed))
	for field, header := range confirmed {
		if proposed.Mapping[field] == header {
			if score, ok := proposed.ConfidenceScores[field]; ok {
				scores[field] = score
				continue
			}
		}
		scores[field] = ManualConfidence
		for _, candidate := range proposed.Suggestions[header] {
			if candidate.Field == field {
				scores[field] = candidate.Confidence
				break
			}
		}
	}
	return scores
}

// overridden lists the proposed fields the reviewer moved or removed.
func overridden(proposed, confirmed model.FieldMapping) []model.FieldKey {
	var fields []model.FieldKey
	for _, field := range proposed.Fields() {
		if confirmed[field] != proposed[field] {
			fields = append(fields, field)
		}
	}
	return fields
}

// Process analyzes, reviews and confirms an upload.
func (s *Service) Process(ctx context.Context, upload Upload, reviewer Reviewer) (*Analysis, *ConfirmResult, error) {
	analysis, err := s.Analyze(ctx, upload)
	if err != nil {
		return nil, nil, err
	}

	review, err := reviewer.Review(ctx, analysis)
	if err != nil {
		return analysis, nil, fmt.Errorf("review failed: %w", err)
	}
	if !review.Accepted {
		return analysis, nil, ErrReviewDeclined
	}

	result, err := s.Confirm(ctx, Confirmation{
		Analysis:   analysis,
		Mapping:    review.Mapping,
		Provider:   review.Provider,
		DateFormat: review.DateFormat,
	})
	if err != nil {
		return analysis, nil, err
	}
	return analysis, result, nil
}
