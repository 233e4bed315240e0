package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/statement-mapper/internal/common"
	"github.com/Veraticus/statement-mapper/internal/mapping"
	"github.com/Veraticus/statement-mapper/internal/training"
)

// EnvPrefix prefixes every environment variable override, e.g.
// STMTMAP_DATABASE_PATH.
const EnvPrefix = "STMTMAP"

// Defaults that are not owned by another package.
const (
	DefaultDatabasePath = "$HOME/.local/share/stmtmap/stmtmap.db"
	DefaultUser         = "default"
	DefaultPdfToText    = "pdftotext"
)

// Settings is the full application configuration.
type Settings struct {
	Database DatabaseSettings `mapstructure:"database"`
	Logging  LogSettings      `mapstructure:"logging"`
	Extract  ExtractSettings  `mapstructure:"extract"`
	User     string           `mapstructure:"user"`
	Matching MatchingSettings `mapstructure:"matching"`
	Training TrainingSettings `mapstructure:"training"`
}

// DatabaseSettings locates the template database.
type DatabaseSettings struct {
	Path string `mapstructure:"path"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExtractSettings configures statement reading.
type ExtractSettings struct {
	PdfToTextPath string `mapstructure:"pdftotext_path"`
	SheetIndex    int    `mapstructure:"sheet_index"`
}

// MatchingSettings tunes header matching. Confidences are 0-100.
type MatchingSettings struct {
	ExactMatch            int     `mapstructure:"exact_match"`
	SubstringMatch        int     `mapstructure:"substring_match"`
	MinSubstringLength    int     `mapstructure:"min_substring_length"`
	MinSuggestion         int     `mapstructure:"min_suggestion"`
	AutoAccept            int     `mapstructure:"auto_accept"`
	TemplateBonus         int     `mapstructure:"template_bonus"`
	PatternBonusWeight    float64 `mapstructure:"pattern_bonus_weight"`
	PatternPenalty        int     `mapstructure:"pattern_penalty"`
	PatternHighRate       float64 `mapstructure:"pattern_high_rate"`
	PatternLowRate        float64 `mapstructure:"pattern_low_rate"`
	MatchSampleSize       int     `mapstructure:"match_sample_size"`
	ValidationSampleSize  int     `mapstructure:"validation_sample_size"`
	ValidationErrorRate   float64 `mapstructure:"validation_error_rate"`
	ValidationWarningRate float64 `mapstructure:"validation_warning_rate"`
}

// TrainingSettings tunes template learning and ranking.
type TrainingSettings struct {
	MergeHistory  float64 `mapstructure:"merge_history"`
	RankSuccess   float64 `mapstructure:"rank_success"`
	RankUsage     float64 `mapstructure:"rank_usage"`
	MatchSuccess  float64 `mapstructure:"match_success"`
	MatchOverlap  float64 `mapstructure:"match_overlap"`
	MatchUsage    float64 `mapstructure:"match_usage"`
	MatchUsageCap int     `mapstructure:"match_usage_cap"`
	MinMatchScore float64 `mapstructure:"min_match_score"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", common.FormatText)
	v.SetDefault("extract.pdftotext_path", DefaultPdfToText)
	v.SetDefault("extract.sheet_index", 0)
	v.SetDefault("user", DefaultUser)

	t := mapping.DefaultThresholds()
	v.SetDefault("matching.exact_match", t.ExactMatch)
	v.SetDefault("matching.substring_match", t.SubstringMatch)
	v.SetDefault("matching.min_substring_length", t.MinSubstringLength)
	v.SetDefault("matching.min_suggestion", t.MinSuggestion)
	v.SetDefault("matching.auto_accept", t.AutoAccept)
	v.SetDefault("matching.template_bonus", t.TemplateBonus)
	v.SetDefault("matching.pattern_bonus_weight", t.PatternBonusWeight)
	v.SetDefault("matching.pattern_penalty", t.PatternPenalty)
	v.SetDefault("matching.pattern_high_rate", t.PatternHighRate)
	v.SetDefault("matching.pattern_low_rate", t.PatternLowRate)
	v.SetDefault("matching.match_sample_size", t.MatchSampleSize)
	v.SetDefault("matching.validation_sample_size", t.ValidationSampleSize)
	v.SetDefault("matching.validation_error_rate", t.ValidationErrorRate)
	v.SetDefault("matching.validation_warning_rate", t.ValidationWarningRate)

	w := training.DefaultWeights()
	v.SetDefault("training.merge_history", w.MergeHistory)
	v.SetDefault("training.rank_success", w.RankSuccess)
	v.SetDefault("training.rank_usage", w.RankUsage)
	v.SetDefault("training.match_success", w.MatchSuccess)
	v.SetDefault("training.match_overlap", w.MatchOverlap)
	v.SetDefault("training.match_usage", w.MatchUsage)
	v.SetDefault("training.match_usage_cap", w.MatchUsageCap)
	v.SetDefault("training.min_match_score", w.MinMatchScore)
}

// ConfigureEnv makes every key overridable from STMTMAP_* variables.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals and validates the settings held by v. Defaults must
// already be registered with SetDefaults.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	s.Database.Path = ExpandPath(s.Database.Path)
	s.User = strings.TrimSpace(s.User)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	var problems []string
	if s.Database.Path == "" {
		problems = append(problems, "database.path is empty")
	}
	if s.User == "" {
		problems = append(problems, "user is empty")
	}
	if s.Extract.SheetIndex < 0 {
		problems = append(problems, "extract.sheet_index is negative")
	}

	m := s.Matching
	for name, v := range map[string]int{
		"matching.exact_match":     m.ExactMatch,
		"matching.substring_match": m.SubstringMatch,
		"matching.min_suggestion":  m.MinSuggestion,
		"matching.auto_accept":     m.AutoAccept,
	} {
		if v < 0 || v > 100 {
			problems = append(problems, fmt.Sprintf("%s must be between 0 and 100", name))
		}
	}
	if m.AutoAccept <= m.MinSuggestion {
		problems = append(problems, "matching.auto_accept must exceed matching.min_suggestion")
	}
	if m.PatternLowRate > m.PatternHighRate {
		problems = append(problems, "matching.pattern_low_rate must not exceed matching.pattern_high_rate")
	}
	if m.ValidationErrorRate > m.ValidationWarningRate {
		problems = append(problems, "matching.validation_error_rate must not exceed matching.validation_warning_rate")
	}

	t := s.Training
	for name, v := range map[string]float64{
		"training.merge_history": t.MergeHistory,
		"training.rank_success":  t.RankSuccess,
		"training.rank_usage":    t.RankUsage,
		"training.match_success": t.MatchSuccess,
		"training.match_overlap": t.MatchOverlap,
		"training.match_usage":   t.MatchUsage,
	} {
		if v < 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("%s must be between 0 and 1", name))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
}

// Thresholds converts the matching settings.
func (s *Settings) Thresholds() mapping.Thresholds {
	m := s.Matching
	return mapping.Thresholds{
		ExactMatch:            m.ExactMatch,
		SubstringMatch:        m.SubstringMatch,
		MinSubstringLength:    m.MinSubstringLength,
		MinSuggestion:         m.MinSuggestion,
		AutoAccept:            m.AutoAccept,
		TemplateBonus:         m.TemplateBonus,
		PatternBonusWeight:    m.PatternBonusWeight,
		PatternPenalty:        m.PatternPenalty,
		PatternHighRate:       m.PatternHighRate,
		PatternLowRate:        m.PatternLowRate,
		MatchSampleSize:       m.MatchSampleSize,
		ValidationSampleSize:  m.ValidationSampleSize,
		ValidationErrorRate:   m.ValidationErrorRate,
		ValidationWarningRate: m.ValidationWarningRate,
	}
}

// Weights converts the training settings.
func (s *Settings) Weights() training.Weights {
	t := s.Training
	return training.Weights{
		MergeHistory:  t.MergeHistory,
		RankSuccess:   t.RankSuccess,
		RankUsage:     t.RankUsage,
		MatchSuccess:  t.MatchSuccess,
		MatchOverlap:  t.MatchOverlap,
		MatchUsage:    t.MatchUsage,
		MatchUsageCap: t.MatchUsageCap,
		MinMatchScore: t.MinMatchScore,
	}
}
