package mapping

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/statement-mapper/internal/catalog"
	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/similarity"
)

// Match methods reported on candidates.
const (
	MethodExact             = "exact_match"
	MethodSubstringPrefix   = "substring_match:"
	MethodFuzzyPrefix       = "fuzzy_match:"
	MethodPatternValidation = "+pattern_validation"
	MethodPatternMismatch   = "-pattern_mismatch"
	MethodTemplate          = "provider_template"
)

// Matcher scores a single header against every field of a context.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	catalog    *catalog.Catalog
	thresholds Thresholds
}

// NewMatcher creates a header matcher over the given catalog.
func NewMatcher(c *catalog.Catalog, thresholds Thresholds) *Matcher {
	if c == nil {
		c = catalog.Default()
	}
	return &Matcher{
		catalog:    c,
		thresholds: thresholds,
	}
}

// MatchHeader returns the candidate fields for header, best first. Only
// candidates scoring above the minimum suggestion confidence are returned.
func (m *Matcher) MatchHeader(header string, ctx model.Context, sampleRows []model.RawRow) []model.CandidateMatch {
	folded := similarity.Fold(strings.TrimSpace(header))
	if folded == "" {
		return nil
	}

	samples := sampleValues(header, sampleRows, m.thresholds.MatchSampleSize)

	var candidates []model.CandidateMatch
	for _, spec := range m.catalog.Fields(ctx) {
		confidence, method, exact := m.scoreSynonyms(folded, spec.Synonyms)

		// Exact matches are trusted regardless of what the data looks like.
		if !exact && len(samples) > 0 && spec.Validator != nil {
			rate := validRate(spec.Validator, samples)
			switch {
			case rate >= m.thresholds.PatternHighRate:
				confidence = min(100, confidence+int(math.Round(rate*m.thresholds.PatternBonusWeight)))
				method += MethodPatternValidation
			case rate < m.thresholds.PatternLowRate:
				confidence = max(0, confidence-m.thresholds.PatternPenalty)
				method += MethodPatternMismatch
			}
		}

		if confidence > m.thresholds.MinSuggestion {
			candidates = append(candidates, model.CandidateMatch{
				Field:      spec.Key(),
				Confidence: confidence,
				Method:     method,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Method == MethodExact && candidates[j].Method != MethodExact
	})

	return candidates
}

// scoreSynonyms applies exact, then substring, then fuzzy matching.
func (m *Matcher) scoreSynonyms(folded string, synonyms []string) (int, string, bool) {
	normalized := make([]string, len(synonyms))
	for i, syn := range synonyms {
		normalized[i] = similarity.Fold(strings.TrimSpace(syn))
		if normalized[i] == folded {
			return m.thresholds.ExactMatch, MethodExact, true
		}
	}

	for i, syn := range normalized {
		if m.contains(folded, syn) || m.contains(syn, folded) {
			return m.thresholds.SubstringMatch, MethodSubstringPrefix + synonyms[i], false
		}
	}

	best, bestIdx := -1, -1
	for i, syn := range normalized {
		if score := similarity.Score(folded, syn); score > best {
			best, bestIdx = score, i
		}
	}
	if bestIdx < 0 {
		return 0, "", false
	}
	return best, MethodFuzzyPrefix + synonyms[bestIdx], false
}

func (m *Matcher) contains(s, sub string) bool {
	if utf8.RuneCountInString(sub) < m.thresholds.MinSubstringLength {
		return false
	}
	return strings.Contains(s, sub)
}

// sampleValues collects up to limit non-empty values from a column.
func sampleValues(header string, rows []model.RawRow, limit int) []string {
	var values []string
	for _, row := range rows {
		if len(values) >= limit {
			break
		}
		if v := row.Value(header); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func validRate(v catalog.Validator, values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	valid := 0
	for _, value := range values {
		if v(value) {
			valid++
		}
	}
	return float64(valid) / float64(len(values))
}
