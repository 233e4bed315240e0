// Package classification identifies the provider that issued a statement.
package classification

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/Veraticus/statement-mapper/internal/model"
)

// Detection scores and methods.
const (
	FilenameScore = 60
	HeaderScore   = 40
	ValuesScore   = 40

	MethodFilename        = "filename"
	MethodHeaders         = "headers"
	MethodFilenameHeaders = "filename+headers"
	MethodValues          = "values"

	defaultMaxConfidence = 95
	valuesSampleSize     = 20
)

var filenameSeparators = regexp.MustCompile(`[_\-.+]+`)

// Provider is a known statement issuer and the keywords that identify it.
type Provider struct {
	Name          string
	Keywords      []string
	MaxConfidence int
}

type compiledProvider struct {
	regex *regexp.Regexp
	Provider
}

// ProviderDetector matches filenames, headers and cell values against a
// table of provider keywords.
type ProviderDetector struct {
	providers []compiledProvider
	mu        sync.RWMutex
}

// NewProviderDetector creates a detector over the given providers.
func NewProviderDetector(providers []Provider) (*ProviderDetector, error) {
	compiled, err := compileProviders(providers)
	if err != nil {
		return nil, err
	}
	return &ProviderDetector{providers: compiled}, nil
}

func compileProviders(providers []Provider) ([]compiledProvider, error) {
	compiled := make([]compiledProvider, 0, len(providers))
	for _, p := range providers {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("provider name cannot be empty")
		}

		alternatives := make([]string, 0, len(p.Keywords))
		for _, kw := range p.Keywords {
			if kw = strings.TrimSpace(kw); kw != "" {
				alternatives = append(alternatives, regexp.QuoteMeta(kw))
			}
		}
		if len(alternatives) == 0 {
			return nil, fmt.Errorf("provider %s has no keywords", p.Name)
		}

		regex, err := regexp.Compile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("failed to compile keywords for provider %s: %w", p.Name, err)
		}

		if p.MaxConfidence <= 0 {
			p.MaxConfidence = defaultMaxConfidence
		}
		compiled = append(compiled, compiledProvider{Provider: p, regex: regex})
	}
	return compiled, nil
}

// Detect scores each provider by filename and header keyword hits. Each
// header is matched on its own and any number of header hits counts once.
// The single highest scorer wins; ties and misses report an unknown provider.
func (pd *ProviderDetector) Detect(fileName string, headers []string) model.ProviderMatch {
	pd.mu.RLock()
	defer pd.mu.RUnlock()

	fileText := normalizeFilename(fileName)

	return pd.best(func(p compiledProvider) (int, string) {
		score := 0
		var methods []string
		if fileText != "" && p.regex.MatchString(fileText) {
			score += FilenameScore
			methods = append(methods, MethodFilename)
		}
		if matchesAny(p.regex, headers) {
			score += HeaderScore
			methods = append(methods, MethodHeaders)
		}
		return score, strings.Join(methods, "+")
	})
}

func matchesAny(regex *regexp.Regexp, headers []string) bool {
	for _, h := range headers {
		if regex.MatchString(h) {
			return true
		}
	}
	return false
}

// DetectFromValues identifies a provider named by at least half of the
// sampled cell values, typically from a mapped provider column.
func (pd *ProviderDetector) DetectFromValues(values []string) model.ProviderMatch {
	pd.mu.RLock()
	defer pd.mu.RUnlock()

	sample := make([]string, 0, valuesSampleSize)
	for _, v := range values {
		if len(sample) >= valuesSampleSize {
			break
		}
		if v = strings.TrimSpace(v); v != "" {
			sample = append(sample, v)
		}
	}
	if len(sample) == 0 {
		return unknown()
	}

	return pd.best(func(p compiledProvider) (int, string) {
		hits := 0
		for _, v := range sample {
			if p.regex.MatchString(v) {
				hits++
			}
		}
		if hits*2 < len(sample) {
			return 0, ""
		}
		return ValuesScore, MethodValues
	})
}

func (pd *ProviderDetector) best(score func(compiledProvider) (int, string)) model.ProviderMatch {
	result := unknown()
	tied := false

	for _, p := range pd.providers {
		s, method := score(p)
		if s == 0 {
			continue
		}
		s = min(s, p.MaxConfidence)

		switch {
		case s > result.Confidence:
			result = model.ProviderMatch{Provider: p.Name, Confidence: s, Method: method}
			tied = false
		case s == result.Confidence:
			tied = true
		}
	}

	if tied {
		return unknown()
	}
	return result
}

// UpdateProviders replaces the provider table.
func (pd *ProviderDetector) UpdateProviders(providers []Provider) error {
	compiled, err := compileProviders(providers)
	if err != nil {
		return err
	}

	pd.mu.Lock()
	pd.providers = compiled
	pd.mu.Unlock()

	return nil
}

// ProviderCount returns the number of loaded providers.
func (pd *ProviderDetector) ProviderCount() int {
	pd.mu.RLock()
	defer pd.mu.RUnlock()
	return len(pd.providers)
}

func unknown() model.ProviderMatch {
	return model.ProviderMatch{Provider: model.UnknownProvider}
}

// normalizeFilename turns "scottish-widows_2024.csv" into
// "scottish widows 2024 csv".
func normalizeFilename(fileName string) string {
	if fileName == "" {
		return ""
	}
	base := filepath.Base(fileName)
	return strings.TrimSpace(filenameSeparators.ReplaceAllString(base, " "))
}
