package catalog

import (
	"regexp"
	"strings"
)

var (
	currencyPattern = regexp.MustCompile(
		`(?i)^[+-]?\s*(?:[£$€]|gbp|usd|eur)?\s*[+-]?\s*(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?\s*(?:cr|dr|gbp|usd|eur)?$`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{1,4}[/\-.]\d{1,2}[/\-.]\d{1,4}`),
		regexp.MustCompile(`(?i)\d{1,2}(?:st|nd|rd|th)?[\s\-]*(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`),
		regexp.MustCompile(`(?i)(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}`),
		regexp.MustCompile(`^\d{8}$`),
	}

	numberPattern     = regexp.MustCompile(`^[+-]?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?$`)
	percentagePattern = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?\s*%?$`)
	textPattern       = regexp.MustCompile(`\p{L}`)
	referencePattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-/_.]*$`)
)

// IsCurrency accepts an optional sign and currency symbol, thousands
// separators, an optional decimal suffix and a trailing CR/DR marker.
// Accounting-style parentheses are allowed around the value.
func IsCurrency(value string) bool {
	v := strings.TrimSpace(value)
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	return v != "" && currencyPattern.MatchString(v)
}

// IsDate accepts any value containing a numeric date run or a day and
// month name.
func IsDate(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	for _, p := range datePatterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

// IsNumber accepts plain or thousands-separated numbers.
func IsNumber(value string) bool {
	return numberPattern.MatchString(strings.TrimSpace(value))
}

// IsPercentage accepts a number with an optional percent sign.
func IsPercentage(value string) bool {
	return percentagePattern.MatchString(strings.TrimSpace(value))
}

// IsText accepts any value containing at least one letter.
func IsText(value string) bool {
	return textPattern.MatchString(value)
}

// IsReference accepts a single alphanumeric token.
func IsReference(value string) bool {
	return referencePattern.MatchString(strings.TrimSpace(value))
}
