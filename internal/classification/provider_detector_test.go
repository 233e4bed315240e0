package classification

import (
	"testing"

	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderDetector(t *testing.T) {
	tests := []struct {
		name      string
		errMsg    string
		providers []Provider
		wantErr   bool
	}{
		{
			name:      "default table",
			providers: DefaultProviders(),
		},
		{
			name:      "empty table",
			providers: []Provider{},
		},
		{
			name:      "keywords are quoted",
			providers: []Provider{{Name: "Odd", Keywords: []string{"a+b (c)", "[x"}}},
		},
		{
			name:      "missing name",
			providers: []Provider{{Keywords: []string{"x"}}},
			wantErr:   true,
			errMsg:    "name cannot be empty",
		},
		{
			name:      "no keywords",
			providers: []Provider{{Name: "Empty", Keywords: []string{" "}}},
			wantErr:   true,
			errMsg:    "has no keywords",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd, err := NewProviderDetector(tt.providers)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, pd)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.providers), pd.ProviderCount())
		})
	}
}

func TestProviderDetector_Detect(t *testing.T) {
	pd, err := NewProviderDetector(DefaultProviders())
	require.NoError(t, err)

	tests := []struct {
		name     string
		fileName string
		headers  []string
		want     model.ProviderMatch
	}{
		{
			name:     "filename hit",
			fileName: "/tmp/uploads/aviva_pension_2024.csv",
			headers:  []string{"Payment Date", "Pension Provider", "Contribution Amount"},
			want:     model.ProviderMatch{Provider: "Aviva", Confidence: 60, Method: MethodFilename},
		},
		{
			name:     "header hit",
			fileName: "statement.csv",
			headers:  []string{"Date", "Vanguard Account", "Amount"},
			want:     model.ProviderMatch{Provider: "Vanguard", Confidence: 40, Method: MethodHeaders},
		},
		{
			name:     "filename and header capped at max",
			fileName: "AVIVA.xlsx",
			headers:  []string{"Aviva Plan Number", "Date", "Amount"},
			want:     model.ProviderMatch{Provider: "Aviva", Confidence: 95, Method: MethodFilenameHeaders},
		},
		{
			name:     "separators in filename",
			fileName: "Scottish-Widows_statement.csv",
			want:     model.ProviderMatch{Provider: "Scottish Widows", Confidence: 60, Method: MethodFilename},
		},
		{
			name:     "spelled out ampersand",
			fileName: "legal_and_general.csv",
			want:     model.ProviderMatch{Provider: "Legal & General", Confidence: 60, Method: MethodFilename},
		},
		{
			name:     "no match",
			fileName: "export.csv",
			headers:  []string{"Date", "Amount"},
			want:     model.ProviderMatch{Provider: model.UnknownProvider},
		},
		{
			name:     "tie is unknown",
			fileName: "barclays_to_hsbc.csv",
			want:     model.ProviderMatch{Provider: model.UnknownProvider},
		},
		{
			name:     "filename beats header",
			fileName: "hsbc.csv",
			headers:  []string{"Barclays Ref"},
			want:     model.ProviderMatch{Provider: "HSBC", Confidence: 60, Method: MethodFilename},
		},
		{
			name:     "keyword split across headers",
			fileName: "statement.csv",
			headers:  []string{"Date", "Royal", "London Branch"},
			want:     model.ProviderMatch{Provider: model.UnknownProvider},
		},
		{
			name:     "keyword inside a longer word",
			fileName: "statement.csv",
			headers:  []string{"Date", "Amexco Ref", "Vanguardian"},
			want:     model.ProviderMatch{Provider: model.UnknownProvider},
		},
		{
			name:     "several header hits count once",
			fileName: "statement.csv",
			headers:  []string{"Aegon Plan", "Aegon Ref", "Amount"},
			want:     model.ProviderMatch{Provider: "Aegon", Confidence: 40, Method: MethodHeaders},
		},
		{
			name: "nothing to go on",
			want: model.ProviderMatch{Provider: model.UnknownProvider},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pd.Detect(tt.fileName, tt.headers)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Provider != model.UnknownProvider, got.IsKnown())
		})
	}
}

func TestProviderDetector_MaxConfidence(t *testing.T) {
	pd, err := NewProviderDetector([]Provider{
		{Name: "Capped", Keywords: []string{"capped"}, MaxConfidence: 50},
		{Name: "Default", Keywords: []string{"fallback"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 50, pd.Detect("capped.csv", nil).Confidence)
	assert.Equal(t, 95, pd.Detect("fallback.csv", []string{"fallback"}).Confidence)
}

func TestProviderDetector_DetectFromValues(t *testing.T) {
	pd, err := NewProviderDetector(DefaultProviders())
	require.NoError(t, err)

	tests := []struct {
		name   string
		values []string
		want   model.ProviderMatch
	}{
		{
			name:   "every row names provider",
			values: []string{"Aviva", "AVIVA", " aviva "},
			want:   model.ProviderMatch{Provider: "Aviva", Confidence: ValuesScore, Method: MethodValues},
		},
		{
			name:   "half the rows",
			values: []string{"Royal London", "n/a", "Royal London Mutual", ""},
			want:   model.ProviderMatch{Provider: "Royal London", Confidence: ValuesScore, Method: MethodValues},
		},
		{
			name:   "minority",
			values: []string{"Aviva", "Other", "Other"},
			want:   model.ProviderMatch{Provider: model.UnknownProvider},
		},
		{
			name:   "two providers evenly split",
			values: []string{"Aviva", "Aegon"},
			want:   model.ProviderMatch{Provider: model.UnknownProvider},
		},
		{
			name: "empty",
			want: model.ProviderMatch{Provider: model.UnknownProvider},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pd.DetectFromValues(tt.values))
		})
	}
}

func TestProviderDetector_UpdateProviders(t *testing.T) {
	pd, err := NewProviderDetector(nil)
	require.NoError(t, err)
	assert.Equal(t, model.UnknownProvider, pd.Detect("acme.csv", nil).Provider)

	require.NoError(t, pd.UpdateProviders([]Provider{{Name: "Acme", Keywords: []string{"acme"}}}))
	assert.Equal(t, "Acme", pd.Detect("acme.csv", nil).Provider)

	assert.Error(t, pd.UpdateProviders([]Provider{{Name: "Bad"}}))
	assert.Equal(t, 1, pd.ProviderCount())
}
