package training

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/storage"
)

func newTestTrainer(t *testing.T) (*Trainer, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewTrainer(store, DefaultWeights(), nil), store
}

func avivaRequest(amountHeader string, amountConfidence int) SaveRequest {
	return SaveRequest{
		UserID:   "user-1",
		Provider: "Aviva",
		Context:  model.ContextPensions,
		Mapping: model.FieldMapping{
			model.FieldDate:   "Payment Date",
			model.FieldAmount: amountHeader,
		},
		ConfidenceScores: model.ConfidenceScores{
			model.FieldDate:   100,
			model.FieldAmount: amountConfidence,
		},
		Headers: []string{"Payment Date", amountHeader},
	}
}

func entry(t *testing.T, tmpl *model.Template, field model.FieldKey, header string) model.TemplateFieldMapping {
	t.Helper()
	idx := tmpl.FindMapping(field, header)
	require.GreaterOrEqual(t, idx, 0, "no entry for %s/%s", field, header)
	return tmpl.FieldMappings[idx]
}

func TestSaveTemplate_CreatesTemplate(t *testing.T) {
	trainer, _ := newTestTrainer(t)
	ctx := context.Background()

	req := avivaRequest("Amount", 80)
	req.DateFormat = "DD/MM/YYYY"
	req.Frequency = model.FrequencyMonthly

	tmpl, err := trainer.SaveTemplate(ctx, req)
	require.NoError(t, err)

	assert.NotEmpty(t, tmpl.ID)
	assert.Equal(t, 1, tmpl.UsageCount)
	assert.Equal(t, 100, tmpl.SuccessRate)
	assert.Equal(t, "DD/MM/YYYY", tmpl.DateFormat)
	assert.Equal(t, model.FrequencyMonthly, tmpl.Frequency)
	assert.Equal(t, []string{"Payment Date", "Amount"}, tmpl.ExampleHeaders)
	assert.Len(t, tmpl.FieldMappings, 2)

	amount := entry(t, tmpl, model.FieldAmount, "Amount")
	assert.Equal(t, 80, amount.Confidence)
	assert.Equal(t, 1, amount.SuccessCount)
	assert.Equal(t, 1, amount.TotalAttempts)

	stored, err := trainer.GetTemplate(ctx, "user-1", "aviva", model.ContextPensions)
	require.NoError(t, err)
	assert.Equal(t, tmpl.ID, stored.ID)
}

func TestSaveTemplate_MergesReconfirmedEntries(t *testing.T) {
	trainer, _ := newTestTrainer(t)
	ctx := context.Background()

	first := avivaRequest("Amount", 80)
	first.DateFormat = "DD/MM/YYYY"
	first.Frequency = model.FrequencyMonthly
	_, err := trainer.SaveTemplate(ctx, first)
	require.NoError(t, err)

	second := avivaRequest("Amount", 90)
	second.Frequency = model.FrequencyInsufficientData
	tmpl, err := trainer.SaveTemplate(ctx, second)
	require.NoError(t, err)

	amount := entry(t, tmpl, model.FieldAmount, "Amount")
	assert.Equal(t, 86, amount.Confidence)
	assert.Equal(t, 2, amount.SuccessCount)
	assert.Equal(t, 2, amount.TotalAttempts)

	assert.Equal(t, 2, tmpl.UsageCount)
	assert.Equal(t, 100, tmpl.SuccessRate)
	assert.Len(t, tmpl.FieldMappings, 2)

	// Unknown format and frequency leave the learned values alone.
	assert.Equal(t, "DD/MM/YYYY", tmpl.DateFormat)
	assert.Equal(t, model.FrequencyMonthly, tmpl.Frequency)
}

func TestSaveTemplate_NewHeaderLeavesOldEntryAlone(t *testing.T) {
	trainer, _ := newTestTrainer(t)
	ctx := context.Background()

	_, err := trainer.SaveTemplate(ctx, avivaRequest("Amount", 80))
	require.NoError(t, err)

	tmpl, err := trainer.SaveTemplate(ctx, avivaRequest("Paid", 70))
	require.NoError(t, err)

	require.Len(t, tmpl.FieldMappings, 3)

	old := entry(t, tmpl, model.FieldAmount, "Amount")
	assert.Equal(t, 80, old.Confidence)
	assert.Equal(t, 1, old.SuccessCount)
	assert.Equal(t, 1, old.TotalAttempts)

	fresh := entry(t, tmpl, model.FieldAmount, "Paid")
	assert.Equal(t, 70, fresh.Confidence)
	assert.Equal(t, 1, fresh.TotalAttempts)

	assert.Equal(t, 100, tmpl.SuccessRate)
	assert.Equal(t, []string{"Payment Date", "Paid"}, tmpl.ExampleHeaders)
}

func TestSaveTemplate_RepeatedConfirmationsKeepFullSuccessRate(t *testing.T) {
	trainer, _ := newTestTrainer(t)
	ctx := context.Background()

	_, err := trainer.SaveTemplate(ctx, avivaRequest("Amount", 80))
	require.NoError(t, err)

	var tmpl *model.Template
	for i := 0; i < 20; i++ {
		tmpl, err = trainer.SaveTemplate(ctx, avivaRequest("Paid", 80))
		require.NoError(t, err)
	}

	assert.Equal(t, 100, tmpl.SuccessRate)
	assert.Equal(t, 21, tmpl.UsageCount)

	old := entry(t, tmpl, model.FieldAmount, "Amount")
	assert.Equal(t, 1, old.TotalAttempts)
	paid := entry(t, tmpl, model.FieldAmount, "Paid")
	assert.Equal(t, 20, paid.SuccessCount)
	assert.Equal(t, 20, paid.TotalAttempts)
}

func TestSaveTemplate_InvalidRequest(t *testing.T) {
	trainer, _ := newTestTrainer(t)
	ctx := context.Background()

	tests := []struct {
		mutate func(*SaveRequest)
		name   string
	}{
		{name: "missing user", mutate: func(r *SaveRequest) { r.UserID = "" }},
		{name: "blank provider", mutate: func(r *SaveRequest) { r.Provider = "  " }},
		{name: "unknown context", mutate: func(r *SaveRequest) { r.Context = "crypto" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := avivaRequest("Amount", 80)
			tt.mutate(&req)
			_, err := trainer.SaveTemplate(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	trainer, _ := newTestTrainer(t)

	_, err := trainer.GetTemplate(context.Background(), "user-1", "Aviva", model.ContextPensions)
	assert.ErrorIs(t, err, storage.ErrTemplateNotFound)
}

func TestGetTemplatesByContext_RanksBySuccessAndUsage(t *testing.T) {
	trainer, store := newTestTrainer(t)
	ctx := context.Background()

	busy := &model.Template{
		UserID: "user-1", Provider: "Aegon", Context: model.ContextPensions,
		UsageCount: 10, SuccessRate: 50,
	}
	reliable := &model.Template{
		UserID: "user-1", Provider: "Nest", Context: model.ContextPensions,
		UsageCount: 1, SuccessRate: 80,
	}
	require.NoError(t, store.SaveTemplate(ctx, busy))
	require.NoError(t, store.SaveTemplate(ctx, reliable))

	templates, err := trainer.GetTemplatesByContext(ctx, "user-1", model.ContextPensions)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "Nest", templates[0].Provider)
	assert.Equal(t, "Aegon", templates[1].Provider)
}

func TestFindBestMatchingTemplate(t *testing.T) {
	trainer, store := newTestTrainer(t)
	ctx := context.Background()

	match, err := trainer.FindBestMatchingTemplate(ctx, "user-1", model.ContextPensions, []string{"Payment Date"})
	require.NoError(t, err)
	assert.Nil(t, match, "no templates yet")

	_, err = trainer.SaveTemplate(ctx, avivaRequest("Amount", 80))
	require.NoError(t, err)

	other := avivaRequest("Value", 80)
	other.Provider = "Aegon"
	other.Headers = []string{"Date Paid", "Value"}
	_, err = trainer.SaveTemplate(ctx, other)
	require.NoError(t, err)

	match, err = trainer.FindBestMatchingTemplate(ctx, "user-1", model.ContextPensions, []string{"payment date", "AMOUNT", "Notes"})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "Aviva", match.Template.Provider)
	assert.InDelta(t, 1.0, match.Overlap, 0.001)
	// 100*0.5 + 100*0.3 + 1*10*0.2
	assert.InDelta(t, 82.0, match.Score, 0.001)

	weak := &model.Template{
		UserID: "user-2", Provider: "Standard Life", Context: model.ContextPensions,
		ExampleHeaders: []string{"Something Else"},
		UsageCount:     1, SuccessRate: 20,
	}
	require.NoError(t, store.SaveTemplate(ctx, weak))

	match, err = trainer.FindBestMatchingTemplate(ctx, "user-2", model.ContextPensions, []string{"Payment Date"})
	require.NoError(t, err)
	assert.Nil(t, match, "score of 12 is below the floor")
}

func TestRecordFeedback(t *testing.T) {
	tests := []struct {
		name            string
		header          string
		wantEntries     int
		wantConfidence  int
		wantSuccess     int
		wantAttempts    int
		wantSuccessRate int
		correct         bool
	}{
		{
			name: "correct existing entry", header: "Amount", correct: true,
			wantEntries: 2, wantConfidence: 92, wantSuccess: 2, wantAttempts: 2, wantSuccessRate: 100,
		},
		{
			name: "incorrect existing entry", header: "Amount", correct: false,
			wantEntries: 2, wantConfidence: 32, wantSuccess: 1, wantAttempts: 2, wantSuccessRate: 67,
		},
		{
			name: "correct unknown entry", header: "Contribution", correct: true,
			wantEntries: 3, wantConfidence: 100, wantSuccess: 1, wantAttempts: 1, wantSuccessRate: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trainer, _ := newTestTrainer(t)
			ctx := context.Background()

			_, err := trainer.SaveTemplate(ctx, avivaRequest("Amount", 80))
			require.NoError(t, err)

			err = trainer.RecordFeedback(ctx, FeedbackRequest{
				UserID: "user-1", Provider: "Aviva", Context: model.ContextPensions,
				Field: model.FieldAmount, Header: tt.header, WasCorrect: tt.correct,
			})
			require.NoError(t, err)

			tmpl, err := trainer.GetTemplate(ctx, "user-1", "Aviva", model.ContextPensions)
			require.NoError(t, err)
			assert.Len(t, tmpl.FieldMappings, tt.wantEntries)
			assert.Equal(t, tt.wantSuccessRate, tmpl.SuccessRate)

			e := entry(t, tmpl, model.FieldAmount, tt.header)
			assert.Equal(t, tt.wantConfidence, e.Confidence)
			assert.Equal(t, tt.wantSuccess, e.SuccessCount)
			assert.Equal(t, tt.wantAttempts, e.TotalAttempts)
		})
	}
}

func TestRecordFeedback_IncorrectUnknownEntryIsIgnored(t *testing.T) {
	trainer, _ := newTestTrainer(t)
	ctx := context.Background()

	before, err := trainer.SaveTemplate(ctx, avivaRequest("Amount", 80))
	require.NoError(t, err)

	err = trainer.RecordFeedback(ctx, FeedbackRequest{
		UserID: "user-1", Provider: "Aviva", Context: model.ContextPensions,
		Field: model.FieldAmount, Header: "Never Seen", WasCorrect: false,
	})
	require.NoError(t, err)

	after, err := trainer.GetTemplate(ctx, "user-1", "Aviva", model.ContextPensions)
	require.NoError(t, err)
	assert.Equal(t, before.FieldMappings, after.FieldMappings)
	assert.Equal(t, before.SuccessRate, after.SuccessRate)
}

func TestRecordFeedback_Errors(t *testing.T) {
	trainer, _ := newTestTrainer(t)
	ctx := context.Background()

	err := trainer.RecordFeedback(ctx, FeedbackRequest{
		UserID: "user-1", Provider: "Aviva", Context: model.ContextPensions,
		Field: model.FieldAmount, Header: "Amount", WasCorrect: true,
	})
	assert.ErrorIs(t, err, storage.ErrTemplateNotFound)

	err = trainer.RecordFeedback(ctx, FeedbackRequest{
		UserID: "user-1", Provider: "Aviva", Context: model.ContextPensions,
		Header: "Amount",
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
