package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/service"
)

// templateStores runs each test against every store implementation.
func templateStores(t *testing.T) map[string]service.Storage {
	t.Helper()
	sqlite, cleanup := createTestStorage(t)
	t.Cleanup(cleanup)
	return map[string]service.Storage{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func TestTemplateStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	for name, store := range templateStores(t) {
		t.Run(name, func(t *testing.T) {
			tmpl := validTemplate()
			tmpl.DateFormat = "DD/MM/YYYY"
			tmpl.Frequency = model.FrequencyMonthly

			require.NoError(t, store.SaveTemplate(ctx, tmpl))
			assert.NotEmpty(t, tmpl.ID)
			assert.False(t, tmpl.CreatedAt.IsZero())

			got, err := store.GetTemplate(ctx, "user-1", "  AVIVA ", model.ContextPensions)
			require.NoError(t, err)

			assert.Equal(t, tmpl.ID, got.ID)
			assert.Equal(t, "Aviva", got.Provider)
			assert.Equal(t, model.ContextPensions, got.Context)
			assert.Equal(t, tmpl.FieldMappings, got.FieldMappings)
			assert.Equal(t, []string{"Payment Date"}, got.ExampleHeaders)
			assert.Equal(t, "DD/MM/YYYY", got.DateFormat)
			assert.Equal(t, model.FrequencyMonthly, got.Frequency)
			assert.Equal(t, 1, got.UsageCount)
			assert.Equal(t, 100, got.SuccessRate)
			assert.WithinDuration(t, tmpl.CreatedAt, got.CreatedAt, time.Second)
		})
	}
}

func TestTemplateStore_NotFound(t *testing.T) {
	ctx := context.Background()
	for name, store := range templateStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.GetTemplate(ctx, "user-1", "Aviva", model.ContextPensions)
			assert.ErrorIs(t, err, ErrTemplateNotFound)

			require.NoError(t, store.SaveTemplate(ctx, validTemplate()))

			_, err = store.GetTemplate(ctx, "user-2", "Aviva", model.ContextPensions)
			assert.ErrorIs(t, err, ErrTemplateNotFound)
			_, err = store.GetTemplate(ctx, "user-1", "Aviva", model.ContextSavings)
			assert.ErrorIs(t, err, ErrTemplateNotFound)
		})
	}
}

func TestTemplateStore_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	for name, store := range templateStores(t) {
		t.Run(name, func(t *testing.T) {
			first := validTemplate()
			require.NoError(t, store.SaveTemplate(ctx, first))

			second := validTemplate()
			second.Provider = "AVIVA"
			second.UsageCount = 2
			second.FieldMappings = append(second.FieldMappings, model.TemplateFieldMapping{
				OriginalHeader: "Amount", MappedField: model.FieldAmount, Confidence: 90, SuccessCount: 1, TotalAttempts: 1,
			})
			require.NoError(t, store.SaveTemplate(ctx, second))

			assert.Equal(t, first.ID, second.ID)
			assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Second)

			got, err := store.GetTemplate(ctx, "user-1", "aviva", model.ContextPensions)
			require.NoError(t, err)
			assert.Equal(t, "AVIVA", got.Provider)
			assert.Equal(t, 2, got.UsageCount)
			assert.Len(t, got.FieldMappings, 2)

			all, err := store.GetTemplatesByContext(ctx, "user-1", model.ContextPensions)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestTemplateStore_GetTemplatesByContext(t *testing.T) {
	ctx := context.Background()
	for name, store := range templateStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, provider := range []string{"Aviva", "Aegon", "Nest"} {
				tmpl := validTemplate()
				tmpl.Provider = provider
				require.NoError(t, store.SaveTemplate(ctx, tmpl))
			}
			other := validTemplate()
			other.Context = model.ContextSavings
			require.NoError(t, store.SaveTemplate(ctx, other))

			pensions, err := store.GetTemplatesByContext(ctx, "user-1", model.ContextPensions)
			require.NoError(t, err)
			assert.Len(t, pensions, 3)

			savings, err := store.GetTemplatesByContext(ctx, "user-1", model.ContextSavings)
			require.NoError(t, err)
			assert.Len(t, savings, 1)

			none, err := store.GetTemplatesByContext(ctx, "someone-else", model.ContextPensions)
			require.NoError(t, err)
			assert.Empty(t, none)

			_, err = store.GetTemplatesByContext(ctx, "user-1", "crypto")
			assert.ErrorIs(t, err, ErrInvalidContext)
		})
	}
}

func TestTemplateStore_Delete(t *testing.T) {
	ctx := context.Background()
	for name, store := range templateStores(t) {
		t.Run(name, func(t *testing.T) {
			tmpl := validTemplate()
			require.NoError(t, store.SaveTemplate(ctx, tmpl))

			require.NoError(t, store.DeleteTemplate(ctx, tmpl.ID))
			_, err := store.GetTemplate(ctx, "user-1", "Aviva", model.ContextPensions)
			assert.ErrorIs(t, err, ErrTemplateNotFound)

			assert.ErrorIs(t, store.DeleteTemplate(ctx, tmpl.ID), ErrTemplateNotFound)
		})
	}
}

func TestTemplateStore_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	for name, store := range templateStores(t) {
		t.Run(name, func(t *testing.T) {
			bad := validTemplate()
			bad.Context = "crypto"
			assert.ErrorIs(t, store.SaveTemplate(ctx, bad), ErrInvalidTemplate)
			assert.ErrorIs(t, store.SaveTemplate(ctx, nil), ErrNilParameter)

			_, err := store.GetTemplate(ctx, "", "Aviva", model.ContextPensions)
			assert.ErrorIs(t, err, ErrEmptyString)

			//nolint:staticcheck // exercising the nil guard
			_, err = store.GetTemplate(nil, "user-1", "Aviva", model.ContextPensions)
			assert.ErrorIs(t, err, ErrNilContext)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	tmpl := validTemplate()
	require.NoError(t, store.SaveTemplate(ctx, tmpl))
	tmpl.FieldMappings[0].Confidence = 1

	got, err := store.GetTemplate(ctx, "user-1", "Aviva", model.ContextPensions)
	require.NoError(t, err)
	assert.Equal(t, 100, got.FieldMappings[0].Confidence)

	got.ExampleHeaders[0] = "mutated"
	again, err := store.GetTemplate(ctx, "user-1", "Aviva", model.ContextPensions)
	require.NoError(t, err)
	assert.Equal(t, "Payment Date", again.ExampleHeaders[0])
}
