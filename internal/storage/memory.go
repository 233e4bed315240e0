package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/service"
)

type templateKey struct {
	userID      string
	providerKey string
	context     model.Context
}

// MemoryStore is an in-process template store. It behaves like
// SQLiteStorage but keeps nothing across restarts.
type MemoryStore struct {
	templates map[templateKey]*model.Template
	mu        sync.RWMutex
}

var _ service.Storage = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates: make(map[templateKey]*model.Template),
	}
}

// GetTemplate retrieves a copy of the template for a key.
func (m *MemoryStore) GetTemplate(ctx context.Context, userID, provider string, statementContext model.Context) (*model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKey(userID, provider, statementContext); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	tmpl, ok := m.templates[templateKey{userID, model.ProviderKey(provider), statementContext}]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return tmpl.Clone(), nil
}

// SaveTemplate stores a copy of the template, replacing any with the same key.
func (m *MemoryStore) SaveTemplate(ctx context.Context, template *model.Template) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTemplate(template); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := templateKey{template.UserID, model.ProviderKey(template.Provider), template.Context}
	now := time.Now().UTC()
	if existing, ok := m.templates[key]; ok {
		template.ID = existing.ID
		template.CreatedAt = existing.CreatedAt
	}
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	m.templates[key] = template.Clone()
	return nil
}

// GetTemplatesByContext returns copies of the user's templates for a
// context, most recently updated first.
func (m *MemoryStore) GetTemplatesByContext(ctx context.Context, userID string, statementContext model.Context) ([]model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateStatementContext(statementContext); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var templates []model.Template
	for key, tmpl := range m.templates {
		if key.userID == userID && key.context == statementContext {
			templates = append(templates, *tmpl.Clone())
		}
	}
	sort.Slice(templates, func(i, j int) bool {
		if !templates[i].UpdatedAt.Equal(templates[j].UpdatedAt) {
			return templates[i].UpdatedAt.After(templates[j].UpdatedAt)
		}
		return model.ProviderKey(templates[i].Provider) < model.ProviderKey(templates[j].Provider)
	})
	return templates, nil
}

// DeleteTemplate removes a template by ID.
func (m *MemoryStore) DeleteTemplate(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, tmpl := range m.templates {
		if tmpl.ID == id {
			delete(m.templates, key)
			return nil
		}
	}
	return ErrTemplateNotFound
}

// Migrate is a no-op for the in-memory store.
func (m *MemoryStore) Migrate(ctx context.Context) error {
	return validateContext(ctx)
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
