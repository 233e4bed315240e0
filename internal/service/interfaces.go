// Package service defines the interfaces shared between application layers.
package service

import (
	"context"

	"github.com/Veraticus/statement-mapper/internal/model"
)

// TemplateStore persists learned templates keyed by user, provider and
// statement context. Providers are compared case-insensitively.
type TemplateStore interface {
	// GetTemplate returns the template for the key or storage.ErrTemplateNotFound.
	GetTemplate(ctx context.Context, userID, provider string, statementContext model.Context) (*model.Template, error)
	// SaveTemplate inserts or replaces the template for its key. It assigns
	// ID and timestamps when they are unset.
	SaveTemplate(ctx context.Context, template *model.Template) error
	// GetTemplatesByContext returns every template the user has for a context.
	GetTemplatesByContext(ctx context.Context, userID string, statementContext model.Context) ([]model.Template, error)
}

// Storage is the full persistence contract used by the CLI.
type Storage interface {
	TemplateStore

	// DeleteTemplate removes a template by ID.
	DeleteTemplate(ctx context.Context, id string) error

	// Maintenance
	Migrate(ctx context.Context) error
	Close() error
}
