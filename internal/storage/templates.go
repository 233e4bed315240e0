package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/statement-mapper/internal/model"
)

// ErrTemplateNotFound is returned when no template exists for a key or ID.
var ErrTemplateNotFound = errors.New("template not found")

const templateColumns = `
	id, user_id, provider, context, field_mappings, example_headers,
	date_format, frequency, usage_count, success_rate, created_at, updated_at`

// GetTemplate retrieves the template for a user, provider and context.
func (s *SQLiteStorage) GetTemplate(ctx context.Context, userID, provider string, statementContext model.Context) (*model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKey(userID, provider, statementContext); err != nil {
		return nil, err
	}
	return s.getTemplateTx(ctx, s.db, userID, model.ProviderKey(provider), statementContext)
}

func (s *SQLiteStorage) getTemplateTx(ctx context.Context, q queryable, userID, providerKey string, statementContext model.Context) (*model.Template, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		WHERE user_id = ? AND provider_key = ? AND context = ?`,
		userID, providerKey, statementContext)

	tmpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query template: %w", err)
	}
	return tmpl, nil
}

// SaveTemplate inserts the template or replaces the stored one with the
// same key. The stored ID and creation time are kept on replacement and
// written back to template.
func (s *SQLiteStorage) SaveTemplate(ctx context.Context, template *model.Template) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTemplate(template); err != nil {
		return err
	}

	mappingsJSON, err := json.Marshal(nonNilMappings(template.FieldMappings))
	if err != nil {
		return fmt.Errorf("failed to marshal field mappings: %w", err)
	}
	headersJSON, err := json.Marshal(nonNilStrings(template.ExampleHeaders))
	if err != nil {
		return fmt.Errorf("failed to marshal example headers: %w", err)
	}

	now := time.Now().UTC()
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	providerKey := model.ProviderKey(template.Provider)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO templates (
			id, user_id, provider, provider_key, context, field_mappings, example_headers,
			date_format, frequency, usage_count, success_rate, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider_key, context) DO UPDATE SET
			provider = excluded.provider,
			field_mappings = excluded.field_mappings,
			example_headers = excluded.example_headers,
			date_format = excluded.date_format,
			frequency = excluded.frequency,
			usage_count = excluded.usage_count,
			success_rate = excluded.success_rate,
			updated_at = excluded.updated_at`,
		template.ID, template.UserID, template.Provider, providerKey, template.Context,
		string(mappingsJSON), string(headersJSON),
		template.DateFormat, string(template.Frequency),
		template.UsageCount, template.SuccessRate,
		template.CreatedAt, template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `
		SELECT id, created_at FROM templates
		WHERE user_id = ? AND provider_key = ? AND context = ?`,
		template.UserID, providerKey, template.Context,
	).Scan(&template.ID, &template.CreatedAt); err != nil {
		return fmt.Errorf("failed to read back template: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit template: %w", err)
	}

	slog.Debug("saved template",
		"id", template.ID,
		"provider", template.Provider,
		"context", template.Context,
		"mappings", len(template.FieldMappings),
		"usage_count", template.UsageCount)
	return nil
}

// GetTemplatesByContext returns all of a user's templates for a context,
// most recently updated first.
func (s *SQLiteStorage) GetTemplatesByContext(ctx context.Context, userID string, statementContext model.Context) ([]model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateStatementContext(statementContext); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		WHERE user_id = ? AND context = ?
		ORDER BY updated_at DESC, provider_key`,
		userID, statementContext)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var templates []model.Template
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// DeleteTemplate removes a template by ID.
func (s *SQLiteStorage) DeleteTemplate(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTemplateNotFound
	}

	slog.Info("deleted template", "id", id)
	return nil
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var (
		tmpl         model.Template
		mappingsJSON string
		headersJSON  string
		frequency    string
	)
	if err := row.Scan(
		&tmpl.ID, &tmpl.UserID, &tmpl.Provider, &tmpl.Context,
		&mappingsJSON, &headersJSON,
		&tmpl.DateFormat, &frequency,
		&tmpl.UsageCount, &tmpl.SuccessRate,
		&tmpl.CreatedAt, &tmpl.UpdatedAt,
	); err != nil {
		return nil, err
	}
	tmpl.Frequency = model.Frequency(frequency)

	if err := json.Unmarshal([]byte(mappingsJSON), &tmpl.FieldMappings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal field mappings: %w", err)
	}
	if err := json.Unmarshal([]byte(headersJSON), &tmpl.ExampleHeaders); err != nil {
		return nil, fmt.Errorf("failed to unmarshal example headers: %w", err)
	}
	return &tmpl, nil
}

func nonNilMappings(m []model.TemplateFieldMapping) []model.TemplateFieldMapping {
	if m == nil {
		return []model.TemplateFieldMapping{}
	}
	return m
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
