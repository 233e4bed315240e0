// Package storage provides the template persistence layer.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/statement-mapper/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidContext  = errors.New("invalid statement context")
	ErrInvalidTemplate = errors.New("invalid template")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateStatementContext(c model.Context) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidContext, c)
	}
	return nil
}

// validateKey checks the (user, provider, context) template key.
func validateKey(userID, provider string, c model.Context) error {
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(provider, "provider"); err != nil {
		return err
	}
	return validateStatementContext(c)
}

// validateTemplate validates a template before it is written.
func validateTemplate(t *model.Template) error {
	if t == nil {
		return fmt.Errorf("%w: template", ErrNilParameter)
	}
	if strings.TrimSpace(t.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTemplate)
	}
	if strings.TrimSpace(t.Provider) == "" {
		return fmt.Errorf("%w: missing provider", ErrInvalidTemplate)
	}
	if !t.Context.IsValid() {
		return fmt.Errorf("%w: unknown context %q", ErrInvalidTemplate, t.Context)
	}
	if t.UsageCount < 0 {
		return fmt.Errorf("%w: negative usage count", ErrInvalidTemplate)
	}
	if t.SuccessRate < 0 || t.SuccessRate > 100 {
		return fmt.Errorf("%w: success rate %d out of range", ErrInvalidTemplate, t.SuccessRate)
	}

	for i, fm := range t.FieldMappings {
		if strings.TrimSpace(fm.OriginalHeader) == "" {
			return fmt.Errorf("%w: field mapping %d has no header", ErrInvalidTemplate, i)
		}
		if fm.MappedField == "" {
			return fmt.Errorf("%w: field mapping %d has no field", ErrInvalidTemplate, i)
		}
		if fm.Confidence < 0 || fm.Confidence > 100 {
			return fmt.Errorf("%w: field mapping %d confidence %d out of range", ErrInvalidTemplate, i, fm.Confidence)
		}
		if fm.SuccessCount < 0 || fm.TotalAttempts < fm.SuccessCount {
			return fmt.Errorf("%w: field mapping %d has inconsistent counts", ErrInvalidTemplate, i)
		}
	}
	return nil
}
