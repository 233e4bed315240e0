// Package catalog holds the per-context field schemas used to recognize
// statement columns: canonical fields, their header synonyms and value
// validators.
package catalog

import (
	"sync"

	"github.com/Veraticus/statement-mapper/internal/model"
)

// Validator is a permissive shape check for a single raw cell value.
type Validator func(value string) bool

// FieldSpec describes how a canonical field is recognized within a context.
type FieldSpec struct {
	Validator  Validator
	Definition model.FieldDefinition
	Synonyms   []string
	Required   bool
}

// Key returns the field key of the spec.
func (f FieldSpec) Key() model.FieldKey {
	return f.Definition.Key
}

// ContextSpec is the full field schema for one context.
type ContextSpec struct {
	Context model.Context
	Fields  []FieldSpec
}

type contextEntry struct {
	byKey  map[model.FieldKey]int
	fields []FieldSpec
}

// Catalog is an immutable lookup of field schemas by context.
// It is safe for concurrent use.
type Catalog struct {
	contexts map[model.Context]*contextEntry
	order    []model.Context
}

// New builds a catalog from the given context specs. Later specs for the
// same context replace earlier ones.
func New(specs ...ContextSpec) *Catalog {
	c := &Catalog{
		contexts: make(map[model.Context]*contextEntry, len(specs)),
	}

	for _, spec := range specs {
		entry := &contextEntry{
			byKey:  make(map[model.FieldKey]int, len(spec.Fields)),
			fields: make([]FieldSpec, 0, len(spec.Fields)),
		}
		// Required fields are matched first so they win ties on catalog order.
		for _, required := range []bool{true, false} {
			for _, f := range spec.Fields {
				if f.Required != required {
					continue
				}
				entry.byKey[f.Key()] = len(entry.fields)
				entry.fields = append(entry.fields, f)
			}
		}

		if _, exists := c.contexts[spec.Context]; !exists {
			c.order = append(c.order, spec.Context)
		}
		c.contexts[spec.Context] = entry
	}

	return c
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	return New(defaultSpecs()...)
})

// Default returns the built-in catalog for pensions, savings, debts and
// investments statements.
func Default() *Catalog {
	return defaultCatalog()
}

// Contexts returns the contexts known to the catalog.
func (c *Catalog) Contexts() []model.Context {
	out := make([]model.Context, len(c.order))
	copy(out, c.order)
	return out
}

// HasContext reports whether the catalog defines ctx.
func (c *Catalog) HasContext(ctx model.Context) bool {
	_, ok := c.contexts[ctx]
	return ok
}

// Fields returns the field specs for ctx, required fields first.
func (c *Catalog) Fields(ctx model.Context) []FieldSpec {
	entry, ok := c.contexts[ctx]
	if !ok {
		return nil
	}
	out := make([]FieldSpec, len(entry.fields))
	copy(out, entry.fields)
	return out
}

// Field returns the spec for a single field.
func (c *Catalog) Field(ctx model.Context, field model.FieldKey) (FieldSpec, bool) {
	entry, ok := c.contexts[ctx]
	if !ok {
		return FieldSpec{}, false
	}
	idx, ok := entry.byKey[field]
	if !ok {
		return FieldSpec{}, false
	}
	return entry.fields[idx], true
}

// Definition returns the field definition for a field.
func (c *Catalog) Definition(ctx model.Context, field model.FieldKey) (model.FieldDefinition, bool) {
	spec, ok := c.Field(ctx, field)
	return spec.Definition, ok
}

// Synonyms returns the header synonyms for a field.
func (c *Catalog) Synonyms(ctx model.Context, field model.FieldKey) []string {
	spec, ok := c.Field(ctx, field)
	if !ok {
		return nil
	}
	out := make([]string, len(spec.Synonyms))
	copy(out, spec.Synonyms)
	return out
}

// Validator returns the value validator for a field, if it has one.
func (c *Catalog) Validator(ctx model.Context, field model.FieldKey) (Validator, bool) {
	spec, ok := c.Field(ctx, field)
	if !ok || spec.Validator == nil {
		return nil, false
	}
	return spec.Validator, true
}

// RequiredFields returns the fields every statement of ctx must map.
func (c *Catalog) RequiredFields(ctx model.Context) []model.FieldKey {
	return c.keys(ctx, true)
}

// OptionalFields returns the fields that may be mapped for ctx.
func (c *Catalog) OptionalFields(ctx model.Context) []model.FieldKey {
	return c.keys(ctx, false)
}

func (c *Catalog) keys(ctx model.Context, required bool) []model.FieldKey {
	var out []model.FieldKey
	for _, f := range c.Fields(ctx) {
		if f.Required == required {
			out = append(out, f.Key())
		}
	}
	return out
}
