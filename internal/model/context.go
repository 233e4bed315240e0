// Package model defines the core data structures for the statement mapper.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownContext is returned when a context name is not recognized.
var ErrUnknownContext = errors.New("unknown context")

// Context is the financial domain a statement belongs to.
type Context string

// Supported statement contexts.
const (
	ContextPensions    Context = "pensions"
	ContextSavings     Context = "savings"
	ContextDebts       Context = "debts"
	ContextInvestments Context = "investments"
)

// AllContexts returns every supported context in display order.
func AllContexts() []Context {
	return []Context{ContextPensions, ContextSavings, ContextDebts, ContextInvestments}
}

// ParseContext converts a user-supplied name into a Context.
func ParseContext(name string) (Context, error) {
	c := Context(strings.ToLower(strings.TrimSpace(name)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContext, name)
	}
	return c, nil
}

// IsValid reports whether the context is one of the supported contexts.
func (c Context) IsValid() bool {
	switch c {
	case ContextPensions, ContextSavings, ContextDebts, ContextInvestments:
		return true
	}
	return false
}

func (c Context) String() string {
	return string(c)
}

// FieldKey identifies a canonical semantic field such as "date" or "amount".
type FieldKey string

// Canonical field keys shared across contexts.
const (
	FieldDate                 FieldKey = "date"
	FieldAmount               FieldKey = "amount"
	FieldProvider             FieldKey = "provider"
	FieldBalance              FieldKey = "balance"
	FieldDescription          FieldKey = "description"
	FieldReference            FieldKey = "reference"
	FieldEmployeeContribution FieldKey = "employee_contribution"
	FieldEmployerContribution FieldKey = "employer_contribution"
	FieldTaxRelief            FieldKey = "tax_relief"
	FieldFundName             FieldKey = "fund_name"
	FieldAccountName          FieldKey = "account_name"
	FieldInterestRate         FieldKey = "interest_rate"
	FieldInterest             FieldKey = "interest"
	FieldMinimumPayment       FieldKey = "minimum_payment"
	FieldUnits                FieldKey = "units"
	FieldUnitPrice            FieldKey = "unit_price"
	FieldTicker               FieldKey = "ticker"
	FieldTransactionType      FieldKey = "transaction_type"
)

// FieldType describes the shape of values a field holds.
type FieldType string

// Field value types.
const (
	FieldTypeDate     FieldType = "date"
	FieldTypeCurrency FieldType = "currency"
	FieldTypeNumber   FieldType = "number"
	FieldTypeText     FieldType = "text"
	FieldTypeSelect   FieldType = "select"
)

// FieldDefinition describes a canonical field within a context.
type FieldDefinition struct {
	Key         FieldKey
	Label       string
	Description string
	Type        FieldType
	Examples    []string
}
