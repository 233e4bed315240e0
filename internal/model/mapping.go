package model

import (
	"fmt"
	"sort"
	"strings"
)

// RawRow maps a column header to the raw cell value for one statement line.
// Empty cells are represented by the empty string.
type RawRow map[string]string

// Value returns the trimmed cell value for a header.
func (r RawRow) Value(header string) string {
	return strings.TrimSpace(r[header])
}

// CandidateMatch is one possible field assignment for a header.
type CandidateMatch struct {
	Field      FieldKey `json:"field"`
	Method     string   `json:"method"`
	Confidence int      `json:"confidence"`
}

// FieldMapping assigns canonical fields to column headers.
type FieldMapping map[FieldKey]string

// ConfidenceScores records how sure the mapper was about each assignment.
type ConfidenceScores map[FieldKey]int

// Fields returns the mapped field keys in sorted order.
func (m FieldMapping) Fields() []FieldKey {
	fields := make([]FieldKey, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// HeaderUsed reports whether any field is already assigned to header.
func (m FieldMapping) HeaderUsed(header string) bool {
	_, ok := m.FieldFor(header)
	return ok
}

// FieldFor returns the field assigned to header, if any.
func (m FieldMapping) FieldFor(header string) (FieldKey, bool) {
	for f, h := range m {
		if h == header {
			return f, true
		}
	}
	return "", false
}

// Clone returns an independent copy of the mapping.
func (m FieldMapping) Clone() FieldMapping {
	out := make(FieldMapping, len(m))
	for f, h := range m {
		out[f] = h
	}
	return out
}

// Validate checks that every mapped header exists in headers and that no
// header is assigned to more than one field.
func (m FieldMapping) Validate(headers []string) error {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}

	seen := make(map[string]FieldKey, len(m))
	for _, field := range m.Fields() {
		header := m[field]
		if !known[header] {
			return fmt.Errorf("field %s references unknown header %q", field, header)
		}
		if other, dup := seen[header]; dup {
			return fmt.Errorf("header %q assigned to both %s and %s", header, other, field)
		}
		seen[header] = field
	}
	return nil
}

// Clone returns an independent copy of the scores.
func (c ConfidenceScores) Clone() ConfidenceScores {
	out := make(ConfidenceScores, len(c))
	for f, v := range c {
		out[f] = v
	}
	return out
}
