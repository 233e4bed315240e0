package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/statement-mapper/internal/ingest"
	"github.com/Veraticus/statement-mapper/internal/mapping"
	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/records"
)

const (
	dateDisplay       = "2 Jan 2006"
	maxSuggestions    = 3
	noValue           = "-"
	templateTimestamp = "2006-01-02 15:04"
)

// renderTable lays rows out in left-aligned columns. The first row is the
// header.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	lines := make([]string, 0, len(rows))
	for r, row := range rows {
		style := TableCellStyle
		if r == 0 {
			style = TableHeaderStyle
		}
		cells := make([]string, 0, len(row))
		for i, cell := range row {
			cells = append(cells, style.Width(widths[i]+2).Render(cell))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}

// RenderMapping renders the field assignments of a mapping result.
func RenderMapping(m model.FieldMapping, scores model.ConfidenceScores, methods map[model.FieldKey]string) string {
	if len(m) == 0 {
		return SubtleStyle.Render("No fields mapped.")
	}
	rows := [][]string{{"Field", "Column", "Confidence", "Method"}}
	for _, field := range m.Fields() {
		confidence := noValue
		if score, ok := scores[field]; ok {
			confidence = FormatConfidence(score)
		}
		method := methods[field]
		if method == "" {
			method = noValue
		}
		rows = append(rows, []string{string(field), m[field], confidence, method})
	}
	return renderTable(rows)
}

// RenderAnalysis renders everything inferred about an upload.
func RenderAnalysis(a *ingest.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("File:"), a.Upload.FileName)
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Context:"), a.Upload.Context)
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Provider:"), renderProvider(a.Provider))
	if a.Template != nil {
		fmt.Fprintf(&b, "%s learned %s template (used %d times, %s success)\n",
			BoldStyle.Render("Template:"), a.TemplateSource, a.Template.UsageCount, FormatConfidence(a.Template.SuccessRate))
	}
	b.WriteString("\n")

	b.WriteString(RenderMapping(a.Mapping.Mapping, a.Mapping.ConfidenceScores, a.Mapping.Methods))
	b.WriteString("\n")

	if suggestions := renderSuggestions(a.Mapping); suggestions != "" {
		b.WriteString("\n" + BoldStyle.Render("Suggestions for review:") + "\n" + suggestions)
	}
	if len(a.Mapping.UnmappedHeaders) > 0 {
		fmt.Fprintf(&b, "\n%s %s\n", BoldStyle.Render("Unrecognised columns:"),
			SubtleStyle.Render(strings.Join(a.Mapping.UnmappedHeaders, ", ")))
	}
	// Missing required fields are reported by validation.
	b.WriteString("\n" + renderPatterns(a.Patterns))
	b.WriteString(renderValidation(a.Validation))

	return strings.TrimRight(b.String(), "\n")
}

func renderProvider(p model.ProviderMatch) string {
	if !p.IsKnown() {
		return SubtleStyle.Render("unknown")
	}
	return fmt.Sprintf("%s (%s, %s)", p.Provider, p.Method, FormatConfidence(p.Confidence))
}

func renderSuggestions(result *mapping.Result) string {
	headers := make([]string, 0, len(result.Suggestions))
	for header := range result.Suggestions {
		if !result.Mapping.HeaderUsed(header) {
			headers = append(headers, header)
		}
	}
	sort.Strings(headers)

	var b strings.Builder
	for _, header := range headers {
		candidates := result.Suggestions[header]
		parts := make([]string, 0, maxSuggestions)
		for _, c := range candidates[:min(len(candidates), maxSuggestions)] {
			parts = append(parts, fmt.Sprintf("%s %s", c.Field, FormatConfidence(c.Confidence)))
		}
		fmt.Fprintf(&b, "  %s: %s\n", header, strings.Join(parts, ", "))
	}
	return b.String()
}

func renderPatterns(p *model.PatternAnalysis) string {
	var b strings.Builder
	if p.HasDateFormat() {
		fmt.Fprintf(&b, "%s %s (%s)\n", BoldStyle.Render("Date format:"), p.DateFormat, FormatConfidence(p.FormatConfidence))
	} else {
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Date format:"), WarningStyle.Render("not detected"))
	}
	if p.Frequency == model.FrequencyInsufficientData {
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Frequency:"), SubtleStyle.Render(p.FrequencyLabel))
	} else {
		fmt.Fprintf(&b, "%s %s (%s, every %.1f days)\n", BoldStyle.Render("Frequency:"),
			p.FrequencyLabel, FormatConfidence(p.FrequencyConfidence), p.AverageIntervalDays)
	}
	if p.DateRange != nil {
		fmt.Fprintf(&b, "%s %s to %s (%d days)\n", BoldStyle.Render("Dates:"),
			p.DateRange.Earliest.Format(dateDisplay), p.DateRange.Latest.Format(dateDisplay), p.DateRange.SpanDays)
	}
	return b.String()
}

func renderValidation(v *mapping.Validation) string {
	if v == nil {
		return ""
	}
	var b strings.Builder
	for _, e := range v.Errors {
		b.WriteString(FormatError(e) + "\n")
	}
	for _, w := range v.Warnings {
		b.WriteString(FormatWarning(w) + "\n")
	}
	if v.IsValid && len(v.Warnings) == 0 {
		b.WriteString(FormatSuccess(fmt.Sprintf("Mapping looks good (score %d)", v.Score)) + "\n")
	}
	return b.String()
}

// RenderSummary renders the totals of typed records.
func RenderSummary(result *records.Result) string {
	s := result.Summary()
	var b strings.Builder
	fmt.Fprintf(&b, "%s Records: %d\n", ChartIcon, s.Records)
	if !s.Earliest.IsZero() {
		fmt.Fprintf(&b, "  Period: %s to %s\n", s.Earliest.Format(dateDisplay), s.Latest.Format(dateDisplay))
	}
	fmt.Fprintf(&b, "  In:     %s\n", s.In.StringFixed(2))
	fmt.Fprintf(&b, "  Out:    %s\n", s.Out.StringFixed(2))
	fmt.Fprintf(&b, "  Net:    %s\n", s.Total.StringFixed(2))

	if s.Errors > 0 {
		b.WriteString(FormatWarning(fmt.Sprintf("%d cells could not be read", s.Errors)) + "\n")
		for _, e := range result.Errors[:min(len(result.Errors), 5)] {
			b.WriteString("  " + SubtleStyle.Render(e.Error()) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderTemplates renders a list of learned templates.
func RenderTemplates(templates []model.Template) string {
	if len(templates) == 0 {
		return SubtleStyle.Render("No templates learned yet.")
	}
	rows := [][]string{{"Provider", "Fields", "Used", "Success", "Date format", "Updated"}}
	for _, t := range templates {
		dateFormat := t.DateFormat
		if dateFormat == "" {
			dateFormat = noValue
		}
		rows = append(rows, []string{
			t.Provider,
			fmt.Sprintf("%d", len(t.FieldMappings)),
			fmt.Sprintf("%d", t.UsageCount),
			FormatConfidence(t.SuccessRate),
			dateFormat,
			t.UpdatedAt.Format(templateTimestamp),
		})
	}
	return renderTable(rows)
}

// RenderTemplate renders one template with its learned entries.
func RenderTemplate(t *model.Template) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Provider:"), t.Provider)
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Context:"), t.Context)
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("ID:"), SubtleStyle.Render(t.ID))
	fmt.Fprintf(&b, "%s %d  %s %s\n", BoldStyle.Render("Used:"), t.UsageCount,
		BoldStyle.Render("Success:"), FormatConfidence(t.SuccessRate))
	if t.DateFormat != "" {
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Date format:"), t.DateFormat)
	}
	if t.Frequency != "" {
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Frequency:"), t.Frequency)
	}
	b.WriteString("\n")

	rows := [][]string{{"Field", "Column", "Confidence", "Confirmed"}}
	for _, fm := range t.FieldMappings {
		rows = append(rows, []string{
			string(fm.MappedField),
			fm.OriginalHeader,
			FormatConfidence(fm.Confidence),
			fmt.Sprintf("%d/%d", fm.SuccessCount, fm.TotalAttempts),
		})
	}
	b.WriteString(renderTable(rows))
	return b.String()
}
