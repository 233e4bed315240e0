package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Veraticus/statement-mapper/internal/model"
)

// Headers produced for text statements.
const (
	TextHeaderDate        = "Date"
	TextHeaderDescription = "Description"
	TextHeaderAmount      = "Amount"
	TextHeaderBalance     = "Balance"
)

const (
	dateToken   = `\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}|\d{4}-\d{2}-\d{2}|\d{1,2}(?:st|nd|rd|th)?\s+[A-Za-z]{3,9}\.?\s+\d{2,4}`
	amountToken = `\(?-?[£$€]?-?\d{1,3}(?:,?\d{3})*\.\d{2}\)?(?:\s?(?:CR|DR))?`
)

var leadingDateRegex = regexp.MustCompile(`^\s*(?:` + dateToken + `)\b`)

var statementLineRegex = regexp.MustCompile(
	`^\s*(` + dateToken + `)\s+(.+?)\s+(` + amountToken + `)(?:\s+(` + amountToken + `))?\s*$`)

// TextSource produces plain text for a document.
type TextSource interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// PdfToText extracts text from PDFs with the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText source. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText runs pdftotext -layout on the given PDF and returns stdout.
func (p *PdfToText) ExtractText(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", path, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed for %s: %s: %w", path, strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

// PlainText reads a text file as-is.
type PlainText struct{}

// ExtractText implements TextSource.
func (PlainText) ExtractText(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// TextExtractor finds statement lines in unstructured text. A statement
// line starts with a date and ends with an amount, optionally followed by
// a running balance.
type TextExtractor struct {
	source TextSource
}

// NewTextExtractor creates a text extractor over a text source.
func NewTextExtractor(source TextSource) *TextExtractor {
	return &TextExtractor{source: source}
}

// ExtractRows implements Extractor. Lines that start with a date but do not
// fit the statement line shape count against Quality.
func (e *TextExtractor) ExtractRows(ctx context.Context, path string, progress ProgressFunc) (*Extraction, error) {
	progress.report(StageReading, 0, "extracting text from %s", path)

	text, err := e.source.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	result := &Extraction{
		Source:  SourceText,
		Headers: []string{TextHeaderDate, TextHeaderDescription, TextHeaderAmount, TextHeaderBalance},
	}

	for i, line := range lines {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("extraction cancelled: %w", err)
			}
			progress.report(StageParsing, percent(i, len(lines)), "scanned %d lines", i)
		}

		if !leadingDateRegex.MatchString(line) {
			continue
		}
		result.Stats.TotalLines++

		row, ok := parseStatementLine(line)
		if !ok {
			result.Stats.SkippedRows++
			continue
		}
		result.Rows = append(result.Rows, row)
		result.Stats.ParsedRows++
	}

	result.Quality = quality(result.Stats.ParsedRows, result.Stats.TotalLines)
	progress.report(StageDone, 100, "extracted %d rows", result.Stats.ParsedRows)
	return result, nil
}

func parseStatementLine(line string) (model.RawRow, bool) {
	m := statementLineRegex.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	return model.RawRow{
		TextHeaderDate:        strings.TrimSpace(m[1]),
		TextHeaderDescription: strings.Join(strings.Fields(m[2]), " "),
		TextHeaderAmount:      strings.TrimSpace(m[3]),
		TextHeaderBalance:     strings.TrimSpace(m[4]),
	}, true
}
