package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const headerSearchLines = 20

// headerKeywords mark a likely header row in files with a metadata preamble.
var headerKeywords = []string{
	"date", "description", "details", "amount", "debit", "credit", "balance",
	"reference", "payment", "contribution", "transaction", "value", "paid",
	"money in", "money out", "units", "price", "fund", "interest",
}

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// CSVExtractor reads delimited text files. The delimiter and the header row
// are detected from the first lines of the file.
type CSVExtractor struct{}

// NewCSVExtractor creates a delimited-text extractor.
func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{}
}

// ExtractRows implements Extractor.
func (e *CSVExtractor) ExtractRows(ctx context.Context, path string, progress ProgressFunc) (*Extraction, error) {
	progress.report(StageReading, 0, "reading %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(text, "\n")
	delimiter := sniffDelimiter(lines)
	headerIdx := findHeaderRow(lines, delimiter)

	slog.Debug("sniffed delimited file",
		"path", path,
		"delimiter", string(delimiter),
		"header_line", headerIdx+1)

	reader := csv.NewReader(strings.NewReader(strings.Join(lines[headerIdx:], "\n")))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	// Leading-space trimming would swallow empty tab-separated fields.
	reader.TrimLeadingSpace = delimiter != '\t'

	rawHeaders, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoHeaders, err)
	}
	headers := normalizeHeaders(rawHeaders)
	if len(headers) == 0 {
		return nil, ErrNoHeaders
	}

	dataLines := len(lines) - headerIdx - 1
	result := &Extraction{Source: SourceCSV, Headers: headers}

	for {
		if result.Stats.TotalLines%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("extraction cancelled: %w", err)
			}
			progress.report(StageParsing, percent(result.Stats.TotalLines, dataLines),
				"parsed %d rows", result.Stats.ParsedRows)
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		result.Stats.TotalLines++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			slog.Debug("skipping malformed line", "line", headerIdx+parseErr.Line, "error", parseErr.Err)
			result.Stats.SkippedRows++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		row, ok := buildRow(headers, record)
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

// sniffDelimiter picks the candidate that splits the sampled lines into the
// same number of fields most often. Comma wins when nothing splits.
func sniffDelimiter(lines []string) rune {
	sample := nonBlank(lines, headerSearchLines)

	best, bestLines, bestFields := ',', 0, 0
	for _, d := range candidateDelimiters {
		counts := make(map[int]int)
		for _, line := range sample {
			if n := len(splitLine(line, d)); n > 1 {
				counts[n]++
			}
		}
		for fields, hits := range counts {
			if hits > bestLines || (hits == bestLines && fields > bestFields) {
				best, bestLines, bestFields = d, hits, fields
			}
		}
	}
	return best
}

// findHeaderRow returns the index of the header line within the first
// lines of the file. The header is the first line with the most common
// field count that names a known column; failing that, the first line with
// the most common field count.
func findHeaderRow(lines []string, delimiter rune) int {
	limit := min(len(lines), headerSearchLines)

	counts := make(map[int]int)
	fieldsAt := make([][]string, limit)
	for i := 0; i < limit; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		fieldsAt[i] = splitLine(lines[i], delimiter)
		counts[len(fieldsAt[i])]++
	}

	modal, modalHits := 0, 0
	for fields, hits := range counts {
		if hits > modalHits || (hits == modalHits && fields > modal) {
			modal, modalHits = fields, hits
		}
	}

	first := -1
	for i := 0; i < limit; i++ {
		if modal == 0 || len(fieldsAt[i]) < modal {
			continue
		}
		if hasHeaderKeyword(fieldsAt[i]) {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return max(first, 0)
}

func hasHeaderKeyword(fields []string) bool {
	for _, f := range fields {
		lower := strings.ToLower(strings.TrimSpace(f))
		if lower == "" || looksNumeric(lower) {
			continue
		}
		for _, kw := range headerKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func looksNumeric(s string) bool {
	s = strings.TrimLeft(s, "-+£$€")
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' && r != '/' && r != '-' {
			return false
		}
	}
	return true
}

// splitLine splits one line, honouring quotes.
func splitLine(line string, delimiter rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		return strings.Split(line, string(delimiter))
	}
	return fields
}

func nonBlank(lines []string, limit int) []string {
	var out []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}
