// Package extract turns statement files into a header list and raw rows.
// Every format renders cells as strings; typing happens downstream.
package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Veraticus/statement-mapper/internal/model"
)

// Extraction errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported statement format")
	ErrEmptyFile         = errors.New("statement file is empty")
	ErrNoHeaders         = errors.New("could not find a header row")
)

// Source names reported in Extraction.Source.
const (
	SourceCSV  = "csv"
	SourceXLSX = "xlsx"
	SourceOFX  = "ofx"
	SourceText = "text"
)

// Stage identifies a step of an extraction for progress reporting.
type Stage string

// Extraction stages.
const (
	StageReading Stage = "reading"
	StageParsing Stage = "parsing"
	StageDone    Stage = "done"
)

// Progress is one progress update.
type Progress struct {
	Stage   Stage
	Message string
	Percent int
}

// ProgressFunc receives progress updates. A nil ProgressFunc is valid.
type ProgressFunc func(Progress)

func (f ProgressFunc) report(stage Stage, percent int, format string, args ...any) {
	if f == nil {
		return
	}
	f(Progress{Stage: stage, Percent: percent, Message: fmt.Sprintf(format, args...)})
}

// Stats counts what an extractor saw.
type Stats struct {
	TotalLines  int
	ParsedRows  int
	SkippedRows int
}

// Extraction is the result of reading one statement file.
type Extraction struct {
	Source  string
	Headers []string
	Rows    []model.RawRow
	Stats   Stats
	// Quality is the share of candidate lines that became rows, 0-100.
	Quality int
}

// Extractor reads a statement file into rows.
type Extractor interface {
	ExtractRows(ctx context.Context, path string, progress ProgressFunc) (*Extraction, error)
}

// Option configures ForPath.
type Option func(*options)

type options struct {
	textSource TextSource
	sheetIndex int
}

// WithTextSource overrides how PDF text is obtained.
func WithTextSource(source TextSource) Option {
	return func(o *options) {
		o.textSource = source
	}
}

// WithSheetIndex selects the worksheet read from workbooks.
func WithSheetIndex(index int) Option {
	return func(o *options) {
		o.sheetIndex = index
	}
}

// ForPath chooses an extractor from the file extension.
func ForPath(path string, opts ...Option) (Extractor, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv":
		return NewCSVExtractor(), nil
	case ".xlsx", ".xlsm":
		return NewXLSXExtractor(o.sheetIndex), nil
	case ".ofx", ".qfx":
		return NewOFXExtractor(), nil
	case ".txt":
		return NewTextExtractor(PlainText{}), nil
	case ".pdf":
		source := o.textSource
		if source == nil {
			source = NewPdfToText("")
		}
		return NewTextExtractor(source), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// SupportedExtensions lists the extensions ForPath accepts.
func SupportedExtensions() []string {
	return []string{".csv", ".tsv", ".xlsx", ".xlsm", ".ofx", ".qfx", ".txt", ".pdf"}
}

// normalizeHeaders trims header cells, drops trailing blanks, names blank
// columns by position and makes duplicates unique.
func normalizeHeaders(raw []string) []string {
	end := len(raw)
	for end > 0 && strings.TrimSpace(raw[end-1]) == "" {
		end--
	}

	headers := make([]string, end)
	seen := make(map[string]int, end)
	for i := 0; i < end; i++ {
		h := strings.TrimSpace(strings.TrimPrefix(raw[i], "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		headers[i] = h
	}
	return headers
}

// buildRow pairs cells with headers. Missing cells are empty and extra
// cells are dropped. It reports false for an all-blank record.
func buildRow(headers, cells []string) (model.RawRow, bool) {
	row := make(model.RawRow, len(headers))
	blank := true
	for i, h := range headers {
		var v string
		if i < len(cells) {
			v = strings.TrimSpace(cells[i])
		}
		if v != "" {
			blank = false
		}
		row[h] = v
	}
	return row, !blank
}

func quality(parsed, candidates int) int {
	if candidates == 0 {
		return 0
	}
	return int(math.Round(100 * float64(parsed) / float64(candidates)))
}

func percent(done, total int) int {
	if total == 0 {
		return 100
	}
	return min(100, done*100/total)
}
