package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/tealeg/xlsx/v2"
)

// XLSXExtractor reads one worksheet of an Excel workbook. The first
// non-empty row is the header.
type XLSXExtractor struct {
	sheetIndex int
}

// NewXLSXExtractor creates an extractor for the sheet at sheetIndex.
func NewXLSXExtractor(sheetIndex int) *XLSXExtractor {
	return &XLSXExtractor{sheetIndex: sheetIndex}
}

// ExtractRows implements Extractor.
func (e *XLSXExtractor) ExtractRows(ctx context.Context, path string, progress ProgressFunc) (*Extraction, error) {
	progress.report(StageReading, 0, "opening %s", path)

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	if len(f.Sheets) == 0 {
		return nil, ErrEmptyFile
	}
	if e.sheetIndex < 0 || e.sheetIndex >= len(f.Sheets) {
		return nil, fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", e.sheetIndex, len(f.Sheets))
	}
	sheet := f.Sheets[e.sheetIndex]

	result := &Extraction{Source: SourceXLSX}
	total := len(sheet.Rows)

	for i, row := range sheet.Rows {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("extraction cancelled: %w", err)
			}
			progress.report(StageParsing, percent(i, total), "read %d of %d rows", i, total)
		}

		cells := rowToStrings(row)
		if result.Headers == nil {
			if isBlankRecord(cells) {
				continue
			}
			result.Headers = normalizeHeaders(cells)
			continue
		}

		result.Stats.TotalLines++
		record, ok := buildRow(result.Headers, cells)
		if !ok {
			result.Stats.SkippedRows++
			continue
		}
		result.Rows = append(result.Rows, record)
		result.Stats.ParsedRows++
	}

	if result.Headers == nil {
		return nil, ErrEmptyFile
	}

	result.Quality = quality(result.Stats.ParsedRows, result.Stats.TotalLines)
	progress.report(StageDone, 100, "extracted %d rows from sheet %q", result.Stats.ParsedRows, sheet.Name)
	return result, nil
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = cell.String()
	}
	return cells
}

func isBlankRecord(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
