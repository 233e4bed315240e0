package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Statement")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			cell := row.AddCell()
			cell.SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "statement.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestXLSXExtractor_FirstNonEmptyRowIsHeader(t *testing.T) {
	path := createTestXLSX(t, [][]string{
		{"", ""},
		{"Date", "Account", "Balance"},
		{"31/03/2024", "Easy Saver", "1,000.00"},
		{"", "", ""},
		{"30/04/2024", "Easy Saver", "1,004.10"},
	})

	got, err := NewXLSXExtractor(0).ExtractRows(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, SourceXLSX, got.Source)
	assert.Equal(t, []string{"Date", "Account", "Balance"}, got.Headers)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "1,004.10", got.Rows[1]["Balance"])
	assert.Equal(t, Stats{TotalLines: 3, ParsedRows: 2, SkippedRows: 1}, got.Stats)
	assert.Equal(t, 67, got.Quality)
}

func TestXLSXExtractor_Errors(t *testing.T) {
	t.Run("sheet out of range", func(t *testing.T) {
		path := createTestXLSX(t, [][]string{{"Date"}, {"01/04/2024"}})
		_, err := NewXLSXExtractor(3).ExtractRows(context.Background(), path, nil)
		assert.Error(t, err)
	})

	t.Run("blank sheet", func(t *testing.T) {
		path := createTestXLSX(t, [][]string{{"", ""}})
		_, err := NewXLSXExtractor(0).ExtractRows(context.Background(), path, nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("not a workbook", func(t *testing.T) {
		path := writeFile(t, "fake.xlsx", "Date,Amount\n")
		_, err := NewXLSXExtractor(0).ExtractRows(context.Background(), path, nil)
		assert.Error(t, err)
	})
}
