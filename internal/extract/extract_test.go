package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/statement-mapper/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestForPath(t *testing.T) {
	tests := []struct {
		want    any
		wantErr error
		path    string
	}{
		{path: "statement.csv", want: &CSVExtractor{}},
		{path: "STATEMENT.TSV", want: &CSVExtractor{}},
		{path: "book.xlsx", want: &XLSXExtractor{}},
		{path: "download.qfx", want: &OFXExtractor{}},
		{path: "download.ofx", want: &OFXExtractor{}},
		{path: "scan.txt", want: &TextExtractor{}},
		{path: "scan.pdf", want: &TextExtractor{}},
		{path: "legacy.xls", wantErr: ErrUnsupportedFormat},
		{path: "noextension", wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ForPath(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestForPath_WithTextSource(t *testing.T) {
	source := fakeSource{text: "01/04/2024 Payment 10.00"}
	got, err := ForPath("scan.pdf", WithTextSource(source))
	require.NoError(t, err)

	text, ok := got.(*TextExtractor)
	require.True(t, ok)
	assert.Equal(t, source, text.source)
}

func TestForPath_WithSheetIndex(t *testing.T) {
	got, err := ForPath("book.xlsx", WithSheetIndex(2))
	require.NoError(t, err)

	book, ok := got.(*XLSXExtractor)
	require.True(t, ok)
	assert.Equal(t, 2, book.sheetIndex)
}

func TestNormalizeHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{
			name: "trims cells",
			raw:  []string{" Date ", "Amount\t"},
			want: []string{"Date", "Amount"},
		},
		{
			name: "drops trailing blanks",
			raw:  []string{"Date", "Amount", "", " "},
			want: []string{"Date", "Amount"},
		},
		{
			name: "names inner blanks by position",
			raw:  []string{"Date", "", "Amount"},
			want: []string{"Date", "Column 2", "Amount"},
		},
		{
			name: "makes duplicates unique",
			raw:  []string{"Amount", "Amount", "Amount"},
			want: []string{"Amount", "Amount (2)", "Amount (3)"},
		},
		{
			name: "strips byte order mark",
			raw:  []string{"\ufeffDate", "Amount"},
			want: []string{"Date", "Amount"},
		},
		{
			name: "all blank",
			raw:  []string{"", ""},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeHeaders(tt.raw))
		})
	}
}

func TestBuildRow(t *testing.T) {
	headers := []string{"Date", "Amount", "Balance"}

	row, ok := buildRow(headers, []string{"01/04/2024", " 10.00 "})
	require.True(t, ok)
	assert.Equal(t, model.RawRow{"Date": "01/04/2024", "Amount": "10.00", "Balance": ""}, row)

	row, ok = buildRow(headers, []string{"01/04/2024", "10.00", "100.00", "extra"})
	require.True(t, ok)
	assert.Len(t, row, 3)

	_, ok = buildRow(headers, []string{"", " ", ""})
	assert.False(t, ok)
}

func TestQuality(t *testing.T) {
	assert.Equal(t, 0, quality(0, 0))
	assert.Equal(t, 100, quality(4, 4))
	assert.Equal(t, 67, quality(2, 3))
}
