package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader_ReadLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "successful read", input: "test input\n", expected: "test input"},
		{name: "read with extra whitespace", input: "  test input  \n", expected: "test input"},
		{name: "empty line", input: "\n", expected: ""},
		{name: "windows line ending", input: "accept\r\n", expected: "accept"},
		{name: "unterminated final line", input: "last", expected: "last"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewLineReader(strings.NewReader(tt.input))
			got, err := r.ReadLine(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLineReader_EOF(t *testing.T) {
	r := NewLineReader(strings.NewReader("only\n"))
	ctx := context.Background()

	line, err := r.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "only", line)

	_, err = r.ReadLine(ctx)
	assert.ErrorIs(t, err, io.EOF)

	_, err = r.ReadLine(ctx)
	assert.ErrorIs(t, err, io.EOF, "reads after EOF keep reporting EOF")
}

func TestLineReader_ContextCancellation(t *testing.T) {
	t.Run("immediate cancellation", func(t *testing.T) {
		r := NewLineReader(strings.NewReader("ignored\n"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.ReadLine(ctx)
		assert.ErrorIs(t, err, ErrInputCancelled)
	})

	t.Run("cancellation during read keeps the line", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer func() { _ = pr.Close() }()

		r := NewLineReader(pr)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := r.ReadLine(ctx)
		assert.ErrorIs(t, err, ErrInputCancelled)

		go func() {
			_, _ = pw.Write([]byte("late answer\n"))
		}()
		line, err := r.ReadLine(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "late answer", line)
		_ = pw.Close()
	})
}

func TestLineReader_MultipleReads(t *testing.T) {
	r := NewLineReader(strings.NewReader("line1\nline2\nline3\n"))
	ctx := context.Background()

	for _, want := range []string{"line1", "line2", "line3"} {
		got, err := r.ReadLine(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
