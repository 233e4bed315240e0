package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when a read is abandoned because the
// context ended.
var ErrInputCancelled = errors.New("input canceled")

type line struct {
	err  error
	text string
}

// LineReader reads trimmed lines from an input while honouring context
// cancellation. A single goroutine owns the underlying reader, so a read
// abandoned on cancellation is delivered to the next ReadLine instead of
// being lost.
type LineReader struct {
	reader *bufio.Reader
	lines  chan line
	once   sync.Once
}

// NewLineReader creates a line reader over r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		reader: bufio.NewReader(r),
		lines:  make(chan line),
	}
}

func (r *LineReader) start() {
	go func() {
		for {
			text, err := r.reader.ReadString('\n')
			if err != nil && text != "" && errors.Is(err, io.EOF) {
				// A final unterminated line is still a line.
				r.lines <- line{text: text}
				text = ""
			}
			r.lines <- line{text: text, err: err}
			if err != nil {
				close(r.lines)
				return
			}
		}
	}()
}

// ReadLine returns the next line with surrounding whitespace removed.
// It returns io.EOF once the input is exhausted.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	r.once.Do(r.start)

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case l, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}
