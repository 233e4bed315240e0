package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/statement-mapper/internal/catalog"
	"github.com/Veraticus/statement-mapper/internal/ingest"
	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/pattern"
)

// ErrInputTerminated is returned when input ends before the review does.
var ErrInputTerminated = errors.New("input terminated")

// Reviewer walks the user through a proposed mapping on a terminal.
type Reviewer struct {
	catalog *catalog.Catalog
	reader  *LineReader
	writer  io.Writer
}

// NewReviewer creates a terminal reviewer. Nil reader and writer default to
// stdin and stdout.
func NewReviewer(c *catalog.Catalog, reader io.Reader, writer io.Writer) *Reviewer {
	if c == nil {
		c = catalog.Default()
	}
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Reviewer{
		catalog: c,
		reader:  NewLineReader(reader),
		writer:  writer,
	}
}

type reviewState struct {
	analysis   *ingest.Analysis
	mapping    model.FieldMapping
	provider   string
	dateFormat string
}

// Review implements ingest.Reviewer.
func (r *Reviewer) Review(ctx context.Context, analysis *ingest.Analysis) (*ingest.Review, error) {
	state := &reviewState{
		analysis:   analysis,
		mapping:    analysis.Mapping.Mapping.Clone(),
		provider:   analysis.Provider.Provider,
		dateFormat: analysis.Patterns.DateFormat,
	}
	if !analysis.Provider.IsKnown() {
		state.provider = ""
	}

	if _, err := fmt.Fprintln(r.writer, RenderBox("Review Mapping", RenderAnalysis(analysis))); err != nil {
		return nil, fmt.Errorf("failed to write analysis: %w", err)
	}

	for {
		if err := r.printOptions(); err != nil {
			return nil, err
		}

		choice, err := r.promptChoice(ctx, "Choice [A/E/R/P/D/Q]", []string{"a", "e", "r", "p", "d", "q"})
		if err != nil {
			return nil, err
		}

		switch choice {
		case "a":
			if len(state.mapping) == 0 {
				r.println(FormatError("Map at least one field before accepting."))
				continue
			}
			if state.provider == "" {
				r.println(FormatWarning("No provider set; this mapping will not be learned."))
			}
			return &ingest.Review{
				Mapping:    state.mapping,
				Provider:   state.provider,
				DateFormat: state.dateFormat,
				Accepted:   true,
			}, nil
		case "e":
			err = r.editField(ctx, state)
		case "r":
			err = r.removeField(ctx, state)
		case "p":
			err = r.setProvider(ctx, state)
		case "d":
			err = r.setDateFormat(ctx, state)
		case "q":
			r.println(FormatWarning("Import cancelled."))
			return &ingest.Review{Accepted: false}, nil
		}
		if err != nil {
			return nil, err
		}

		r.println("\n" + RenderMapping(state.mapping, state.analysis.Mapping.ConfidenceScores, state.analysis.Mapping.Methods))
	}
}

func (r *Reviewer) printOptions() error {
	options := []string{
		"",
		FormatPrompt("Options:"),
		"  [A] Accept mapping",
		"  [E] Assign a field to a column",
		"  [R] Remove a field",
		"  [P] Set provider",
		"  [D] Set date format",
		"  [Q] Quit without importing",
		"",
	}
	for _, line := range options {
		if _, err := fmt.Fprintln(r.writer, line); err != nil {
			return fmt.Errorf("failed to write options: %w", err)
		}
	}
	return nil
}

func (r *Reviewer) editField(ctx context.Context, state *reviewState) error {
	specs := r.catalog.Fields(state.analysis.Upload.Context)
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		label := string(spec.Key())
		if spec.Required {
			label += " (required)"
		}
		names = append(names, label)
	}
	idx, err := r.promptIndex(ctx, "Field", names)
	if err != nil {
		return err
	}
	field := specs[idx].Key()

	headers := state.analysis.Upload.Headers
	idx, err = r.promptIndex(ctx, "Column", headers)
	if err != nil {
		return err
	}
	header := headers[idx]

	if previous, ok := state.mapping.FieldFor(header); ok && previous != field {
		delete(state.mapping, previous)
		r.println(FormatInfo(fmt.Sprintf("%s is no longer mapped.", previous)))
	}
	state.mapping[field] = header
	r.println(FormatSuccess(fmt.Sprintf("%s → %s", field, header)))
	return nil
}

func (r *Reviewer) removeField(ctx context.Context, state *reviewState) error {
	fields := state.mapping.Fields()
	if len(fields) == 0 {
		r.println(FormatError("No fields are mapped."))
		return nil
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, fmt.Sprintf("%s (%s)", f, state.mapping[f]))
	}
	idx, err := r.promptIndex(ctx, "Field to remove", names)
	if err != nil {
		return err
	}
	delete(state.mapping, fields[idx])
	r.println(FormatSuccess(fmt.Sprintf("Removed %s", fields[idx])))
	return nil
}

func (r *Reviewer) setProvider(ctx context.Context, state *reviewState) error {
	for {
		input, err := r.prompt(ctx, "Provider name")
		if err != nil {
			return err
		}
		if input == "" {
			r.println(FormatError("Provider cannot be empty. Please try again."))
			continue
		}
		state.provider = input
		return nil
	}
}

func (r *Reviewer) setDateFormat(ctx context.Context, state *reviewState) error {
	formats := pattern.Formats()
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name)
	}
	idx, err := r.promptIndex(ctx, "Date format", names)
	if err != nil {
		return err
	}
	state.dateFormat = formats[idx].Name
	return nil
}

// promptIndex lists options and reads a 1-based choice, or an option typed
// out in full.
func (r *Reviewer) promptIndex(ctx context.Context, prompt string, options []string) (int, error) {
	for i, opt := range options {
		r.println(fmt.Sprintf("  %2d. %s", i+1, opt))
	}
	for {
		input, err := r.prompt(ctx, prompt)
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		for i, opt := range options {
			if strings.EqualFold(opt, input) || strings.EqualFold(strings.SplitN(opt, " (", 2)[0], input) {
				return i, nil
			}
		}
		r.println(FormatError("Invalid choice. Please try again."))
	}
}

func (r *Reviewer) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		input, err := r.prompt(ctx, prompt)
		if err != nil {
			return "", err
		}
		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}
		r.println(FormatError("Invalid choice. Please try again."))
	}
}

func (r *Reviewer) prompt(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(r.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	input, err := r.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", ErrInputTerminated
	}
	return input, err
}

func (r *Reviewer) println(text string) {
	if _, err := fmt.Fprintln(r.writer, text); err != nil {
		slog.Warn("Failed to write review output", "error", err)
	}
}

var _ ingest.Reviewer = (*Reviewer)(nil)
