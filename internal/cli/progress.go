package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/statement-mapper/internal/extract"
)

// ExtractionProgress draws extraction progress as a terminal progress bar.
type ExtractionProgress struct {
	bar     *progressbar.ProgressBar
	writer  io.Writer
	current int
}

// NewExtractionProgress creates a progress bar for reading one file.
func NewExtractionProgress(writer io.Writer, fileName string) *ExtractionProgress {
	if writer == nil {
		writer = os.Stderr
	}
	p := &ExtractionProgress{writer: writer}
	p.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]Reading %s...[reset]", fileName)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Func returns the callback to hand to an extractor.
func (p *ExtractionProgress) Func() extract.ProgressFunc {
	return p.Update
}

// Update moves the bar to the reported percentage. Progress never moves
// backwards.
func (p *ExtractionProgress) Update(progress extract.Progress) {
	target := min(max(progress.Percent, 0), 100)
	if progress.Stage == extract.StageDone {
		target = 100
	}
	if target <= p.current {
		return
	}
	if err := p.bar.Add(target - p.current); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	p.current = target
}

// Finish completes the bar if the extractor stopped early.
func (p *ExtractionProgress) Finish() {
	if p.current >= 100 {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
	p.current = 100
}
