package reports

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"projectsummarizer.dev/cli/internal/summary"
)

var errNoContext = errors.New("the summarize context has not been set")

// Base handles the context for a report plugin writing one summary file
// into the report directory.
type Base struct {
	outputFile string
	ctx        *summary.Context
	outputPath string
}

// NewBase creates a Base for the summary file named outputFile.
func NewBase(outputFile string) Base {
	return Base{outputFile: outputFile}
}

// SetContext keeps ctx and computes the output path from it.
func (b *Base) SetContext(ctx *summary.Context) error {
	if ctx == nil {
		return errNoContext
	}
	b.ctx = ctx
	b.outputPath = filepath.Join(ctx.ReportDir, b.outputFile)
	return nil
}

// GetOutputPath returns the summary file path, empty before SetContext.
func (b *Base) GetOutputPath() (string, error) {
	return b.outputPath, nil
}

// PublishedPath returns where the published copy of the summary lives.
func (b *Base) PublishedPath() (string, error) {
	if b.ctx == nil {
		return "", errNoContext
	}
	return b.ctx.PublishedPath(b.outputPath), nil
}

// Printf writes to the context output.
func (b *Base) Printf(format string, args ...any) {
	fmt.Fprintf(b.output(), format, args...)
}

func (b *Base) output() io.Writer {
	if b.ctx == nil || b.ctx.Output == nil {
		return io.Discard
	}
	return b.ctx.Output
}
