package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"projectsummarizer.dev/cli/internal/config"
	"projectsummarizer.dev/cli/internal/plugins"
	"projectsummarizer.dev/cli/internal/render"
	"projectsummarizer.dev/cli/internal/summary"
)

const (
	minimumDisplayColumns = 50
	maximumDisplayColumns = 200

	// unsetColumns lets the console decide the table width.
	unsetColumns = -1
)

// summarizer holds one invocation of the command.
type summarizer struct {
	manager *plugins.Manager
	cfg     *config.Config
	log     *logrus.Logger
	argv    []string
	stdout  io.Writer

	args        *plugins.Arguments
	reportDir   string
	publishDir  string
	onlyChanges bool
	publish     bool
	quiet       bool
	columns     string
}

func (s *summarizer) run(cmd *cobra.Command) error {
	columns, err := s.validate(cmd)
	if err != nil {
		return err
	}

	values := s.args.Values()
	if !s.publish && !s.manager.FindAnyPluginsArguments(values) {
		fmt.Fprintln(s.stdout, "Error: Either --publish or one of the reporting arguments mush be specified.")
		if err := cmd.Help(); err != nil {
			return err
		}
		return &exitError{code: 2}
	}

	ctx := summary.NewContext(s.reportDir, s.publishDir, s.stdout)
	if err := s.manager.SetContext(ctx); err != nil {
		return err
	}

	if s.publish {
		return s.publishSummaries(ctx)
	}
	return s.createSummaries(values, columns)
}

// validate checks the directory and column arguments. The report directory
// is checked even when it was left at its default.
func (s *summarizer) validate(cmd *cobra.Command) (int, error) {
	if err := verifyDirectoryExists(s.reportDir); err != nil {
		return 0, &usageError{cmd: cmd, flag: "--report-dir", err: err}
	}
	if s.publishDir != "" {
		if err := verifyDirectoryExists(s.publishDir); err != nil {
			return 0, &usageError{cmd: cmd, flag: "--publish-dir", err: err}
		}
	}

	if !cmd.Flags().Changed("columns") {
		return unsetColumns, nil
	}
	columns, err := verifyDisplayColumns(s.columns)
	if err != nil {
		return 0, &usageError{cmd: cmd, flag: "--columns", err: err}
	}
	return columns, nil
}

func verifyDirectoryExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("Path '%s' does not exist.", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("Path '%s' is not an existing directory.", path)
	}
	return nil
}

func verifyDisplayColumns(value string) (int, error) {
	columns, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || columns < minimumDisplayColumns || columns > maximumDisplayColumns {
		return 0, fmt.Errorf("Value '%s' is not an integer between between %d and %d.",
			value, minimumDisplayColumns, maximumDisplayColumns)
	}
	return columns, nil
}

// publishSummaries copies every existing summary file into the publish
// directory, creating the directory when needed.
func (s *summarizer) publishSummaries(ctx *summary.Context) error {
	paths, err := s.manager.GetOutputPaths()
	if err != nil {
		return err
	}

	info, err := os.Stat(ctx.PublishDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintf(s.stdout, "Publish directory '%s' does not exist.  Creating.\n", ctx.PublishDir)
		if err := os.MkdirAll(ctx.PublishDir, 0o755); err != nil {
			return fmt.Errorf("failed to create publish directory: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to check publish directory: %w", err)
	case !info.IsDir():
		return plugins.Abort("Publish directory '%s' already exists, but as a file.", ctx.PublishDir)
	}

	for _, path := range paths {
		if err := s.publishFile(path, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *summarizer) publishFile(path string, ctx *summary.Context) error {
	if _, err := os.Stat(path); err != nil {
		s.log.Debugf("Skipping %s, nothing to publish", path)
		return nil
	}

	publishPath := ctx.PublishedPath(path)
	if err := copyFile(path, publishPath); err != nil {
		return plugins.Abort("Publishing file '%s' failed (%v).", path, err)
	}
	fmt.Fprintf(s.stdout, "Published: %s\n", publishPath)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// createSummaries walks the command line in order and generates a report
// for every plugin flag on it.
func (s *summarizer) createSummaries(values map[string]string, columns int) error {
	columnWidth := columns
	if s.quiet {
		columnWidth = 0
	}
	tableWidth := columns
	if columns == unsetColumns {
		tableWidth = 0
		if f, ok := s.stdout.(*os.File); ok {
			tableWidth = render.TerminalWidth(f)
		}
	}

	for _, token := range s.argv {
		table, err := s.manager.GenerateReport(flagName(token), values, s.onlyChanges, columnWidth)
		if err != nil {
			return err
		}
		if table.Empty() {
			continue
		}
		if err := render.Table(s.stdout, table, tableWidth); err != nil {
			return err
		}
	}
	return nil
}

// flagName strips an inline value from a long flag token.
func flagName(token string) string {
	if !strings.HasPrefix(token, "--") {
		return token
	}
	name, _, _ := strings.Cut(token, "=")
	return name
}
