package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"projectsummarizer.dev/cli/internal/plugins"
)

// usageError is a command line the parser rejected. It exits with code 2.
type usageError struct {
	cmd  *cobra.Command
	flag string
	err  error
}

func (e *usageError) Error() string {
	if e.flag != "" {
		return fmt.Sprintf("argument %s: %v", e.flag, e.err)
	}
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

// exitError ends the run with code after its output was already written.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// reporter writes failures and maps them to exit codes.
type reporter struct {
	stdout    io.Writer
	stderr    io.Writer
	showStack bool
	errStyle  lipgloss.Style
}

func newReporter(stdout, stderr io.Writer, showStack bool) *reporter {
	return &reporter{
		stdout:    stdout,
		stderr:    stderr,
		showStack: showStack,
		errStyle:  lipgloss.NewRenderer(stderr).NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// failLoading reports an error raised while the plugins were loaded.
func (r *reporter) failLoading(err error) int {
	var pluginErr *plugins.PluginError
	if errors.As(err, &pluginErr) {
		fmt.Fprintln(r.stderr, r.errStyle.Render("BadPluginError encountered while loading plugins:"))
	}
	return r.fail(err)
}

func (r *reporter) fail(err error) int {
	var (
		exit      *exitError
		usage     *usageError
		abort     *plugins.AbortError
		pluginErr *plugins.PluginError
	)
	switch {
	case errors.As(err, &exit):
		return exit.code
	case errors.As(err, &usage):
		if usage.cmd != nil {
			fmt.Fprint(r.stderr, usage.cmd.UsageString())
			fmt.Fprintf(r.stderr, "%s: error: %s\n", usage.cmd.Name(), usage.Error())
		} else {
			fmt.Fprintf(r.stderr, "error: %s\n", usage.Error())
		}
		return 2
	case errors.As(err, &abort):
		fmt.Fprintln(r.stdout, abort.Message)
		if abort.ExitCode == 0 {
			return 1
		}
		return abort.ExitCode
	case errors.As(err, &pluginErr):
		fmt.Fprintln(r.stderr, r.errStyle.Render(pluginErr.Error()))
		if r.showStack {
			fmt.Fprintf(r.stderr, "%+v\n", pluginErr)
		}
		return 1
	default:
		fmt.Fprintln(r.stderr, r.errStyle.Render("Error: "+err.Error()))
		return 1
	}
}
