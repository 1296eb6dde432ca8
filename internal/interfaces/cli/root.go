package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"projectsummarizer.dev/cli/internal/config"
	"projectsummarizer.dev/cli/internal/plugins"
	_ "projectsummarizer.dev/cli/internal/reports/cobertura"
	_ "projectsummarizer.dev/cli/internal/reports/junit"
)

var (
	Version   = "0.5.0"   // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

const stackTraceFlag = "--stack-trace"

// Execute runs the summarizer with the process arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run loads the plugins, parses argv and either publishes the summaries or
// generates the reports named on the command line. It returns the exit code.
func Run(argv []string, stdout, stderr io.Writer) int {
	out := newReporter(stdout, stderr, stackTraceRequested(argv))

	cfg, err := config.Load("")
	if err != nil {
		return out.fail(err)
	}
	log := newLogger(stderr, cfg.LogLevel)
	if cfg.Path != "" {
		log.Debugf("Loaded configuration from %s", cfg.Path)
	}

	manager := plugins.NewManager(plugins.ManagerConfig{
		Plugins: cfg.Plugins,
		Logger:  log,
	})
	defer func() {
		if err := manager.Close(); err != nil {
			log.Warnf("Failed to stop plugins: %v", err)
		}
	}()

	remaining, err := manager.InitializePlugins(argv)
	if err != nil {
		return out.failLoading(err)
	}

	s := &summarizer{
		manager: manager,
		cfg:     cfg,
		log:     log,
		argv:    argv,
		stdout:  stdout,
	}
	cmd, err := s.newRootCommand()
	if err != nil {
		return out.fail(err)
	}
	cmd.SetArgs(remaining)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		return out.fail(err)
	}
	return 0
}

// stackTraceRequested scans argv ahead of parsing, since loading errors are
// reported before the parser exists. The last occurrence wins.
func stackTraceRequested(argv []string) bool {
	requested := false
	for _, token := range argv {
		if flagName(token) != stackTraceFlag {
			continue
		}
		_, value, hasValue := strings.Cut(token, "=")
		if !hasValue {
			requested = true
			continue
		}
		if parsed, err := strconv.ParseBool(value); err == nil {
			requested = parsed
		}
	}
	return requested
}

func newLogger(w io.Writer, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.WarnLevel
	}
	log.SetLevel(parsed)
	return log
}

func versionTemplate() string {
	return fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH)
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// newRootCommand builds the parser with the core flags and the flag of
// every loaded plugin, in the order they are listed in the help.
func (s *summarizer) newRootCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "project-summarizer",
		Short:   "Summarize project build artifacts.",
		Long:    "Summarize test results and coverage reports into summary files and compare them\nwith the published summaries.",
		Version: Version,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return &usageError{cmd: cmd, err: err}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.run(cmd)
		},
	}
	cmd.SetVersionTemplate(versionTemplate())
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{cmd: cmd, err: err}
	})

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.BoolP("help", "h", false, "Show this help message and exit.")
	flags.Bool("version", false, "Show program's version number and exit.")
	flags.Bool("stack-trace", false, "if an error occurs, print out the stack trace for debug purposes")
	flags.StringArray("add-plugin", nil, "Add a plugin file to provide additional project summaries.")
	flags.StringVar(&s.reportDir, "report-dir", s.cfg.ReportDir, "Directory to generate the summary reports in.")
	flags.StringVar(&s.publishDir, "publish-dir", s.cfg.PublishDir, "Directory to publish the summary reports to.")

	s.args = plugins.NewArguments(flags)
	s.args.Reserve("--only-changes", "--publish", "--quiet", "--columns")
	if err := s.manager.AddCommandLineArgumentsForPlugins(s.args); err != nil {
		return nil, err
	}

	flags.BoolVar(&s.onlyChanges, "only-changes", false, "Only the summary items that have changed are displayed in the console summary.")
	flags.BoolVar(&s.publish, "publish", false, "Publish the summaries to the publish directory and exit.")
	flags.BoolVar(&s.quiet, "quiet", false, "The report summary files will be generated, but no summary will be output to the console.")
	flags.StringVar(&s.columns, "columns", "", "Specifies the number of character columns to use in the console summary.")
	return cmd, nil
}
