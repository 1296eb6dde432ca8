package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectsummarizer.dev/cli/internal/config"
	"projectsummarizer.dev/cli/internal/plugins"
	"projectsummarizer.dev/cli/internal/summary"
	"projectsummarizer.dev/cli/pkg/pluginsdk"
)

const (
	// pluginModeEnv makes the test binary serve as a plugin executable.
	pluginModeEnv = "CLI_TEST_PLUGIN_MODE"
	// reportLogEnv names the file a counting plugin appends each report to.
	reportLogEnv = "CLI_TEST_REPORT_LOG"
)

func TestMain(m *testing.M) {
	if os.Getenv(pluginModeEnv) == "" {
		os.Exit(m.Run())
	}
	err := pluginsdk.Serve(map[string]pluginsdk.Factory{
		"CountingPlugin": func() (pluginsdk.Plugin, error) { return &countingPlugin{}, nil },
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

// countingPlugin records every report it generates in the reportLogEnv file.
type countingPlugin struct {
	ctx *pluginsdk.Context
}

func (p *countingPlugin) GetDetails() (pluginsdk.Details, error) {
	return pluginsdk.Details{ID: "counting", Name: "Counting", Version: "0.1.0", InterfaceVersion: pluginsdk.InterfaceVersion}, nil
}

func (p *countingPlugin) SetContext(ctx *pluginsdk.Context) error {
	p.ctx = ctx
	return nil
}

func (p *countingPlugin) GetOutputPath() (string, error) {
	return filepath.Join(p.ctx.ReportDir, "counting.json"), nil
}

func (p *countingPlugin) AddCommandLineArguments(args *pluginsdk.Arguments) (string, string, error) {
	if err := args.AddString("--counting", "counting_file", "Counting file."); err != nil {
		return "", "", err
	}
	return "--counting", "counting_file", nil
}

func (p *countingPlugin) GenerateReport(onlyChanges bool, columnWidth int, reportFile string) (*pluginsdk.Table, error) {
	log, err := os.OpenFile(os.Getenv(reportLogEnv), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	defer log.Close()
	if _, err := fmt.Fprintln(log, reportFile); err != nil {
		return nil, err
	}

	fmt.Fprintf(p.ctx.Output, "Counted %s\n", reportFile)
	return &pluginsdk.Table{
		Headers: []string{"File", "Width"},
		Justify: []pluginsdk.Justify{pluginsdk.JustifyLeft, pluginsdk.JustifyRight},
		Rows:    [][]string{{reportFile, fmt.Sprint(columnWidth)}},
	}, nil
}

// clashPlugin claims a flag the host registers for itself.
type clashPlugin struct{}

func (clashPlugin) GetDetails() (plugins.PluginDetails, error) {
	return plugins.PluginDetails{ID: "CLASH", Name: "Clash", Version: "0.1.0", InterfaceVersion: plugins.InterfaceVersionBasic}, nil
}

func (clashPlugin) SetContext(*summary.Context) error { return nil }

func (clashPlugin) GetOutputPath() (string, error) { return "clash.json", nil }

func (clashPlugin) AddCommandLineArguments(args *plugins.Arguments) (string, string, error) {
	if err := args.AddString("--publish", "publish_file", "Clashes with the host."); err != nil {
		return "", "", err
	}
	return "--publish", "publish_file", nil
}

func (clashPlugin) GenerateReport(bool, int, string) (*summary.Table, error) { return nil, nil }

func init() {
	plugins.RegisterBuiltin("clash_plugin", plugins.Classes{
		"ClashPlugin": func() (plugins.Plugin, error) { return clashPlugin{}, nil },
	})
}

// writePlugin creates an executable named name that starts the test binary
// as a plugin.
func writePlugin(t *testing.T, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("plugin scripts need a POSIX shell")
	}
	exe, err := os.Executable()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	script := fmt.Sprintf("#!/bin/sh\n%s=serve exec '%s'\n", pluginModeEnv, exe)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

type result struct {
	code   int
	stdout string
	stderr string
}

func run(args ...string) result {
	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// packageDir is where the tests start, before any of them changes directory.
var packageDir, _ = os.Getwd()

func testdata(t *testing.T, path string) string {
	t.Helper()
	require.NotEmpty(t, packageDir)
	return filepath.Join(packageDir, "..", "..", "reports", path)
}

// workspace moves the test into an empty project directory with a report
// directory and no configuration from the environment.
func workspace(t *testing.T) string {
	t.Helper()
	for _, key := range []string{config.EnvConfigPath, config.EnvReportDir, config.EnvPublishDir, config.EnvLogLevel, config.EnvPlugins} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(previous) })

	require.NoError(t, os.Mkdir("report", 0o755))
	return dir
}

func TestRun_RequiresPublishOrReport(t *testing.T) {
	workspace(t)

	res := run()

	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stdout, "Error: Either --publish or one of the reporting arguments mush be specified.\n")
	assert.Contains(t, res.stdout, "--junit")
	assert.Contains(t, res.stdout, "--cobertura")
}

func TestRun_UsageErrors(t *testing.T) {
	junit := testdata(t, "junit/testdata/results.xml")

	tests := []struct {
		name    string
		args    []string
		prepare func(t *testing.T)
		message string
	}{
		{
			name:    "MissingReportDir",
			args:    []string{"--junit", junit},
			prepare: func(t *testing.T) { require.NoError(t, os.Remove("report")) },
			message: "project-summarizer: error: argument --report-dir: Path 'report' does not exist.\n",
		},
		{
			name:    "ReportDirIsFile",
			args:    []string{"--report-dir", "file.txt", "--junit", junit},
			prepare: func(t *testing.T) { require.NoError(t, os.WriteFile("file.txt", nil, 0o644)) },
			message: "argument --report-dir: Path 'file.txt' is not an existing directory.\n",
		},
		{
			name:    "MissingPublishDir",
			args:    []string{"--publish-dir", "gone", "--junit", junit},
			message: "argument --publish-dir: Path 'gone' does not exist.\n",
		},
		{
			name:    "ColumnsTooSmall",
			args:    []string{"--junit", junit, "--columns", "10"},
			message: "argument --columns: Value '10' is not an integer between between 50 and 200.\n",
		},
		{
			name:    "ColumnsNotANumber",
			args:    []string{"--junit", junit, "--columns=wide"},
			message: "argument --columns: Value 'wide' is not an integer between between 50 and 200.\n",
		},
		{
			name:    "UnknownFlag",
			args:    []string{"--bogus"},
			message: "unknown flag: --bogus\n",
		},
		{
			name:    "Positional",
			args:    []string{"extra"},
			message: `unknown command "extra"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workspace(t)
			if tt.prepare != nil {
				tt.prepare(t)
			}

			res := run(tt.args...)

			assert.Equal(t, 2, res.code)
			assert.Contains(t, res.stderr, "Usage:")
			assert.Contains(t, res.stderr, tt.message)
		})
	}
}

func TestRun_ReportsAndPublishes(t *testing.T) {
	workspace(t)
	junit := testdata(t, "junit/testdata/results.xml")

	res := run("--junit="+junit, "--columns", "80")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "\nTest Results Summary\n--------------------\n\n")
	assert.Contains(t, res.stdout, "CLASS NAME")
	assert.Contains(t, res.stdout, "test.test_publish")
	assert.Contains(t, res.stdout, "TOTALS")
	assert.FileExists(t, filepath.Join("report", "test-results.json"))

	res = run("--publish")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Publish directory 'publish' does not exist.  Creating.\n"+
		"Published: "+filepath.Join("publish", "test-results.json")+"\n", res.stdout)
	reported, err := os.ReadFile(filepath.Join("report", "test-results.json"))
	require.NoError(t, err)
	published, err := os.ReadFile(filepath.Join("publish", "test-results.json"))
	require.NoError(t, err)
	assert.Equal(t, reported, published)

	res = run("--only-changes", "--junit", junit)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "\nTest Results Summary\n--------------------\n\n"+
		"Test results have not changed since last published test results.\n", res.stdout)
}

func TestRun_QuietOnlyWritesSummaries(t *testing.T) {
	workspace(t)

	res := run("--quiet", "--cobertura", testdata(t, "cobertura/testdata/coverage.xml"), "--junit", testdata(t, "junit/testdata/results.xml"))

	require.Equal(t, 0, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.FileExists(t, filepath.Join("report", "coverage.json"))
	assert.FileExists(t, filepath.Join("report", "test-results.json"))
}

func TestRun_ReportDirFromEnvironment(t *testing.T) {
	workspace(t)
	require.NoError(t, os.Mkdir("out", 0o755))
	t.Setenv(config.EnvReportDir, "out")

	res := run("--quiet", "--cobertura", testdata(t, "cobertura/testdata/coverage.xml"))

	require.Equal(t, 0, res.code, res.stderr)
	assert.FileExists(t, filepath.Join("out", "coverage.json"))
}

func TestRun_PublishDirIsAFile(t *testing.T) {
	workspace(t)
	require.NoError(t, os.WriteFile("publish", nil, 0o644))

	res := run("--publish")

	assert.Equal(t, 1, res.code)
	assert.Equal(t, "Publish directory 'publish' already exists, but as a file.\n", res.stdout)
}

func TestRun_AbortsOnMissingReportFile(t *testing.T) {
	workspace(t)

	res := run("--junit", "missing.xml")

	assert.Equal(t, 1, res.code)
	assert.Equal(t, "Project test report file 'missing.xml' does not exist.\n", res.stdout)
}

func TestRun_BadPlugin(t *testing.T) {
	workspace(t)

	res := run("--add-plugin", "missing_plugin", "--publish")

	assert.Equal(t, 1, res.code)
	assert.Equal(t, "BadPluginError encountered while loading plugins:\n"+
		"Plugin file 'missing_plugin' does not exist.\n", res.stderr)
}

func TestRun_PluginFlagClashesWithHostFlag(t *testing.T) {
	workspace(t)
	defaults := plugins.DefaultBuiltins
	plugins.DefaultBuiltins = []string{"clash_plugin"}
	t.Cleanup(func() { plugins.DefaultBuiltins = defaults })

	res := run("--publish")

	assert.Equal(t, 1, res.code)
	assert.Equal(t, "Plugin class 'ClashPlugin' had a critical failure: Bad Plugin Error calling add_command_line_arguments.\n", res.stderr)
}

func TestRun_ExternalPluginReportsOnce(t *testing.T) {
	dir := workspace(t)
	reportLog := filepath.Join(dir, "reports.log")
	t.Setenv(reportLogEnv, reportLog)
	path := writePlugin(t, "counting_plugin")

	res := run("--add-plugin", path, "--counting", "results.xml", "--columns", "80")

	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Counted results.xml\n")
	assert.Contains(t, res.stdout, "results.xml")
	assert.Contains(t, res.stdout, "80")
	logged, err := os.ReadFile(reportLog)
	require.NoError(t, err)
	assert.Equal(t, []string{"results.xml"}, strings.Fields(string(logged)))
}

func TestStackTraceRequested(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want bool
	}{
		{name: "Absent", argv: []string{"--publish"}},
		{name: "Flag", argv: []string{"--publish", "--stack-trace"}, want: true},
		{name: "InlineTrue", argv: []string{"--stack-trace=true"}, want: true},
		{name: "InlineFalse", argv: []string{"--stack-trace=false"}},
		{name: "LastWins", argv: []string{"--stack-trace", "--stack-trace=0"}},
		{name: "OtherFlag", argv: []string{"--stack-traces"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stackTraceRequested(tt.argv))
		})
	}
}

func TestRun_Version(t *testing.T) {
	workspace(t)

	res := run("--version")

	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "project-summarizer version "+Version+"\n")
}

func TestFlagName(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{token: "--junit", want: "--junit"},
		{token: "--junit=results.xml", want: "--junit"},
		{token: "results.xml", want: "results.xml"},
		{token: "-h", want: "-h"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, flagName(tt.token))
		})
	}
}
