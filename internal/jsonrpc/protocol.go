package jsonrpc

import "projectsummarizer.dev/cli/internal/summary"

// ProtocolName is reported by plugins in their describe result.
const ProtocolName = "project-summarizer/1"

// PluginEnv is set in the environment of every plugin process.
const PluginEnv = "PROJECT_SUMMARIZER_PLUGIN"

// Plugin methods.
const (
	MethodDescribe                = "describe"
	MethodConstruct               = "construct"
	MethodGetDetails              = "get_details"
	MethodAddCommandLineArguments = "add_command_line_arguments"
	MethodSetContext              = "set_context"
	MethodGetOutputPath           = "get_output_path"
	MethodGenerateReport          = "generate_report"
	MethodShutdown                = "shutdown"
)

type DescribeResult struct {
	Protocol string   `json:"protocol"`
	Classes  []string `json:"classes"`
}

type ConstructParams struct {
	Class string `json:"class"`
}

type ArgumentResult struct {
	Flag string `json:"flag"`
	Dest string `json:"dest"`
	Help string `json:"help,omitempty"`
}

// ContextParams carries the summarize context. WorkingDir is the host's
// working directory, which later relative paths are resolved against.
type ContextParams struct {
	ReportDir  string `json:"report_dir"`
	PublishDir string `json:"publish_dir"`
	WorkingDir string `json:"working_dir,omitempty"`
}

type OutputPathResult struct {
	Path string `json:"path"`
}

type ReportParams struct {
	OnlyChanges bool   `json:"only_changes"`
	ColumnWidth int    `json:"column_width"`
	ReportFile  string `json:"report_file"`
}

// ReportResult holds what the plugin printed and the table it wants shown.
type ReportResult struct {
	Output string         `json:"output,omitempty"`
	Table  *summary.Table `json:"table,omitempty"`
}

// AbortData is attached to CodeAbort errors.
type AbortData struct {
	Output   string `json:"output,omitempty"`
	ExitCode int    `json:"exit_code"`
}
