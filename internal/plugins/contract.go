package plugins

import (
	"projectsummarizer.dev/cli/internal/summary"
)

// Plugin is the capability set every report plugin implements.
type Plugin interface {
	// GetDetails returns the plugin's identity. Called once, at load time.
	GetDetails() (PluginDetails, error)

	// SetContext hands the plugin the shared directories. Plugins compute and
	// cache their output path here.
	SetContext(ctx *summary.Context) error

	// GetOutputPath returns the summary file the plugin writes. Also used to
	// find the files to publish.
	GetOutputPath() (string, error)

	// AddCommandLineArguments registers the plugin's flag and returns the flag
	// and the name of the variable its value is stored under.
	AddCommandLineArguments(args *Arguments) (flag string, dest string, err error)

	// GenerateReport summarizes reportFile and, when columnWidth is not zero,
	// returns the delta table against the published summary.
	GenerateReport(onlyChanges bool, columnWidth int, reportFile string) (*summary.Table, error)
}

// Factory constructs a plugin with no arguments.
type Factory func() (Plugin, error)

// RegisteredPlugin is a loaded and validated plugin. It is not modified
// after loading.
type RegisteredPlugin struct {
	Instance   Plugin
	SourcePath string
	ClassName  string
	Details    PluginDetails

	unit unit
}
