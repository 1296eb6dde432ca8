// Package summary holds the values shared between the host and the report
// plugins: the directories summaries live in and the tables plugins hand back.
package summary

import (
	"io"
	"path/filepath"
)

const (
	DefaultReportDir  = "report"
	DefaultPublishDir = "publish"
)

// Context is broadcast to every plugin before any report is generated.
type Context struct {
	ReportDir  string
	PublishDir string

	// Output receives the headings and notices plugins print.
	Output io.Writer
}

// NewContext falls back to the default directories for empty arguments.
func NewContext(reportDir, publishDir string, output io.Writer) *Context {
	if reportDir == "" {
		reportDir = DefaultReportDir
	}
	if publishDir == "" {
		publishDir = DefaultPublishDir
	}
	if output == nil {
		output = io.Discard
	}
	return &Context{ReportDir: reportDir, PublishDir: publishDir, Output: output}
}

// PublishedPath is where fileToPublish ends up inside the publish directory.
func (c *Context) PublishedPath(fileToPublish string) string {
	return filepath.Join(c.PublishDir, filepath.Base(fileToPublish))
}
