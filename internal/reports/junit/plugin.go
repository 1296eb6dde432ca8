// Package junit summarizes JUnit-format test result reports.
package junit

import (
	"fmt"

	"github.com/beevik/etree"

	"projectsummarizer.dev/cli/internal/plugins"
	"projectsummarizer.dev/cli/internal/reports"
	"projectsummarizer.dev/cli/internal/summary"
)

const (
	commandLineFlag   = "--junit"
	commandLineOption = "test_report_file"

	pluginID      = "JUNIT"
	pluginName    = "JUnit Test Results"
	pluginVersion = "0.5.0"

	// OutputFile is the summary file written into the report directory.
	OutputFile = "test-results.json"
)

func init() {
	plugins.RegisterBuiltin("junit_plugin", plugins.Classes{"JunitPlugin": New})
}

// Plugin reports on JUnit test result files.
type Plugin struct {
	reports.Base
}

// New creates the plugin.
func New() (plugins.Plugin, error) {
	return &Plugin{Base: reports.NewBase(OutputFile)}, nil
}

func (p *Plugin) GetDetails() (plugins.PluginDetails, error) {
	return plugins.PluginDetails{
		ID:               pluginID,
		Name:             pluginName,
		Version:          pluginVersion,
		InterfaceVersion: plugins.InterfaceVersionBasic,
	}, nil
}

func (p *Plugin) AddCommandLineArguments(args *plugins.Arguments) (string, string, error) {
	err := args.AddString(commandLineFlag, commandLineOption,
		"Source file name for junit test result reporting (`path`).")
	if err != nil {
		return "", "", err
	}
	return commandLineFlag, commandLineOption, nil
}

// GenerateReport writes the test results summary for reportFile and, when
// columnWidth is not zero, returns its delta against the published summary.
func (p *Plugin) GenerateReport(onlyChanges bool, columnWidth int, reportFile string) (*summary.Table, error) {
	root, err := reports.LoadXMLDocument(reportFile, "testsuites", "test report", "Junit")
	if err != nil {
		return nil, err
	}

	newStats, err := composeTotals(root)
	if err != nil {
		return nil, err
	}
	outputPath, _ := p.GetOutputPath()
	if err := reports.SaveSummaryFile(outputPath, newStats, "test report"); err != nil {
		return nil, err
	}

	if columnWidth == 0 {
		return nil, nil
	}

	publishedPath, err := p.PublishedPath()
	if err != nil {
		return nil, err
	}
	loaded := newTotals("", "")
	if _, err := reports.LoadSummaryFile(publishedPath, loaded, "results"); err != nil {
		return nil, err
	}
	return p.reportTests(newStats, loaded, onlyChanges), nil
}

// composeTotals counts the test cases of every suite per class name. A
// test case with a failure child counts as failed, otherwise one with a
// skipped child counts as skipped.
func composeTotals(root *etree.Element) (*Totals, error) {
	totals := newTotals("?", "pytest")
	for _, suite := range root.FindElements("testsuite") {
		for _, testCase := range suite.FindElements("./testcase") {
			className := testCase.SelectAttr("classname")
			if className == nil {
				return nil, fmt.Errorf("testcase %q has no classname attribute", testCase.SelectAttrValue("name", "?"))
			}

			measurement := totals.measurement(className.Value)
			failed, skipped := false, false
			for _, child := range testCase.ChildElements() {
				switch child.Tag {
				case "failure":
					failed = true
				case "skipped":
					skipped = true
				}
			}
			if failed {
				measurement.FailedTests++
			} else if skipped {
				measurement.SkippedTests++
			}
			measurement.TotalTests++
		}
	}
	return totals, nil
}
