// Package cobertura summarizes Cobertura-format coverage reports.
package cobertura

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"projectsummarizer.dev/cli/internal/plugins"
	"projectsummarizer.dev/cli/internal/reports"
	"projectsummarizer.dev/cli/internal/summary"
)

const (
	commandLineFlag   = "--cobertura"
	commandLineOption = "cobertura_coverage_file"

	pluginID      = "COBERTURA"
	pluginName    = "Cobertura Coverage Results"
	pluginVersion = "0.5.0"

	// OutputFile is the summary file written into the report directory.
	OutputFile = "coverage.json"

	coveragePySignature = "<!-- Generated by coverage.py: https://coverage.readthedocs.io -->"
	signatureLineLimit  = 10
)

func init() {
	plugins.RegisterBuiltin("cobertura_plugin", plugins.Classes{"CoberturaPlugin": New})
}

// Plugin reports on Cobertura coverage files.
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
		"Source file name for cobertura test coverage reporting (`path`).")
	if err != nil {
		return "", "", err
	}
	return commandLineFlag, commandLineOption, nil
}

// GenerateReport writes the coverage summary for reportFile and, when
// columnWidth is not zero, returns its delta against the published summary.
func (p *Plugin) GenerateReport(onlyChanges bool, columnWidth int, reportFile string) (*summary.Table, error) {
	root, err := reports.LoadXMLDocument(reportFile, "coverage", "test coverage", "Cobertura")
	if err != nil {
		return nil, err
	}
	provider, err := coverageProvider(reportFile)
	if err != nil {
		return nil, err
	}

	newStats, err := composeTotals(root, provider)
	if err != nil {
		return nil, err
	}
	outputPath, _ := p.GetOutputPath()
	if err := reports.SaveSummaryFile(outputPath, newStats, "test coverage"); err != nil {
		return nil, err
	}

	if columnWidth == 0 {
		return nil, nil
	}

	publishedPath, err := p.PublishedPath()
	if err != nil {
		return nil, err
	}
	var loaded Totals
	found, err := reports.LoadSummaryFile(publishedPath, &loaded, "coverage")
	if err != nil {
		return nil, err
	}
	if !found {
		loaded = Totals{}
	}
	return p.reportCoverage(newStats, &loaded, onlyChanges), nil
}

// coverageProvider looks for the coverage.py signature in the lines before
// the sources element.
func coverageProvider(reportFile string) (string, error) {
	f, err := os.Open(reportFile)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", reportFile, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for len(lines) < signatureLineLimit && scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "<sources>" {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", reportFile, err)
	}

	if strings.Contains(strings.Join(lines, "\n"), coveragePySignature) {
		return "Coverage.py", nil
	}
	return "Unknown", nil
}

func composeTotals(root *etree.Element, provider string) (*Totals, error) {
	source := root.FindElement("./sources/source")
	if source == nil {
		return nil, fmt.Errorf("coverage report has no sources/source element")
	}
	projectName := source.Text()
	projectName = projectName[strings.LastIndex(projectName, "/")+1:]

	var lines, coveredLines, branches, coveredBranches int
	for _, pkg := range root.FindElements("./packages/package") {
		for _, class := range pkg.FindElements("./classes/class") {
			for _, line := range class.FindElements("./lines/line") {
				covered, branchCovered, branchMeasured, err := processLine(line)
				if err != nil {
					return nil, err
				}
				lines++
				coveredLines += covered
				coveredBranches += branchCovered
				branches += branchMeasured
			}
		}
	}

	return &Totals{
		ProjectName:  projectName,
		ReportSource: provider,
		LineLevel:    &Measurement{TotalMeasured: lines, TotalCovered: coveredLines},
		BranchLevel:  &Measurement{TotalMeasured: branches, TotalCovered: coveredBranches},
	}, nil
}

// processLine returns whether the line was hit and its branch counts taken
// from a condition-coverage attribute such as "50% (1/2)".
func processLine(line *etree.Element) (covered, branchCovered, branchMeasured int, err error) {
	hits := line.SelectAttr("hits")
	if hits == nil {
		return 0, 0, 0, fmt.Errorf("line element %q has no hits attribute", line.SelectAttrValue("number", "?"))
	}
	if hits.Value != "0" {
		covered = 1
	}

	condition := line.SelectAttr("condition-coverage")
	if condition == nil {
		return covered, 0, 0, nil
	}
	value := condition.Value
	start := strings.Index(value, "(")
	end := strings.Index(value[start+1:], ")")
	if start < 0 || end < 0 {
		return 0, 0, 0, fmt.Errorf("malformed condition-coverage %q", value)
	}
	fraction := strings.SplitN(value[start+1:start+1+end], "/", 2)
	if len(fraction) != 2 {
		return 0, 0, 0, fmt.Errorf("malformed condition-coverage %q", value)
	}
	if branchCovered, err = strconv.Atoi(fraction[0]); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed condition-coverage %q: %w", value, err)
	}
	if branchMeasured, err = strconv.Atoi(fraction[1]); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed condition-coverage %q: %w", value, err)
	}
	return covered, branchCovered, branchMeasured, nil
}
