package junit

import (
	"fmt"
	"strings"

	"projectsummarizer.dev/cli/internal/summary"
)

// missing marks a count that does not exist on one side of the comparison.
const missing = -1

// cell is a count and its change since the published summary.
type cell struct {
	value int
	delta int
}

type testRow struct {
	name  string
	cells [3]cell
}

func (r testRow) changed() bool {
	for _, c := range r.cells {
		if c.value == missing || c.delta != 0 {
			return true
		}
	}
	return false
}

func (p *Plugin) reportTests(newStats, loaded *Totals, onlyChanges bool) *summary.Table {
	var rows []testRow
	for _, name := range mergeNames(newStats.names(), loaded.names()) {
		current, hasCurrent := newStats.Measurements[name]
		previous, hasPrevious := loaded.Measurements[name]

		var row testRow
		switch {
		case hasCurrent && hasPrevious:
			row = fullMatch(name, *current, *previous)
		case hasPrevious:
			row = olderMatch(name, *previous)
		default:
			row = newerMatch(name, *current)
		}
		if !onlyChanges || row.changed() {
			rows = append(rows, row)
		}
	}

	p.Printf("\nTest Results Summary\n--------------------\n\n")
	if len(rows) == 0 {
		p.Printf("Test results have not changed since last published test results.\n")
		return nil
	}

	rows = append(rows,
		testRow{name: "---", cells: [3]cell{{missing, 0}, {missing, 0}, {missing, 0}}},
		fullMatch("TOTALS", newStats.grandTotals(), loaded.grandTotals()),
	)

	table := &summary.Table{
		Headers: []string{"Class Name", "Total Tests", "Failed Tests", "Skipped Tests"},
		Justify: []summary.Justify{summary.JustifyLeft, summary.JustifyRight, summary.JustifyRight, summary.JustifyRight},
		Rows:    make([][]string, len(rows)),
	}
	for i, row := range rows {
		table.Rows[i] = []string{row.name, "", "", ""}
	}
	for column := 0; column < 3; column++ {
		formatTotalsColumn(rows, column, table.Rows)
	}
	return table
}

// mergeNames merges two sorted name lists into one sorted list without
// duplicates.
func mergeNames(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i] < b[j]):
			merged = append(merged, a[i])
			i++
		case i == len(a) || b[j] < a[i]:
			merged = append(merged, b[j])
			j++
		default:
			merged = append(merged, a[i])
			i++
			j++
		}
	}
	return merged
}

func fullMatch(name string, current, previous Measurement) testRow {
	return testRow{name: name, cells: [3]cell{
		{current.TotalTests, current.TotalTests - previous.TotalTests},
		{current.FailedTests, current.FailedTests - previous.FailedTests},
		{current.SkippedTests, current.SkippedTests - previous.SkippedTests},
	}}
}

// olderMatch is a class that only the published summary has.
func olderMatch(name string, previous Measurement) testRow {
	return testRow{name: name, cells: [3]cell{
		{missing, -previous.TotalTests},
		{missing, -previous.FailedTests},
		{missing, -previous.SkippedTests},
	}}
}

// newerMatch is a class that only the new summary has.
func newerMatch(name string, current Measurement) testRow {
	return testRow{name: name, cells: [3]cell{
		{current.TotalTests, current.TotalTests},
		{current.FailedTests, current.FailedTests},
		{current.SkippedTests, current.SkippedTests},
	}}
}

// formatTotalsColumn right-aligns the counts of one column, shows missing
// counts as dashes and appends non-zero deltas in parentheses.
func formatTotalsColumn(rows []testRow, column int, out [][]string) {
	valueWidth, deltaWidth := 0, 0
	for _, row := range rows {
		c := row.cells[column]
		if c.value != missing {
			valueWidth = max(valueWidth, len(fmt.Sprint(c.value)))
		}
		if c.delta != 0 {
			deltaWidth = max(deltaWidth, len(signed(c.delta))+2)
		}
	}

	for i, row := range rows {
		c := row.cells[column]
		var value string
		if c.value != missing {
			value = padLeft(fmt.Sprint(c.value), valueWidth)
		} else {
			value = strings.Repeat("-", valueWidth)
		}
		if deltaWidth != 0 {
			delta := strings.Repeat(" ", deltaWidth)
			if c.delta != 0 {
				delta = padLeft("("+signed(c.delta)+")", deltaWidth)
			}
			value = value + " " + delta
		}
		out[i][column+1] = value
	}
}

func signed(delta int) string {
	if delta > 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprint(delta)
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
