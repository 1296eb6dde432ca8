package cobertura

import (
	"fmt"
	"strconv"
	"strings"

	"projectsummarizer.dev/cli/internal/summary"
)

const noValue = "-"

func (p *Plugin) reportCoverage(newStats, loaded *Totals, onlyChanges bool) *summary.Table {
	rows := make([][]string, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, coverageRow(l.title, l.get(newStats), l.get(loaded)))
	}
	formatted := formatCoverageRows(rows, onlyChanges)

	p.Printf("\nTest Coverage Summary\n---------------------\n\n")
	if len(formatted) == 0 {
		p.Printf("Test coverage has not changed since last published test coverage.\n\n")
		return nil
	}
	return &summary.Table{
		Headers: []string{"Type", "Covered", "Measured", "Percentage"},
		Justify: []summary.Justify{summary.JustifyLeft, summary.JustifyRight, summary.JustifyRight, summary.JustifyRight},
		Rows:    formatted,
	}
}

// coverageRow lays out a title followed by value/delta pairs for covered,
// measured and percentage. Without a previous measurement the delta is the
// value itself.
func coverageRow(title string, current, loaded *Measurement) []string {
	row := []string{title}
	if current == nil {
		for i := 0; i < 6; i++ {
			row = append(row, noValue)
		}
		return row
	}

	covered, measured := current.TotalCovered, current.TotalMeasured
	percentage := percent(covered, measured)
	if loaded == nil {
		row = appendValue(row, strconv.Itoa(covered), strconv.Itoa(covered))
		row = appendValue(row, strconv.Itoa(measured), strconv.Itoa(measured))
		return appendValue(row, fmt.Sprintf("%.2f", percentage), fmt.Sprintf("%.2f", percentage))
	}

	row = appendValue(row, strconv.Itoa(covered), strconv.Itoa(covered-loaded.TotalCovered))
	row = appendValue(row, strconv.Itoa(measured), strconv.Itoa(measured-loaded.TotalMeasured))
	delta := percentage - percent(loaded.TotalCovered, loaded.TotalMeasured)
	return appendValue(row, fmt.Sprintf("%.2f", percentage), fmt.Sprintf("%.2f", delta))
}

// percent treats a level with nothing measured as fully covered.
func percent(covered, measured int) float64 {
	if measured == 0 {
		return 100.0
	}
	return 100.0 * float64(covered) / float64(measured)
}

// appendValue adds the value and its delta, signing positive deltas.
func appendValue(row []string, value, delta string) []string {
	if delta != "0" && delta != "0.00" && !strings.HasPrefix(delta, "-") {
		delta = "+" + delta
	}
	return append(row, value, delta)
}

func formatCoverageRows(rows [][]string, onlyChanges bool) [][]string {
	columns := []int{1, 3, 5}
	widths := make([][2]int, len(columns))
	for i, column := range columns {
		widths[i] = columnWidths(rows, column)
	}

	var formatted [][]string
	for _, row := range rows {
		out := []string{row[0]}
		changed := false
		for i, column := range columns {
			value, columnChanged := formatColumn(row, column, widths[i])
			out = append(out, value)
			changed = changed || columnChanged
		}
		if !onlyChanges || changed {
			formatted = append(formatted, out)
		}
	}
	return formatted
}

// columnWidths returns the widest value in column and the widest delta that
// is worth showing next to it.
func columnWidths(rows [][]string, column int) [2]int {
	var widths [2]int
	for _, row := range rows {
		widths[0] = max(widths[0], len(row[column]))
		switch delta := row[column+1]; delta {
		case noValue, "0", "0.00":
		default:
			widths[1] = max(widths[1], len(delta))
		}
	}
	return widths
}

// formatColumn right-aligns the value and appends the delta in parentheses.
// It reports whether the delta shows a change.
func formatColumn(row []string, column int, widths [2]int) (string, bool) {
	var value string
	if row[column] == noValue {
		value = strings.Repeat("-", widths[0])
	} else {
		value = padLeft(row[column], widths[0])
	}
	if widths[1] == 0 {
		return value, false
	}

	delta := row[column+1]
	if delta == noValue {
		return value + " " + strings.Repeat(" ", widths[1]+2), false
	}
	changed := strings.HasPrefix(delta, "+") || strings.HasPrefix(delta, "-")
	return fmt.Sprintf("%s (%s)", value, padLeft(delta, widths[1])), changed
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
