package render

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectsummarizer.dev/cli/internal/summary"
)

func coverageTable() *summary.Table {
	return &summary.Table{
		Headers: []string{"Type", "Covered", "Measured", "Percentage"},
		Justify: []summary.Justify{summary.JustifyLeft, summary.JustifyRight, summary.JustifyRight, summary.JustifyRight},
		Rows: [][]string{
			{"Lines", "3 (+3)", "4 (+4)", "75.00 (+75.00)"},
			{"Branches", "1 (+1)", "2 (+2)", "50.00 (+50.00)"},
		},
	}
}

func TestTable(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, Table(&out, coverageTable(), 0))

	rendered := out.String()
	require.True(t, strings.HasSuffix(rendered, "\n"))
	lines := strings.Split(strings.TrimSuffix(rendered, "\n"), "\n")
	require.Len(t, lines, 4)

	assert.True(t, strings.HasPrefix(lines[0], "TYPE"))
	assert.Contains(t, lines[0], "PERCENTAGE")
	assert.Empty(t, strings.Trim(lines[1], "- "), "header separator")
	assert.True(t, strings.HasPrefix(lines[2], "Lines"))
	assert.True(t, strings.HasSuffix(lines[2], "75.00 (+75.00)"))
	assert.True(t, strings.HasPrefix(lines[3], "Branches"))
	for _, line := range lines {
		assert.Equal(t, strings.TrimRight(line, " "), line)
	}
}

func TestTable_Empty(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, Table(&out, nil, 80))
	require.NoError(t, Table(&out, &summary.Table{Headers: []string{"Type"}}, 80))

	assert.Empty(t, out.String())
}

func TestTable_WrapsToWidth(t *testing.T) {
	table := &summary.Table{
		Headers: []string{"Class Name", "Total Tests"},
		Justify: []summary.Justify{summary.JustifyLeft, summary.JustifyRight},
		Rows:    [][]string{{"test.test_a_very_long_module_name_for_wrapping", "12 (+2)"}},
	}
	var out bytes.Buffer

	require.NoError(t, Table(&out, table, 30))

	for _, line := range strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n") {
		if strings.Trim(line, "-") == "" {
			continue
		}
		assert.LessOrEqual(t, len(line), 30, line)
	}
	assert.Contains(t, out.String(), "12 (+2)")
}

func TestColumnLimits(t *testing.T) {
	table := &summary.Table{
		Headers: []string{"Name", "Count"},
		Rows:    [][]string{{"abcdefghijkl", "1"}},
	}

	tests := []struct {
		name  string
		width int
		want  []int
	}{
		{name: "NoWidth", width: 0, want: []int{0, 0}},
		{name: "Fits", width: 19, want: []int{0, 0}},
		{name: "ShrinksWidest", width: 15, want: []int{8, 0}},
		{name: "StopsAtMinimum", width: 5, want: []int{4, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, columnLimits(table, tt.width))
		})
	}
}

func TestTerminalWidth_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.Zero(t, TerminalWidth(f))
	assert.Zero(t, TerminalWidth(nil))
}
