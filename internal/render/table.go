// Package render prints the delta tables report plugins hand back.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"projectsummarizer.dev/cli/internal/summary"
)

const (
	columnGap      = "  "
	minColumnWidth = 4
)

// Table writes t to out. Cells are wrapped so that no line is wider than
// width; a width below one leaves rows at their natural width.
func Table(out io.Writer, t *summary.Table, width int) error {
	if t.Empty() {
		return nil
	}

	w := table.NewWriter()
	w.SetStyle(style())

	header := make(table.Row, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	w.AppendHeader(header)
	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		w.AppendRow(row)
	}

	limits := columnLimits(t, width)
	configs := make([]table.ColumnConfig, len(t.Headers))
	for i := range configs {
		align := alignment(t, i)
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignHeader:      align,
			WidthMax:         limits[i],
			WidthMaxEnforcer: text.WrapHard,
		}
	}
	w.SetColumnConfigs(configs)

	lines := strings.Split(w.Render(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	if _, err := fmt.Fprintf(out, "%s\n", strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

// TerminalWidth returns the width of the terminal f is attached to, or zero
// when f is not a terminal.
func TerminalWidth(f *os.File) int {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func style() table.Style {
	s := table.StyleDefault
	s.Name = "summary"
	s.Box.PaddingLeft = ""
	s.Box.PaddingRight = columnGap
	s.Box.MiddleHorizontal = "-"
	s.Format.Header = text.FormatUpper
	s.Options.DrawBorder = false
	s.Options.SeparateColumns = false
	s.Options.SeparateHeader = true
	s.Options.SeparateRows = false
	s.Options.SeparateFooter = false
	return s
}

func alignment(t *summary.Table, column int) text.Align {
	if column < len(t.Justify) && t.Justify[column] == summary.JustifyRight {
		return text.AlignRight
	}
	return text.AlignLeft
}

// columnLimits returns the maximum width of every column. Zero means no
// limit. While the table is too wide, the widest column gives up one
// character, down to minColumnWidth.
func columnLimits(t *summary.Table, width int) []int {
	limits := make([]int, len(t.Headers))
	if width < 1 {
		return limits
	}

	natural := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		natural[i] = text.RuneWidthWithoutEscSequences(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(natural) {
				natural[i] = max(natural[i], text.RuneWidthWithoutEscSequences(cell))
			}
		}
	}

	current := append([]int(nil), natural...)
	total := func() int {
		sum := 0
		for _, w := range current {
			sum += w + len(columnGap)
		}
		return sum - len(columnGap)
	}
	for total() > width {
		widest := 0
		for i, w := range current {
			if w > current[widest] {
				widest = i
			}
		}
		if current[widest] <= minColumnWidth {
			break
		}
		current[widest]--
	}

	for i := range current {
		if current[i] < natural[i] {
			limits[i] = current[i]
		}
	}
	return limits
}
