package summary

// Justify is the horizontal alignment of a table column.
type Justify string

const (
	JustifyLeft  Justify = "l"
	JustifyRight Justify = "r"
)

// Table is the delta table a plugin returns for the host to print.
type Table struct {
	Headers []string   `json:"headers"`
	Justify []Justify  `json:"justify"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether there is nothing to print.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}
