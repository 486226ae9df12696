package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// Tabular is implemented by results that can be printed as a table.
type Tabular interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes t as a borderless, left-aligned table.
func PrintTable(w io.Writer, t Tabular) error {
	table := newTable(w, "")
	table.SetHeader(t.Headers())
	table.SetAutoFormatHeaders(true)
	table.AppendBulk(t.Rows())
	table.Render()
	return nil
}

// Table is an ad-hoc Tabular.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, rows: make([][]string, 0)}
}

// AddRow appends a row; missing cells are rendered empty.
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.headers) {
		cells = append(cells, "")
	}
	t.rows = append(t.rows, cells)
}

func (t *Table) Headers() []string { return t.headers }
func (t *Table) Rows() [][]string  { return t.rows }
func (t *Table) Len() int          { return len(t.rows) }

// Fields is an ordered list of key/value pairs printed as "key: value".
type Fields [][2]string

// Add appends a pair.
func (f *Fields) Add(key, value string) {
	*f = append(*f, [2]string{key, value})
}

// PrintFields writes the pairs with the keys aligned.
func PrintFields(w io.Writer, fields Fields) error {
	table := newTable(w, ":")
	table.SetAutoFormatHeaders(false)
	for _, kv := range fields {
		table.Append([]string{kv[0], kv[1]})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer, columnSep string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(columnSep)
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
