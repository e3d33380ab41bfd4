package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by results that can print as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
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

// PrintTable writes data as a borderless table. A renderer without headers
// prints as key/value pairs.
func PrintTable(w io.Writer, data TableRenderer) error {
	headers := data.Headers()
	sep := ""
	if len(headers) == 0 {
		sep = ":"
	}
	table := newTable(w, sep)
	if len(headers) > 0 {
		table.SetHeader(headers)
		table.SetAutoFormatHeaders(true)
	}
	table.AppendBulk(data.Rows())
	table.Render()
	return nil
}

// Table is an ad-hoc TableRenderer.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, rows: make([][]string, 0)}
}

// AddRow appends a row.
func (t *Table) AddRow(row ...string) { t.rows = append(t.rows, row) }

func (t *Table) Headers() []string { return t.headers }
func (t *Table) Rows() [][]string  { return t.rows }

// KeyValues is a two-column listing without headers, used for single
// objects such as stat results.
type KeyValues [][2]string

// Add appends a pair.
func (kv *KeyValues) Add(key, value string) { *kv = append(*kv, [2]string{key, value}) }

func (kv KeyValues) Headers() []string { return nil }

func (kv KeyValues) Rows() [][]string {
	rows := make([][]string, len(kv))
	for i, p := range kv {
		rows[i] = []string{p[0], p[1]}
	}
	return rows
}
