package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// newTable returns a light-style table writer with the given header.
func newTable(header ...string) table.Writer {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	row := make(table.Row, len(header))
	for i, h := range header {
		row[i] = h
	}
	w.AppendHeader(row)
	return w
}

// rightAlign configures a numeric column (1-based) to align right.
func rightAlign(number int) table.ColumnConfig {
	return table.ColumnConfig{Number: number, Align: text.AlignRight}
}

// wrapAt caps a column's width so long text wraps.
func wrapAt(number, maxWidth int) table.ColumnConfig {
	return table.ColumnConfig{Number: number, WidthMax: maxWidth}
}
