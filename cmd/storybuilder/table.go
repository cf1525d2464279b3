package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// textTable collects rows for a fixed set of columns. Missing trailing cells
// render empty.
type textTable struct {
	headers []string
	rows    []table.Row
	right   map[int]bool
}

func newTable(headers ...string) *textTable {
	return &textTable{headers: headers, right: map[int]bool{}}
}

// alignRight right-aligns the given zero-based columns.
func (t *textTable) alignRight(columns ...int) *textTable {
	for _, c := range columns {
		t.right[c] = true
	}
	return t
}

func (t *textTable) add(cells ...string) {
	row := make(table.Row, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	t.rows = append(t.rows, row)
}

func (t *textTable) String() string {
	if len(t.headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(t.headers))
	configs := make([]table.ColumnConfig, len(t.headers))
	for i, h := range t.headers {
		header[i] = h
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, Align: text.AlignLeft}
		if t.right[i] {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.AppendRows(t.rows)
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
