package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"fieldsync/internal/textutil"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// column describes one queue-view column: header, alignment, and an optional
// cap on cell width. Payloads and error messages can run long, so capped
// columns keep a listing at one line per mutation.
type column struct {
	title    string
	align    columnAlignment
	maxWidth int
}

// Remote error messages are the only open-ended cell in a queue listing, so
// that column alone gets a width cap.
var queueListColumns = []column{
	{title: "ID", align: alignRight},
	{title: "Entity"},
	{title: "Entity ID"},
	{title: "Op"},
	{title: "Status"},
	{title: "Attempts", align: alignRight},
	{title: "Error", maxWidth: 48},
	{title: "Created"},
}

var queueHealthColumns = []column{
	{title: "Status"},
	{title: "Count", align: alignRight},
}

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col.title
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i, col := range columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			if col.maxWidth > 0 {
				value = textutil.Truncate(value, col.maxWidth)
			}
			r[i] = value
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		align := text.AlignLeft
		if col.align == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
