package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mastergate/internal/queue"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable writes a rounded table to out. Cells holding a submission
// status are colorized when out is a terminal: green approved, red rejected,
// yellow processing. Right-aligned columns align their header too, so count
// columns read as a single block.
func renderTable(out io.Writer, headers []string, rows [][]string, aligns []columnAlignment) {
	columns := len(headers)
	if columns == 0 {
		return
	}

	colorize := shouldColorize(out)

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, title := range headers {
		header[i] = title
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = statusCell(row[i], colorize)
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: align,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	tw.Render()
}

func statusCell(value string, colorize bool) string {
	if !colorize {
		return value
	}
	switch value {
	case string(queue.StatusApproved):
		return text.FgGreen.Sprint(value)
	case string(queue.StatusRejected):
		return text.FgRed.Sprint(value)
	case string(queue.StatusProcessing):
		return text.FgYellow.Sprint(value)
	}
	return value
}
