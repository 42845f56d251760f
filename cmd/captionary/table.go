package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type field struct {
	key   string
	value string
}

// renderFields draws a two-column key/value table. Empty values are shown as
// a dash so rows never collapse.
func renderFields(title string, fields []field) string {
	if len(fields) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}
	for _, f := range fields {
		value := f.value
		if value == "" {
			value = "-"
		}
		tw.AppendRow(table.Row{f.key, value})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, Colors: text.Colors{text.Bold}},
		{Number: 2, Align: text.AlignLeft, WidthMax: 80},
	})
	return tw.Render()
}
