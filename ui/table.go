// Package ui holds the terminal building blocks the pages render with.
package ui

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table is a header plus rows. An empty table prints its Empty line instead
// of an empty grid.
type Table struct {
	Title  string
	Header []string
	Empty  string
	rows   [][]any
}

func NewTable(header ...string) *Table {
	return &Table{Header: header, Empty: "No records found"}
}

func (t *Table) AddRow(cells ...any) {
	t.rows = append(t.rows, cells)
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Render(w io.Writer) {
	if t.Title != "" {
		fmt.Fprintln(w, t.Title)
	}
	if len(t.rows) == 0 {
		fmt.Fprintln(w, t.Empty)
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	header := make(table.Row, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, r := range t.rows {
		tw.AppendRow(table.Row(r))
	}
	tw.Render()
}
