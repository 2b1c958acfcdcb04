package cliutil

import (
	"fmt"
	"strings"
)

// RenderTable renders a fixed-width text table using DisplayWidth-based cell
// measurement so each column starts at a stable offset regardless of ANSI
// styling or wide runes in the cells. Grounded on the teacher's util_table.go.
func RenderTable(headers []string, rows [][]string, gutter int) []string {
	if len(headers) == 0 {
		return nil
	}
	if gutter < 1 {
		gutter = 1
	}
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = DisplayWidth(header)
	}
	for _, row := range rows {
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := DisplayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	sep := strings.Repeat(" ", gutter)
	out := make([]string, 0, len(rows)+1)
	out = append(out, renderRow(headers, widths, sep))
	for _, row := range rows {
		out = append(out, renderRow(row, widths, sep))
	}
	return out
}

func PrintTable(headers []string, rows [][]string, gutter int) {
	for _, line := range RenderTable(headers, rows, gutter) {
		fmt.Println(line)
	}
}

func renderRow(row []string, widths []int, sep string) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = PadRight(cell, width)
	}
	return strings.Join(cells, sep)
}
