package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// printTable writes rows as aligned columns. The first row is the header.
// Cells wider than their column's limit are truncated by display width, so
// accented and wide characters line up.
func printTable(w io.Writer, rows [][]string, limits []int) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			cell := fitCell(row[i], limitAt(limits, i))
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for r, row := range rows {
		var sb strings.Builder
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = fitCell(row[i], limitAt(limits, i))
			}
			if i < len(widths)-1 {
				sb.WriteString(runewidth.FillRight(cell, widths[i]))
				sb.WriteString("  ")
			} else {
				sb.WriteString(cell)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))

		if r == 0 {
			total := 0
			for _, width := range widths {
				total += width + 2
			}
			fmt.Fprintln(w, strings.Repeat("-", total-2))
		}
	}
}

func fitCell(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 || runewidth.StringWidth(s) <= limit {
		return s
	}
	return runewidth.Truncate(s, limit, "...")
}

func limitAt(limits []int, i int) int {
	if i < len(limits) {
		return limits[i]
	}
	return 0
}
