// Package output provides formatting utilities for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// MaxColumnWidth caps table columns; longer cells are cut with "~".
const MaxColumnWidth = 40

// Table prints rows as an aligned grid. The header row, if any, is bold and
// followed by a separator.
func Table(w io.Writer, header []string, rows [][]string) {
	dim := color.New(color.FgHiBlack)

	widths := columnWidths(append([][]string{header}, rows...))
	if len(widths) == 0 {
		dim.Fprintln(w, "  (empty)")
		return
	}

	if len(header) > 0 {
		printRow(w, header, widths, color.New(color.Bold))
		dim.Fprint(w, "  ")
		for j, width := range widths {
			if j > 0 {
				dim.Fprint(w, "+-")
			}
			dim.Fprint(w, strings.Repeat("-", width+1))
		}
		fmt.Fprintln(w)
	}
	for _, row := range rows {
		printRow(w, row, widths, nil)
	}
}

func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for j, cell := range row {
			for len(widths) <= j {
				widths = append(widths, 0)
			}
			if n := len([]rune(cell)); n > widths[j] {
				widths[j] = n
			}
		}
	}
	for i := range widths {
		if widths[i] > MaxColumnWidth {
			widths[i] = MaxColumnWidth
		}
		if widths[i] < 3 {
			widths[i] = 3
		}
	}
	return widths
}

func printRow(w io.Writer, row []string, widths []int, style *color.Color) {
	fmt.Fprint(w, "  ")
	for j, width := range widths {
		if j > 0 {
			fmt.Fprint(w, "| ")
		}
		cell := ""
		if j < len(row) {
			cell = row[j]
		}
		runes := []rune(cell)
		if len(runes) > width {
			cell = string(runes[:width-1]) + "~"
			runes = []rune(cell)
		}
		padded := cell + strings.Repeat(" ", width-len(runes)+1)
		if style != nil {
			style.Fprint(w, padded)
		} else {
			fmt.Fprint(w, padded)
		}
	}
	fmt.Fprintln(w)
}

// Success prints a green check line.
func Success(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(w, "✓ "+format+"\n", args...)
}

// Warning prints a yellow line.
func Warning(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(w, "! "+format+"\n", args...)
}

// Failure prints a red line.
func Failure(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(w, "✗ "+format+"\n", args...)
}

// Dim prints a grey line.
func Dim(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgHiBlack).Fprintf(w, format+"\n", args...)
}
