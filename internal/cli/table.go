package cli

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const tablePadding = 2

func writeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// writeJSONLine writes value as a single line, for streaming output.
func writeJSONLine(out io.Writer, value any) error {
	return json.NewEncoder(out).Encode(value)
}

// writeTable writes left-aligned columns sized to the widest cell.
func writeTable(out io.Writer, headers []string, rows [][]string) error {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	measure := func(row []string) {
		for idx, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[idx] {
				widths[idx] = w
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	writer := bufio.NewWriter(out)
	writeRow := func(row []string) {
		for idx := 0; idx < colCount; idx++ {
			cell := ""
			if idx < len(row) {
				cell = row[idx]
			}
			writer.WriteString(cell)
			if idx < colCount-1 {
				pad := widths[idx] - runewidth.StringWidth(cell)
				writer.WriteString(strings.Repeat(" ", max(pad, 0)+tablePadding))
			}
		}
		writer.WriteString("\n")
	}

	if len(headers) > 0 {
		writeRow(headers)
	}
	for _, row := range rows {
		writeRow(row)
	}
	return writer.Flush()
}
