package crossfilter

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// ExportCSV writes the header row followed by one line per row. Every field
// is double quoted with embedded quotes doubled, fields are separated by
// commas and lines by "\n". There is no trailing newline. Cells are written
// as text without any conversion.
func ExportCSV(w io.Writer, rows []core.Row, columns []string) error {
	bw := bufio.NewWriter(w)

	writeLine := func(fields func(i int) string) {
		for i := range columns {
			if i > 0 {
				_ = bw.WriteByte(',')
			}
			_ = bw.WriteByte('"')
			_, _ = bw.WriteString(strings.ReplaceAll(fields(i), `"`, `""`))
			_ = bw.WriteByte('"')
		}
	}

	writeLine(func(i int) string { return columns[i] })
	for _, row := range rows {
		_ = bw.WriteByte('\n')
		writeLine(func(i int) string { return row.Get(columns[i]) })
	}
	return bw.Flush()
}

// ExportFilename returns the download name for an export of dataset taken
// at t, e.g. "media-plan_export_2024-03-01.csv".
func ExportFilename(dataset core.DatasetID, t time.Time) string {
	return string(dataset) + "_export_" + t.Format(time.DateOnly) + ".csv"
}
