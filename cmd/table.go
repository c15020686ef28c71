package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
)

// writeRows prints a rounded table on a terminal and tab separated values
// otherwise so the output can be piped into other tools.
func writeRows(w io.Writer, tty bool, headers []string, rows [][]string) {
	if !tty {
		io.WriteString(w, strings.Join(headers, "\t")+"\n")
		for _, row := range rows {
			io.WriteString(w, strings.Join(row, "\t")+"\n")
		}
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	tw.Render()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
