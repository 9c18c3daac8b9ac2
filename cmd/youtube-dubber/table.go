package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"youtube-dubber/internal/pipeline"
)

// printResults renders the per-URL outcome. A terminal gets a table; pipes
// and redirects get one plain line per URL.
func printResults(w io.Writer, jobs []*pipeline.Job) {
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		printTable(w, jobs)
		return
	}
	for _, j := range jobs {
		fmt.Fprintln(w, plainLine(j))
	}
}

func printTable(w io.Writer, jobs []*pipeline.Job) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"URL", "Channel", "Status", "Output", "Time"})
	for _, j := range jobs {
		detail := j.OutputPath
		if j.Err != nil {
			detail = j.Err.Error()
		}
		t.AppendRow(table.Row{j.URL, j.Channel, j.Status, detail, j.Elapsed().Round(time.Second)})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func plainLine(j *pipeline.Job) string {
	if j.Err != nil {
		return fmt.Sprintf("%s\t%s\t%v", j.URL, j.Status, j.Err)
	}
	return fmt.Sprintf("%s\t%s\t%s", j.URL, j.Status, j.OutputPath)
}
