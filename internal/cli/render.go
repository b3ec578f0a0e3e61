package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/JonMunkholm/gtfsload/internal/feed"
	"github.com/JonMunkholm/gtfsload/internal/gtfs"
	"github.com/JonMunkholm/gtfsload/internal/store"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	return t
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderReport(w io.Writer, format string, r *feed.Report, maxErrors int) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatCSV:
		return feed.WriteCSV(w, r.Errors)
	}

	status := text.FgGreen.Sprint("VALID")
	switch {
	case r.Failure != "":
		status = text.FgRed.Sprint("FAILED")
	case !r.Valid():
		status = text.FgRed.Sprint("INVALID")
	}
	_, _ = fmt.Fprintf(w, "%s %s: %s rows in %s, %s errors (run %s)\n\n",
		status, r.FeedID, humanize.Comma(r.Rows()), r.Duration.Round(time.Millisecond),
		humanize.Comma(int64(len(r.Errors))), r.RunID)

	renderScanResults(w, r.Tables)

	if len(r.Errors) > 0 {
		_, _ = fmt.Fprintln(w)
		errs := make([]feed.ValidationError, len(r.Errors))
		copy(errs, r.Errors)
		feed.SortErrors(errs)
		renderErrors(w, errs, maxErrors)
		renderCounts(w, r.Counts)
	}
	if r.Failure != "" {
		_, _ = fmt.Fprintf(w, "\nload stopped: %s\n", r.Failure)
	}
	return nil
}

func renderScanResults(w io.Writer, results []feed.ScanResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Table", "State", "Rows", "Size", "Time"})
	for _, res := range results {
		state := res.State.String()
		if res.State == feed.StateMissingRequired || res.State == feed.StateFailed {
			state = text.FgRed.Sprint(state)
		}
		t.AppendRow(table.Row{
			res.Table,
			state,
			humanize.Comma(res.Rows),
			humanize.Bytes(uint64(res.Bytes)),
			res.Duration.Round(time.Microsecond),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

func renderErrors(w io.Writer, errs []feed.ValidationError, limit int) {
	shown := errs
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Code", "Table", "Row", "Column", "Problem"})
	for _, e := range shown {
		row := ""
		if e.Row > 0 {
			row = humanize.Comma(e.Row)
		}
		t.AppendRow(table.Row{feed.Describe(e.Kind).Code, e.Table, row, e.Column, problem(e)})
	}
	if hidden := len(errs) - len(shown); hidden > 0 {
		t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%s more (use --max-errors 0 or -o csv)", humanize.Comma(int64(hidden)))})
	}
	t.Render()
}

// problem is the error text without the table, row and column prefix that
// the table columns already show.
func problem(e feed.ValidationError) string {
	msg := e.Error()
	if _, after, ok := strings.Cut(msg, ": "); ok {
		return after
	}
	return msg
}

// renderCounts lists non-zero counts in kind declaration order.
func renderCounts(w io.Writer, counts map[string]int) {
	var parts []string
	for _, k := range feed.Kinds() {
		if n := counts[k.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, n))
		}
	}
	_, _ = fmt.Fprintf(w, "by kind: %s\n", strings.Join(parts, " "))
}

func renderRuns(w io.Writer, format string, runs []store.Run) error {
	switch format {
	case FormatJSON:
		if runs == nil {
			runs = []store.Run{}
		}
		return writeJSON(w, runs)
	case FormatCSV:
		return fmt.Errorf("csv output is only available for errors")
	}

	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "(no runs)")
		return nil
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Feed", "Source", "Started", "Rows", "Errors", "Result"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.FeedID,
			r.Source,
			humanize.Time(r.Started),
			humanize.Comma(r.Rows),
			humanize.Comma(int64(r.ErrorCount)),
			outcome(r),
		})
	}
	t.Render()
	return nil
}

func renderRunErrors(w io.Writer, format string, run store.Run, errs []feed.ValidationError) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, struct {
			store.Run
			Errors []feed.ValidationError `json:"errors"`
		}{run, errs})
	case FormatCSV:
		return feed.WriteCSV(w, errs)
	}

	_, _ = fmt.Fprintf(w, "%s %s from %s, %s, %s errors\n\n", outcome(run), run.FeedID, run.Source,
		run.Started.Local().Format(time.DateTime), humanize.Comma(int64(run.ErrorCount)))
	if run.Failure != "" {
		_, _ = fmt.Fprintf(w, "load stopped: %s\n\n", run.Failure)
	}
	if len(errs) == 0 {
		_, _ = fmt.Fprintln(w, "(no errors)")
		return nil
	}
	renderErrors(w, errs, 0)
	if run.ErrorCount > len(errs) {
		_, _ = fmt.Fprintf(w, "showing %d of %s errors\n", len(errs), humanize.Comma(int64(run.ErrorCount)))
	}
	return nil
}

func renderTables(w io.Writer, format string) error {
	infos := gtfs.Infos()
	switch format {
	case FormatJSON:
		return writeJSON(w, infos)
	case FormatCSV:
		return fmt.Errorf("csv output is only available for errors")
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"File", "Required", "Required columns"})
	for _, info := range infos {
		req := ""
		if info.Required {
			req = "yes"
		}
		t.AppendRow(table.Row{info.Name + ".txt", req, strings.Join(info.RequiredColumns, ", ")})
	}
	t.Render()
	return nil
}

func outcome(r store.Run) string {
	switch {
	case r.Failure != "":
		return "failed"
	case r.Valid():
		return "valid"
	}
	return "invalid"
}
