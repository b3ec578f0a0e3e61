// Package templates renders the HTML pages of the validation server as templ
// components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/gtfsload/internal/feed"
	"github.com/JonMunkholm/gtfsload/internal/gtfs"
	"github.com/JonMunkholm/gtfsload/internal/store"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:70rem;color:#1f2937}
table{border-collapse:collapse;width:100%;margin:1rem 0}th,td{border:1px solid #e5e7eb;padding:.35rem .6rem;text-align:left}
th{background:#f3f4f6}.ok{color:#047857}.bad{color:#b91c1c}.alert{border:1px solid #fca5a5;background:#fef2f2;padding:.75rem;border-radius:.375rem}
code{font-size:.9em}`

// writer accumulates the first write error so components can emit markup
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

// text writes s HTML-escaped.
func (w *writer) text(s string) {
	w.raw("%s", templ.EscapeString(s))
}

func layout(title string, body func(*writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>")
		w.text(title)
		w.raw("</title><style>%s</style></head><body>", pageStyle)
		body(w)
		w.raw("</body></html>")
		return w.err
	})
}

// ErrorAlert renders an error fragment for HTMX requests.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="alert" role="alert"><strong>`)
		w.text(message)
		w.raw("</strong>")
		if action != "" {
			w.raw("<p>")
			w.text(action)
			w.raw("</p>")
		}
		w.raw("<small>Code: ")
		w.text(code)
		w.raw("</small></div>")
		return w.err
	})
}

// Index lists recent runs and offers an upload form.
func Index(runs []store.Run, tables []gtfs.TableInfo) templ.Component {
	return layout("GTFS feed validation", func(w *writer) {
		w.raw("<h1>GTFS feed validation</h1>")
		w.raw(`<form method="post" action="/api/validate" enctype="multipart/form-data">` +
			`<input type="file" name="file" accept=".zip" required> <button type="submit">Validate</button></form>`)

		w.raw("<h2>Recent runs</h2>")
		if len(runs) == 0 {
			w.raw("<p>No runs yet.</p>")
		} else {
			w.raw("<table><tr><th>Feed</th><th>Started</th><th>Rows</th><th>Errors</th><th>Result</th></tr>")
			for _, r := range runs {
				w.raw(`<tr><td><a href="/runs/%s">`, r.ID)
				w.text(r.FeedID)
				w.raw("</a></td><td>")
				w.text(humanize.Time(r.Started))
				w.raw("</td><td>%s</td><td>%s</td><td>", humanize.Comma(r.Rows), humanize.Comma(int64(r.ErrorCount)))
				outcome(w, r)
				w.raw("</td></tr>")
			}
			w.raw("</table>")
		}

		w.raw("<h2>Tables</h2><table><tr><th>File</th><th>Required</th><th>Required columns</th></tr>")
		for _, t := range tables {
			w.raw("<tr><td><code>")
			w.text(t.Name + ".txt")
			w.raw("</code></td><td>%s</td><td>", yesNo(t.Required))
			w.text(strings.Join(t.RequiredColumns, ", "))
			w.raw("</td></tr>")
		}
		w.raw("</table>")
	})
}

// RunPage renders one stored run with its errors. truncated is set when
// more errors exist than were loaded.
func RunPage(run store.Run, errs []feed.ValidationError, truncated bool) templ.Component {
	return layout("Run "+run.FeedID, func(w *writer) {
		w.raw(`<p><a href="/">&larr; All runs</a></p><h1>`)
		w.text(run.FeedID)
		w.raw("</h1><p>")
		outcome(w, run)
		w.raw(" &middot; ")
		w.text(run.Source)
		w.raw(" &middot; started ")
		w.text(run.Started.UTC().Format(time.RFC3339))
		w.raw(" &middot; %s rows in ", humanize.Comma(run.Rows))
		w.text(run.Duration.Round(time.Millisecond).String())
		w.raw("</p>")

		if run.Failure != "" {
			w.raw(`<div class="alert"><strong>Load stopped:</strong> `)
			w.text(run.Failure)
			w.raw("</div>")
		}

		w.raw("<h2>Tables</h2><table><tr><th>Table</th><th>State</th><th>Rows</th><th>Size</th><th>Time</th></tr>")
		for _, t := range run.Tables {
			w.raw("<tr><td>")
			w.text(t.Table)
			w.raw("</td><td>")
			w.text(t.State.String())
			w.raw("</td><td>%s</td><td>%s</td><td>", humanize.Comma(t.Rows), humanize.Bytes(uint64(t.Bytes)))
			w.text(t.Duration.Round(time.Millisecond).String())
			w.raw("</td></tr>")
		}
		w.raw("</table>")

		w.raw("<h2>Errors (%s)</h2>", humanize.Comma(int64(run.ErrorCount)))
		if len(errs) == 0 {
			w.raw("<p>None.</p>")
			return
		}
		w.raw(`<p><a href="/api/runs/%s/errors?format=csv">Download CSV</a></p>`, run.ID)
		w.raw("<table><tr><th>Code</th><th>Table</th><th>Row</th><th>Column</th><th>Problem</th></tr>")
		for _, e := range errs {
			w.raw("<tr><td>%s</td><td>", feed.Describe(e.Kind).Code)
			w.text(e.Table)
			w.raw("</td><td>")
			if e.Row > 0 {
				w.raw("%d", e.Row)
			}
			w.raw("</td><td>")
			w.text(e.Column)
			w.raw("</td><td>")
			w.text(e.Error())
			w.raw("</td></tr>")
		}
		w.raw("</table>")
		if truncated {
			w.raw("<p>Only the first %d errors are shown.</p>", len(errs))
		}
	})
}

func outcome(w *writer, r store.Run) {
	switch {
	case r.Failure != "":
		w.raw(`<span class="bad">failed</span>`)
	case r.Valid():
		w.raw(`<span class="ok">valid</span>`)
	default:
		w.raw(`<span class="bad">invalid</span>`)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
