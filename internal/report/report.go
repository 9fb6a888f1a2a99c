// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders the downloadable search methodology report: a
// self-contained HTML document built from the final search metrics. The
// query text is user-supplied and untrusted; html/template escapes it (and
// every other interpolated value) contextually, so no markup from a query
// string can ever reach the output executable.
package report

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

var reportTmpl = template.Must(template.New("methodology").Funcs(template.FuncMap{
	"elapsed": formatElapsed,
	"tier":    tierLabel,
}).Parse(reportHTML))

// reportData wraps the metrics with presentation fields the template needs.
type reportData struct {
	types.SearchMetrics
	GeneratedAt time.Time
}

// Render writes the methodology report for m to w. A zero-valued metrics
// snapshot is valid input and produces a sparse but coherent document.
func Render(w io.Writer, m types.SearchMetrics) error {
	data := reportData{SearchMetrics: m, GeneratedAt: time.Now()}
	if err := reportTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering methodology report: %w", err)
	}
	return nil
}

func formatElapsed(ms int64) string {
	if ms <= 0 {
		return "—"
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func tierLabel(t types.SemanticTier) string {
	switch t {
	case types.TierImmediate:
		return "Immediate (first pass)"
	case types.TierRefined:
		return "Refined (second pass)"
	case types.TierComplete:
		return "Complete (full depth)"
	default:
		return "Not run"
	}
}

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Search Methodology Report</title>
<style>
body { font-family: Georgia, serif; max-width: 720px; margin: 2rem auto; color: #1a1a2e; }
h1 { border-bottom: 2px solid #1a1a2e; padding-bottom: .4rem; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #ccc; }
.meta { color: #555; font-size: .9rem; }
.error { color: #a02020; }
</style>
</head>
<body>
<h1>Search Methodology Report</h1>
<p class="meta">Session {{.SessionID}} &middot; generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>

<h2>Query</h2>
<p>{{if .Query}}{{.Query}}{{else}}<em>No query recorded</em>{{end}}</p>

<h2>Summary</h2>
<table>
<tr><th>Papers selected</th><td>{{.PapersFound}}</td></tr>
<tr><th>Papers collected (pre-deduplication)</th><td>{{.RawPaperCount}}</td></tr>
<tr><th>Duplicates removed</th><td>{{.DuplicatesRemoved}}</td></tr>
<tr><th>Sources searched</th><td>{{.SourcesComplete}} of {{.SourcesTotal}}</td></tr>
<tr><th>Semantic ranking depth</th><td>{{tier .SemanticTier}}</td></tr>
<tr><th>Elapsed time</th><td>{{elapsed .ElapsedMs}}</td></tr>
<tr><th>Quality score</th><td>{{.Quality}}/100</td></tr>
</table>

{{if .Sources}}
<h2>Sources</h2>
<table>
<tr><th>Source</th><th>Status</th><th>Papers</th><th>Time</th></tr>
{{range .Sources}}
<tr>
<td>{{.ID}}</td>
<td>{{.Status}}{{if .Error}} <span class="error">({{.Error}})</span>{{end}}</td>
<td>{{.PaperCount}}</td>
<td>{{elapsed .TimeMs}}</td>
</tr>
{{end}}
</table>
{{end}}

<h2>Method</h2>
<p>The query was analyzed for intent, fanned out to {{.SourcesTotal}} federated
academic sources, deduplicated across sources, ranked by progressive semantic
passes, and filtered to the highest-quality selection.</p>
</body>
</html>
`
