// ABOUTME: Self-contained HTML report of an analysis session
// ABOUTME: Inline CSS only; sentinel rows are rendered with a distinct class
package export

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/models"
)

// SentinelClass is the CSS class applied to rows that were not classified; the stylesheet hardcodes it
const SentinelClass = "row-sentinel"

// ReportOptions describes what to render
type ReportOptions struct {
	Title       string
	Topics      []models.Topic
	Rows        []models.AssignedRecord
	Filter      core.Filter
	TotalCount  int
	GeneratedAt time.Time
}

type reportTopic struct {
	models.Topic
	Count int
}

type reportRow struct {
	models.AssignedRecord
	Class string
}

type reportData struct {
	Title         string
	GeneratedAt   string
	FilterSummary string
	TotalCount    int
	ShownCount    int
	Sentinels     int
	HasCategory   bool
	HasRegion     bool
	Topics        []reportTopic
	Categories    []core.Count
	Rows          []reportRow
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} - Analysis</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: #f5f5f5; color: #333; line-height: 1.6; }
.container { max-width: 1200px; margin: 0 auto; padding: 20px; }
header { background: #4f46e5; color: #fff; padding: 30px 0; text-align: center; }
h1 { font-size: 2.2rem; margin-bottom: 10px; }
.meta { font-size: 0.9rem; opacity: 0.9; }
section { background: #fff; border-radius: 8px; padding: 20px; margin: 20px 0; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
h2 { color: #4f46e5; margin-bottom: 12px; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: 8px; border-bottom: 1px solid #e5e7eb; vertical-align: top; }
th { background: #f8f9fa; }
.subtopics span { display: inline-block; background: #eef2ff; color: #3730a3; border-radius: 12px; padding: 0 8px; margin: 2px; font-size: 0.85rem; }
.row-sentinel { background: #fef2f2; color: #991b1b; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<div class="meta">Generated {{.GeneratedAt}} &middot; {{.ShownCount}} of {{.TotalCount}} rows &middot; {{.FilterSummary}}</div>
</header>
<div class="container">
<section>
<h2>Topics</h2>
<table>
<thead><tr><th>Topic</th><th>Description</th><th>Subtopics</th><th>Rows</th></tr></thead>
<tbody>
{{range .Topics}}<tr><td>{{.Name}}</td><td>{{.Description}}</td><td class="subtopics">{{range .SubTopics}}<span>{{.}}</span>{{end}}</td><td>{{.Count}}</td></tr>
{{end}}</tbody>
</table>
{{if .Sentinels}}<p>{{.Sentinels}} rows could not be classified.</p>{{end}}
</section>
{{if .Categories}}<section>
<h2>Categories</h2>
<table>
<tbody>
{{range .Categories}}<tr><td>{{.Value}}</td><td>{{.Count}}</td></tr>
{{end}}</tbody>
</table>
</section>
{{end}}<section>
<h2>Rows</h2>
<table>
<thead><tr><th>ID</th><th>Text</th><th>Topic</th><th>Subtopic</th>{{if .HasCategory}}<th>Category</th>{{end}}{{if .HasRegion}}<th>Region</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr{{if .Class}} class="{{.Class}}"{{end}}><td>{{.ID}}</td><td>{{.OriginalText}}</td><td>{{.Topic}}</td><td>{{.SubTopic}}</td>{{if $.HasCategory}}<td>{{.Category}}</td>{{end}}{{if $.HasRegion}}<td>{{.Region}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</section>
</div>
</body>
</html>
`))

// WriteHTML renders a standalone report
func WriteHTML(w io.Writer, opts ReportOptions) error {
	if opts.Title == "" {
		opts.Title = "Topic analysis"
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	if opts.TotalCount < len(opts.Rows) {
		opts.TotalCount = len(opts.Rows)
	}

	facets := core.Facets(opts.Rows)
	counts := make(map[string]int, len(facets.Topics))
	for _, c := range facets.Topics {
		counts[c.Value] = c.Count
	}

	data := reportData{
		Title:         opts.Title,
		GeneratedAt:   opts.GeneratedAt.Format("2006-01-02 15:04"),
		FilterSummary: filterSummary(opts.Filter),
		TotalCount:    opts.TotalCount,
		ShownCount:    len(opts.Rows),
		Sentinels:     facets.Sentinels,
		Categories:    facets.Categories,
	}
	for _, t := range opts.Topics {
		data.Topics = append(data.Topics, reportTopic{Topic: t, Count: counts[t.Name]})
	}
	for _, r := range opts.Rows {
		row := reportRow{AssignedRecord: r}
		if r.IsSentinel() {
			row.Class = SentinelClass
		}
		data.HasCategory = data.HasCategory || r.Category != ""
		data.HasRegion = data.HasRegion || r.Region != ""
		data.Rows = append(data.Rows, row)
	}

	return reportTemplate.Execute(w, data)
}

func filterSummary(f core.Filter) string {
	var parts []string
	if f.Topic != "" {
		parts = append(parts, "Topic: "+f.Topic)
	}
	if f.SubTopic != "" {
		parts = append(parts, "Subtopic: "+f.SubTopic)
	}
	if f.Category != "" {
		parts = append(parts, "Category: "+f.Category)
	}
	if f.Region != "" {
		parts = append(parts, "Region: "+f.Region)
	}
	if len(parts) == 0 {
		return "No filter"
	}
	return strings.Join(parts, " | ")
}
