package dashboard

import (
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/components"

	"booksdash/internal/warehouse"
)

// PageHandler renders the HTML pages: the landing page listing the
// generated artifacts and the two chart dashboards.
type PageHandler struct {
	svc        *Service
	datasetDir string
}

func NewPageHandler(svc *Service, datasetDir string) *PageHandler {
	return &PageHandler{svc: svc, datasetDir: datasetDir}
}

var landingTmpl = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Books Dashboard</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; }
li { margin: 0.3rem 0; }
.size { color: #888; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>Books Dashboard</h1>
<p>
<a href="/dashboard">Sales &amp; Genres</a> &middot;
<a href="/dashboard/authors">Author Insights</a>
</p>
<h2>Generated files</h2>
{{if .Files}}
<ul>
{{range .Files}}<li><a href="/dataset/{{.Name}}">{{.Name}}</a> <span class="size">({{.Size}} bytes)</span></li>
{{end}}</ul>
{{else}}
<p>No dataset files yet. Run the prepare command first.</p>
{{end}}
</body>
</html>
`))

type datasetFile struct {
	Name string
	Size int64
}

// Landing lists the files under the dataset directory, the same way the
// artifact browser did before the dashboards existed.
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	var files []datasetFile
	entries, err := os.ReadDir(h.datasetDir)
	if err != nil && !os.IsNotExist(err) {
		log.Printf("landing: read dataset dir: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, datasetFile{Name: filepath.Base(e.Name()), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := landingTmpl.Execute(w, map[string]any{"Files": files}); err != nil {
		log.Printf("landing: render: %v", err)
	}
}

// Main renders the sales dashboard: scorecard trends, genre and format
// breakdowns and the top-10 rankings. Filters arrive as query params.
func (h *PageHandler) Main(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}
	ctx := r.Context()
	measure := normalizeMeasure(p.Measure)

	years, err := h.svc.DefaultYears(ctx, p.years())
	if err != nil {
		internalError(w, r)
		return
	}
	topQuery := p.topQuery()
	topQuery.Years = years

	scorecard, err := h.svc.Scorecard(ctx, years)
	if err != nil {
		internalError(w, r)
		return
	}
	genres, err := h.svc.Genres(ctx, years, measure, 5)
	if err != nil {
		internalError(w, r)
		return
	}
	formats, err := h.svc.Formats(ctx, years, measure)
	if err != nil {
		internalError(w, r)
		return
	}
	books, err := h.svc.TopBooks(ctx, topQuery)
	if err != nil {
		internalError(w, r)
		return
	}
	authors, err := h.svc.TopAuthors(ctx, topQuery)
	if err != nil {
		internalError(w, r)
		return
	}
	publishers, err := h.svc.TopPublishers(ctx, topQuery)
	if err != nil {
		internalError(w, r)
		return
	}

	page := components.NewPage()
	page.PageTitle = "Books Dashboard"
	page.AddCharts(
		salesTrendChart(scorecard),
		genrePieChart(genres),
		genreTrendChart(genres),
		genreTreemapChart(genres),
		formatComparisonChart(formats),
		priceTrendChart(formats),
		topBooksChart(books, measure),
		topAuthorsChart(authors, measure),
		topPublishersChart(publishers, measure),
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		log.Printf("dashboard: render: %v", err)
	}
}

// Authors renders the author-insights page: sentiment split and trend
// plus the positive and negative review word clouds.
func (h *PageHandler) Authors(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}
	ctx := r.Context()
	filter := p.reviewFilter()

	sentiment, err := h.svc.ReviewSentiment(ctx, filter)
	if err != nil {
		internalError(w, r)
		return
	}
	positive, err := h.svc.WordCloud(ctx, filter, warehouse.SentimentPositive, 100)
	if err != nil {
		internalError(w, r)
		return
	}
	negative, err := h.svc.WordCloud(ctx, filter, warehouse.SentimentNegative, 100)
	if err != nil {
		internalError(w, r)
		return
	}

	page := components.NewPage()
	page.PageTitle = "Author Insights"
	page.AddCharts(
		sentimentDonutChart(sentiment.Counts),
		sentimentTrendChart(sentiment.Trend),
		wordCloudChart("Positive Review Words", positive),
		wordCloudChart("Negative Review Words", negative),
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		log.Printf("authors page: render: %v", err)
	}
}
