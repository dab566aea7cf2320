package dashboard

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"booksdash/internal/warehouse"
)

const chartTheme = "walden"

func lineChart(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartTheme}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	return line
}

func barChart(title, subtitle string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartTheme}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	return bar
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: v}
	}
	return data
}

// salesTrendChart plots total books, reviews and sales per publication
// year, one line per metric.
func salesTrendChart(view ScorecardView) *charts.Line {
	years := make([]int, len(view.Rows))
	books := make([]opts.LineData, len(view.Rows))
	reviews := make([]opts.LineData, len(view.Rows))
	sales := make([]opts.LineData, len(view.Rows))
	for i, r := range view.Rows {
		years[i] = r.Year
		books[i] = opts.LineData{Value: r.TotalBooks}
		reviews[i] = opts.LineData{Value: r.TotalReviews}
		sales[i] = opts.LineData{Value: r.TotalSales}
	}

	line := lineChart("Yearly Trends", "Books, reviews and estimated sales by publication year")
	line.SetXAxis(years).
		AddSeries("Books", books).
		AddSeries("Reviews", reviews).
		AddSeries("Est. Sales", sales).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

// genrePieChart shows the top genres' share of the selected measure,
// with everything else folded into an "Other" slice.
func genrePieChart(view GenreView) *charts.Pie {
	var items []opts.PieData
	var topSum, grand float64
	for _, g := range view.Totals {
		grand += g.Value
	}
	for _, g := range view.TopGenres {
		items = append(items, opts.PieData{Name: g.Genre, Value: g.Value})
		topSum += g.Value
	}
	if rest := grand - topSum; rest > 0 {
		items = append(items, opts.PieData{Name: "Other", Value: rest})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartTheme}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Genre Share",
			Subtitle: fmt.Sprintf("Top genres by %s (%.1f%% of total)", view.Measure, view.TopShare),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	pie.AddSeries("genres", items).
		SetSeriesOptions(
			charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
		)
	return pie
}

// genreTrendChart stacks the top genres' per-year values.
func genreTrendChart(view GenreView) *charts.Bar {
	bar := barChart("Genre Trends", fmt.Sprintf("Top genres by %s per publication year", view.Measure))
	bar.SetXAxis(view.Years)
	for _, s := range view.Series {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(s.Genre, data)
	}
	bar.SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "genres"}))
	return bar
}

// genreTreemapChart sizes every genre, not just the top slice, by the
// selected measure.
func genreTreemapChart(view GenreView) *charts.TreeMap {
	nodes := make([]opts.TreeMapNode, len(view.Totals))
	for i, g := range view.Totals {
		nodes[i] = opts.TreeMapNode{Name: g.Genre, Value: int(g.Value)}
	}

	tm := charts.NewTreeMap()
	tm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartTheme}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("All Genres by %s", view.Measure)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	tm.AddSeries("genres", nodes).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}"}))
	return tm
}

// formatComparisonChart compares the book formats on the selected measure.
func formatComparisonChart(view FormatView) *charts.Bar {
	formats := make([]string, len(view.Comparison))
	values := make([]opts.BarData, len(view.Comparison))
	for i, f := range view.Comparison {
		formats[i] = f.BookFormat
		values[i] = opts.BarData{Value: f.Value}
	}

	bar := barChart("Format Comparison", fmt.Sprintf("Total %s by book format", view.Measure))
	bar.SetXAxis(formats).AddSeries(view.Measure, values)
	return bar
}

// priceTrendChart plots the average price per year for every format plus
// the all-formats average.
func priceTrendChart(view FormatView) *charts.Line {
	line := lineChart("Average Price Trends", "Average list price by publication year")
	line.SetXAxis(view.Years).AddSeries(warehouse.AllFormats, lineData(view.AllPrices))
	for _, s := range view.ByFormat {
		line.AddSeries(s.BookFormat, lineData(s.Prices))
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

// rankedBarChart draws a horizontal top-N bar. Rows arrive best-first;
// the axis is flipped so the best entry renders at the top.
func rankedBarChart(title, seriesName string, labels []string, values []float64) *charts.Bar {
	n := len(labels)
	revLabels := make([]string, n)
	data := make([]opts.BarData, n)
	for i := 0; i < n; i++ {
		revLabels[i] = labels[n-1-i]
		data[i] = opts.BarData{Value: values[n-1-i]}
	}

	bar := barChart(title, "")
	bar.SetXAxis(revLabels).
		AddSeries(seriesName, data).
		XYReversal()
	return bar
}

func measureValue(measure string, reviews int, sales float64) float64 {
	if measure == warehouse.MeasureReviews {
		return float64(reviews)
	}
	return sales
}

func topBooksChart(rows []warehouse.TopBookRow, measure string) *charts.Bar {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = truncate(r.Title, 40)
		values[i] = measureValue(measure, r.TotalReviews, r.TotalSales)
	}
	return rankedBarChart(fmt.Sprintf("Top Books by %s", measure), measure, labels, values)
}

func topAuthorsChart(rows []warehouse.TopAuthorRow, measure string) *charts.Bar {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.AuthorName
		values[i] = measureValue(measure, r.TotalReviews, r.TotalSales)
	}
	return rankedBarChart(fmt.Sprintf("Top Authors by %s", measure), measure, labels, values)
}

func topPublishersChart(rows []warehouse.TopPublisherRow, measure string) *charts.Bar {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Publisher
		values[i] = measureValue(measure, r.TotalReviews, r.TotalSales)
	}
	return rankedBarChart(fmt.Sprintf("Top Publishers by %s", measure), measure, labels, values)
}

// sentimentDonutChart shows the positive/neutral/negative split.
func sentimentDonutChart(counts warehouse.SentimentCounts) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartTheme}),
		charts.WithTitleOpts(opts.Title{Title: "Review Sentiment"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	pie.AddSeries("sentiment", []opts.PieData{
		{Name: "Positive", Value: counts.Positive},
		{Name: "Neutral", Value: counts.Neutral},
		{Name: "Negative", Value: counts.Negative},
	}).SetSeriesOptions(
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
	)
	return pie
}

// sentimentTrendChart plots monthly positive and negative review counts.
func sentimentTrendChart(trend []warehouse.TrendPoint) *charts.Line {
	months := make([]string, len(trend))
	pos := make([]opts.LineData, len(trend))
	neg := make([]opts.LineData, len(trend))
	for i, p := range trend {
		months[i] = p.Month
		pos[i] = opts.LineData{Value: p.Positive}
		neg[i] = opts.LineData{Value: p.Negative}
	}

	line := lineChart("Monthly Sentiment Trend", "Positive vs. negative reviews per month")
	line.SetXAxis(months).
		AddSeries("Positive", pos).
		AddSeries("Negative", neg).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

// wordCloudChart renders one sentiment's weighted review vocabulary.
func wordCloudChart(title string, words []WordWeight) *charts.WordCloud {
	data := make([]opts.WordCloudData, len(words))
	for i, w := range words {
		data[i] = opts.WordCloudData{Name: w.Word, Value: w.Count}
	}

	wc := charts.NewWordCloud()
	wc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartTheme}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	wc.AddSeries("words", data).
		SetSeriesOptions(charts.WithWorldCloudChartOpts(opts.WordCloudChart{
			SizeRange: []float32{14, 60},
		}))
	return wc
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
