// Package dashboard serves the books dashboard: a JSON data API and the
// chart pages bound to the warehouse tables.
package dashboard

import (
	"context"
	"errors"
	"sort"

	"booksdash/internal/warehouse"
)

const (
	defaultTopLimit = 10
	// The original samples filtered reviews down to 10k rows before
	// building word clouds; same cap here.
	wordCloudTextCap = 10000
)

type Service struct {
	repo warehouse.Reader
}

func NewService(repo warehouse.Reader) *Service {
	return &Service{repo: repo}
}

// ScorecardView backs the headline metrics and their sparklines.
type ScorecardView struct {
	Rows         []warehouse.ScorecardRow `json:"rows"`
	TotalBooks   int                      `json:"total_books"`
	TotalReviews int                      `json:"total_reviews"`
	TotalSales   float64                  `json:"total_sales"`
}

func (s *Service) Scorecard(ctx context.Context, years warehouse.YearRange) (ScorecardView, error) {
	rows, err := s.repo.Scorecard(ctx, years)
	if err != nil {
		return ScorecardView{}, err
	}

	view := ScorecardView{Rows: rows}
	for _, r := range rows {
		view.TotalBooks += r.TotalBooks
		view.TotalReviews += r.TotalReviews
		view.TotalSales += r.TotalSales
	}
	return view, nil
}

// DefaultYears widens an unset filter to the warehouse's publication
// year bounds, starting the window at 2000 when older books exist, the
// same default the year slider always had. A partially-set filter is
// returned as-is.
func (s *Service) DefaultYears(ctx context.Context, years warehouse.YearRange) (warehouse.YearRange, error) {
	if years.From != 0 || years.To != 0 {
		return years, nil
	}
	min, max, err := s.repo.YearBounds(ctx)
	if err != nil {
		return years, err
	}
	if max == 0 {
		return years, nil
	}
	if min < 2000 {
		min = 2000
	}
	return warehouse.YearRange{From: min, To: max}, nil
}

// GenreTotal is one genre summed across the selected years.
type GenreTotal struct {
	Genre string  `json:"genre"`
	Value float64 `json:"value"`
}

// GenreSeries is one genre's per-year values, aligned to GenreView.Years.
type GenreSeries struct {
	Genre  string    `json:"genre"`
	Values []float64 `json:"values"`
}

// GenreView backs the genre pie, the stacked trend bars and the treemap.
type GenreView struct {
	Measure   string        `json:"measure"`
	Totals    []GenreTotal  `json:"totals"`
	TopGenres []GenreTotal  `json:"top_genres"`
	TopShare  float64       `json:"top_share_pct"`
	Years     []int         `json:"years"`
	Series    []GenreSeries `json:"series"` // one per top genre
}

func normalizeMeasure(measure string) string {
	if measure == "" {
		return warehouse.MeasureSales
	}
	return measure
}

func (s *Service) Genres(ctx context.Context, years warehouse.YearRange, measure string, limit int) (GenreView, error) {
	measure = normalizeMeasure(measure)
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.repo.Genres(ctx, years)
	if err != nil {
		return GenreView{}, err
	}

	value := func(r warehouse.GenreRow) float64 {
		if measure == warehouse.MeasureReviews {
			return float64(r.ReviewCount)
		}
		return r.TotalSales
	}

	totals := map[string]float64{}
	yearSet := map[int]bool{}
	for _, r := range rows {
		totals[r.Genre] += value(r)
		yearSet[r.Year] = true
	}

	view := GenreView{Measure: measure}
	var grand float64
	for genre, v := range totals {
		view.Totals = append(view.Totals, GenreTotal{Genre: genre, Value: v})
		grand += v
	}
	sort.Slice(view.Totals, func(i, j int) bool {
		if view.Totals[i].Value != view.Totals[j].Value {
			return view.Totals[i].Value > view.Totals[j].Value
		}
		return view.Totals[i].Genre < view.Totals[j].Genre
	})

	top := limit
	if top > len(view.Totals) {
		top = len(view.Totals)
	}
	view.TopGenres = view.Totals[:top]

	var topSum float64
	topSet := map[string]int{}
	for i, g := range view.TopGenres {
		topSum += g.Value
		topSet[g.Genre] = i
	}
	if grand > 0 {
		view.TopShare = topSum / grand * 100
	}

	for year := range yearSet {
		view.Years = append(view.Years, year)
	}
	sort.Ints(view.Years)

	yearIndex := map[int]int{}
	for i, y := range view.Years {
		yearIndex[y] = i
	}

	view.Series = make([]GenreSeries, len(view.TopGenres))
	for i, g := range view.TopGenres {
		view.Series[i] = GenreSeries{Genre: g.Genre, Values: make([]float64, len(view.Years))}
	}
	for _, r := range rows {
		if i, ok := topSet[r.Genre]; ok {
			view.Series[i].Values[yearIndex[r.Year]] += value(r)
		}
	}

	return view, nil
}

// FormatTotal is one format summed across the selected years.
type FormatTotal struct {
	BookFormat string  `json:"book_format"`
	Value      float64 `json:"value"`
	AvgPrice   float64 `json:"avg_price"`
}

// FormatSeries is one format's per-year average price.
type FormatSeries struct {
	BookFormat string    `json:"book_format"`
	Prices     []float64 `json:"prices"`
}

// FormatView backs the format comparison chart and the price trends.
type FormatView struct {
	Measure    string         `json:"measure"`
	Comparison []FormatTotal  `json:"comparison"`
	Years      []int          `json:"years"`
	AllPrices  []float64      `json:"all_formats_prices"`
	ByFormat   []FormatSeries `json:"by_format"`
}

func (s *Service) Formats(ctx context.Context, years warehouse.YearRange, measure string) (FormatView, error) {
	measure = normalizeMeasure(measure)
	rows, err := s.repo.Formats(ctx, years)
	if err != nil {
		return FormatView{}, err
	}

	value := func(r warehouse.FormatRow) float64 {
		if measure == warehouse.MeasureReviews {
			return float64(r.TotalReviews)
		}
		return r.TotalSales
	}

	totals := map[string]float64{}
	priceSums := map[string]float64{}
	priceCounts := map[string]int{}
	yearSet := map[int]bool{}

	for _, r := range rows {
		yearSet[r.Year] = true
		if r.BookFormat == warehouse.AllFormats {
			continue
		}
		totals[r.BookFormat] += value(r)
		priceSums[r.BookFormat] += r.AvgPrice
		priceCounts[r.BookFormat]++
	}

	view := FormatView{Measure: measure}
	for format, v := range totals {
		view.Comparison = append(view.Comparison, FormatTotal{
			BookFormat: format,
			Value:      v,
			AvgPrice:   priceSums[format] / float64(priceCounts[format]),
		})
	}
	sort.Slice(view.Comparison, func(i, j int) bool {
		if view.Comparison[i].Value != view.Comparison[j].Value {
			return view.Comparison[i].Value > view.Comparison[j].Value
		}
		return view.Comparison[i].BookFormat < view.Comparison[j].BookFormat
	})

	for year := range yearSet {
		view.Years = append(view.Years, year)
	}
	sort.Ints(view.Years)

	yearIndex := map[int]int{}
	for i, y := range view.Years {
		yearIndex[y] = i
	}

	view.AllPrices = make([]float64, len(view.Years))
	seriesIndex := map[string]int{}
	for _, r := range rows {
		if r.BookFormat == warehouse.AllFormats {
			view.AllPrices[yearIndex[r.Year]] = r.AvgPrice
			continue
		}
		i, ok := seriesIndex[r.BookFormat]
		if !ok {
			i = len(view.ByFormat)
			seriesIndex[r.BookFormat] = i
			view.ByFormat = append(view.ByFormat, FormatSeries{
				BookFormat: r.BookFormat,
				Prices:     make([]float64, len(view.Years)),
			})
		}
		view.ByFormat[i].Prices[yearIndex[r.Year]] = r.AvgPrice
	}
	sort.Slice(view.ByFormat, func(i, j int) bool {
		return view.ByFormat[i].BookFormat < view.ByFormat[j].BookFormat
	})

	return view, nil
}

func normalizeTop(q warehouse.TopQuery) warehouse.TopQuery {
	if q.Limit <= 0 {
		q.Limit = defaultTopLimit
	}
	if q.Measure == "" {
		q.Measure = warehouse.MeasureSales
	}
	return q
}

func (s *Service) TopBooks(ctx context.Context, q warehouse.TopQuery) ([]warehouse.TopBookRow, error) {
	return s.repo.TopBooks(ctx, normalizeTop(q))
}

func (s *Service) TopAuthors(ctx context.Context, q warehouse.TopQuery) ([]warehouse.TopAuthorRow, error) {
	return s.repo.TopAuthors(ctx, normalizeTop(q))
}

func (s *Service) TopPublishers(ctx context.Context, q warehouse.TopQuery) ([]warehouse.TopPublisherRow, error) {
	return s.repo.TopPublishers(ctx, normalizeTop(q))
}

// SentimentView backs the sentiment donut and the monthly trend lines.
type SentimentView struct {
	Counts warehouse.SentimentCounts `json:"counts"`
	Trend  []warehouse.TrendPoint    `json:"trend"`
}

func (s *Service) ReviewSentiment(ctx context.Context, f warehouse.ReviewFilter) (SentimentView, error) {
	counts, err := s.repo.SentimentCounts(ctx, f)
	if err != nil {
		return SentimentView{}, err
	}
	trend, err := s.repo.SentimentTrend(ctx, f)
	if err != nil {
		return SentimentView{}, err
	}
	return SentimentView{Counts: counts, Trend: trend}, nil
}

// HighlightsView carries the most-helpful review per sentiment; either
// side is nil when no review matches.
type HighlightsView struct {
	Positive *warehouse.ReviewRow `json:"positive,omitempty"`
	Negative *warehouse.ReviewRow `json:"negative,omitempty"`
}

func (s *Service) ReviewHighlights(ctx context.Context, f warehouse.ReviewFilter) (HighlightsView, error) {
	var view HighlightsView

	pos, err := s.repo.MostHelpfulReview(ctx, f, warehouse.SentimentPositive)
	if err != nil && !errors.Is(err, warehouse.ErrNoRows) {
		return HighlightsView{}, err
	}
	if err == nil {
		view.Positive = &pos
	}

	neg, err := s.repo.MostHelpfulReview(ctx, f, warehouse.SentimentNegative)
	if err != nil && !errors.Is(err, warehouse.ErrNoRows) {
		return HighlightsView{}, err
	}
	if err == nil {
		view.Negative = &neg
	}

	return view, nil
}

// WordCloud returns the weighted words for one sentiment's cloud.
func (s *Service) WordCloud(ctx context.Context, f warehouse.ReviewFilter, sentiment, limit int) ([]WordWeight, error) {
	if limit <= 0 {
		limit = 100
	}
	texts, err := s.repo.ReviewTexts(ctx, f, sentiment, wordCloudTextCap)
	if err != nil {
		return nil, err
	}
	authors, err := s.repo.AuthorNames(ctx)
	if err != nil {
		return nil, err
	}

	banned := BannedWords(authors)
	return WordFrequencies(texts, banned, limit), nil
}
