package pipeline

import (
	"sort"
	"strings"

	"booksdash/internal/dataset"
	"booksdash/internal/warehouse"
)

// Aggregates holds every derived table one prepare run produces.
type Aggregates struct {
	Scorecard     []warehouse.ScorecardRow
	Genres        []warehouse.GenreRow
	Formats       []warehouse.FormatRow
	TopBooks      []warehouse.TopBookRow
	TopAuthors    []warehouse.TopAuthorRow
	TopPublishers []warehouse.TopPublisherRow
	Reviews       []warehouse.ReviewRow
}

// Aggregate reshapes the raw rows into the dashboard tables. Metadata
// rows without a parseable publication date are excluded from every
// year-grouped table; total_sales is the sum(rating * price) proxy.
func Aggregate(meta []dataset.Metadata, reviews []dataset.Review) Aggregates {
	byASIN := make(map[string]dataset.Metadata, len(meta))
	for _, m := range meta {
		byASIN[m.ParentASIN] = m
	}

	type yearKey struct {
		year int
		name string
	}

	scorecardBooks := map[int]int{}
	scorecardReviews := map[int]int{}
	scorecardSales := map[int]float64{}

	genreBooks := map[yearKey]int{}
	genreReviews := map[yearKey]int{}
	genreSales := map[yearKey]float64{}

	formatBooks := map[yearKey]int{}
	formatReviews := map[yearKey]int{}
	formatSales := map[yearKey]float64{}
	formatPrice := map[yearKey]float64{}

	type bookKey struct {
		year   int
		title  string
		author string
	}
	bookGenre := map[bookKey]string{}
	bookReviews := map[bookKey]int{}
	bookSales := map[bookKey]float64{}

	authorReviews := map[yearKey]int{}
	authorSales := map[yearKey]float64{}

	publisherReviews := map[yearKey]int{}
	publisherSales := map[yearKey]float64{}

	// Book-side counts: every dated book counts toward the scorecard
	// whether or not it has reviews (the original uses a left join).
	for _, m := range meta {
		year := m.Year()
		if year == 0 {
			continue
		}
		scorecardBooks[year]++

		if m.Genre != "" {
			genreBooks[yearKey{year, m.Genre}]++
		}
		if m.BookFormat != "" {
			fk := yearKey{year, m.BookFormat}
			formatBooks[fk]++
			formatPrice[fk] += m.PriceNumeric
			all := yearKey{year, warehouse.AllFormats}
			formatBooks[all]++
			formatPrice[all] += m.PriceNumeric
		}

		bk := bookKey{year, m.Title, m.AuthorName}
		if _, seen := bookGenre[bk]; !seen {
			bookGenre[bk] = m.Genre
		}
	}

	var cleanRows []warehouse.ReviewRow

	for _, rv := range reviews {
		m, ok := byASIN[rv.ParentASIN]
		if !ok {
			continue
		}

		year := m.Year()
		sale := rv.Rating * m.PriceNumeric

		if year != 0 {
			scorecardReviews[year]++
			scorecardSales[year] += sale

			if m.Genre != "" {
				gk := yearKey{year, m.Genre}
				genreReviews[gk]++
				genreSales[gk] += sale
			}
			if m.BookFormat != "" {
				fk := yearKey{year, m.BookFormat}
				formatReviews[fk]++
				formatSales[fk] += sale
				all := yearKey{year, warehouse.AllFormats}
				formatReviews[all]++
				formatSales[all] += sale
			}

			bk := bookKey{year, m.Title, m.AuthorName}
			bookReviews[bk]++
			bookSales[bk] += sale

			if m.AuthorName != "" {
				ak := yearKey{year, m.AuthorName}
				authorReviews[ak]++
				authorSales[ak] += sale
			}
			if m.Publisher != "" {
				pk := yearKey{year, m.Publisher}
				publisherReviews[pk]++
				publisherSales[pk] += sale
			}
		}

		cleanRows = append(cleanRows, warehouse.ReviewRow{
			Title:       m.Title,
			AuthorName:  m.AuthorName,
			Category:    m.Genre,
			Date:        rv.Date,
			Rating:      rv.Rating,
			Sentiment:   sentimentOf(rv.Rating),
			Text:        rv.Text,
			CleanText:   CleanText(rv.Text),
			HelpfulVote: rv.HelpfulVote,
		})
	}

	agg := Aggregates{Reviews: cleanRows}

	for year, books := range scorecardBooks {
		agg.Scorecard = append(agg.Scorecard, warehouse.ScorecardRow{
			Year:         year,
			TotalBooks:   books,
			TotalReviews: scorecardReviews[year],
			TotalSales:   scorecardSales[year],
		})
	}
	sort.Slice(agg.Scorecard, func(i, j int) bool { return agg.Scorecard[i].Year < agg.Scorecard[j].Year })

	for gk, books := range genreBooks {
		agg.Genres = append(agg.Genres, warehouse.GenreRow{
			Year:        gk.year,
			Genre:       gk.name,
			BookCount:   books,
			ReviewCount: genreReviews[gk],
			TotalSales:  genreSales[gk],
		})
	}
	sort.Slice(agg.Genres, func(i, j int) bool {
		if agg.Genres[i].Year != agg.Genres[j].Year {
			return agg.Genres[i].Year < agg.Genres[j].Year
		}
		if agg.Genres[i].BookCount != agg.Genres[j].BookCount {
			return agg.Genres[i].BookCount > agg.Genres[j].BookCount
		}
		return agg.Genres[i].Genre < agg.Genres[j].Genre
	})

	for fk, books := range formatBooks {
		agg.Formats = append(agg.Formats, warehouse.FormatRow{
			Year:         fk.year,
			BookFormat:   fk.name,
			TotalReviews: formatReviews[fk],
			TotalSales:   formatSales[fk],
			AvgPrice:     formatPrice[fk] / float64(books),
		})
	}
	sort.Slice(agg.Formats, func(i, j int) bool {
		if agg.Formats[i].Year != agg.Formats[j].Year {
			return agg.Formats[i].Year < agg.Formats[j].Year
		}
		return agg.Formats[i].BookFormat < agg.Formats[j].BookFormat
	})

	for bk := range bookGenre {
		agg.TopBooks = append(agg.TopBooks, warehouse.TopBookRow{
			Year:         bk.year,
			Title:        bk.title,
			AuthorName:   bk.author,
			Genre:        bookGenre[bk],
			TotalReviews: bookReviews[bk],
			TotalSales:   bookSales[bk],
		})
	}
	sort.Slice(agg.TopBooks, func(i, j int) bool {
		if agg.TopBooks[i].Year != agg.TopBooks[j].Year {
			return agg.TopBooks[i].Year < agg.TopBooks[j].Year
		}
		return agg.TopBooks[i].Title < agg.TopBooks[j].Title
	})

	for ak := range authorReviews {
		agg.TopAuthors = append(agg.TopAuthors, warehouse.TopAuthorRow{
			Year:         ak.year,
			AuthorName:   ak.name,
			TotalReviews: authorReviews[ak],
			TotalSales:   authorSales[ak],
		})
	}
	sort.Slice(agg.TopAuthors, func(i, j int) bool {
		if agg.TopAuthors[i].Year != agg.TopAuthors[j].Year {
			return agg.TopAuthors[i].Year < agg.TopAuthors[j].Year
		}
		return agg.TopAuthors[i].AuthorName < agg.TopAuthors[j].AuthorName
	})

	for pk := range publisherReviews {
		agg.TopPublishers = append(agg.TopPublishers, warehouse.TopPublisherRow{
			Year:         pk.year,
			Publisher:    pk.name,
			TotalReviews: publisherReviews[pk],
			TotalSales:   publisherSales[pk],
		})
	}
	sort.Slice(agg.TopPublishers, func(i, j int) bool {
		if agg.TopPublishers[i].Year != agg.TopPublishers[j].Year {
			return agg.TopPublishers[i].Year < agg.TopPublishers[j].Year
		}
		return agg.TopPublishers[i].Publisher < agg.TopPublishers[j].Publisher
	})

	return agg
}

func sentimentOf(rating float64) int {
	switch {
	case rating >= 4:
		return warehouse.SentimentPositive
	case rating >= 3:
		return warehouse.SentimentNeutral
	default:
		return warehouse.SentimentNegative
	}
}

// CleanText lowercases review text and strips everything but letters,
// digits and single spaces, the form the word-cloud tokenizer expects.
func CleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
