// Package warehouse holds the derived tables the dashboard reads: the
// intermediate artifact produced by the prepare pipeline.
package warehouse

import "time"

// Sentiment labels on cleaned reviews.
const (
	SentimentNegative = 0
	SentimentNeutral  = 1
	SentimentPositive = 2
)

// ScorecardRow is one year of headline totals. TotalSales is the sales
// proxy sum(rating * price) carried over from the source dataset.
type ScorecardRow struct {
	Year         int     `csv:"year" json:"year"`
	TotalBooks   int     `csv:"total_books" json:"total_books"`
	TotalReviews int     `csv:"total_reviews" json:"total_reviews"`
	TotalSales   float64 `csv:"total_sales" json:"total_sales"`
}

// GenreRow is one (year, genre) aggregate.
type GenreRow struct {
	Year        int     `csv:"year" json:"year"`
	Genre       string  `csv:"genre" json:"genre"`
	BookCount   int     `csv:"book_count" json:"book_count"`
	ReviewCount int     `csv:"review_count" json:"review_count"`
	TotalSales  float64 `csv:"total_sales" json:"total_sales"`
}

// AllFormats is the per-year rollup row in the formats table.
const AllFormats = "All Formats"

// FormatRow is one (year, book format) aggregate.
type FormatRow struct {
	Year         int     `csv:"year" json:"year"`
	BookFormat   string  `csv:"book_format" json:"book_format"`
	TotalReviews int     `csv:"total_reviews" json:"total_reviews"`
	TotalSales   float64 `csv:"total_sales" json:"total_sales"`
	AvgPrice     float64 `csv:"avg_price" json:"avg_price"`
}

// TopBookRow is one (year, title, author) aggregate.
type TopBookRow struct {
	Year         int     `csv:"year" json:"year,omitempty"`
	Title        string  `csv:"title" json:"title"`
	AuthorName   string  `csv:"author_name" json:"author_name"`
	Genre        string  `csv:"genre" json:"genre"`
	TotalReviews int     `csv:"total_reviews" json:"total_reviews"`
	TotalSales   float64 `csv:"total_sales" json:"total_sales"`
}

// TopAuthorRow is one (year, author) aggregate.
type TopAuthorRow struct {
	Year         int     `csv:"year" json:"year,omitempty"`
	AuthorName   string  `csv:"author_name" json:"author_name"`
	TotalReviews int     `csv:"total_reviews" json:"total_reviews"`
	TotalSales   float64 `csv:"total_sales" json:"total_sales"`
}

// TopPublisherRow is one (year, publisher) aggregate.
type TopPublisherRow struct {
	Year         int     `csv:"year" json:"year,omitempty"`
	Publisher    string  `csv:"publisher" json:"publisher"`
	TotalReviews int     `csv:"total_reviews" json:"total_reviews"`
	TotalSales   float64 `csv:"total_sales" json:"total_sales"`
}

// ReviewRow is one cleaned review joined to its book.
type ReviewRow struct {
	Title       string    `csv:"title" json:"title"`
	AuthorName  string    `csv:"author_name" json:"author_name"`
	Category    string    `csv:"category_level_3_detail" json:"category"`
	Date        time.Time `csv:"-" json:"date"`
	Rating      float64   `csv:"rating" json:"rating"`
	Sentiment   int       `csv:"sentiment_rating" json:"sentiment"`
	Text        string    `csv:"text" json:"text"`
	CleanText   string    `csv:"clean_text" json:"clean_text"`
	HelpfulVote int       `csv:"helpful_vote" json:"helpful_vote"`

	// DateString mirrors Date for the CSV export; gocsv has no native
	// time handling and the original artifact stores dates as text.
	DateString string `csv:"date" json:"-"`
}

// Run records one prepare pipeline execution.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Status        string // RUNNING, COMPLETED, FAILED
	MetadataRows  int
	ReviewRows    int
	CleanRows     int
	DatasetDir    string
	WarehousePath string
	Error         string
}

// YearRange bounds year-grouped queries; a zero bound is open.
type YearRange struct {
	From int
	To   int
}

// Measures for top-N ordering.
const (
	MeasureSales   = "sales"
	MeasureReviews = "reviews"
)

// TopQuery selects top-N rows ordered by a measure.
type TopQuery struct {
	Years   YearRange
	Measure string // sales or reviews; sales when empty
	Genre   string
	Limit   int
}

// ReviewFilter narrows cleaned reviews for the author-insights views.
type ReviewFilter struct {
	Author   string
	Category string
	From     time.Time
	To       time.Time
}

// SentimentCounts holds the distribution for the donut chart.
type SentimentCounts struct {
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Positive int `json:"positive"`
}

// TrendPoint is one month of the sentiment trend.
type TrendPoint struct {
	Month    string `json:"month"` // YYYY-MM
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
}
