package warehouse

import (
	"context"
	"time"
)

// Reader is the query surface the dashboard uses.
type Reader interface {
	Scorecard(ctx context.Context, years YearRange) ([]ScorecardRow, error)
	Genres(ctx context.Context, years YearRange) ([]GenreRow, error)
	Formats(ctx context.Context, years YearRange) ([]FormatRow, error)
	TopBooks(ctx context.Context, q TopQuery) ([]TopBookRow, error)
	TopAuthors(ctx context.Context, q TopQuery) ([]TopAuthorRow, error)
	TopPublishers(ctx context.Context, q TopQuery) ([]TopPublisherRow, error)

	SentimentCounts(ctx context.Context, f ReviewFilter) (SentimentCounts, error)
	SentimentTrend(ctx context.Context, f ReviewFilter) ([]TrendPoint, error)
	MostHelpfulReview(ctx context.Context, f ReviewFilter, sentiment int) (ReviewRow, error)
	ReviewTexts(ctx context.Context, f ReviewFilter, sentiment int, limit int) ([]string, error)
	AuthorNames(ctx context.Context) ([]string, error)

	YearBounds(ctx context.Context) (min, max int, err error)
	Ping(ctx context.Context) error
}

// Writer is the persistence surface the prepare pipeline uses. Each
// Replace call swaps the full table contents in one transaction.
type Writer interface {
	ReplaceScorecard(ctx context.Context, rows []ScorecardRow) error
	ReplaceGenres(ctx context.Context, rows []GenreRow) error
	ReplaceFormats(ctx context.Context, rows []FormatRow) error
	ReplaceTopBooks(ctx context.Context, rows []TopBookRow) error
	ReplaceTopAuthors(ctx context.Context, rows []TopAuthorRow) error
	ReplaceTopPublishers(ctx context.Context, rows []TopPublisherRow) error
	ReplaceReviews(ctx context.Context, rows []ReviewRow) error

	CreateRun(ctx context.Context, run *Run) (string, error)
	UpdateRun(ctx context.Context, run *Run) error
}

// timeString round-trips dates through the TEXT columns sqlite stores.
const timeLayout = time.RFC3339
