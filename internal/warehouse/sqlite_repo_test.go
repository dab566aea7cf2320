package warehouse

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	migrations := filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")

	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(db, migrations))

	return NewSQLiteRepo(db, 5*time.Second)
}

func TestScorecardRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := []ScorecardRow{
		{Year: 1999, TotalBooks: 10, TotalReviews: 100, TotalSales: 1500.5},
		{Year: 2014, TotalBooks: 25, TotalReviews: 400, TotalSales: 9000},
		{Year: 2020, TotalBooks: 5, TotalReviews: 50, TotalSales: 300},
	}
	require.NoError(t, repo.ReplaceScorecard(ctx, in))

	t.Run("all years", func(t *testing.T) {
		out, err := repo.Scorecard(ctx, YearRange{})
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("year range filter", func(t *testing.T) {
		out, err := repo.Scorecard(ctx, YearRange{From: 2000, To: 2019})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, 2014, out[0].Year)
	})

	t.Run("replace swaps contents", func(t *testing.T) {
		require.NoError(t, repo.ReplaceScorecard(ctx, []ScorecardRow{{Year: 2021, TotalBooks: 1}}))
		out, err := repo.Scorecard(ctx, YearRange{})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, 2021, out[0].Year)
	})

	t.Run("year bounds", func(t *testing.T) {
		min, max, err := repo.YearBounds(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2021, min)
		assert.Equal(t, 2021, max)
	})
}

func TestTopBooks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceTopBooks(ctx, []TopBookRow{
		{Year: 2010, Title: "Alpha", AuthorName: "Ada", Genre: "Fiction", TotalReviews: 50, TotalSales: 100},
		{Year: 2011, Title: "Alpha", AuthorName: "Ada", Genre: "Fiction", TotalReviews: 30, TotalSales: 900},
		{Year: 2010, Title: "Beta", AuthorName: "Ben", Genre: "History", TotalReviews: 200, TotalSales: 400},
	}))

	t.Run("orders by sales and merges years", func(t *testing.T) {
		out, err := repo.TopBooks(ctx, TopQuery{Measure: MeasureSales, Limit: 10})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "Alpha", out[0].Title)
		assert.Equal(t, 1000.0, out[0].TotalSales)
		assert.Equal(t, 80, out[0].TotalReviews)
	})

	t.Run("orders by reviews", func(t *testing.T) {
		out, err := repo.TopBooks(ctx, TopQuery{Measure: MeasureReviews, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, "Beta", out[0].Title)
	})

	t.Run("genre filter", func(t *testing.T) {
		out, err := repo.TopBooks(ctx, TopQuery{Genre: "History", Limit: 10})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Beta", out[0].Title)
	})

	t.Run("limit applies", func(t *testing.T) {
		out, err := repo.TopBooks(ctx, TopQuery{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})
}

func TestTopAuthorsGenreRestriction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceTopBooks(ctx, []TopBookRow{
		{Year: 2010, Title: "Alpha", AuthorName: "Ada", Genre: "Fiction", TotalReviews: 10, TotalSales: 10},
	}))
	require.NoError(t, repo.ReplaceTopAuthors(ctx, []TopAuthorRow{
		{Year: 2010, AuthorName: "Ada", TotalReviews: 10, TotalSales: 10},
		{Year: 2010, AuthorName: "Ben", TotalReviews: 99, TotalSales: 99},
	}))

	// Ben outsells Ada but never appears under Fiction in the top-books
	// table, so the genre filter drops him.
	out, err := repo.TopAuthors(ctx, TopQuery{Genre: "Fiction", Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Ada", out[0].AuthorName)
}

func TestReviews(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	jan := time.Date(2015, time.January, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2015, time.February, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.ReplaceReviews(ctx, []ReviewRow{
		{Title: "Alpha", AuthorName: "Ada", Category: "Fiction", Date: jan, Rating: 5, Sentiment: SentimentPositive, Text: "loved it", CleanText: "loved it", HelpfulVote: 7},
		{Title: "Alpha", AuthorName: "Ada", Category: "Fiction", Date: feb, Rating: 1, Sentiment: SentimentNegative, Text: "awful", CleanText: "awful", HelpfulVote: 2},
		{Title: "Beta", AuthorName: "Ben", Category: "History", Date: feb, Rating: 3, Sentiment: SentimentNeutral, Text: "fine", CleanText: "fine", HelpfulVote: 0},
	}))

	t.Run("sentiment counts", func(t *testing.T) {
		counts, err := repo.SentimentCounts(ctx, ReviewFilter{})
		require.NoError(t, err)
		assert.Equal(t, SentimentCounts{Negative: 1, Neutral: 1, Positive: 1}, counts)
	})

	t.Run("author filter", func(t *testing.T) {
		counts, err := repo.SentimentCounts(ctx, ReviewFilter{Author: "Ben"})
		require.NoError(t, err)
		assert.Equal(t, SentimentCounts{Neutral: 1}, counts)
	})

	t.Run("date range filter", func(t *testing.T) {
		counts, err := repo.SentimentCounts(ctx, ReviewFilter{From: feb})
		require.NoError(t, err)
		assert.Equal(t, 0, counts.Positive)
		assert.Equal(t, 1, counts.Negative)
	})

	t.Run("sentiment trend groups by month", func(t *testing.T) {
		trend, err := repo.SentimentTrend(ctx, ReviewFilter{})
		require.NoError(t, err)
		require.Len(t, trend, 2)
		assert.Equal(t, TrendPoint{Month: "2015-01", Positive: 1, Negative: 0}, trend[0])
		assert.Equal(t, TrendPoint{Month: "2015-02", Positive: 0, Negative: 1}, trend[1])
	})

	t.Run("most helpful review", func(t *testing.T) {
		row, err := repo.MostHelpfulReview(ctx, ReviewFilter{}, SentimentPositive)
		require.NoError(t, err)
		assert.Equal(t, "loved it", row.Text)
		assert.Equal(t, 7, row.HelpfulVote)
		assert.Equal(t, jan, row.Date)
	})

	t.Run("most helpful review no match", func(t *testing.T) {
		_, err := repo.MostHelpfulReview(ctx, ReviewFilter{Author: "Nobody"}, SentimentPositive)
		assert.ErrorIs(t, err, ErrNoRows)
	})

	t.Run("review texts", func(t *testing.T) {
		texts, err := repo.ReviewTexts(ctx, ReviewFilter{}, SentimentNegative, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"awful"}, texts)
	})

	t.Run("author names", func(t *testing.T) {
		names, err := repo.AuthorNames(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Ada", "Ben"}, names)
	})
}

func TestUndatedReviewsExcludedFromDateFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	jun := time.Date(2015, time.June, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.ReplaceReviews(ctx, []ReviewRow{
		{Title: "Dated", AuthorName: "Ada", Date: jun, Rating: 5, Sentiment: SentimentPositive, Text: "great", CleanText: "great"},
		{Title: "Undated", AuthorName: "Ada", Rating: 5, Sentiment: SentimentPositive, Text: "also great", CleanText: "also great"},
	}))

	t.Run("to-only filter skips unknown dates", func(t *testing.T) {
		counts, err := repo.SentimentCounts(ctx, ReviewFilter{To: jun})
		require.NoError(t, err)
		assert.Equal(t, SentimentCounts{Positive: 1}, counts)
	})

	t.Run("from-only filter skips unknown dates", func(t *testing.T) {
		counts, err := repo.SentimentCounts(ctx, ReviewFilter{From: jun})
		require.NoError(t, err)
		assert.Equal(t, SentimentCounts{Positive: 1}, counts)
	})

	t.Run("no date filter keeps them", func(t *testing.T) {
		counts, err := repo.SentimentCounts(ctx, ReviewFilter{})
		require.NoError(t, err)
		assert.Equal(t, SentimentCounts{Positive: 2}, counts)
	})
}

func TestBulkReplaceOutlivesQueryTimeout(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// A deadline this short fails every point query immediately; the
	// bulk Replace* path must not inherit it.
	repo.timeout = time.Nanosecond

	require.NoError(t, repo.ReplaceScorecard(ctx, []ScorecardRow{{Year: 2014, TotalBooks: 1}}))

	_, err := repo.Scorecard(ctx, YearRange{})
	assert.Error(t, err)
}

func TestRunLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := &Run{StartedAt: time.Now(), Status: "RUNNING", DatasetDir: "dataset", WarehousePath: "dataset/warehouse.db"}
	id, err := repo.CreateRun(ctx, run)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	run.ID = id

	now := time.Now()
	run.FinishedAt = &now
	run.Status = "COMPLETED"
	run.MetadataRows = 3
	run.ReviewRows = 9
	run.CleanRows = 9
	require.NoError(t, repo.UpdateRun(ctx, run))
}
