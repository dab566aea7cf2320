package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNoRows is returned when a single-row query matches nothing.
var ErrNoRows = errors.New("warehouse: no matching rows")

// Open opens the warehouse file with the pragmas the dashboard and the
// pipeline both need (WAL so the dashboard can read during a re-run).
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse %s: %w", path, err)
	}
	return db, nil
}

type SQLiteRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLiteRepo(db *sql.DB, timeout time.Duration) *SQLiteRepo {
	return &SQLiteRepo{db: db, timeout: timeout}
}

func (r *SQLiteRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Replace* calls rewrite whole tables; reviews_clean alone runs to
// hundreds of thousands of rows, so the bulk path gets a deadline far
// wider than the point-query timeout.
const bulkTimeout = 15 * time.Minute

func withBulkTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, bulkTimeout)
}

func (r *SQLiteRepo) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.PingContext(ctx)
}

func yearClauses(years YearRange, clauses *[]string, args *[]any) {
	if years.From != 0 {
		*clauses = append(*clauses, "year >= ?")
		*args = append(*args, years.From)
	}
	if years.To != 0 {
		*clauses = append(*clauses, "year <= ?")
		*args = append(*args, years.To)
	}
}

func measureColumn(measure string) string {
	if measure == MeasureReviews {
		return "total_reviews"
	}
	return "total_sales"
}

func (r *SQLiteRepo) Scorecard(ctx context.Context, years YearRange) ([]ScorecardRow, error) {
	clauses := []string{"1=1"}
	args := []any{}
	yearClauses(years, &clauses, &args)

	query := "SELECT year, total_books, total_reviews, total_sales FROM scorecard WHERE " +
		strings.Join(clauses, " AND ") + " ORDER BY year"

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scorecard: %w", err)
	}
	defer rows.Close()

	var out []ScorecardRow
	for rows.Next() {
		var row ScorecardRow
		if err := rows.Scan(&row.Year, &row.TotalBooks, &row.TotalReviews, &row.TotalSales); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Genres(ctx context.Context, years YearRange) ([]GenreRow, error) {
	clauses := []string{"1=1"}
	args := []any{}
	yearClauses(years, &clauses, &args)

	query := "SELECT year, genre, book_count, review_count, total_sales FROM genres WHERE " +
		strings.Join(clauses, " AND ") + " ORDER BY year, genre"

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()

	var out []GenreRow
	for rows.Next() {
		var row GenreRow
		if err := rows.Scan(&row.Year, &row.Genre, &row.BookCount, &row.ReviewCount, &row.TotalSales); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Formats(ctx context.Context, years YearRange) ([]FormatRow, error) {
	clauses := []string{"1=1"}
	args := []any{}
	yearClauses(years, &clauses, &args)

	query := "SELECT year, book_format, total_reviews, total_sales, avg_price FROM formats WHERE " +
		strings.Join(clauses, " AND ") + " ORDER BY year, book_format"

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query formats: %w", err)
	}
	defer rows.Close()

	var out []FormatRow
	for rows.Next() {
		var row FormatRow
		if err := rows.Scan(&row.Year, &row.BookFormat, &row.TotalReviews, &row.TotalSales, &row.AvgPrice); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) TopBooks(ctx context.Context, q TopQuery) ([]TopBookRow, error) {
	clauses := []string{"1=1"}
	args := []any{}
	yearClauses(q.Years, &clauses, &args)

	if q.Genre != "" {
		clauses = append(clauses, "genre = ?")
		args = append(args, q.Genre)
	}

	query := fmt.Sprintf(`SELECT title, author_name, COALESCE(MAX(genre), ''),
		SUM(total_reviews), SUM(total_sales)
		FROM top_books WHERE %s
		GROUP BY title, author_name
		ORDER BY SUM(%s) DESC LIMIT ?`,
		strings.Join(clauses, " AND "), measureColumn(q.Measure))
	args = append(args, q.Limit)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top books: %w", err)
	}
	defer rows.Close()

	var out []TopBookRow
	for rows.Next() {
		var row TopBookRow
		if err := rows.Scan(&row.Title, &row.AuthorName, &row.Genre, &row.TotalReviews, &row.TotalSales); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) TopAuthors(ctx context.Context, q TopQuery) ([]TopAuthorRow, error) {
	clauses := []string{"1=1"}
	args := []any{}
	yearClauses(q.Years, &clauses, &args)

	// A genre filter keeps only authors that appear under that genre in
	// the top-books table for the same year window.
	if q.Genre != "" {
		sub := []string{"genre = ?"}
		subArgs := []any{q.Genre}
		yearClauses(q.Years, &sub, &subArgs)
		clauses = append(clauses, fmt.Sprintf(
			"author_name IN (SELECT DISTINCT author_name FROM top_books WHERE %s)",
			strings.Join(sub, " AND ")))
		args = append(args, subArgs...)
	}

	query := fmt.Sprintf(`SELECT author_name, SUM(total_reviews), SUM(total_sales)
		FROM top_authors WHERE %s
		GROUP BY author_name
		ORDER BY SUM(%s) DESC LIMIT ?`,
		strings.Join(clauses, " AND "), measureColumn(q.Measure))
	args = append(args, q.Limit)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top authors: %w", err)
	}
	defer rows.Close()

	var out []TopAuthorRow
	for rows.Next() {
		var row TopAuthorRow
		if err := rows.Scan(&row.AuthorName, &row.TotalReviews, &row.TotalSales); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) TopPublishers(ctx context.Context, q TopQuery) ([]TopPublisherRow, error) {
	clauses := []string{"publisher <> ''"}
	args := []any{}
	yearClauses(q.Years, &clauses, &args)

	query := fmt.Sprintf(`SELECT publisher, SUM(total_reviews), SUM(total_sales)
		FROM top_publishers WHERE %s
		GROUP BY publisher
		ORDER BY SUM(%s) DESC LIMIT ?`,
		strings.Join(clauses, " AND "), measureColumn(q.Measure))
	args = append(args, q.Limit)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top publishers: %w", err)
	}
	defer rows.Close()

	var out []TopPublisherRow
	for rows.Next() {
		var row TopPublisherRow
		if err := rows.Scan(&row.Publisher, &row.TotalReviews, &row.TotalSales); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func reviewClauses(f ReviewFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if f.Author != "" {
		clauses = append(clauses, "author_name = ?")
		args = append(args, f.Author)
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	// Undated reviews are stored with an empty date string; they must
	// not match either bound.
	if !f.From.IsZero() || !f.To.IsZero() {
		clauses = append(clauses, "date <> ''")
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, f.From.UTC().Format(timeLayout))
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, f.To.UTC().Format(timeLayout))
	}
	return clauses, args
}

func (r *SQLiteRepo) SentimentCounts(ctx context.Context, f ReviewFilter) (SentimentCounts, error) {
	clauses, args := reviewClauses(f)
	query := "SELECT sentiment, COUNT(*) FROM reviews_clean WHERE " +
		strings.Join(clauses, " AND ") + " GROUP BY sentiment"

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return SentimentCounts{}, fmt.Errorf("query sentiment counts: %w", err)
	}
	defer rows.Close()

	var counts SentimentCounts
	for rows.Next() {
		var sentiment, n int
		if err := rows.Scan(&sentiment, &n); err != nil {
			return SentimentCounts{}, err
		}
		switch sentiment {
		case SentimentNegative:
			counts.Negative = n
		case SentimentNeutral:
			counts.Neutral = n
		case SentimentPositive:
			counts.Positive = n
		}
	}
	return counts, rows.Err()
}

func (r *SQLiteRepo) SentimentTrend(ctx context.Context, f ReviewFilter) ([]TrendPoint, error) {
	clauses, args := reviewClauses(f)
	clauses = append(clauses, "date <> ''")

	query := `SELECT strftime('%Y-%m', date) AS month,
		SUM(CASE WHEN sentiment = 2 THEN 1 ELSE 0 END),
		SUM(CASE WHEN sentiment = 0 THEN 1 ELSE 0 END)
		FROM reviews_clean WHERE ` + strings.Join(clauses, " AND ") +
		" GROUP BY month ORDER BY month"

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sentiment trend: %w", err)
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Month, &p.Positive, &p.Negative); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) MostHelpfulReview(ctx context.Context, f ReviewFilter, sentiment int) (ReviewRow, error) {
	clauses, args := reviewClauses(f)
	clauses = append(clauses, "sentiment = ?")
	args = append(args, sentiment)

	query := `SELECT title, author_name, category, date, rating, sentiment, text, clean_text, helpful_vote
		FROM reviews_clean WHERE ` + strings.Join(clauses, " AND ") +
		" ORDER BY helpful_vote DESC LIMIT 1"

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var row ReviewRow
	var dateStr string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&row.Title, &row.AuthorName, &row.Category, &dateStr,
		&row.Rating, &row.Sentiment, &row.Text, &row.CleanText, &row.HelpfulVote)
	if err == sql.ErrNoRows {
		return ReviewRow{}, ErrNoRows
	}
	if err != nil {
		return ReviewRow{}, fmt.Errorf("query most helpful review: %w", err)
	}
	if dateStr != "" {
		row.Date, _ = time.Parse(timeLayout, dateStr)
	}
	return row, nil
}

func (r *SQLiteRepo) ReviewTexts(ctx context.Context, f ReviewFilter, sentiment int, limit int) ([]string, error) {
	clauses, args := reviewClauses(f)
	clauses = append(clauses, "sentiment = ?", "clean_text <> ''")
	args = append(args, sentiment, limit)

	query := "SELECT clean_text FROM reviews_clean WHERE " +
		strings.Join(clauses, " AND ") + " ORDER BY helpful_vote DESC LIMIT ?"

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query review texts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) AuthorNames(ctx context.Context) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT author_name FROM reviews_clean WHERE author_name <> ''")
	if err != nil {
		return nil, fmt.Errorf("query author names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) YearBounds(ctx context.Context) (int, int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var min, max int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MIN(year), 0), COALESCE(MAX(year), 0) FROM scorecard").Scan(&min, &max)
	if err != nil {
		return 0, 0, fmt.Errorf("query year bounds: %w", err)
	}
	return min, max, nil
}

// replaceAll swaps a table's contents inside one transaction.
func (r *SQLiteRepo) replaceAll(ctx context.Context, table, insert string, n int, bind func(i int) []any) error {
	ctx, cancel := withBulkTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, bind(i)...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepo) ReplaceScorecard(ctx context.Context, rows []ScorecardRow) error {
	return r.replaceAll(ctx, "scorecard",
		"INSERT INTO scorecard (year, total_books, total_reviews, total_sales) VALUES (?, ?, ?, ?)",
		len(rows), func(i int) []any {
			return []any{rows[i].Year, rows[i].TotalBooks, rows[i].TotalReviews, rows[i].TotalSales}
		})
}

func (r *SQLiteRepo) ReplaceGenres(ctx context.Context, rows []GenreRow) error {
	return r.replaceAll(ctx, "genres",
		"INSERT INTO genres (year, genre, book_count, review_count, total_sales) VALUES (?, ?, ?, ?, ?)",
		len(rows), func(i int) []any {
			return []any{rows[i].Year, rows[i].Genre, rows[i].BookCount, rows[i].ReviewCount, rows[i].TotalSales}
		})
}

func (r *SQLiteRepo) ReplaceFormats(ctx context.Context, rows []FormatRow) error {
	return r.replaceAll(ctx, "formats",
		"INSERT INTO formats (year, book_format, total_reviews, total_sales, avg_price) VALUES (?, ?, ?, ?, ?)",
		len(rows), func(i int) []any {
			return []any{rows[i].Year, rows[i].BookFormat, rows[i].TotalReviews, rows[i].TotalSales, rows[i].AvgPrice}
		})
}

func (r *SQLiteRepo) ReplaceTopBooks(ctx context.Context, rows []TopBookRow) error {
	return r.replaceAll(ctx, "top_books",
		"INSERT INTO top_books (year, title, author_name, genre, total_reviews, total_sales) VALUES (?, ?, ?, ?, ?, ?)",
		len(rows), func(i int) []any {
			return []any{rows[i].Year, rows[i].Title, rows[i].AuthorName, rows[i].Genre, rows[i].TotalReviews, rows[i].TotalSales}
		})
}

func (r *SQLiteRepo) ReplaceTopAuthors(ctx context.Context, rows []TopAuthorRow) error {
	return r.replaceAll(ctx, "top_authors",
		"INSERT INTO top_authors (year, author_name, total_reviews, total_sales) VALUES (?, ?, ?, ?)",
		len(rows), func(i int) []any {
			return []any{rows[i].Year, rows[i].AuthorName, rows[i].TotalReviews, rows[i].TotalSales}
		})
}

func (r *SQLiteRepo) ReplaceTopPublishers(ctx context.Context, rows []TopPublisherRow) error {
	return r.replaceAll(ctx, "top_publishers",
		"INSERT INTO top_publishers (year, publisher, total_reviews, total_sales) VALUES (?, ?, ?, ?)",
		len(rows), func(i int) []any {
			return []any{rows[i].Year, rows[i].Publisher, rows[i].TotalReviews, rows[i].TotalSales}
		})
}

func (r *SQLiteRepo) ReplaceReviews(ctx context.Context, rows []ReviewRow) error {
	return r.replaceAll(ctx, "reviews_clean",
		`INSERT INTO reviews_clean (title, author_name, category, date, rating, sentiment, text, clean_text, helpful_vote)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(rows), func(i int) []any {
			dateStr := ""
			if !rows[i].Date.IsZero() {
				dateStr = rows[i].Date.UTC().Format(timeLayout)
			}
			return []any{rows[i].Title, rows[i].AuthorName, rows[i].Category, dateStr,
				rows[i].Rating, rows[i].Sentiment, rows[i].Text, rows[i].CleanText, rows[i].HelpfulVote}
		})
}

func (r *SQLiteRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	id := uuid.New().String()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status, dataset_dir, warehouse_path)
		 VALUES (?, ?, ?, ?, ?)`,
		id, run.StartedAt.UTC().Format(timeLayout), run.Status, run.DatasetDir, run.WarehousePath)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepo) UpdateRun(ctx context.Context, run *Run) error {
	finished := ""
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC().Format(timeLayout)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, metadata_rows = ?, review_rows = ?, clean_rows = ?, error = ?
		 WHERE id = ?`,
		finished, run.Status, run.MetadataRows, run.ReviewRows, run.CleanRows, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	return nil
}
