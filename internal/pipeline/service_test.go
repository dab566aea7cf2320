package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"booksdash/internal/warehouse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDownloader struct {
	mock.Mock
}

func (m *mockDownloader) DownloadFile(ctx context.Context, name, destPath string) error {
	args := m.Called(ctx, name, destPath)
	return args.Error(0)
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) ReplaceScorecard(ctx context.Context, rows []warehouse.ScorecardRow) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockWriter) ReplaceGenres(ctx context.Context, rows []warehouse.GenreRow) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockWriter) ReplaceFormats(ctx context.Context, rows []warehouse.FormatRow) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockWriter) ReplaceTopBooks(ctx context.Context, rows []warehouse.TopBookRow) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockWriter) ReplaceTopAuthors(ctx context.Context, rows []warehouse.TopAuthorRow) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockWriter) ReplaceTopPublishers(ctx context.Context, rows []warehouse.TopPublisherRow) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockWriter) ReplaceReviews(ctx context.Context, rows []warehouse.ReviewRow) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *mockWriter) CreateRun(ctx context.Context, run *warehouse.Run) (string, error) {
	args := m.Called(ctx, run)
	return args.String(0), args.Error(1)
}

func (m *mockWriter) UpdateRun(ctx context.Context, run *warehouse.Run) error {
	return m.Called(ctx, run).Error(0)
}

const testMetadataCSV = `parent_asin,title,author_name,publisher_date,price_numeric,book_format,category_level_3_detail
B001,Alpha,Ada,Penguin (January 7, 2014),10,Paperback,Fiction
`

const testReviewsCSV = `asin,parent_asin,rating,text,date,helpful_vote
R1,B001,5,Loved it,2015-06-02,3
`

func writeRawFiles(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(MetadataPath(dir), []byte(testMetadataCSV), 0o644))
	require.NoError(t, os.WriteFile(ReviewsPath(dir), []byte(testReviewsCSV), 0o644))
}

func expectAllReplaces(w *mockWriter) {
	w.On("ReplaceScorecard", mock.Anything, mock.Anything).Return(nil)
	w.On("ReplaceGenres", mock.Anything, mock.Anything).Return(nil)
	w.On("ReplaceFormats", mock.Anything, mock.Anything).Return(nil)
	w.On("ReplaceTopBooks", mock.Anything, mock.Anything).Return(nil)
	w.On("ReplaceTopAuthors", mock.Anything, mock.Anything).Return(nil)
	w.On("ReplaceTopPublishers", mock.Anything, mock.Anything).Return(nil)
	w.On("ReplaceReviews", mock.Anything, mock.Anything).Return(nil)
}

func TestServiceRun_Success(t *testing.T) {
	dir := t.TempDir()
	writeRawFiles(t, dir)

	dl := new(mockDownloader)
	w := new(mockWriter)
	w.On("CreateRun", mock.Anything, mock.Anything).Return("run-1", nil)
	w.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)
	expectAllReplaces(w)

	svc := NewService(dl, w, Config{DatasetDir: dir, SkipDownload: true})
	require.NoError(t, svc.Run(context.Background()))

	// Downloader untouched with SkipDownload.
	dl.AssertNotCalled(t, "DownloadFile", mock.Anything, mock.Anything, mock.Anything)
	w.AssertExpectations(t)

	// Export stage wrote every artifact.
	assert.True(t, OutputsReady(dir))

	// Run finalized as COMPLETED with row counters.
	var finalized *warehouse.Run
	for _, call := range w.Calls {
		if call.Method == "UpdateRun" {
			finalized = call.Arguments.Get(1).(*warehouse.Run)
		}
	}
	require.NotNil(t, finalized)
	assert.Equal(t, "COMPLETED", finalized.Status)
	assert.Equal(t, 1, finalized.MetadataRows)
	assert.Equal(t, 1, finalized.ReviewRows)
	assert.Equal(t, 1, finalized.CleanRows)
	assert.NotNil(t, finalized.FinishedAt)
}

func TestServiceRun_DownloadsWhenMissing(t *testing.T) {
	dir := t.TempDir()

	dl := new(mockDownloader)
	dl.On("DownloadFile", mock.Anything, MetadataFile, MetadataPath(dir)).
		Run(func(args mock.Arguments) {
			_ = os.WriteFile(args.String(2), []byte(testMetadataCSV), 0o644)
		}).Return(nil)
	dl.On("DownloadFile", mock.Anything, ReviewsFile, ReviewsPath(dir)).
		Run(func(args mock.Arguments) {
			_ = os.WriteFile(args.String(2), []byte(testReviewsCSV), 0o644)
		}).Return(nil)

	w := new(mockWriter)
	w.On("CreateRun", mock.Anything, mock.Anything).Return("run-2", nil)
	w.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)
	expectAllReplaces(w)

	svc := NewService(dl, w, Config{DatasetDir: dir})
	require.NoError(t, svc.Run(context.Background()))
	dl.AssertExpectations(t)
}

func TestServiceRun_DownloadFailureMarksRunFailed(t *testing.T) {
	dir := t.TempDir()

	dl := new(mockDownloader)
	dl.On("DownloadFile", mock.Anything, MetadataFile, mock.Anything).
		Return(errors.New("network down"))

	w := new(mockWriter)
	w.On("CreateRun", mock.Anything, mock.Anything).Return("run-3", nil)
	w.On("UpdateRun", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(dl, w, Config{DatasetDir: dir})
	err := svc.Run(context.Background())
	require.Error(t, err)

	var finalized *warehouse.Run
	for _, call := range w.Calls {
		if call.Method == "UpdateRun" {
			finalized = call.Arguments.Get(1).(*warehouse.Run)
		}
	}
	require.NotNil(t, finalized)
	assert.Equal(t, "FAILED", finalized.Status)
	assert.Contains(t, finalized.Error, "network down")
}

func TestServiceRun_SkipsWhenArtifactsPresent(t *testing.T) {
	dir := t.TempDir()
	for _, name := range Artifacts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644))
	}

	dl := new(mockDownloader)
	w := new(mockWriter)

	svc := NewService(dl, w, Config{DatasetDir: dir})
	require.NoError(t, svc.Run(context.Background()))

	w.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)
}

func TestExport_WritesHeaders(t *testing.T) {
	dir := t.TempDir()
	agg := Aggregates{
		Scorecard: []warehouse.ScorecardRow{{Year: 2014, TotalBooks: 2, TotalReviews: 3, TotalSales: 150}},
	}
	require.NoError(t, Export(dir, agg))

	b, err := os.ReadFile(filepath.Join(dir, ScorecardArtifact))
	require.NoError(t, err)
	assert.Contains(t, string(b), "year,total_books,total_reviews,total_sales")
	assert.Contains(t, string(b), "2014")
}
