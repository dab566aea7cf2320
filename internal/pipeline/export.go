package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"booksdash/internal/warehouse"

	"github.com/gocarina/gocsv"
)

// Export writes every derived table as a CSV artifact under dir, using
// the file names the original dashboard reads.
func Export(dir string, agg Aggregates) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// gocsv has no time.Time handling; mirror review dates into the
	// text column the artifact stores.
	reviews := make([]warehouse.ReviewRow, len(agg.Reviews))
	copy(reviews, agg.Reviews)
	for i := range reviews {
		if !reviews[i].Date.IsZero() {
			reviews[i].DateString = reviews[i].Date.UTC().Format(time.RFC3339)
		}
	}

	artifacts := []struct {
		name string
		rows interface{}
	}{
		{ScorecardArtifact, &agg.Scorecard},
		{GenreArtifact, &agg.Genres},
		{FormatArtifact, &agg.Formats},
		{TopBooksArtifact, &agg.TopBooks},
		{TopAuthorsArtifact, &agg.TopAuthors},
		{TopPublishersArtifact, &agg.TopPublishers},
		{CleanReviewsArtifact, &reviews},
	}

	for _, a := range artifacts {
		if err := writeCSV(filepath.Join(dir, a.name), a.rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// OutputsReady reports whether every CSV artifact already exists, the
// check the original landing page performs before re-running prepare.
func OutputsReady(dir string) bool {
	for _, name := range Artifacts {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}
