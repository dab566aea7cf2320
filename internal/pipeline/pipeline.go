// Package pipeline implements the one-shot prepare step: download the raw
// dataset, clean it, aggregate the dashboard tables, persist and export.
package pipeline

import (
	"path/filepath"
)

// Raw dataset file names as published by the Kaggle sample.
const (
	MetadataFile = "amazon_books_metadata_sample_20k.csv"
	ReviewsFile  = "amazon_books_reviews_sample_20k.csv"
)

// Exported CSV artifact names, matching the files the original dashboard
// reads from dataset/.
const (
	ScorecardArtifact     = "scorecard_data.csv"
	GenreArtifact         = "genre_data.csv"
	FormatArtifact        = "format_data.csv"
	TopBooksArtifact      = "top_books_data.csv"
	TopAuthorsArtifact    = "top_authors_data.csv"
	TopPublishersArtifact = "top_publishers_data.csv"
	CleanReviewsArtifact  = "books_reviews_clean.csv"
)

// Artifacts lists every CSV the export stage writes.
var Artifacts = []string{
	ScorecardArtifact,
	GenreArtifact,
	FormatArtifact,
	TopBooksArtifact,
	TopAuthorsArtifact,
	TopPublishersArtifact,
	CleanReviewsArtifact,
}

func MetadataPath(datasetDir string) string {
	return filepath.Join(datasetDir, MetadataFile)
}

func ReviewsPath(datasetDir string) string {
	return filepath.Join(datasetDir, ReviewsFile)
}
