// Package dataset decodes the raw Amazon books CSVs into typed rows.
package dataset

import (
	"strings"
	"time"
)

// Metadata is one row of amazon_books_metadata_sample_20k.csv.
type Metadata struct {
	ParentASIN    string
	Title         string
	AuthorName    string
	Publisher     string
	PublishedDate time.Time // zero when publisher_date carried no parseable date
	PriceNumeric  float64
	BookFormat    string
	Genre         string // category_level_3_detail
	AverageRating float64
	RatingNumber  int
}

// Review is one row of amazon_books_reviews_sample_20k.csv.
type Review struct {
	ASIN             string
	ParentASIN       string
	Rating           float64
	Title            string
	Text             string
	Date             time.Time
	HelpfulVote      int
	VerifiedPurchase bool
}

// Year returns the publication year, or 0 when the date is unknown.
func (m Metadata) Year() int {
	if m.PublishedDate.IsZero() {
		return 0
	}
	return m.PublishedDate.Year()
}

const publisherDateLayout = "January 2, 2006"

// SplitPublisherDate splits the raw publisher_date field, e.g.
// "Penguin Classics (January 7, 2014)", into the publisher name and the
// publication date. The date is the text inside the last parentheses;
// anything unparseable yields a zero time.
func SplitPublisherDate(raw string) (publisher string, published time.Time) {
	raw = strings.TrimSpace(raw)
	open := strings.LastIndex(raw, "(")
	if open < 0 {
		return raw, time.Time{}
	}

	publisher = strings.TrimSpace(raw[:open])
	inner := strings.TrimSuffix(strings.TrimSpace(raw[open+1:]), ")")

	t, err := time.Parse(publisherDateLayout, strings.TrimSpace(inner))
	if err != nil {
		return publisher, time.Time{}
	}
	return publisher, t
}
