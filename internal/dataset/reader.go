package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// The raw Kaggle exports are ragged: quotes inside review text, rows with
// missing trailing fields. LazyQuotes plus FieldsPerRecord=-1 keeps the
// reader from bailing on them; missing or malformed values decode to
// zero-values instead.
func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// header maps column names to their position so the decode survives
// column reordering between dataset versions.
type header map[string]int

func readHeader(reader *csv.Reader, source string) (header, error) {
	record, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s is empty", source)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", source, err)
	}

	h := make(header, len(record))
	for i, name := range record {
		h[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return h, nil
}

func (h header) str(record []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (h header) float(record []string, col string) float64 {
	v, err := strconv.ParseFloat(strings.TrimPrefix(h.str(record, col), "$"), 64)
	if err != nil {
		return 0
	}
	return v
}

func (h header) int(record []string, col string) int {
	v, err := strconv.Atoi(h.str(record, col))
	if err != nil {
		return int(h.float(record, col))
	}
	return v
}

func (h header) boolean(record []string, col string) bool {
	switch strings.ToLower(h.str(record, col)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

var reviewDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (h header) date(record []string, col string) time.Time {
	raw := h.str(record, col)
	if raw == "" {
		return time.Time{}
	}
	// Review timestamps also appear as epoch milliseconds.
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	for _, layout := range reviewDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ReadMetadata decodes the book metadata CSV.
func ReadMetadata(r io.Reader) ([]Metadata, error) {
	reader := newCSVReader(r)
	h, err := readHeader(reader, "metadata csv")
	if err != nil {
		return nil, err
	}

	var rows []Metadata
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read metadata row %d: %w", len(rows)+1, err)
		}

		publisher, published := SplitPublisherDate(h.str(record, "publisher_date"))
		rows = append(rows, Metadata{
			ParentASIN:    h.str(record, "parent_asin"),
			Title:         h.str(record, "title"),
			AuthorName:    h.str(record, "author_name"),
			Publisher:     publisher,
			PublishedDate: published,
			PriceNumeric:  h.float(record, "price_numeric"),
			BookFormat:    h.str(record, "book_format"),
			Genre:         h.str(record, "category_level_3_detail"),
			AverageRating: h.float(record, "average_rating"),
			RatingNumber:  h.int(record, "rating_number"),
		})
	}
	return rows, nil
}

// ReadReviews decodes the reviews CSV.
func ReadReviews(r io.Reader) ([]Review, error) {
	reader := newCSVReader(r)
	h, err := readHeader(reader, "reviews csv")
	if err != nil {
		return nil, err
	}

	var rows []Review
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read review row %d: %w", len(rows)+1, err)
		}

		rows = append(rows, Review{
			ASIN:             h.str(record, "asin"),
			ParentASIN:       h.str(record, "parent_asin"),
			Rating:           h.float(record, "rating"),
			Title:            h.str(record, "title"),
			Text:             h.str(record, "text"),
			Date:             h.date(record, "date"),
			HelpfulVote:      h.int(record, "helpful_vote"),
			VerifiedPurchase: h.boolean(record, "verified_purchase"),
		})
	}
	return rows, nil
}
