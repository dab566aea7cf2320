package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPublisherDate(t *testing.T) {
	t.Run("publisher with date", func(t *testing.T) {
		pub, date := SplitPublisherDate("Penguin Classics (January 7, 2014)")
		assert.Equal(t, "Penguin Classics", pub)
		assert.Equal(t, time.Date(2014, time.January, 7, 0, 0, 0, 0, time.UTC), date)
	})

	t.Run("publisher with edition and date takes last parens", func(t *testing.T) {
		pub, date := SplitPublisherDate("Oxford (2nd ed.) (March 15, 1999)")
		assert.Equal(t, "Oxford (2nd ed.)", pub)
		assert.Equal(t, 1999, date.Year())
	})

	t.Run("no parentheses", func(t *testing.T) {
		pub, date := SplitPublisherDate("HarperCollins")
		assert.Equal(t, "HarperCollins", pub)
		assert.True(t, date.IsZero())
	})

	t.Run("unparseable date", func(t *testing.T) {
		pub, date := SplitPublisherDate("Springer (forthcoming)")
		assert.Equal(t, "Springer", pub)
		assert.True(t, date.IsZero())
	})

	t.Run("empty", func(t *testing.T) {
		pub, date := SplitPublisherDate("")
		assert.Empty(t, pub)
		assert.True(t, date.IsZero())
	})
}

const metadataCSV = `parent_asin,title,author_name,publisher_date,price_numeric,book_format,category_level_3_detail,average_rating,rating_number
B001,The First Book,Ada Author,Penguin (January 7, 2014),12.99,Paperback,Fiction,4.5,120
B002,Second Volume,Ben Writer,Oxford (March 15, 1999),25.00,Hardcover,History,4.1,45
B003,No Date Here,Cid Poet,Selfpub,9.99,Kindle,,3.2,10
`

func TestReadMetadata(t *testing.T) {
	rows, err := ReadMetadata(strings.NewReader(metadataCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "B001", rows[0].ParentASIN)
	assert.Equal(t, "The First Book", rows[0].Title)
	assert.Equal(t, "Penguin", rows[0].Publisher)
	assert.Equal(t, 2014, rows[0].Year())
	assert.Equal(t, 12.99, rows[0].PriceNumeric)
	assert.Equal(t, "Fiction", rows[0].Genre)
	assert.Equal(t, 120, rows[0].RatingNumber)

	assert.Equal(t, "Hardcover", rows[1].BookFormat)
	assert.Equal(t, 1999, rows[1].Year())

	// Row without a parseable date keeps the zero year.
	assert.Equal(t, 0, rows[2].Year())
	assert.Empty(t, rows[2].Genre)
}

func TestReadMetadata_ColumnOrderIndependent(t *testing.T) {
	shuffled := `title,parent_asin,price_numeric,publisher_date
Reordered,B009,$5.50,MIT Press (June 1, 2020)
`
	rows, err := ReadMetadata(strings.NewReader(shuffled))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B009", rows[0].ParentASIN)
	assert.Equal(t, 5.50, rows[0].PriceNumeric)
	assert.Equal(t, "MIT Press", rows[0].Publisher)
}

const reviewsCSV = `asin,parent_asin,rating,title,text,date,helpful_vote,verified_purchase
R001,B001,5.0,Loved it,"Great read, could not put it down",2015-06-02,12,true
R002,B001,2.0,Meh,"Quotes "inside" text",2015-07-10 08:30:00,0,false
R003,B002,4.0,Solid,Worth the price,1433203200000,3,true
`

func TestReadReviews(t *testing.T) {
	rows, err := ReadReviews(strings.NewReader(reviewsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "B001", rows[0].ParentASIN)
	assert.Equal(t, 5.0, rows[0].Rating)
	assert.Equal(t, 12, rows[0].HelpfulVote)
	assert.True(t, rows[0].VerifiedPurchase)
	assert.Equal(t, 2015, rows[0].Date.Year())

	// LazyQuotes keeps rows with stray quotes in free text.
	assert.False(t, rows[1].VerifiedPurchase)
	assert.Equal(t, time.June, rows[2].Date.Month()) // epoch millis

	t.Run("empty file errors", func(t *testing.T) {
		_, err := ReadReviews(strings.NewReader(""))
		assert.Error(t, err)
	})
}
