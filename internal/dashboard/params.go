package dashboard

import (
	"net/http"
	"strconv"
	"time"

	"booksdash/internal/httpx"
	"booksdash/internal/warehouse"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// queryParams covers every filter the data API accepts; handlers fill
// only the fields their endpoint uses.
type queryParams struct {
	YearFrom  int    `validate:"omitempty,gte=1000,lte=3000"`
	YearTo    int    `validate:"omitempty,gte=1000,lte=3000,gtefield=YearFrom"`
	Measure   string `validate:"omitempty,oneof=sales reviews"`
	Limit     int    `validate:"omitempty,gte=1,lte=100"`
	Sentiment string `validate:"omitempty,oneof=positive negative"`
	Genre     string
	Author    string
	Category  string
	From      time.Time
	To        time.Time
}

func parseQueryParams(r *http.Request) (queryParams, []httpx.ErrorDetail) {
	q := r.URL.Query()
	var details []httpx.ErrorDetail

	atoi := func(field, raw string) int {
		if raw == "" {
			return 0
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, httpx.ErrorDetail{Field: field, Message: "must be an integer"})
		}
		return v
	}
	date := func(field, raw string) time.Time {
		if raw == "" {
			return time.Time{}
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			details = append(details, httpx.ErrorDetail{Field: field, Message: "must be a YYYY-MM-DD date"})
		}
		return t
	}

	p := queryParams{
		YearFrom:  atoi("year_from", q.Get("year_from")),
		YearTo:    atoi("year_to", q.Get("year_to")),
		Measure:   q.Get("measure"),
		Limit:     atoi("limit", q.Get("limit")),
		Sentiment: q.Get("sentiment"),
		Genre:     q.Get("genre"),
		Author:    q.Get("author"),
		Category:  q.Get("category"),
		From:      date("from", q.Get("from")),
		To:        date("to", q.Get("to")),
	}
	if details != nil {
		return p, details
	}

	if err := validate.Struct(p); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				details = append(details, httpx.ErrorDetail{
					Field:   fieldName(fe.Field()),
					Message: validationMessage(fe),
				})
			}
		} else {
			details = append(details, httpx.ErrorDetail{Field: "query", Message: "invalid parameters"})
		}
	}
	return p, details
}

func fieldName(structField string) string {
	switch structField {
	case "YearFrom":
		return "year_from"
	case "YearTo":
		return "year_to"
	case "Measure":
		return "measure"
	case "Limit":
		return "limit"
	case "Sentiment":
		return "sentiment"
	}
	return structField
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gtefield":
		return "must not be before year_from"
	}
	return "is invalid"
}

func (p queryParams) years() warehouse.YearRange {
	return warehouse.YearRange{From: p.YearFrom, To: p.YearTo}
}

func (p queryParams) topQuery() warehouse.TopQuery {
	return warehouse.TopQuery{
		Years:   p.years(),
		Measure: p.Measure,
		Genre:   p.Genre,
		Limit:   p.Limit,
	}
}

func (p queryParams) reviewFilter() warehouse.ReviewFilter {
	return warehouse.ReviewFilter{
		Author:   p.Author,
		Category: p.Category,
		From:     p.From,
		To:       p.To,
	}
}

func (p queryParams) sentimentCode() int {
	if p.Sentiment == "negative" {
		return warehouse.SentimentNegative
	}
	return warehouse.SentimentPositive
}
