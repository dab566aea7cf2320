package dashboard

import (
	"net/http"

	"booksdash/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func badRequest(w http.ResponseWriter, r *http.Request, details []httpx.ErrorDetail) {
	httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid query parameters", details)
}

func internalError(w http.ResponseWriter, r *http.Request) {
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

// Scorecard handles GET /v1/scorecard.
func (h *HTTPHandler) Scorecard(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}

	view, err := h.svc.Scorecard(r.Context(), p.years())
	if err != nil {
		internalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, view, map[string]any{"years": len(view.Rows)})
}

// Genres handles GET /v1/genres.
func (h *HTTPHandler) Genres(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}

	view, err := h.svc.Genres(r.Context(), p.years(), p.Measure, p.Limit)
	if err != nil {
		internalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// Formats handles GET /v1/formats.
func (h *HTTPHandler) Formats(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}

	view, err := h.svc.Formats(r.Context(), p.years(), p.Measure)
	if err != nil {
		internalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// TopBooks handles GET /v1/books/top.
func (h *HTTPHandler) TopBooks(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}

	rows, err := h.svc.TopBooks(r.Context(), p.topQuery())
	if err != nil {
		internalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, rows, map[string]any{"count": len(rows)})
}

// TopAuthors handles GET /v1/authors/top.
func (h *HTTPHandler) TopAuthors(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}

	rows, err := h.svc.TopAuthors(r.Context(), p.topQuery())
	if err != nil {
		internalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, rows, map[string]any{"count": len(rows)})
}

// TopPublishers handles GET /v1/publishers/top.
func (h *HTTPHandler) TopPublishers(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}

	rows, err := h.svc.TopPublishers(r.Context(), p.topQuery())
	if err != nil {
		internalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, rows, map[string]any{"count": len(rows)})
}

// ReviewSentiment handles GET /v1/reviews/sentiment.
func (h *HTTPHandler) ReviewSentiment(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}

	view, err := h.svc.ReviewSentiment(r.Context(), p.reviewFilter())
	if err != nil {
		internalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// ReviewHighlights handles GET /v1/reviews/highlights.
func (h *HTTPHandler) ReviewHighlights(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}

	view, err := h.svc.ReviewHighlights(r.Context(), p.reviewFilter())
	if err != nil {
		internalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, view, nil)
}

// WordCloud handles GET /v1/reviews/wordcloud.
func (h *HTTPHandler) WordCloud(w http.ResponseWriter, r *http.Request) {
	p, details := parseQueryParams(r)
	if details != nil {
		badRequest(w, r, details)
		return
	}

	words, err := h.svc.WordCloud(r.Context(), p.reviewFilter(), p.sentimentCode(), p.Limit)
	if err != nil {
		internalError(w, r)
		return
	}
	httpx.JSONSuccess(w, r, words, map[string]any{"count": len(words)})
}
