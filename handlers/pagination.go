package handlers

import (
	"math"
	"net/http"
	"strconv"
)

// PaginatedResponse defines the structure for any paginated API response.
type PaginatedResponse struct {
	Items       interface{} `json:"items"`
	TotalRows   int64       `json:"totalRows"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	PageSize    int         `json:"pageSize"`
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is the requested window of a list
type Page struct {
	Number int
	Size   int
}

// Offset of the first row of the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// pageFromRequest reads "page" and "pageSize" query parameters, falling back to
// defaultSize (or DefaultPageSize) and clamping to MaxPageSize.
func pageFromRequest(r *http.Request, defaultSize int) Page {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}

	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	switch {
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	case pageSize <= 0:
		pageSize = defaultSize
	}
	return Page{Number: page, Size: pageSize}
}

// newPaginatedResponse constructs the standard paginated response object.
func newPaginatedResponse(items interface{}, totalRows int64, page Page) PaginatedResponse {
	totalPages := 0
	if totalRows > 0 {
		totalPages = int(math.Ceil(float64(totalRows) / float64(page.Size)))
	}
	return PaginatedResponse{
		Items:       items,
		TotalRows:   totalRows,
		TotalPages:  totalPages,
		CurrentPage: page.Number,
		PageSize:    page.Size,
	}
}
