package model

import "math"

// Pagination defaults
const (
	DefaultPage    = 1
	DefaultPerPage = 20
	MaxPerPage     = 100
	// MaxPage keeps (page-1)*perPage inside a 32-bit int.
	MaxPage = math.MaxInt32 / MaxPerPage
)

// Page is a 1-based page request.
type Page struct {
	Page    int
	PerPage int
}

// NewPage clamps raw query values into a usable page request.
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Page: page, PerPage: perPage}
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limit is the maximum number of rows to return.
func (p Page) Limit() int {
	return p.PerPage
}

// Window returns the [start, end) slice bounds for a collection of size total.
// A page past the end yields an empty window rather than an error.
func (p Page) Window(total int) (start, end int) {
	start = p.Offset()
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end = start + p.PerPage
	if end > total {
		end = total
	}
	return start, end
}

// Pagination is the metadata returned with every paginated listing.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes total_pages for a listing.
func NewPagination(p Page, total int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.PerPage - 1) / p.PerPage
	}
	return Pagination{
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: totalPages,
	}
}
