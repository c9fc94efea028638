package models

import "fmt"

const (
	// DefaultPerPage is the page size for list views.
	DefaultPerPage = 20
	// DefaultAnnouncementsPerPage is the page size for announcement feeds.
	DefaultAnnouncementsPerPage = 10
	// MaxPerPage caps caller supplied page sizes.
	MaxPerPage = 100
)

// ListParams carries the common filter and pagination inputs of list views.
type ListParams struct {
	Search     string `form:"search"`
	Department string `form:"department"`
	Status     string `form:"status"`
	Semester   int    `form:"semester"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}

// Normalize clamps page and per_page, falling back to defaultPerPage.
func (p ListParams) Normalize(defaultPerPage int) ListParams {
	if defaultPerPage <= 0 {
		defaultPerPage = DefaultPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if p.Semester < 0 {
		p.Semester = 0
	}
	return p
}

// CacheScope renders the params as a stable cache key suffix.
func (p ListParams) CacheScope() string {
	return fmt.Sprintf("q=%s&department=%s&status=%s&semester=%d&page=%d&per_page=%d",
		p.Search, p.Department, p.Status, p.Semester, p.Page, p.PerPage)
}

// Offset returns the zero based row offset of the first row on the page.
func (p ListParams) Offset() int {
	if p.Page < 1 || p.PerPage <= 0 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes total_pages as ceil(total / perPage).
func NewPagination(total, page, perPage int) Pagination {
	totalPages := 0
	if perPage > 0 && total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return Pagination{Total: total, Page: page, PerPage: perPage, TotalPages: totalPages}
}

// Page is a single page of a filtered listing.
type Page[T any] struct {
	Data []T `json:"data"`
	Pagination
}

// NewPage builds a page, never returning a nil data slice.
func NewPage[T any](rows []T, total int, params ListParams) *Page[T] {
	if rows == nil {
		rows = []T{}
	}
	return &Page[T]{Data: rows, Pagination: NewPagination(total, params.Page, params.PerPage)}
}
