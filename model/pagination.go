// file: model/pagination.go

package model

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 20
	// MaxPageNumber keeps Offset within int for every allowed page size.
	MaxPageNumber = math.MaxInt / MaxPageSize
)

// PageRequest selects one page of a listing. Use Normalize before handing it to a store.
type PageRequest struct {
	PageNumber int
	PageSize   int
}

// Normalize clamps PageNumber to [1, MaxPageNumber] and PageSize to [1, MaxPageSize].
func (p PageRequest) Normalize() PageRequest {
	if p.PageNumber <= 0 {
		p.PageNumber = 1
	}
	if p.PageNumber > MaxPageNumber {
		p.PageNumber = MaxPageNumber
	}
	if p.PageSize <= 0 {
		p.PageSize = 1
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of records preceding the page. It saturates at
// math.MaxInt instead of overflowing.
func (p PageRequest) Offset() int {
	if p.PageNumber <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.PageNumber-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.PageNumber - 1) * p.PageSize
}

// PagedUsers is one page of users plus its position in the full result set.
type PagedUsers struct {
	Items       []*User
	TotalCount  int64
	PageSize    int
	CurrentPage int
}

func (p *PagedUsers) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.TotalCount + int64(p.PageSize) - 1) / int64(p.PageSize))
}

func (p *PagedUsers) HasPrevious() bool {
	return p.CurrentPage > 1
}

func (p *PagedUsers) HasNext() bool {
	return p.CurrentPage < p.TotalPages()
}

// PaginationMetadata is serialized into the X-Pagination response header.
type PaginationMetadata struct {
	PreviousPageLink *string `json:"previousPageLink"`
	NextPageLink     *string `json:"nextPageLink"`
	TotalCount       int64   `json:"totalCount"`
	PageSize         int     `json:"pageSize"`
	CurrentPage      int     `json:"currentPage"`
	TotalPages       int     `json:"totalPages"`
}
