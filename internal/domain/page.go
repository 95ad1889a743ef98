package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

var ErrInvalidSortDirection = errors.New("invalid sort direction")

// SortOrder orders a page by one property
type SortOrder struct {
	Property  string
	Direction Direction
}

// ParseSortOrder parses the "property[,asc|desc]" form used by the sort query parameter.
func ParseSortOrder(s string) (SortOrder, error) {
	parts := strings.Split(s, ",")
	order := SortOrder{Property: strings.TrimSpace(parts[0]), Direction: Asc}
	if order.Property == "" {
		return SortOrder{}, fmt.Errorf("empty sort property in %q", s)
	}
	if len(parts) > 2 {
		return SortOrder{}, fmt.Errorf("malformed sort %q", s)
	}
	if len(parts) == 2 {
		switch strings.ToUpper(strings.TrimSpace(parts[1])) {
		case "ASC":
			order.Direction = Asc
		case "DESC":
			order.Direction = Desc
		default:
			return SortOrder{}, fmt.Errorf("%w: %q", ErrInvalidSortDirection, parts[1])
		}
	}
	return order, nil
}

// PageRequest selects a zero-based page of a sorted result set
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

// Offset returns the number of rows preceding the requested page,
// saturating at math.MaxInt instead of wrapping.
func (r PageRequest) Offset() int {
	if r.Size > 0 && r.Page > math.MaxInt/r.Size {
		return math.MaxInt
	}
	return r.Page * r.Size
}

// PastEnd reports whether the page starts at or after the last of total rows.
func (r PageRequest) PastEnd(total int64) bool {
	if r.Size < 1 {
		return true
	}
	return int64(r.Page) >= (total+int64(r.Size)-1)/int64(r.Size)
}

// Page is a slice of a larger result set plus the metadata needed to navigate it
type Page[T any] struct {
	Content          []T   `json:"content"`
	TotalElements    int64 `json:"total_elements"`
	TotalPages       int   `json:"total_pages"`
	Number           int   `json:"number"`
	Size             int   `json:"size"`
	NumberOfElements int   `json:"number_of_elements"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	Empty            bool  `json:"empty"`
}

// NewPage builds a page from its content, the request that produced it and the total match count.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}

	return Page[T]{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Number:           req.Page,
		Size:             req.Size,
		NumberOfElements: len(content),
		First:            req.Page == 0,
		Last:             req.Page >= totalPages-1,
		Empty:            len(content) == 0,
	}
}

// MapPage converts the content of a page, keeping its metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	content := make([]U, len(p.Content))
	for i, item := range p.Content {
		content[i] = fn(item)
	}

	return Page[U]{
		Content:          content,
		TotalElements:    p.TotalElements,
		TotalPages:       p.TotalPages,
		Number:           p.Number,
		Size:             p.Size,
		NumberOfElements: p.NumberOfElements,
		First:            p.First,
		Last:             p.Last,
		Empty:            p.Empty,
	}
}
