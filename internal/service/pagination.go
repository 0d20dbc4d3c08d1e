package service

import (
	"fmt"

	"gorm.io/gorm"
)

// MaxPageSize bounds the window of any paginated read.
const MaxPageSize = 200

// PageResult is one page of a filtered, deterministically ordered read.
// Total is computed against the same predicate as Items.
type PageResult[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

// normalizePage validates 1-based page numbers and clamps the size to
// MaxPageSize. Page < 1 or size <= 0 is an input error on every read path.
func normalizePage(page, size int) (int, int, error) {
	if page < 1 || size <= 0 {
		return 0, 0, fmt.Errorf("%w: page must be >= 1 and size > 0", ErrInvalidInput)
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size, nil
}

// runPage executes the two-query pagination protocol: a count over base and
// a windowed fetch over fetch. Both must carry the same predicate; order must
// end in a unique key so no row can straddle or skip a page boundary.
func runPage[T any](base, fetch *gorm.DB, order string, page, size int) (*PageResult[T], error) {
	page, size, err := normalizePage(page, size)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]T, 0, size)
	if err := fetch.Order(order).Limit(size).Offset((page - 1) * size).Find(&items).Error; err != nil {
		return nil, err
	}

	return &PageResult[T]{Items: items, Page: page, Size: size, Total: total}, nil
}

// emptyPage is the well-formed zero result for reads whose source set is
// empty by construction (e.g. a feed with no followees).
func emptyPage[T any](page, size int) (*PageResult[T], error) {
	page, size, err := normalizePage(page, size)
	if err != nil {
		return nil, err
	}
	return &PageResult[T]{Items: []T{}, Page: page, Size: size, Total: 0}, nil
}
