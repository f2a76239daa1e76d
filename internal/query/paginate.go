package query

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// Page size limits and defaults for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPageNumber keeps offsets of the largest pages well inside int32.
	MaxPageNumber = 10_000_000
)

// Source evaluates a ProductQuery. Count ignores any limit or offset.
type Source[T any] interface {
	Count(ctx context.Context, q ProductQuery) (int64, error)
	Find(ctx context.Context, q ProductQuery, offset, limit int) ([]T, error)
}

// Page is a 1-indexed page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps p into the accepted range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows before the page. It saturates at math.MaxInt instead of
// wrapping, so an oversized page lands past the last row.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Result is one page of rows plus the metadata needed to walk the rest.
type Result[T any] struct {
	Items []T
	Total int64
	Page  int
	Size  int
	Pages int
}

// TotalPages is ceil(total/size), or 0 when size is not positive.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Paginate fetches page p of q together with the total match count. The count and the
// row fetch are independent reads of the same predicate and run concurrently. The caller
// is expected to pass a page that is already in range.
func Paginate[T any](ctx context.Context, src Source[T], q ProductQuery, p Page) (*Result[T], error) {
	var (
		total int64
		items []T
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := src.Count(gctx, q)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		rows, err := src.Find(gctx, q, p.Offset(), p.Size)
		if err != nil {
			return fmt.Errorf("fetch page %d: %w", p.Number, err)
		}
		items = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if items == nil {
		items = []T{}
	}
	return &Result[T]{
		Items: items,
		Total: total,
		Page:  p.Number,
		Size:  p.Size,
		Pages: TotalPages(total, p.Size),
	}, nil
}

// Bounded fetches at most limit rows of q from the start, without counting.
func Bounded[T any](ctx context.Context, src Source[T], q ProductQuery, limit int) ([]T, error) {
	rows, err := src.Find(ctx, q, 0, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}
