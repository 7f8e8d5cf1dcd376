package paginator

import (
	"context"
	"fmt"

	"github.com/paulexconde/surveyengine/internal/pkg/store"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type PaginatedResponse[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	PrevPage    *int `json:"prev_page"`
	NextPage    *int `json:"next_page"`
	TotalItems  int  `json:"total_items"`
}

type Paginator[T any] interface {
	// PaginateQuery wraps query with a count and a LIMIT/OFFSET page. The
	// placeholders of args must be numbered from $1.
	PaginateQuery(ctx context.Context, query string, args []any, page, limit int) (*PaginatedResponse[T], error)
}

type paginatorImpl[T any] struct {
	datastore store.Datastorer[T]
}

func NewPaginator[T any](ds store.Datastorer[T]) Paginator[T] {
	return &paginatorImpl[T]{datastore: ds}
}

func (p *paginatorImpl[T]) PaginateQuery(ctx context.Context, query string, args []any, page, limit int) (*PaginatedResponse[T], error) {
	page = max(page, 1)
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS total_count", query)
	raw, err := p.datastore.QueryRow(ctx, countQuery, args...)
	if err != nil {
		return nil, err
	}
	totalItems, err := toInt(raw)
	if err != nil {
		return nil, err
	}

	res := &PaginatedResponse[T]{
		Items:       []T{},
		CurrentPage: page,
		TotalPages:  (totalItems + limit - 1) / limit,
		TotalItems:  totalItems,
	}
	if page > 1 {
		prev := min(page-1, max(res.TotalPages, 1))
		res.PrevPage = &prev
	}
	if page < res.TotalPages {
		next := page + 1
		res.NextPage = &next
	}

	// past the last page there is nothing to select
	if (page-1)*limit >= totalItems {
		return res, nil
	}

	pageQuery := fmt.Sprintf("%s LIMIT $%d OFFSET $%d", query, len(args)+1, len(args)+2)
	items, err := p.datastore.Select(ctx, pageQuery, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, err
	}
	if items != nil {
		res.Items = items
	}
	return res, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected int for total count, got %T", v)
	}
}
