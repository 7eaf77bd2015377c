package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/your-org/storefront/internal/pkg/apierror"
)

// ListKind tells which shape a list endpoint answered with
type ListKind int

const (
	// ListFlat is a bare JSON array
	ListFlat ListKind = iota + 1
	// ListPaginated is {"count", "next", "previous", "results"}
	ListPaginated
)

// PageMeta is only populated for paginated replies
type PageMeta struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// ListResponse is the normalized reply of any list endpoint
type ListResponse[T any] struct {
	Kind  ListKind
	Items []T
	Meta  PageMeta
}

// Total returns the upstream count when paginated, else the number of items
func (l ListResponse[T]) Total() int {
	if l.Kind == ListPaginated && l.Meta.Count > 0 {
		return l.Meta.Count
	}
	return len(l.Items)
}

var errUnknownListShape = errors.New("list response is neither an array nor a paginated object")

// DecodeList accepts both list shapes the API produces
func DecodeList[T any](body []byte) (ListResponse[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ListResponse[T]{}, errUnknownListShape
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return ListResponse[T]{}, fmt.Errorf("failed to decode list: %w", err)
		}
		if items == nil {
			items = []T{}
		}
		return ListResponse[T]{Kind: ListFlat, Items: items}, nil
	case '{':
		var page struct {
			PageMeta
			Results *[]T `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return ListResponse[T]{}, fmt.Errorf("failed to decode page: %w", err)
		}
		if page.Results == nil {
			return ListResponse[T]{}, errUnknownListShape
		}
		return ListResponse[T]{Kind: ListPaginated, Items: *page.Results, Meta: page.PageMeta}, nil
	default:
		return ListResponse[T]{}, errUnknownListShape
	}
}

// Doer sends a request and returns the raw reply
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// GetList performs a list request and normalizes the reply
func GetList[T any](ctx context.Context, c Doer, req Request) (ListResponse[T], error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return ListResponse[T]{}, err
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return ListResponse[T]{}, apierror.ParseServerError(req.Op, resp.Status, resp.Body)
	}

	list, err := DecodeList[T](resp.Body)
	if err != nil {
		return ListResponse[T]{}, &apierror.Error{
			Kind:    apierror.KindTransport,
			Op:      req.Op,
			Status:  resp.Status,
			Message: "malformed response",
			Err:     err,
		}
	}
	return list, nil
}
