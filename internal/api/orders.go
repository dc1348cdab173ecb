package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// CreateOrder places an order from the current cart contents.
func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", nil, req, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders returns one page of the user's order history. Status filters when
// non-empty. List entries omit line items; use Order for the detail view.
func (c *Client) Orders(ctx context.Context, page, size int, status string) (*domain.Page[domain.Order], error) {
	q := pageQuery(page, size)
	if status != "" {
		q.Set("status", status)
	}
	var out domain.Page[domain.Order]
	if err := c.do(ctx, http.MethodGet, "/api/orders", q, nil, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Order fetches a single order with its line items.
func (c *Client) Order(ctx context.Context, id string) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), nil, nil, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrderByNumber fetches a single order by its human-facing number.
func (c *Client) OrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var out domain.Order
	path := "/api/orders/number/" + url.PathEscape(number)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder cancels an order and returns its updated state.
func (c *Client) CancelOrder(ctx context.Context, id string) (*domain.Order, error) {
	var out domain.Order
	path := "/api/orders/" + url.PathEscape(id) + "/cancel"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}
