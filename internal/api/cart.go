package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// Cart fetches the current cart snapshot.
func (c *Client) Cart(ctx context.Context) (*domain.Cart, error) {
	var out domain.Cart
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, nil, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddToCart adds a product and returns the complete updated cart.
func (c *Client) AddToCart(ctx context.Context, req domain.AddToCartRequest) (*domain.Cart, error) {
	var out domain.Cart
	if err := c.do(ctx, http.MethodPost, "/api/cart/items", nil, req, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCartItem changes a line's quantity and returns the complete updated
// cart.
func (c *Client) UpdateCartItem(ctx context.Context, itemID string, req domain.UpdateCartItemRequest) (*domain.Cart, error) {
	var out domain.Cart
	path := "/api/cart/items/" + url.PathEscape(itemID)
	if err := c.do(ctx, http.MethodPut, path, nil, req, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveFromCart deletes a line and returns the complete updated cart.
func (c *Client) RemoveFromCart(ctx context.Context, itemID string) (*domain.Cart, error) {
	var out domain.Cart
	path := "/api/cart/items/" + url.PathEscape(itemID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &out, reqOpt{auth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearCart empties the cart. The backend replies 204 with no body.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/cart", nil, nil, nil, reqOpt{auth: true})
}
