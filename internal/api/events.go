package api

import (
	"context"
	"net/http"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// Event endpoints. Every tracking call carries the session id in the
// X-Session-Id header in addition to the event body; the backend requires it
// for correlation. These are plain transport calls — the best-effort policy
// (swallow failures, never block the caller) belongs to the event dispatcher.

// TrackUserEvent posts a page-view or auth lifecycle event.
func (c *Client) TrackUserEvent(ctx context.Context, ev domain.UserEvent) error {
	return c.do(ctx, http.MethodPost, "/api/events/user", nil, ev, nil,
		reqOpt{auth: true, sessionID: ev.SessionID})
}

// TrackProductView posts a product view event.
func (c *Client) TrackProductView(ctx context.Context, ev domain.ProductViewEvent) error {
	return c.do(ctx, http.MethodPost, "/api/events/product-view", nil, ev, nil,
		reqOpt{auth: true, sessionID: ev.SessionID})
}

// TrackCartEvent posts a cart mutation event.
func (c *Client) TrackCartEvent(ctx context.Context, ev domain.CartEvent) error {
	return c.do(ctx, http.MethodPost, "/api/events/cart", nil, ev, nil,
		reqOpt{auth: true, sessionID: ev.SessionID})
}

// TrackOrderEvent posts an order lifecycle event.
func (c *Client) TrackOrderEvent(ctx context.Context, ev domain.OrderEvent) error {
	return c.do(ctx, http.MethodPost, "/api/events/order", nil, ev, nil,
		reqOpt{auth: true, sessionID: ev.SessionID})
}

// TrackProfile posts a user profile snapshot event.
func (c *Client) TrackProfile(ctx context.Context, ev domain.ProfileEvent) error {
	return c.do(ctx, http.MethodPost, "/api/events/profile", nil, ev, nil,
		reqOpt{auth: true, sessionID: ev.SessionID})
}
