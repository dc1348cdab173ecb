package api

import (
	"context"
	"net/http"

	"github.com/cartiq/cartiq-go/internal/domain"
)

// SendChatMessage sends one turn to the shopping assistant. sessionID is the
// backend-assigned conversation id; pass "" on the first turn and echo the
// id from the response on all later turns.
func (c *Client) SendChatMessage(ctx context.Context, req domain.ChatRequest, sessionID string) (*domain.ChatResponse, error) {
	var out domain.ChatResponse
	opt := reqOpt{auth: true, sessionID: sessionID}
	if err := c.do(ctx, http.MethodPost, "/api/chat", nil, req, &out, opt); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatHealth reports whether the assistant backend is reachable.
func (c *Client) ChatHealth(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodGet, "/api/chat/health", nil, nil, &out, reqOpt{})
}
