// Package api implements the thin HTTP/JSON client for the CartIQ backend.
//
// The client is deliberately a direct wrapper over net/http: no retries, no
// backoff, no response caching. Policy (best-effort dispatch, prefetching,
// full-replace cart updates) lives in the services that call it. Requests are
// traced with OpenTelemetry and logged at debug level.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Session id header expected by the chat and event endpoints.
const headerSessionID = "X-Session-Id"

// headerUserID carries the user identity on anonymous personalization calls.
const headerUserID = "X-User-Id"

// TokenSource supplies the current bearer credential, or "" when the client
// is unauthenticated. The auth service owns the credential; the API client
// only reads it per request so the two can never diverge for more than one
// request cycle.
type TokenSource func() string

// APIError is a non-2xx backend response decoded into the backend's error
// envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: request failed (status %d)", e.Status)
}

// Client is the CartIQ backend client. Construct it once with New and share
// it; it is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource sets the bearer credential source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   func() string { return "" },
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// reqOpt carries per-request options for do.
type reqOpt struct {
	auth      bool
	sessionID string
	userID    string
}

// errorEnvelope matches the backend's error body; either field may be set.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// do executes one JSON request. When out is non-nil the 2xx response body is
// decoded into it; 204 responses are accepted with no decoding.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, opt reqOpt) error {
	tr := otel.Tracer("api/Client")
	ctx, span := tr.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer span.End()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			span.SetStatus(codes.Error, "encode")
			return fmt.Errorf("api: encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		span.SetStatus(codes.Error, "build request")
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opt.auth {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if opt.sessionID != "" {
		req.Header.Set(headerSessionID, opt.sessionID)
	}
	if opt.userID != "" {
		req.Header.Set(headerUserID, opt.userID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, "transport")
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env errorEnvelope
		if derr := json.NewDecoder(resp.Body).Decode(&env); derr == nil {
			apiErr.Code = env.Code
			if env.Error != "" {
				apiErr.Message = env.Error
			} else {
				apiErr.Message = env.Message
			}
		}
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// pageQuery builds the standard 0-based page/size query.
func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	return q
}
