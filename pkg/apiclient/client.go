package apiclient

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

	"github.com/google/uuid"

	"github.com/mefeed/client-go/pkg/tokenmgr"
)

// Client is a typed Me Feed API client. Authenticated calls go through the
// session manager; the few public endpoints (register, password reset) use
// a plain HTTP client.
type Client struct {
	session    *tokenmgr.Manager
	baseURL    string
	httpClient tokenmgr.Executor
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets the executor used for unauthenticated endpoints.
func WithHTTPClient(client tokenmgr.Executor) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a client bound to the session manager's backend.
func New(session *tokenmgr.Manager, opts ...Option) *Client {
	c := &Client{
		session:    session,
		baseURL:    strings.TrimRight(session.BaseURL(), "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Session exposes the underlying manager, e.g. for Login/Logout calls.
func (c *Client) Session() *tokenmgr.Manager {
	return c.session
}

// get performs an authorized GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.doAuthorized(ctx, req, out)
}

// post performs an authorized POST with a JSON body.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, in)
	if err != nil {
		return err
	}
	return c.doAuthorized(ctx, req, out)
}

// put performs an authorized PUT with an optional JSON body.
func (c *Client) put(ctx context.Context, path string, in, out any) error {
	req, err := c.newRequest(ctx, http.MethodPut, path, nil, in)
	if err != nil {
		return err
	}
	return c.doAuthorized(ctx, req, out)
}

// del performs an authorized DELETE.
func (c *Client) del(ctx context.Context, path string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	return c.doAuthorized(ctx, req, nil)
}

// postPublic performs an unauthenticated POST with a JSON body.
func (c *Client) postPublic(ctx context.Context, path string, in, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, in)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", req.Method, path, err)
	}
	return decodeResponse(resp, out)
}

func (c *Client) doAuthorized(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.session.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	// Correlation ID the backend echoes into its logs.
	req.Header.Set("X-Request-ID", uuid.NewString())

	return req, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}
