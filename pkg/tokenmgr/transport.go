package tokenmgr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Do executes req with the current access token attached. On the first 401
// it runs (or joins) the refresh cycle and retries the request exactly once
// with the new token; a 401 on the retry surfaces ErrSessionExpired and
// forces a logout. Any other status passes through unchanged; the manager
// only intercepts 401.
func (m *Manager) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	creds, ok := m.currentCredentials()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	if err := ensureReplayable(req); err != nil {
		return nil, err
	}

	resp, err := m.send(ctx, req, creds.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drain(resp)

	fresh, err := m.refreshCredentials(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	retry, err := m.send(ctx, req, fresh.AccessToken)
	if err != nil {
		return nil, err
	}
	if retry.StatusCode == http.StatusUnauthorized {
		// The freshly issued token was rejected too. Retrying again would
		// loop, so surface the failure and drop the session.
		drain(retry)
		m.forceLogout()
		return nil, fmt.Errorf("%w: request rejected after refresh", ErrSessionExpired)
	}

	return retry, nil
}

// Transport returns an http.RoundTripper that routes every request through
// Do, so a stock *http.Client can be decorated with the session behavior.
func (m *Manager) Transport() http.RoundTripper {
	return roundTripper{m: m}
}

// Client returns an *http.Client wired to Transport.
func (m *Manager) Client() *http.Client {
	return &http.Client{Transport: m.Transport()}
}

type roundTripper struct {
	m *Manager
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt.m.Do(req.Context(), req)
}

// send executes a clone of req carrying the given token. The original
// request is never mutated, so it can be replayed after a refresh.
func (m *Manager) send(ctx context.Context, req *http.Request, token string) (*http.Response, error) {
	r := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("tokenmgr: rewind request body: %w", err)
		}
		r.Body = body
	}
	r.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.httpClient.Do(r)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The caller's own cancellation, not a network classification.
			return nil, err
		}
		return nil, errors.Join(ErrNetworkUnavailable, err)
	}

	return resp, nil
}

// ensureReplayable buffers a one-shot body so the request can be retried
// after a refresh. Requests built with http.NewRequest already carry
// GetBody for common body types and are left alone.
func ensureReplayable(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return fmt.Errorf("tokenmgr: buffer request body: %w", err)
	}

	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil
}
