package tokenmgr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// refreshKey is the singleflight key: there is only ever one session per
// manager, so all callers collapse onto one refresh cycle.
const refreshKey = "refresh"

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// refreshCredentials runs the refresh protocol, or joins the cycle already
// in flight. Every caller that waits on the same cycle observes the same
// outcome. A caller whose context ends stops waiting, but the shared
// refresh keeps running for everyone else.
func (m *Manager) refreshCredentials(ctx context.Context, staleToken string) (Credentials, error) {
	ch := m.group.DoChan(refreshKey, func() (any, error) {
		return m.runRefresh(staleToken)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Credentials{}, res.Err
		}
		return res.Val.(Credentials), nil
	case <-ctx.Done():
		return Credentials{}, ctx.Err()
	}
}

// runRefresh is the body of one refresh cycle. It executes at most once per
// cycle regardless of how many callers joined.
func (m *Manager) runRefresh(staleToken string) (Credentials, error) {
	m.mu.Lock()
	if !m.creds.Valid() {
		m.mu.Unlock()
		return Credentials{}, ErrSessionExpired
	}
	if m.creds.AccessToken != staleToken {
		// A previous cycle already replaced the token after this caller's
		// request was sent; reuse it instead of burning the refresh token.
		creds := m.creds
		m.mu.Unlock()
		return creds, nil
	}
	refreshToken := m.creds.RefreshToken
	if err := m.transitionLocked(StateRefreshing); err != nil {
		m.mu.Unlock()
		return Credentials{}, err
	}
	m.mu.Unlock()

	// The refresh is shared state, so it runs on its own deadline,
	// detached from any individual caller's context.
	ctx, cancel := context.WithTimeout(context.Background(), m.refreshTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/auth/refresh", nil)
	if err != nil {
		m.endRefresh(StateAuthenticated)
		return Credentials{}, fmt.Errorf("tokenmgr: build refresh request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// A refresh left hanging past its budget counts as a failed
			// refresh, not a transient blip.
			m.forceLogout()
			return Credentials{}, fmt.Errorf("%w: refresh timed out", ErrSessionExpired)
		}
		m.endRefresh(StateAuthenticated)
		return Credentials{}, errors.Join(ErrNetworkUnavailable, err)
	}
	defer drain(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		m.forceLogout()
		m.log.Debug("refresh token rejected, session cleared")
		return Credentials{}, ErrSessionExpired
	default:
		// A backend hiccup does not prove the refresh token invalid; the
		// session stays and callers see a transient error.
		m.endRefresh(StateAuthenticated)
		return Credentials{}, fmt.Errorf("%w: refresh returned status %d", ErrNetworkUnavailable, resp.StatusCode)
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		m.endRefresh(StateAuthenticated)
		return Credentials{}, errors.Join(ErrUnexpectedResponse, err)
	}
	if body.AccessToken == "" {
		m.endRefresh(StateAuthenticated)
		return Credentials{}, fmt.Errorf("%w: refresh response missing access token", ErrUnexpectedResponse)
	}

	creds := Credentials{AccessToken: body.AccessToken, RefreshToken: body.RefreshToken}
	if creds.RefreshToken == "" {
		// The backend may not rotate refresh tokens; keep the current one
		// so the pair invariant holds.
		creds.RefreshToken = refreshToken
	}

	if err := m.storeRefreshed(creds); err != nil {
		return Credentials{}, err
	}
	m.log.Debug("access token refreshed")

	return creds, nil
}

// storeRefreshed installs the new pair, unless the session was logged out
// while the refresh was in flight: a logout issued mid-refresh wins.
func (m *Manager) storeRefreshed(creds Credentials) error {
	m.mu.Lock()
	if m.state != StateRefreshing {
		m.mu.Unlock()
		return ErrSessionExpired
	}
	m.state = StateAuthenticated
	m.creds = creds
	m.mu.Unlock()

	m.persist(context.Background(), creds)
	return nil
}

// endRefresh restores the given state if the cycle is still the one that
// set StateRefreshing. Tokens are untouched.
func (m *Manager) endRefresh(to State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateRefreshing {
		m.state = to
	}
}

// forceLogout clears the session after a failed refresh. Unlike Logout it
// never calls the backend: the refresh token is already dead.
func (m *Manager) forceLogout() {
	_ = m.clearSession(context.Background())
}
