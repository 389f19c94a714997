package tokenmgr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Executor performs a single HTTP request. *http.Client satisfies it; tests
// and custom transports can substitute their own.
type Executor interface {
	Do(req *http.Request) (*http.Response, error)
}

// Manager owns the credential pair and the session state machine. It is the
// only writer of the pair: consumers read the access token through
// AccessToken or route calls through Do / Transport.
//
// Safe for concurrent use.
type Manager struct {
	baseURL        string
	httpClient     Executor
	store          Store
	log            *slog.Logger
	refreshTimeout time.Duration

	mu    sync.RWMutex
	creds Credentials
	state State

	// group memoizes the in-flight refresh so N concurrent 401s produce
	// exactly one /auth/refresh call.
	group singleflight.Group
}

// New creates a Manager and hydrates it from the store, so a session
// persisted by a previous process is picked up immediately.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		refreshTimeout: 10 * time.Second,
		state:          StateAnonymous,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.baseURL == "" {
		return nil, ErrNoBaseURL
	}
	m.baseURL = strings.TrimRight(m.baseURL, "/")

	if m.store == nil {
		m.store = NewMemoryStore()
	}

	m.hydrate(context.Background())

	return m, nil
}

// hydrate loads a previously persisted pair. An unreadable store is not
// fatal: the manager starts anonymous and the consumer logs in again.
func (m *Manager) hydrate(ctx context.Context) {
	creds, err := m.store.Load(ctx)
	switch {
	case err == nil && creds.Valid():
		m.creds = creds
		m.state = StateAuthenticated
	case err != nil && !errors.Is(err, ErrNoCredentials):
		m.log.Warn("token store unreadable, starting anonymous", slog.Any("error", err))
	}
}

// Login authenticates against POST /auth/login and stores the returned
// pair. A rejected login returns ErrInvalidCredentials and leaves the
// session anonymous.
func (m *Manager) Login(ctx context.Context, email, password string) (Credentials, error) {
	payload, err := json.Marshal(struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password})
	if err != nil {
		return Credentials{}, fmt.Errorf("tokenmgr: encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return Credentials{}, fmt.Errorf("tokenmgr: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Credentials{}, errors.Join(ErrNetworkUnavailable, err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if detail := decodeDetail(resp.Body); detail != "" {
			return Credentials{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, detail)
		}
		return Credentials{}, ErrInvalidCredentials
	}

	var creds Credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return Credentials{}, errors.Join(ErrUnexpectedResponse, err)
	}
	if !creds.Valid() {
		return Credentials{}, fmt.Errorf("%w: login response missing tokens", ErrUnexpectedResponse)
	}

	m.mu.Lock()
	if err := m.transitionLocked(StateAuthenticated); err != nil {
		m.mu.Unlock()
		return Credentials{}, err
	}
	m.creds = creds
	m.mu.Unlock()

	m.persist(ctx, creds)
	m.log.Debug("login succeeded")

	return creds, nil
}

// Logout calls POST /auth/logout best-effort, then clears the session
// locally. The network call never blocks local cleanup and its failure is
// only logged. Logging out an anonymous session is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.RLock()
	creds := m.creds
	anonymous := m.state == StateAnonymous
	m.mu.RUnlock()

	if !anonymous && creds.Valid() {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/auth/logout", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
			resp, err := m.httpClient.Do(req)
			if err != nil {
				m.log.Debug("logout call failed", slog.Any("error", err))
			} else {
				drain(resp)
			}
		}
	}

	return m.clearSession(ctx)
}

// AdoptSession installs a pair issued outside of Login, e.g. by the
// registration endpoint, and transitions to Authenticated. This is the only
// supported way for consumers to hand tokens to the manager.
func (m *Manager) AdoptSession(ctx context.Context, creds Credentials) error {
	if !creds.Valid() {
		return fmt.Errorf("%w: partial credential pair", ErrUnexpectedResponse)
	}

	m.mu.Lock()
	if err := m.transitionLocked(StateAuthenticated); err != nil {
		m.mu.Unlock()
		return err
	}
	m.creds = creds
	m.mu.Unlock()

	m.persist(ctx, creds)
	return nil
}

// BaseURL returns the backend base URL the manager was built with.
func (m *Manager) BaseURL() string {
	return m.baseURL
}

// AccessToken returns the current access token, or "" when anonymous. No
// side effects, no network.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.AccessToken
}

// Authenticated reports whether a credential pair is held.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state != StateAnonymous && m.creds.Valid()
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Close forgets the in-memory pair without touching the store, so a
// persisted session survives for the next process. Safe to call multiple
// times.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creds = Credentials{}
	m.state = StateAnonymous
	return nil
}

// currentCredentials snapshots the pair for a request about to be sent.
func (m *Manager) currentCredentials() (Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.creds.Valid() {
		return Credentials{}, false
	}
	return m.creds, true
}

// clearSession drops the pair locally and transitions to Anonymous. Memory
// is cleared even when the store fails, so a caller never observes a stale
// authenticated read after the session ended.
func (m *Manager) clearSession(ctx context.Context) error {
	m.mu.Lock()
	m.creds = Credentials{}
	m.state = StateAnonymous
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn("clearing token store failed", slog.Any("error", err))
		return err
	}
	return nil
}

// persist saves the pair; a store failure keeps the in-memory session
// usable and is only logged.
func (m *Manager) persist(ctx context.Context, creds Credentials) {
	if err := m.store.Save(ctx, creds); err != nil {
		m.log.Warn("persisting tokens failed", slog.Any("error", err))
	}
}

func (m *Manager) transitionLocked(to State) error {
	if !m.state.canTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}

// decodeDetail extracts the backend's {"detail": "..."} error body.
func decodeDetail(r io.Reader) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	return body.Detail
}

// drain consumes and closes a response body so the underlying connection
// can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
