package tokenmgr

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithBaseURL sets the backend base URL. Required.
func WithBaseURL(url string) Option {
	return func(m *Manager) {
		m.baseURL = url
	}
}

// WithStore sets the durable credential store. Defaults to an in-memory
// store, i.e. the session does not survive a restart.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithHTTPClient sets the executor used for all backend calls. Any
// *http.Client satisfies Executor.
func WithHTTPClient(client Executor) Option {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithLogger sets the logger. The manager logs refresh transitions at debug
// and swallowed failures at warn; it is silent by default.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithRefreshTimeout bounds the shared refresh call. A refresh that exceeds
// the budget counts as a failed refresh and forces a logout.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.refreshTimeout = timeout
		}
	}
}
