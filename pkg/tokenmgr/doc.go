// Package tokenmgr keeps a client authenticated against the Me Feed backend.
// It owns the access/refresh token pair, persists it through a pluggable
// Store, and wraps outbound requests so that every authenticated call carries
// a valid access token, transparently recovering from access-token expiry
// with at most one concurrent refresh, no matter how many requests discover
// the expiry at the same time.
//
// # Architecture
//
// A Manager orchestrates the session life-cycle. It relies on a Store to
// persist the credential pair (in-memory, encrypted file, or Redis) and on an
// injected Executor (any *http.Client) to talk to the backend. The manager is
// the only writer of the pair; consumers read the current token through
// AccessToken or, preferably, never touch it at all and route calls through
// Do or the Transport decorator.
//
//	┌──────────┐  Do / RoundTrip  ┌───────────────┐
//	│ Consumer │ ───────────────► │    Manager    │
//	└──────────┘                  └───────────────┘
//	                               │            │
//	                      refresh  │            │  Load / Save / Clear
//	                (single-flight)▼            ▼
//	                        ┌──────────┐   ┌────────┐
//	                        │ Backend  │   │ Store  │ (memory, file, redis)
//	                        └──────────┘   └────────┘
//
// # Refresh protocol
//
// A wrapped request that comes back 401 triggers exactly one refresh cycle:
// the first caller to observe the expiry issues POST /auth/refresh, every
// other caller that hits 401 while that call is in flight awaits the same
// outcome, and all of them retry their original request once with the new
// access token. The de-duplication is built on singleflight, so the shared
// result is always from the cycle the caller waited on. A request that is
// still rejected after its one retry surfaces ErrSessionExpired and forces a
// local logout; it is never retried again.
//
// # Usage
//
//	mgr, err := tokenmgr.New(
//	    tokenmgr.WithBaseURL("https://api.mefeed.app"),
//	    tokenmgr.WithStore(store),
//	)
//	if err != nil {
//	    // handle error
//	}
//	defer mgr.Close()
//
//	if _, err := mgr.Login(ctx, "a@x.com", "secret"); err != nil {
//	    // handle tokenmgr.ErrInvalidCredentials
//	}
//
//	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
//	resp, err := mgr.Do(ctx, req)
//
// Or wrap a stock client:
//
//	httpClient := mgr.Client()
//	resp, err := httpClient.Get(url) // bearer token + refresh handled
//
// # Error Handling
//
// Sentinel errors returned by the package, matched with errors.Is:
//
//   - ErrInvalidCredentials  – login rejected by the backend
//   - ErrSessionExpired      – refresh failed; session was cleared locally
//   - ErrNotAuthenticated    – Do called without a stored session
//   - ErrNetworkUnavailable  – network-level failure; token state untouched
//
// Non-401 error statuses on wrapped requests are not errors from the
// manager's point of view: the response is passed through unchanged.
package tokenmgr
