package tokenmgr

import "errors"

var (
	// ErrInvalidCredentials indicates the login endpoint rejected the
	// email/password pair. Never retried automatically.
	ErrInvalidCredentials = errors.New("tokenmgr.invalid_credentials")

	// ErrSessionExpired indicates the refresh token was rejected (or the
	// refresh timed out); the session has already been cleared locally.
	ErrSessionExpired = errors.New("tokenmgr.session_expired")

	// ErrNotAuthenticated indicates an authenticated request was attempted
	// with no stored session.
	ErrNotAuthenticated = errors.New("tokenmgr.not_authenticated")

	// ErrNetworkUnavailable indicates a network-level failure. Token state
	// is never mutated on this error: a lost connection is not evidence of
	// an invalid session.
	ErrNetworkUnavailable = errors.New("tokenmgr.network_unavailable")

	// ErrNoCredentials indicates the store holds no credential pair.
	ErrNoCredentials = errors.New("tokenmgr.no_credentials")

	// ErrUnexpectedResponse indicates the backend returned a body that does
	// not match the auth contract (e.g. a 2xx refresh with no access token).
	ErrUnexpectedResponse = errors.New("tokenmgr.unexpected_response")

	// ErrInvalidTransition indicates a session state change that the
	// transition table does not allow.
	ErrInvalidTransition = errors.New("tokenmgr.invalid_state_transition")

	// ErrNoBaseURL indicates the manager was constructed without a backend
	// base URL.
	ErrNoBaseURL = errors.New("tokenmgr.no_base_url")
)
