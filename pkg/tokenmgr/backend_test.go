package tokenmgr_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// fakeBackend is a minimal stand-in for the Me Feed auth API. The currently
// valid access token is b.access; expireAccessToken invalidates whatever the
// client holds, and a successful refresh hands out the current pair with a
// rotated refresh token.
type fakeBackend struct {
	mu      sync.Mutex
	n       int
	access  string
	refresh string

	refreshCalls  atomic.Int32
	resourceCalls atomic.Int32
	logoutCalls   atomic.Int32

	refreshDelay  time.Duration
	refreshStatus int  // non-zero forces this status from /auth/refresh
	rejectAll     bool // resource endpoints reject every token

	srv *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{n: 1, access: "at1", refresh: "rt1"}

	r := chi.NewRouter()
	r.Post("/auth/login", b.handleLogin)
	r.Post("/auth/refresh", b.handleRefresh)
	r.Post("/auth/logout", b.handleLogout)
	r.Get("/profile", b.handleProfile)
	r.Post("/echo", b.handleEcho)

	b.srv = httptest.NewServer(r)
	t.Cleanup(b.srv.Close)

	return b
}

func (b *fakeBackend) URL() string { return b.srv.URL }

// expireAccessToken makes the client's access token stale without touching
// the refresh token, like a server-side expiry would.
func (b *fakeBackend) expireAccessToken() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	b.access = fmt.Sprintf("at%d", b.n)
}

func (b *fakeBackend) currentAccessToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.access
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.Email != "a@x.com" || req.Password != "p1" {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	b.mu.Lock()
	resp := map[string]string{"access_token": b.access, "refresh_token": b.refresh}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	if b.refreshDelay > 0 {
		time.Sleep(b.refreshDelay)
	}
	if b.refreshStatus != 0 {
		writeDetail(w, b.refreshStatus, "refresh unavailable")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if bearer(r) != b.refresh {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	b.refresh = fmt.Sprintf("rt%d", b.n)
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  b.access,
		"refresh_token": b.refresh,
	})
}

func (b *fakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.logoutCalls.Add(1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (b *fakeBackend) handleProfile(w http.ResponseWriter, r *http.Request) {
	b.resourceCalls.Add(1)

	b.mu.Lock()
	valid := !b.rejectAll && bearer(r) == b.access
	b.mu.Unlock()

	if !valid {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": "a@x.com"})
}

func (b *fakeBackend) handleEcho(w http.ResponseWriter, r *http.Request) {
	b.resourceCalls.Add(1)

	b.mu.Lock()
	valid := !b.rejectAll && bearer(r) == b.access
	b.mu.Unlock()

	if !valid {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	body, _ := io.ReadAll(r.Body)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
