package tokenmgr_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mefeed/client-go/pkg/tokenmgr"
)

func profileRequest(t *testing.T, b *fakeBackend) *http.Request {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, b.URL()+"/profile", nil)
	require.NoError(t, err)
	return req
}

func TestManager_Do_RefreshAndRetry(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	mgr := newManager(t, b)
	login(t, mgr)

	// The backend moves on; the client's at1 is now stale.
	b.expireAccessToken()

	resp, err := mgr.Do(context.Background(), profileRequest(t, b))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, "at2", mgr.AccessToken())
}

func TestManager_Do_SingleFlight(t *testing.T) {
	t.Parallel()

	const callers = 8

	b := newFakeBackend(t)
	b.refreshDelay = 100 * time.Millisecond // widen the window so callers pile up
	mgr := newManager(t, b)
	login(t, mgr)

	b.expireAccessToken()

	var wg sync.WaitGroup
	errs := make([]error, callers)
	statuses := make([]int, callers)
	requests := make([]*http.Request, callers)
	for i := 0; i < callers; i++ {
		requests[i] = profileRequest(t, b)
	}

	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := mgr.Do(context.Background(), requests[i])
			if err != nil {
				errs[i] = err
				return
			}
			defer resp.Body.Close()
			statuses[i] = resp.StatusCode
		}()
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, http.StatusOK, statuses[i])
	}

	// N concurrent expiries, exactly one refresh call.
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, "at2", mgr.AccessToken())
}

func TestManager_Do_AtomicTokenReplace(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	b.refreshDelay = 50 * time.Millisecond
	mgr := newManager(t, b)
	login(t, mgr)

	b.expireAccessToken()

	done := make(chan struct{})
	var readerWG sync.WaitGroup
	readerWG.Add(1)
	go func() {
		defer readerWG.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			// A reader must never observe a torn or transiently empty pair.
			token := mgr.AccessToken()
			assert.Contains(t, []string{"at1", "at2"}, token)
		}
	}()

	resp, err := mgr.Do(context.Background(), profileRequest(t, b))
	require.NoError(t, err)
	resp.Body.Close()

	close(done)
	readerWG.Wait()

	assert.Equal(t, "at2", mgr.AccessToken())
}

func TestManager_Do_NoSecondRefresh(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	b.rejectAll = true // even freshly issued tokens are rejected
	mgr := newManager(t, b)
	login(t, mgr)

	_, err := mgr.Do(context.Background(), profileRequest(t, b))
	assert.ErrorIs(t, err, tokenmgr.ErrSessionExpired)

	// One original attempt, one retry, one refresh, nothing more.
	assert.Equal(t, int32(2), b.resourceCalls.Load())
	assert.Equal(t, int32(1), b.refreshCalls.Load())

	// The double rejection forced a logout.
	assert.Empty(t, mgr.AccessToken())
	assert.Equal(t, tokenmgr.StateAnonymous, mgr.State())
}

func TestManager_Do_RefreshRejected(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	b.refreshStatus = http.StatusUnauthorized // refresh token revoked
	b.refreshDelay = 50 * time.Millisecond
	store := tokenmgr.NewMemoryStore()
	mgr := newManager(t, b, tokenmgr.WithStore(store))
	login(t, mgr)

	b.expireAccessToken()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	requests := []*http.Request{profileRequest(t, b), profileRequest(t, b)}
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = mgr.Do(context.Background(), requests[i])
		}()
	}
	wg.Wait()

	// Both pending callers observe the same failed cycle.
	for i := range errs {
		assert.ErrorIs(t, errs[i], tokenmgr.ErrSessionExpired)
	}
	assert.Equal(t, int32(1), b.refreshCalls.Load())

	// Forced logout is local only: tokens gone, no /auth/logout call.
	assert.Empty(t, mgr.AccessToken())
	assert.Equal(t, tokenmgr.StateAnonymous, mgr.State())
	assert.Equal(t, int32(0), b.logoutCalls.Load())

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, tokenmgr.ErrNoCredentials)
}

func TestManager_Do_RefreshBackendDown(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	b.refreshStatus = http.StatusServiceUnavailable
	mgr := newManager(t, b)
	login(t, mgr)

	b.expireAccessToken()

	_, err := mgr.Do(context.Background(), profileRequest(t, b))
	assert.ErrorIs(t, err, tokenmgr.ErrNetworkUnavailable)

	// A backend hiccup is not evidence of an invalid session.
	assert.Equal(t, "at1", mgr.AccessToken())
	assert.Equal(t, tokenmgr.StateAuthenticated, mgr.State())
}

func TestManager_Do_RefreshTimeout(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	b.refreshDelay = 500 * time.Millisecond
	mgr := newManager(t, b, tokenmgr.WithRefreshTimeout(50*time.Millisecond))
	login(t, mgr)

	b.expireAccessToken()

	_, err := mgr.Do(context.Background(), profileRequest(t, b))
	assert.ErrorIs(t, err, tokenmgr.ErrSessionExpired)
	assert.Empty(t, mgr.AccessToken())
}

func TestManager_Do_CallerCancellation(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	b.refreshDelay = 150 * time.Millisecond
	mgr := newManager(t, b)
	login(t, mgr)

	b.expireAccessToken()

	ctx, cancel := context.WithCancel(context.Background())
	req := profileRequest(t, b)
	canceled := make(chan error, 1)
	go func() {
		_, err := mgr.Do(ctx, req)
		canceled <- err
	}()

	// Give the first caller time to reach the refresh, then abandon it.
	time.Sleep(30 * time.Millisecond)
	cancel()

	err := <-canceled
	assert.ErrorIs(t, err, context.Canceled)

	// The shared refresh keeps running: a patient caller still succeeds.
	resp, err := mgr.Do(context.Background(), profileRequest(t, b))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, "at2", mgr.AccessToken())
}

func TestManager_Do_PassThrough(t *testing.T) {
	t.Parallel()

	t.Run("non-401 statuses are not intercepted", func(t *testing.T) {
		t.Parallel()

		b := newFakeBackend(t)
		mgr := newManager(t, b)
		login(t, mgr)

		req, err := http.NewRequest(http.MethodGet, b.URL()+"/missing", nil)
		require.NoError(t, err)

		resp, err := mgr.Do(context.Background(), req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, int32(0), b.refreshCalls.Load())
	})

	t.Run("anonymous session", func(t *testing.T) {
		t.Parallel()

		b := newFakeBackend(t)
		mgr := newManager(t, b)

		_, err := mgr.Do(context.Background(), profileRequest(t, b))
		assert.ErrorIs(t, err, tokenmgr.ErrNotAuthenticated)
	})
}

func TestManager_Do_ReplaysBodyOnRetry(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	mgr := newManager(t, b)
	login(t, mgr)

	b.expireAccessToken()

	payload := []byte(`{"title":"Severance"}`)
	req, err := http.NewRequest(http.MethodPost, b.URL()+"/echo", bytes.NewReader(payload))
	require.NoError(t, err)

	resp, err := mgr.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// The retried request carried the full body again.
	echoed, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, echoed)
	assert.Equal(t, int32(2), b.resourceCalls.Load())
}

func TestManager_Transport(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(t)
	mgr := newManager(t, b)
	login(t, mgr)

	b.expireAccessToken()

	// A stock client decorated with the manager refreshes transparently.
	client := mgr.Client()
	resp, err := client.Get(b.URL() + "/profile")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "at2", mgr.AccessToken())
}
