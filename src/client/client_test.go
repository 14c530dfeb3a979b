package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-client/src/schemas"
	"laundry-client/src/storage"
)

// backend is a scripted fake API used to exercise the refresh protocol.
type backend struct {
	refreshCalls  atomic.Int32
	refreshStatus int    // status for the refresh endpoint
	newAccess     string // access token the refresh hands out
	validTokens   map[string]bool
}

func (b *backend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == RefreshPath {
			b.refreshCalls.Add(1)
			var req schemas.RefreshRequest
			json.NewDecoder(r.Body).Decode(&req)
			if b.refreshStatus != http.StatusOK {
				w.WriteHeader(b.refreshStatus)
				w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
				return
			}
			json.NewEncoder(w).Encode(schemas.RefreshResponse{Access: b.newAccess})
			return
		}

		auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !b.validTokens[auth] {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Given token not valid"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	})
}

func newTestClient(t *testing.T, b *backend, access, refresh string) (*Client, *storage.MemStore) {
	t.Helper()
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)
	tokens := storage.NewMemStore()
	if access != "" || refresh != "" {
		require.NoError(t, tokens.Save(access, refresh))
	}
	return New(server.URL, tokens, nil), tokens
}

func TestRefreshAndReplayOnce(t *testing.T) {
	t.Parallel()

	b := &backend{
		refreshStatus: http.StatusOK,
		newAccess:     "fresh",
		validTokens:   map[string]bool{"fresh": true},
	}
	c, tokens := newTestClient(t, b, "stale", "refresh-token")

	var out map[string]string
	err := c.Get(context.Background(), "/api/profile/", &out)
	require.NoError(t, err)
	assert.Equal(t, "yes", out["ok"])
	assert.Equal(t, int32(1), b.refreshCalls.Load())

	access, ok := tokens.Access()
	require.True(t, ok)
	assert.Equal(t, "fresh", access)
}

func TestSecond401IsSurfacedNotRetried(t *testing.T) {
	t.Parallel()

	// The refreshed token is still not accepted, so the replay 401s too.
	b := &backend{
		refreshStatus: http.StatusOK,
		newAccess:     "fresh",
		validTokens:   map[string]bool{},
	}
	c, _ := newTestClient(t, b, "stale", "refresh-token")

	err := c.Get(context.Background(), "/api/profile/", nil)
	require.Error(t, err)
	assert.True(t, schemas.IsUnauthorized(err))
	assert.Equal(t, int32(1), b.refreshCalls.Load())
}

func TestMissingRefreshTokenSurfacesOriginalError(t *testing.T) {
	t.Parallel()

	b := &backend{refreshStatus: http.StatusOK, validTokens: map[string]bool{}}
	c, tokens := newTestClient(t, b, "stale", "")

	err := c.Get(context.Background(), "/api/profile/", nil)
	require.Error(t, err)
	assert.True(t, schemas.IsUnauthorized(err))
	assert.Equal(t, int32(0), b.refreshCalls.Load(), "refresh endpoint must not be called")

	// The session is cleared only on explicit refresh failure, never on a
	// missing refresh token.
	access, ok := tokens.Access()
	assert.True(t, ok)
	assert.Equal(t, "stale", access)
}

func TestRefreshFailureClearsSession(t *testing.T) {
	t.Parallel()

	b := &backend{refreshStatus: http.StatusUnauthorized, validTokens: map[string]bool{}}
	c, tokens := newTestClient(t, b, "stale", "expired-refresh")

	err := c.Get(context.Background(), "/api/profile/", nil)
	require.Error(t, err)
	assert.True(t, schemas.IsUnauthorized(err))
	assert.Equal(t, int32(1), b.refreshCalls.Load())

	_, haveAccess := tokens.Access()
	_, haveRefresh := tokens.Refresh()
	assert.False(t, haveAccess)
	assert.False(t, haveRefresh)
}

func TestRefreshEndpoint401NotRecovered(t *testing.T) {
	t.Parallel()

	b := &backend{refreshStatus: http.StatusUnauthorized, validTokens: map[string]bool{}}
	c, _ := newTestClient(t, b, "", "whatever")

	err := c.Post(context.Background(), RefreshPath, schemas.RefreshRequest{Refresh: "whatever"}, nil)
	require.Error(t, err)
	assert.True(t, schemas.IsUnauthorized(err))
	// Exactly the direct call, no recovery loop.
	assert.Equal(t, int32(1), b.refreshCalls.Load())
}

func TestConcurrentRefreshIsDeduplicated(t *testing.T) {
	t.Parallel()

	b := &backend{
		refreshStatus: http.StatusOK,
		newAccess:     "fresh",
		validTokens:   map[string]bool{"fresh": true},
	}
	c, _ := newTestClient(t, b, "stale", "refresh-token")

	const callers = 8
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			errs <- c.Get(context.Background(), "/api/profile/", nil)
		}()
	}
	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, int32(1), b.refreshCalls.Load(), "simultaneous 401s must share one refresh")
}

func TestNetworkErrorType(t *testing.T) {
	t.Parallel()

	c := New("http://127.0.0.1:1", storage.NewMemStore(), nil)
	err := c.Get(context.Background(), "/api/profile/", nil)
	require.Error(t, err)
	var netErr *schemas.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestAPIErrorCarriesPayloadMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"user with this email already exists"}`))
	}))
	t.Cleanup(server.Close)

	c := New(server.URL, storage.NewMemStore(), nil)
	err := c.Post(context.Background(), "/api/users/", map[string]string{}, nil)
	require.Error(t, err)

	var apiErr *schemas.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "user with this email already exists", apiErr.Message)
}
