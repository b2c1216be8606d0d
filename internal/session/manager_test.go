package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactlens/impact-backend/internal/provider"
)

func mintToken(t *testing.T, sub string, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": "user@example.com",
		"exp":   time.Now().Add(ttl).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// refreshStub answers the provider's refresh grant, optionally failing.
type refreshStub struct {
	refreshes atomic.Int64
	fail      bool
	token     func() string
}

func (s *refreshStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		s.refreshes.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if s.fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"msg":"refresh token revoked"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  s.token(),
			"refresh_token": "refresh-2",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	})
	return mux
}

func newTestManager(t *testing.T, stub *refreshStub) (*Manager, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	store := NewStore(rdb, time.Hour)
	return NewManager(store, provider.New(srv.URL, "test-key"), time.Minute), store
}

func TestManager_IssueAndResolve(t *testing.T) {
	stub := &refreshStub{token: func() string { return mintToken(t, "u1", time.Hour) }}
	mgr, _ := newTestManager(t, stub)
	ctx := context.Background()

	sess, err := mgr.Issue(ctx, &provider.TokenPair{
		AccessToken:  mintToken(t, "u1", time.Hour),
		RefreshToken: "refresh-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, "user@example.com", sess.Email)

	got, err := mgr.Resolve(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, int64(0), stub.refreshes.Load(), "a fresh token must not trigger a refresh")
}

func TestManager_ResolveEmptyID(t *testing.T) {
	stub := &refreshStub{token: func() string { return mintToken(t, "u1", time.Hour) }}
	mgr, _ := newTestManager(t, stub)

	got, err := mgr.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_ResolveRefreshesExpiringToken(t *testing.T) {
	stub := &refreshStub{token: func() string { return mintToken(t, "u1", time.Hour) }}
	mgr, store := newTestManager(t, stub)
	ctx := context.Background()

	// Issue with a token already inside the refresh skew.
	sess, err := mgr.Issue(ctx, &provider.TokenPair{
		AccessToken:  mintToken(t, "u1", 10*time.Second),
		RefreshToken: "refresh-1",
	})
	require.NoError(t, err)

	got, err := mgr.Resolve(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), stub.refreshes.Load())
	assert.Equal(t, "refresh-2", got.RefreshToken)
	assert.True(t, got.ExpiresAt.After(time.Now().Add(30*time.Minute)))

	// The refreshed pair is persisted.
	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", stored.RefreshToken)
}

func TestManager_ResolveSettlesAnonymousOnRefreshFailure(t *testing.T) {
	stub := &refreshStub{fail: true, token: func() string { return "" }}
	mgr, store := newTestManager(t, stub)
	ctx := context.Background()

	sess, err := mgr.Issue(ctx, &provider.TokenPair{
		AccessToken:  mintToken(t, "u1", 10*time.Second),
		RefreshToken: "refresh-1",
	})
	require.NoError(t, err)

	got, err := mgr.Resolve(ctx, sess.ID)
	require.NoError(t, err, "a failed refresh is anonymous, not an error")
	assert.Nil(t, got)

	// The stale record is dropped.
	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestManager_Destroy(t *testing.T) {
	stub := &refreshStub{token: func() string { return mintToken(t, "u1", time.Hour) }}
	mgr, store := newTestManager(t, stub)
	ctx := context.Background()

	sess, err := mgr.Issue(ctx, &provider.TokenPair{
		AccessToken:  mintToken(t, "u1", time.Hour),
		RefreshToken: "refresh-1",
	})
	require.NoError(t, err)

	require.NoError(t, mgr.Destroy(ctx, sess.ID))

	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	// Destroying an already-dead session is not an error.
	require.NoError(t, mgr.Destroy(ctx, sess.ID))
}

func TestParseAccessToken(t *testing.T) {
	claims, err := ParseAccessToken(mintToken(t, "u1", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)

	_, err = ParseAccessToken("not-a-jwt")
	assert.Error(t, err)
}
