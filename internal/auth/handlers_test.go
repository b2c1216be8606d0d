package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactlens/impact-backend/internal/profiles"
	"github.com/impactlens/impact-backend/internal/provider"
	"github.com/impactlens/impact-backend/internal/session"
)

type fakeEnsurer struct {
	calls int
}

func (f *fakeEnsurer) Ensure(ctx context.Context, u profiles.UpsertProfile) (*profiles.Profile, error) {
	f.calls++
	return &profiles.Profile{ID: u.UserID, Email: u.Email}, nil
}

// testAccessToken mints a provider-style JWT; the session layer decodes it
// without verifying.
func testAccessToken(t *testing.T, sub, email string, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   time.Now().Add(ttl).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type providerStub struct {
	hits          atomic.Int64
	signOutStatus int
	accessToken   string
}

func (p *providerStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		p.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "user-1", "email": "user@example.com"})
	})
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		p.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  p.accessToken,
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("POST /auth/v1/recover", func(w http.ResponseWriter, r *http.Request) {
		p.hits.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		p.hits.Add(1)
		status := p.signOutStatus
		if status == 0 {
			status = http.StatusNoContent
		}
		if status >= 400 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"msg":"sign out failed"}`))
			return
		}
		w.WriteHeader(status)
	})
	return mux
}

type harness struct {
	router  *gin.Engine
	store   *session.Store
	stub    *providerStub
	ensurer *fakeEnsurer
	cookie  session.CookieConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	stub := &providerStub{accessToken: testAccessToken(t, "user-1", "user@example.com", time.Hour)}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	store := session.NewStore(rdb, time.Hour)
	mgr := session.NewManager(store, provider.New(srv.URL, "test-key"), time.Minute)

	cookie := session.CookieConfig{Name: "impact_session", MaxAge: time.Hour}
	ensurer := &fakeEnsurer{}

	r := gin.New()
	r.Use(WithSession(mgr, cookie))
	h := NewHandler(mgr, provider.New(srv.URL, "test-key"), ensurer, cookie, "http://localhost:3000")
	h.Register(r)

	return &harness{router: r, store: store, stub: stub, ensurer: ensurer, cookie: cookie}
}

func postJSON(r http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignUp_MalformedEmail_NoNetworkCall(t *testing.T) {
	h := newHarness(t)

	w := postJSON(h.router, "/api/auth/signup", `{"email":"not-an-email","password":"longenough"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), h.stub.hits.Load(), "provider must not be contacted on validation failure")
}

func TestSignUp_ShortPassword_NoNetworkCall(t *testing.T) {
	h := newHarness(t)

	w := postJSON(h.router, "/api/auth/signup", `{"email":"user@example.com","password":"12345"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), h.stub.hits.Load())
}

func TestSignUp_Success(t *testing.T) {
	h := newHarness(t)

	w := postJSON(h.router, "/api/auth/signup", `{"email":"user@example.com","password":"123456","full_name":"Test User"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "check your email")
	assert.Equal(t, int64(1), h.stub.hits.Load())
}

func TestResetPassword_MalformedEmail_NoNetworkCall(t *testing.T) {
	h := newHarness(t)

	w := postJSON(h.router, "/api/auth/reset-password", `{"email":"missing-at.example.com"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), h.stub.hits.Load())
}

func TestSignIn_IssuesSessionAndRedirects(t *testing.T) {
	h := newHarness(t)

	w := postJSON(h.router, "/api/auth/login", `{"email":"user@example.com","password":"correct horse"}`)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	assert.Equal(t, 1, h.ensurer.calls)

	res := w.Result()
	var sid string
	for _, ck := range res.Cookies() {
		if ck.Name == "impact_session" {
			sid = ck.Value
		}
	}
	require.NotEmpty(t, sid, "session cookie must be set")

	sess, err := h.store.Get(context.Background(), sid)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "user-1", sess.UserID)
}

func TestUpdatePassword_RequiresSession(t *testing.T) {
	h := newHarness(t)

	w := postJSON(h.router, "/api/auth/update-password", `{"password":"longenoughpassword","confirm":"longenoughpassword"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdatePassword_ShortPassword(t *testing.T) {
	h := newHarness(t)

	// Sign in first to get a session cookie.
	login := postJSON(h.router, "/api/auth/login", `{"email":"user@example.com","password":"pw"}`)
	require.Equal(t, http.StatusSeeOther, login.Code)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)
	before := h.stub.hits.Load()

	w := postJSON(h.router, "/api/auth/update-password", `{"password":"short","confirm":"short"}`, cookies...)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, before, h.stub.hits.Load(), "short password must be rejected before the provider call")
}

func TestSignOut_AlwaysAnonymous_EvenWhenProviderErrors(t *testing.T) {
	h := newHarness(t)
	h.stub.signOutStatus = http.StatusInternalServerError

	login := postJSON(h.router, "/api/auth/login", `{"email":"user@example.com","password":"pw"}`)
	require.Equal(t, http.StatusSeeOther, login.Code)
	cookies := login.Result().Cookies()
	var sid string
	for _, ck := range cookies {
		if ck.Name == "impact_session" {
			sid = ck.Value
		}
	}
	require.NotEmpty(t, sid)

	w := postJSON(h.router, "/api/auth/signout", ``, cookies...)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// Session record is gone; the cookie is cleared.
	sess, err := h.store.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.Nil(t, sess, "session must be destroyed even when the provider sign-out fails")

	cleared := false
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "impact_session" && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie must be cleared")
}

func TestCallback_ExchangesCodeAndGuardsRedirect(t *testing.T) {
	h := newHarness(t)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&next=https://evil.example.com", nil))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/reset-password", w.Header().Get("Location"), "absolute next targets must fall back")

	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&next=/reset-password", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/reset-password", w.Header().Get("Location"))
}

func TestCallback_MissingCode(t *testing.T) {
	h := newHarness(t)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/callback", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?error=missing_code", w.Header().Get("Location"))
	assert.Equal(t, int64(0), h.stub.hits.Load())
}

func TestAuthDebug_ReportsState(t *testing.T) {
	h := newHarness(t)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth-debug", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var report map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, false, report["cookie_present"])
	assert.Equal(t, false, report["authenticated"])
}
