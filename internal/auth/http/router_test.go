package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/plumeworks/plume/internal/auth/service"
	"github.com/plumeworks/plume/internal/auth/store/drivers/sqlite"
	"github.com/plumeworks/plume/pkg/jwtx"
	"github.com/plumeworks/plume/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeMailer struct {
	sent    int
	failErr error
}

func (m *fakeMailer) Send(context.Context, string, string, string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.sent++
	return nil
}

type testEnv struct {
	router *Router
	store  *sqlite.Store
	mailer *fakeMailer
	clock  *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	mailer := &fakeMailer{}

	signer := jwtx.NewSigner("test-secret", "plume-test")
	signer.Now = clock.Now

	logger := slogx.New(slogx.Config{Service: "auth-test", Level: "error", Format: "text"})

	r := NewRouter(signer, "test", logger)
	r.AuthService = &service.AuthService{
		Store:           st,
		Signer:          signer,
		Mailer:          mailer,
		ConfirmURL:      "https://plume.test/confirm",
		AccessTTL:       time.Minute,
		RefreshTTL:      time.Hour,
		ConfirmationTTL: 90 * time.Minute,
		Now:             clock.Now,
	}
	r.UserService = &service.UserService{Store: st, ConfirmationTTL: 90 * time.Minute, Now: clock.Now}
	r.RateLimitService = &service.RateLimitService{Store: st, Threshold: 5, Window: 10 * time.Second, Now: clock.Now}
	r.TestingService = &service.TestingService{Store: st}
	r.RefreshTTL = time.Hour
	r.RateLimitWindow = 10 * time.Second
	r.AdminLogin = "admin"
	r.AdminPassword = "qwerty"
	r.ApplyRoutes()

	return &testEnv{router: r, store: st, mailer: mailer, clock: clock}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body any) *http.Request {
	buf := &bytes.Buffer{}
	if body != nil {
		_ = json.NewEncoder(buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// register drives the real registration flow and returns the confirmation
// code held for the new account.
func (e *testEnv) register(t *testing.T, login, email string) string {
	t.Helper()

	rec := e.do(t, jsonRequest(http.MethodPost, "/auth/registration", map[string]string{
		"login": login, "email": email, "password": "s3cret",
	}))
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	user, err := e.store.Users().GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return user.Confirmation.Code
}

func (e *testEnv) confirm(t *testing.T, code string) {
	t.Helper()

	rec := e.do(t, jsonRequest(http.MethodPost, "/auth/registration-confirmation", map[string]string{
		"code": code,
	}))
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	t.Fatal("no refresh cookie in response")
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	e := newTestEnv(t)

	code := e.register(t, "alice", "alice@example.com")

	// Login before confirmation is refused.
	rec := e.do(t, jsonRequest(http.MethodPost, "/auth/login", map[string]string{
		"login": "alice", "password": "s3cret",
	}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	e.confirm(t, code)

	// Login now succeeds: access token in the body, refresh token in an
	// HttpOnly cookie scoped to /auth.
	rec = e.do(t, jsonRequest(http.MethodPost, "/auth/login", map[string]string{
		"login": "alice", "password": "s3cret",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var loginBody accessTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginBody))
	require.NotEmpty(t, loginBody.AccessToken)

	cookie := refreshCookie(t, rec)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, "/auth", cookie.Path)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	// The access token opens /auth/me.
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+loginBody.AccessToken)
	rec = e.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var me meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "alice", me.Login)
	require.Equal(t, "alice@example.com", me.Email)
	require.NotEmpty(t, me.UserID)

	// Rotate the session.
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
	req.AddCookie(cookie)
	rec = e.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := refreshCookie(t, rec)
	require.NotEqual(t, cookie.Value, rotated.Value)

	// Replaying the consumed cookie is refused.
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
	req.AddCookie(cookie)
	rec = e.do(t, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout consumes the live cookie and clears it.
	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(rotated)
	rec = e.do(t, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cleared := refreshCookie(t, rec)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	// The logged-out cookie is dead.
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
	req.AddCookie(rotated)
	rec = e.do(t, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginErrors(t *testing.T) {
	e := newTestEnv(t)

	code := e.register(t, "alice", "alice@example.com")
	e.confirm(t, code)

	t.Run("unknown login and wrong password look identical", func(t *testing.T) {
		unknown := e.do(t, jsonRequest(http.MethodPost, "/auth/login", map[string]string{
			"login": "mallory", "password": "s3cret",
		}))
		wrong := e.do(t, jsonRequest(http.MethodPost, "/auth/login", map[string]string{
			"login": "alice", "password": "nope",
		}))

		require.Equal(t, http.StatusUnauthorized, unknown.Code)
		require.Equal(t, http.StatusUnauthorized, wrong.Code)
		require.JSONEq(t, unknown.Body.String(), wrong.Body.String())
	})

	t.Run("missing refresh cookie", func(t *testing.T) {
		rec := e.do(t, httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing bearer token", func(t *testing.T) {
		rec := e.do(t, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRegistrationValidation(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, jsonRequest(http.MethodPost, "/auth/registration", map[string]string{
		"login": "ab", "email": "not-an-email", "password": "short",
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.ErrorsMessages, 3)

	fields := make([]string, 0, 3)
	for _, m := range resp.ErrorsMessages {
		fields = append(fields, m.Field)
	}
	require.ElementsMatch(t, []string{"login", "email", "password"}, fields)
}

func TestRegistrationConflictsAndResend(t *testing.T) {
	e := newTestEnv(t)

	e.register(t, "alice", "alice@example.com")

	t.Run("taken login", func(t *testing.T) {
		rec := e.do(t, jsonRequest(http.MethodPost, "/auth/registration", map[string]string{
			"login": "alice", "email": "other@example.com", "password": "s3cret",
		}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("resend replaces an expired code", func(t *testing.T) {
		e.clock.Advance(91 * time.Minute)

		rec := e.do(t, jsonRequest(http.MethodPost, "/auth/registration-email-resending", map[string]string{
			"email": "alice@example.com",
		}))
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		user, err := e.store.Users().GetUserByEmail(context.Background(), "alice@example.com")
		require.NoError(t, err)
		e.confirm(t, user.Confirmation.Code)
	})

	t.Run("confirming twice fails", func(t *testing.T) {
		user, err := e.store.Users().GetUserByEmail(context.Background(), "alice@example.com")
		require.NoError(t, err)

		rec := e.do(t, jsonRequest(http.MethodPost, "/auth/registration-confirmation", map[string]string{
			"code": user.Confirmation.Code,
		}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRateLimiting(t *testing.T) {
	e := newTestEnv(t)

	body := map[string]string{"login": "ghost", "password": "whatever"}

	for i := 0; i < 5; i++ {
		rec := e.do(t, jsonRequest(http.MethodPost, "/auth/login", body))
		require.Equal(t, http.StatusUnauthorized, rec.Code, "request %d", i+1)
	}

	rec := e.do(t, jsonRequest(http.MethodPost, "/auth/login", body))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "10", rec.Header().Get("Retry-After"))

	// Endpoints are limited independently.
	rec = e.do(t, jsonRequest(http.MethodPost, "/auth/registration-email-resending", map[string]string{
		"email": "ghost@example.com",
	}))
	require.NotEqual(t, http.StatusTooManyRequests, rec.Code)

	// Past the window the client is admitted again. An over-limit request
	// is rejected before its body is even parsed, so the garbage body above
	// still counted.
	e.clock.Advance(11 * time.Second)
	rec = e.do(t, jsonRequest(http.MethodPost, "/auth/login", body))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiting_CountsUnauthenticatedRequests(t *testing.T) {
	e := newTestEnv(t)

	// Invalid-bearer probes are recorded by the limiter before the token
	// check rejects them, so hammering /auth/me trips the limit.
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		rec := e.do(t, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := e.do(t, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAdminUsers(t *testing.T) {
	e := newTestEnv(t)

	t.Run("requires basic auth", func(t *testing.T) {
		rec := e.do(t, httptest.NewRequest(http.MethodGet, "/users", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.SetBasicAuth("admin", "wrong")
		rec = e.do(t, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	req := jsonRequest(http.MethodPost, "/users", map[string]string{
		"login": "bob", "email": "bob@example.com", "password": "s3cret",
	})
	req.SetBasicAuth("admin", "qwerty")
	rec := e.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "bob", created.Login)

	// Admin-created accounts skip confirmation entirely.
	rec = e.do(t, jsonRequest(http.MethodPost, "/auth/login", map[string]string{
		"login": "bob", "password": "s3cret",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users?pageNumber=1&pageSize=10", nil)
		req.SetBasicAuth("admin", "qwerty")
		rec := e.do(t, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var page userPageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Equal(t, 1, page.TotalCount)
		require.Len(t, page.Items, 1)
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/users/"+created.ID, nil)
		req.SetBasicAuth("admin", "qwerty")
		rec := e.do(t, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req = httptest.NewRequest(http.MethodDelete, "/users/"+created.ID, nil)
		req.SetBasicAuth("admin", "qwerty")
		rec = e.do(t, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTestingReset(t *testing.T) {
	e := newTestEnv(t)

	e.register(t, "alice", "alice@example.com")

	rec := e.do(t, httptest.NewRequest(http.MethodDelete, "/testing/all-data", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	count, err := e.store.Users().CountUsers(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestLivez(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Version)
}
