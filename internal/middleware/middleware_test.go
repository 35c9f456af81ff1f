package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/config"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func ok(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get(CtxUserID),
		"role":    c.Get(CtxRole),
	})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionAuth(t *testing.T) {
	iss := session.NewIssuer(testSecret, time.Hour, "auth_token", false)
	e := echo.New()
	e.GET("/private", ok, SessionAuth(iss))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, _, err := iss.Mint(7, "a@x.com", "client")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: tok})
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"client"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: tok + "x"})
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
}

func TestRequireRole(t *testing.T) {
	iss := session.NewIssuer(testSecret, time.Hour, "auth_token", false)
	e := echo.New()
	e.GET("/admin", ok, SessionAuth(iss), RequireRole("admin"))

	for role, want := range map[string]int{"admin": http.StatusOK, "lawyer": http.StatusForbidden, "client": http.StatusForbidden} {
		tok, _, err := iss.Mint(1, "a@x.com", role)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tok})
		assert.Equal(t, want, serve(e, req).Code, role)
	}
}

func testLimiter(capacity int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl:test",
	}
}

func TestRateLimit_BlocksWhenBucketEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	e.POST("/api/auth/login", ok, RateLimit(testLimiter(2), rdb))

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = ip + ":5555"
		return serve(e, req)
	}

	first := send("10.0.0.1")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	blocked := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))

	// Buckets are per client address.
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
	assert.True(t, mr.Exists("rl:test:ip:10.0.0.1:route:POST /api/auth/login"))
}

func TestRateLimit_FailsOpenWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	e := echo.New()
	e.POST("/api/auth/login", ok, RateLimit(testLimiter(1), rdb))

	for i := 0; i < 3; i++ {
		rec := serve(e, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	cfg := testLimiter(1)
	cfg.Enabled = false
	e := echo.New()
	e.POST("/x", ok, RateLimit(cfg, nil))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodPost, "/x", nil)).Code)
	}
}

func TestBuildRateKey_UserStrategy(t *testing.T) {
	cfg := testLimiter(1)
	cfg.KeyStrategy = "user"
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Equal(t, "rl:test:user:anon", buildRateKey(cfg, c))
	c.Set(CtxUserID, uint64(42))
	assert.Equal(t, "rl:test:user:42", buildRateKey(cfg, c))
}
