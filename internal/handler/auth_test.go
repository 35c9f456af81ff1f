package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/config"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/handler"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/mocks"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/repository"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/router"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/service"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type app struct {
	e      *echo.Echo
	users  *mocks.MemoryUserStore
	mailer *mocks.MockMailer
}

func newApp(t *testing.T, production bool) *app {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a := &app{e: echo.New(), users: mocks.NewMemoryUserStore(), mailer: mocks.NewMockMailer()}
	issuer := session.NewIssuer(testSecret, 24*time.Hour, "auth_token", production)
	svc := service.NewAuthService(service.Deps{
		Users:    a.users,
		OTPs:     repository.NewOTPRepo(rdb, 10*time.Minute, true),
		Resets:   mocks.NewMemoryResetStore(a.users),
		Sessions: issuer,
		Mailer:   a.mailer,
	}, service.Options{
		BcryptCost:    bcrypt.MinCost,
		OTPTTL:        10 * time.Minute,
		ResetTokenTTL: time.Hour,
		Production:    production,
	})

	router.RegisterRoutes(a.e, map[string]handler.Pinger{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})
	router.RegisterAuth(a.e, handler.NewAuthHandler(svc, issuer, 5*time.Second), config.RateLimitConfig{}, rdb)
	return a
}

// call sends a JSON request carrying cookies and returns the recorder.
func (a *app) call(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSignupVerifyLoginMeLogout(t *testing.T) {
	a := newApp(t, false)

	rec := a.call(http.MethodPost, "/api/auth/signup-client",
		`{"full_name":"Asha","email":"a@x.com","password":"Secret123!"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.call(http.MethodPost, "/api/auth/send-otp", `{"email":"a@x.com","purpose":"signup"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.call(http.MethodPost, "/api/auth/verify-otp",
		`{"email":"a@x.com","code":"`+a.mailer.LastCode("a@x.com")+`","purpose":"signup"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	marker := cookie(rec, "registration_success")
	require.NotNil(t, marker)
	assert.False(t, marker.HttpOnly)
	assert.Nil(t, cookie(rec, "auth_token"))

	rec = a.call(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"Secret123!"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess := cookie(rec, "auth_token")
	require.NotNil(t, sess)
	assert.True(t, sess.HttpOnly)
	assert.Equal(t, "/", sess.Path)
	assert.Equal(t, http.SameSiteLaxMode, sess.SameSite)
	assert.NotNil(t, cookie(rec, "login_success"))
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "client", user["role"])
	assert.Equal(t, true, user["is_verified"])

	rec = a.call(http.MethodGet, "/api/auth/me", "", sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", decode(t, rec)["user"].(map[string]any)["email"])

	rec = a.call(http.MethodPost, "/api/auth/logout", "", sess)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookie(rec, "auth_token")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	// The browser now holds the cleared cookie.
	rec = a.call(http.MethodGet, "/api/auth/me", "", &http.Cookie{Name: "auth_token", Value: cleared.Value})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutWithoutSession(t *testing.T) {
	a := newApp(t, false)
	assert.Equal(t, http.StatusOK, a.call(http.MethodPost, "/api/auth/logout", "").Code)
	assert.Equal(t, http.StatusOK, a.call(http.MethodPost, "/api/auth/logout", "").Code)
}

func TestStatusMapping(t *testing.T) {
	a := newApp(t, false)
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/api/auth/signup-client",
		`{"full_name":"Asha","email":"a@x.com","password":"Secret123!"}`).Code)
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/api/auth/signup-lawyer",
		`{"full_name":"Ravi","email":"r@x.com","password":"Secret123!","bar_council_id":"MH/1/2020","specialization":"Tax","years_of_experience":3}`).Code)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		msg    string
	}{
		{"malformed json", "/api/auth/login", `{"email":`, http.StatusBadRequest, "invalid body"},
		{"missing fields", "/api/auth/signup-client", `{}`, http.StatusBadRequest, ""},
		{"duplicate email", "/api/auth/signup-client", `{"full_name":"A","email":"A@x.com","password":"Secret123!"}`, http.StatusConflict, service.ErrDuplicateEmail.Error()},
		{"duplicate bar id", "/api/auth/signup-lawyer", `{"full_name":"M","email":"m@x.com","password":"Secret123!","bar_council_id":"MH/1/2020","specialization":"Tax","years_of_experience":1}`, http.StatusConflict, service.ErrDuplicateBarID.Error()},
		{"wrong password", "/api/auth/login", `{"email":"a@x.com","password":"nope-nope"}`, http.StatusUnauthorized, service.ErrInvalidCredentials.Error()},
		{"unknown email", "/api/auth/login", `{"email":"ghost@x.com","password":"Secret123!"}`, http.StatusUnauthorized, service.ErrInvalidCredentials.Error()},
		{"pending lawyer", "/api/auth/login", `{"email":"r@x.com","password":"Secret123!"}`, http.StatusForbidden, service.ErrPendingVerification.Error()},
		{"otp to unknown user", "/api/auth/send-otp", `{"email":"ghost@x.com","purpose":"login"}`, http.StatusNotFound, service.ErrUserNotFound.Error()},
		{"bad purpose", "/api/auth/send-otp", `{"email":"a@x.com","purpose":"mfa"}`, http.StatusBadRequest, ""},
		{"wrong otp", "/api/auth/verify-otp", `{"email":"a@x.com","code":"000000","purpose":"login"}`, http.StatusBadRequest, service.ErrInvalidOTP.Error()},
		{"bad reset token", "/api/auth/reset-password", `{"token":"nope","password":"Secret123!"}`, http.StatusBadRequest, service.ErrInvalidOrExpiredToken.Error()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.call(http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			if tc.msg != "" {
				assert.Equal(t, tc.msg, decode(t, rec)["error"])
			}
		})
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	a := newApp(t, false)
	rec := a.call(http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.ErrUnauthenticated.Error(), decode(t, rec)["error"])
}

func TestDeliveryFailureIs500(t *testing.T) {
	a := newApp(t, false)
	a.mailer.SendFunc = func(context.Context, string, string, string) error { return errors.New("smtp down") }

	rec := a.call(http.MethodPost, "/api/auth/send-otp", `{"email":"new@x.com","purpose":"signup"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, service.ErrDeliveryFailed.Error(), decode(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "smtp down")
}

func TestPasswordResetOverHTTP(t *testing.T) {
	a := newApp(t, false)
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/api/auth/signup-client",
		`{"full_name":"Asha","email":"a@x.com","password":"Secret123!"}`).Code)
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/api/auth/send-otp", `{"email":"a@x.com","purpose":"reset"}`).Code)

	rec := a.call(http.MethodPost, "/api/auth/verify-otp",
		`{"email":"a@x.com","code":"`+a.mailer.LastCode("a@x.com")+`","purpose":"reset"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["reset_token"].(string)
	require.NotEmpty(t, token)
	assert.Nil(t, cookie(rec, "auth_token"))

	body := `{"token":"` + token + `","password":"BrandNew123"}`
	assert.Equal(t, http.StatusOK, a.call(http.MethodPost, "/api/auth/reset-password", body).Code)
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/api/auth/reset-password", body).Code)

	assert.Equal(t, http.StatusOK, a.call(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"BrandNew123"}`).Code)
}

func TestOTPLogin(t *testing.T) {
	a := newApp(t, false)
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/api/auth/signup-client",
		`{"full_name":"Asha","email":"a@x.com","password":"Secret123!"}`).Code)
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/api/auth/send-otp", `{"email":"a@x.com","purpose":"login"}`).Code)

	rec := a.call(http.MethodPost, "/api/auth/verify-otp",
		`{"email":"a@x.com","code":"`+a.mailer.LastCode("a@x.com")+`","purpose":"login"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess := cookie(rec, "auth_token")
	require.NotNil(t, sess)
	assert.Equal(t, http.StatusOK, a.call(http.MethodGet, "/api/auth/me", "", sess).Code)
}

func TestAdminApproveLawyer(t *testing.T) {
	a := newApp(t, false)
	rec := a.call(http.MethodPost, "/api/auth/signup-lawyer",
		`{"full_name":"Ravi","email":"r@x.com","password":"Secret123!","bar_council_id":"MH/1/2020","specialization":"Tax","years_of_experience":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	lawyer := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, false, lawyer["lawyer_approved"])
	approvePath := "/api/admin/lawyers/" + jsonID(lawyer["id"]) + "/approve"

	// Without a session, and with a non-admin session.
	assert.Equal(t, http.StatusUnauthorized, a.call(http.MethodPost, approvePath, "").Code)
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/api/auth/create-test-user",
		`{"email":"c@test.dev","password":"Secret123!"}`).Code)
	clientSess := cookie(a.call(http.MethodPost, "/api/auth/login", `{"email":"c@test.dev","password":"Secret123!"}`), "auth_token")
	require.NotNil(t, clientSess)
	assert.Equal(t, http.StatusForbidden, a.call(http.MethodPost, approvePath, "", clientSess).Code)

	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/api/auth/create-test-user",
		`{"email":"admin@test.dev","password":"Secret123!","role":"admin"}`).Code)
	adminSess := cookie(a.call(http.MethodPost, "/api/auth/login", `{"email":"admin@test.dev","password":"Secret123!"}`), "auth_token")
	require.NotNil(t, adminSess)

	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/api/admin/lawyers/abc/approve", "", adminSess).Code)
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodPost, "/api/admin/lawyers/999/approve", "", adminSess).Code)

	rec = a.call(http.MethodPost, approvePath, "", adminSess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["user"].(map[string]any)["lawyer_approved"])

	assert.Equal(t, http.StatusOK, a.call(http.MethodPost, "/api/auth/login", `{"email":"r@x.com","password":"Secret123!"}`).Code)
}

func TestCreateTestUser_ForbiddenInProduction(t *testing.T) {
	a := newApp(t, true)
	rec := a.call(http.MethodPost, "/api/auth/create-test-user", `{"email":"x@test.dev","password":"Secret123!"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProbes(t *testing.T) {
	a := newApp(t, false)
	rec := a.call(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = a.call(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"redis":"up"}`, rec.Body.String())
}

func jsonID(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
