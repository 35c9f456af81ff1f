// Package session mints and verifies the stateless session tokens carried in
// the auth cookie.  A token's validity is its HMAC signature plus its expiry;
// there is no server-side revocation list, so logout only clears the cookie.
package session

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/model"
)

// ErrUnauthenticated is returned for any token that is missing, malformed,
// tampered with or expired.  Callers never learn which.
var ErrUnauthenticated = errors.New("unauthenticated")

// MarkerTTL is the lifetime of the script-readable UX marker cookies.
const MarkerTTL = 5 * time.Minute

// Claims is the identity carried by a session token.
type Claims struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs session tokens with HS256 and builds the matching cookies.
type Issuer struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

// NewIssuer returns an Issuer.  secure controls the cookie Secure flag and
// should be true in production.
func NewIssuer(secret string, ttl time.Duration, cookieName string, secure bool) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		ttl:        ttl,
		cookieName: cookieName,
		secure:     secure,
		now:        time.Now,
	}
}

// WithClock overrides the time source.  Tests only.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// CookieName is the name of the session cookie.
func (i *Issuer) CookieName() string { return i.cookieName }

// Mint signs a token for the given identity and returns it with its expiry.
func (i *Issuer) Mint(id uint64, email, role string) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		ID:    id,
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the signature and expiry of raw and returns its claims.  A
// token naming an unknown role is rejected.
func (i *Issuer) Verify(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrUnauthenticated
	}
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens using any algorithm other than HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthenticated
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid || claims.ID == 0 || !model.ValidRole(claims.Role) {
		return Claims{}, ErrUnauthenticated
	}
	return claims, nil
}

// TokenFromRequest returns the session token from the cookie, falling back
// to an "Authorization: Bearer" header for non-browser clients.
func (i *Issuer) TokenFromRequest(r *http.Request) string {
	if ck, err := r.Cookie(i.cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// Cookie wraps a minted token in the HTTP-only session cookie.
func (i *Issuer) Cookie(token string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     i.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(i.ttl / time.Second),
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie overwrites the session cookie with an immediately expired
// empty value.
func (i *Issuer) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     i.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// MarkerCookie returns a short-lived cookie that client script may read to
// show a banner.  It carries no authority.
func (i *Issuer) MarkerCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "true",
		Path:     "/",
		Expires:  i.now().Add(MarkerTTL),
		MaxAge:   int(MarkerTTL / time.Second),
		HttpOnly: false,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
