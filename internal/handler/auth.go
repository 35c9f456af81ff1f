package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/model"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/service"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/session"
)

// Marker cookies set after successful flows.  Client script reads them to
// show a banner; they grant nothing.
const (
	markerRegistration = "registration_success"
	markerLogin        = "login_success"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Svc      *service.AuthService
	Sessions *session.Issuer
	Timeout  time.Duration
}

func NewAuthHandler(svc *service.AuthService, sessions *session.Issuer, timeout time.Duration) *AuthHandler {
	return &AuthHandler{Svc: svc, Sessions: sessions, Timeout: timeout}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type otpReq struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}
type verifyOTPReq struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}
type resetReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type userPart struct {
	ID             uint64 `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name,omitempty"`
	Role           string `json:"role"`
	IsVerified     bool   `json:"is_verified"`
	LawyerApproved *bool  `json:"lawyer_approved,omitempty"`
}

func toUserPart(u model.User) userPart {
	p := userPart{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role, IsVerified: u.IsVerified}
	if u.Role == model.RoleLawyer {
		approved := u.LawyerApproved
		p.LawyerApproved = &approved
	}
	return p
}

func (h *AuthHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.Timeout)
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// Login: verify the password and set the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	c.SetCookie(h.Sessions.Cookie(res.Session.Token, res.Session.ExpiresAt))
	c.SetCookie(h.Sessions.MarkerCookie(markerLogin))
	return c.JSON(http.StatusOK, echo.Map{
		"user":       toUserPart(res.User),
		"expires_at": res.Session.ExpiresAt,
	})
}

// Logout clears the session cookie.  It succeeds with or without a session.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.Sessions.ClearCookie())
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the claims of the current session.
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := h.Svc.Me(h.Sessions.TokenFromRequest(c.Request()))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": echo.Map{
		"id":    claims.ID,
		"email": claims.Email,
		"role":  claims.Role,
	}})
}

// SignupClient registers a client.  The email is confirmed separately with a
// signup OTP.
func (h *AuthHandler) SignupClient(c echo.Context) error {
	var req service.ClientSignup
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Svc.RegisterClient(ctx, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": toUserPart(u)})
}

// SignupLawyer registers a lawyer pending admin approval.
func (h *AuthHandler) SignupLawyer(c echo.Context) error {
	var req service.LawyerSignup
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Svc.RegisterLawyer(ctx, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"user":    toUserPart(u),
		"message": "registration received, your account will be activated once an administrator verifies your credentials",
	})
}

func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Svc.SendOTP(ctx, req.Email, model.Purpose(req.Purpose)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "verification code sent"})
}

// VerifyOTP consumes a code.  Depending on the purpose the response carries
// a session cookie (login) or a reset token (reset).
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.Svc.VerifyOTP(ctx, req.Email, req.Code, model.Purpose(req.Purpose))
	if err != nil {
		return writeError(c, err)
	}

	body := echo.Map{"purpose": res.Purpose, "user": toUserPart(res.User)}
	switch res.Purpose {
	case model.PurposeSignup:
		c.SetCookie(h.Sessions.MarkerCookie(markerRegistration))
	case model.PurposeLogin:
		c.SetCookie(h.Sessions.Cookie(res.Session.Token, res.Session.ExpiresAt))
		c.SetCookie(h.Sessions.MarkerCookie(markerLogin))
		body["expires_at"] = res.Session.ExpiresAt
	case model.PurposeReset:
		body["reset_token"] = res.ResetToken
		body["reset_expires_at"] = res.ResetExpiresAt
	}
	return c.JSON(http.StatusOK, body)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Svc.ResetPassword(ctx, req.Token, req.Password); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// CreateTestUser seeds a ready-to-use account.  Refused in production.
func (h *AuthHandler) CreateTestUser(c echo.Context) error {
	var req service.TestUser
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Svc.CreateTestUser(ctx, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}
