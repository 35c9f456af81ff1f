// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/config"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/handler"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/middleware"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/model"
)

// RegisterRoutes registers the probes, which need no session.
func RegisterRoutes(e *echo.Echo, backends map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(backends))
}

// RegisterAuth registers the /api/auth family behind the rate limiter, and
// the admin routes behind session and role checks.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rl config.RateLimitConfig, rdb redis.UniversalClient) {
	g := e.Group("/api/auth", middleware.RateLimit(rl, rdb))
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me)
	g.POST("/signup-client", a.SignupClient)
	g.POST("/signup-lawyer", a.SignupLawyer)
	g.POST("/send-otp", a.SendOTP)
	g.POST("/verify-otp", a.VerifyOTP)
	g.POST("/reset-password", a.ResetPassword)
	g.POST("/create-test-user", a.CreateTestUser)

	admin := e.Group("/api/admin", middleware.SessionAuth(a.Sessions), middleware.RequireRole(model.RoleAdmin))
	admin.POST("/lawyers/:id/approve", a.ApproveLawyer)
}
