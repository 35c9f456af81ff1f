package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/config"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/database"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/handler"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/logger"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/mail"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/middleware"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/queue"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/repository"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/router"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/service"
	"github.com/harshkumar35/finalleagalsathi-sub000/internal/session"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()
	logger.Init(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		fatal("mysql connect failed", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		fatal("schema migration failed", err)
	}

	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		fatal("redis connect failed", err)
	}
	defer rdb.Close()

	issuer := session.NewIssuer(cfg.JWTSecret, cfg.SessionTTL, cfg.SessionCookie, cfg.IsProduction())

	deps := service.Deps{
		Users:    repository.NewUserRepo(db),
		OTPs:     repository.NewOTPRepo(rdb, cfg.OTPTTL, cfg.OTPInvalidatePrior),
		Resets:   repository.NewResetTokenRepo(db),
		Sessions: issuer,
		Mailer:   mail.NewSMTPSender(cfg.Mail),
	}
	if cfg.BrokerURL != "" {
		pub := service.NewQueuePublisher(cfg.BrokerURL, service.DefaultEventBuffer)
		defer pub.Close()
		deps.Events = pub
		if cfg.AuthEventsConsumer {
			go func() {
				if err := queue.StartAuthEventConsumer(ctx, cfg.BrokerURL, cfg.AuthEventsLog); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("auth-events consumer stopped", "error", err)
				}
			}()
		}
	} else {
		slog.Info("RABBITMQ_URL not set, auth events disabled")
	}

	svc := service.NewAuthService(deps, service.Options{
		BcryptCost:               cfg.BcryptCost,
		OTPTTL:                   cfg.OTPTTL,
		ResetTokenTTL:            cfg.ResetTokenTTL,
		RequireEmailVerification: cfg.RequireEmailVerification,
		Production:               cfg.IsProduction(),
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.AccessLog())

	router.RegisterRoutes(e, map[string]handler.Pinger{
		"mysql": db.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})
	rl := config.LoadRateLimitConfig()
	router.RegisterAuth(e, handler.NewAuthHandler(svc, issuer, cfg.RequestTimeout), rl, rdb)
	slog.Info("rate limiter", "enabled", rl.Enabled, "capacity", rl.Capacity, "refill_every", rl.RefillInterval, "key", rl.KeyStrategy)

	addr := ":" + cfg.Port
	go func() {
		slog.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("http server failed", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
