package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/harshkumar35/finalleagalsathi-sub000/internal/service"
)

// writeError translates a service error into its HTTP status and a
// client-safe message.  Anything outside the taxonomy is logged and reported
// as a generic 500.
func writeError(c echo.Context, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Message(), "fields": ve.Fields})
	}

	for _, m := range errorStatuses {
		if errors.Is(err, m.err) {
			return c.JSON(m.status, echo.Map{"error": m.err.Error()})
		}
	}

	slog.ErrorContext(c.Request().Context(), "unmapped handler error", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrDuplicateEmail, http.StatusConflict},
	{service.ErrDuplicateBarID, http.StatusConflict},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrUnauthenticated, http.StatusUnauthorized},
	{service.ErrInvalidOTP, http.StatusBadRequest},
	{service.ErrExpiredOTP, http.StatusBadRequest},
	{service.ErrInvalidOrExpiredToken, http.StatusBadRequest},
	{service.ErrPendingVerification, http.StatusForbidden},
	{service.ErrEmailNotVerified, http.StatusForbidden},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrDeliveryFailed, http.StatusInternalServerError},
	{service.ErrTimeout, http.StatusInternalServerError},
	{service.ErrStoreUnavailable, http.StatusInternalServerError},
}
