package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ApproveLawyer marks a lawyer's credentials as verified.  Admin only.
func (h *AuthHandler) ApproveLawyer(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Svc.ApproveLawyer(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}
