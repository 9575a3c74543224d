package handler

import (
	"net/http"

	"binwahab-store/internal/dto"
	"binwahab-store/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Sync(ctx, actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
