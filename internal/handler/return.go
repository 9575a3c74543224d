package handler

import (
	"net/http"

	"binwahab-store/internal/dto"
	"binwahab-store/internal/service"

	"github.com/labstack/echo/v4"
)

type ReturnHandler struct {
	returnService service.ReturnService
}

func NewReturnHandler(returnService service.ReturnService) *ReturnHandler {
	return &ReturnHandler{
		returnService: returnService,
	}
}

func (h *ReturnHandler) SubmitReturn(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var req dto.SubmitReturnRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	items := make([]service.ReturnItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.ReturnItemInput{
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
			Reason:      item.Reason,
		}
	}

	ret, err := h.returnService.Submit(ctx, service.SubmitReturnInput{
		Actor:   actor,
		OrderID: req.OrderID,
		Reason:  req.Reason,
		Items:   items,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewReturnResponse(ret))
}

func (h *ReturnHandler) ListReturns(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	returns, err := h.returnService.List(ctx, actor.UserID, "")
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewReturnList(returns))
}

func (h *ReturnHandler) GetReturn(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	returnID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	ret, err := h.returnService.Get(ctx, actor, returnID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewReturnResponse(ret))
}
