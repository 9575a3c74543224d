package handler

import (
	"net/http"

	"binwahab-store/internal/dto"
	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"
	"binwahab-store/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService   service.OrderService
	paymentService service.PaymentService
}

func NewOrderHandler(orderService service.OrderService, paymentService service.PaymentService) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var req dto.CreateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := service.CreateOrderInput{
		Actor:         actor,
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
	}
	if req.Address != nil {
		address := addressInput(req.Address)
		in.Address = &address
	}

	order, err := h.orderService.CreateOrder(ctx, in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewOrderResponse(order))
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	p, err := pageParams(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListOrders(ctx, repository.OrderFilter{
		UserID: actor.UserID,
		Status: model.OrderStatus(c.QueryParam("status")),
		Limit:  p.limit,
		Offset: p.offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderList(orders))
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	orderID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.GetOrder(ctx, actor, orderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	orderID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.CancelOrder(ctx, actor, orderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

func (h *OrderHandler) StartPayment(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	orderID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.StartPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.paymentService.StartPayment(ctx, service.StartPaymentInput{
		Actor:   actor,
		OrderID: orderID,
		Gateway: model.Gateway(req.Gateway),
		Nonce:   req.Nonce,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewPaymentSessionResponse(session))
}
