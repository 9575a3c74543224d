package handler

import (
	"net/http"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/dto"
	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"
	"binwahab-store/internal/service"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves the back-office routes; they sit behind middleware.AdminOnly.
type AdminHandler struct {
	orderService     service.OrderService
	returnService    service.ReturnService
	inventoryService service.InventoryService
	dashboardService service.DashboardService
}

func NewAdminHandler(
	orderService service.OrderService,
	returnService service.ReturnService,
	inventoryService service.InventoryService,
	dashboardService service.DashboardService,
) *AdminHandler {
	return &AdminHandler{
		orderService:     orderService,
		returnService:    returnService,
		inventoryService: inventoryService,
		dashboardService: dashboardService,
	}
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := pageParams(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListOrders(ctx, repository.OrderFilter{
		Status:        model.OrderStatus(c.QueryParam("status")),
		PaymentStatus: model.PaymentStatus(c.QueryParam("payment_status")),
		Limit:         p.limit,
		Offset:        p.offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderList(orders))
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	orderID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateOrderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateStatus(ctx, actor, orderID, model.OrderStatus(req.Status))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

func (h *AdminHandler) ListReturns(c echo.Context) error {
	ctx := c.Request().Context()

	returns, err := h.returnService.List(ctx, "", model.ReturnStatus(c.QueryParam("status")))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewReturnList(returns))
}

func (h *AdminHandler) ApproveReturn(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	returnID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.ApproveReturnRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ret, err := h.returnService.Approve(ctx, service.ApproveReturnInput{
		Reviewer:     actor,
		ReturnID:     returnID,
		RefundAmount: req.RefundAmount,
		RefundMethod: model.RefundMethod(req.RefundMethod),
		Notes:        req.Notes,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewReturnResponse(ret))
}

func (h *AdminHandler) RejectReturn(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	returnID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.RejectReturnRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ret, err := h.returnService.Reject(ctx, actor, returnID, req.Notes)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewReturnResponse(ret))
}

func (h *AdminHandler) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var req dto.AdjustStockRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := h.inventoryService.Adjust(ctx, service.AdjustStockInput{
		Actor:     actor,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewInventoryTransactionResponse(entry))
}

func (h *AdminHandler) ListInventoryTransactions(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		productID uint
		limit     = 100
	)
	err := echo.QueryParamsBinder(c).
		Uint("product_id", &productID).
		Int("limit", &limit).
		BindError()
	if err != nil {
		return apperror.Validation("invalid query",
			apperror.FieldError{Field: "product_id", Reason: "must be a positive integer"})
	}

	entries, err := h.inventoryService.ListTransactions(ctx, productID, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewInventoryTransactionList(entries))
}

// Dashboard always answers 200; a failed aggregation shows up in the body's error field.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	summary := h.dashboardService.Summary(c.Request().Context())
	return c.JSON(http.StatusOK, dto.NewDashboardResponse(summary))
}
