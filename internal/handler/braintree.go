package handler

import (
	"net/http"

	"binwahab-store/internal/dto"

	"github.com/labstack/echo/v4"
)

// BraintreeWebhook receives the form-encoded bt_signature/bt_payload pair.
func (h *PaymentHandler) BraintreeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.paymentService.HandleBraintreeWebhook(ctx, c.FormValue("bt_signature"), c.FormValue("bt_payload"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewReconcileResponse(result))
}
