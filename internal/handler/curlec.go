package handler

import (
	"net/http"
	"net/url"

	"binwahab-store/internal/dto"

	"github.com/labstack/echo/v4"
)

const (
	curlecSignatureHeader = "X-Razorpay-Signature"
	curlecEventIDHeader   = "X-Razorpay-Event-Id"
)

func (h *PaymentHandler) CurlecWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := readBody(c)
	if err != nil {
		return err
	}

	header := c.Request().Header
	result, err := h.paymentService.HandleCurlecWebhook(ctx, header.Get(curlecEventIDHeader), header.Get(curlecSignatureHeader), body)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewReconcileResponse(result))
}

// CurlecVerify confirms a checkout from the payment signature Curlec hands the page.
func (h *PaymentHandler) CurlecVerify(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CurlecVerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.paymentService.VerifyCurlecCheckout(ctx, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewReconcileResponse(result))
}

func (h *PaymentHandler) CurlecCallback(c echo.Context) error {
	params := url.Values{"gateway": {"curlec"}, "status": {"processing"}}
	if id := c.QueryParam("razorpay_order_id"); id != "" {
		params.Set("token", id)
	}
	if c.QueryParam("error[code]") != "" {
		params.Set("status", "error")
	}
	return h.checkoutRedirect(c, params)
}
