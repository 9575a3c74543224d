package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/dto"
	"binwahab-store/internal/service"

	"github.com/labstack/echo/v4"
)

// maxWebhookBody caps what a gateway may post to us.
const maxWebhookBody = 1 << 20

// PaymentHandler serves gateway redirects and webhooks. None of these routes carry a user
// token; webhooks are authenticated by their signatures.
type PaymentHandler struct {
	log            *slog.Logger
	paymentService service.PaymentService
	frontendUrl    string
}

func NewPaymentHandler(log *slog.Logger, paymentService service.PaymentService, frontendUrl string) *PaymentHandler {
	return &PaymentHandler{
		log:            log,
		paymentService: paymentService,
		frontendUrl:    frontendUrl,
	}
}

func (h *PaymentHandler) checkoutRedirect(c echo.Context, params url.Values) error {
	return c.Redirect(http.StatusFound, h.frontendUrl+"/checkout/complete?"+params.Encode())
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeValidation, err, "read request body")
	}
	if len(body) > maxWebhookBody {
		return nil, apperror.Validation("request body too large",
			apperror.FieldError{Field: "body", Reason: "at most 1 MiB"})
	}
	return body, nil
}

// HandleSuccess is PayPal's return URL. It captures the approved order and sends the buyer
// back to the storefront; the order itself is updated by the capture webhook.
func (h *PaymentHandler) HandleSuccess(c echo.Context) error {
	ctx := c.Request().Context()

	token := c.QueryParam("token")
	if token == "" {
		return apperror.Validation("missing order token",
			apperror.FieldError{Field: "token", Reason: "is required"})
	}

	params := url.Values{"gateway": {"paypal"}, "token": {token}, "status": {"processing"}}
	if err := h.paymentService.CapturePaypalOrder(ctx, token); err != nil {
		h.log.WarnContext(ctx, "capture paypal order", "paypal_order_id", token, "error", err)
		params.Set("status", "error")
	}

	return h.checkoutRedirect(c, params)
}

func (h *PaymentHandler) PayPalWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := readBody(c)
	if err != nil {
		return err
	}

	result, err := h.paymentService.HandlePaypalWebhook(ctx, c.Request().Header, body)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewReconcileResponse(result))
}
