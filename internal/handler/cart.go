package handler

import (
	"net/http"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/dto"
	"binwahab-store/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService    service.CartService
	addressService service.AddressService
	orderService   service.OrderService
}

func NewCartHandler(cartService service.CartService, addressService service.AddressService, orderService service.OrderService) *CartHandler {
	return &CartHandler{
		cartService:    cartService,
		addressService: addressService,
		orderService:   orderService,
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	cart, err := h.cartService.Get(ctx, actor.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var req dto.AddCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.cartService.AddItem(ctx, actor.UserID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	itemID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cart, err := h.cartService.UpdateItem(ctx, actor.UserID, itemID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	itemID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	cart, err := h.cartService.RemoveItem(ctx, actor.UserID, itemID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	if err := h.cartService.Clear(ctx, actor.UserID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Quote prices the cart for either a saved address or a bare state name.
func (h *CartHandler) Quote(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var (
		addressID *uint
		state     = c.QueryParam("state")
	)
	if raw := c.QueryParam("address_id"); raw != "" {
		var id uint
		if err := echo.QueryParamsBinder(c).MustUint("address_id", &id).BindError(); err != nil || id == 0 {
			return apperror.Validation("invalid address_id",
				apperror.FieldError{Field: "address_id", Reason: "must be a positive integer"})
		}
		addressID = &id
	}

	quote, err := h.orderService.Quote(ctx, actor.UserID, addressID, state)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

func (h *CartHandler) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	addresses, err := h.addressService.List(ctx, actor.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewAddressList(addresses))
}

func (h *CartHandler) CreateAddress(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	var req dto.AddressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	address, err := h.addressService.Create(ctx, actor.UserID, addressInput(&req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewAddressResponse(address))
}

func (h *CartHandler) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()

	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	addressID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.addressService.Delete(ctx, actor.UserID, addressID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func addressInput(req *dto.AddressRequest) service.AddressInput {
	return service.AddressInput{
		RecipientName: req.RecipientName,
		Phone:         req.Phone,
		Line1:         req.Line1,
		Line2:         req.Line2,
		City:          req.City,
		State:         req.State,
		Postcode:      req.Postcode,
		Country:       req.Country,
		IsDefault:     req.IsDefault,
	}
}
