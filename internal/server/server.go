package server

import (
	"context"
	"log/slog"
	"net/http"

	"binwahab-store/internal/config"
	"binwahab-store/internal/handler"
	appmw "binwahab-store/internal/middleware"
	"binwahab-store/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Services struct {
	Cart      service.CartService
	Address   service.AddressService
	Order     service.OrderService
	Payment   service.PaymentService
	Return    service.ReturnService
	Inventory service.InventoryService
	Dashboard service.DashboardService
	User      service.UserService
}

type Server struct {
	echo *echo.Echo
	auth echo.MiddlewareFunc

	cartHandler    *handler.CartHandler
	orderHandler   *handler.OrderHandler
	paymentHandler *handler.PaymentHandler
	returnHandler  *handler.ReturnHandler
	adminHandler   *handler.AdminHandler
	userHandler    *handler.UserHandler
}

func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(middleware.RequestLoggerWithConfig(requestLoggerConfig(log)))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit("2M"))

	s := &Server{
		echo:           e,
		auth:           appmw.AuthMiddleware([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer),
		cartHandler:    handler.NewCartHandler(services.Cart, services.Address, services.Order),
		orderHandler:   handler.NewOrderHandler(services.Order, services.Payment),
		paymentHandler: handler.NewPaymentHandler(log, services.Payment, cfg.FrontendURL),
		returnHandler:  handler.NewReturnHandler(services.Return),
		adminHandler:   handler.NewAdminHandler(services.Order, services.Return, services.Inventory, services.Dashboard),
		userHandler:    handler.NewUserHandler(services.User),
	}

	s.setupRoutes()
	return s
}

func requestLoggerConfig(log *slog.Logger) middleware.RequestLoggerConfig {
	return middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			} else if v.Error != nil {
				level = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.RequestID != "" {
				attrs = append(attrs, slog.String("request_id", v.RequestID))
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			log.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- gateway redirects / webhooks (no user token) --------
	paypal := api.Group("/paypal")
	paypal.GET("/success", s.paymentHandler.HandleSuccess)
	paypal.POST("/webhook", s.paymentHandler.PayPalWebhook)

	curlec := api.Group("/curlec")
	curlec.POST("/webhook", s.paymentHandler.CurlecWebhook)
	curlec.GET("/callback", s.paymentHandler.CurlecCallback)
	curlec.POST("/verify", s.paymentHandler.CurlecVerify, s.auth)

	api.POST("/braintree/webhook", s.paymentHandler.BraintreeWebhook)

	// -------- customer --------
	user := api.Group("", s.auth)
	user.GET("/me", s.userHandler.Me)

	user.GET("/cart", s.cartHandler.GetCart)
	user.DELETE("/cart", s.cartHandler.ClearCart)
	user.POST("/cart/items", s.cartHandler.AddItem)
	user.PATCH("/cart/items/:id", s.cartHandler.UpdateItem)
	user.DELETE("/cart/items/:id", s.cartHandler.RemoveItem)
	user.GET("/checkout/quote", s.cartHandler.Quote)

	user.GET("/addresses", s.cartHandler.ListAddresses)
	user.POST("/addresses", s.cartHandler.CreateAddress)
	user.DELETE("/addresses/:id", s.cartHandler.DeleteAddress)

	user.POST("/orders", s.orderHandler.CreateOrder)
	user.GET("/orders", s.orderHandler.ListOrders)
	user.GET("/orders/:id", s.orderHandler.GetOrder)
	user.POST("/orders/:id/cancel", s.orderHandler.CancelOrder)
	user.POST("/orders/:id/payments", s.orderHandler.StartPayment)

	user.POST("/returns", s.returnHandler.SubmitReturn)
	user.GET("/returns", s.returnHandler.ListReturns)
	user.GET("/returns/:id", s.returnHandler.GetReturn)

	// -------- admin --------
	admin := api.Group("/admin", s.auth, appmw.AdminOnly())
	admin.GET("/orders", s.adminHandler.ListOrders)
	admin.PATCH("/orders/:id/status", s.adminHandler.UpdateOrderStatus)
	admin.GET("/returns", s.adminHandler.ListReturns)
	admin.POST("/returns/:id/approve", s.adminHandler.ApproveReturn)
	admin.POST("/returns/:id/reject", s.adminHandler.RejectReturn)
	admin.POST("/inventory/adjust", s.adminHandler.AdjustStock)
	admin.GET("/inventory/transactions", s.adminHandler.ListInventoryTransactions)
	admin.GET("/dashboard", s.adminHandler.Dashboard)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
