package server

import (
	"context"
	"food-storefront/internal/handler"
	appmiddleware "food-storefront/internal/middleware"
	"food-storefront/internal/realtime"
	"food-storefront/internal/service"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Services bundles what the HTTP edge calls into.
type Services struct {
	Auth     service.AuthService
	Session  service.SessionService
	Cart     service.CartService
	Product  service.ProductService
	Checkout service.CheckoutService
	Order    service.OrderService
	Webhook  service.WebhookService
	Report   service.ReportService
}

type Server struct {
	echo            *echo.Echo
	services        Services
	cartHandler     *handler.CartHandler
	checkoutHandler *handler.CheckoutHandler
	orderHandler    *handler.OrderHandler
	adminHandler    *handler.AdminHandler
	reportHandler   *handler.ReportHandler
	webhookHandler  *handler.WebhookHandler
	realtimeHandler *handler.RealtimeHandler
}

func NewServer(services Services, hub *realtime.Hub, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(logger)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		ExposeHeaders: []string{appmiddleware.SessionHeaderName},
	}))

	s := &Server{
		echo:            e,
		services:        services,
		cartHandler:     handler.NewCartHandler(services.Cart, services.Product),
		checkoutHandler: handler.NewCheckoutHandler(services.Checkout),
		orderHandler:    handler.NewOrderHandler(services.Order),
		adminHandler:    handler.NewAdminHandler(services.Auth, services.Order, services.Product),
		reportHandler:   handler.NewReportHandler(services.Report),
		webhookHandler:  handler.NewWebhookHandler(services.Webhook),
		realtimeHandler: handler.NewRealtimeHandler(hub, logger),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.GET("/products", s.cartHandler.ListProducts)

	// -------- storefront --------
	shop := api.Group("", appmiddleware.ClientSession(s.services.Session))
	shop.GET("/cart", s.cartHandler.GetCart)
	shop.POST("/cart/items", s.cartHandler.AddItem)
	shop.PUT("/cart/items/:productID", s.cartHandler.UpdateItem)
	shop.DELETE("/cart/items/:productID", s.cartHandler.RemoveItem)
	shop.DELETE("/cart", s.cartHandler.ClearCart)

	shop.POST("/checkout", s.checkoutHandler.Checkout)

	shop.GET("/orders", s.orderHandler.ListOrders)
	shop.GET("/orders/:orderID", s.orderHandler.GetOrder)
	shop.POST("/orders/:orderID/cancel", s.orderHandler.CancelOrder)
	shop.GET("/orders/:orderID/payment-status", s.orderHandler.PaymentStatus)

	// -------- gateway webhooks --------
	api.POST("/webhooks/mercadopago", s.webhookHandler.MercadoPagoWebhook)

	// -------- staff --------
	api.POST("/admin/login", s.adminHandler.Login)

	admin := api.Group("/admin", appmiddleware.StaffAuth(s.services.Auth))
	admin.GET("/orders", s.adminHandler.ListOrders)
	admin.GET("/orders/:orderID", s.adminHandler.GetOrder)
	admin.POST("/orders/:orderID/toggle-status", s.adminHandler.ToggleStatus)
	admin.POST("/orders/:orderID/toggle-payment", s.adminHandler.TogglePaymentStatus)
	admin.POST("/orders/:orderID/cancel-payment", s.adminHandler.CancelPayment)
	admin.POST("/orders/:orderID/cancel", s.adminHandler.CancelOrder)
	admin.PUT("/orders/:orderID/info", s.adminHandler.UpdateOrderInfo)
	admin.PUT("/orders/:orderID/items", s.adminHandler.ReplaceOrderItems)

	admin.GET("/products", s.adminHandler.ListProducts)
	admin.POST("/products", s.adminHandler.CreateProduct)
	admin.POST("/products/:productID/active", s.adminHandler.SetProductActive)

	admin.GET("/reports/daily", s.reportHandler.Daily)
	admin.GET("/reports", s.reportHandler.List)
	admin.GET("/reports/:reportID", s.reportHandler.Get)
	admin.POST("/reports/generate", s.reportHandler.Generate)

	s.echo.GET("/ws/orders", s.realtimeHandler.Orders, appmiddleware.StaffAuth(s.services.Auth))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
