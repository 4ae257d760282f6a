package handler

import (
	"food-storefront/internal/dto"
	"food-storefront/internal/middleware"
	"food-storefront/internal/service"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// OrderHandler serves the shopper's own orders.
type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	session := middleware.SessionFromContext(c)

	orders, err := h.orderService.ListForSession(ctx, session.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderListResponse(orders, time.Now()))
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	session := middleware.SessionFromContext(c)

	orderID, err := uintParam(c, "orderID")
	if err != nil {
		return err
	}

	order, err := h.orderService.GetForSession(ctx, session.ID, orderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponse(order, time.Now()))
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	session := middleware.SessionFromContext(c)

	orderID, err := uintParam(c, "orderID")
	if err != nil {
		return err
	}

	order, err := h.orderService.ClientCancel(ctx, session.ID, orderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponse(order, time.Now()))
}

func (h *OrderHandler) PaymentStatus(c echo.Context) error {
	ctx := c.Request().Context()
	session := middleware.SessionFromContext(c)

	orderID, err := uintParam(c, "orderID")
	if err != nil {
		return err
	}

	result, err := h.orderService.CheckPaymentStatus(ctx, session.ID, orderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.PaymentStatusResponse{
		Status:        "success",
		PaymentStatus: result.PaymentStatus,
		PaymentDetail: result.PaymentDetail,
		TicketURL:     result.TicketURL,
		QRCode:        result.QRCode,
		OrderPaid:     result.OrderPaid,
	})
}
