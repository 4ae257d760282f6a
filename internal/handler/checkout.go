package handler

import (
	"food-storefront/internal/dto"
	"food-storefront/internal/middleware"
	"food-storefront/internal/model"
	"food-storefront/internal/service"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	session := middleware.SessionFromContext(c)

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.checkoutService.Checkout(ctx, &service.CheckoutRequest{
		ClientSessionID: session.ID,
		CustomerName:    req.Name,
		Phone:           req.Phone,
		CPF:             req.CPF,
		Address:         req.Address,
		PaymentMethod:   model.PaymentMethod(strings.TrimSpace(req.PaymentMethod)),
		CashValue:       req.CashValue,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.CheckoutResponse{
		Order:           dto.NewOrderResponse(result.Order, time.Now()),
		Next:            string(result.Next),
		PaymentURL:      result.Order.PaymentURL,
		Fallback:        result.Fallback,
		FallbackMessage: result.FallbackMessage,
	})
}
