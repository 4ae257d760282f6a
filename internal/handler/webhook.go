package handler

import (
	"errors"
	"fmt"
	"food-storefront/internal/service"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

type webhookResponse struct {
	Status  string `json:"status"`
	OrderID uint   `json:"order_id,omitempty"`
	Action  string `json:"action,omitempty"`
}

func (h *WebhookHandler) MercadoPagoWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.webhookService.HandleMercadoPago(ctx, body)
	if errors.Is(err, service.ErrOrderNotFound) {
		// the gateway knows the payment but it is not ours
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return fmt.Errorf("handle mercadopago webhook: %w", err)
	}

	return c.JSON(http.StatusOK, webhookResponse{
		Status:  "ok",
		OrderID: result.OrderID,
		Action:  string(result.Action),
	})
}
