package handler

import (
	"errors"
	"food-storefront/internal/model"
	"food-storefront/internal/service"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error    string   `json:"error"`
	Products []string `json:"products,omitempty"`
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	var inactive *service.InactiveProductsError
	switch {
	case errors.As(err, &inactive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInsufficientCash),
		errors.Is(err, service.ErrProductInactive),
		errors.Is(err, service.ErrUnsupportedWebhook):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrMissingCustomerInfo),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrNoItems),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidWebhook),
		errors.Is(err, service.ErrNoPaymentID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrReportNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrIllegalTransition),
		errors.Is(err, model.ErrOrderFinalized),
		errors.Is(err, model.ErrItemsLocked),
		errors.Is(err, service.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// NewHTTPErrorHandler renders echo and domain errors as JSON. Internal errors
// are logged and answered with a generic message.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		body := errorResponse{Error: http.StatusText(code)}

		var he *echo.HTTPError
		var inactive *service.InactiveProductsError
		switch {
		case errors.As(err, &he):
			code = he.Code
			body.Error = http.StatusText(code)
			if msg, ok := he.Message.(string); ok {
				body.Error = msg
			}
		default:
			code = StatusFor(err)
			if code != http.StatusInternalServerError {
				body.Error = err.Error()
			}
			if errors.As(err, &inactive) {
				body.Products = inactive.Names
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error("write error response", slog.Any("error", err))
		}
	}
}
