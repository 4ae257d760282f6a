package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInsufficientCash     = errors.New("cash value is lower than the order total")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrMissingCustomerInfo  = errors.New("name, phone and address are required")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrNoItems              = errors.New("order must keep at least one item")
	ErrInvalidProduct       = errors.New("product name and a positive price are required")

	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrProductInactive = errors.New("product is not available")
	ErrReportNotFound  = errors.New("report not found")

	// ErrConcurrentUpdate means the order changed between read and write.
	ErrConcurrentUpdate = errors.New("order was modified concurrently")

	ErrInvalidWebhook     = errors.New("invalid webhook payload")
	ErrUnsupportedWebhook = errors.New("unsupported webhook topic")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrNoPaymentID        = errors.New("order has no gateway payment")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// InactiveProductsError lists the cart products that can no longer be sold.
type InactiveProductsError struct {
	Names []string
}

func (e *InactiveProductsError) Error() string {
	return fmt.Sprintf("cart contains unavailable products: %s", strings.Join(e.Names, ", "))
}
