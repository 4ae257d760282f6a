package handler

import (
	"errors"
	"fmt"
	"food-storefront/internal/model"
	"food-storefront/internal/service"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&service.InactiveProductsError{Names: []string{"Coxinha"}}, http.StatusUnprocessableEntity},
		{fmt.Errorf("checkout: %w", service.ErrInsufficientCash), http.StatusUnprocessableEntity},
		{service.ErrUnsupportedWebhook, http.StatusUnprocessableEntity},
		{service.ErrInvalidPaymentMethod, http.StatusBadRequest},
		{fmt.Errorf("handle: %w", service.ErrInvalidWebhook), http.StatusBadRequest},
		{service.ErrNoPaymentID, http.StatusBadRequest},
		{service.ErrOrderNotFound, http.StatusNotFound},
		{service.ErrPaymentNotFound, http.StatusNotFound},
		{model.ErrOrderFinalized, http.StatusConflict},
		{model.ErrItemsLocked, http.StatusConflict},
		{service.ErrConcurrentUpdate, http.StatusConflict},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
