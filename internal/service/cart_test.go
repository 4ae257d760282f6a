package service

import (
	"context"
	"food-storefront/internal/repository"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	products := repository.NewProductRepository(db)
	carts := NewCartService(repository.NewCartRepository(db), products)

	_, err := carts.AddItem(ctx, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = carts.AddItem(ctx, 1, 99, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, products.SetActive(ctx, 4, false))
	_, err = carts.AddItem(ctx, 1, 4, 1)
	assert.ErrorIs(t, err, ErrProductInactive)

	cart, err := carts.AddItem(ctx, 1, 1, 2)
	require.NoError(t, err)
	cart, err = carts.AddItem(ctx, 1, 1, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int32(3), cart.Items[0].Quantity)

	cart, err = carts.UpdateItem(ctx, 1, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "50.00", cart.TotalPrice().StringFixed(2))

	_, err = carts.UpdateItem(ctx, 1, 2, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	cart, err = carts.UpdateItem(ctx, 1, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = carts.AddItem(ctx, 1, 2, 1)
	require.NoError(t, err)
	require.NoError(t, carts.Clear(ctx, 1))
	cart, err = carts.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestProductService(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	products := NewProductService(repository.NewProductRepository(db))

	_, err := products.Create(ctx, "  ", decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrInvalidProduct)
	_, err = products.Create(ctx, "Pastel", decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	created, err := products.Create(ctx, "Pastel", decimal.RequireFromString("9.999"))
	require.NoError(t, err)
	assert.Equal(t, "10.00", created.Price.StringFixed(2))
	assert.True(t, created.IsActive)

	assert.ErrorIs(t, products.SetActive(ctx, 999, true), ErrProductNotFound)
	require.NoError(t, products.SetActive(ctx, created.ID, false))

	active, err := products.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 4)

	all, err := products.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestSessionServiceResolve(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	sessions := NewSessionService(repository.NewSessionRepository(db))

	fresh, err := sessions.Resolve(ctx, "not-a-uuid", "curl", "127.0.0.1")
	require.NoError(t, err)
	_, err = uuid.Parse(fresh.SessionKey)
	require.NoError(t, err)

	again, err := sessions.Resolve(ctx, fresh.SessionKey, "curl", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, again.ID)

	other, err := sessions.Resolve(ctx, "", "curl", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, fresh.ID, other.ID)
}
