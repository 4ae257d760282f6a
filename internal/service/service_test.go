package service

import (
	"context"
	"fmt"
	"food-storefront/internal/client"
	"food-storefront/internal/model"
	"food-storefront/internal/repository"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := client.OpenDatabase("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))
	require.NoError(t, repository.NewProductRepository(db).Seed(context.Background()))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGateway struct {
	mu        sync.Mutex
	chargeErr error
	charge    *client.Charge
	info      map[string]*client.PaymentInfo
	infoErr   error
	charged   []uint
	lookups   int
}

func (g *fakeGateway) CreateCharge(_ context.Context, order *model.Order) (*client.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.charged = append(g.charged, order.ID)
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return g.charge, nil
}

func (g *fakeGateway) GetPaymentInfo(_ context.Context, paymentID string) (*client.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lookups++
	if g.infoErr != nil {
		return nil, g.infoErr
	}
	info, ok := g.info[paymentID]
	if !ok {
		return nil, client.ErrPaymentNotFound
	}
	return info, nil
}

type notification struct {
	kind    string
	orderID uint
	status  model.OrderStatus
	payment model.PaymentStatus
	added   bool
	removed bool
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *fakeNotifier) record(kind string, order *model.Order, added, removed bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{
		kind:    kind,
		orderID: order.ID,
		status:  order.Status,
		payment: order.PaymentStatus,
		added:   added,
		removed: removed,
	})
}

func (n *fakeNotifier) NewOrder(_ context.Context, order *model.Order) {
	n.record("new_order", order, false, false)
}

func (n *fakeNotifier) ItemsChanged(_ context.Context, order *model.Order, added, removed bool) {
	n.record("items_changed", order, added, removed)
}

func (n *fakeNotifier) OrderUpdated(_ context.Context, order *model.Order) {
	n.record("order_updated", order, false, false)
}

func (n *fakeNotifier) PaymentUpdated(_ context.Context, order *model.Order) {
	n.record("payment_updated", order, false, false)
}

func (n *fakeNotifier) ClientCancelled(_ context.Context, order *model.Order) {
	n.record("client_cancelled", order, false, false)
}

func (n *fakeNotifier) Wait() {}

func (n *fakeNotifier) Calls() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.calls...)
}

// fillCart puts qty units of each product id into the session's cart.
func fillCart(t *testing.T, db *gorm.DB, sessionID uint, qty map[uint]int32) {
	t.Helper()

	carts := repository.NewCartRepository(db)
	cart, err := carts.GetOrCreate(context.Background(), sessionID)
	require.NoError(t, err)
	for productID, n := range qty {
		require.NoError(t, carts.AddItem(context.Background(), cart.ID, productID, n))
	}
}

// placeOrder stores a pending order for the session with the given items.
func placeOrder(t *testing.T, db *gorm.DB, sessionID uint, mutate func(o *model.Order), items ...*model.OrderItem) *model.Order {
	t.Helper()

	ctx := context.Background()
	orders := repository.NewOrderRepository(db)
	order := &model.Order{
		ClientSessionID: &sessionID,
		CustomerName:    "Maria",
		Phone:           "11999990000",
		Address:         "Rua A, 10",
		PaymentMethod:   model.PaymentMethodPix,
		PaymentStatus:   model.PaymentStatusPending,
		Status:          model.OrderStatusPending,
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, orders.Create(ctx, nil, order))

	for _, item := range items {
		item.OrderID = order.ID
	}
	require.NoError(t, orders.CreateOrderItems(ctx, nil, items))

	stored, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	return stored
}
