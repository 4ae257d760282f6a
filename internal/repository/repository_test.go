package repository

import (
	"context"
	"errors"
	"fmt"
	"food-storefront/internal/client"
	"food-storefront/internal/model"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := client.OpenDatabase("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, mutate func(o *model.Order)) *model.Order {
	t.Helper()

	order := &model.Order{
		CustomerName:  "Maria",
		Phone:         "11999990000",
		Address:       "Rua A, 10",
		PaymentMethod: model.PaymentMethodPix,
		PaymentStatus: model.PaymentStatusPending,
		Status:        model.OrderStatusPending,
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, NewOrderRepository(db).Create(context.Background(), nil, order))
	return order
}

func TestOrderRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	products := NewProductRepository(db)
	orders := NewOrderRepository(db)
	require.NoError(t, products.Seed(ctx))

	order := seedOrder(t, db, nil)
	require.NoError(t, orders.CreateOrderItems(ctx, nil, []*model.OrderItem{
		{OrderID: order.ID, ProductID: 1, Quantity: 2},
		{OrderID: order.ID, ProductID: 2, Quantity: 1},
	}))

	found, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "25.00", found.TotalPrice().StringFixed(2))

	_, err = orders.FindByID(ctx, order.ID+100)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = orders.FindByPaymentID(ctx, "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderRepositoryTransitionStateIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewOrderRepository(db)
	order := seedOrder(t, db, nil)

	from := order.State()
	order.PaymentStatus = model.PaymentStatusPaid
	ok, err := orders.TransitionState(ctx, nil, order, from)
	require.NoError(t, err)
	assert.True(t, ok)

	// a second writer still holding the old state loses
	stale := *order
	stale.Status = model.OrderStatusCancelled
	stale.PaymentStatus = model.PaymentStatusCancelled
	ok, err = orders.TransitionState(ctx, nil, &stale, from)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, found.PaymentStatus)
	assert.Equal(t, model.OrderStatusPending, found.Status)
}

func TestOrderRepositoryPaymentData(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewOrderRepository(db)
	order := seedOrder(t, db, nil)

	// a webhook marks the order paid while checkout still holds a stale copy
	paid := *order
	paid.PaymentStatus = model.PaymentStatusPaid
	_, err := orders.TransitionState(ctx, nil, &paid, order.State())
	require.NoError(t, err)

	order.PaymentID = "123"
	order.PaymentURL = "https://mp.test/ticket/123"
	require.NoError(t, orders.SavePaymentData(ctx, nil, order))

	found, err := orders.FindByPaymentID(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, found.PaymentStatus)
	assert.Equal(t, "https://mp.test/ticket/123", found.PaymentURL)

	adopted, err := orders.AdoptPaymentID(ctx, nil, order.ID, "999")
	require.NoError(t, err)
	assert.False(t, adopted)
	found, err = orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "123", found.PaymentID)
}

func TestOrderRepositoryAdoptPaymentID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewOrderRepository(db)
	order := seedOrder(t, db, nil)

	adopted, err := orders.AdoptPaymentID(ctx, nil, order.ID, "555")
	require.NoError(t, err)
	assert.True(t, adopted)

	found, err := orders.FindByPaymentID(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	// a retried payment replaces the previous one while the order is unpaid
	adopted, err = orders.AdoptPaymentID(ctx, nil, order.ID, "556")
	require.NoError(t, err)
	assert.True(t, adopted)

	found, err = orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "556", found.PaymentID)
}

func TestOrderRepositoryUpdateContactInfoIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewOrderRepository(db)
	order := seedOrder(t, db, nil)
	from := order.State()

	finalized := *order
	finalized.Status = model.OrderStatusCompleted
	finalized.PaymentStatus = model.PaymentStatusPaid
	ok, err := orders.TransitionState(ctx, nil, &finalized, from)
	require.NoError(t, err)
	require.True(t, ok)

	order.CustomerName = "Mallory"
	ok, err = orders.UpdateContactInfo(ctx, nil, order, from)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria", found.CustomerName)

	found.Address = "Rua B, 20"
	ok, err = orders.UpdateContactInfo(ctx, nil, found, found.State())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderRepositoryReplaceItems(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewOrderRepository(db)
	require.NoError(t, NewProductRepository(db).Seed(ctx))
	order := seedOrder(t, db, nil)

	require.NoError(t, orders.CreateOrderItems(ctx, nil, []*model.OrderItem{
		{OrderID: order.ID, ProductID: 1, Quantity: 1},
	}))
	require.NoError(t, orders.ReplaceItems(ctx, nil, order.ID, []*model.OrderItem{
		{ProductID: 3, Quantity: 2},
		{ProductID: 4, Quantity: 1},
	}))

	items, err := orders.GetOrderItems(ctx, nil, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, uint(3), items[0].ProductID)
	assert.Equal(t, "Coxinha", items[1].Product.Name)
}

func TestOrderRepositoryList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewOrderRepository(db)

	now := time.Now().UTC()
	sessionID := uint(7)
	old := seedOrder(t, db, func(o *model.Order) {
		o.CreatedAt = now.Add(-time.Hour)
		o.ClientSessionID = &sessionID
	})
	recent := seedOrder(t, db, func(o *model.Order) { o.CreatedAt = now.Add(-time.Minute) })
	done := seedOrder(t, db, func(o *model.Order) {
		o.CreatedAt = now.Add(-2 * time.Hour)
		o.Status = model.OrderStatusCompleted
		o.PaymentStatus = model.PaymentStatusPaid
	})

	all, err := orders.List(ctx, OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, recent.ID, all[0].ID)

	late, err := orders.List(ctx, OrderFilter{LateBefore: now.Add(-model.LateAfter)})
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, old.ID, late[0].ID)

	paid, err := orders.List(ctx, OrderFilter{PaymentStatus: model.PaymentStatusPaid})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, done.ID, paid[0].ID)

	mine, err := orders.List(ctx, OrderFilter{ClientSessionID: &sessionID})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	window, err := orders.List(ctx, OrderFilter{CreatedFrom: now.Add(-90 * time.Minute), CreatedTo: now})
	require.NoError(t, err)
	assert.Len(t, window, 2)
}

func TestOrderRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	orders := NewOrderRepository(db)
	order := seedOrder(t, db, nil)

	require.NoError(t, orders.Delete(ctx, nil, order.ID))
	assert.ErrorIs(t, orders.Delete(ctx, nil, order.ID), gorm.ErrRecordNotFound)
}

func TestCartRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, NewProductRepository(db).Seed(ctx))
	carts := NewCartRepository(db)

	cart, err := carts.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	require.NoError(t, carts.AddItem(ctx, cart.ID, 1, 1))
	require.NoError(t, carts.AddItem(ctx, cart.ID, 1, 2))
	require.NoError(t, carts.AddItem(ctx, cart.ID, 2, 1))

	cart, err = carts.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int32(4), cart.TotalQuantity())
	assert.Equal(t, "35.00", cart.TotalPrice().StringFixed(2))

	require.NoError(t, carts.SetQuantity(ctx, cart.ID, 2, 5))
	item, err := carts.FindItem(ctx, cart.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(5), item.Quantity)
	assert.ErrorIs(t, carts.SetQuantity(ctx, cart.ID, 3, 1), gorm.ErrRecordNotFound)

	ordered := []*model.CartItem{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 5}}
	require.NoError(t, carts.AddItem(ctx, cart.ID, 1, 2))
	require.NoError(t, carts.Consume(ctx, nil, cart.ID, ordered))
	cart, err = carts.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, uint(1), cart.Items[0].ProductID)

	require.NoError(t, carts.RemoveItem(ctx, cart.ID, 1))
	require.NoError(t, carts.Clear(ctx, nil, cart.ID))
	cart, err = carts.GetOrCreate(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	products := NewProductRepository(db)
	require.NoError(t, products.Seed(ctx))
	// seeding twice keeps the catalog intact
	require.NoError(t, products.Seed(ctx))

	require.NoError(t, products.Create(ctx, &model.Product{
		Name:     "Suco de laranja",
		Price:    decimal.RequireFromString("6.00"),
		IsActive: true,
	}))
	require.NoError(t, products.SetActive(ctx, 2, false))
	assert.ErrorIs(t, products.SetActive(ctx, 999, false), gorm.ErrRecordNotFound)

	active, err := products.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 4)

	stats, err := products.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ProductStats{Total: 5, Active: 4, Inactive: 1}, *stats)

	many, err := products.FindMany(ctx, []uint{1, 3})
	require.NoError(t, err)
	assert.Len(t, many, 2)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	sessions := NewSessionRepository(db)

	first, err := sessions.GetOrCreate(ctx, "key-1", "firefox", "10.0.0.1")
	require.NoError(t, err)
	again, err := sessions.GetOrCreate(ctx, "key-1", "chrome", "10.0.0.2")
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "firefox", again.UserAgent)
}

func TestWebhookEventRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	events := NewWebhookEventRepository(db)

	exists, err := events.Exists(ctx, "123:paid")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, events.MarkProcessed(ctx, nil, "123:paid", "payment.paid", 1))
	require.NoError(t, events.MarkProcessed(ctx, nil, "123:paid", "payment.paid", 1))

	exists, err = events.Exists(ctx, "123:paid")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReportRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	reports := NewReportRepository(db)

	require.NoError(t, reports.Upsert(ctx, &model.DailyReport{Date: "2026-03-09", QuantityOrders: 1}))
	require.NoError(t, reports.Upsert(ctx, &model.DailyReport{Date: "2026-03-10", QuantityOrders: 2}))
	require.NoError(t, reports.Upsert(ctx, &model.DailyReport{Date: "2026-03-10", QuantityOrders: 5}))

	found, err := reports.FindByDate(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, int64(5), found.QuantityOrders)

	byID, err := reports.FindByID(ctx, found.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", byID.Date)

	list, err := reports.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2026-03-10", list[0].Date)
}

func TestIsLockContention(t *testing.T) {
	assert.False(t, IsLockContention(nil))
	assert.False(t, IsLockContention(errors.New("boom")))
	assert.True(t, IsLockContention(fmt.Errorf("wrap: %w", sqlite3.Error{Code: sqlite3.ErrBusy})))
	assert.True(t, IsLockContention(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, IsLockContention(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.True(t, IsLockContention(&gomysql.MySQLError{Number: 1213}))
	assert.False(t, IsLockContention(&gomysql.MySQLError{Number: 1062}))
	assert.True(t, IsLockContention(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, IsLockContention(&pgconn.PgError{Code: "23505"}))
}
