package service

import (
	"context"
	"errors"
	"food-storefront/internal/client"
	"food-storefront/internal/model"
	"food-storefront/internal/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type webhookFixture struct {
	db       *gorm.DB
	service  WebhookService
	gateway  *fakeGateway
	notifier *fakeNotifier
	orders   repository.OrderRepository
	events   repository.WebhookEventRepository
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	db := newTestDB(t)
	f := &webhookFixture{
		db:       db,
		gateway:  &fakeGateway{info: map[string]*client.PaymentInfo{}},
		notifier: &fakeNotifier{},
		orders:   repository.NewOrderRepository(db),
		events:   repository.NewWebhookEventRepository(db),
	}
	f.service = NewWebhookService(db, f.gateway, f.orders, f.events, f.notifier, discardLogger())
	return f
}

func TestPaymentIDFromNotification(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{name: "topic with resource url", body: `{"topic":"payment","resource":"https://api.mercadopago.com/v1/payments/123"}`, want: "123"},
		{name: "topic with bare id", body: `{"topic":"payment","resource":"456"}`, want: "456"},
		{name: "action with numeric id", body: `{"action":"payment.updated","data":{"id":789}}`, want: "789"},
		{name: "action with string id", body: `{"action":"payment.updated","data":{"id":"789"}}`, want: "789"},
		{name: "merchant order topic", body: `{"topic":"merchant_order","resource":"1"}`, wantErr: ErrUnsupportedWebhook},
		{name: "payment created action", body: `{"action":"payment.created","data":{"id":"1"}}`, wantErr: ErrUnsupportedWebhook},
		{name: "not json", body: `payment=1`, wantErr: ErrInvalidWebhook},
		{name: "unknown shape", body: `{"type":"payment"}`, wantErr: ErrInvalidWebhook},
		{name: "empty id", body: `{"action":"payment.updated","data":{"id":""}}`, wantErr: ErrInvalidWebhook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PaymentIDFromNotification([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapGatewayStatus(t *testing.T) {
	tests := []struct {
		status, detail string
		want           model.PaymentStatus
		ok             bool
	}{
		{"approved", "accredited", model.PaymentStatusPaid, true},
		{"approved", "partially_refunded", "", false},
		{"cancelled", "by_collector", model.PaymentStatusCancelled, true},
		{"expired", "", model.PaymentStatusCancelled, true},
		{"pending", "expired", model.PaymentStatusCancelled, true},
		{"pending", "pending_waiting_transfer", model.PaymentStatusPending, true},
		{"in_process", "pending_review_manual", model.PaymentStatusPending, true},
		{"rejected", "cc_rejected_other_reason", "", false},
	}

	for _, tt := range tests {
		got, ok := MapGatewayStatus(tt.status, tt.detail)
		assert.Equal(t, tt.want, got, "%s/%s", tt.status, tt.detail)
		assert.Equal(t, tt.ok, ok, "%s/%s", tt.status, tt.detail)
	}
}

func TestWebhookApprovedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)
	order := placeOrder(t, f.db, 1, func(o *model.Order) { o.PaymentID = "123" },
		&model.OrderItem{ProductID: 1, Quantity: 1})
	f.gateway.info["123"] = &client.PaymentInfo{ID: "123", Status: "approved", StatusDetail: "accredited"}

	body := []byte(`{"action":"payment.updated","data":{"id":"123"}}`)

	first, err := f.service.HandleMercadoPago(ctx, body)
	require.NoError(t, err)
	assert.Equal(t, ActionPaymentApproved, first.Action)
	assert.Equal(t, order.ID, first.OrderID)

	second, err := f.service.HandleMercadoPago(ctx, body)
	require.NoError(t, err)
	assert.Equal(t, ActionDuplicate, second.Action)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, model.OrderStatusPending, stored.Status)

	calls := f.notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "payment_updated", calls[0].kind)
	assert.Equal(t, model.PaymentStatusPaid, calls[0].payment)

	exists, err := f.events.Exists(ctx, "123:paid")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWebhookAdoptsPaymentIDFromExternalReference(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)
	order := placeOrder(t, f.db, 1, func(o *model.Order) { o.PaymentMethod = model.PaymentMethodCardOnline },
		&model.OrderItem{ProductID: 2, Quantity: 2})
	f.gateway.info["999"] = &client.PaymentInfo{
		ID:                "999",
		Status:            "cancelled",
		StatusDetail:      "by_collector",
		ExternalReference: "1",
	}
	require.Equal(t, uint(1), order.ID)

	result, err := f.service.HandleMercadoPago(ctx, []byte(`{"topic":"payment","resource":"999"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionPaymentCancelled, result.Action)

	stored, err := f.orders.FindByPaymentID(ctx, "999")
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
	assert.True(t, stored.IsTotallyCancelled())
}

func TestWebhookRetriedCardPaymentReplacesPaymentID(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)
	order := placeOrder(t, f.db, 1, func(o *model.Order) { o.PaymentMethod = model.PaymentMethodCardOnline },
		&model.OrderItem{ProductID: 1, Quantity: 1})
	f.gateway.info["A"] = &client.PaymentInfo{ID: "A", Status: "rejected", StatusDetail: "cc_rejected_other_reason", ExternalReference: "1"}
	f.gateway.info["B"] = &client.PaymentInfo{ID: "B", Status: "approved", StatusDetail: "accredited", ExternalReference: "1"}
	require.Equal(t, uint(1), order.ID)

	result, err := f.service.HandleMercadoPago(ctx, []byte(`{"topic":"payment","resource":"A"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionNoAction, result.Action)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.PaymentID)

	result, err = f.service.HandleMercadoPago(ctx, []byte(`{"topic":"payment","resource":"B"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionPaymentApproved, result.Action)

	stored, err = f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", stored.PaymentID)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)

	// a late notification for the rejected attempt leaves the paid order alone
	result, err = f.service.HandleMercadoPago(ctx, []byte(`{"topic":"payment","resource":"A"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionNoAction, result.Action)

	stored, err = f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", stored.PaymentID)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.Len(t, f.notifier.Calls(), 1)
}

func TestWebhookPendingNeverDemotes(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)
	order := placeOrder(t, f.db, 1, func(o *model.Order) {
		o.PaymentID = "321"
		o.PaymentStatus = model.PaymentStatusPaid
	}, &model.OrderItem{ProductID: 1, Quantity: 1})
	f.gateway.info["321"] = &client.PaymentInfo{ID: "321", Status: "in_process"}

	result, err := f.service.HandleMercadoPago(ctx, []byte(`{"action":"payment.updated","data":{"id":321}}`))
	require.NoError(t, err)
	assert.Equal(t, ActionPaymentPending, result.Action)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.Empty(t, f.notifier.Calls())
}

func TestWebhookFinalizedOrderIgnoresGateway(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)
	order := placeOrder(t, f.db, 1, func(o *model.Order) {
		o.PaymentID = "777"
		o.PaymentStatus = model.PaymentStatusPaid
		o.Status = model.OrderStatusCompleted
	}, &model.OrderItem{ProductID: 1, Quantity: 1})
	f.gateway.info["777"] = &client.PaymentInfo{ID: "777", Status: "cancelled"}

	result, err := f.service.HandleMercadoPago(ctx, []byte(`{"action":"payment.updated","data":{"id":"777"}}`))
	require.NoError(t, err)
	assert.Equal(t, ActionNoAction, result.Action)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsFinalized())
	assert.Empty(t, f.notifier.Calls())
}

func TestWebhookErrors(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	_, err := f.service.HandleMercadoPago(ctx, []byte(`{`))
	assert.ErrorIs(t, err, ErrInvalidWebhook)

	_, err = f.service.HandleMercadoPago(ctx, []byte(`{"topic":"merchant_order","resource":"1"}`))
	assert.ErrorIs(t, err, ErrUnsupportedWebhook)
	assert.Zero(t, f.gateway.lookups)

	_, err = f.service.HandleMercadoPago(ctx, []byte(`{"topic":"payment","resource":"404"}`))
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	f.gateway.info["555"] = &client.PaymentInfo{ID: "555", Status: "approved", StatusDetail: "accredited", ExternalReference: "42"}
	_, err = f.service.HandleMercadoPago(ctx, []byte(`{"topic":"payment","resource":"555"}`))
	assert.ErrorIs(t, err, ErrOrderNotFound)

	f.gateway.infoErr = errors.New("timeout")
	_, err = f.service.HandleMercadoPago(ctx, []byte(`{"topic":"payment","resource":"555"}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPaymentNotFound))
}
