// Package notify fans order changes out to the dashboard channel, the store's
// WhatsApp number and the optional event stream. Every sink is best effort:
// failures are logged and never returned to the caller.
package notify

import (
	"context"
	"food-storefront/internal/client"
	"food-storefront/internal/model"
	"food-storefront/internal/realtime"
	"log/slog"
	"sync"
	"time"
)

const (
	realtimeTimeout = 2 * time.Second
	outboundTimeout = 30 * time.Second
)

type Notifier interface {
	NewOrder(ctx context.Context, order *model.Order)
	// ItemsChanged is sent after the item set of an existing order was edited.
	ItemsChanged(ctx context.Context, order *model.Order, added, removed bool)
	OrderUpdated(ctx context.Context, order *model.Order)
	// PaymentUpdated reports a gateway driven payment change (paid or cancelled).
	PaymentUpdated(ctx context.Context, order *model.Order)
	ClientCancelled(ctx context.Context, order *model.Order)
	// Wait blocks until in-flight outbound sends are done.
	Wait()
}

type notifierImpl struct {
	realtime realtime.Publisher
	messages client.MessageSender
	events   client.EventPublisher
	logger   *slog.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewNotifier accepts nil for any sink that is not configured.
func NewNotifier(rt realtime.Publisher, messages client.MessageSender, events client.EventPublisher, logger *slog.Logger) Notifier {
	return &notifierImpl{
		realtime: rt,
		messages: messages,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

func (n *notifierImpl) NewOrder(ctx context.Context, order *model.Order) {
	n.dispatch(ctx, model.EventNewOrder, order, newOrderMessage(order))
}

func (n *notifierImpl) ItemsChanged(ctx context.Context, order *model.Order, added, removed bool) {
	text := itemsChangedMessage(order)
	if added {
		n.dispatch(ctx, model.EventOrderItemAdded, order, text)
		text = ""
	}
	if removed {
		n.dispatch(ctx, model.EventOrderItemRemoved, order, text)
	}
}

func (n *notifierImpl) OrderUpdated(ctx context.Context, order *model.Order) {
	n.dispatch(ctx, model.EventOrderUpdate, order, "")
}

func (n *notifierImpl) PaymentUpdated(ctx context.Context, order *model.Order) {
	eventType := model.EventOrderUpdate
	switch order.PaymentStatus {
	case model.PaymentStatusPaid:
		eventType = model.EventOrderPaymentPaid
	case model.PaymentStatusCancelled:
		eventType = model.EventOrderPaymentCancelled
	}
	n.dispatch(ctx, eventType, order, paymentUpdateMessage(order))
}

func (n *notifierImpl) ClientCancelled(ctx context.Context, order *model.Order) {
	n.dispatch(ctx, model.EventOrderUpdate, order, clientCancelMessage(order))
}

func (n *notifierImpl) Wait() {
	n.wg.Wait()
}

// dispatch publishes to the dashboard inline and hands the outbound sinks to a
// goroutine. An empty text skips the WhatsApp message.
func (n *notifierImpl) dispatch(ctx context.Context, eventType model.EventType, order *model.Order, text string) {
	event := model.NewOrderEvent(eventType, order, n.now())
	logger := n.logger.With(
		slog.String("event", string(eventType)),
		slog.Uint64("order_id", uint64(order.ID)),
	)

	if n.realtime != nil {
		rtCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), realtimeTimeout)
		if err := n.realtime.Publish(rtCtx, event); err != nil {
			logger.Warn("realtime publish failed", slog.Any("error", err))
		}
		cancel()
	}

	if n.events == nil && (n.messages == nil || text == "") {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		outCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), outboundTimeout)
		defer cancel()

		if n.events != nil {
			if err := n.events.Publish(outCtx, event); err != nil {
				logger.Warn("order event publish failed", slog.Any("error", err))
			}
		}
		if n.messages != nil && text != "" {
			if err := n.messages.SendText(outCtx, text); err != nil {
				logger.Warn("whatsapp message failed", slog.Any("error", err))
			}
		}
	}()
}
