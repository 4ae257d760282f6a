package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"food-storefront/internal/client"
	"food-storefront/internal/model"
	"food-storefront/internal/notify"
	"food-storefront/internal/repository"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	webhookTopicPayment    = "payment"
	webhookActionPaymentUp = "payment.updated"

	// attempts at the compare-and-set before giving up on a busy order
	maxTransitionAttempts = 3
)

type WebhookAction string

const (
	ActionPaymentApproved  WebhookAction = "payment_approved"
	ActionPaymentCancelled WebhookAction = "payment_cancelled"
	ActionPaymentPending   WebhookAction = "payment_pending"
	ActionDuplicate        WebhookAction = "duplicate"
	ActionNoAction         WebhookAction = "no_action"
)

type WebhookResult struct {
	OrderID   uint
	PaymentID string
	Action    WebhookAction
}

type WebhookService interface {
	// HandleMercadoPago reconciles the order behind a Mercado Pago notification.
	HandleMercadoPago(ctx context.Context, body []byte) (*WebhookResult, error)
}

type webhookServiceImpl struct {
	db               *gorm.DB
	gateway          client.PaymentGateway
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	notifier         notify.Notifier
	logger           *slog.Logger
	group            singleflight.Group
}

func NewWebhookService(
	db *gorm.DB,
	gateway client.PaymentGateway,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	notifier notify.Notifier,
	logger *slog.Logger,
) WebhookService {
	return &webhookServiceImpl{
		db:               db,
		gateway:          gateway,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

// PaymentIDFromNotification validates both notification shapes and returns the
// payment id they carry.
func PaymentIDFromNotification(body []byte) (string, error) {
	var n model.MercadoPagoNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	var paymentID string
	switch {
	case n.Topic != nil && n.Resource != nil:
		if *n.Topic != webhookTopicPayment {
			return "", fmt.Errorf("%w: topic %q", ErrUnsupportedWebhook, *n.Topic)
		}
		paymentID = lastPathSegment(n.Resource.String())
	case n.Action != nil && n.Data != nil:
		if *n.Action != webhookActionPaymentUp {
			return "", fmt.Errorf("%w: action %q", ErrUnsupportedWebhook, *n.Action)
		}
		paymentID = n.Data.ID.String()
	default:
		return "", fmt.Errorf("%w: unknown format", ErrInvalidWebhook)
	}

	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return "", fmt.Errorf("%w: no payment id", ErrInvalidWebhook)
	}
	return paymentID, nil
}

// resource is either a bare id or the payment's API URL
func lastPathSegment(resource string) string {
	resource = strings.TrimRight(strings.TrimSpace(resource), "/")
	if i := strings.LastIndex(resource, "/"); i >= 0 {
		return resource[i+1:]
	}
	return resource
}

// MapGatewayStatus translates a gateway status pair into a local payment
// status. ok is false for combinations that need no action.
func MapGatewayStatus(status, detail string) (model.PaymentStatus, bool) {
	switch {
	case status == "approved" && detail == "accredited":
		return model.PaymentStatusPaid, true
	case status == "cancelled" || status == "expired" || detail == "expired":
		return model.PaymentStatusCancelled, true
	case status == "pending" || status == "in_process":
		return model.PaymentStatusPending, true
	}
	return "", false
}

func (s *webhookServiceImpl) HandleMercadoPago(ctx context.Context, body []byte) (*WebhookResult, error) {
	paymentID, err := PaymentIDFromNotification(body)
	if err != nil {
		return nil, err
	}

	// deliveries for the same payment arriving together share one reconciliation
	v, err, shared := s.group.Do(paymentID, func() (interface{}, error) {
		return s.reconcile(context.WithoutCancel(ctx), paymentID)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		s.logger.Debug("webhook collapsed with concurrent delivery", slog.String("payment_id", paymentID))
	}
	result := *v.(*WebhookResult)
	return &result, nil
}

func (s *webhookServiceImpl) reconcile(ctx context.Context, paymentID string) (*WebhookResult, error) {
	info, err := s.gateway.GetPaymentInfo(ctx, paymentID)
	if errors.Is(err, client.ErrPaymentNotFound) || (err == nil && info == nil) {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("gateway get payment %s: %w", paymentID, err)
	}

	logger := s.logger.With(
		slog.String("payment_id", paymentID),
		slog.String("status", info.Status),
		slog.String("status_detail", info.StatusDetail),
		slog.String("external_reference", info.ExternalReference),
	)

	order, err := s.findOrder(ctx, paymentID, info.ExternalReference)
	if err != nil {
		return nil, err
	}

	result := &WebhookResult{OrderID: order.ID, PaymentID: paymentID, Action: ActionNoAction}
	logger = logger.With(slog.Uint64("order_id", uint64(order.ID)))

	target, ok := MapGatewayStatus(info.Status, info.StatusDetail)
	if !ok {
		logger.Info("webhook status needs no action")
		return result, nil
	}
	if target == model.PaymentStatusPending {
		result.Action = ActionPaymentPending
		return result, nil
	}

	eventID := paymentID + ":" + string(target)
	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		from := order.State()
		if !order.ApplyGatewayStatus(target) {
			exists, err := s.webhookEventRepo.Exists(ctx, eventID)
			if err != nil {
				return nil, fmt.Errorf("check webhook event %s: %w", eventID, err)
			}
			if exists {
				result.Action = ActionDuplicate
			}
			logger.Info("webhook left order unchanged", slog.String("action", string(result.Action)))
			return result, nil
		}

		var updated bool
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			changed, err := s.orderRepo.TransitionState(ctx, tx, order, from)
			if err != nil || !changed {
				return err
			}
			updated = true
			return s.webhookEventRepo.MarkProcessed(ctx, tx, eventID, "payment."+string(target), order.ID)
		})
		if err != nil {
			return nil, fmt.Errorf("apply payment %s to order %d: %w", target, order.ID, err)
		}
		if updated {
			if target == model.PaymentStatusPaid {
				result.Action = ActionPaymentApproved
			} else {
				result.Action = ActionPaymentCancelled
			}
			logger.Info("order payment reconciled", slog.String("payment_status", string(order.PaymentStatus)))
			s.notifier.PaymentUpdated(ctx, order)
			return result, nil
		}

		// someone else moved the order; re-read and decide again
		order, err = s.orderRepo.FindByID(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("reload order %d: %w", result.OrderID, err)
		}
	}

	return nil, fmt.Errorf("order %d: %w", result.OrderID, ErrConcurrentUpdate)
}

// findOrder looks the order up by payment id, then by external reference. In
// the second case the order adopts the payment id unless it is already settled.
func (s *webhookServiceImpl) findOrder(ctx context.Context, paymentID, externalReference string) (*model.Order, error) {
	order, err := s.orderRepo.FindByPaymentID(ctx, paymentID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find order by payment id: %w", err)
	}

	orderID, ok := model.ParseExternalReference(externalReference)
	if !ok {
		return nil, fmt.Errorf("%w: payment_id %s, external_reference %q", ErrOrderNotFound, paymentID, externalReference)
	}

	order, err = s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: payment_id %s, external_reference %q", ErrOrderNotFound, paymentID, externalReference)
	}
	if err != nil {
		return nil, fmt.Errorf("find order by external reference: %w", err)
	}

	// a retried card payment arrives under a new id; an unpaid order follows it
	if order.PaymentID != paymentID {
		adopted, err := s.orderRepo.AdoptPaymentID(ctx, nil, order.ID, paymentID)
		if err != nil {
			return nil, fmt.Errorf("adopt payment id for order %d: %w", order.ID, err)
		}
		if adopted {
			order.PaymentID = paymentID
		}
	}
	return order, nil
}
