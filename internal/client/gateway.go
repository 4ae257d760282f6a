package client

import (
	"context"
	"errors"
	"fmt"
	"food-storefront/internal/config"
	"food-storefront/internal/model"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Charge is what checkout keeps from a successful gateway call.
// PaymentID is empty for preference based charges until the webhook arrives.
type Charge struct {
	PaymentID  string
	PaymentURL string
}

type PaymentInfo struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	DateApproved      string
	TicketURL         string
	QRCode            string
}

type PaymentGateway interface {
	CreateCharge(ctx context.Context, order *model.Order) (*Charge, error)
	GetPaymentInfo(ctx context.Context, paymentID string) (*PaymentInfo, error)
}

type mercadoPagoGatewayImpl struct {
	mpClient   MercadoPagoClient
	breaker    *gobreaker.CircuitBreaker[any]
	payerEmail string
	baseURL    string
}

func NewMercadoPagoGateway(mpClient MercadoPagoClient, mpCfg *config.MercadoPago, baseURL string) PaymentGateway {
	return &mercadoPagoGatewayImpl{
		mpClient:   mpClient,
		breaker:    newGatewayBreaker("mercadopago"),
		payerEmail: mpCfg.PayerEmail,
		baseURL:    baseURL,
	}
}

func newGatewayBreaker(name string) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// an unknown payment id is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrPaymentNotFound)
		},
	})
}

func execute[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

func (g *mercadoPagoGatewayImpl) CreateCharge(ctx context.Context, order *model.Order) (*Charge, error) {
	switch order.PaymentMethod {
	case model.PaymentMethodPix:
		return execute(g.breaker, func() (*Charge, error) {
			return g.createPixCharge(ctx, order)
		})
	case model.PaymentMethodCardOnline:
		return execute(g.breaker, func() (*Charge, error) {
			return g.createPreferenceCharge(ctx, order)
		})
	}
	return nil, fmt.Errorf("payment method %q has no gateway charge", order.PaymentMethod)
}

func (g *mercadoPagoGatewayImpl) createPixCharge(ctx context.Context, order *model.Order) (*Charge, error) {
	payment, err := g.mpClient.CreatePixPayment(ctx, &PixPaymentRequest{
		TransactionAmount: order.TotalPrice().InexactFloat64(),
		Description:       fmt.Sprintf("Pedido #%d", order.ID),
		ExternalReference: strconv.FormatUint(uint64(order.ID), 10),
		Payer: PixPayer{
			Email: g.payerEmail,
			Identification: Identification{
				Type:   "CPF",
				Number: order.CPF,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if payment.ID == "" {
		return nil, fmt.Errorf("pix payment for order %d returned no id", order.ID)
	}

	return &Charge{
		PaymentID:  payment.ID.String(),
		PaymentURL: payment.PointOfInteraction.TransactionData.TicketURL,
	}, nil
}

func (g *mercadoPagoGatewayImpl) createPreferenceCharge(ctx context.Context, order *model.Order) (*Charge, error) {
	items := make([]PreferenceItem, 0, len(order.Items))
	for _, item := range order.Items {
		if item.Product == nil {
			continue
		}
		items = append(items, PreferenceItem{
			ID:         strconv.FormatUint(uint64(item.ProductID), 10),
			Title:      item.Product.Name,
			Quantity:   item.Quantity,
			CurrencyID: "BRL",
			UnitPrice:  item.Product.Price.InexactFloat64(),
		})
	}

	orderURL := fmt.Sprintf("%s/api/orders/%d", g.baseURL, order.ID)
	preference, err := g.mpClient.CreatePreference(ctx, &PreferenceRequest{
		Items:             items,
		ExternalReference: strconv.FormatUint(uint64(order.ID), 10),
		BackURLs: BackURLs{
			Success: orderURL,
			Failure: orderURL,
			Pending: orderURL,
		},
		AutoReturn: "approved",
	})
	if err != nil {
		return nil, err
	}
	if preference.InitPoint == "" {
		return nil, fmt.Errorf("preference for order %d returned no init point", order.ID)
	}

	return &Charge{
		PaymentURL: preference.InitPoint,
	}, nil
}

func (g *mercadoPagoGatewayImpl) GetPaymentInfo(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	return execute(g.breaker, func() (*PaymentInfo, error) {
		payment, err := g.mpClient.GetPayment(ctx, paymentID)
		if err != nil {
			return nil, err
		}

		return &PaymentInfo{
			ID:                payment.ID.String(),
			Status:            payment.Status,
			StatusDetail:      payment.StatusDetail,
			ExternalReference: payment.ExternalReference,
			DateApproved:      payment.DateApproved,
			TicketURL:         payment.PointOfInteraction.TransactionData.TicketURL,
			QRCode:            payment.PointOfInteraction.TransactionData.QRCode,
		}, nil
	})
}
