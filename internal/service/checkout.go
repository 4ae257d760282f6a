package service

import (
	"context"
	"fmt"
	"food-storefront/internal/client"
	"food-storefront/internal/model"
	"food-storefront/internal/notify"
	"food-storefront/internal/repository"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CheckoutNext string

const (
	NextAwaitingPayment CheckoutNext = "awaiting_payment"
	NextSuccess         CheckoutNext = "success"
)

const (
	pixFallbackMessage  = "Não foi possível gerar o QR Code PIX automaticamente. Entre em contato conosco para receber os dados de pagamento."
	cardFallbackMessage = "Não foi possível processar o pagamento online. O pagamento será realizado presencialmente na entrega."
)

type CheckoutRequest struct {
	ClientSessionID uint
	CustomerName    string
	Phone           string
	CPF             string
	Address         string
	PaymentMethod   model.PaymentMethod
	// CashValue is the raw amount typed by the customer; "," is accepted as decimal separator.
	CashValue string
}

type CheckoutResult struct {
	Order           *model.Order
	Next            CheckoutNext
	Fallback        bool
	FallbackMessage string
}

type CheckoutService interface {
	Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error)
}

type checkoutServiceImpl struct {
	db        *gorm.DB
	gateway   client.PaymentGateway
	cartRepo  repository.CartRepository
	orderRepo repository.OrderRepository
	notifier  notify.Notifier
	logger    *slog.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	gateway client.PaymentGateway,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	notifier notify.Notifier,
	logger *slog.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		db:        db,
		gateway:   gateway,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		notifier:  notifier,
		logger:    logger,
	}
}

// ParseCashValue reads a customer supplied amount; anything unparsable is zero.
func ParseCashValue(raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.Replace(raw, ",", ".", 1))
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return decimal.Zero
	}
	return v
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	if !req.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	if req.CustomerName == "" || req.Phone == "" || req.Address == "" {
		return nil, ErrMissingCustomerInfo
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, req.ClientSessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var inactive []string
	items := make([]*model.OrderItem, 0, len(cart.Items))
	for _, cartItem := range cart.Items {
		if cartItem.Product == nil {
			continue
		}
		if !cartItem.Product.IsActive {
			inactive = append(inactive, cartItem.Product.Name)
			continue
		}
		items = append(items, &model.OrderItem{
			ProductID: cartItem.ProductID,
			Product:   cartItem.Product,
			Quantity:  cartItem.Quantity,
		})
	}
	if len(inactive) > 0 {
		return nil, &InactiveProductsError{Names: inactive}
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &model.Order{
		CustomerName:  req.CustomerName,
		Phone:         req.Phone,
		CPF:           strings.TrimSpace(req.CPF),
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: model.PaymentStatusPending,
		Status:        model.OrderStatusPending,
		Items:         items,
	}
	if req.ClientSessionID != 0 {
		sessionID := req.ClientSessionID
		order.ClientSessionID = &sessionID
	}

	if req.PaymentMethod == model.PaymentMethodCash {
		cash := ParseCashValue(req.CashValue)
		if cash.LessThan(order.TotalPrice()) {
			return nil, ErrInsufficientCash
		}
		order.CashValue = decimal.NewNullDecimal(cash)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}

		for _, item := range items {
			item.OrderID = order.ID
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}

		if err := s.cartRepo.Consume(ctx, tx, cart.ID, cart.Items); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	defer s.notifier.NewOrder(ctx, order)

	logger := s.logger.With(
		slog.Uint64("order_id", uint64(order.ID)),
		slog.String("payment_method", string(order.PaymentMethod)),
	)
	logger.Info("order created", slog.String("total", order.TotalPrice().StringFixed(2)))

	result := &CheckoutResult{
		Order: order,
		Next:  NextSuccess,
	}
	if !order.PaymentMethod.UsesGateway() {
		return result, nil
	}

	charge, chargeErr := s.gateway.CreateCharge(ctx, order)
	if chargeErr == nil {
		order.PaymentID = charge.PaymentID
		order.PaymentURL = charge.PaymentURL
		result.Next = NextAwaitingPayment
	} else {
		logger.Error("gateway charge failed, falling back to manual payment", slog.Any("error", chargeErr))

		order.PaymentIntegrationFailed = true
		result.Fallback = true
		result.FallbackMessage = pixFallbackMessage
		if order.PaymentMethod == model.PaymentMethodCardOnline {
			order.PaymentMethod = model.PaymentMethodCardOnDelivery
			result.FallbackMessage = cardFallbackMessage
		}
	}

	// the order is placed; a lost gateway reference is recovered by the webhook
	// through the external reference
	if err := s.orderRepo.SavePaymentData(ctx, nil, order); err != nil {
		logger.Error("store payment data failed", slog.Any("error", err))
	}

	return result, nil
}
