package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodPix            PaymentMethod = "pix"
	PaymentMethodCash           PaymentMethod = "dinheiro"
	PaymentMethodCardOnline     PaymentMethod = "cartao_online"
	PaymentMethodCardOnDelivery PaymentMethod = "cartao_presencial"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodPix, PaymentMethodCash, PaymentMethodCardOnline, PaymentMethodCardOnDelivery:
		return true
	}
	return false
}

// UsesGateway reports whether checkout has to create a charge on the payment gateway.
func (m PaymentMethod) UsesGateway() bool {
	return m == PaymentMethodPix || m == PaymentMethodCardOnline
}

// Label is the human readable name used in outbound messages.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentMethodPix:
		return "PIX"
	case PaymentMethodCash:
		return "Dinheiro"
	case PaymentMethodCardOnline:
		return "Cartão (Online)"
	case PaymentMethodCardOnDelivery:
		return "Cartão (Presencial)"
	}
	return string(m)
}

// LateAfter is how long an order may stay pending before it is considered late.
const LateAfter = 25 * time.Minute

var (
	ErrIllegalTransition = errors.New("illegal order transition")
	ErrOrderFinalized    = errors.New("order is finalized")
	ErrItemsLocked       = errors.New("order items can no longer be edited")
)

type Order struct {
	ID              uint  `gorm:"primaryKey"`
	ClientSessionID *uint `gorm:"index"`

	CustomerName string `gorm:"size:100;not null"`
	Phone        string `gorm:"size:20;index;not null"`
	CPF          string `gorm:"size:14"`
	Address      string `gorm:"not null"`

	PaymentMethod            PaymentMethod       `gorm:"size:20;index;not null;default:pix"`
	CashValue                decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	PaymentStatus            PaymentStatus       `gorm:"size:20;index;not null;default:pending"`
	PaymentID                string              `gorm:"size:255;index"` // gateway payment id
	PaymentURL               string              `gorm:"size:512"`
	PaymentIntegrationFailed bool                `gorm:"not null;default:false"`
	Status                   OrderStatus         `gorm:"size:20;index;not null;default:pending"`

	Items []*OrderItem `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        uint     `gorm:"primaryKey"`
	OrderID   uint     `gorm:"index;not null"`
	ProductID uint     `gorm:"index;not null"`
	Product   *Product `gorm:"constraint:OnDelete:CASCADE"`
	Quantity  int32    `gorm:"not null"`
	CreatedAt time.Time
}

// Subtotal needs the product preloaded; a missing product counts as zero.
func (i *OrderItem) Subtotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt32(i.Quantity))
}

// OrderState is the pair the state machine works on.
type OrderState struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
}

func (o *Order) State() OrderState {
	return OrderState{Status: o.Status, PaymentStatus: o.PaymentStatus}
}

// TotalPrice is always derived from the current items, never stored.
func (o *Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ChangeAmount is the change owed for cash orders.
func (o *Order) ChangeAmount() decimal.Decimal {
	if o.PaymentMethod != PaymentMethodCash || !o.CashValue.Valid {
		return decimal.Zero
	}
	change := o.CashValue.Decimal.Sub(o.TotalPrice())
	if change.IsNegative() {
		return decimal.Zero
	}
	return change.Round(2)
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

func (o *Order) IsPaymentPending() bool {
	return o.PaymentStatus == PaymentStatusPending
}

// IsFinalized: completed and paid. A finalized order is immutable.
func (o *Order) IsFinalized() bool {
	return o.Status == OrderStatusCompleted && o.PaymentStatus == PaymentStatusPaid
}

func (o *Order) IsTotallyCancelled() bool {
	return o.Status == OrderStatusCancelled && o.PaymentStatus == PaymentStatusCancelled
}

func (o *Order) IsLate(now time.Time) bool {
	return o.Status == OrderStatusPending && now.Sub(o.CreatedAt) > LateAfter
}

func (o *Order) CanEditItems() bool {
	return o.PaymentStatus != PaymentStatusPaid && !o.IsTotallyCancelled()
}

func (o *Order) CanEditBasicInfo() bool {
	return !o.IsFinalized() && !o.IsTotallyCancelled()
}

// ToggleStatus flips pending <-> completed.
func (o *Order) ToggleStatus() error {
	if o.IsFinalized() {
		return ErrOrderFinalized
	}
	switch o.Status {
	case OrderStatusPending:
		o.Status = OrderStatusCompleted
	case OrderStatusCompleted:
		o.Status = OrderStatusPending
	default:
		return ErrIllegalTransition
	}
	return nil
}

// TogglePaymentStatus flips pending <-> paid. A cancelled payment stays cancelled.
func (o *Order) TogglePaymentStatus() error {
	if o.IsFinalized() {
		return ErrOrderFinalized
	}
	switch o.PaymentStatus {
	case PaymentStatusPending:
		o.PaymentStatus = PaymentStatusPaid
	case PaymentStatusPaid:
		o.PaymentStatus = PaymentStatusPending
	default:
		return ErrIllegalTransition
	}
	return nil
}

func (o *Order) CancelPayment() error {
	if o.IsFinalized() {
		return ErrOrderFinalized
	}
	if o.PaymentStatus == PaymentStatusCancelled {
		return ErrIllegalTransition
	}
	o.PaymentStatus = PaymentStatusCancelled
	return nil
}

// AdminCancel cancels a pending order together with its payment, or closes a
// delivered order whose payment was refunded.
func (o *Order) AdminCancel() error {
	if o.IsFinalized() {
		return ErrOrderFinalized
	}
	switch {
	case o.Status == OrderStatusCompleted && o.PaymentStatus == PaymentStatusCancelled:
		o.Status = OrderStatusCancelled
	case o.Status == OrderStatusPending:
		o.Status = OrderStatusCancelled
		o.PaymentStatus = PaymentStatusCancelled
	default:
		return ErrIllegalTransition
	}
	return nil
}

// ClientCancel only succeeds while both status and payment status are pending.
func (o *Order) ClientCancel() error {
	if o.Status != OrderStatusPending || o.PaymentStatus != PaymentStatusPending {
		return ErrIllegalTransition
	}
	o.Status = OrderStatusCancelled
	o.PaymentStatus = PaymentStatusCancelled
	return nil
}

// ApplyGatewayStatus moves the order to the payment state reported by the
// gateway and reports whether anything changed. Terminal orders are left alone
// and a pending report never demotes an order.
func (o *Order) ApplyGatewayStatus(target PaymentStatus) bool {
	if o.IsFinalized() || o.IsTotallyCancelled() {
		return false
	}
	switch target {
	case PaymentStatusPaid:
		if o.PaymentStatus == PaymentStatusPaid {
			return false
		}
		o.PaymentStatus = PaymentStatusPaid
		return true
	case PaymentStatusCancelled:
		o.PaymentStatus = PaymentStatusCancelled
		o.Status = OrderStatusCancelled
		return true
	}
	return false
}

type BasicInfo struct {
	CustomerName string
	Phone        string
	Address      string
}

func (o *Order) UpdateBasicInfo(info BasicInfo) error {
	if !o.CanEditBasicInfo() {
		return ErrOrderFinalized
	}
	if info.CustomerName != "" {
		o.CustomerName = info.CustomerName
	}
	if info.Phone != "" {
		o.Phone = info.Phone
	}
	if info.Address != "" {
		o.Address = info.Address
	}
	return nil
}
