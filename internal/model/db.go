package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"size:120;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IsActive  bool            `gorm:"index;not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClientSession tracks an anonymous shopper across requests and devices.
type ClientSession struct {
	ID           uint   `gorm:"primaryKey"`
	SessionKey   string `gorm:"size:64;uniqueIndex;not null"`
	UserAgent    string `gorm:"size:255"`
	IPAddress    string `gorm:"size:64"`
	CreatedAt    time.Time
	LastActivity time.Time `gorm:"index"`
}

type Cart struct {
	ID              uint        `gorm:"primaryKey"`
	ClientSessionID uint        `gorm:"uniqueIndex;not null"`
	Items           []*CartItem `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time
}

type CartItem struct {
	ID        uint     `gorm:"primaryKey"`
	CartID    uint     `gorm:"uniqueIndex:idx_cart_product;not null"`
	ProductID uint     `gorm:"uniqueIndex:idx_cart_product;not null"`
	Product   *Product `gorm:"constraint:OnDelete:CASCADE"`
	Quantity  int32    `gorm:"not null;default:1"`
	AddedAt   time.Time
}

// TotalPrice only counts active products.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		if item.Product == nil || !item.Product.IsActive {
			continue
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return total
}

func (c *Cart) TotalQuantity() int32 {
	var n int32
	for _, item := range c.Items {
		if item.Product != nil && item.Product.IsActive {
			n += item.Quantity
		}
	}
	return n
}

// WebhookEvent records a gateway notification that changed an order.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"` // payment_id:status
	EventType   string `gorm:"size:64;index"`
	OrderID     uint   `gorm:"index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

type DailyReport struct {
	ID   uint   `gorm:"primaryKey"`
	Date string `gorm:"size:10;uniqueIndex;not null"` // YYYY-MM-DD, local to the store

	QuantityOrders          int64
	QuantityOrdersCompleted int64
	QuantityOrdersCancelled int64
	QuantityOrdersPending   int64
	QuantityOrdersLate      int64

	RevenueToday        decimal.Decimal `gorm:"type:decimal(10,2)"`
	RevenuePendingToday decimal.Decimal `gorm:"type:decimal(10,2)"`

	QuantityProducts         int64
	QuantityProductsActive   int64
	QuantityProductsInactive int64

	AverageTicket    decimal.Decimal `gorm:"type:decimal(10,2)"`
	CompletionRate   decimal.Decimal `gorm:"type:decimal(5,2)"`
	CancellationRate decimal.Decimal `gorm:"type:decimal(5,2)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
