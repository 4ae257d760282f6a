package dto

import (
	"food-storefront/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ProductID uint  `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type CartItemResponse struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int32  `json:"quantity"`
	Subtotal  string `json:"subtotal"`
	IsActive  bool   `json:"is_active"`
}

type CartResponse struct {
	Items         []CartItemResponse `json:"items"`
	TotalPrice    string             `json:"total_price"`
	TotalQuantity int32              `json:"total_quantity"`
}

type CheckoutRequest struct {
	Name          string `json:"name" form:"name"`
	Phone         string `json:"phone" form:"phone"`
	CPF           string `json:"cpf" form:"cpf"`
	Address       string `json:"address" form:"address"`
	PaymentMethod string `json:"payment_method" form:"payment_method"`
	CashValue     string `json:"cash_value" form:"cash_value"`
}

type CheckoutResponse struct {
	Order           OrderResponse `json:"order"`
	Next            string        `json:"next"`
	PaymentURL      string        `json:"payment_url,omitempty"`
	Fallback        bool          `json:"payment_fallback"`
	FallbackMessage string        `json:"fallback_message,omitempty"`
}

type OrderItemResponse struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	Quantity    int32  `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponse struct {
	ID                       uint                `json:"id"`
	CustomerName             string              `json:"customer_name"`
	Phone                    string              `json:"phone"`
	Address                  string              `json:"address"`
	Status                   model.OrderStatus   `json:"status"`
	PaymentStatus            model.PaymentStatus `json:"payment_status"`
	PaymentMethod            model.PaymentMethod `json:"payment_method"`
	PaymentURL               string              `json:"payment_url,omitempty"`
	PaymentIntegrationFailed bool                `json:"payment_integration_failed"`
	CashValue                string              `json:"cash_value,omitempty"`
	ChangeAmount             string              `json:"change_amount,omitempty"`
	TotalPrice               string              `json:"total_price"`
	IsLate                   bool                `json:"is_late"`
	IsFinalized              bool                `json:"is_finalized"`
	CanEditItems             bool                `json:"can_edit_items"`
	CreatedAt                time.Time           `json:"created_at"`
	Items                    []OrderItemResponse `json:"items"`
}

type PaymentStatusResponse struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PaymentDetail string `json:"payment_detail"`
	TicketURL     string `json:"ticket_url,omitempty"`
	QRCode        string `json:"qr_code,omitempty"`
	OrderPaid     bool   `json:"order_paid"`
}

type UpdateOrderInfoRequest struct {
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

type ReplaceItemsRequest struct {
	Items []*Item `json:"items"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ProductRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type ProductResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	IsActive bool   `json:"is_active"`
}

type DailyReportResponse struct {
	ID                       uint   `json:"id,omitempty"`
	Date                     string `json:"date"`
	QuantityOrders           int64  `json:"quantity_orders"`
	QuantityOrdersCompleted  int64  `json:"quantity_orders_status_completed"`
	QuantityOrdersCancelled  int64  `json:"quantity_orders_status_cancelled"`
	QuantityOrdersPending    int64  `json:"quantity_orders_status_pending"`
	QuantityOrdersLate       int64  `json:"quantity_orders_late"`
	RevenueToday             string `json:"revenue_today"`
	RevenuePendingToday      string `json:"revenue_pending_today"`
	QuantityProducts         int64  `json:"quantity_products"`
	QuantityProductsActive   int64  `json:"quantity_products_active"`
	QuantityProductsInactive int64  `json:"quantity_products_inactive"`
	AverageTicket            string `json:"average_ticket"`
	CompletionRate           string `json:"completion_rate"`
	CancellationRate         string `json:"cancellation_rate"`
}

func NewOrderResponse(order *model.Order, now time.Time) OrderResponse {
	resp := OrderResponse{
		ID:                       order.ID,
		CustomerName:             order.CustomerName,
		Phone:                    order.Phone,
		Address:                  order.Address,
		Status:                   order.Status,
		PaymentStatus:            order.PaymentStatus,
		PaymentMethod:            order.PaymentMethod,
		PaymentURL:               order.PaymentURL,
		PaymentIntegrationFailed: order.PaymentIntegrationFailed,
		TotalPrice:               order.TotalPrice().StringFixed(2),
		IsLate:                   order.IsLate(now),
		IsFinalized:              order.IsFinalized(),
		CanEditItems:             order.CanEditItems(),
		CreatedAt:                order.CreatedAt,
		Items:                    make([]OrderItemResponse, 0, len(order.Items)),
	}
	if order.PaymentMethod == model.PaymentMethodCash && order.CashValue.Valid {
		resp.CashValue = order.CashValue.Decimal.StringFixed(2)
		resp.ChangeAmount = order.ChangeAmount().StringFixed(2)
	}

	for _, item := range order.Items {
		ir := OrderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal().StringFixed(2),
		}
		if item.Product != nil {
			ir.ProductName = item.Product.Name
			ir.Price = item.Product.Price.StringFixed(2)
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

func NewOrderListResponse(orders []*model.Order, now time.Time) []OrderResponse {
	resp := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, NewOrderResponse(order, now))
	}
	return resp
}

func NewCartResponse(cart *model.Cart) CartResponse {
	resp := CartResponse{
		Items:         make([]CartItemResponse, 0, len(cart.Items)),
		TotalPrice:    cart.TotalPrice().StringFixed(2),
		TotalQuantity: cart.TotalQuantity(),
	}
	for _, item := range cart.Items {
		if item.Product == nil {
			continue
		}
		resp.Items = append(resp.Items, CartItemResponse{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Price:     item.Product.Price.StringFixed(2),
			Quantity:  item.Quantity,
			Subtotal:  item.Product.Price.Mul(decimal.NewFromInt32(item.Quantity)).StringFixed(2),
			IsActive:  item.Product.IsActive,
		})
	}
	return resp
}

func NewProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price.StringFixed(2),
		IsActive: p.IsActive,
	}
}

func NewDailyReportResponse(r *model.DailyReport) DailyReportResponse {
	return DailyReportResponse{
		ID:                       r.ID,
		Date:                     r.Date,
		QuantityOrders:           r.QuantityOrders,
		QuantityOrdersCompleted:  r.QuantityOrdersCompleted,
		QuantityOrdersCancelled:  r.QuantityOrdersCancelled,
		QuantityOrdersPending:    r.QuantityOrdersPending,
		QuantityOrdersLate:       r.QuantityOrdersLate,
		RevenueToday:             r.RevenueToday.StringFixed(2),
		RevenuePendingToday:      r.RevenuePendingToday.StringFixed(2),
		QuantityProducts:         r.QuantityProducts,
		QuantityProductsActive:   r.QuantityProductsActive,
		QuantityProductsInactive: r.QuantityProductsInactive,
		AverageTicket:            r.AverageTicket.StringFixed(2),
		CompletionRate:           r.CompletionRate.StringFixed(2),
		CancellationRate:         r.CancellationRate.StringFixed(2),
	}
}
