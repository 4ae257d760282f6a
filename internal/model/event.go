package model

import "time"

type EventType string

const (
	EventNewOrder              EventType = "new_order"
	EventOrderItemAdded        EventType = "order_item_added"
	EventOrderItemRemoved      EventType = "order_item_removed"
	EventOrderUpdate           EventType = "order_update"
	EventOrderPaymentPaid      EventType = "order_payment_paid"
	EventOrderPaymentCancelled EventType = "order_payment_cancelled"
)

// OrderEvent is the message pushed to dashboard subscribers and event sinks.
type OrderEvent struct {
	Type EventType      `json:"type"`
	Data OrderEventData `json:"data"`
}

type OrderEventItem struct {
	ProductName string  `json:"product_name"`
	Quantity    int32   `json:"quantity"`
	Price       float64 `json:"price"`
}

type OrderEventData struct {
	OrderID       uint             `json:"order_id"`
	CustomerName  string           `json:"customer_name"`
	Phone         string           `json:"phone"`
	Status        OrderStatus      `json:"status"`
	PaymentStatus PaymentStatus    `json:"payment_status"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
	TotalPrice    float64          `json:"total_price"`
	CreatedAt     time.Time        `json:"created_at"`
	IsLate        bool             `json:"is_late"`
	Items         []OrderEventItem `json:"items"`
}

func NewOrderEvent(eventType EventType, order *Order, now time.Time) OrderEvent {
	items := make([]OrderEventItem, 0, len(order.Items))
	for _, item := range order.Items {
		if item.Product == nil {
			continue
		}
		items = append(items, OrderEventItem{
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			Price:       item.Product.Price.InexactFloat64(),
		})
	}

	return OrderEvent{
		Type: eventType,
		Data: OrderEventData{
			OrderID:       order.ID,
			CustomerName:  order.CustomerName,
			Phone:         order.Phone,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			PaymentMethod: order.PaymentMethod,
			TotalPrice:    order.TotalPrice().InexactFloat64(),
			CreatedAt:     order.CreatedAt,
			IsLate:        order.IsLate(now),
			Items:         items,
		},
	}
}
