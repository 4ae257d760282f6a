package service

import (
	"context"
	"errors"
	"fmt"
	"food-storefront/internal/client"
	"food-storefront/internal/model"
	"food-storefront/internal/notify"
	"food-storefront/internal/repository"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// AdminOrderFilter mirrors the dashboard filters. Late selects pending orders
// older than model.LateAfter.
type AdminOrderFilter struct {
	Status        model.OrderStatus
	PaymentStatus model.PaymentStatus
	Late          bool
}

type ItemInput struct {
	ProductID uint
	Quantity  int32
}

type PaymentStatusResult struct {
	OrderID       uint
	PaymentStatus string
	PaymentDetail string
	TicketURL     string
	QRCode        string
	OrderPaid     bool
}

type OrderService interface {
	// client side, scoped to the caller's session
	ListForSession(ctx context.Context, sessionID uint) ([]*model.Order, error)
	GetForSession(ctx context.Context, sessionID, orderID uint) (*model.Order, error)
	ClientCancel(ctx context.Context, sessionID, orderID uint) (*model.Order, error)
	CheckPaymentStatus(ctx context.Context, sessionID, orderID uint) (*PaymentStatusResult, error)

	// staff side
	List(ctx context.Context, filter AdminOrderFilter) ([]*model.Order, error)
	Get(ctx context.Context, orderID uint) (*model.Order, error)
	ToggleStatus(ctx context.Context, orderID uint) (*model.Order, error)
	TogglePaymentStatus(ctx context.Context, orderID uint) (*model.Order, error)
	CancelPayment(ctx context.Context, orderID uint) (*model.Order, error)
	Cancel(ctx context.Context, orderID uint) (*model.Order, error)
	UpdateBasicInfo(ctx context.Context, orderID uint, info model.BasicInfo) (*model.Order, error)
	ReplaceItems(ctx context.Context, orderID uint, items []ItemInput) (*model.Order, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	gateway     client.PaymentGateway
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	notifier    notify.Notifier
	logger      *slog.Logger
	now         func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	gateway client.PaymentGateway,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	notifier notify.Notifier,
	logger *slog.Logger,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		gateway:     gateway,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *orderServiceImpl) ListForSession(ctx context.Context, sessionID uint) ([]*model.Order, error) {
	orders, err := s.orderRepo.List(ctx, repository.OrderFilter{ClientSessionID: &sessionID})
	if err != nil {
		return nil, fmt.Errorf("list session orders: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) GetForSession(ctx context.Context, sessionID, orderID uint) (*model.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ClientSessionID == nil || *order.ClientSessionID != sessionID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderServiceImpl) ClientCancel(ctx context.Context, sessionID, orderID uint) (*model.Order, error) {
	order, err := s.GetForSession(ctx, sessionID, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.applyTransition(ctx, order, (*model.Order).ClientCancel); err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled by client", slog.Uint64("order_id", uint64(order.ID)))
	s.notifier.ClientCancelled(ctx, order)
	return order, nil
}

func (s *orderServiceImpl) CheckPaymentStatus(ctx context.Context, sessionID, orderID uint) (*PaymentStatusResult, error) {
	order, err := s.GetForSession(ctx, sessionID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentID == "" {
		return nil, ErrNoPaymentID
	}

	info, err := s.gateway.GetPaymentInfo(ctx, order.PaymentID)
	if errors.Is(err, client.ErrPaymentNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, order.PaymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("gateway get payment %s: %w", order.PaymentID, err)
	}

	return &PaymentStatusResult{
		OrderID:       order.ID,
		PaymentStatus: info.Status,
		PaymentDetail: info.StatusDetail,
		TicketURL:     info.TicketURL,
		QRCode:        info.QRCode,
		OrderPaid:     order.IsPaid(),
	}, nil
}

func (s *orderServiceImpl) List(ctx context.Context, filter AdminOrderFilter) ([]*model.Order, error) {
	repoFilter := repository.OrderFilter{
		Status:        filter.Status,
		PaymentStatus: filter.PaymentStatus,
	}
	if filter.Late {
		repoFilter.LateBefore = s.now().Add(-model.LateAfter)
	}

	orders, err := s.orderRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) Get(ctx context.Context, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order %d: %w", orderID, err)
	}
	return order, nil
}

func (s *orderServiceImpl) ToggleStatus(ctx context.Context, orderID uint) (*model.Order, error) {
	return s.adminTransition(ctx, orderID, (*model.Order).ToggleStatus)
}

func (s *orderServiceImpl) TogglePaymentStatus(ctx context.Context, orderID uint) (*model.Order, error) {
	return s.adminTransition(ctx, orderID, (*model.Order).TogglePaymentStatus)
}

func (s *orderServiceImpl) CancelPayment(ctx context.Context, orderID uint) (*model.Order, error) {
	return s.adminTransition(ctx, orderID, (*model.Order).CancelPayment)
}

func (s *orderServiceImpl) Cancel(ctx context.Context, orderID uint) (*model.Order, error) {
	return s.adminTransition(ctx, orderID, (*model.Order).AdminCancel)
}

func (s *orderServiceImpl) adminTransition(ctx context.Context, orderID uint, transition func(*model.Order) error) (*model.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.applyTransition(ctx, order, transition); err != nil {
		return nil, err
	}

	s.logger.Info("order updated by staff",
		slog.Uint64("order_id", uint64(order.ID)),
		slog.String("status", string(order.Status)),
		slog.String("payment_status", string(order.PaymentStatus)),
	)
	s.notifier.OrderUpdated(ctx, order)
	return order, nil
}

// applyTransition runs transition on order and persists it only if the stored
// state is still the one it was computed from.
func (s *orderServiceImpl) applyTransition(ctx context.Context, order *model.Order, transition func(*model.Order) error) error {
	from := order.State()
	if err := transition(order); err != nil {
		return err
	}

	updated, err := s.orderRepo.TransitionState(ctx, nil, order, from)
	if err != nil {
		return fmt.Errorf("store state of order %d: %w", order.ID, err)
	}
	if !updated {
		return ErrConcurrentUpdate
	}
	return nil
}

func (s *orderServiceImpl) UpdateBasicInfo(ctx context.Context, orderID uint, info model.BasicInfo) (*model.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.State()
	if err := order.UpdateBasicInfo(info); err != nil {
		return nil, err
	}
	updated, err := s.orderRepo.UpdateContactInfo(ctx, nil, order, from)
	if err != nil {
		return nil, fmt.Errorf("store order %d: %w", order.ID, err)
	}
	if !updated {
		return nil, ErrConcurrentUpdate
	}

	s.notifier.OrderUpdated(ctx, order)
	return order, nil
}

func (s *orderServiceImpl) ReplaceItems(ctx context.Context, orderID uint, inputs []ItemInput) (*model.Order, error) {
	if len(inputs) == 0 {
		return nil, ErrNoItems
	}

	quantities := make(map[uint]int32, len(inputs))
	productIDs := make([]uint, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if _, seen := quantities[in.ProductID]; !seen {
			productIDs = append(productIDs, in.ProductID)
		}
		quantities[in.ProductID] += in.Quantity
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanEditItems() {
		return nil, model.ErrItemsLocked
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	if len(products) != len(productIDs) {
		return nil, ErrProductNotFound
	}

	previous := make(map[uint]int32, len(order.Items))
	for _, item := range order.Items {
		previous[item.ProductID] += item.Quantity
	}

	items := make([]*model.OrderItem, 0, len(products))
	for _, product := range products {
		items = append(items, &model.OrderItem{
			OrderID:   order.ID,
			ProductID: product.ID,
			Product:   product,
			Quantity:  quantities[product.ID],
		})
	}
	added, removed := diffItems(previous, quantities)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the payment may have been confirmed since the read above
		from := order.State()
		current := *order
		current.Items = nil
		touched, err := s.orderRepo.TransitionState(ctx, tx, &current, from)
		if err != nil {
			return err
		}
		if !touched {
			return ErrConcurrentUpdate
		}
		order.UpdatedAt = current.UpdatedAt

		return s.orderRepo.ReplaceItems(ctx, tx, order.ID, items)
	})
	if err != nil {
		if errors.Is(err, ErrConcurrentUpdate) {
			return nil, err
		}
		return nil, fmt.Errorf("replace items of order %d: %w", order.ID, err)
	}

	order.Items = items
	if added || removed {
		s.notifier.ItemsChanged(ctx, order, added, removed)
	}
	return order, nil
}

func diffItems(previous, next map[uint]int32) (added, removed bool) {
	for productID, qty := range next {
		if qty > previous[productID] {
			added = true
		}
	}
	for productID, qty := range previous {
		if qty > next[productID] {
			removed = true
		}
	}
	return added, removed
}
