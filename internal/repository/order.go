package repository

import (
	"context"
	"food-storefront/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows List. Zero values mean "no filter".
//   - Status / PaymentStatus: exact match.
//   - LateBefore: status=pending and created_at < LateBefore.
//   - ClientSessionID: orders placed from that session.
//   - CreatedFrom / CreatedTo: created_at in [CreatedFrom, CreatedTo).
type OrderFilter struct {
	Status          model.OrderStatus
	PaymentStatus   model.PaymentStatus
	LateBefore      time.Time
	ClientSessionID *uint
	CreatedFrom     time.Time
	CreatedTo       time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	// FindByID returns the order with items and products preloaded.
	FindByID(ctx context.Context, orderID uint) (*model.Order, error)
	// FindByPaymentID matches the gateway payment id; an empty id never matches.
	FindByPaymentID(ctx context.Context, paymentID string) (*model.Order, error)
	// UpdateContactInfo writes customer name, phone and address only if the
	// stored state still equals from. It reports whether the row was updated.
	UpdateContactInfo(ctx context.Context, tx *gorm.DB, order *model.Order, from model.OrderState) (bool, error)
	// TransitionState writes order.Status/PaymentStatus only if the stored pair
	// still equals from. It reports whether the row was updated.
	TransitionState(ctx context.Context, tx *gorm.DB, order *model.Order, from model.OrderState) (bool, error)
	// SavePaymentData writes the gateway columns set at checkout and leaves the
	// state columns alone.
	SavePaymentData(ctx context.Context, tx *gorm.DB, order *model.Order) error
	// AdoptPaymentID points the order at paymentID while it has no payment id
	// or its payment is still pending. It reports whether the row was updated.
	AdoptPaymentID(ctx context.Context, tx *gorm.DB, orderID uint, paymentID string) (bool, error)
	ReplaceItems(ctx context.Context, tx *gorm.DB, orderID uint, items []*model.OrderItem) error
	GetOrderItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]*model.OrderItem, error)
	// List returns matching orders newest first, with items and products preloaded.
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, error)
	Delete(ctx context.Context, tx *gorm.DB, orderID uint) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return r.conn(tx).WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Omit("Product").Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByPaymentID(ctx context.Context, paymentID string) (*model.Order, error) {
	if paymentID == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Where("payment_id = ?", paymentID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) UpdateContactInfo(ctx context.Context, tx *gorm.DB, order *model.Order, from model.OrderState) (bool, error) {
	now := time.Now()
	result := r.conn(tx).WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND status = ?
			AND payment_status = ?
		`,
			order.ID,
			from.Status,
			from.PaymentStatus,
		).
		Updates(map[string]interface{}{
			"customer_name": order.CustomerName,
			"phone":         order.Phone,
			"address":       order.Address,
			"updated_at":    now,
		})

	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	order.UpdatedAt = now
	return true, nil
}

func (r *orderRepoImpl) TransitionState(ctx context.Context, tx *gorm.DB, order *model.Order, from model.OrderState) (bool, error) {
	now := time.Now()
	result := r.conn(tx).WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND status = ?
			AND payment_status = ?
		`,
			order.ID,
			from.Status,
			from.PaymentStatus,
		).
		Updates(map[string]interface{}{
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
			"updated_at":     now,
		})

	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	order.UpdatedAt = now
	return true, nil
}

func (r *orderRepoImpl) SavePaymentData(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	updates := map[string]interface{}{
		"payment_method":             order.PaymentMethod,
		"payment_url":                order.PaymentURL,
		"payment_integration_failed": order.PaymentIntegrationFailed,
		"updated_at":                 time.Now(),
	}
	if order.PaymentID != "" {
		updates["payment_id"] = order.PaymentID
	}

	return r.conn(tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", order.ID).
		Updates(updates).Error
}

func (r *orderRepoImpl) AdoptPaymentID(ctx context.Context, tx *gorm.DB, orderID uint, paymentID string) (bool, error) {
	result := r.conn(tx).WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND (payment_id = '' OR payment_id IS NULL OR payment_status = ?)
		`,
			orderID,
			model.PaymentStatusPending,
		).
		Updates(map[string]interface{}{
			"payment_id": paymentID,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) ReplaceItems(ctx context.Context, tx *gorm.DB, orderID uint, items []*model.OrderItem) error {
	db := r.conn(tx).WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}
	for _, item := range items {
		item.ID = 0
		item.OrderID = orderID
	}
	return r.CreateOrderItems(ctx, tx, items)
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.conn(tx).WithContext(ctx).
		Preload("Product").
		Where("order_id = ?", orderID).
		Order("id").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items.Product")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if !filter.LateBefore.IsZero() {
		query = query.Where("status = ? AND created_at < ?", model.OrderStatusPending, filter.LateBefore.UTC())
	}
	if filter.ClientSessionID != nil {
		query = query.Where("client_session_id = ?", *filter.ClientSessionID)
	}
	if !filter.CreatedFrom.IsZero() {
		query = query.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		query = query.Where("created_at < ?", filter.CreatedTo.UTC())
	}

	var orders []*model.Order
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) Delete(ctx context.Context, tx *gorm.DB, orderID uint) error {
	db := r.conn(tx).WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}

	result := db.Where("id = ?", orderID).Delete(&model.Order{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
