package repository

import (
	"context"
	"food-storefront/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	// GetOrCreate returns the session's cart with items and products preloaded.
	GetOrCreate(ctx context.Context, clientSessionID uint) (*model.Cart, error)
	// AddItem inserts the product or increments its quantity by qty.
	AddItem(ctx context.Context, cartID, productID uint, qty int32) error
	FindItem(ctx context.Context, cartID, productID uint) (*model.CartItem, error)
	SetQuantity(ctx context.Context, cartID, productID uint, qty int32) error
	RemoveItem(ctx context.Context, cartID, productID uint) error
	Clear(ctx context.Context, tx *gorm.DB, cartID uint) error
	// Consume subtracts the quantities of items from the cart and drops lines
	// that reach zero. Units added after items were read stay in the cart.
	Consume(ctx context.Context, tx *gorm.DB, cartID uint, items []*model.CartItem) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) GetOrCreate(ctx context.Context, clientSessionID uint) (*model.Cart, error) {
	cart := model.Cart{ClientSessionID: clientSessionID}
	err := r.db.WithContext(ctx).
		Where(model.Cart{ClientSessionID: clientSessionID}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cart.ID).
		Order("added_at").
		Find(&cart.Items).Error
	if err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *cartRepoImpl) AddItem(ctx context.Context, cartID, productID uint, qty int32) error {
	item := &model.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  qty,
		AddedAt:   time.Now(),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("cart_items.quantity + ?", qty),
		}),
	}).Omit("Product").Create(item).Error
}

func (r *cartRepoImpl) FindItem(ctx context.Context, cartID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error

	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *cartRepoImpl) SetQuantity(ctx context.Context, cartID, productID uint, qty int32) error {
	result := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", qty)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *cartRepoImpl) RemoveItem(ctx context.Context, cartID, productID uint) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&model.CartItem{}).Error
}

func (r *cartRepoImpl) Clear(ctx context.Context, tx *gorm.DB, cartID uint) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
}

func (r *cartRepoImpl) Consume(ctx context.Context, tx *gorm.DB, cartID uint, items []*model.CartItem) error {
	db := r.db
	if tx != nil {
		db = tx
	}

	for _, item := range items {
		err := db.WithContext(ctx).
			Model(&model.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, item.ProductID).
			Update("quantity", gorm.Expr("quantity - ?", item.Quantity)).Error
		if err != nil {
			return err
		}
	}

	return db.WithContext(ctx).Where("cart_id = ? AND quantity <= 0", cartID).Delete(&model.CartItem{}).Error
}
