package repository

import (
	"context"
	"food-storefront/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductStats struct {
	Total    int64
	Active   int64
	Inactive int64
}

type ProductRepository interface {
	Seed(ctx context.Context) error
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, productID uint) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error)
	// List returns products ordered by name; activeOnly drops inactive ones.
	List(ctx context.Context, activeOnly bool) ([]*model.Product, error)
	SetActive(ctx context.Context, productID uint, active bool) error
	Stats(ctx context.Context) (*ProductStats, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: 1, Name: "Pão de queijo (6 un)", Price: decimal.RequireFromString("10.00"), IsActive: true},
		{ID: 2, Name: "Café coado", Price: decimal.RequireFromString("5.00"), IsActive: true},
		{ID: 3, Name: "Bolo de cenoura (fatia)", Price: decimal.RequireFromString("8.50"), IsActive: true},
		{ID: 4, Name: "Coxinha", Price: decimal.RequireFromString("7.00"), IsActive: true},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []uint) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) List(ctx context.Context, activeOnly bool) ([]*model.Product, error) {
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var products []*model.Product
	if err := query.Order("name").Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) SetActive(ctx context.Context, productID uint, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("is_active", active)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *productRepoImpl) Stats(ctx context.Context) (*ProductStats, error) {
	var stats ProductStats
	db := r.db.WithContext(ctx).Model(&model.Product{})

	if err := db.Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	stats.Inactive = stats.Total - stats.Active

	return &stats, nil
}
