package service

import (
	"context"
	"errors"
	"fmt"
	"food-storefront/internal/model"
	"food-storefront/internal/repository"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductService interface {
	List(ctx context.Context, activeOnly bool) ([]*model.Product, error)
	Create(ctx context.Context, name string, price decimal.Decimal) (*model.Product, error)
	SetActive(ctx context.Context, productID uint, active bool) error
	Seed(ctx context.Context) error
}

type productServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productServiceImpl{
		productRepo: productRepo,
	}
}

func (s *productServiceImpl) List(ctx context.Context, activeOnly bool) ([]*model.Product, error) {
	products, err := s.productRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *productServiceImpl) Create(ctx context.Context, name string, price decimal.Decimal) (*model.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" || !price.IsPositive() {
		return nil, ErrInvalidProduct
	}

	product := &model.Product{
		Name:     name,
		Price:    price.Round(2),
		IsActive: true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *productServiceImpl) SetActive(ctx context.Context, productID uint, active bool) error {
	err := s.productRepo.SetActive(ctx, productID, active)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *productServiceImpl) Seed(ctx context.Context) error {
	if err := s.productRepo.Seed(ctx); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	return nil
}
