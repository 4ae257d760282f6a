package service

import (
	"context"
	"errors"
	"fmt"
	"food-storefront/internal/model"
	"food-storefront/internal/repository"

	"gorm.io/gorm"
)

type CartService interface {
	Get(ctx context.Context, sessionID uint) (*model.Cart, error)
	AddItem(ctx context.Context, sessionID, productID uint, qty int32) (*model.Cart, error)
	// UpdateItem sets the quantity; zero or less removes the item.
	UpdateItem(ctx context.Context, sessionID, productID uint, qty int32) (*model.Cart, error)
	RemoveItem(ctx context.Context, sessionID, productID uint) (*model.Cart, error)
	Clear(ctx context.Context, sessionID uint) error
}

type cartServiceImpl struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartServiceImpl{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartServiceImpl) Get(ctx context.Context, sessionID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, sessionID, productID uint, qty int32) (*model.Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.AddItem(ctx, cart.ID, productID, qty); err != nil {
		return nil, fmt.Errorf("add product %d to cart: %w", productID, err)
	}

	return s.Get(ctx, sessionID)
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, sessionID, productID uint, qty int32) (*model.Cart, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, sessionID, productID)
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	err = s.cartRepo.SetQuantity(ctx, cart.ID, productID, qty)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update cart item %d: %w", productID, err)
	}

	return s.Get(ctx, sessionID)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, sessionID, productID uint) (*model.Cart, error) {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.RemoveItem(ctx, cart.ID, productID); err != nil {
		return nil, fmt.Errorf("remove cart item %d: %w", productID, err)
	}

	return s.Get(ctx, sessionID)
}

func (s *cartServiceImpl) Clear(ctx context.Context, sessionID uint) error {
	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.cartRepo.Clear(ctx, nil, cart.ID)
}
