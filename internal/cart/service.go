package cart

import (
	"context"
	"mall-be/internal/logger"
	"mall-be/internal/product"

	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	AddToCart(ctx context.Context, userID, productID int64, quantity int) (*Line, error)
	GetCart(ctx context.Context, userID int64) (*Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveFromCart(ctx context.Context, userID, productID int64) error
}

type service struct {
	repo     Repository
	products product.Service
}

func NewService(repo Repository, products product.Service) Service {
	return &service{repo: repo, products: products}
}

// AddToCart only accepts products currently on sale.
func (s *service) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*Line, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddToCart"),
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
	)

	if userID <= 0 {
		return nil, ErrUserNotAuthenticated
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetActive(ctx, productID)
	if err != nil {
		log.Warn("product not available", zap.Error(err))
		return nil, err
	}

	line, err := s.repo.AddQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}

	line.ProductName = p.Name
	line.Price = p.Price
	line.ProductStatus = p.Status

	log.Info("added to cart", zap.Int("quantity", line.Quantity))
	return line, nil
}

func (s *service) GetCart(ctx context.Context, userID int64) (*Cart, error) {
	if userID <= 0 {
		return nil, ErrUserNotAuthenticated
	}

	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewCart(userID, lines), nil
}

// UpdateQuantity removes the line when quantity drops to zero or below.
func (s *service) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if userID <= 0 {
		return ErrUserNotAuthenticated
	}

	if quantity <= 0 {
		return s.repo.Remove(ctx, userID, productID)
	}
	return s.repo.UpdateQuantity(ctx, userID, productID, quantity)
}

func (s *service) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	if userID <= 0 {
		return ErrUserNotAuthenticated
	}
	return s.repo.Remove(ctx, userID, productID)
}
