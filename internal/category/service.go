package category

import (
	"context"
	"mall-be/internal/logger"
	"strings"

	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context) ([]*Category, error)
	GetOrCreate(ctx context.Context, name string) (*Category, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.List(ctx)
}

// GetOrCreate files blank names under Uncategorized.
func (s *service) GetOrCreate(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = Uncategorized
	}

	c, created, err := s.repo.GetOrCreate(ctx, name)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get or create category",
			zap.String("name", name),
			zap.Error(err),
		)
		return nil, err
	}

	if created {
		logger.FromCtx(ctx).Debug("new category", zap.Int64("category_id", c.ID))
	}
	return c, nil
}
