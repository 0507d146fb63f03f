package product

import (
	"context"
	"mall-be/internal/logger"
	"strings"

	"go.uber.org/zap"
)

type Service interface {
	ListActive(ctx context.Context, q ListQuery) (*ListResult, error)
	GetActive(ctx context.Context, id int64) (*Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Activate(ctx context.Context, ids []int64) (int64, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListActive(ctx context.Context, q ListQuery) (*ListResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListActive"),
	)

	search := strings.TrimSpace(q.Search)
	page := q.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * PageSize

	total, err := s.repo.CountActive(ctx, search)
	if err != nil {
		log.Error("failed to count active products", zap.Error(err))
		return nil, err
	}

	items, err := s.repo.ListActive(ctx, search, PageSize, offset)
	if err != nil {
		log.Error("failed to list active products", zap.Error(err))
		return nil, err
	}

	return &ListResult{
		Items:      items,
		Page:       page,
		TotalCount: total,
		HasNext:    int64(offset+len(items)) < total,
	}, nil
}

// GetActive hides products that are not on sale.
func (s *service) GetActive(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Activate(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	count, err := s.repo.SetStatus(ctx, ids, StatusActive)
	if err != nil {
		return 0, err
	}

	logger.FromCtx(ctx).Info("products activated",
		zap.Int64("count", count),
		zap.String("label", StatusActive.Label()),
	)
	return count, nil
}
