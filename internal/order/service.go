package order

import (
	"context"
	"errors"
	"mall-be/internal/events"
	"mall-be/internal/logger"
	"mall-be/internal/metrics"
	"strings"

	"go.uber.org/zap"
)

type Service interface {
	PlaceOrder(ctx context.Context, userID int64) (*Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*Order, error)
	Get(ctx context.Context, orderID int64) (*Order, error)
	Cancel(ctx context.Context, orderID int64, reason string) error
	CancelMany(ctx context.Context, orderIDs []int64, reason string) (int, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func NewService(repo Repository, publisher events.Publisher, m *metrics.Metrics) Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &service{repo: repo, publisher: publisher, metrics: m}
}

func (s *service) PlaceOrder(ctx context.Context, userID int64) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.Int64("user_id", userID),
	)

	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	o, err := s.repo.CreateFromCart(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrEmptyCart) {
			log.Error("failed to place order", zap.Error(err))
		}
		return nil, err
	}

	s.metrics.OrderPlaced()
	s.publish(ctx, events.OrderStatusChanged{
		OrderID:  o.ID,
		OrderUID: o.UID.String(),
		To:       string(o.Status),
	})

	log.Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.Int64("total_amount", o.TotalAmount),
	)
	return o, nil
}

// GetOrder only returns orders owned by userID; others look missing.
func (s *service) GetOrder(ctx context.Context, userID, orderID int64) (*Order, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		logger.FromCtx(ctx).Warn("order requested by non-owner",
			zap.Int64("order_id", orderID),
			zap.Int64("user_id", userID),
		)
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) Get(ctx context.Context, orderID int64) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *service) Cancel(ctx context.Context, orderID int64, reason string) error {
	n, err := s.CancelMany(ctx, []int64{orderID}, reason)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CancelMany cancels orders in any status. Blank reasons fall back to
// DefaultCancelReason.
func (s *service) CancelMany(ctx context.Context, orderIDs []int64, reason string) (int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CancelMany"),
	)

	if len(orderIDs) == 0 {
		return 0, nil
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}

	changes, err := s.repo.CancelMany(ctx, orderIDs, reason)
	if err != nil {
		log.Error("failed to cancel orders", zap.Error(err))
		return 0, err
	}

	for _, c := range changes {
		if c.From == StatusShipped || c.From == StatusDelivered {
			log.Warn("cancelled an order that already left the warehouse",
				zap.Int64("order_id", c.OrderID),
				zap.String("from", string(c.From)),
			)
		}
		s.publish(ctx, events.OrderStatusChanged{
			OrderID:  c.OrderID,
			OrderUID: c.OrderUID.String(),
			From:     string(c.From),
			To:       string(StatusCanceled),
			Reason:   reason,
		})
	}

	log.Info("orders cancelled", zap.Int("count", len(changes)))
	return len(changes), nil
}

// publish never fails the caller; the order change is already committed.
func (s *service) publish(ctx context.Context, e events.OrderStatusChanged) {
	if err := s.publisher.PublishOrderStatus(ctx, e); err != nil {
		logger.FromCtx(ctx).Warn("order status event dropped",
			zap.Int64("order_id", e.OrderID),
			zap.Error(err),
		)
	}
}
