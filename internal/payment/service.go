package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mall-be/internal/events"
	"mall-be/internal/logger"
	"mall-be/internal/metrics"
	"mall-be/internal/order"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// refreshConcurrency bounds gateway calls during bulk refresh.
const refreshConcurrency = 4

type Service interface {
	CreateByOrder(ctx context.Context, o *order.Order) (*Payment, error)
	Update(ctx context.Context, p *Payment) (*Reconciliation, error)
	Reconcile(ctx context.Context, merchantUID string) (*Reconciliation, error)
	ReconcileForOrder(ctx context.Context, userID, orderID, paymentID int64) (*Reconciliation, error)
	RefreshOrder(ctx context.Context, orderID int64) (*Reconciliation, error)
	RefreshOrders(ctx context.Context, orderIDs []int64) error
}

type service struct {
	repo      Repository
	gateway   Gateway
	orders    order.Service
	publisher events.Publisher
	metrics   *metrics.Metrics
}

func NewService(
	repo Repository,
	gateway Gateway,
	orders order.Service,
	publisher events.Publisher,
	m *metrics.Metrics,
) Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &service{
		repo:      repo,
		gateway:   gateway,
		orders:    orders,
		publisher: publisher,
		metrics:   m,
	}
}

// CreateByOrder starts a payment attempt for a payable order. An order has
// at most one ready payment; a pending one is returned instead of a new one.
func (s *service) CreateByOrder(ctx context.Context, o *order.Order) (*Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateByOrder"),
		zap.Int64("order_id", o.ID),
	)

	if !o.CanPay() {
		log.Warn("order is not payable", zap.String("status", string(o.Status)))
		return nil, ErrOrderNotPayable
	}
	if o.TotalAmount < 1 {
		return nil, ErrInvalidAmount
	}

	p, created, err := s.repo.CreateReady(ctx, &Payment{
		OrderID:       o.ID,
		UID:           uuid.New(),
		Name:          o.Name(),
		DesiredAmount: o.TotalAmount,
		Status:        StatusReady,
	})
	if err != nil {
		log.Error("failed to create payment", zap.Error(err))
		return nil, err
	}

	log.Info("payment ready",
		zap.Int64("payment_id", p.ID),
		zap.String("merchant_uid", p.MerchantUID()),
		zap.Bool("created", created),
	)
	return p, nil
}

// Update asks the gateway for the payment's current state every time and
// persists it. Gateway failures persist nothing and wrap ErrGatewayUnavailable.
func (s *service) Update(ctx context.Context, p *Payment) (*Reconciliation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Update"),
		zap.Int64("payment_id", p.ID),
		zap.String("merchant_uid", p.MerchantUID()),
	)

	remote, err := s.gateway.Find(ctx, p.MerchantUID())
	if err != nil {
		s.metrics.Reconciled(metrics.OutcomeError)
		log.Error("gateway lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	isPaidOK := remote.IsPaidOK(p.DesiredAmount)
	if remote.Status == StatusPaid && !isPaidOK {
		log.Warn("paid amount does not match",
			zap.Int64("desired_amount", p.DesiredAmount),
			zap.Int64("remote_amount", remote.Amount),
		)
	}

	rec, err := s.repo.ApplyRemote(ctx, p.ID, remote.Status, isPaidOK)
	if err != nil {
		s.metrics.Reconciled(metrics.OutcomeError)
		return nil, err
	}
	*p = *rec.Payment

	s.metrics.Reconciled(outcome(rec.Payment))
	if rec.OrderChanged() {
		s.publish(ctx, rec)
	}
	return rec, nil
}

func (s *service) Reconcile(ctx context.Context, merchantUID string) (*Reconciliation, error) {
	if merchantUID == "" {
		return nil, ErrMissingMerchantUID
	}

	uid, err := ParseMerchantUID(merchantUID)
	if err != nil {
		logger.FromCtx(ctx).Warn("malformed merchant uid", zap.String("merchant_uid", merchantUID))
		return nil, err
	}

	p, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, p)
}

// ReconcileForOrder serves the browser redirect. The payment must belong to
// the order and the order to the user; anything else is not found.
func (s *service) ReconcileForOrder(ctx context.Context, userID, orderID, paymentID int64) (*Reconciliation, error) {
	if _, err := s.orders.GetOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.OrderID != orderID {
		logger.FromCtx(ctx).Warn("payment does not belong to order",
			zap.Int64("payment_id", paymentID),
			zap.Int64("order_id", orderID),
		)
		return nil, ErrPaymentNotFound
	}
	return s.Update(ctx, p)
}

// RefreshOrder re-reads the latest payment of an order from the gateway.
func (s *service) RefreshOrder(ctx context.Context, orderID int64) (*Reconciliation, error) {
	p, err := s.repo.GetLatestByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, p)
}

// RefreshOrders refreshes every order and joins the per-order errors. One
// failure does not stop the others.
func (s *service) RefreshOrders(ctx context.Context, orderIDs []int64) error {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(refreshConcurrency)

	for _, id := range orderIDs {
		g.Go(func() error {
			if _, err := s.RefreshOrder(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("order %d: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.FromCtx(ctx).Info("orders refreshed",
		zap.Int("requested", len(orderIDs)),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}

func (s *service) publish(ctx context.Context, rec *Reconciliation) {
	err := s.publisher.PublishOrderStatus(ctx, events.OrderStatusChanged{
		OrderID:  rec.OrderID,
		OrderUID: rec.OrderUID.String(),
		From:     string(rec.OrderFrom),
		To:       string(rec.OrderTo),
	})
	if err != nil {
		logger.FromCtx(ctx).Warn("order status event dropped",
			zap.Int64("order_id", rec.OrderID),
			zap.Error(err),
		)
	}
}

func outcome(p *Payment) string {
	switch {
	case p.IsPaidOK:
		return metrics.OutcomePaid
	case p.Status == StatusPaid:
		return metrics.OutcomeMismatch
	case p.Status == StatusFailed, p.Status == StatusCancelled:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomePending
	}
}
