package payment

import (
	"context"
	"database/sql"
	"errors"
	"mall-be/internal/db"
	"mall-be/internal/logger"
	"mall-be/internal/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// CreateReady inserts a ready payment, or returns the order's existing
	// ready payment. The bool reports whether a row was inserted.
	CreateReady(ctx context.Context, p *Payment) (*Payment, bool, error)
	GetByID(ctx context.Context, id int64) (*Payment, error)
	GetByUID(ctx context.Context, uid uuid.UUID) (*Payment, error)
	GetLatestByOrder(ctx context.Context, orderID int64) (*Payment, error)
	// ApplyRemote stores the remote status on the payment and moves the
	// order in the same transaction.
	ApplyRemote(ctx context.Context, paymentID int64, status Status, isPaidOK bool) (*Reconciliation, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, order_id, uid, name, desired_amount, status, is_paid_ok, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.UID,
		&p.Name,
		&p.DesiredAmount,
		&p.Status,
		&p.IsPaidOK,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) CreateReady(ctx context.Context, p *Payment) (*Payment, bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateReady"),
		zap.Int64("order_id", p.OrderID),
	)

	existing, err := r.getReadyByOrder(ctx, p.OrderID)
	if err == nil {
		log.Debug("reusing ready payment", zap.Int64("payment_id", existing.ID))
		return existing, false, nil
	}
	if !errors.Is(err, ErrPaymentNotFound) {
		log.Error("failed to look up ready payment", zap.Error(err))
		return nil, false, err
	}

	created := *p
	created.Status = StatusReady
	created.IsPaidOK = false
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO payments (order_id, uid, name, desired_amount, status, is_paid_ok)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING id, created_at, updated_at
	`, p.OrderID, p.UID, p.Name, p.DesiredAmount, StatusReady).
		Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == db.PgUniqueViolation {
		// a concurrent request created the ready payment first
		log.Info("ready payment created concurrently")
		existing, err := r.getReadyByOrder(ctx, p.OrderID)
		return existing, false, err
	}
	if err != nil {
		log.Error("failed to insert payment", zap.Error(err))
		return nil, false, err
	}

	log.Info("payment created",
		zap.Int64("payment_id", created.ID),
		zap.Int64("desired_amount", created.DesiredAmount),
	)
	return &created, true, nil
}

func (r *repository) getReadyByOrder(ctx context.Context, orderID int64) (*Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1 AND status = $2
		ORDER BY id DESC
		LIMIT 1
	`, orderID, StatusReady))
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrPaymentNotFound) {
		logger.FromCtx(ctx).Error("failed to get payment", zap.Int64("payment_id", id), zap.Error(err))
	}
	return p, err
}

func (r *repository) GetByUID(ctx context.Context, uid uuid.UUID) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE uid = $1`, uid))
	if err != nil && !errors.Is(err, ErrPaymentNotFound) {
		logger.FromCtx(ctx).Error("failed to get payment by uid", zap.String("uid", uid.String()), zap.Error(err))
	}
	return p, err
}

func (r *repository) GetLatestByOrder(ctx context.Context, orderID int64) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, orderID))
	if err != nil && !errors.Is(err, ErrPaymentNotFound) {
		logger.FromCtx(ctx).Error("failed to get latest payment", zap.Int64("order_id", orderID), zap.Error(err))
	}
	return p, err
}

// ApplyRemote locks the payment row, then the order row, so concurrent
// webhook and redirect updates of one payment serialize. Last writer wins.
func (r *repository) ApplyRemote(ctx context.Context, paymentID int64, status Status, isPaidOK bool) (*Reconciliation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ApplyRemote"),
		zap.Int64("payment_id", paymentID),
		zap.String("status", string(status)),
		zap.Bool("is_paid_ok", isPaidOK),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	p, err := scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID))
	if err != nil {
		log.Error("failed to lock payment", zap.Error(err))
		return nil, err
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE payments
		SET status = $1, is_paid_ok = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`, status, isPaidOK, paymentID).Scan(&p.UpdatedAt)
	if err != nil {
		log.Error("failed to update payment", zap.Error(err))
		return nil, err
	}
	p.Status = status
	p.IsPaidOK = isPaidOK

	o, err := order.LockForUpdate(ctx, tx, p.OrderID)
	if err != nil {
		log.Error("failed to lock order", zap.Int64("order_id", p.OrderID), zap.Error(err))
		return nil, err
	}

	rec := &Reconciliation{
		Payment:   p,
		OrderID:   o.ID,
		OrderUID:  o.UID,
		OrderFrom: o.Status,
		OrderTo:   NextOrderStatus(o.Status, p),
	}

	if rec.OrderChanged() {
		if err := order.SetStatus(ctx, tx, o.ID, rec.OrderTo); err != nil {
			log.Error("failed to update order status", zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit payment update", zap.Error(err))
		return nil, err
	}
	committed = true

	log.Info("payment updated",
		zap.Int64("order_id", rec.OrderID),
		zap.String("order_from", string(rec.OrderFrom)),
		zap.String("order_to", string(rec.OrderTo)),
	)
	return rec, nil
}
