package order

import (
	"context"
	"database/sql"
	"errors"
	"mall-be/internal/cart"
	"mall-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	CreateFromCart(ctx context.Context, userID int64) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	CancelMany(ctx context.Context, ids []int64, reason string) ([]StatusChange, error)
}

// StatusChange records the status an order had before an update.
type StatusChange struct {
	OrderID  int64
	OrderUID uuid.UUID
	From     Status
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, uid, user_id, total_amount, status, cancel_reason, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var reason sql.NullString
	err := row.Scan(
		&o.ID,
		&o.UID,
		&o.UserID,
		&o.TotalAmount,
		&o.Status,
		&reason,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		o.CancelReason = &reason.String
	}
	return &o, nil
}

// CreateFromCart snapshots the user's cart into an order and empties the
// consumed cart lines in one transaction. The cart rows stay locked until
// commit, so a concurrent checkout of the same cart finds it empty.
func (r *repository) CreateFromCart(ctx context.Context, userID int64) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateFromCart"),
		zap.Int64("user_id", userID),
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
			} else {
				log.Debug("transaction rolled back")
			}
		}
	}()

	lines, err := lockCartLines(ctx, tx, userID)
	if err != nil {
		log.Error("failed to lock cart lines", zap.Error(err))
		return nil, err
	}

	o, err := BuildFromCart(userID, lines)
	if err != nil {
		log.Warn("cannot build order from cart", zap.Error(err))
		return nil, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (uid, user_id, total_amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, o.UID, o.UserID, o.TotalAmount, o.Status).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return nil, err
	}

	for i, line := range o.Lines {
		line.OrderID = o.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_lines (order_id, product_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, o.ID, line.ProductID, line.Name, line.Price, line.Quantity).Scan(&line.ID, &line.CreatedAt)
		if err != nil {
			log.Error("failed to insert order line",
				zap.Int("line_index", i),
				zap.Int64("product_id", line.ProductID),
				zap.Error(err),
			)
			return nil, err
		}
	}

	cartIDs := make([]int64, 0, len(lines))
	for _, l := range lines {
		cartIDs = append(cartIDs, l.ID)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM carts WHERE id = ANY($1)`, pq.Array(cartIDs)); err != nil {
		log.Error("failed to delete consumed cart lines", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return nil, err
	}

	committed = true
	log.Info("order created from cart",
		zap.Int64("order_id", o.ID),
		zap.Int64("total_amount", o.TotalAmount),
		zap.Int("line_count", len(o.Lines)),
	)
	return o, nil
}

func lockCartLines(ctx context.Context, tx *sql.Tx, userID int64) ([]*cart.Line, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.id, c.product_id, p.name, p.price, c.quantity
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY p.name ASC
		FOR UPDATE OF c
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*cart.Line
	for rows.Next() {
		l := &cart.Line{UserID: userID}
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ProductName, &l.Price, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetByID"),
		zap.Int64("order_id", id),
	)

	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to get order", zap.Error(err))
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, price, quantity, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id ASC
	`, id)
	if err != nil {
		log.Error("failed to query order lines", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Name, &l.Price, &l.Quantity, &l.CreatedAt); err != nil {
			log.Error("failed to scan order line", zap.Error(err))
			return nil, err
		}
		o.Lines = append(o.Lines, &l)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return o, nil
}

// CancelMany cancels every listed order regardless of its current status
// and reports the status each one had before.
func (r *repository) CancelMany(ctx context.Context, ids []int64, reason string) ([]StatusChange, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CancelMany"),
		zap.Int64s("order_ids", ids),
	)

	rows, err := r.db.QueryContext(ctx, `
		UPDATE orders o
		SET status = $1, cancel_reason = $2, updated_at = NOW()
		FROM (
			SELECT id, status FROM orders WHERE id = ANY($3) FOR UPDATE
		) prev
		WHERE o.id = prev.id
		RETURNING o.id, o.uid, prev.status
	`, StatusCanceled, reason, pq.Array(ids))
	if err != nil {
		log.Error("failed to cancel orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	changes := []StatusChange{}
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.OrderID, &c.OrderUID, &c.From); err != nil {
			log.Error("failed to scan cancelled order", zap.Error(err))
			return nil, err
		}
		changes = append(changes, c)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return changes, nil
}

// LockForUpdate reads the order row inside tx and holds its lock until the
// transaction ends. Lines are not loaded.
func LockForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*Order, error) {
	o, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// SetStatus writes a new status for the order inside tx.
func SetStatus(ctx context.Context, tx *sql.Tx, id int64, status Status) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
