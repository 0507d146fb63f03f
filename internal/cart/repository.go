package cart

import (
	"context"
	"database/sql"
	"mall-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	AddQuantity(ctx context.Context, userID, productID int64, quantity int) (*Line, error)
	ListByUser(ctx context.Context, userID int64) ([]*Line, error)
	UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error
	Remove(ctx context.Context, userID, productID int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// AddQuantity creates the line or increments it in one statement, so two
// concurrent adds of the same product both count.
func (r *repository) AddQuantity(ctx context.Context, userID, productID int64, quantity int) (*Line, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "AddQuantity"),
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
	)

	line := &Line{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = carts.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`, userID, productID, quantity).Scan(
		&line.ID,
		&line.UserID,
		&line.ProductID,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert cart line", zap.Error(err))
		return nil, err
	}

	log.Debug("cart line upserted", zap.Int("quantity", line.Quantity))
	return line, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]*Line, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByUser"),
		zap.Int64("user_id", userID),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			c.id, c.user_id, c.product_id, p.name, p.price, p.status,
			c.quantity, c.created_at, c.updated_at
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY p.name ASC
	`, userID)
	if err != nil {
		log.Error("failed to query cart lines", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	lines := []*Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.ProductID,
			&l.ProductName,
			&l.Price,
			&l.ProductStatus,
			&l.Quantity,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			log.Error("failed to scan cart line", zap.Error(err))
			return nil, err
		}
		lines = append(lines, &l)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return lines, nil
}

func (r *repository) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET quantity = $1, updated_at = NOW()
		WHERE user_id = $2 AND product_id = $3
	`, quantity, userID, productID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update cart quantity", zap.Error(err))
		return err
	}

	return expectAffected(res)
}

func (r *repository) Remove(ctx context.Context, userID, productID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM carts
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to remove cart line", zap.Error(err))
		return err
	}

	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}
