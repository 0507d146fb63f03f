package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mall-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	ListActive(ctx context.Context, search string, limit, offset int) ([]*Product, error)
	CountActive(ctx context.Context, search string) (int64, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	SetStatus(ctx context.Context, ids []int64, status Status) (int64, error)
	GetOrCreate(ctx context.Context, p *Product) (*Product, bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `
	p.id, p.category_id, c.name, p.name, p.description,
	p.price, p.status, p.created_at, p.updated_at
`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	var categoryName sql.NullString
	err := row.Scan(
		&p.ID,
		&p.CategoryID,
		&categoryName,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CategoryName = categoryName.String
	return &p, nil
}

func activeWhere(search string) (string, []any) {
	where := " WHERE p.status = $1"
	args := []any{StatusActive}
	if search != "" {
		where += fmt.Sprintf(" AND p.name ILIKE $%d", len(args)+1)
		args = append(args, "%"+search+"%")
	}
	return where, args
}

func (r *repository) ListActive(ctx context.Context, search string, limit, offset int) ([]*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListActive"),
		zap.String("search", search),
		zap.Int("limit", limit),
		zap.Int("offset", offset),
	)

	where, args := activeWhere(search)
	query := "SELECT" + productColumns + `
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id` + where +
		fmt.Sprintf(" ORDER BY p.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	log.Debug("executing list active products query", zap.String("query", query))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return products, nil
}

func (r *repository) CountActive(ctx context.Context, search string) (int64, error) {
	where, args := activeWhere(search)

	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p"+where, args...).Scan(&total)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to count products", zap.Error(err))
		return 0, err
	}
	return total, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT"+productColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get product",
			zap.Int64("product_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return p, nil
}

// SetStatus moves every listed product to status and returns the affected count.
func (r *repository) SetStatus(ctx context.Context, ids []int64, status Status) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2)
	`, status, pq.Array(ids))
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update product status",
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return 0, err
	}
	return res.RowsAffected()
}

// GetOrCreate looks the product up by (category, name) and inserts it with
// the given description and price when missing.
func (r *repository) GetOrCreate(ctx context.Context, p *Product) (*Product, bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetOrCreate"),
		zap.Int64("category_id", p.CategoryID),
		zap.String("name", p.Name),
	)

	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM products
		WHERE category_id = $1 AND name = $2
		LIMIT 1
	`, p.CategoryID, p.Name).Scan(&id)

	switch {
	case err == nil:
		existing, err := r.GetByID(ctx, id)
		return existing, false, err
	case !errors.Is(err, sql.ErrNoRows):
		log.Error("failed to look up product", zap.Error(err))
		return nil, false, err
	}

	status := p.Status
	if status == "" {
		status = StatusInactive
	}

	created := *p
	created.Status = status
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO products (category_id, name, description, price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, p.CategoryID, p.Name, p.Description, p.Price, status).
		Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		log.Error("failed to insert product", zap.Error(err))
		return nil, false, err
	}

	log.Info("product created", zap.Int64("product_id", created.ID))
	return &created, true, nil
}
