package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mall-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	GetOrCreate(ctx context.Context, name string) (*Category, bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM categories
		ORDER BY name ASC
	`)
	if err != nil {
		log.Error("DB query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	categories := []*Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			log.Error("Row scan failed", zap.Error(err))
			return nil, err
		}
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		log.Error("Rows iteration failed", zap.Error(err))
		return nil, err
	}

	return categories, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM categories
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// GetOrCreate returns the category with the given name, inserting it when absent.
// The boolean reports whether a row was created.
func (r *repository) GetOrCreate(ctx context.Context, name string) (*Category, bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetOrCreate"),
		zap.String("category_name", name),
	)

	if name == "" {
		return nil, false, ErrEmptyCategoryName
	}

	var c Category
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, created_at
	`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)

	switch {
	case err == nil:
		log.Info("category created", zap.Int64("category_id", c.ID))
		return &c, true, nil
	case !errors.Is(err, sql.ErrNoRows):
		log.Error("insert category failed", zap.Error(err))
		return nil, false, fmt.Errorf("add category failed: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM categories
		WHERE name = $1
	`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		log.Error("select existing category failed", zap.Error(err))
		return nil, false, err
	}

	return &c, false, nil
}
