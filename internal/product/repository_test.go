package product

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{
	"id", "category_id", "name", "name", "description",
	"price", "status", "created_at", "updated_at",
}

func productRow(rows *sqlmock.Rows, id int64, name string, price int64, status Status) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, 1, "과일", name, "desc", price, status, now, now)
}

func TestRepository_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(productCols)
		productRow(rows, 2, "배", 3000, StatusActive)
		productRow(rows, 1, "사과", 1000, StatusActive)

		mock.ExpectQuery("FROM products p LEFT JOIN categories c ON c.id = p.category_id WHERE p.status = \\$1 ORDER BY p.id DESC LIMIT \\$2 OFFSET \\$3").
			WithArgs(StatusActive, 4, 0).
			WillReturnRows(rows)

		res, err := repo.ListActive(ctx, "", 4, 0)
		assert.NoError(t, err)
		assert.Len(t, res, 2)
		assert.Equal(t, "배", res[0].Name)
		assert.Equal(t, "과일", res[0].CategoryName)
	})

	t.Run("WithSearch", func(t *testing.T) {
		rows := sqlmock.NewRows(productCols)
		productRow(rows, 1, "사과", 1000, StatusActive)

		mock.ExpectQuery("WHERE p.status = \\$1 AND p.name ILIKE \\$2 ORDER BY p.id DESC LIMIT \\$3 OFFSET \\$4").
			WithArgs(StatusActive, "%사과%", 4, 4).
			WillReturnRows(rows)

		res, err := repo.ListActive(ctx, "사과", 4, 4)
		assert.NoError(t, err)
		assert.Len(t, res, 1)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery("FROM products p").
			WillReturnError(errors.New("db error"))

		_, err := repo.ListActive(ctx, "", 4, 0)
		assert.Error(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CountActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products p WHERE p.status = \\$1 AND p.name ILIKE \\$2").
		WithArgs(StatusActive, "%배%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.CountActive(context.Background(), "배")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(productCols)
		productRow(rows, 5, "사과", 1000, StatusSoldOut)

		mock.ExpectQuery("WHERE p.id = \\$1").
			WithArgs(int64(5)).
			WillReturnRows(rows)

		p, err := repo.GetByID(ctx, 5)
		assert.NoError(t, err)
		assert.Equal(t, StatusSoldOut, p.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("WHERE p.id = \\$1").
			WithArgs(int64(6)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, 6)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestRepository_SetStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE products SET status = \\$1, updated_at = NOW\\(\\) WHERE id = ANY\\(\\$2\\)").
			WithArgs(StatusActive, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := repo.SetStatus(context.Background(), []int64{1, 2, 3}, StatusActive)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec("UPDATE products").
			WillReturnError(errors.New("db error"))

		_, err := repo.SetStatus(context.Background(), []int64{1}, StatusActive)
		assert.Error(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetOrCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	input := &Product{CategoryID: 1, Name: "사과", Description: "맛있는 사과", Price: 1000}

	t.Run("Created", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM products WHERE category_id = \\$1 AND name = \\$2").
			WithArgs(int64(1), "사과").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("INSERT INTO products").
			WithArgs(int64(1), "사과", "맛있는 사과", int64(1000), StatusInactive).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(10, time.Now(), time.Now()))

		p, created, err := repo.GetOrCreate(ctx, input)
		assert.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, int64(10), p.ID)
		assert.Equal(t, StatusInactive, p.Status)
	})

	t.Run("Existing", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM products WHERE category_id = \\$1 AND name = \\$2").
			WithArgs(int64(1), "사과").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
		rows := sqlmock.NewRows(productCols)
		productRow(rows, 10, "사과", 1000, StatusActive)
		mock.ExpectQuery("WHERE p.id = \\$1").
			WithArgs(int64(10)).
			WillReturnRows(rows)

		p, created, err := repo.GetOrCreate(ctx, input)
		assert.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, int64(10), p.ID)
	})

	t.Run("LookupError", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM products").
			WillReturnError(errors.New("db error"))

		_, _, err := repo.GetOrCreate(ctx, input)
		assert.Error(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
