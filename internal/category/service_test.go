package category

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) ([]*Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Category), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Category), args.Error(1)
}

func (m *MockRepository) GetOrCreate(ctx context.Context, name string) (*Category, bool, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*Category), args.Bool(1), args.Error(2)
}

func TestService_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("BlankNameFallsBackToUncategorized", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetOrCreate", ctx, Uncategorized).Return(&Category{ID: 9, Name: Uncategorized}, true, nil)

		c, err := NewService(repo).GetOrCreate(ctx, "   ")
		assert.NoError(t, err)
		assert.Equal(t, Uncategorized, c.Name)
		repo.AssertExpectations(t)
	})

	t.Run("TrimsName", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetOrCreate", ctx, "과일").Return(&Category{ID: 1, Name: "과일"}, false, nil)

		c, err := NewService(repo).GetOrCreate(ctx, " 과일 ")
		assert.NoError(t, err)
		assert.Equal(t, int64(1), c.ID)
	})

	t.Run("RepoError", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetOrCreate", ctx, "과일").Return(nil, false, errors.New("db error"))

		_, err := NewService(repo).GetOrCreate(ctx, "과일")
		assert.Error(t, err)
	})
}

func TestService_List(t *testing.T) {
	repo := new(MockRepository)
	repo.On("List", mock.Anything).Return([]*Category{{ID: 1, Name: "과일"}}, nil)

	res, err := NewService(repo).List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, res, 1)
}
