package fooddetails

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) GetFood(ctx context.Context, id int64) (*domain.Food, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Food), args.Error(1)
}

func (m *mockGateway) ListFavorites(ctx context.Context) ([]domain.Favorite, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Favorite), args.Error(1)
}

func (m *mockGateway) AddFavorite(ctx context.Context, fav domain.Favorite) error {
	return m.Called(ctx, fav).Error(0)
}

func (m *mockGateway) RemoveFavorite(ctx context.Context, foodID int64) error {
	return m.Called(ctx, foodID).Error(0)
}

func (m *mockGateway) CreateOrder(ctx context.Context, req domain.OrderRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockNavigator struct {
	mock.Mock
}

func (m *mockNavigator) GoBack(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
