package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	apperrors "github.com/lucasncamargo/gorestaurant/pkg/errors"
)

func menuFood() *domain.Food {
	return &domain.Food{
		ID:          1,
		Name:        "Ao molho",
		Description: "Macarrão ao molho branco",
		Price:       decimal.RequireFromString("10.00"),
		ImageURL:    "https://img.example.com/1.png",
		Available:   true,
		Extras: []domain.Extra{
			{ID: 1, Name: "Bacon", Value: decimal.RequireFromString("1.50")},
			{ID: 2, Name: "Frango", Value: decimal.RequireFromString("2.00")},
		},
	}
}

type orderFixture struct {
	svc   *OrderService
	repo  *mockOrderRepository
	foods *mockFoodRepository
	pub   *mockPublisher
}

func newOrderFixture() orderFixture {
	f := orderFixture{
		repo:  new(mockOrderRepository),
		foods: new(mockFoodRepository),
		pub:   new(mockPublisher),
	}
	f.svc = NewOrderService(f.repo, f.foods, f.pub, newTestLogger())
	f.svc.now = func() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestCreateOrder_RecomputesTotalFromMenu(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.foods.On("GetByID", ctx, int64(1)).Return(menuFood(), nil)
	f.repo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	f.pub.On("PublishOrderCreated", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

	req := domain.OrderRequest{
		ProductID: 1,
		Name:      "Ao molho",
		Price:     decimal.RequireFromString("0.01"), // tampered client price is ignored
		Quantity:  2,
		Extras: []domain.Extra{
			{ID: 1, Name: "Bacon", Value: decimal.Zero, Quantity: 3},
			{ID: 2, Name: "Frango", Value: decimal.Zero, Quantity: 0},
		},
	}

	order, err := f.svc.CreateOrder(ctx, "user-1", req)
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, decimal.RequireFromString("29.00").Equal(order.Total), "total %s", order.Total)
	assert.Equal(t, "https://img.example.com/1.png", order.ThumbnailURL)
	require.Len(t, order.Extras, 2)
	assert.True(t, decimal.RequireFromString("1.50").Equal(order.Extras[0].Value))
	assert.Equal(t, 3, order.Extras[0].Quantity)
	assert.Equal(t, 0, order.Extras[1].Quantity)
	assert.Equal(t, time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC), order.CreatedAt)

	f.repo.AssertExpectations(t)
	f.pub.AssertExpectations(t)
}

func TestCreateOrder_PublishFailureIsNotFatal(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.foods.On("GetByID", ctx, int64(1)).Return(menuFood(), nil)
	f.repo.On("Create", ctx, mock.Anything).Return(nil)
	f.pub.On("PublishOrderCreated", ctx, mock.Anything).Return(errors.New("broker down"))

	order, err := f.svc.CreateOrder(ctx, "user-1", domain.OrderRequest{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(order.Total))
}

func TestCreateOrder_UnknownFood(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.foods.On("GetByID", ctx, int64(99)).Return(nil, apperrors.NotFound("food", "99"))

	_, err := f.svc.CreateOrder(ctx, "user-1", domain.OrderRequest{ProductID: 99, Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrUnprocessable)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_UnavailableFood(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	food := menuFood()
	food.Available = false
	f.foods.On("GetByID", ctx, int64(1)).Return(food, nil)

	_, err := f.svc.CreateOrder(ctx, "user-1", domain.OrderRequest{ProductID: 1, Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrUnprocessable)
}

func TestCreateOrder_ForeignExtra(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.foods.On("GetByID", ctx, int64(1)).Return(menuFood(), nil)

	_, err := f.svc.CreateOrder(ctx, "user-1", domain.OrderRequest{
		ProductID: 1, Quantity: 1,
		Extras: []domain.Extra{{ID: 77, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperrors.ErrUnprocessable)
}

func TestCreateOrder_DuplicateExtra(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.foods.On("GetByID", ctx, int64(1)).Return(menuFood(), nil)

	_, err := f.svc.CreateOrder(ctx, "user-1", domain.OrderRequest{
		ProductID: 1, Quantity: 1,
		Extras: []domain.Extra{{ID: 1, Quantity: 1}, {ID: 1, Quantity: 2}},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateOrder_RepositoryError(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.foods.On("GetByID", ctx, int64(1)).Return(menuFood(), nil)
	f.repo.On("Create", ctx, mock.Anything).Return(errors.New("insert failed"))

	_, err := f.svc.CreateOrder(ctx, "user-1", domain.OrderRequest{ProductID: 1, Quantity: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	f.pub.AssertNotCalled(t, "PublishOrderCreated", mock.Anything, mock.Anything)
}

func TestGetOrder_InvalidIDIsNotFound(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.GetOrder(context.Background(), "user-1", "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrder(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	id := "5b1f0c2e-4a7d-4d0e-9c55-1b6f3c2d9a10"

	f.repo.On("GetByID", ctx, "user-1", id).Return(&domain.Order{ID: id}, nil)

	order, err := f.svc.GetOrder(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, id, order.ID)
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.repo.On("ListByUser", ctx, "user-1", 2, 10).Return([]domain.Order{{ID: "a"}}, 11, nil)

	orders, total, err := f.svc.ListOrders(ctx, "user-1", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.Len(t, orders, 1)
}
