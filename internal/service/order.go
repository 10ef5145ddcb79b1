package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/internal/repository"
	apperrors "github.com/lucasncamargo/gorestaurant/pkg/errors"
)

// OrderEventPublisher publishes order lifecycle events.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
}

// OrderService implements the business logic for order operations.
type OrderService struct {
	repo     repository.OrderRepository
	foods    repository.FoodRepository
	producer OrderEventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

func NewOrderService(repo repository.OrderRepository, foods repository.FoodRepository, producer OrderEventPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		foods:    foods,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateOrder places an order for userID. Product fields and extra values
// come from the menu, not the request; the request only chooses the product,
// the quantities and the thumbnail.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req domain.OrderRequest) (*domain.Order, error) {
	food, err := s.foods.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unprocessable(fmt.Sprintf("food %d does not exist", req.ProductID))
		}
		return nil, fmt.Errorf("get ordered food: %w", err)
	}
	if !food.Available {
		return nil, apperrors.Unprocessable(fmt.Sprintf("food %d is not available", food.ID))
	}

	extras, err := resolveExtras(food, req.Extras)
	if err != nil {
		return nil, err
	}

	thumbnail := req.ThumbnailURL
	if thumbnail == "" {
		thumbnail = food.ImageURL
	}

	order := &domain.Order{
		ID:           uuid.NewString(),
		UserID:       userID,
		ProductID:    food.ID,
		Name:         food.Name,
		Description:  food.Description,
		Price:        food.Price,
		ThumbnailURL: thumbnail,
		Quantity:     req.Quantity,
		Extras:       extras,
		Status:       domain.OrderStatusPending,
		Total:        domain.CartTotal(food.Price, req.Quantity, extras),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.Int64("product_id", order.ProductID),
		slog.String("total", order.Total.StringFixed(2)),
	)

	return order, nil
}

// resolveExtras maps requested extras onto the food's own extras, keeping
// the request order and quantities.
func resolveExtras(food *domain.Food, requested []domain.Extra) ([]domain.Extra, error) {
	extras := make([]domain.Extra, 0, len(requested))
	seen := make(map[int64]struct{}, len(requested))

	for _, r := range requested {
		if _, dup := seen[r.ID]; dup {
			return nil, apperrors.InvalidInput(fmt.Sprintf("extra %d listed more than once", r.ID))
		}
		seen[r.ID] = struct{}{}

		i := domain.FindExtra(food.Extras, r.ID)
		if i < 0 {
			return nil, apperrors.Unprocessable(fmt.Sprintf("extra %d does not belong to food %d", r.ID, food.ID))
		}
		e := food.Extras[i]
		e.Quantity = r.Quantity
		extras = append(extras, e)
	}
	return extras, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("order", id)
	}
	order, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// ListOrders returns a page of the user's orders and the total count.
func (s *OrderService) ListOrders(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	orders, total, err := s.repo.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}
