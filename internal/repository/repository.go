package repository

import (
	"context"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
)

// FoodFilter defines filter criteria for listing foods.
type FoodFilter struct {
	NameLike string
	Category *int64
	Page     int
	PerPage  int
}

// FoodRepository reads the menu.
type FoodRepository interface {
	// List returns available foods matching filter along with the total count.
	List(ctx context.Context, filter FoodFilter) ([]domain.Food, int, error)

	// GetByID returns a food with its extras.
	GetByID(ctx context.Context, id int64) (*domain.Food, error)
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create inserts an order and its extras atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID returns the order with id placed by userID.
	GetByID(ctx context.Context, userID, id string) (*domain.Order, error)

	// ListByUser returns the user's orders, newest first, with the total count.
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error)
}

// FavoriteRepository stores each user's favorite foods.
type FavoriteRepository interface {
	List(ctx context.Context, userID string) ([]domain.Favorite, error)

	// Add stores fav, replacing any previous record for the same food.
	Add(ctx context.Context, userID string, fav domain.Favorite) error

	// Remove deletes the favorite for foodID. Returns ErrNotFound when absent.
	Remove(ctx context.Context, userID string, foodID int64) error
}
