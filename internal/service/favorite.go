package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/internal/repository"
)

// FavoriteService manages per-user favorites.
type FavoriteService struct {
	repo   repository.FavoriteRepository
	foods  repository.FoodRepository
	logger *slog.Logger
}

func NewFavoriteService(repo repository.FavoriteRepository, foods repository.FoodRepository, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{repo: repo, foods: foods, logger: logger}
}

func (s *FavoriteService) ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	favs, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favs, nil
}

// AddFavorite stores the favorite for an existing food. Adding a food that
// is already a favorite succeeds and refreshes the stored record.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID string, fav domain.Favorite) (*domain.Favorite, error) {
	food, err := s.foods.GetByID(ctx, fav.ID)
	if err != nil {
		return nil, fmt.Errorf("get favorite food: %w", err)
	}

	stored := domain.NewFavorite(*food)
	if err := s.repo.Add(ctx, userID, stored); err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}

	s.logger.InfoContext(ctx, "favorite added",
		slog.String("user_id", userID),
		slog.Int64("food_id", fav.ID),
	)
	return &stored, nil
}

// RemoveFavorite returns ErrNotFound when foodID is not a favorite.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID string, foodID int64) error {
	if err := s.repo.Remove(ctx, userID, foodID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	s.logger.InfoContext(ctx, "favorite removed",
		slog.String("user_id", userID),
		slog.Int64("food_id", foodID),
	)
	return nil
}
