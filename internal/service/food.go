package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/internal/repository"
)

// FoodService serves the menu.
type FoodService struct {
	repo   repository.FoodRepository
	logger *slog.Logger
}

func NewFoodService(repo repository.FoodRepository, logger *slog.Logger) *FoodService {
	return &FoodService{repo: repo, logger: logger}
}

// ListFoods returns a page of available foods and the total count.
func (s *FoodService) ListFoods(ctx context.Context, filter repository.FoodFilter) ([]domain.Food, int, error) {
	foods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list foods: %w", err)
	}
	return foods, total, nil
}

// GetFood returns a food with its extras.
func (s *FoodService) GetFood(ctx context.Context, id int64) (*domain.Food, error) {
	food, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get food: %w", err)
	}
	return food, nil
}
