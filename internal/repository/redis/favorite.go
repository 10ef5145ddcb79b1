package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/pkg/database"
	apperrors "github.com/lucasncamargo/gorestaurant/pkg/errors"
)

const keyPrefix = "favorites:"

// FavoriteRepository implements repository.FavoriteRepository with one Redis
// hash per user, keyed by food id.
type FavoriteRepository struct {
	client redis.UniversalClient
}

// NewFavoriteRepository creates a new Redis-backed favorite repository.
func NewFavoriteRepository(client redis.UniversalClient) *FavoriteRepository {
	return &FavoriteRepository{client: client}
}

// List returns the user's favorites ordered by food id.
func (r *FavoriteRepository) List(ctx context.Context, userID string) (favs []domain.Favorite, err error) {
	ctx, done := database.TraceCommand(ctx, "favorites.list", "HGETALL")
	defer func() { done(err) }()

	entries, err := r.client.HGetAll(ctx, keyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall favorites: %w", err)
	}

	favs = make([]domain.Favorite, 0, len(entries))
	for field, raw := range entries {
		var fav domain.Favorite
		if err := json.Unmarshal([]byte(raw), &fav); err != nil {
			return nil, fmt.Errorf("unmarshal favorite %s: %w", field, err)
		}
		favs = append(favs, fav)
	}

	slices.SortFunc(favs, func(a, b domain.Favorite) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	return favs, nil
}

// Add stores fav. Adding the same food twice overwrites the record.
func (r *FavoriteRepository) Add(ctx context.Context, userID string, fav domain.Favorite) (err error) {
	ctx, done := database.TraceCommand(ctx, "favorites.add", "HSET")
	defer func() { done(err) }()

	data, err := json.Marshal(fav)
	if err != nil {
		return fmt.Errorf("marshal favorite: %w", err)
	}

	if err := r.client.HSet(ctx, keyPrefix+userID, field(fav.ID), data).Err(); err != nil {
		return fmt.Errorf("redis hset favorite: %w", err)
	}
	return nil
}

// Remove deletes the favorite for foodID.
func (r *FavoriteRepository) Remove(ctx context.Context, userID string, foodID int64) (err error) {
	ctx, done := database.TraceCommand(ctx, "favorites.remove", "HDEL")
	defer func() { done(err) }()

	removed, err := r.client.HDel(ctx, keyPrefix+userID, field(foodID)).Result()
	if err != nil {
		return fmt.Errorf("redis hdel favorite: %w", err)
	}
	if removed == 0 {
		return apperrors.NotFound("favorite", field(foodID))
	}
	return nil
}

func field(foodID int64) string {
	return strconv.FormatInt(foodID, 10)
}
