package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/internal/repository"
	"github.com/lucasncamargo/gorestaurant/pkg/database"
	apperrors "github.com/lucasncamargo/gorestaurant/pkg/errors"
	"github.com/lucasncamargo/gorestaurant/pkg/pagination"
)

// FoodRepository implements repository.FoodRepository using PostgreSQL.
type FoodRepository struct {
	pool database.DBTX
}

// NewFoodRepository creates a new PostgreSQL-backed food repository.
func NewFoodRepository(pool database.DBTX) *FoodRepository {
	return &FoodRepository{pool: pool}
}

// List returns available foods without their extras.
func (r *FoodRepository) List(ctx context.Context, filter repository.FoodFilter) (foods []domain.Food, total int, err error) {
	conditions := []string{"available = true"}
	var args []any
	argIndex := 1

	if filter.NameLike != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+escapeLike(filter.NameLike)+"%")
		argIndex++
	}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT id, name, description, price, COALESCE(category_id, 0), image_url, thumbnail_url, available,
			   count(*) OVER() AS total_count
		FROM foods
		WHERE %s
		ORDER BY id
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = pagination.DefaultPerPage
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	ctx, done := database.TraceQuery(ctx, "foods.list", query)
	defer func() { done(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list foods: %w", err)
	}
	defer rows.Close()

	foods = make([]domain.Food, 0)
	for rows.Next() {
		var f domain.Food
		if err := rows.Scan(
			&f.ID,
			&f.Name,
			&f.Description,
			&f.Price,
			&f.Category,
			&f.ImageURL,
			&f.ThumbnailURL,
			&f.Available,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan food row: %w", err)
		}
		f.Extras = []domain.Extra{}
		foods = append(foods, f)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate food rows: %w", err)
	}

	return foods, total, nil
}

// GetByID returns a food and its extras in one query.
func (r *FoodRepository) GetByID(ctx context.Context, id int64) (food *domain.Food, err error) {
	query := `
		SELECT
			f.id, f.name, f.description, f.price, COALESCE(f.category_id, 0), f.image_url, f.thumbnail_url, f.available,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT('id', e.id, 'name', e.name, 'value', e.value)
					ORDER BY e.id
				) FILTER (WHERE e.id IS NOT NULL),
				'[]'::jsonb
			) AS extras
		FROM foods f
		LEFT JOIN extras e ON e.food_id = f.id
		WHERE f.id = $1
		GROUP BY f.id`

	ctx, done := database.TraceQuery(ctx, "foods.get", query)
	defer func() { done(err) }()

	var (
		f          domain.Food
		extrasJSON []byte
	)

	err = r.pool.QueryRow(ctx, query, id).Scan(
		&f.ID,
		&f.Name,
		&f.Description,
		&f.Price,
		&f.Category,
		&f.ImageURL,
		&f.ThumbnailURL,
		&f.Available,
		&extrasJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("food", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("scan food: %w", err)
	}

	f.Extras, err = decodeExtras(extrasJSON)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

func decodeExtras(raw []byte) ([]domain.Extra, error) {
	extras := []domain.Extra{}
	if len(raw) == 0 || string(raw) == "null" {
		return extras, nil
	}
	if err := json.Unmarshal(raw, &extras); err != nil {
		return nil, fmt.Errorf("unmarshal extras: %w", err)
	}
	return extras, nil
}

// escapeLike escapes ILIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
