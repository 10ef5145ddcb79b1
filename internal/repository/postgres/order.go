package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/pkg/database"
	apperrors "github.com/lucasncamargo/gorestaurant/pkg/errors"
	"github.com/lucasncamargo/gorestaurant/pkg/pagination"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const (
	insertOrderQuery = `
		INSERT INTO orders (id, user_id, product_id, name, description, price, thumbnail_url, quantity, status, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	insertOrderExtraQuery = `
		INSERT INTO order_extras (order_id, extra_id, name, value, quantity)
		VALUES ($1, $2, $3, $4, $5)`

	// selectOrders aggregates extras per order; callers append WHERE,
	// GROUP BY and ordering.
	selectOrders = `
		SELECT
			o.id, o.user_id, o.product_id, o.name, o.description, o.price, o.thumbnail_url,
			o.quantity, o.status, o.total, o.created_at,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT('id', oe.extra_id, 'name', oe.name, 'value', oe.value, 'quantity', oe.quantity)
					ORDER BY oe.extra_id
				) FILTER (WHERE oe.order_id IS NOT NULL),
				'[]'::jsonb
			) AS extras`
)

// Create inserts the order and its extras within one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, done := database.TraceQuery(ctx, "orders.create", insertOrderQuery)
	defer func() { done(err) }()

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertOrderQuery,
			o.ID,
			o.UserID,
			o.ProductID,
			o.Name,
			o.Description,
			o.Price,
			o.ThumbnailURL,
			o.Quantity,
			o.Status,
			o.Total,
			o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, e := range o.Extras {
			if _, err := tx.Exec(ctx, insertOrderExtraQuery, o.ID, e.ID, e.Name, e.Value, e.Quantity); err != nil {
				return fmt.Errorf("insert order extra: %w", err)
			}
		}
		return nil
	})
}

// GetByID returns the order only when it belongs to userID.
func (r *OrderRepository) GetByID(ctx context.Context, userID, id string) (order *domain.Order, err error) {
	query := selectOrders + `
		FROM orders o
		LEFT JOIN order_extras oe ON oe.order_id = o.id
		WHERE o.id = $1 AND o.user_id = $2
		GROUP BY o.id`

	ctx, done := database.TraceQuery(ctx, "orders.get", query)
	defer func() { done(err) }()

	var (
		o          domain.Order
		extrasJSON []byte
	)

	err = r.pool.QueryRow(ctx, query, id, userID).Scan(
		&o.ID,
		&o.UserID,
		&o.ProductID,
		&o.Name,
		&o.Description,
		&o.Price,
		&o.ThumbnailURL,
		&o.Quantity,
		&o.Status,
		&o.Total,
		&o.CreatedAt,
		&extrasJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if o.Extras, err = decodeExtras(extrasJSON); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns a page of the user's orders.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page, perPage int) (orders []domain.Order, total int, err error) {
	query := selectOrders + `,
			count(*) OVER() AS total_count
		FROM orders o
		LEFT JOIN order_extras oe ON oe.order_id = o.id
		WHERE o.user_id = $1
		GROUP BY o.id
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`

	if perPage <= 0 {
		perPage = pagination.DefaultPerPage
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * perPage
	}

	ctx, done := database.TraceQuery(ctx, "orders.list", query)
	defer func() { done(err) }()

	rows, err := r.pool.Query(ctx, query, userID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders = make([]domain.Order, 0)
	for rows.Next() {
		var (
			o          domain.Order
			extrasJSON []byte
		)
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.ProductID,
			&o.Name,
			&o.Description,
			&o.Price,
			&o.ThumbnailURL,
			&o.Quantity,
			&o.Status,
			&o.Total,
			&o.CreatedAt,
			&extrasJSON,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		if o.Extras, err = decodeExtras(extrasJSON); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, total, nil
}
