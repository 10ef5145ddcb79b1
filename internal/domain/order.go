package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderStatusPending = "pending"
)

// OrderRequest is the payload a client submits to place an order.
type OrderRequest struct {
	ProductID    int64           `json:"product_id" validate:"required,gt=0"`
	Name         string          `json:"name" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=2000"`
	Price        decimal.Decimal `json:"price" validate:"money"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Quantity     int             `json:"quantity" validate:"required,min=1"`
	Extras       []Extra         `json:"extras" validate:"dive"`
}

// Order is an accepted OrderRequest.
type Order struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Quantity     int             `json:"quantity"`
	Extras       []Extra         `json:"extras"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CartTotal is price × quantity plus the sum of extra line totals, also
// multiplied by quantity.
func CartTotal(price decimal.Decimal, quantity int, extras []Extra) decimal.Decimal {
	q := decimal.NewFromInt(int64(quantity))

	extrasTotal := decimal.Zero
	for _, e := range extras {
		extrasTotal = extrasTotal.Add(e.LineTotal())
	}

	return price.Mul(q).Add(extrasTotal.Mul(q))
}


// orderExtra is an Extra as it appears in orders: quantity is always
// written, zero included.
type orderExtra struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Value    decimal.Decimal `json:"value"`
	Quantity int             `json:"quantity"`
}

func toOrderExtras(extras []Extra) []orderExtra {
	out := make([]orderExtra, len(extras))
	for i, e := range extras {
		out[i] = orderExtra(e)
	}
	return out
}

// MarshalJSON writes every extra with its quantity.
func (r OrderRequest) MarshalJSON() ([]byte, error) {
	type wire OrderRequest
	return json.Marshal(struct {
		wire
		Extras []orderExtra `json:"extras"`
	}{wire(r), toOrderExtras(r.Extras)})
}

// MarshalJSON writes every extra with its quantity.
func (o Order) MarshalJSON() ([]byte, error) {
	type wire Order
	return json.Marshal(struct {
		wire
		Extras []orderExtra `json:"extras"`
	}{wire(o), toOrderExtras(o.Extras)})
}
