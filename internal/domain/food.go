package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Food is a menu item with its optional extras.
type Food struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Category     int64           `json:"category,omitempty"`
	ImageURL     string          `json:"image_url"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	Available    bool            `json:"available"`
	Extras       []Extra         `json:"extras"`
}

// Extra is an add-on ingredient. Quantity is only meaningful inside an
// order or a screen visit; food records leave it at zero.
type Extra struct {
	ID       int64           `json:"id" validate:"required,gt=0"`
	Name     string          `json:"name" validate:"required,max=120"`
	Value    decimal.Decimal `json:"value" validate:"money"`
	Quantity int             `json:"quantity,omitempty" validate:"min=0"`
}

// LineTotal returns Value × Quantity.
func (e Extra) LineTotal() decimal.Decimal {
	return e.Value.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// FindExtra returns the index of the extra with id, or -1.
func FindExtra(extras []Extra, id int64) int {
	for i := range extras {
		if extras[i].ID == id {
			return i
		}
	}
	return -1
}

// Favorite is the food record as stored in a user's favorites, without
// extras or availability.
type Favorite struct {
	ID           int64           `json:"id" validate:"required,gt=0"`
	Name         string          `json:"name" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=2000"`
	Price        decimal.Decimal `json:"price" validate:"money"`
	Category     int64           `json:"category,omitempty"`
	ImageURL     string          `json:"image_url" validate:"max=2048"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty" validate:"max=2048"`
}

// NewFavorite copies the favoritable fields of f. f is not modified.
func NewFavorite(f Food) Favorite {
	return Favorite{
		ID:           f.ID,
		Name:         f.Name,
		Description:  f.Description,
		Price:        f.Price,
		Category:     f.Category,
		ImageURL:     f.ImageURL,
		ThumbnailURL: f.ThumbnailURL,
	}
}

// ContainsFavorite reports whether favorites holds a record for foodID.
func ContainsFavorite(favorites []Favorite, foodID int64) bool {
	for _, f := range favorites {
		if f.ID == foodID {
			return true
		}
	}
	return false
}
