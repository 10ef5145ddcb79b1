package fooddetails

import "github.com/lucasncamargo/gorestaurant/internal/domain"

// View is a snapshot of the screen for rendering. It shares no memory with
// the Screen.
type View struct {
	Loaded         bool
	FoodID         int64
	Name           string
	Description    string
	ImageURL       string
	FormattedPrice string
	Extras         []domain.Extra
	Quantity       int
	Favorite       bool
	FavoriteIcon   string
	FormattedTotal string
}

func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Loaded:         s.food != nil,
		FoodID:         s.foodID,
		Extras:         append([]domain.Extra(nil), s.extras...),
		Quantity:       s.quantity,
		Favorite:       s.favorite,
		FavoriteIcon:   IconFavoriteBorder,
		FormattedTotal: s.format.Format(s.totalLocked()),
	}
	if s.favorite {
		v.FavoriteIcon = IconFavorite
	}
	if s.food != nil {
		v.Name = s.food.Name
		v.Description = s.food.Description
		v.ImageURL = s.food.ImageURL
		v.FormattedPrice = s.formattedPrice
	}
	return v
}
