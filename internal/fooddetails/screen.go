// Package fooddetails holds the food details screen: one food, its extras,
// an order quantity, a favorite flag and the running total.
package fooddetails

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
)

// ErrNotLoaded is returned by operations that need the food before it has
// been loaded.
var ErrNotLoaded = errors.New("food not loaded")

// ErrGoBack wraps a navigation failure after the order was accepted.
var ErrGoBack = errors.New("go back after order")

// Favorite icon names, as rendered by front-ends.
const (
	IconFavorite       = "favorite"
	IconFavoriteBorder = "favorite-border"
)

// Gateway is the remote data the screen reads and writes.
type Gateway interface {
	GetFood(ctx context.Context, id int64) (*domain.Food, error)
	ListFavorites(ctx context.Context) ([]domain.Favorite, error)
	AddFavorite(ctx context.Context, fav domain.Favorite) error
	RemoveFavorite(ctx context.Context, foodID int64) error
	CreateOrder(ctx context.Context, req domain.OrderRequest) error
}

// Navigator leaves the screen.
type Navigator interface {
	GoBack(ctx context.Context) error
}

// Formatter renders an amount as a currency string.
type Formatter interface {
	Format(amount decimal.Decimal) string
}

// Screen is the state of one visit to a food's details. The zero value is
// not usable; construct with New.
type Screen struct {
	foodID  int64
	gateway Gateway
	nav     Navigator
	format  Formatter
	logger  *slog.Logger

	mu             sync.Mutex
	food           *domain.Food
	formattedPrice string
	extras         []domain.Extra
	quantity       int
	favorite       bool
}

// New returns a screen for foodID with no food loaded and quantity 1.
func New(foodID int64, gateway Gateway, nav Navigator, format Formatter, logger *slog.Logger) *Screen {
	return &Screen{
		foodID:   foodID,
		gateway:  gateway,
		nav:      nav,
		format:   format,
		logger:   logger.With(slog.Int64("food_id", foodID)),
		quantity: 1,
	}
}

// FoodID is the id the screen was opened with.
func (s *Screen) FoodID() int64 {
	return s.foodID
}

// Mount loads the food and then its favorite status. The favorite check is
// skipped when the food could not be loaded.
func (s *Screen) Mount(ctx context.Context) error {
	if err := s.LoadFood(ctx); err != nil {
		return err
	}
	return s.CheckFavorite(ctx)
}

// LoadFood fetches the food and resets every extra's quantity to zero. On
// failure the previous state is kept.
func (s *Screen) LoadFood(ctx context.Context) error {
	food, err := s.gateway.GetFood(ctx, s.foodID)
	if err != nil {
		s.fail(ctx, "load_food", err)
		return err
	}

	extras := make([]domain.Extra, len(food.Extras))
	copy(extras, food.Extras)
	for i := range extras {
		extras[i].Quantity = 0
	}

	loaded := *food
	loaded.Extras = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	s.food = &loaded
	s.formattedPrice = s.format.Format(food.Price)
	s.extras = extras
	return nil
}

// CheckFavorite sets the favorite flag to whether the user's favorites hold
// a record with the food's id.
func (s *Screen) CheckFavorite(ctx context.Context) error {
	food, ok := s.loadedFood()
	if !ok {
		return ErrNotLoaded
	}

	favs, err := s.gateway.ListFavorites(ctx)
	if err != nil {
		s.fail(ctx, "check_favorite", err)
		return err
	}

	s.mu.Lock()
	s.favorite = domain.ContainsFavorite(favs, food.ID)
	s.mu.Unlock()
	return nil
}

// IncrementExtra adds one to the extra with id. Unknown ids are ignored.
func (s *Screen) IncrementExtra(id int64) {
	s.adjustExtra(id, 1)
}

// DecrementExtra subtracts one from the extra with id, never below zero.
func (s *Screen) DecrementExtra(id int64) {
	s.adjustExtra(id, -1)
}

func (s *Screen) adjustExtra(id int64, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := domain.FindExtra(s.extras, id)
	if i < 0 {
		return
	}
	s.extras[i].Quantity = max(s.extras[i].Quantity+delta, 0)
}

// IncrementFood adds one to the order quantity.
func (s *Screen) IncrementFood() {
	s.mu.Lock()
	s.quantity++
	s.mu.Unlock()
}

// DecrementFood subtracts one from the order quantity, never below one.
func (s *Screen) DecrementFood() {
	s.mu.Lock()
	s.quantity = max(s.quantity-1, 1)
	s.mu.Unlock()
}

// ToggleFavorite adds or removes the food from the favorites. The flag
// changes only once the remote call succeeds.
func (s *Screen) ToggleFavorite(ctx context.Context) error {
	s.mu.Lock()
	if s.food == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	food := *s.food
	wasFavorite := s.favorite
	s.mu.Unlock()

	var err error
	if wasFavorite {
		err = s.gateway.RemoveFavorite(ctx, food.ID)
	} else {
		err = s.gateway.AddFavorite(ctx, domain.NewFavorite(food))
	}
	if err != nil {
		s.fail(ctx, "toggle_favorite", err)
		return err
	}

	s.mu.Lock()
	s.favorite = !wasFavorite
	s.mu.Unlock()
	return nil
}

// Total is the price of the current selection, zero before the food loads.
func (s *Screen) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

// FormattedTotal is Total rendered by the screen's formatter.
func (s *Screen) FormattedTotal() string {
	return s.format.Format(s.Total())
}

func (s *Screen) totalLocked() decimal.Decimal {
	if s.food == nil {
		return decimal.Zero
	}
	return domain.CartTotal(s.food.Price, s.quantity, s.extras)
}

// FinishOrder submits the current selection and, once accepted, navigates
// back. A rejected order keeps the screen as it is. A navigation failure
// after acceptance is returned wrapped in ErrGoBack.
func (s *Screen) FinishOrder(ctx context.Context) error {
	s.mu.Lock()
	if s.food == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	req := domain.OrderRequest{
		ProductID:    s.food.ID,
		Name:         s.food.Name,
		Description:  s.food.Description,
		Price:        s.food.Price,
		ThumbnailURL: s.food.ImageURL,
		Quantity:     s.quantity,
		Extras:       append([]domain.Extra(nil), s.extras...),
	}
	s.mu.Unlock()

	if err := s.gateway.CreateOrder(ctx, req); err != nil {
		s.fail(ctx, "finish_order", err)
		return err
	}

	s.logger.InfoContext(ctx, "order submitted", slog.Int("quantity", req.Quantity))

	if err := s.nav.GoBack(ctx); err != nil {
		s.fail(ctx, "go_back", err)
		return fmt.Errorf("%w: %w", ErrGoBack, err)
	}
	return nil
}

func (s *Screen) loadedFood() (domain.Food, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.food == nil {
		return domain.Food{}, false
	}
	return *s.food, true
}

func (s *Screen) fail(ctx context.Context, op string, err error) {
	s.logger.ErrorContext(ctx, "food details operation failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
