package telegram

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/pkg/logger"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	stopped  bool
	sendErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeAPI) lastEdit() tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if e, ok := f.sent[i].(tgbotapi.EditMessageTextConfig); ok {
			return e
		}
	}
	return tgbotapi.EditMessageTextConfig{}
}

func (f *fakeAPI) lastCallback() tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if c, ok := f.requests[i].(tgbotapi.CallbackConfig); ok {
			return c
		}
	}
	return tgbotapi.CallbackConfig{}
}

// fakeGateway serves a fixed menu and records writes.
type fakeGateway struct {
	mu        sync.Mutex
	foods     map[int64]domain.Food
	favorites map[int64]domain.Favorite
	orders    []domain.OrderRequest
	users     []string
	nameLike  string
	listErr   error
	orderErr  error
}

func newFakeGateway(foods ...domain.Food) *fakeGateway {
	g := &fakeGateway{foods: map[int64]domain.Food{}, favorites: map[int64]domain.Favorite{}}
	for _, f := range foods {
		g.foods[f.ID] = f
	}
	return g
}

func (g *fakeGateway) seen(ctx context.Context) {
	g.users = append(g.users, logger.UserIDFromContext(ctx))
}

func (g *fakeGateway) ListFoods(ctx context.Context, nameLike string) ([]domain.Food, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen(ctx)
	g.nameLike = nameLike
	if g.listErr != nil {
		return nil, g.listErr
	}
	out := make([]domain.Food, 0, len(g.foods))
	for id := int64(1); id <= int64(len(g.foods)); id++ {
		if f, ok := g.foods[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (g *fakeGateway) GetFood(ctx context.Context, id int64) (*domain.Food, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen(ctx)
	f, ok := g.foods[id]
	if !ok {
		return nil, errors.New("not found")
	}
	f.Extras = append([]domain.Extra(nil), f.Extras...)
	return &f, nil
}

func (g *fakeGateway) ListFavorites(ctx context.Context) ([]domain.Favorite, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen(ctx)
	out := make([]domain.Favorite, 0, len(g.favorites))
	for _, f := range g.favorites {
		out = append(out, f)
	}
	return out, nil
}

func (g *fakeGateway) AddFavorite(ctx context.Context, fav domain.Favorite) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen(ctx)
	g.favorites[fav.ID] = fav
	return nil
}

func (g *fakeGateway) RemoveFavorite(ctx context.Context, foodID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen(ctx)
	delete(g.favorites, foodID)
	return nil
}

func (g *fakeGateway) CreateOrder(ctx context.Context, req domain.OrderRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen(ctx)
	if g.orderErr != nil {
		return g.orderErr
	}
	g.orders = append(g.orders, req)
	return nil
}
