package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/internal/repository"
	"github.com/lucasncamargo/gorestaurant/internal/service"
	apperrors "github.com/lucasncamargo/gorestaurant/pkg/errors"
	"github.com/lucasncamargo/gorestaurant/pkg/health"
	"github.com/lucasncamargo/gorestaurant/pkg/httputil"
)

// --- Mocks ---

type mockFoodRepo struct{ mock.Mock }

func (m *mockFoodRepo) List(ctx context.Context, filter repository.FoodFilter) ([]domain.Food, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Food), args.Int(1), args.Error(2)
}

func (m *mockFoodRepo) GetByID(ctx context.Context, id int64) (*domain.Food, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Food), args.Error(1)
}

type mockFavoriteRepo struct{ mock.Mock }

func (m *mockFavoriteRepo) List(ctx context.Context, userID string) ([]domain.Favorite, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Favorite), args.Error(1)
}

func (m *mockFavoriteRepo) Add(ctx context.Context, userID string, fav domain.Favorite) error {
	return m.Called(ctx, userID, fav).Error(0)
}

func (m *mockFavoriteRepo) Remove(ctx context.Context, userID string, foodID int64) error {
	return m.Called(ctx, userID, foodID).Error(0)
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, userID, id string) (*domain.Order, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

type nopPublisher struct{}

func (nopPublisher) PublishOrderCreated(context.Context, *domain.Order) error { return nil }

// --- Helpers ---

type testServer struct {
	handler http.Handler
	foods   *mockFoodRepo
	favs    *mockFavoriteRepo
	orders  *mockOrderRepo
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := newTestLogger()
	ts := &testServer{
		foods:  new(mockFoodRepo),
		favs:   new(mockFavoriteRepo),
		orders: new(mockOrderRepo),
	}

	if cfg.DefaultUserID == "" {
		cfg.DefaultUserID = "guest"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS, cfg.RateLimitBurst = 1000, 1000
	}

	svcs := Services{
		Foods:     service.NewFoodService(ts.foods, logger),
		Favorites: service.NewFavoriteService(ts.favs, ts.foods, logger),
		Orders:    service.NewOrderService(ts.orders, ts.foods, nopPublisher{}, logger),
	}
	ts.handler = NewRouter(ctx, svcs, health.NewHandler(), logger, cfg)
	return ts
}

func (ts *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func menuFood() *domain.Food {
	return &domain.Food{
		ID:          1,
		Name:        "Ao molho",
		Description: "Macarrão ao molho branco",
		Price:       decimal.RequireFromString("10.00"),
		ImageURL:    "https://img.example.com/1.png",
		Available:   true,
		Extras: []domain.Extra{
			{ID: 1, Name: "Bacon", Value: decimal.RequireFromString("1.50")},
		},
	}
}

// --- Foods ---

func TestGetFood(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.foods.On("GetByID", mock.Anything, int64(1)).Return(menuFood(), nil)

	rec := ts.do(http.MethodGet, "/foods/1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data domain.Food `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Ao molho", body.Data.Name)
	require.Len(t, body.Data.Extras, 1)
	assert.NotContains(t, rec.Body.String(), "quantity")
}

func TestGetFood_InvalidID(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodGet, "/foods/abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", decodeError(t, rec).Code)
}

func TestGetFood_NotFound(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.foods.On("GetByID", mock.Anything, int64(5)).Return(nil, apperrors.NotFound("food", "5"))

	rec := ts.do(http.MethodGet, "/foods/5", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestListFoods_PaginatedAndCacheable(t *testing.T) {
	ts := newTestServer(t, RouterConfig{MenuCacheTTL: 30 * time.Second})
	category := int64(2)
	ts.foods.On("List", mock.Anything, repository.FoodFilter{
		NameLike: "molho", Category: &category, Page: 2, PerPage: 1,
	}).Return([]domain.Food{*menuFood()}, 3, nil)

	rec := ts.do(http.MethodGet, "/foods?name_like=molho&category=2&page=2&per_page=1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=30", rec.Header().Get("Cache-Control"))

	var body struct {
		Data       []domain.Food `json:"data"`
		TotalCount int           `json:"total_count"`
		HasNext    bool          `json:"has_next"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, 3, body.TotalCount)
	assert.True(t, body.HasNext)
}

func TestListFoods_InvalidCategory(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodGet, "/foods?category=pizza", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Favorites ---

func TestListFavorites_UsesUserHeader(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.favs.On("List", mock.Anything, "alice").Return([]domain.Favorite{{ID: 1, Name: "Ao molho"}}, nil)

	rec := ts.do(http.MethodGet, "/favorites", nil, "X-User-ID", "alice")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `"name":"Ao molho"`)
}

func TestListFavorites_DefaultUser(t *testing.T) {
	ts := newTestServer(t, RouterConfig{DefaultUserID: "house"})
	ts.favs.On("List", mock.Anything, "house").Return([]domain.Favorite{}, nil)

	rec := ts.do(http.MethodGet, "/favorites", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestAddFavorite(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	food := menuFood()
	ts.foods.On("GetByID", mock.Anything, int64(1)).Return(food, nil)
	ts.favs.On("Add", mock.Anything, "guest", domain.NewFavorite(*food)).Return(nil)

	rec := ts.do(http.MethodPost, "/favorites", domain.NewFavorite(*food))

	assert.Equal(t, http.StatusCreated, rec.Code)
	ts.favs.AssertExpectations(t)
}

func TestAddFavorite_ValidationError(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodPost, "/favorites", `{"id":0,"name":""}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
	assert.Contains(t, errResp.Fields, "id")
	assert.Contains(t, errResp.Fields, "name")
}

func TestAddFavorite_MalformedJSON(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodPost, "/favorites", `{"id":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
}

func TestRemoveFavorite(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.favs.On("Remove", mock.Anything, "guest", int64(1)).Return(nil)
	ts.favs.On("Remove", mock.Anything, "guest", int64(2)).Return(apperrors.NotFound("favorite", "2"))

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/favorites/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/favorites/2", nil).Code)
}

// --- Orders ---

func TestCreateOrder(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.foods.On("GetByID", mock.Anything, int64(1)).Return(menuFood(), nil)
	ts.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	rec := ts.do(http.MethodPost, "/orders", `{
		"product_id": 1, "name": "Ao molho", "description": "Macarrão ao molho branco",
		"price": 10, "thumbnail_url": "https://img.example.com/1.png", "quantity": 2,
		"extras": [{"id": 1, "name": "Bacon", "value": 1.5, "quantity": 3}]
	}`, "X-User-ID", "bob")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Data domain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bob", body.Data.UserID)
	assert.True(t, decimal.NewFromInt(29).Equal(body.Data.Total))
	assert.Equal(t, domain.OrderStatusPending, body.Data.Status)
}

func TestCreateOrder_LargeQuantity(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.foods.On("GetByID", mock.Anything, int64(1)).Return(menuFood(), nil)
	ts.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	rec := ts.do(http.MethodPost, "/orders", `{
		"product_id": 1, "name": "Ao molho", "price": 10, "quantity": 100,
		"extras": [{"id": 1, "name": "Bacon", "value": 1.5, "quantity": 0}]
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Data domain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 100, body.Data.Quantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(body.Data.Total))
}

func TestCreateOrder_ValidationErrors(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodPost, "/orders", `{
		"product_id": 1, "name": "Ao molho", "price": 10, "quantity": 0,
		"extras": [{"id": 1, "name": "Bacon", "value": 1.5, "quantity": -1}]
	}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
	assert.Contains(t, errResp.Fields, "quantity")
	assert.Contains(t, errResp.Fields, "extras[0].quantity")
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.foods.On("GetByID", mock.Anything, int64(9)).Return(nil, apperrors.NotFound("food", "9"))

	rec := ts.do(http.MethodPost, "/orders", `{"product_id": 9, "name": "x", "price": 1, "quantity": 1}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateOrder_StorageFailureIs500(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.foods.On("GetByID", mock.Anything, int64(1)).Return(menuFood(), nil)
	ts.orders.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	rec := ts.do(http.MethodPost, "/orders", `{"product_id": 1, "name": "x", "price": 10, "quantity": 1}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestCreateOrder_RejectsNonJSON(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodPost, "/orders", "quantity=1", "Content-Type", "application/x-www-form-urlencoded")

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestListOrders(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	ts.orders.On("ListByUser", mock.Anything, "guest", 1, 20).Return([]domain.Order{{ID: "o-1"}}, 1, nil)

	rec := ts.do(http.MethodGet, "/orders", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_count":1`)
}

func TestGetOrder_NotFound(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodGet, "/orders/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Auth and plumbing ---

func TestAuth_RequiredWhenVerifierConfigured(t *testing.T) {
	verify := func(token string) (string, error) {
		if token == "good" {
			return "carol", nil
		}
		return "", errors.New("bad token")
	}
	ts := newTestServer(t, RouterConfig{VerifyToken: verify})
	ts.favs.On("List", mock.Anything, "carol").Return([]domain.Favorite{}, nil)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/favorites", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		ts.do(http.MethodGet, "/favorites", nil, "Authorization", "Bearer nope").Code)

	// The token's subject wins over a spoofed header.
	rec := ts.do(http.MethodGet, "/favorites", nil, "Authorization", "Bearer good", "X-User-ID", "mallory")
	assert.Equal(t, http.StatusOK, rec.Code)
	ts.favs.AssertExpectations(t)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})
	ts.favs.On("List", mock.Anything, "guest").Return([]domain.Favorite{}, nil)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/favorites", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(http.MethodGet, "/favorites", nil).Code)
}

func TestHealthAndCorrelation(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	rec := ts.do(http.MethodGet, "/health/live", nil, "X-Correlation-ID", "abc-123")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))
}
