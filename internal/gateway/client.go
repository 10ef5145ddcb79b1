// Package gateway is the HTTP client for the GoRestaurant API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/pkg/httpclient"
	"github.com/lucasncamargo/gorestaurant/pkg/logger"
	"github.com/lucasncamargo/gorestaurant/pkg/middleware"
	"github.com/lucasncamargo/gorestaurant/pkg/tracing"
)

const remoteName = "gorestaurant-api"

// TokenIssuer mints a bearer token for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	// DefaultUserID is sent when the context carries no user id.
	DefaultUserID string
	HTTP          httpclient.Config
	Breaker       httpclient.CircuitBreakerConfig
	// Tokens signs a bearer token per request when set.
	Tokens TokenIssuer
}

// DefaultConfig returns a Config for baseURL with no retries.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		HTTP:    httpclient.DefaultConfig(),
		Breaker: httpclient.DefaultCircuitBreakerConfig(remoteName),
	}
}

// Client calls the foods, favorites and orders endpoints. The acting user
// is read from the context with logger.UserIDFromContext.
type Client struct {
	baseURL       string
	defaultUserID string
	http          *httpclient.CircuitBreakerClient
	tokens        TokenIssuer
	logger        *slog.Logger
}

// New validates the base URL and builds the breaker-wrapped transport.
func New(cfg Config, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		defaultUserID: cfg.DefaultUserID,
		http:          httpclient.NewCircuitBreakerClient(httpclient.New(cfg.HTTP), cfg.Breaker, log),
		tokens:        cfg.Tokens,
		logger:        log,
	}, nil
}

// ListFoods returns the first page of available foods whose name contains
// nameLike (all foods when empty).
func (c *Client) ListFoods(ctx context.Context, nameLike string) ([]domain.Food, error) {
	q := url.Values{}
	if nameLike != "" {
		q.Set("name_like", nameLike)
	}
	path := "/foods"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var foods []domain.Food
	if err := c.call(ctx, http.MethodGet, path, "/foods", nil, &foods); err != nil {
		return nil, err
	}
	return foods, nil
}

// GetFood fetches a food with its extras.
func (c *Client) GetFood(ctx context.Context, id int64) (*domain.Food, error) {
	var food domain.Food
	if err := c.call(ctx, http.MethodGet, "/foods/"+strconv.FormatInt(id, 10), "/foods/{id}", nil, &food); err != nil {
		return nil, err
	}
	return &food, nil
}

// ListFavorites returns the acting user's favorites.
func (c *Client) ListFavorites(ctx context.Context) ([]domain.Favorite, error) {
	var favs []domain.Favorite
	if err := c.call(ctx, http.MethodGet, "/favorites", "/favorites", nil, &favs); err != nil {
		return nil, err
	}
	return favs, nil
}

// AddFavorite stores fav for the acting user.
func (c *Client) AddFavorite(ctx context.Context, fav domain.Favorite) error {
	return c.call(ctx, http.MethodPost, "/favorites", "/favorites", fav, nil)
}

// RemoveFavorite deletes the acting user's favorite for foodID.
func (c *Client) RemoveFavorite(ctx context.Context, foodID int64) error {
	return c.call(ctx, http.MethodDelete, "/favorites/"+strconv.FormatInt(foodID, 10), "/favorites/{id}", nil, nil)
}

// CreateOrder places an order for the acting user.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) error {
	return c.call(ctx, http.MethodPost, "/orders", "/orders", req, nil)
}

// call sends body as JSON (when non-nil) and decodes the "data" member of
// the response into out (when non-nil). route names the span.
func (c *Client) call(ctx context.Context, method, path, route string, body, out any) (err error) {
	ctx, span := tracing.Tracer("gorestaurant/gateway").Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.DebugContext(ctx, "api call failed",
				slog.String("method", method),
				slog.String("route", route),
				slog.String("error", err.Error()),
			)
		}
		span.End()
	}()

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		var serverErr *httpclient.ServerError
		if errors.As(err, &serverErr) {
			return httpclient.ParseResponseError(serverErr.Response(), remoteName)
		}
		return fmt.Errorf("%s %s: %w", method, route, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		return httpclient.ParseResponseError(resp, remoteName)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, route, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	userID := logger.UserIDFromContext(ctx)
	if userID == "" {
		userID = c.defaultUserID
	}
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationHeader, id)
	}

	if c.tokens != nil && userID != "" {
		token, err := c.tokens.Issue(userID)
		if err != nil {
			return nil, fmt.Errorf("issue token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}
