package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	pkgkafka "github.com/lucasncamargo/gorestaurant/pkg/kafka"
	"github.com/lucasncamargo/gorestaurant/pkg/logger"
)

const (
	AggregateTypeOrder = "order"
	SourceAPI          = "gorestaurant-api"
)

// TopicOrderCreated receives one event per accepted order.
var TopicOrderCreated = pkgkafka.Topic(AggregateTypeOrder, "created")

// OrderCreatedData is the payload of an order.created event.
type OrderCreatedData struct {
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Extras    []ExtraData     `json:"extras"`
	Total     decimal.Decimal `json:"total"`
}

// ExtraData is one chosen extra within an order event.
type ExtraData struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// Publisher is the part of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes order domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishOrderCreated publishes an order.created event keyed by order id.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	extras := make([]ExtraData, 0, len(order.Extras))
	for _, e := range order.Extras {
		if e.Quantity == 0 {
			continue
		}
		extras = append(extras, ExtraData{ID: e.ID, Quantity: e.Quantity})
	}

	data := OrderCreatedData{
		OrderID:   order.ID,
		UserID:    order.UserID,
		ProductID: order.ProductID,
		Name:      order.Name,
		Quantity:  order.Quantity,
		Extras:    extras,
		Total:     order.Total,
	}

	evt, err := pkgkafka.NewEvent(TopicOrderCreated, order.ID, AggregateTypeOrder, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, TopicOrderCreated, evt); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.ID),
	)
	return nil
}
