package events

import (
	"context"

	"github.com/kunalverma25/flash-sale-backend/internal/models"
	"github.com/google/uuid"
)

// NoopPublisher stands in when no brokers are configured, so local runs
// and tests need no Kafka.
type NoopPublisher struct{}

func NewNoopPublisher() Publisher {
	return NoopPublisher{}
}

func (NoopPublisher) PublishStockUpdate(context.Context, uuid.UUID, int64) error {
	return nil
}

func (NoopPublisher) PublishOrderSuccess(context.Context, uuid.UUID, models.OrderSummary) error {
	return nil
}

func (NoopPublisher) PublishProductSoldOut(context.Context, uuid.UUID, string) error {
	return nil
}

func (NoopPublisher) PublishLeaderboardUpdate(context.Context) error {
	return nil
}

func (NoopPublisher) PublishSaleEnded(context.Context) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
