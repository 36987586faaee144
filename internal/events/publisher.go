// Package events is the outbound side of the real-time push pipeline.
// Checkout and the cart write events here; the websocket edge that fans
// them out to browsers consumes the topic elsewhere. Every publish is
// fire and forget for the caller: failures are logged, never returned
// into business flow.
package events

import (
	"context"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/models"
	"github.com/google/uuid"
)

const (
	EventStockUpdate       = "stockUpdate"
	EventOrderSuccess      = "orderSuccess"
	EventProductSoldOut    = "productSoldOut"
	EventLeaderboardUpdate = "leaderboardUpdate"
	EventSaleEnded         = "saleEnded"
)

// Envelope is the wire shape of every published event.
type Envelope struct {
	EventID   string         `json:"event_id"`
	Type      string         `json:"type"`
	UserID    string         `json:"user_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Payload   map[string]any `json:"payload,omitempty"`
}

type Publisher interface {
	PublishStockUpdate(ctx context.Context, productID uuid.UUID, stock int64) error
	PublishOrderSuccess(ctx context.Context, userID uuid.UUID, summary models.OrderSummary) error
	PublishProductSoldOut(ctx context.Context, productID uuid.UUID, name string) error
	PublishLeaderboardUpdate(ctx context.Context) error
	PublishSaleEnded(ctx context.Context) error
	Close() error
}

func newEnvelope(eventType string, payload map[string]any) Envelope {
	return Envelope{
		EventID:   uuid.NewString(),
		Type:      eventType,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}
}
