package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type kafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher writes every event to a single topic, keyed so that
// all events for one product (or one buyer) land on the same partition
// in order.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *kafkaPublisher) publish(ctx context.Context, key string, env Envelope) error {

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
	})
}

func (p *kafkaPublisher) PublishStockUpdate(ctx context.Context, productID uuid.UUID, stock int64) error {
	return p.publish(ctx, productID.String(), newEnvelope(EventStockUpdate, map[string]any{
		"productId": productID.String(),
		"stock":     stock,
	}))
}

func (p *kafkaPublisher) PublishOrderSuccess(ctx context.Context, userID uuid.UUID, summary models.OrderSummary) error {
	env := newEnvelope(EventOrderSuccess, map[string]any{
		"orderId":      summary.OrderID,
		"total":        summary.Total,
		"checkoutTime": summary.CheckoutTime,
	})
	env.UserID = userID.String()

	return p.publish(ctx, userID.String(), env)
}

func (p *kafkaPublisher) PublishProductSoldOut(ctx context.Context, productID uuid.UUID, name string) error {
	return p.publish(ctx, productID.String(), newEnvelope(EventProductSoldOut, map[string]any{
		"productId":   productID.String(),
		"productName": name,
	}))
}

func (p *kafkaPublisher) PublishLeaderboardUpdate(ctx context.Context) error {
	return p.publish(ctx, EventLeaderboardUpdate, newEnvelope(EventLeaderboardUpdate, nil))
}

func (p *kafkaPublisher) PublishSaleEnded(ctx context.Context) error {
	return p.publish(ctx, EventSaleEnded, newEnvelope(EventSaleEnded, nil))
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
