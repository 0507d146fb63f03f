package events

import (
	"context"
	"encoding/json"
	"time"

	"mall-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// OrderStatusChanged is emitted whenever an order moves to a new status.
type OrderStatusChanged struct {
	OrderID    int64     `json:"order_id"`
	OrderUID   string    `json:"order_uid"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishOrderStatus(ctx context.Context, e OrderStatusChanged) error
	Close() error
}

// New returns a kafka publisher, or Nop when no brokers are configured.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// PublishOrderStatus keys messages by order uid so one order's events stay
// on one partition.
func (p *KafkaPublisher) PublishOrderStatus(ctx context.Context, e OrderStatusChanged) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderUID),
		Value: data,
		Time:  e.OccurredAt,
	})
	if err != nil {
		logger.FromCtx(ctx).Error("failed to publish order status",
			zap.Int64("order_id", e.OrderID),
			zap.String("to", e.To),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type Nop struct{}

func (Nop) PublishOrderStatus(context.Context, OrderStatusChanged) error { return nil }
func (Nop) Close() error                                                { return nil }
