// Package events publishes committed ledger actions to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const DefaultTopic = "ledger.events"

// LedgerEvent describes one committed ledger action.
type LedgerEvent struct {
	EventID       string              `json:"event_id"`
	UserID        string              `json:"user_id"`
	TransactionID string              `json:"transaction_id"`
	Type          string              `json:"type"`
	Coin          string              `json:"coin"`
	Amount        decimal.Decimal     `json:"amount"`
	PriceUSD      decimal.NullDecimal `json:"price_usd"`
	Balance       decimal.Decimal     `json:"balance"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e LedgerEvent) error
	Close() error
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LedgerEvent) error { return nil }
func (NopPublisher) Close() error                               { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by user id, so one user's events stay
// ordered within a partition.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            3,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e LedgerEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.UserID),
		Value: body,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
