package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
	TypeBookingCancelled     = "booking.cancelled"
	TypeBookingReviewed      = "booking.reviewed"
	TypePaymentCreated       = "payment.created"
	TypePaymentCompleted     = "payment.completed"
	TypePaymentRefunded      = "payment.refunded"
)

// BookingEvent is one entry of the booking lifecycle stream.
type BookingEvent struct {
	Type          string            `json:"type"`
	BookingID     string            `json:"booking_id"`
	BookingNumber string            `json:"booking_number,omitempty"`
	From          string            `json:"from,omitempty"`
	To            string            `json:"to,omitempty"`
	Actor         string            `json:"actor,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// Publisher emits lifecycle events. Callers treat failures as best effort.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by booking id so one booking's events stay ordered.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.BookingID),
		Value: data,
		Time:  event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write %s event to Kafka: %w", event.Type, err)
	}

	p.logger.Debug("published booking event", zap.String("type", event.Type), zap.String("bookingID", event.BookingID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }
func (NoopPublisher) Close() error                                { return nil }
