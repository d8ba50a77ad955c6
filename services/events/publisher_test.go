package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisherKeysByBooking(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w, logger: zap.NewNop()}

	err := p.Publish(context.Background(), BookingEvent{
		Type:      TypeBookingStatusChanged,
		BookingID: "b-42",
		From:      "requested",
		To:        "under_review",
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)
	assert.Equal(t, "b-42", string(w.messages[0].Key))

	var decoded BookingEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, "under_review", decoded.To)
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestKafkaPublisherWrapsWriteFailure(t *testing.T) {
	p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("broker down")}, logger: zap.NewNop()}

	err := p.Publish(context.Background(), BookingEvent{Type: TypeBookingCreated, BookingID: "b-1"})
	assert.ErrorContains(t, err, "broker down")
}
