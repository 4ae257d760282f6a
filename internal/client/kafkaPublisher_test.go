package client

import (
	"context"
	"encoding/json"
	"errors"
	"food-storefront/internal/config"
	"food-storefront/internal/model"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &kafkaPublisherImpl{writer: w}

	event := model.OrderEvent{
		Type: model.EventOrderPaymentPaid,
		Data: model.OrderEventData{OrderID: 31, Status: "pending", PaymentStatus: "paid"},
	}
	require.NoError(t, p.Publish(context.Background(), event))
	require.NoError(t, p.Close())

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "31", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, string(model.EventOrderPaymentPaid), string(msg.Headers[0].Value))

	var decoded model.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, uint(31), decoded.Data.OrderID)
	assert.True(t, w.closed)
}

func TestKafkaPublisherWriteError(t *testing.T) {
	p := &kafkaPublisherImpl{writer: &fakeWriter{err: errors.New("leader not available")}}

	err := p.Publish(context.Background(), model.OrderEvent{Type: model.EventNewOrder})
	assert.Error(t, err)
}

func TestNewKafkaPublisherDisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewKafkaPublisher(&config.Kafka{Topic: "order-events"}))

	p := NewKafkaPublisher(&config.Kafka{Brokers: []string{"localhost:9092"}, Topic: "order-events"})
	require.NotNil(t, p)
	assert.NoError(t, p.Close())
}
