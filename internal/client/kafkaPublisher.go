package client

import (
	"context"
	"encoding/json"
	"fmt"
	"food-storefront/internal/config"
	"food-storefront/internal/model"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

type EventPublisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisherImpl struct {
	writer messageWriter
}

// NewKafkaPublisher returns nil when no brokers are configured.
func NewKafkaPublisher(kafkaCfg *config.Kafka) EventPublisher {
	if len(kafkaCfg.Brokers) == 0 {
		return nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(kafkaCfg.Brokers...),
		Topic:                  kafkaCfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &kafkaPublisherImpl{writer: w}
}

// Publish keys messages by order id so one order's events stay on one partition.
func (p *kafkaPublisherImpl) Publish(ctx context.Context, event model.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.Data.OrderID), 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write order event to kafka: %w", err)
	}

	return nil
}

func (p *kafkaPublisherImpl) Close() error {
	return p.writer.Close()
}
