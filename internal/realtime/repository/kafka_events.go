package repository

import (
	"context"
	"encoding/json"

	"language_exchange_service/internal/realtime/domain"
	"language_exchange_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter subset of *kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaEvents domain events on a kafka topic, keyed by chat (or user)
type KafkaEvents struct {
	writer MessageWriter
}

// NewKafkaEvents the writer should be async so Publish never blocks a connection
func NewKafkaEvents(writer MessageWriter) *KafkaEvents {
	return &KafkaEvents{writer: writer}
}

// Publish best effort
func (k *KafkaEvents) Publish(ctx context.Context, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("event marshal failed", zap.String("type", event.Type), zap.Error(err))
		return
	}
	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		logger.Log.Warn("event publish failed", zap.String("type", event.Type), zap.Error(err))
	}
}
