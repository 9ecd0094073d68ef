package repository

import (
	"context"
	"encoding/json"

	"language_exchange_service/internal/realtime/domain"
	"language_exchange_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	userPattern = "chat:user:*"
	roomPattern = "chat:room:*"
)

// RedisBus cross node fan-out over redis pub/sub
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus create RedisBus
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

// Publish 將 message 序列化後, 發布到 user 或 room channel
func (r *RedisBus) Publish(ctx context.Context, msg domain.BusMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, msg.Channel(), data).Err()
}

// Run 每個節點只開一個 pattern subscription, 直到 ctx 結束
func (r *RedisBus) Run(ctx context.Context, handler func(domain.BusMessage)) error {
	sub := r.client.PSubscribe(ctx, userPattern, roomPattern)
	defer sub.Close()

	// 確認訂閱成功再開始收
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg domain.BusMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				logger.Log.Error("bus message unmarshal failed", zap.String("channel", m.Channel), zap.Error(err))
				continue
			}
			handler(msg)
		case <-ctx.Done():
			logger.Log.Info("realtime bus, sub close")
			return nil
		}
	}
}
