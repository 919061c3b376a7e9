package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher отправляет события ленты. Ошибки доставки не влияют на ответ прокси.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher используется, когда Redis не настроен.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
	timeout time.Duration
	logger  *zap.Logger
}

func NewRedisPublisher(rdb redis.UniversalClient, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		timeout: 2 * time.Second,
		logger:  logger.Named("feed"),
	}
}

// Publish отправляет событие в фоне, чтобы не задерживать ответ клиенту.
func (p *RedisPublisher) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal feed event", zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
			p.logger.Warn("feed signal delivery failed",
				zap.String("channel", p.channel),
				zap.String("type", event.Type),
				zap.Error(err))
		}
	}()
}
