package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/0xmirasol/ammguard/internal/constants"
	"github.com/0xmirasol/ammguard/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisConfig holds connection settings for the trade cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache keeps a capped list of recent trades, the last executed price per
// pair, and fans trade events out over Pub/Sub.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisCacheFromClient(client, nil), nil
}

// NewRedisCacheFromClient wraps an existing client, e.g. one shared with the
// halt store.
func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

// AddRecentTrade pushes a trade onto the recent list and trims it to the cap.
func (r *RedisCache) AddRecentTrade(ctx context.Context, trade *models.TradeEvent) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentTrades, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentTrades, 0, constants.MaxRecentTrades-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add recent trade: %w", err)
	}
	return nil
}

// GetRecentTrades returns up to limit trades, newest first. Entries that fail
// to decode are skipped.
func (r *RedisCache) GetRecentTrades(ctx context.Context, limit int64) ([]*models.TradeEvent, error) {
	if limit <= 0 {
		limit = constants.DefaultTradesLimit
	}

	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentTrades, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get recent trades: %w", err)
	}

	out := make([]*models.TradeEvent, 0, len(vals))
	for _, v := range vals {
		var t models.TradeEvent
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			r.logger.WithError(err).Warn("skipping undecodable trade entry")
			continue
		}
		out = append(out, &t)
	}
	return out, nil
}

// UpdatePrice stores the last executed price for a pair as a decimal string.
func (r *RedisCache) UpdatePrice(ctx context.Context, pair string, price string) error {
	if err := r.client.Set(ctx, priceKey(pair), price, 0).Err(); err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	return nil
}

// GetPrice returns the last executed price for a pair, "0" when none is known.
func (r *RedisCache) GetPrice(ctx context.Context, pair string) (string, error) {
	val, err := r.client.Get(ctx, priceKey(pair)).Result()
	if err == redis.Nil {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("get price: %w", err)
	}
	return val, nil
}

// PublishTrade fans a trade event out to the live channel and the pair channel.
func (r *RedisCache) PublishTrade(ctx context.Context, trade *models.TradeEvent) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Publish(ctx, constants.PubSubChannelTrades, data)
	pipe.Publish(ctx, constants.PubSubChannelPairPrefix+trade.Pair, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish trade: %w", err)
	}
	return nil
}

// SubscribeTrades delivers live trade events until the context is cancelled.
func (r *RedisCache) SubscribeTrades(ctx context.Context) (<-chan *models.TradeEvent, error) {
	pubsub := r.client.Subscribe(ctx, constants.PubSubChannelTrades)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe trades: %w", err)
	}

	out := make(chan *models.TradeEvent)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var t models.TradeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &t); err != nil {
					r.logger.WithError(err).Warn("skipping undecodable trade message")
					continue
				}
				select {
				case out <- &t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func priceKey(pair string) string {
	return constants.RedisKeyPricePrefix + pair
}
