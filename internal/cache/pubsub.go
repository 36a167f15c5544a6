// ============================================================================
// cache/pubsub.go - Redis Pub/Sub Wrapper
// ============================================================================
package cache

import (
	"context"
	"encoding/json"
	"log"

	"github.com/0xmirasol/ammguard/internal/constants"
	"github.com/0xmirasol/ammguard/internal/models"
	"github.com/0xmirasol/ammguard/internal/storage"

	"github.com/redis/go-redis/v9"
)

type PubSubManager struct {
	client *redis.Client
}

func NewPubSubManager(addr string) *PubSubManager {
	return &PubSubManager{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
	}
}

// Publish trade event to the live channel plus the pair-specific channel
func (p *PubSubManager) PublishTrade(ctx context.Context, trade *models.TradeEvent) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return err
	}

	channels := []string{
		constants.PubSubChannelTrades,                  // All trades
		constants.PubSubChannelPairPrefix + trade.Pair, // Pair-specific
	}

	pipe := p.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe to a channel
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler storage.TradeHandler) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Printf("subscribed to channel: %s", channel)

	ch := pubsub.Channel()
	for msg := range ch {
		var trade models.TradeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &trade); err != nil {
			log.Printf("error unmarshaling trade: %v", err)
			continue
		}

		handler(&trade)
	}

	return nil
}

// Subscribe to pattern (e.g., "trades:pair:*")
func (p *PubSubManager) PSubscribe(ctx context.Context, pattern string, handler storage.TradeHandler) error {
	pubsub := p.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	log.Printf("subscribed to pattern: %s", pattern)

	ch := pubsub.Channel()
	for msg := range ch {
		var trade models.TradeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &trade); err != nil {
			log.Printf("error unmarshaling trade: %v", err)
			continue
		}

		handler(&trade)
	}

	return nil
}

func (p *PubSubManager) Close() error {
	return p.client.Close()
}
