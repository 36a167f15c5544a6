package storage

import (
	"context"
	"io"

	"github.com/0xmirasol/ammguard/internal/models"
)

// TradeCache defines the interface for caching trade data
type TradeCache interface {
	// AddRecentTrade adds a trade to the recent trades list
	AddRecentTrade(ctx context.Context, trade *models.TradeEvent) error

	// UpdatePrice updates the last executed price for a pair
	UpdatePrice(ctx context.Context, pair string, price string) error

	// GetRecentTrades retrieves the most recent trades
	GetRecentTrades(ctx context.Context, limit int64) ([]*models.TradeEvent, error)

	// GetPrice retrieves the last executed price for a pair
	GetPrice(ctx context.Context, pair string) (string, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer

	// PublishTrade publishes a trade event to the Pub/Sub channels
	PublishTrade(ctx context.Context, trade *models.TradeEvent) error

	// SubscribeTrades subscribes to real-time trade events
	SubscribeTrades(ctx context.Context) (<-chan *models.TradeEvent, error)
}

// TradeStore defines the interface for persistent trade storage
type TradeStore interface {
	// InsertTrade inserts a trade event into the store
	InsertTrade(ctx context.Context, trade *models.TradeEvent) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// TradeHandler is a function that processes trade events
type TradeHandler func(*models.TradeEvent)
