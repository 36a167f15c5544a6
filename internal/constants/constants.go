package constants

// Redis keys
const (
	RedisKeyRecentTrades = "trades:recent"
	RedisKeyPricePrefix  = "price:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelTrades     = "trades:live"
	PubSubChannelPairPrefix = "trades:pair:"
)

// Limits
const (
	MaxRecentTrades = 100

	// API defaults for recent-trade listing
	DefaultTradesLimit = 100
	MaxTradesLimit     = 200
)

// DefaultSlippageBps is the tolerance applied when a quote request carries
// none. Safety ceilings still cap whatever the caller supplies.
const DefaultSlippageBps uint16 = 100
