package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/0xmirasol/ammguard/internal/amm"
)

type Config struct {
	// API settings
	APIAddr string
	APIKey  string
	DevMode bool

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Pair registry
	PairConfigPath string

	// Pricing guards
	FeeBpsComplement  uint64
	FeeScale          uint64
	MaxSlippageBps    int
	MaxPriceImpactBps int

	// Trade limits (0 = unlimited)
	MaxAmountInPerSwap uint64
	DailyVolumeCap     uint64

	// Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "amm"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// Pairs
		PairConfigPath: getEnv("PAIR_CONFIG_PATH", "configs/pairs.json"),

		// Guards
		FeeBpsComplement:  getUint64Env("FEE_BPS_COMPLEMENT", 997),
		FeeScale:          getUint64Env("FEE_SCALE", 1000),
		MaxSlippageBps:    getIntEnv("MAX_SLIPPAGE_BPS", 500),
		MaxPriceImpactBps: getIntEnv("MAX_PRICE_IMPACT_BPS", 300),

		// Limits
		MaxAmountInPerSwap: getUint64Env("MAX_AMOUNT_IN_PER_SWAP", 0),
		DailyVolumeCap:     getUint64Env("DAILY_VOLUME_CAP", 0),

		// Shutdown
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Guards assembles the pricing-engine configuration from the loaded values.
func (c *Config) Guards() amm.Config {
	return amm.Config{
		FeeBpsComplement:  c.FeeBpsComplement,
		FeeScale:          c.FeeScale,
		MaxSlippageBps:    uint16(c.MaxSlippageBps),
		MaxPriceImpactBps: uint16(c.MaxPriceImpactBps),
	}
}

func (c *Config) Validate() error {
	if c.APIAddr == "" {
		return fmt.Errorf("API_ADDR must not be empty")
	}
	if c.PairConfigPath == "" {
		return fmt.Errorf("PAIR_CONFIG_PATH must not be empty")
	}
	if c.MaxSlippageBps < 0 || c.MaxSlippageBps > 10000 {
		return fmt.Errorf("MAX_SLIPPAGE_BPS must be in 0..10000")
	}
	if c.MaxPriceImpactBps < 0 || c.MaxPriceImpactBps > 10000 {
		return fmt.Errorf("MAX_PRICE_IMPACT_BPS must be in 0..10000")
	}
	if err := c.Guards().Validate(); err != nil {
		return fmt.Errorf("invalid guard config: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getUint64Env(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(key); val != "" {
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			return u
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
