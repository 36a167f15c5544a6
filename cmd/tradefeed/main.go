package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xmirasol/ammguard/internal/cache"
	"github.com/0xmirasol/ammguard/internal/constants"
	"github.com/0xmirasol/ammguard/internal/models"
)

// tradefeed tails the live trade channels and prints settled swaps as they
// happen. Useful for watching an API instance during development.
func main() {
	redisAddr := flag.String("redis", "localhost:6379", "redis address")
	pair := flag.String("pair", "", "also subscribe to one pair channel, e.g. ETH-USDC")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	pubsub := cache.NewPubSubManager(*redisAddr)
	defer pubsub.Close()

	log.Println("starting trade feed...")

	// All settled trades
	go func() {
		err := pubsub.Subscribe(ctx, constants.PubSubChannelTrades, func(trade *models.TradeEvent) {
			log.Printf("trade %s | %s | %d %s -> %d %s | price %s | impact %d bps",
				trade.ID[:8], trade.Pair, trade.AmountIn, trade.TokenIn,
				trade.AmountOut, trade.TokenOut, trade.Price, trade.ImpactBps)
		})
		if err != nil {
			log.Printf("subscribe failed: %v", err)
		}
	}()

	// Optionally follow one pair on its dedicated channel
	if *pair != "" {
		go func() {
			err := pubsub.Subscribe(ctx, constants.PubSubChannelPairPrefix+*pair, func(trade *models.TradeEvent) {
				log.Printf("%s: %d in @ %s", trade.Pair, trade.AmountIn, trade.Price)
			})
			if err != nil {
				log.Printf("pair subscribe failed: %v", err)
			}
		}()
	}

	log.Println("trade feed running, press Ctrl+C to stop")

	<-sigChan
	log.Println("shutting down trade feed")
}
