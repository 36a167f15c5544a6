package halts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test connection
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Clear test DB
	err = client.FlushDB(ctx).Err()
	require.NoError(t, err)

	return client
}

func cleanupTestRedis(_ *testing.T, client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

func TestStore_Upsert(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Halt a pair
	halt, err := store.Upsert(ctx, "ETH-USDC", true, "oracle divergence")
	assert.NoError(t, err)
	assert.NotNil(t, halt)
	assert.Equal(t, "ETH-USDC", halt.Pair)
	assert.True(t, halt.Halted)
	assert.Equal(t, "oracle divergence", halt.Reason)
	assert.NotZero(t, halt.UpdatedAt)

	// Verify halt was stored
	retrieved, err := store.Get(ctx, "ETH-USDC")
	assert.NoError(t, err)
	assert.Equal(t, halt.Pair, retrieved.Pair)
	assert.Equal(t, halt.Halted, retrieved.Halted)
	assert.Equal(t, halt.UpdatedAt, retrieved.UpdatedAt)

	// Lift the halt
	time.Sleep(time.Millisecond) // Ensure different timestamp
	lifted, err := store.Upsert(ctx, "ETH-USDC", false, "")
	assert.NoError(t, err)
	assert.True(t, lifted.UpdatedAt.After(halt.UpdatedAt))

	retrieved, err = store.Get(ctx, "ETH-USDC")
	assert.NoError(t, err)
	assert.False(t, retrieved.Halted)
	assert.Equal(t, lifted.UpdatedAt, retrieved.UpdatedAt)
}

func TestStore_Get(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Unknown pair has no switch
	halt, err := store.Get(ctx, "SOL-USDC")
	assert.Error(t, err)
	assert.Equal(t, ErrNotFound, err)
	assert.Nil(t, halt)

	_, err = store.Upsert(ctx, "SOL-USDC", true, "maintenance")
	require.NoError(t, err)

	halt, err = store.Get(ctx, "SOL-USDC")
	assert.NoError(t, err)
	assert.NotNil(t, halt)
	assert.Equal(t, "SOL-USDC", halt.Pair)
	assert.True(t, halt.Halted)
}

func TestStore_IsHalted(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// No switch at all: trading allowed
	halted, err := store.IsHalted(ctx, "ETH-USDC")
	assert.NoError(t, err)
	assert.False(t, halted)

	// Active halt
	_, err = store.Upsert(ctx, "ETH-USDC", true, "incident")
	require.NoError(t, err)

	halted, err = store.IsHalted(ctx, "ETH-USDC")
	assert.NoError(t, err)
	assert.True(t, halted)

	// Switch present but lifted
	_, err = store.Upsert(ctx, "ETH-USDC", false, "")
	require.NoError(t, err)

	halted, err = store.IsHalted(ctx, "ETH-USDC")
	assert.NoError(t, err)
	assert.False(t, halted)
}

func TestStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = store.Upsert(ctx, "ETH-USDC", true, "")
	require.NoError(t, err)

	_, err = store.Get(ctx, "ETH-USDC")
	assert.NoError(t, err)

	err = store.Delete(ctx, "ETH-USDC")
	assert.NoError(t, err)

	_, err = store.Get(ctx, "ETH-USDC")
	assert.Error(t, err)
	assert.Equal(t, ErrNotFound, err)

	// Deleting an absent switch is a no-op
	err = store.Delete(ctx, "SOL-USDC")
	assert.NoError(t, err)
}

func TestStore_List(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	// Empty list
	all, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, all)

	switches := map[string]bool{
		"ETH-USDC": true,
		"SOL-USDC": false,
		"BTC-USDT": true,
	}

	for pair, halted := range switches {
		_, err := store.Upsert(ctx, pair, halted, "")
		require.NoError(t, err)
	}

	all, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	got := make(map[string]bool)
	for _, h := range all {
		got[h.Pair] = h.Halted
	}

	for pair, halted := range switches {
		actual, exists := got[pair]
		assert.True(t, exists, "halt for %s should exist", pair)
		assert.Equal(t, halted, actual, "halt for %s should have correct state", pair)
	}
}

func TestStore_ConcurrentOperations(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	const numGoroutines = 10
	const numOps = 50

	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer func() { done <- true }()
			for j := 0; j < numOps; j++ {
				pair := fmt.Sprintf("T%d-Q%d", id, j)
				halted := (id+j)%2 == 0

				_, err := store.Upsert(ctx, pair, halted, "")
				assert.NoError(t, err)

				retrieved, err := store.Get(ctx, pair)
				assert.NoError(t, err)
				assert.Equal(t, halted, retrieved.Halted)
			}
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	all, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, numGoroutines*numOps)
}

func TestStore_PairValidation(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(t, client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	validPairs := []string{
		"ETH-USDC",
		"SOL-USDT",
		"BTC-DAI",
		"AB-CD",
		"TOKEN12345-USDC",
	}

	for _, pair := range validPairs {
		_, err := store.Upsert(ctx, pair, true, "")
		assert.NoError(t, err, "pair %s should be valid", pair)
	}

	invalidPairs := []string{
		"",
		" ",
		"eth-usdc",
		"ETHUSDC",
		"ETH_USDC",
		"ETH-USDC-DAI",
		"ETH USDC",
		"E-USDC",
		"VERYLONGTOKEN-USDC",
	}

	for _, pair := range invalidPairs {
		_, err := store.Upsert(ctx, pair, true, "")
		assert.Error(t, err, "pair %q should be invalid", pair)
	}
}
