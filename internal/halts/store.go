package halts

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	indexKey    = "halts:index"
	valuePrefix = "halts:"
)

var pairRe = regexp.MustCompile(`^[A-Z0-9]{2,10}-[A-Z0-9]{2,10}$`)

// Store keeps per-pair trading halts in Redis so every API instance observes
// the same switches.
type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

// ValidatePair checks the canonical BASE-QUOTE form, e.g. "ETH-USDC".
func ValidatePair(pair string) error {
	if !pairRe.MatchString(pair) {
		return fmt.Errorf("invalid pair id")
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, pair string, halted bool, reason string) (*Halt, error) {
	if err := ValidatePair(pair); err != nil {
		return nil, err
	}

	halt := &Halt{Pair: pair, Halted: halted, Reason: reason, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(halt)
	if err != nil {
		return nil, fmt.Errorf("marshal halt: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, haltKey(pair), b, 0)
	pipe.SAdd(ctx, indexKey, pair)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("upsert halt: %w", err)
	}

	return halt, nil
}

func (s *Store) Get(ctx context.Context, pair string) (*Halt, error) {
	if err := ValidatePair(pair); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, haltKey(pair)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get halt: %w", err)
	}

	var h Halt
	if err := json.Unmarshal([]byte(val), &h); err != nil {
		return nil, fmt.Errorf("unmarshal halt: %w", err)
	}
	return &h, nil
}

// IsHalted reports whether trading on the pair is currently blocked. An
// unknown pair has no switch and trades freely.
func (s *Store) IsHalted(ctx context.Context, pair string) (bool, error) {
	h, err := s.Get(ctx, pair)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return h.Halted, nil
}

func (s *Store) List(ctx context.Context) ([]*Halt, error) {
	pairs, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list halts index: %w", err)
	}
	if len(pairs) == 0 {
		return []*Halt{}, nil
	}

	redisKeys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if err := ValidatePair(p); err != nil {
			continue
		}
		redisKeys = append(redisKeys, haltKey(p))
	}
	if len(redisKeys) == 0 {
		return []*Halt{}, nil
	}

	vals, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget halts: %w", err)
	}

	out := make([]*Halt, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		var h Halt
		if err := json.Unmarshal([]byte(s), &h); err != nil {
			continue
		}
		out = append(out, &h)
	}

	return out, nil
}

func (s *Store) Delete(ctx context.Context, pair string) error {
	if err := ValidatePair(pair); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, haltKey(pair))
	pipe.SRem(ctx, indexKey, pair)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete halt: %w", err)
	}

	return nil
}

func haltKey(pair string) string {
	return valuePrefix + pair
}
