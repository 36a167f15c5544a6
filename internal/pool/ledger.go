package pool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/0xmirasol/ammguard/internal/amm"
)

var ErrBelowMinAmountOut = errors.New("execution output below minimum")

// pairState holds the live reserves for one pair. Each pair carries its own
// lock so trades on different pairs never contend.
type pairState struct {
	mu    sync.RWMutex
	base  uint64
	quote uint64
}

// Ledger is the in-memory reserve book. Quotes read a consistent snapshot;
// ExecuteSwap re-derives the output under the pair lock so the amount a
// trader receives always reflects the reserves the trade actually executed
// against.
type Ledger struct {
	registry *Registry
	cfg      amm.Config

	mu    sync.RWMutex
	state map[string]*pairState
}

// NewLedger seeds reserve state from the registry's configured pairs
func NewLedger(registry *Registry, cfg amm.Config) *Ledger {
	state := make(map[string]*pairState, registry.Count())
	for _, pair := range registry.All() {
		state[pair.ID] = &pairState{
			base:  pair.BaseReserve,
			quote: pair.QuoteReserve,
		}
	}

	return &Ledger{
		registry: registry,
		cfg:      cfg,
		state:    state,
	}
}

// Registry returns the pair registry backing this ledger
func (l *Ledger) Registry() *Registry {
	return l.registry
}

// Reserves returns the current reserves oriented by the directional
// reference: reserveIn backs the token being sold, reserveOut the token
// being bought.
func (l *Ledger) Reserves(ctx context.Context, ref string) (reserveIn, reserveOut uint64, err error) {
	pair, baseIn, err := l.registry.Resolve(ref)
	if err != nil {
		return 0, 0, err
	}

	ps, err := l.pairState(pair.ID)
	if err != nil {
		return 0, 0, err
	}

	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if baseIn {
		return ps.base, ps.quote, nil
	}
	return ps.quote, ps.base, nil
}

// PairReserves returns the reserves for a pair by canonical id, in
// base/quote order.
func (l *Ledger) PairReserves(id string) (base, quote uint64, err error) {
	ps, err := l.pairState(id)
	if err != nil {
		return 0, 0, err
	}

	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.base, ps.quote, nil
}

// ExecuteSwap settles a trade against the current reserves. The output is
// re-derived under the pair lock rather than trusting any earlier quote, and
// the trade fails if that output lands below minAmountOut.
func (l *Ledger) ExecuteSwap(ctx context.Context, trader, ref string, amountIn, minAmountOut uint64) (uint64, error) {
	pair, baseIn, err := l.registry.Resolve(ref)
	if err != nil {
		return 0, err
	}

	ps, err := l.pairState(pair.ID)
	if err != nil {
		return 0, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	reserveIn, reserveOut := ps.base, ps.quote
	if !baseIn {
		reserveIn, reserveOut = ps.quote, ps.base
	}

	amountOut, err := amm.QuoteOut(amountIn, reserveIn, reserveOut, l.cfg.FeeBpsComplement, l.cfg.FeeScale)
	if err != nil {
		return 0, err
	}

	if amountOut < minAmountOut {
		return 0, fmt.Errorf("%w: got %d, need %d", ErrBelowMinAmountOut, amountOut, minAmountOut)
	}

	if math.MaxUint64-reserveIn < amountIn {
		return 0, amm.ErrAmountOverflow
	}

	if baseIn {
		ps.base = reserveIn + amountIn
		ps.quote = reserveOut - amountOut
	} else {
		ps.quote = reserveIn + amountIn
		ps.base = reserveOut - amountOut
	}

	return amountOut, nil
}

// SetReserves overwrites a pair's reserves. Intended for tests and
// administrative resets.
func (l *Ledger) SetReserves(id string, base, quote uint64) error {
	ps, err := l.pairState(id)
	if err != nil {
		return err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.base = base
	ps.quote = quote
	return nil
}

func (l *Ledger) pairState(id string) (*pairState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ps, ok := l.state[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPairNotFound, id)
	}
	return ps, nil
}
