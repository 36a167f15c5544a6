package engine

import (
	"math"
	"sync"
	"time"
)

// TradeLimits defines per-trader throughput caps. Zero means unlimited.
type TradeLimits struct {
	MaxAmountInPerSwap uint64 // max input amount per single swap
	DailyVolumeCap     uint64 // max summed input amount per rolling 24h window
}

type volumeRecord struct {
	timestamp time.Time
	amount    uint64
}

// volumeTracker tracks rolling 24-hour input volume per trader
type volumeTracker struct {
	mu      sync.Mutex
	records map[string][]volumeRecord
	now     func() time.Time
}

func newVolumeTracker() *volumeTracker {
	return &volumeTracker{
		records: make(map[string][]volumeRecord),
		now:     time.Now,
	}
}

// record adds a settled swap to the trader's window
func (t *volumeTracker) record(trader string, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records[trader] = append(t.records[trader], volumeRecord{
		timestamp: t.now(),
		amount:    amount,
	})
	t.cleanupLocked(trader)
}

// used returns the trader's summed input volume over the last 24 hours.
// The sum saturates rather than wrapping.
func (t *volumeTracker) used(trader string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cleanupLocked(trader)

	var total uint64
	for _, rec := range t.records[trader] {
		if math.MaxUint64-total < rec.amount {
			return math.MaxUint64
		}
		total += rec.amount
	}
	return total
}

// cleanupLocked drops records older than 24 hours. Caller holds the lock.
func (t *volumeTracker) cleanupLocked(trader string) {
	cutoff := t.now().Add(-24 * time.Hour)

	recs := t.records[trader]
	kept := recs[:0]
	for _, rec := range recs {
		if rec.timestamp.After(cutoff) {
			kept = append(kept, rec)
		}
	}

	if len(kept) == 0 {
		delete(t.records, trader)
		return
	}
	t.records[trader] = kept
}

// reset clears all tracked volume (for testing)
func (t *volumeTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = make(map[string][]volumeRecord)
}
