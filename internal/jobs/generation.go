package jobs

import (
	"fmt"
	"math"
	"sync"
)

// Key names the piece of state a job's result updates, e.g. "status" or
// "diff:staged:a.txt".
type Key string

// Generation stamps a submission. Values for one key are strictly
// increasing within an epoch; a tracker reset starts a new epoch so every
// generation handed out before it compares stale.
type Generation struct {
	Epoch uint64
	Seq   uint64
}

func (g Generation) String() string {
	if g.Epoch == 0 {
		return fmt.Sprintf("%d", g.Seq)
	}
	return fmt.Sprintf("%d.%d", g.Epoch, g.Seq)
}

// Tracker holds one generation counter per key. It is safe for concurrent
// use.
type Tracker struct {
	mu       sync.RWMutex
	epoch    uint64
	limit    uint64
	counters map[Key]uint64
}

// NewTracker returns a tracker whose counters reset once any of them reaches
// limit. Zero means no practical limit.
func NewTracker(limit uint64) *Tracker {
	if limit == 0 {
		limit = math.MaxUint64
	}
	return &Tracker{limit: limit, counters: map[Key]uint64{}}
}

// Next advances key and returns its new generation.
func (t *Tracker) Next(key Key) Generation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextLocked(key)
}

// Bump advances every key without handing out the generations.
func (t *Tracker) Bump(keys ...Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, key := range keys {
		t.nextLocked(key)
	}
}

func (t *Tracker) nextLocked(key Key) Generation {
	if t.counters[key] >= t.limit {
		t.counters = map[Key]uint64{}
		t.epoch++
	}
	t.counters[key]++
	return Generation{Epoch: t.epoch, Seq: t.counters[key]}
}

func (t *Tracker) Current(key Key) Generation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Generation{Epoch: t.epoch, Seq: t.counters[key]}
}

func (t *Tracker) IsCurrent(key Key, gen Generation) bool {
	return t.Current(key) == gen
}
