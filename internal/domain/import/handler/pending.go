package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/gate"
)

// ErrPendingFull is returned when the pending store refuses another batch.
var ErrPendingFull = errors.New("too many imports awaiting confirmation")

// Pending keeps gates that wait for a person between HTTP requests. A gate
// that expires or is evicted is cancelled, so its rows are never imported.
type Pending struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewPending creates a store holding at most maxBatches gates for ttl each.
func NewPending(maxBatches int64, ttl time.Duration) (*Pending, error) {
	if maxBatches <= 0 {
		maxBatches = 100
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxBatches * 10,
		MaxCost:            maxBatches,
		BufferItems:        64,
		IgnoreInternalCost: true,
		OnExit: func(val interface{}) {
			if g, ok := val.(*gate.Gate); ok && g.State() == gate.StateAwaitingConfirmation {
				_ = g.Cancel()
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pending import cache: %w", err)
	}
	return &Pending{cache: cache, ttl: ttl}, nil
}

// Put stores g under its batch id.
func (p *Pending) Put(g *gate.Gate) error {
	if !p.cache.SetWithTTL(g.Batch().ID, g, 1, p.ttl) {
		return ErrPendingFull
	}
	p.cache.Wait()
	return nil
}

// Get returns the pending gate for id.
func (p *Pending) Get(id string) (*gate.Gate, bool) {
	v, ok := p.cache.Get(id)
	if !ok {
		return nil, false
	}
	g, ok := v.(*gate.Gate)
	return g, ok
}

// Remove forgets id. An open gate is cancelled on the way out.
func (p *Pending) Remove(id string) {
	p.cache.Del(id)
	p.cache.Wait()
}

// Close stops the cache's background goroutines.
func (p *Pending) Close() {
	p.cache.Close()
}
