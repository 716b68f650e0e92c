package bridge

import (
	"context"
	"sync/atomic"
)

// =============================================================================
// WORKER POOL
// =============================================================================

// Pool bounds how many bridge invocations run at once, keeping blocking
// subprocess and network I/O off the CPU-bound analysis path. Acquire
// blocks until a slot frees or the context ends.
type Pool struct {
	slots chan struct{}

	acquired atomic.Int64
	rejected atomic.Int64
}

// PoolStats is a point-in-time snapshot of pool counters.
type PoolStats struct {
	Size     int
	InUse    int
	Acquired int64
	Rejected int64
}

// NewPool creates a pool with the given slot count. size <= 0 selects 4.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 4
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Acquire takes a slot. The caller must Release it, also on error
// paths after a successful Acquire.
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		p.acquired.Add(1)
		return nil
	case <-ctx.Done():
		p.rejected.Add(1)
		return ctx.Err()
	}
}

// Release returns a slot.
func (p *Pool) Release() { <-p.slots }

// Stats snapshots the counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:     cap(p.slots),
		InUse:    len(p.slots),
		Acquired: p.acquired.Load(),
		Rejected: p.rejected.Load(),
	}
}
