package fbi

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// parameterRingSize is the parameter ring's slot count (spec.md §3
// "ParameterRing", sized 1024 entries — deep enough to decouple the
// dispatcher from bursty render-worker stalls without unbounded growth).
const parameterRingSize = 1024

// ParameterRing is a single-producer (the dispatcher), multi-consumer
// (one or two render workers) bounded ring of *TriangleParams. Slot
// occupancy is gated by a counting semaphore rather than a condition
// variable, following the bounded-producer/consumer idiom other_examples
// repos in the pack use golang.org/x/sync/semaphore for; the write index
// is a single atomic counter so RenderBarrier (barrier.go) can read a
// consistent high-water mark without locking the ring.
type ParameterRing struct {
	slots    [parameterRingSize]*TriangleParams
	writeIdx atomic.Uint64
	readIdx  [2]atomic.Uint64 // one read cursor per worker parity

	// free tracks available slot capacity: the producer acquires one
	// permit per Push (blocking once every slot is occupied) and Advance
	// releases one back once both parities have passed a slot. Render
	// workers don't block on the ring being empty — they poll (workers.go)
	// — so there is no corresponding "occupied" semaphore.
	free *semaphore.Weighted
}

// NewParameterRing constructs a ring pre-seeded as entirely empty.
func NewParameterRing() *ParameterRing {
	r := &ParameterRing{
		free: semaphore.NewWeighted(parameterRingSize),
	}
	return r
}

// Push blocks (respecting ctx) until a slot is free, then publishes p at
// the current write index and advances it. Only the dispatcher calls
// this (spec.md §4.7 "single producer").
func (r *ParameterRing) Push(ctx context.Context, p *TriangleParams) error {
	if err := r.free.Acquire(ctx, 1); err != nil {
		return err
	}
	idx := r.writeIdx.Load()
	r.slots[idx%parameterRingSize] = p
	r.writeIdx.Store(idx + 1)
	return nil
}

// WriteIndex returns the current write cursor, used by RenderBarrier to
// compute the high-water mark workers must catch up to.
func (r *ParameterRing) WriteIndex() uint64 { return r.writeIdx.Load() }

// Pop returns the next TriangleParams this worker's parity is
// responsible for rasterizing, and the slot's sequence number, or ok ==
// false if nothing new has been published yet. numWorkers is 1 or 2
// (spec.md §4.6); parity is 0 for the sole worker in single-worker mode,
// or 0/1 for the even/odd-scanline worker in two-worker mode. Slot
// occupancy is per-ring (not per-parity) so a single producer index
// suffices; both workers read every slot, and each rasterizes only its
// own scanlines of that triangle (Rasterize, rasterizer.go).
func (r *ParameterRing) Pop(parity int) (*TriangleParams, uint64, bool) {
	idx := r.readIdx[parity].Load()
	if idx >= r.writeIdx.Load() {
		return nil, idx, false
	}
	p := r.slots[idx%parameterRingSize]
	return p, idx, true
}

// Advance records that this worker has finished processing the slot at
// idx, freeing it once every worker sharing the ring has passed it.
func (r *ParameterRing) Advance(parity int, idx uint64, numWorkers int) {
	r.readIdx[parity].Store(idx + 1)
	if numWorkers == 2 {
		other := r.readIdx[1-parity].Load()
		if other <= idx {
			return // the other parity hasn't reached this slot yet; don't free it
		}
	}
	r.free.Release(1)
}

// ReadIndex reports the slower of the two worker read cursors (or the
// sole cursor in 1-worker mode), used by RenderBarrier.
func (r *ParameterRing) ReadIndex(numWorkers int) uint64 {
	idx := r.readIdx[0].Load()
	if numWorkers == 2 {
		if o := r.readIdx[1].Load(); o < idx {
			idx = o
		}
	}
	return idx
}
