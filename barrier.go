package fbi

import (
	"context"
	"time"
)

// RenderBarrier blocks until the dispatcher has applied every command
// queued before this call started, and then until every render worker
// has consumed every triangle published to the ring by that point
// (spec.md §4.8 "blocks until workers drain and catch up to write_idx").
// It is idempotent: calling it again with no new triangles queued in
// between returns immediately (spec.md §8 "barrier idempotence").
func (c *Core) RenderBarrier(ctx context.Context) error {
	fifoTarget := c.fifo.Enqueued()
	for c.fifo.Processed() < fifoTarget {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(barrierPollInterval):
		}
	}
	return c.waitRingDrain(ctx)
}

// waitRingDrain blocks until every render worker has caught up to the
// ring's current write index, without waiting on the command FIFO. The
// dispatcher goroutine calls this directly (dispatcher.go) before a LFB
// or texture write that must not race an in-flight triangle (spec.md
// §4.7): it is mid-Dequeue at that point, so waiting on the FIFO itself
// as RenderBarrier does would deadlock against its own drain.
func (c *Core) waitRingDrain(ctx context.Context) error {
	ringTarget := c.ring.WriteIndex()
	for c.ring.ReadIndex(c.numWorkers) < ringTarget {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(barrierPollInterval):
		}
	}
	return nil
}

// barrierPollInterval is how often RenderBarrier re-checks worker
// progress while waiting; short enough not to add perceptible latency
// to a swap-buffer call, long enough not to burn CPU spinning.
const barrierPollInterval = 50 * time.Microsecond
