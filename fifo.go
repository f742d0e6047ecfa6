package fbi

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// commandFifoSize is the host command FIFO's entry count (spec.md §3
// "CommandFifo", 64K entries, power-of-two sized so index wrap is a
// bitmask).
const commandFifoSize = 1 << 16

// CommandKind tags what a FIFO entry means to the dispatcher (spec.md
// §4.7).
type CommandKind uint8

const (
	CmdRegWrite CommandKind = iota
	CmdFBWriteWord
	CmdFBWriteLong
	CmdTexWriteLong
)

// fifoEntry is one queued host write: a decoded kind, the target address,
// and the 32-bit value (word writes use the low 16 bits).
type fifoEntry struct {
	Kind CommandKind
	Addr uint32
	Val  uint32
}

// CommandFifo is the single-producer (host bus writes), single-consumer
// (dispatcher) bounded ring of host commands (spec.md §4.7). Producer
// blocking on a full FIFO is gated by a counting semaphore, the same
// idiom ParameterRing uses, rather than a spin loop or unbounded channel.
type CommandFifo struct {
	entries  [commandFifoSize]fifoEntry
	writeIdx atomic.Uint64
	readIdx  atomic.Uint64

	// processedIdx trails readIdx by however long applyEntry takes; it is
	// the count a waiter (Core.RenderBarrier) needs to observe reaching
	// writeIdx's snapshot to know a command has actually taken effect,
	// not merely been taken off the ring.
	processedIdx atomic.Uint64

	free *semaphore.Weighted
	full *semaphore.Weighted
}

// NewCommandFifo constructs an empty FIFO.
func NewCommandFifo() *CommandFifo {
	f := &CommandFifo{
		free: semaphore.NewWeighted(commandFifoSize),
		full: semaphore.NewWeighted(commandFifoSize),
	}
	f.full.Acquire(context.Background(), commandFifoSize)
	return f
}

// Enqueue blocks (respecting ctx) until space is free, then appends one
// entry. Called from the host-bus write path (core.go), never from a
// render worker.
func (f *CommandFifo) Enqueue(ctx context.Context, kind CommandKind, addr, val uint32) error {
	if err := f.free.Acquire(ctx, 1); err != nil {
		return err
	}
	idx := f.writeIdx.Load()
	f.entries[idx%commandFifoSize] = fifoEntry{Kind: kind, Addr: addr, Val: val}
	f.writeIdx.Store(idx + 1)
	f.full.Release(1)
	return nil
}

// Dequeue blocks (respecting ctx) until at least one entry is queued,
// then returns it. Called only from the dispatcher goroutine.
func (f *CommandFifo) Dequeue(ctx context.Context) (fifoEntry, error) {
	if err := f.full.Acquire(ctx, 1); err != nil {
		return fifoEntry{}, err
	}
	idx := f.readIdx.Load()
	e := f.entries[idx%commandFifoSize]
	f.readIdx.Store(idx + 1)
	f.free.Release(1)
	return e, nil
}

// MarkProcessed records that the entry most recently Dequeue'd has
// finished being applied; only the dispatcher goroutine calls this.
func (f *CommandFifo) MarkProcessed() {
	f.processedIdx.Add(1)
}

// Enqueued reports how many entries have been queued so far, used by
// RenderBarrier to capture a high-water mark to wait for.
func (f *CommandFifo) Enqueued() uint64 { return f.writeIdx.Load() }

// Processed reports how many entries the dispatcher has fully applied.
func (f *CommandFifo) Processed() uint64 { return f.processedIdx.Load() }

// Len reports the number of entries currently queued (FIFO occupancy).
func (f *CommandFifo) Len() int {
	return int(f.writeIdx.Load() - f.readIdx.Load())
}
