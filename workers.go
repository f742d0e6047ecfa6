package fbi

import (
	"context"
	"time"
)

// workerPollInterval bounds how long a render worker sleeps when the
// ring has nothing new for its parity, short enough to keep latency low
// without spinning the CPU on an idle core.
const workerPollInterval = 50 * time.Microsecond

// renderWorker consumes TriangleParams from a ParameterRing and
// rasterizes the scanlines its parity owns (spec.md §4.6: one worker
// processes every scanline, two workers split even/odd scanlines).
type renderWorker struct {
	parity     int
	numWorkers int
	ring       *ParameterRing
	fb, aux    *FramebufferMemory
	texMem     *TextureMemory
	done       chan struct{}
}

func newRenderWorker(parity, numWorkers int, ring *ParameterRing, fb, aux *FramebufferMemory, texMem *TextureMemory) *renderWorker {
	return &renderWorker{
		parity:     parity,
		numWorkers: numWorkers,
		ring:       ring,
		fb:         fb,
		aux:        aux,
		texMem:     texMem,
		done:       make(chan struct{}),
	}
}

// run drains the ring until ctx is cancelled, polling at
// workerPollInterval when the ring has nothing new for its parity
// (spec.md §4.6: workers react to newly published entries without a
// host-visible wake latency, which a short poll approximates without
// needing a broadcast primitive the single-producer ring doesn't
// otherwise require).
func (w *renderWorker) run(ctx context.Context, wake <-chan struct{}) {
	defer close(w.done)
	ticker := time.NewTicker(workerPollInterval)
	defer ticker.Stop()
	for {
		p, idx, ok := w.ring.Pop(w.parity)
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-wake:
			case <-ticker.C:
			}
			continue
		}
		Rasterize(p, w.parity, w.numWorkers, w.fb, w.aux, w.texMem)
		w.ring.Advance(w.parity, idx, w.numWorkers)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
