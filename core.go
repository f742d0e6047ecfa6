package fbi

import (
	"context"
	"log/slog"
)

// Config configures a Core at construction time (spec.md §3, §9
// "Config"): memory sizes, worker count, and initial display geometry.
type Config struct {
	FramebufferBytes uint32 // must be a power of two; 2 or 4 MiB typical
	AuxBufferBytes   uint32
	TextureMemBytes  uint32
	NumWorkers       int // 1 or 2, per spec.md §4.6
	ScreenWidth      int
	ScreenHeight     int
	RowBytes         uint32
	DrawBufOffset    uint32
	AuxBufOffset     uint32
}

// Core is the top-level fixed-function rasterization engine: a host
// writes registers and framebuffer/texture memory through the HostBus
// methods below, which enqueue onto the command FIFO; a dispatcher
// goroutine drains the FIFO and feeds one or two render workers through
// a parameter ring; a Display paces scan-out independently off the
// host's own HSYNC timer (spec.md §1 OVERVIEW).
type Core struct {
	log *slog.Logger

	fifo *CommandFifo
	ring *ParameterRing

	fb     *FramebufferMemory
	aux    *FramebufferMemory
	texMem *TextureMemory

	setup      triangleSetup
	texPalette Palette
	nccCache   [2]*Palette
	fogTable   [64]FogTableEntry
	clut       [256]RGBA8

	fbiInit              [5]uint32
	backPorch, hSync, vSync uint32
	screenWidth, screenHeight int
	texWidth0, texHeight0     int

	drawBufOffset, auxBufOffset, rowBytes uint32

	counters PixelCounters

	numWorkers int
	workers    []*renderWorker
	wake       chan struct{}

	Display *Display

	cancel context.CancelFunc
}

// New constructs a Core from cfg. Render workers and the dispatcher are
// not started until Start is called, so a host can finish wiring
// SetLogger/etc. first.
func New(cfg Config) *Core {
	if cfg.NumWorkers != 1 && cfg.NumWorkers != 2 {
		cfg.NumWorkers = 1
	}
	c := &Core{
		log:           defaultLogger(),
		fifo:          NewCommandFifo(),
		ring:          NewParameterRing(),
		fb:            NewFramebufferMemory(cfg.FramebufferBytes),
		aux:           NewFramebufferMemory(cfg.AuxBufferBytes),
		texMem:        NewTextureMemory(cfg.TextureMemBytes),
		numWorkers:    cfg.NumWorkers,
		wake:          make(chan struct{}),
		screenWidth:   cfg.ScreenWidth,
		screenHeight:  cfg.ScreenHeight,
		rowBytes:      cfg.RowBytes,
		drawBufOffset: cfg.DrawBufOffset,
		auxBufOffset:  cfg.AuxBufOffset,
		texWidth0:     256,
		texHeight0:    256,
	}
	c.Display = NewDisplay(cfg.ScreenWidth, cfg.ScreenHeight, &c.clut)
	return c
}

// Start launches the dispatcher goroutine and one or two render worker
// goroutines (spec.md §4.6, §4.7). Stop them by cancelling ctx or by
// calling Close.
func (c *Core) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.runDispatcher(ctx)

	c.workers = make([]*renderWorker, c.numWorkers)
	for i := 0; i < c.numWorkers; i++ {
		w := newRenderWorker(i, c.numWorkers, c.ring, c.fb, c.aux, c.texMem)
		c.workers[i] = w
		go w.run(ctx, c.wake)
	}
}

// Close stops the dispatcher and render workers.
func (c *Core) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// HostBus is the register/memory-mapped interface a host CPU core wires
// its address decode to (spec.md §3 "HostBus").
type HostBus interface {
	WriteReg(addr, val uint32)
	WriteFBWord(addr uint32, val uint16)
	WriteFBLong(addr uint32, val uint32)
	WriteTexLong(addr uint32, val uint32)
	ReadReg(addr uint32) uint32
}

// WriteReg enqueues a register write onto the command FIFO (spec.md
// §4.7). It blocks if the FIFO is momentarily full — a host should treat
// this call as having bus-stall semantics, exactly like the real
// hardware's FIFO-full wait state.
func (c *Core) WriteReg(addr, val uint32) {
	c.EnqueueCommand(context.Background(), CmdRegWrite, addr, val)
}

func (c *Core) WriteFBWord(addr uint32, val uint16) {
	c.EnqueueCommand(context.Background(), CmdFBWriteWord, addr, uint32(val))
}

func (c *Core) WriteFBLong(addr uint32, val uint32) {
	c.EnqueueCommand(context.Background(), CmdFBWriteLong, addr, val)
}

func (c *Core) WriteTexLong(addr uint32, val uint32) {
	c.EnqueueCommand(context.Background(), CmdTexWriteLong, addr, val)
}

// ReadReg reads directly from framebuffer-adjacent status registers that
// don't need FIFO ordering (pixel counters, FIFO occupancy); it is not
// routed through the FIFO since reads have no write-ordering hazard to
// preserve (spec.md §4.7).
func (c *Core) ReadReg(addr uint32) uint32 {
	switch addr {
	case RegStatus:
		return c.statusWord()
	case RegFbiPixelsIn:
		return c.counters.PixelsIn.Load()
	case RegFbiPixelsOut:
		return c.counters.PixelsOut.Load()
	case RegFbiChromaFail:
		return c.counters.Chromaed.Load()
	case RegFbiZFuncFail:
		return c.counters.ZFuncFail.Load()
	case RegFbiAFuncFail:
		return c.counters.AFuncFail.Load()
	default:
		return 0
	}
}

// statusWord packs the host status register (spec.md §6 "status"): free
// FIFO entries, outstanding swap requests, a busy flag (dispatcher or
// ring still draining) and the display's vsync flag. Exact bit
// positions aren't pinned down by spec.md beyond naming these fields;
// this layout is this implementation's choice, recorded in DESIGN.md.
func (c *Core) statusWord() uint32 {
	free := commandFifoSize - int(c.fifo.Enqueued()-c.fifo.Processed())
	if free > 0xffff {
		free = 0xffff // an empty 64K FIFO saturates the 16-bit field
	}
	v := uint32(free) & 0xffff
	v |= (uint32(c.Display.SwapCount()) & 0xf) << 16
	busy := c.fifo.Processed() < c.fifo.Enqueued() || c.ring.ReadIndex(c.numWorkers) < c.ring.WriteIndex()
	if busy {
		v |= 1 << 20
	}
	if c.Display.AtVSync() {
		v |= 1 << 21
	}
	return v
}

// EnqueueCommand is the generic FIFO entry point; HostBus's typed
// methods are thin wrappers over it.
func (c *Core) EnqueueCommand(ctx context.Context, kind CommandKind, addr, val uint32) error {
	return c.fifo.Enqueue(ctx, kind, addr, val)
}

// DumpTextureMemory returns a copy of the texture memory contents, for
// save-state style persistence (spec.md §6 "Persisted state").
func (c *Core) DumpTextureMemory() []byte {
	out := make([]byte, len(c.texMem.bytes))
	copy(out, c.texMem.bytes)
	return out
}

// LoadTextureMemory restores texture memory from a prior
// DumpTextureMemory snapshot, truncating or zero-extending to fit.
func (c *Core) LoadTextureMemory(data []byte) {
	n := copy(c.texMem.bytes, data)
	for i := n; i < len(c.texMem.bytes); i++ {
		c.texMem.bytes[i] = 0
	}
}
