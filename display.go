package fbi

import (
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Display is the scan-out engine: it paces itself off the host's HSYNC
// ticks (spec.md §4.9), applies the CLUT to the draw buffer only for
// scanlines the rasterizer marked dirty since the last scan-out, and
// exposes completed frames through a lock-free triple buffer — the same
// producer/shared/consumer atomic-swap protocol the teacher's Voodoo
// engine uses for GetFrame(), generalized from RGBA8 frames straight off
// a GPU backend to frames built from this package's own CLUT lookup.
type Display struct {
	mu sync.Mutex

	width, height int
	clut          *[256]RGBA8

	dirtyLines []bool

	frameBufs  [3][]byte // each is width*height*4 RGBA8, pre-allocated
	sharedIdx  atomic.Int32
	readingIdx atomic.Int32
	writeIdx   int

	scanline       int
	retraceCounter int
	swapQueue      []int // each entry is the retrace interval that request must exceed
	swapCount      atomic.Int32
}

// NewDisplay allocates a Display sized width x height, matching
// spec.md §4.9's fixed-resolution scan-out model.
func NewDisplay(width, height int, clut *[256]RGBA8) *Display {
	d := &Display{
		width:      width,
		height:     height,
		clut:       clut,
		dirtyLines: make([]bool, height),
	}
	bufSize := width * height * 4
	for i := range d.frameBufs {
		d.frameBufs[i] = make([]byte, bufSize)
	}
	d.writeIdx = 0
	d.sharedIdx.Store(1)
	d.readingIdx.Store(2)
	return d
}

// MarkDirty flags scanline y as needing a CLUT re-copy on the next Tick
// that reaches it; called by the rasterizer's write-back path whenever a
// pixel on that line changes (spec.md §4.9 "dirty-line-gated CLUT copy").
func (d *Display) MarkDirty(y int) {
	d.mu.Lock()
	if y >= 0 && y < len(d.dirtyLines) {
		d.dirtyLines[y] = true
	}
	d.mu.Unlock()
}

// ArmSwap requests a buffer swap, honouring the swap-interval semantics of
// the SWAP_BUFFER command (spec.md §4.9, §6 swapbufferCMD bit 0 "sync",
// bits 1..8 "interval"): immediate true commits right away (tearing
// allowed, lower latency); immediate false queues the request, and Tick
// only commits it once the retrace counter has passed interval vertical
// retraces (interval 0 means the very next retrace). Multiple queued
// requests commit in order, one retrace-count window at a time.
func (d *Display) ArmSwap(immediate bool, interval int) {
	if immediate {
		d.mu.Lock()
		d.retraceCounter = 0
		d.mu.Unlock()
		d.commitSwap()
		return
	}
	d.mu.Lock()
	d.swapQueue = append(d.swapQueue, interval)
	d.mu.Unlock()
	d.swapCount.Add(1)
}

// SwapCount reports the number of swap requests armed but not yet
// committed, the host-visible status-register field (spec.md §6).
func (d *Display) SwapCount() int32 { return d.swapCount.Load() }

// AtVSync reports whether scan-out is currently at the top of the frame
// (the vertical blank interval), the host-visible status-register vsync
// flag.
func (d *Display) AtVSync() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scanline == 0
}

// Tick advances the scan-out engine by one scanline, called once per
// HSYNC from the host's timer (spec.md §4.9). fb is the framebuffer
// memory the draw buffer currently lives in; rowBytes/bufOffset locate
// the draw buffer's bytes within it. On the last scanline of the frame
// it counts a retrace and commits the oldest queued swap once its
// interval has passed. Tick does not apply the purple-tint filter; that
// is the separate ApplyPurpleTint helper.
func (d *Display) Tick(fb *FramebufferMemory, bufOffset, rowBytes uint32) {
	y := d.scanline
	if y < d.height {
		d.copyScanline(fb, bufOffset, rowBytes, y)
	}

	d.scanline++
	if d.scanline >= d.height {
		d.scanline = 0
		d.mu.Lock()
		d.retraceCounter++
		commit := false
		if len(d.swapQueue) > 0 && d.retraceCounter > d.swapQueue[0] {
			d.swapQueue = d.swapQueue[1:]
			d.retraceCounter = 0
			commit = true
		}
		d.mu.Unlock()
		if commit {
			d.commitSwap()
			d.swapCount.Add(-1)
		}
	}
}

func (d *Display) copyScanline(fb *FramebufferMemory, bufOffset, rowBytes uint32, y int) {
	d.mu.Lock()
	dirty := d.dirtyLines[y]
	if dirty {
		d.dirtyLines[y] = false
	}
	writeIdx := d.writeIdx
	d.mu.Unlock()
	if !dirty {
		return
	}

	row := fb.Row(bufOffset, rowBytes, y)
	dst := d.frameBufs[writeIdx]
	rowOut := dst[y*d.width*4 : (y+1)*d.width*4]
	for x := 0; x < d.width && x*2+1 < len(row); x++ {
		raw := uint16(row[x*2]) | uint16(row[x*2+1])<<8
		c := rgb565Table[raw]
		if d.clut != nil {
			c = d.clut[raw&0xff]
		}
		rowOut[x*4+0] = c.R
		rowOut[x*4+1] = c.G
		rowOut[x*4+2] = c.B
		rowOut[x*4+3] = c.A
	}
}

// commitSwap exchanges the producer's buffer into the shared slot by
// atomic.Swap, holding d.mu to guard writeIdx; GetFrame takes no lock —
// mirroring the teacher's triple-buffer GetFrame protocol.
func (d *Display) commitSwap() {
	d.mu.Lock()
	old := d.sharedIdx.Swap(int32(d.writeIdx))
	d.writeIdx = int(old)
	d.mu.Unlock()
}

// GetFrame swaps the consumer's buffer into the shared slot and returns
// the newest committed frame as tightly packed RGBA8, width*height*4
// bytes. Safe to call concurrently with Tick.
func (d *Display) GetFrame() []byte {
	old := d.readingIdx.Load()
	newRead := d.sharedIdx.Swap(old)
	d.readingIdx.Store(newRead)
	return d.frameBufs[newRead]
}

// purpleTintKernel is a fixed 3x3 convolution applied as an optional
// output post-filter, biasing toward magenta — a cosmetic nod to the
// CRT-phosphor tinting filters common on period-accurate emulated
// displays, grounded on the teacher's compositor-stage filter pipeline.
var purpleTintKernel = [3][3]float32{
	{0.05, 0.05, 0.05},
	{0.05, 0.60, 0.05},
	{0.05, 0.05, 0.05},
}

// ApplyPurpleTint convolves frame (tightly packed RGBA8, width x height)
// with purpleTintKernel and boosts the red/blue channels, producing a
// new buffer of the same size. Edge pixels are left unfiltered.
func ApplyPurpleTint(frame []byte, width, height int) []byte {
	out := make([]byte, len(frame))
	copy(out, frame)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			var r, g, b float32
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					idx := ((y+ky)*width + (x + kx)) * 4
					w := purpleTintKernel[ky+1][kx+1]
					r += float32(frame[idx+0]) * w
					g += float32(frame[idx+1]) * w
					b += float32(frame[idx+2]) * w
				}
			}
			idx := (y*width + x) * 4
			out[idx+0] = clampU8(int32(r*1.08) + 6)
			out[idx+1] = clampU8(int32(g * 0.96))
			out[idx+2] = clampU8(int32(b*1.10) + 8)
		}
	}
	return out
}

// Upscale resizes a tightly packed RGBA8 frame to outW x outH using
// golang.org/x/image/draw's approximate bilinear scaler, for hosts that
// want to present the fixed internal resolution at a larger window size
// without the rasterizer itself tracking an arbitrary output size.
func Upscale(frame []byte, width, height, outW, outH int) []byte {
	src := &image.RGBA{Pix: frame, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst.Pix
}
