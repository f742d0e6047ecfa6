package fbi

import (
	"context"
	"math"
	"testing"
	"time"
)

func float32Reg(f float32) uint32 { return math.Float32bits(f) }

func newTestCore(t *testing.T, numWorkers int) *Core {
	t.Helper()
	c := New(Config{
		FramebufferBytes: 64 * 1024,
		AuxBufferBytes:   64 * 1024,
		TextureMemBytes:  64 * 1024,
		NumWorkers:       numWorkers,
		ScreenWidth:      32,
		ScreenHeight:     32,
		RowBytes:         32 * 2,
	})
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	t.Cleanup(func() {
		cancel()
		c.Close()
	})
	return c
}

func TestCoreFastFillSetsPixels(t *testing.T) {
	c := newTestCore(t, 1)

	c.WriteReg(RegClipLeftRight, 0|(16<<16))
	c.WriteReg(RegClipTopBottom, 0|(16<<16))
	c.WriteReg(RegColor1, 0xffff) // white in RGB565
	c.WriteReg(RegFastFillCMD, 0)

	if err := c.RenderBarrier(context.Background()); err != nil {
		t.Fatalf("RenderBarrier: %v", err)
	}

	raw := c.fb.ReadWord(0)
	if raw != 0xffff {
		t.Errorf("fastfill did not write expected colour, got %#x", raw)
	}
}

func TestCoreTriangleRaisesPixelCounters(t *testing.T) {
	c := newTestCore(t, 1)

	c.WriteReg(RegClipLeftRight, 0|(32<<16))
	c.WriteReg(RegClipTopBottom, 0|(32<<16))
	c.WriteReg(RegFbzMode, bitRGBWriteMask)

	c.WriteReg(RegVertexAx, uint32(int32(0<<fracScreen)))
	c.WriteReg(RegVertexAy, uint32(int32(0<<fracScreen)))
	c.WriteReg(RegVertexBx, uint32(int32(8<<fracScreen)))
	c.WriteReg(RegVertexBy, uint32(int32(0<<fracScreen)))
	c.WriteReg(RegVertexCx, uint32(int32(0<<fracScreen)))
	c.WriteReg(RegVertexCy, uint32(int32(8<<fracScreen)))

	c.WriteReg(RegStartR, float32Reg(255))
	c.WriteReg(RegStartG, float32Reg(255))
	c.WriteReg(RegStartB, float32Reg(255))
	c.WriteReg(RegStartA, float32Reg(255))

	c.WriteReg(RegTriangleCMD, 0)

	if err := c.RenderBarrier(context.Background()); err != nil {
		t.Fatalf("RenderBarrier: %v", err)
	}

	if c.ReadReg(RegFbiPixelsOut) == 0 {
		t.Error("expected fbiPixelsOut to be nonzero after rendering a triangle")
	}
}

func TestRenderBarrierIsIdempotent(t *testing.T) {
	c := newTestCore(t, 1)
	ctx := context.Background()
	if err := c.RenderBarrier(ctx); err != nil {
		t.Fatalf("first RenderBarrier: %v", err)
	}
	// With nothing queued in between, a second call must return
	// immediately rather than waiting on new work that never arrives.
	done := make(chan error, 1)
	go func() { done <- c.RenderBarrier(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second RenderBarrier: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RenderBarrier was not idempotent: second call did not return")
	}
}

func TestDisplaySwapProducesAFrame(t *testing.T) {
	c := newTestCore(t, 1)
	c.WriteReg(RegClipLeftRight, 0|(32<<16))
	c.WriteReg(RegClipTopBottom, 0|(32<<16))
	c.WriteReg(RegColor1, 0x07e0) // green
	c.WriteReg(RegFastFillCMD, 0)
	if err := c.RenderBarrier(context.Background()); err != nil {
		t.Fatalf("RenderBarrier: %v", err)
	}

	for y := 0; y < c.screenHeight; y++ {
		c.Display.Tick(c.fb, c.drawBufOffset, c.rowBytes)
	}
	c.Display.ArmSwap(false, 0)
	for y := 0; y < c.screenHeight; y++ {
		c.Display.Tick(c.fb, c.drawBufOffset, c.rowBytes)
	}

	frame := c.Display.GetFrame()
	if len(frame) != c.screenWidth*c.screenHeight*4 {
		t.Fatalf("GetFrame() length = %d, want %d", len(frame), c.screenWidth*c.screenHeight*4)
	}
}
