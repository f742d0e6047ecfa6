package fbi

import "testing"

// solidTriangleParams builds an axis-aligned right triangle with legs of
// 4 pixels, vertices on pixel centres, constant colour and no
// texture/fog/blend. Edges are inclusive, so it covers 15 pixels: row y
// (0..4) spans x = 0..4-y.
func solidTriangleParams(rowBytes uint32) *TriangleParams {
	toFixed := func(v int32) int32 { return v << fracScreen }
	return &TriangleParams{
		X0: toFixed(0) | 0x8, Y0: toFixed(0) | 0x8,
		X1: toFixed(4) | 0x8, Y1: toFixed(0) | 0x8,
		X2: toFixed(0) | 0x8, Y2: toFixed(4) | 0x8,
		StartR: 0xff << fracColorZ, StartG: 0xff << fracColorZ, StartB: 0xff << fracColorZ, StartA: 0xff << fracColorZ,
		FbzMode:   FbzMode{RGBWriteMask: true},
		FbzColor:  FbzColorPath{CcSub: SubZero, CcMsel: MulOne, AcSub: SubZero, AcMsel: MulOne},
		ClipLeft:  0, ClipTop: 0, ClipRight: 16, ClipBottom: 16,
		RowBytes:  rowBytes,
		Counters:  &PixelCounters{},
	}
}

func TestRasterizeCoverageMatchesHalfSquare(t *testing.T) {
	const w, h = 16, 16
	rowBytes := uint32(w * 2)
	fb := NewFramebufferMemory(rowBytes * h)
	aux := NewFramebufferMemory(rowBytes * h)
	texMem := NewTextureMemory(1024)

	p := solidTriangleParams(rowBytes)
	Rasterize(p, 0, 1, fb, aux, texMem)

	out := p.Counters.PixelsOut.Load()
	if out == 0 {
		t.Fatal("expected some pixels rasterized, got zero")
	}
	// The fixture covers 15 pixels (see solidTriangleParams); assert a
	// sane range rather than pinning the exact edge-rule-dependent count.
	if out < 4 || out > 16 {
		t.Errorf("PixelsOut = %d, want between 4 and 16", out)
	}
}

func TestRasterizeParityIndependence(t *testing.T) {
	const w, h = 16, 16
	rowBytes := uint32(w * 2)

	fb1 := NewFramebufferMemory(rowBytes * h)
	aux1 := NewFramebufferMemory(rowBytes * h)
	tex1 := NewTextureMemory(1024)
	p1 := solidTriangleParams(rowBytes)
	Rasterize(p1, 0, 1, fb1, aux1, tex1)

	fb2 := NewFramebufferMemory(rowBytes * h)
	aux2 := NewFramebufferMemory(rowBytes * h)
	tex2 := NewTextureMemory(1024)
	pEven := solidTriangleParams(rowBytes)
	pOdd := solidTriangleParams(rowBytes)
	pEven.Counters = pOdd.Counters // both workers share one triangle's counters
	Rasterize(pEven, 0, 2, fb2, aux2, tex2)
	Rasterize(pOdd, 1, 2, fb2, aux2, tex2)

	out1, out2 := p1.Counters.PixelsOut.Load(), pEven.Counters.PixelsOut.Load()
	if out1 != out2 {
		t.Fatalf("1-worker PixelsOut=%d, 2-worker combined PixelsOut=%d, want equal", out1, out2)
	}
	for i := range fb1.bytes {
		if fb1.bytes[i] != fb2.bytes[i] {
			t.Fatalf("framebuffer byte %d differs between 1-worker and 2-worker runs: %02x vs %02x", i, fb1.bytes[i], fb2.bytes[i])
		}
	}
}

func TestSnapHalfPixel(t *testing.T) {
	if got := snapHalfPixel(0); got != 0x8 {
		t.Errorf("snapHalfPixel(0) = %#x, want 0x8", got)
	}
	if got := snapHalfPixel(0x10); got != 0x18 {
		t.Errorf("snapHalfPixel(0x10) = %#x, want 0x18", got)
	}
}

func TestEstimateLODZeroGradientIsZero(t *testing.T) {
	if got := EstimateLOD(0, 0, 1<<32); got != 0 {
		t.Errorf("EstimateLOD with zero gradient = %d, want 0", got)
	}
}
