package fbi

import (
	"context"
	"testing"
)

func TestLFBRoundTripRGB565(t *testing.T) {
	fb := NewFramebufferMemory(4096)
	want := uint16(0b10101_101010_01010)
	LFBWrite(fb, 16, LFBRGB565, want)
	got := LFBRead(fb, 16, LFBRGB565)
	if got != want {
		t.Errorf("round-trip through LFBRGB565 = %#04x, want %#04x", got, want)
	}
}

func TestDecodeLFBAddr(t *testing.T) {
	addr := uint32(5)<<11 | uint32(3)<<1
	x, y := decodeLFBAddr(addr)
	if x != 3 || y != 5 {
		t.Errorf("decodeLFBAddr(%#x) = (%d, %d), want (3, 5)", addr, x, y)
	}
}

func TestCoreLFBWriteRaw(t *testing.T) {
	c := newTestCore(t, 1)

	c.WriteFBWord(3<<1, 0xffff) // x=3, y=0, white in RGB565
	if err := c.RenderBarrier(context.Background()); err != nil {
		t.Fatalf("RenderBarrier: %v", err)
	}

	raw := c.fb.ReadWord(c.drawBufOffset + 6)
	if raw != 0xffff {
		t.Errorf("raw LFB write did not land at decoded (x,y), got %#x", raw)
	}
}

func TestCoreLFBPipelineWriteRespectsDepthTest(t *testing.T) {
	c := newTestCore(t, 1)

	c.WriteReg(RegLfbMode, bitLfbPipelineWrite)
	c.WriteReg(RegFbzMode, bitRGBWriteMask|bitDepthEnable|bitDepthWriteMask|uint32(CmpGreater)<<bitDepthFuncShift)
	c.WriteReg(RegZaColor, 100)

	c.WriteFBWord(0, 0xffff)
	if err := c.RenderBarrier(context.Background()); err != nil {
		t.Fatalf("RenderBarrier: %v", err)
	}
	if raw := c.fb.ReadWord(c.drawBufOffset); raw != 0xffff {
		t.Fatalf("first pipeline LFB write (100 > empty depth 0) should pass, got %#x", raw)
	}

	// A second write at the same pixel with a lower ZaColor fails the
	// "greater" depth test against the now-written depth of 100 and must
	// leave the colour untouched.
	c.WriteReg(RegZaColor, 50)
	c.WriteFBWord(0, 0x0000)
	if err := c.RenderBarrier(context.Background()); err != nil {
		t.Fatalf("RenderBarrier: %v", err)
	}
	if raw := c.fb.ReadWord(c.drawBufOffset); raw != 0xffff {
		t.Errorf("depth-failing pipeline LFB write changed colour, got %#x, want unchanged 0xffff", raw)
	}
}
