package fbi

import (
	"math"
	"testing"
)

func TestFixedFromFloatRoundTrip(t *testing.T) {
	cases := []float64{0, 1, -1, 3.5, -3.5, 255.999}
	for _, f := range cases {
		fx := fixedFromFloat(f, fracColorZ)
		back := fixedToFloat(fx, fracColorZ)
		if math.Abs(back-f) > 1.0/float64(int64(1)<<fracColorZ) {
			t.Errorf("fixedFromFloat/ToFloat(%v) round-tripped to %v", f, back)
		}
	}
}

func TestFloatRegToFixed(t *testing.T) {
	raw := math.Float32bits(2.5)
	got := floatRegToFixed(raw, fracColorZ)
	want := int64(2.5 * float64(int64(1)<<fracColorZ))
	if got != want {
		t.Errorf("floatRegToFixed(2.5) = %d, want %d", got, want)
	}
}

func TestStRegToInternal(t *testing.T) {
	raw := uint32(100)
	got := stRegToInternal(raw)
	want := int64(100) << fracSTExtra
	if got != want {
		t.Errorf("stRegToInternal(100) = %d, want %d", got, want)
	}
}

func TestClampHelpers(t *testing.T) {
	if clampU8(-5) != 0 || clampU8(300) != 0xff || clampU8(100) != 100 {
		t.Fatal("clampU8 out of range behaviour wrong")
	}
	if clampI32(-5, 0, 10) != 0 || clampI32(15, 0, 10) != 10 || clampI32(5, 0, 10) != 5 {
		t.Fatal("clampI32 out of range behaviour wrong")
	}
}
