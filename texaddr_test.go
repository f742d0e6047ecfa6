package fbi

import "testing"

func TestWrapCoordWrap(t *testing.T) {
	if got := wrapCoord(10, 7, false, false); got != 2 {
		t.Errorf("wrapCoord(10, mask 7, wrap) = %d, want 2", got)
	}
	if got := wrapCoord(-1, 7, false, false); got != 7 {
		t.Errorf("wrapCoord(-1, mask 7, wrap) = %d, want 7", got)
	}
}

func TestWrapCoordClamp(t *testing.T) {
	if got := wrapCoord(-5, 15, false, true); got != 0 {
		t.Errorf("wrapCoord(-5, clamp) = %d, want 0", got)
	}
	if got := wrapCoord(99, 15, false, true); got != 15 {
		t.Errorf("wrapCoord(99, clamp) = %d, want 15", got)
	}
	if got := wrapCoord(4, 15, false, true); got != 4 {
		t.Errorf("wrapCoord(4, clamp) = %d, want 4 (unchanged when in range)", got)
	}
}

func TestWrapCoordMirror(t *testing.T) {
	// bit 0x1000 set selects the mirrored half; XOR with the mask
	// reflects it back into range.
	got := wrapCoord(0x1003, 0xf, true, false)
	want := int32(0x1003) ^ 0xf
	want &= 0xf
	if got != want&0xf {
		t.Errorf("wrapCoord mirror = %d, want %d", got, want&0xf)
	}
}

func TestBuildLODTableHalvesAndFloors(t *testing.T) {
	table := BuildLODTable(0x1000, 8, 4, 1)
	if table[0].WidthMask != 7 || table[0].HeightMask != 3 {
		t.Fatalf("level 0 dims wrong: %+v", table[0])
	}
	if table[1].WidthMask != 3 || table[1].HeightMask != 1 {
		t.Fatalf("level 1 dims wrong: %+v", table[1])
	}
	// Height floors at 1 texel (mask 0) once it can't halve further.
	if table[2].HeightMask != 0 {
		t.Fatalf("level 2 height should floor at 1 texel, got mask %d", table[2].HeightMask)
	}
	if table[lodMaxLevel].WidthMask != 0 {
		t.Fatalf("deepest level should floor to a single texel, got mask %d", table[lodMaxLevel].WidthMask)
	}
	// Base addresses must strictly increase (each level occupies its
	// predecessor's texel footprint).
	for i := 1; i <= lodMaxLevel; i++ {
		if table[i].Base <= table[i-1].Base {
			t.Fatalf("level %d base %d did not increase past level %d base %d", i, table[i].Base, i-1, table[i-1].Base)
		}
	}
}

func TestMapPerspectiveDisabledIsLinear(t *testing.T) {
	tex := &TextureState{Perspective: false, LODMin: 0, LODMax: 8 << 8}
	s := int64(5) << (fracST - fracBitsAtLOD0) // exactly 5 after the non-perspective shift
	tv := int64(3) << (fracST - fracBitsAtLOD0)
	sPrime, tPrime, lod := MapPerspective(s, tv, 1<<32, 0, tex)
	if lod != 0 {
		t.Errorf("non-perspective lod = %d, want 0 (clamped base)", lod)
	}
	if sPrime != 5 || tPrime != 3 {
		t.Errorf("expected mapped coordinates (5,3), got s'=%d t'=%d", sPrime, tPrime)
	}
}

func TestMapPerspectiveZeroWClampsInvW(t *testing.T) {
	tex := &TextureState{Perspective: true, LODMin: -128, LODMax: 127 << 8}
	sPrime, tPrime, _ := MapPerspective(1<<32, 1<<32, 0, 0, tex)
	if sPrime != 0 || tPrime != 0 {
		t.Errorf("W=0 should map to zero-valued inv_w, got s'=%d t'=%d", sPrime, tPrime)
	}
}
