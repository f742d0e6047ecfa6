package fbi

import "testing"

func TestDecodeTexelRGB565WhiteAndBlack(t *testing.T) {
	white := DecodeTexel(TexR5G6B5, 0xffff, nil)
	if white != (RGBA8{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("RGB565 0xffff = %+v, want opaque white", white)
	}
	black := DecodeTexel(TexR5G6B5, 0x0000, nil)
	if black != (RGBA8{0, 0, 0, 0xff}) {
		t.Errorf("RGB565 0x0000 = %+v, want opaque black", black)
	}
}

func TestDecodeTexelARGB1555Alpha(t *testing.T) {
	opaque := DecodeTexel(TexARGB1555, 0x8000, nil)
	if opaque.A != 0xff {
		t.Errorf("ARGB1555 alpha bit set should decode A=0xff, got %d", opaque.A)
	}
	transparent := DecodeTexel(TexARGB1555, 0x0000, nil)
	if transparent.A != 0 {
		t.Errorf("ARGB1555 alpha bit clear should decode A=0, got %d", transparent.A)
	}
}

func TestDecodeTexelPAL8UsesPalette(t *testing.T) {
	var pal Palette
	pal[5] = RGBA8{R: 10, G: 20, B: 30, A: 40}
	got := DecodeTexel(TexPAL8, 5, &pal)
	if got != pal[5] {
		t.Errorf("PAL8 decode = %+v, want palette entry %+v", got, pal[5])
	}
}

func TestBytesPerTexel(t *testing.T) {
	cases := map[TextureFormat]int{
		TexRGB332:   1,
		TexI8:       1,
		TexR5G6B5:   2,
		TexARGB4444: 2,
	}
	for format, want := range cases {
		if got := format.BytesPerTexel(); got != want {
			t.Errorf("%v.BytesPerTexel() = %d, want %d", format, got, want)
		}
	}
}

func TestReplicateWidening(t *testing.T) {
	if replicate5(0x1f) != 0xff {
		t.Errorf("replicate5(0x1f) = %#x, want 0xff", replicate5(0x1f))
	}
	if replicate5(0) != 0 {
		t.Errorf("replicate5(0) = %#x, want 0", replicate5(0))
	}
	if replicate6(0x3f) != 0xff {
		t.Errorf("replicate6(0x3f) = %#x, want 0xff", replicate6(0x3f))
	}
}

func TestBlend4EqualWeightsAverages(t *testing.T) {
	samples := [4]RGBA8{
		{R: 0, G: 0, B: 0, A: 255},
		{R: 255, G: 0, B: 0, A: 255},
		{R: 0, G: 255, B: 0, A: 255},
		{R: 255, G: 255, B: 0, A: 255},
	}
	weights := [4]int32{64, 64, 64, 64} // sum 256
	got := blend4(samples, weights)
	if got.R != 127 || got.G != 127 {
		t.Errorf("blend4 equal-weight average = %+v, want R=G=127", got)
	}
}
