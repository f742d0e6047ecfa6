package fbi

// TextureFormat enumerates the eleven source texel formats of spec.md §4.1.
type TextureFormat uint8

const (
	TexRGB332 TextureFormat = iota
	TexY4I2Q2
	TexA8
	TexI8
	TexAI8
	TexPAL8
	TexR5G6B5
	TexARGB1555
	TexARGB4444
	TexA8I8
	TexAPAL88
)

// RGBA8 is a decoded, straight-alpha 8-bit-per-channel colour.
type RGBA8 struct {
	R, G, B, A uint8
}

// replicate5 expands a 5-bit field to 8 bits by replicating its top 3
// bits into the low bits, the standard "bit replication" widening used
// throughout the pixel-format codecs and the framebuffer read-back path.
func replicate5(v uint8) uint8 { return (v << 3) | (v >> 2) }
func replicate6(v uint8) uint8 { return (v << 2) | (v >> 4) }
func replicate4(v uint8) uint8 { return (v << 4) | v }

// Precomputed 65536-entry decode tables for the 16-bit source formats,
// and a 256-entry table for RGB332 — spec.md §4.1 "16-bit formats decode
// via precomputed 65536-entry tables". Built once in init(), read-only
// thereafter (spec.md §9).
var (
	rgb332Table    [256]RGBA8
	rgb565Table    [65536]RGBA8
	argb1555Table  [65536]RGBA8
	argb4444Table  [65536]RGBA8
	ai88Table      [65536]RGBA8
)

func init() {
	for i := 0; i < 256; i++ {
		r := uint8((i >> 5) & 0x7)
		g := uint8((i >> 2) & 0x7)
		b := uint8(i & 0x3)
		rgb332Table[i] = RGBA8{
			R: (r << 5) | (r << 2) | (r >> 1),
			G: (g << 5) | (g << 2) | (g >> 1),
			B: (b << 6) | (b << 4) | (b << 2) | b,
			A: 0xff,
		}
	}
	for i := 0; i < 65536; i++ {
		r := uint8((i >> 11) & 0x1f)
		g := uint8((i >> 5) & 0x3f)
		b := uint8(i & 0x1f)
		rgb565Table[i] = RGBA8{R: replicate5(r), G: replicate6(g), B: replicate5(b), A: 0xff}

		a1 := uint8((i >> 15) & 0x1)
		r1 := uint8((i >> 10) & 0x1f)
		g1 := uint8((i >> 5) & 0x1f)
		b1 := uint8(i & 0x1f)
		av := uint8(0)
		if a1 != 0 {
			av = 0xff
		}
		argb1555Table[i] = RGBA8{R: replicate5(r1), G: replicate5(g1), B: replicate5(b1), A: av}

		a4 := uint8((i >> 12) & 0xf)
		r4 := uint8((i >> 8) & 0xf)
		g4 := uint8((i >> 4) & 0xf)
		b4 := uint8(i & 0xf)
		argb4444Table[i] = RGBA8{R: replicate4(r4), G: replicate4(g4), B: replicate4(b4), A: replicate4(a4)}

		ai88Table[i] = RGBA8{R: uint8(i & 0xff), G: uint8(i & 0xff), B: uint8(i & 0xff), A: uint8((i >> 8) & 0xff)}
	}
}

// Palette is a 256-entry RGBA8 lookup used by indexed and NCC texel
// formats; TriangleParams carries an immutable snapshot of one (spec.md
// §3 "Palette snapshot").
type Palette [256]RGBA8

// NCCSource holds the raw Y/I/Q quadrant registers for one of the two NCC
// tables (spec.md §4.1, §6 nccTable[0..1]).
type NCCSource struct {
	Y [4]uint32 // four Y quadrants, 4 bytes each packing 4 Y values
	I [4]int32  // I quadrant coefficients
	Q [4]int32  // Q quadrant coefficients
}

// RebuildNCC converts the four Y quadrants plus I/Q chroma tables into a
// 256-entry RGB palette: texel index n takes Y from byte (n&3) of the Y
// word ((n>>5)&3), and I/Q from nibble (n&7) of the I/Q words ((n>>3)&3).
func RebuildNCC(src *NCCSource) *Palette {
	var p Palette
	for n := 0; n < 256; n++ {
		yQuad := (n >> 5) & 0x3
		yPos := n & 0x1f
		yByte := byte(src.Y[yQuad] >> uint((yPos&3)*8))
		y := int32(yByte&0xff) * 2 // Y is a 4-bit-ish luma scaled into an 8-bit range

		iQuad := (n >> 3) & 0x3
		iPos := n & 0x7
		i := src.I[iQuad] >> uint(iPos*4)
		q := src.Q[iQuad] >> uint(iPos*4)

		r := y + i
		g := y - (i >> 1) - (q >> 1)
		b := y + q

		p[n] = RGBA8{R: clampU8(r), G: clampU8(g), B: clampU8(b), A: 0xff}
	}
	return &p
}

// DecodeTexel decodes a single raw texel value (8-bit formats are passed
// in the low byte, 16-bit formats use the full value) of the given
// format into RGBA8, consulting pal for indexed/NCC formats. Grounded on
// vid_voodoo.c's tex_read format switch.
func DecodeTexel(format TextureFormat, raw uint16, pal *Palette) RGBA8 {
	switch format {
	case TexRGB332:
		return rgb332Table[raw&0xff]
	case TexY4I2Q2:
		return pal[raw&0xff]
	case TexA8:
		v := uint8(raw & 0xff)
		return RGBA8{R: v, G: v, B: v, A: v}
	case TexI8:
		v := uint8(raw & 0xff)
		return RGBA8{R: v, G: v, B: v, A: 0xff}
	case TexAI8:
		v := replicate4(uint8(raw & 0x0f))
		a := replicate4(uint8((raw >> 4) & 0x0f))
		return RGBA8{R: v, G: v, B: v, A: a}
	case TexPAL8:
		return pal[raw&0xff]
	case TexR5G6B5:
		return rgb565Table[raw]
	case TexARGB1555:
		return argb1555Table[raw]
	case TexARGB4444:
		return argb4444Table[raw]
	case TexA8I8:
		v := uint8(raw & 0xff)
		return RGBA8{R: v, G: v, B: v, A: uint8(raw >> 8)}
	case TexAPAL88:
		c := pal[raw&0xff]
		c.A = uint8(raw >> 8)
		return c
	default:
		fatalf("pixelformat", "unknown texture format %d", format)
		return RGBA8{}
	}
}

// BytesPerTexel reports 1 for 8-bit formats, 2 for 16-bit formats.
func (f TextureFormat) BytesPerTexel() int {
	switch f {
	case TexR5G6B5, TexARGB1555, TexARGB4444, TexA8I8, TexAPAL88:
		return 2
	default:
		return 1
	}
}

// blend4 blends four already-decoded texel samples with 8-bit (0..256
// normalized to 0..255 with a final >>8) corner weights, used by the
// bilinear sampler (spec.md §4.1 "four taps are decoded independently
// and blended in 16-bit arithmetic").
func blend4(samples [4]RGBA8, weights [4]int32) RGBA8 {
	var r, g, b, a int32
	for i := 0; i < 4; i++ {
		r += int32(samples[i].R) * weights[i]
		g += int32(samples[i].G) * weights[i]
		b += int32(samples[i].B) * weights[i]
		a += int32(samples[i].A) * weights[i]
	}
	return RGBA8{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
