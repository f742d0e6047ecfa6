package fbi

import "sync/atomic"

// TriangleParams is an immutable snapshot of everything a render worker
// needs to rasterize one triangle: vertex iterators, per-scanline deltas,
// mode register bits, and the TMU/framebuffer state captured at dispatch
// time (spec.md §3 "TriangleParams"). It is built once by the dispatcher
// and never mutated afterward — render workers only read it, which is
// what lets two workers share a ring slot without locking.
type TriangleParams struct {
	// Screen-space vertex coordinates, 28.4 fixed; vertex A (X0, Y0) is
	// already half-pixel snapped, B and C are as written (spec.md §4.4).
	X0, Y0, X1, Y1, X2, Y2 int32

	// Top-left vertex and per-scanline/per-pixel deltas for colour,
	// alpha, Z and W, all in wide internal fixed formats (fixed.go).
	StartR, StartG, StartB, StartA int32 // 20.12
	DRDx, DGDx, DBDx, DADx         int32
	DRDy, DGDy, DBDy, DADy         int32

	StartZ int32 // 20.12
	DZDx   int32
	DZDy   int32

	StartW int64 // wide ~16.32
	DWDx   int64
	DWDy   int64

	StartS, StartT int64 // wide 14.32
	DSDx, DTDx     int64
	DSDy, DTDy     int64

	BaseLOD int32 // 8.8, precomputed once per triangle (spec.md §4.4)

	// Mode and configuration, captured by value so later register writes
	// cannot retroactively change an in-flight triangle.
	FbzMode   FbzMode
	FbzColor  FbzColorPath
	FogMode   FogMode
	AlphaMode AlphaMode
	Texture   TextureState

	ChromaKey  RGBA8
	ChromaMask RGBA8 // per-channel compare mask, 0xff = must match
	Color0     RGBA8
	Color1     RGBA8
	FogColor   RGBA8
	ZaColor    uint16

	FogTable *[64]FogTableEntry // shared, read-only table snapshot

	ClipLeft, ClipTop, ClipRight, ClipBottom int32

	// Destination buffer layout at dispatch time.
	DrawBufOffset uint32
	AuxBufOffset  uint32
	RowBytes      uint32

	Counters *PixelCounters
	Display  *Display
}

// PixelCounters accumulates the fbiPixelsIn/Out/Chromaed/ZFuncFail/
// AFuncFail counters (spec.md §6) across however many triangles share
// the counter set between resets. Fields are atomic.Uint32 because two
// parity-split render workers rasterize the same triangle's even/odd
// scanlines concurrently against one shared TriangleParams.Counters.
type PixelCounters struct {
	PixelsIn  atomic.Uint32
	PixelsOut atomic.Uint32
	Chromaed  atomic.Uint32
	ZFuncFail atomic.Uint32
	AFuncFail atomic.Uint32
}

// FbzMode holds the FBZ (framebuffer/Z) mode register bits relevant to
// the per-pixel pipeline (spec.md §4.3, §6 fbzMode).
type FbzMode struct {
	DepthEnable    bool
	DepthFunc      CompareFunc
	DepthWriteMask bool // write depth on pass
	RGBWriteMask   bool
	ChromaKeyEnable bool
	DitherEnable   bool
	Dither2x2      bool
	DepthWBuffer   bool // depth source is W-derived depth instead of iterated Z (spec.md §4.3 item 2)
	ZaColorEnable  bool // bias the selected depth source by ZaColor's low 16 bits
}

// CompareFunc enumerates the eight depth/alpha comparators (spec.md
// §4.3 item 1, "8 comparators").
type CompareFunc uint8

const (
	CmpNever CompareFunc = iota
	CmpLess
	CmpEqual
	CmpLEqual
	CmpGreater
	CmpNotEqual
	CmpGEqual
	CmpAlways
)

func (f CompareFunc) Test(src, ref uint32) bool {
	switch f {
	case CmpNever:
		return false
	case CmpLess:
		return src < ref
	case CmpEqual:
		return src == ref
	case CmpLEqual:
		return src <= ref
	case CmpGreater:
		return src > ref
	case CmpNotEqual:
		return src != ref
	case CmpGEqual:
		return src >= ref
	case CmpAlways:
		return true
	default:
		return true
	}
}

// FbzColorPath holds the texture/colour combiner selects (spec.md §4.3
// item 4, "multi-stage colour/alpha combiner").
type FbzColorPath struct {
	CcSub    CombineSub
	CcMsel   CombineMul
	CcAdd    CombineAdd
	CcInvert bool

	AcSub    CombineSub
	AcMsel   CombineMul
	AcAdd    CombineAdd
	AcInvert bool

	TextureEnable bool
}

type CombineSub uint8

const (
	SubZero CombineSub = iota
	SubLocal
	SubOther
)

type CombineMul uint8

const (
	MulZero CombineMul = iota
	MulLocalAlpha
	MulOtherAlpha
	MulTextureAlpha
	MulOne
)

type CombineAdd uint8

const (
	AddZero CombineAdd = iota
	AddLocal
	AddLocalAlpha
)

// FogMode selects among the five fog sub-modes of spec.md §4.3 item 7.
type FogMode struct {
	Enable   bool
	Kind     FogKind
	AddLocal bool
}

// FogTableEntry is one of the 64 {fog, dfog} pairs packed into the
// fogTable registers (spec.md §4.3 item 6, §6 fogTable): Fog is the base
// attenuation at this W-depth bucket, DFog the per-step delta used to
// interpolate within it.
type FogTableEntry struct {
	Fog, DFog uint8
}

type FogKind uint8

const (
	FogDisabled FogKind = iota
	FogConstant
	FogLinearW
	FogLinearZ
	FogTableLookup
)

// AlphaMode holds the alpha test and alpha blend configuration (spec.md
// §4.3 items 8 and 6).
type AlphaMode struct {
	TestEnable bool
	TestFunc   CompareFunc
	TestRef    uint8

	BlendEnable bool
	SrcFactor   BlendFactor
	DstFactor   BlendFactor
}

// BlendFactor enumerates the ten alpha-blend factor functions (spec.md
// §4.3 item 6).
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendDstColor
	BlendOneMinusDstColor
)
