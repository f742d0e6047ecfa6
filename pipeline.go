package fbi

// PixelInput carries one pixel's iterated values into the per-pixel
// pipeline (spec.md §4.3): interpolated colour/alpha, Z, W, and mapped
// texture coordinates, plus its screen position for dithering and
// destination addressing.
type PixelInput struct {
	X, Y int32

	R, G, B, A int32 // 20.12, will be shifted down to 8-bit before combine
	Z          int32 // 20.12
	W          int64 // wide

	HasTexture     bool
	TexSPrime      mappedCoord
	TexTPrime      mappedCoord
	TexLOD         int32
}

// runPipeline executes the full per-pixel pipeline for one fragment
// against one destination framebuffer/aux-buffer pair, per spec.md §4.3's
// ordered stage list: depth recovery, depth test, chromakey, combine,
// fog, alpha test, alpha blend, dither, write-back.
func runPipeline(p *TriangleParams, in PixelInput, fb *FramebufferMemory, aux *FramebufferMemory, texMem *TextureMemory) {
	p.Counters.PixelsIn.Add(1)

	var wDepth uint32
	if p.FbzMode.DepthWBuffer || p.FogMode.Kind == FogTableLookup || p.FogMode.Kind == FogLinearW {
		wDepth = wDepthRecover(in.W)
	}
	depth := computeDepth(p, in, wDepth)

	destAddr := p.DrawBufOffset + uint32(in.Y)*p.RowBytes + uint32(in.X)*2
	auxAddr := p.AuxBufOffset + uint32(in.Y)*p.RowBytes + uint32(in.X)*2

	if p.FbzMode.DepthEnable {
		existing := uint32(aux.ReadWord(auxAddr))
		if !p.FbzMode.DepthFunc.Test(depth, existing) {
			p.Counters.ZFuncFail.Add(1)
			return
		}
	}

	local := RGBA8{
		R: clampU8(in.R >> fracColorZ),
		G: clampU8(in.G >> fracColorZ),
		B: clampU8(in.B >> fracColorZ),
		A: clampU8(in.A >> fracColorZ),
	}

	if p.FbzMode.ChromaKeyEnable && chromaMatch(local, p.ChromaKey, p.ChromaMask) {
		p.Counters.Chromaed.Add(1)
		return
	}

	var other RGBA8
	if in.HasTexture && p.FbzColor.TextureEnable {
		other = Sample(&p.Texture, texMem, in.TexSPrime, in.TexTPrime, in.TexLOD)
	} else {
		other = local
	}

	result := combine(p.FbzColor, local, other)

	if p.FogMode.Enable {
		result = applyFog(p, in, result, wDepth)
	}

	if p.AlphaMode.TestEnable && !p.AlphaMode.TestFunc.Test(uint32(result.A), uint32(p.AlphaMode.TestRef)) {
		p.Counters.AFuncFail.Add(1)
		return
	}

	if p.AlphaMode.BlendEnable {
		dstRaw := fb.ReadWord(destAddr)
		dst := rgb565Table[dstRaw]
		result = alphaBlend(p.AlphaMode, result, dst)
	}

	if p.FbzMode.DitherEnable {
		result = dither(result, in.X, in.Y, p.FbzMode.Dither2x2)
	}

	if p.FbzMode.RGBWriteMask {
		packed := packRGB565(result)
		fb.WriteWord(destAddr, packed)
		if p.Display != nil {
			p.Display.MarkDirty(int(in.Y))
		}
	}
	if p.FbzMode.DepthWriteMask && p.FbzMode.DepthEnable {
		aux.WriteWord(auxAddr, uint16(depth))
	}

	p.Counters.PixelsOut.Add(1)
}

// computeDepth selects the per-pixel depth-test source (spec.md §4.3
// item 2): iterated Z, right-shifted out of its 20.12 fraction and
// clamped to 16 bits, or the W-derived depth when fbzMode selects the
// W-buffer. Either source is then optionally biased by ZaColor's low 16
// bits when zaColorEnable is set.
func computeDepth(p *TriangleParams, in PixelInput, wDepth uint32) uint32 {
	var depth uint32
	if p.FbzMode.DepthWBuffer {
		depth = wDepth
	} else {
		depth = uint32(clampU16(in.Z >> fracColorZ))
	}
	if p.FbzMode.ZaColorEnable {
		depth = uint32(clampU16(int32(depth) + int32(p.ZaColor)))
	}
	return depth
}

func chromaMatch(c, key, mask RGBA8) bool {
	return (c.R&mask.R) == (key.R&mask.R) &&
		(c.G&mask.G) == (key.G&mask.G) &&
		(c.B&mask.B) == (key.B&mask.B)
}

// combine implements the spec.md §4.3 item 4 formula:
// result = (cother +/- clocal) * msel + {0, clocal, alocal}.
func combine(path FbzColorPath, local, other RGBA8) RGBA8 {
	r := combineChannel(path.CcSub, path.CcMsel, path.CcAdd, path.CcInvert, int32(local.R), int32(local.A), int32(other.R), int32(other.A))
	g := combineChannel(path.CcSub, path.CcMsel, path.CcAdd, path.CcInvert, int32(local.G), int32(local.A), int32(other.G), int32(other.A))
	b := combineChannel(path.CcSub, path.CcMsel, path.CcAdd, path.CcInvert, int32(local.B), int32(local.A), int32(other.B), int32(other.A))
	a := combineChannel(path.AcSub, path.AcMsel, path.AcAdd, path.AcInvert, int32(local.A), int32(local.A), int32(other.A), int32(other.A))
	return RGBA8{R: clampU8(r), G: clampU8(g), B: clampU8(b), A: clampU8(a)}
}

func combineChannel(sub CombineSub, msel CombineMul, add CombineAdd, invert bool, localC, localAlpha, otherC, otherAlpha int32) int32 {
	var term int32
	switch sub {
	case SubZero:
		term = otherC
	case SubLocal:
		term = otherC - localC
	case SubOther:
		term = otherC + localC
	}

	var mul int32
	switch msel {
	case MulZero:
		mul = 0
	case MulLocalAlpha:
		mul = localAlpha
	case MulOtherAlpha:
		mul = otherAlpha
	case MulTextureAlpha:
		mul = otherAlpha
	case MulOne:
		mul = 0x100
	}
	term = (term * mul) >> 8

	switch add {
	case AddZero:
	case AddLocal:
		term += localC
	case AddLocalAlpha:
		term += localAlpha
	}

	if invert {
		term = 0xff - term
	}
	return term
}

// applyFog implements the five fog sub-modes of spec.md §4.3 item 7:
// disabled, constant-color, linear-W, linear-Z and table-lookup. wDepth
// is the recovered 16-bit W-depth (always computed by the caller when
// it's needed by either the table-lookup or linear-W sub-mode).
func applyFog(p *TriangleParams, in PixelInput, c RGBA8, wDepth uint32) RGBA8 {
	var factor int32
	switch p.FogMode.Kind {
	case FogDisabled:
		return c
	case FogConstant:
		factor = 0xff
	case FogLinearW:
		factor = int32(fastlog64(uint64(in.W)) >> 4)
	case FogLinearZ:
		factor = clampI32(in.Z>>fracColorZ, 0, 0xff)
	case FogTableLookup:
		// spec.md §4.3 item 6: bits 10..15 of the W-depth index the 64
		// {fog, dfog} entries; the low 8 bits interpolate within the step.
		idx := (wDepth >> 10) & 0x3f
		entry := p.FogTable[idx]
		frac := int32(wDepth & 0xff)
		factor = int32(entry.Fog) + (int32(entry.DFog)*frac)>>10
	}
	factor = clampI32(factor, 0, 0xff)

	blend := func(src, fog uint8) uint8 {
		v := (int32(src)*(0xff-factor) + int32(fog)*factor) >> 8
		if p.FogMode.AddLocal {
			v += int32(src)
		}
		return clampU8(v)
	}
	return RGBA8{
		R: blend(c.R, p.FogColor.R),
		G: blend(c.G, p.FogColor.G),
		B: blend(c.B, p.FogColor.B),
		A: c.A,
	}
}

// alphaBlend implements the 10 blend-factor functions of spec.md §4.3
// item 6 against a pre-existing destination colour dst.
func alphaBlend(mode AlphaMode, src, dst RGBA8) RGBA8 {
	srcF := blendFactorValue(mode.SrcFactor, src, dst)
	dstF := blendFactorValue(mode.DstFactor, src, dst)

	mix := func(s, d, fs, fd uint8) uint8 {
		v := (int32(s)*int32(fs) + int32(d)*int32(fd)) >> 8
		return clampU8(v)
	}
	return RGBA8{
		R: mix(src.R, dst.R, srcF.R, dstF.R),
		G: mix(src.G, dst.G, srcF.G, dstF.G),
		B: mix(src.B, dst.B, srcF.B, dstF.B),
		A: mix(src.A, dst.A, srcF.A, dstF.A),
	}
}

func blendFactorValue(f BlendFactor, src, dst RGBA8) RGBA8 {
	inv := func(v uint8) uint8 { return 0xff - v }
	switch f {
	case BlendZero:
		return RGBA8{}
	case BlendOne:
		return RGBA8{0xff, 0xff, 0xff, 0xff}
	case BlendSrcAlpha:
		return RGBA8{src.A, src.A, src.A, src.A}
	case BlendOneMinusSrcAlpha:
		v := inv(src.A)
		return RGBA8{v, v, v, v}
	case BlendDstAlpha:
		return RGBA8{dst.A, dst.A, dst.A, dst.A}
	case BlendOneMinusDstAlpha:
		v := inv(dst.A)
		return RGBA8{v, v, v, v}
	case BlendSrcColor:
		return src
	case BlendOneMinusSrcColor:
		return RGBA8{inv(src.R), inv(src.G), inv(src.B), inv(src.A)}
	case BlendDstColor:
		return dst
	case BlendOneMinusDstColor:
		return RGBA8{inv(dst.R), inv(dst.G), inv(dst.B), inv(dst.A)}
	default:
		return RGBA8{0xff, 0xff, 0xff, 0xff}
	}
}

// dither applies the 4x4 or 2x2 ordered-dither threshold before
// truncating 8-bit channels down to the framebuffer's native 5/6-bit
// depth (spec.md §4.3 item 9); the threshold is added pre-truncation and
// the truncated 5/6-bit value is replicated back to 8 bits so downstream
// code always sees RGBA8.
func dither(c RGBA8, x, y int32, use2x2 bool) RGBA8 {
	var threshold uint8
	if use2x2 {
		threshold = ditherMatrix2[y&1][x&1]
	} else {
		threshold = ditherMatrix4[y&3][x&3]
	}

	ditherChannel := func(v uint8, bits uint) uint8 {
		add := threshold << (8 - 4 - (6 - bits))
		sum := int32(v) + int32(add)
		if sum > 0xff {
			sum = 0xff
		}
		trunc := uint8(sum) >> (8 - bits)
		if bits == 5 {
			return replicate5(trunc)
		}
		return replicate6(trunc)
	}
	return RGBA8{
		R: ditherChannel(c.R, 5),
		G: ditherChannel(c.G, 6),
		B: ditherChannel(c.B, 5),
		A: c.A,
	}
}

func packRGB565(c RGBA8) uint16 {
	r := uint16(c.R>>3) & 0x1f
	g := uint16(c.G>>2) & 0x3f
	b := uint16(c.B>>3) & 0x1f
	return r<<11 | g<<5 | b
}
