package fbi

import "context"

// triangleSetup accumulates register writes between triangles: the FBI
// register file as exposed to the host, staged until a write to
// RegTriangleCMD latches it into an immutable TriangleParams and pushes
// it to the ring (spec.md §4.7).
type triangleSetup struct {
	x0, y0, x1, y1, x2, y2 int32

	startR, startG, startB, startA int32
	startZ                         int32
	startW                         int64
	startS, startT                 int64

	drdx, dgdx, dbdx, dadx int32
	dzdx                   int32
	dwdx                   int64
	dsdx, dtdx             int64

	drdy, dgdy, dbdy, dady int32
	dzdy                   int32
	dwdy                   int64
	dsdy, dtdy             int64

	fbzMode   FbzMode
	fbzColor  FbzColorPath
	fogMode   FogMode
	alphaMode AlphaMode

	chromaKey RGBA8
	color0    RGBA8
	color1    RGBA8
	fogColor  RGBA8
	zaColor   uint16

	lfbMode LfbMode

	clipLeft, clipTop, clipRight, clipBottom int32

	textureModeRaw uint32
	tLODRaw        uint32
	texBaseAddr    [lodMaxLevel + 1]uint32
	texWidth0      int
	texHeight0     int

	ncc     [2]NCCSource
	nccDirty [2]bool
}

// runDispatcher drains c.fifo, applying register writes to the staged
// triangleSetup and pushing a TriangleParams to c.ring on every
// RegTriangleCMD write (spec.md §4.7). It runs on its own goroutine,
// started by Core.Start.
func (c *Core) runDispatcher(ctx context.Context) {
	for {
		entry, err := c.fifo.Dequeue(ctx)
		if err != nil {
			return
		}
		c.applyEntry(entry)
		c.fifo.MarkProcessed()
	}
}

func (c *Core) applyEntry(e fifoEntry) {
	switch e.Kind {
	case CmdRegWrite:
		c.applyRegWrite(e.Addr, e.Val)
	case CmdFBWriteWord:
		// spec.md §4.7: a LFB write first drains all in-flight render
		// workers, then runs the LFB write path, so it can never race a
		// worker still rasterizing a triangle into the same buffer.
		c.waitRingDrain(context.Background())
		c.lfbWriteWord(e.Addr, uint16(e.Val))
	case CmdFBWriteLong:
		c.waitRingDrain(context.Background())
		c.lfbWriteWord(e.Addr, uint16(e.Val))
		c.lfbWriteWord(e.Addr+2, uint16(e.Val>>16))
	case CmdTexWriteLong:
		// spec.md §4.7: only TMU select == 0 accepts a direct texel write.
		if (e.Addr>>20)&0x3 == 0 {
			c.waitRingDrain(context.Background())
			c.texMem.WriteLong(e.Addr, e.Val)
		}
	}
}

// lfbWriteWord applies one 16-bit LFB store, either as a raw format
// conversion or, when lfbMode selects the 3D write path, gated by the
// current depth test (spec.md §4.10, §8 "round-trip LFB").
func (c *Core) lfbWriteWord(addr uint32, raw uint16) {
	x, y := decodeLFBAddr(addr)
	destAddr := c.drawBufOffset + uint32(y)*c.rowBytes + uint32(x)*2
	if c.setup.lfbMode.PipelineWrite {
		c.lfbPipelineWrite(x, y, destAddr, raw)
		return
	}
	LFBWrite(c.fb, destAddr, c.setup.lfbMode.Format, raw)
	c.Display.MarkDirty(int(y))
}

// lfbPipelineWrite implements lfbMode's bit-8 "3D write path": the
// incoming colour is still subject to the depth test against ZaColor
// (an LFB write carries no iterated Z of its own) and the RGB/depth
// write masks, unlike the raw path which stores unconditionally. This is
// what breaks the LFB round-trip property when the 3D write path is
// selected (spec.md §8).
func (c *Core) lfbPipelineWrite(x, y int32, destAddr uint32, raw uint16) {
	c.counters.PixelsIn.Add(1)
	auxAddr := c.auxBufOffset + uint32(y)*c.rowBytes + uint32(x)*2
	depth := uint32(c.setup.zaColor)
	if c.setup.fbzMode.DepthEnable {
		existing := uint32(c.aux.ReadWord(auxAddr))
		if !c.setup.fbzMode.DepthFunc.Test(depth, existing) {
			c.counters.ZFuncFail.Add(1)
			return
		}
	}
	if c.setup.fbzMode.RGBWriteMask {
		LFBWrite(c.fb, destAddr, c.setup.lfbMode.Format, raw)
		c.Display.MarkDirty(int(y))
	}
	if c.setup.fbzMode.DepthWriteMask && c.setup.fbzMode.DepthEnable {
		c.aux.WriteWord(auxAddr, uint16(depth))
	}
	c.counters.PixelsOut.Add(1)
}

func (c *Core) applyRegWrite(addr, val uint32) {
	addr = remapRegAddr(c.fbiInit[3], addr)
	s := &c.setup
	switch {
	case addr == RegFbzMode:
		s.fbzMode = decodeFbzMode(val)
	case addr == RegFbzColorPath:
		s.fbzColor = decodeFbzColorPath(val)
	case addr == RegFogMode:
		s.fogMode = decodeFogMode(val)
	case addr == RegAlphaMode:
		s.alphaMode = decodeAlphaMode(val)
	case addr == RegChromaKey:
		s.chromaKey = rgb565Table[val&0xffff]
	case addr == RegColor0:
		s.color0 = rgb565Table[val&0xffff]
	case addr == RegColor1:
		s.color1 = rgb565Table[val&0xffff]
	case addr == RegZaColor:
		s.zaColor = uint16(val)
	case addr == RegClipLeftRight:
		s.clipLeft = int32(val & 0xffff)
		s.clipRight = int32(val >> 16)
	case addr == RegClipTopBottom:
		s.clipTop = int32(val & 0xffff)
		s.clipBottom = int32(val >> 16)
	case addr == RegLfbMode:
		s.lfbMode = decodeLfbMode(val)
	case addr == RegFogColor:
		s.fogColor = rgb565Table[val&0xffff]

	case addr == RegVertexAx:
		s.x0 = snapHalfPixel(int32RegToFixed(val))
	case addr == RegVertexAy:
		s.y0 = snapHalfPixel(int32RegToFixed(val))
	case addr == RegVertexBx:
		s.x1 = int32RegToFixed(val)
	case addr == RegVertexBy:
		s.y1 = int32RegToFixed(val)
	case addr == RegVertexCx:
		s.x2 = int32RegToFixed(val)
	case addr == RegVertexCy:
		s.y2 = int32RegToFixed(val)

	case addr == RegStartR:
		s.startR = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegStartG:
		s.startG = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegStartB:
		s.startB = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegStartA:
		s.startA = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegStartZ:
		s.startZ = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegStartS:
		s.startS = stRegToInternal(val)
	case addr == RegStartT:
		s.startT = stRegToInternal(val)
	case addr == RegStartW:
		s.startW = floatRegToFixed(val, fracW)

	case addr == RegDRdX:
		s.drdx = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegDGdX:
		s.dgdx = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegDBdX:
		s.dbdx = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegDAdX:
		s.dadx = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegDZdX:
		s.dzdx = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegDSdX:
		s.dsdx = stRegToInternal(val)
	case addr == RegDTdX:
		s.dtdx = stRegToInternal(val)
	case addr == RegDWdX:
		s.dwdx = floatRegToFixed(val, fracW)

	case addr == RegDRdY:
		s.drdy = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegDGdY:
		s.dgdy = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegDBdY:
		s.dbdy = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegDAdY:
		s.dady = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegDZdY:
		s.dzdy = int32(floatRegToFixed(val, fracColorZ))
	case addr == RegDSdY:
		s.dsdy = stRegToInternal(val)
	case addr == RegDTdY:
		s.dtdy = stRegToInternal(val)
	case addr == RegDWdY:
		s.dwdy = floatRegToFixed(val, fracW)

	case addr == RegTriangleCMD:
		c.latchTriangle()
	case addr == RegFastFillCMD:
		c.fastFill()
	case addr == RegSwapBufferCMD:
		// spec.md §6 swapbufferCMD: bit 0 = sync (commit immediately),
		// bits 1..8 = retrace interval to wait through otherwise.
		sync := val&1 != 0
		interval := int((val >> 1) & 0xff)
		c.Display.ArmSwap(sync, interval)

	case addr == RegTexSize:
		c.texWidth0 = int(val & 0xffff)
		c.texHeight0 = int((val >> 16) & 0xffff)
	case addr == RegTextureMode:
		if TextureFormat((val&bitTexFormatMask)>>bitTexFormatShift) > TexAPAL88 {
			break // invalid format encoding: the write is ignored
		}
		s.textureModeRaw = val
	case addr == RegTLOD:
		s.tLODRaw = val
	case addr >= RegTexBaseAddrBase && addr < RegTexBaseAddrBase+4*(lodMaxLevel+1):
		idx := (addr - RegTexBaseAddrBase) / 4
		s.texBaseAddr[idx] = val

	case addr >= RegNccTableBase && addr < RegNccTableBase+2*12*4:
		c.applyNccWrite(addr, val)

	case addr >= RegTexPaletteBase && addr < RegTexPaletteBase+256*4:
		idx := (addr - RegTexPaletteBase) / 4
		c.texPalette[idx] = RGBA8{R: uint8(val), G: uint8(val >> 8), B: uint8(val >> 16), A: uint8(val >> 24)}

	case addr >= RegFogTableBase && addr < RegFogTableBase+32*4:
		// Each 32-bit register packs two {fog, dfog} pairs (spec.md §4.3
		// item 6: 32 registers * 2 pairs = 64 entries).
		idx := (addr - RegFogTableBase) / 4
		c.fogTable[idx*2] = FogTableEntry{Fog: uint8(val), DFog: uint8(val >> 8)}
		c.fogTable[idx*2+1] = FogTableEntry{Fog: uint8(val >> 16), DFog: uint8(val >> 24)}

	case addr >= RegFbiInit0 && addr <= RegFbiInit4:
		c.fbiInit[(addr-RegFbiInit0)/4] = val
	case addr == RegVideoDimensions:
		c.applyVideoDimensions(val)
	case addr == RegBackPorch:
		c.backPorch = val
	case addr == RegHSync:
		c.hSync = val
	case addr == RegVSync:
		c.vSync = val
	case addr == RegClutData:
		c.applyClutWrite(val)
	case addr == RegDacData:
		// opaque hook: no downstream DAC model (spec.md §9)
	}
}

func (c *Core) applyNccWrite(addr, val uint32) {
	rel := addr - RegNccTableBase
	table := rel / (12 * 4)
	off := (rel % (12 * 4)) / 4
	switch {
	case off < 4:
		c.setup.ncc[table].Y[off] = val
	case off < 8:
		c.setup.ncc[table].I[off-4] = int32(val)
	default:
		c.setup.ncc[table].Q[off-8] = int32(val)
	}
	c.setup.nccDirty[table] = true
}

// latchTriangle builds an immutable TriangleParams from the current
// register staging area and pushes it to the parameter ring (spec.md
// §4.7). This is the only place a TriangleParams is constructed.
func (c *Core) latchTriangle() {
	s := &c.setup

	tex := TextureState{Enabled: s.fbzColor.TextureEnable}
	if tex.Enabled {
		format, perspective, bilinear, clampS, clampT, mirrorS, mirrorT := decodeTextureMode(s.textureModeRaw)
		tex.Format = format
		tex.Perspective = perspective
		tex.Bilinear = bilinear
		tex.ClampS = clampS
		tex.ClampT = clampT
		tex.MirrorS = mirrorS
		tex.MirrorT = mirrorT
		tex.LODBias = int32(int16(s.tLODRaw & 0xffff))
		tex.LODMin = int32(int16((s.tLODRaw >> 16) & 0xff))
		tex.LODMax = int32(int16((s.tLODRaw >> 24) & 0xff))
		tex.LODs = BuildLODTable(s.texBaseAddr[0], c.texWidth0, c.texHeight0, tex.Format.BytesPerTexel())
		switch tex.Format {
		case TexY4I2Q2, TexPAL8:
			tex.Palette = c.nccPaletteFor(tex.Format)
		default:
			tex.Palette = &c.texPalette
		}
	}

	fogTableSnapshot := c.fogTable

	p := &TriangleParams{
		X0: s.x0, Y0: s.y0, X1: s.x1, Y1: s.y1, X2: s.x2, Y2: s.y2,
		StartR: s.startR, StartG: s.startG, StartB: s.startB, StartA: s.startA,
		DRDx: s.drdx, DGDx: s.dgdx, DBDx: s.dbdx, DADx: s.dadx,
		DRDy: s.drdy, DGDy: s.dgdy, DBDy: s.dbdy, DADy: s.dady,
		StartZ: s.startZ, DZDx: s.dzdx, DZDy: s.dzdy,
		StartW: s.startW, DWDx: s.dwdx, DWDy: s.dwdy,
		StartS: s.startS, StartT: s.startT, DSDx: s.dsdx, DTDx: s.dtdx, DSDy: s.dsdy, DTDy: s.dtdy,
		BaseLOD:    EstimateLOD(s.dwdx, s.dwdy, s.startW),
		FbzMode:    s.fbzMode,
		FbzColor:   s.fbzColor,
		FogMode:    s.fogMode,
		AlphaMode:  s.alphaMode,
		Texture:    tex,
		ChromaKey:  s.chromaKey,
		ChromaMask: RGBA8{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Color0:     s.color0,
		Color1:     s.color1,
		FogColor:   s.fogColor,
		ZaColor:    s.zaColor,
		FogTable:   &fogTableSnapshot,
		ClipLeft:   s.clipLeft, ClipTop: s.clipTop, ClipRight: s.clipRight, ClipBottom: s.clipBottom,
		DrawBufOffset: c.drawBufOffset,
		AuxBufOffset:  c.auxBufOffset,
		RowBytes:      c.rowBytes,
		Counters:      &c.counters,
		Display:       c.Display,
	}

	ctx := context.Background()
	c.ring.Push(ctx, p)
}

// fastFill bypasses the per-pixel pipeline entirely and fills the clip
// rectangle of the draw buffer with color1, the dedicated constant-colour
// clear path every Voodoo-class chip exposes alongside triangle
// rendering (spec.md §4's "fastfill" testable property).
func (c *Core) fastFill() {
	s := &c.setup
	packed := packRGB565(s.color1)
	left, right := s.clipLeft, s.clipRight
	top, bottom := s.clipTop, s.clipBottom
	if right > int32(c.screenWidth) {
		right = int32(c.screenWidth)
	}
	if bottom > int32(c.screenHeight) {
		bottom = int32(c.screenHeight)
	}
	for y := top; y < bottom; y++ {
		rowStart := c.drawBufOffset + uint32(y)*c.rowBytes
		for x := left; x < right; x++ {
			c.fb.WriteWord(rowStart+uint32(x)*2, packed)
		}
		c.Display.MarkDirty(int(y))
	}
}

func (c *Core) nccPaletteFor(format TextureFormat) *Palette {
	table := 0
	if format == TexPAL8 {
		table = 1
	}
	if c.setup.nccDirty[table] || c.nccCache[table] == nil {
		c.nccCache[table] = RebuildNCC(&c.setup.ncc[table])
		c.setup.nccDirty[table] = false
	}
	return c.nccCache[table]
}

// applyVideoDimensions updates the bounds fastFill clamps to; the
// rasterizer clips only to the clip registers. Display itself is
// allocated once at Core construction and does not resize: a write here
// narrower than or equal to Display's own geometry is fully honored, a
// write requesting a larger screen only affects fastFill clamping and has no
// addressable scan-out beyond Display's fixed buffers (spec.md §4.9's
// fixed-resolution scan-out model).
func (c *Core) applyVideoDimensions(val uint32) {
	c.screenWidth = int(val & 0xfff)
	c.screenHeight = int((val >> 12) & 0xfff)
}

func (c *Core) applyClutWrite(val uint32) {
	idx := (val >> 24) & 0xff
	c.clut[idx] = RGBA8{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 0xff}
}
