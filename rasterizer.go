package fbi

import "github.com/chewxy/math32"

// snapHalfPixel adds +0.5 (0x8 in 28.4 fixed) to a vertex coordinate, the
// half-pixel vertex snap of spec.md §4.4 applied to vertex A only. It
// preserves the coordinate's existing sub-pixel fraction rather than
// rounding to the nearest pixel center, so two triangles sharing a
// non-integer A vertex still share an edge exactly.
func snapHalfPixel(v int32) int32 {
	return v + 0x8
}

// EstimateLOD computes the base (pre per-pixel-bias) LOD for a triangle
// from its W gradient, per spec.md §4.4: larger |dW/dx|+|dW/dy| relative
// to W means the triangle is more foreshortened and should start at a
// coarser mip level. Uses math32.Log2 for the initial per-triangle
// estimate; the perspective per-pixel path (texaddr.go) refines this
// with the exact fastlog64 table.
func EstimateLOD(dwdx, dwdy, w int64) int32 {
	if w == 0 {
		return 0
	}
	ratio := float32(absInt64(dwdx)+absInt64(dwdy)) / float32(w)
	if ratio <= 0 {
		return 0
	}
	lod := math32.Log2(ratio)
	if lod < 0 {
		lod = 0
	}
	return int32(lod * 256)
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// edge is one triangle edge's integer walk state between two vertices
// already sorted by ascending Y: a fixed-point x position stepped by a
// per-scanline slope. All values are 28.4 fixed (fixed.go fracScreen).
type edge struct {
	x     int64 // 28.4, scaled up to 64 bits during the walk for precision
	dxdy  int64 // 28.4-per-scanline slope, Q fixed further scaled by 1<<16
	yTop  int32
	yBot  int32
}

func newEdge(x0, y0, x1, y1 int32) edge {
	dy := int64(y1 - y0)
	if dy == 0 {
		return edge{x: int64(x0) << 16, dxdy: 0, yTop: y0, yBot: y1}
	}
	dxdy := (int64(x1-x0) << 16) / dy
	return edge{x: int64(x0) << 16, dxdy: dxdy, yTop: y0, yBot: y1}
}

// xAt returns the edge's x position (28.4 fixed) at scanline y.
func (e edge) xAt(y int32) int32 {
	steps := int64(y - e.yTop)
	return int32((e.x + steps*e.dxdy) >> 16)
}

// Rasterize walks p's triangle and runs the per-pixel pipeline on every
// covered sample this worker's parity owns (spec.md §4.4, §4.6). With
// numWorkers == 1, parity must be 0 and every scanline is processed;
// with numWorkers == 2, each worker only processes scanlines where
// y&1 == parity, and the two workers' combined output must be
// byte-identical to the 1-worker run (spec.md §8) — which integer
// edge-walking guarantees, since no worker-count-dependent rounding
// enters the per-scanline math.
func Rasterize(p *TriangleParams, parity, numWorkers int, fb, aux *FramebufferMemory, texMem *TextureMemory) {
	type vtx struct {
		x, y int32
	}
	v := [3]vtx{{p.X0, p.Y0}, {p.X1, p.Y1}, {p.X2, p.Y2}}
	// insertion sort by y (3 elements)
	if v[0].y > v[1].y {
		v[0], v[1] = v[1], v[0]
	}
	if v[1].y > v[2].y {
		v[1], v[2] = v[2], v[1]
	}
	if v[0].y > v[1].y {
		v[0], v[1] = v[1], v[0]
	}

	yTop := ceilShift4(v[0].y)
	yMid := floorShift4(v[1].y)
	yBot := ceilShift4(v[2].y)

	longEdge := newEdge(v[0].x, v[0].y, v[2].x, v[2].y)
	upperEdge := newEdge(v[0].x, v[0].y, v[1].x, v[1].y)
	lowerEdge := newEdge(v[1].x, v[1].y, v[2].x, v[2].y)

	scanRange := func(yStart, yEnd int32, short edge) {
		for y := yStart; y < yEnd; y++ {
			if numWorkers == 2 && y&1 != int32(parity) {
				continue
			}
			if y < p.ClipTop || y >= p.ClipBottom {
				continue
			}
			yFixed := y<<fracScreen | 0x8

			xl := longEdge.xAt(yFixed)
			xr := short.xAt(yFixed)
			if xl > xr {
				xl, xr = xr, xl
			}
			xStart := xl >> fracScreen
			xEnd := (xr + 0xf) >> fracScreen
			if xStart < p.ClipLeft {
				xStart = p.ClipLeft
			}
			if xEnd > p.ClipRight {
				xEnd = p.ClipRight
			}
			rasterizeScanline(p, y, xStart, xEnd, fb, aux, texMem)
		}
	}

	scanRange(yTop, yMid, upperEdge)
	scanRange(yMid, yBot, lowerEdge)
}

// rasterizeScanline runs the per-pixel pipeline across [xStart, xEnd) at
// row y, computing each iterator from the triangle's top-left start
// values plus the accumulated per-pixel/per-scanline deltas.
func rasterizeScanline(p *TriangleParams, y, xStart, xEnd int32, fb, aux *FramebufferMemory, texMem *TextureMemory) {
	dy := int64(y<<fracScreen + 0x8 - p.Y0)

	baseR := int64(p.StartR) + dy*int64(p.DRDy)>>fracScreen
	baseG := int64(p.StartG) + dy*int64(p.DGDy)>>fracScreen
	baseB := int64(p.StartB) + dy*int64(p.DBDy)>>fracScreen
	baseA := int64(p.StartA) + dy*int64(p.DADy)>>fracScreen
	baseZ := int64(p.StartZ) + dy*int64(p.DZDy)>>fracScreen
	baseW := p.StartW + dy*p.DWDy>>fracScreen
	baseS := p.StartS + dy*p.DSDy>>fracScreen
	baseT := p.StartT + dy*p.DTDy>>fracScreen

	for x := xStart; x < xEnd; x++ {
		dx := int64(x<<fracScreen + 0x8 - p.X0)

		in := PixelInput{
			X: x,
			Y: y,
			R: int32(baseR + dx*int64(p.DRDx)>>fracScreen),
			G: int32(baseG + dx*int64(p.DGDx)>>fracScreen),
			B: int32(baseB + dx*int64(p.DBDx)>>fracScreen),
			A: int32(baseA + dx*int64(p.DADx)>>fracScreen),
			Z: int32(baseZ + dx*int64(p.DZDx)>>fracScreen),
			W: baseW + dx*p.DWDx>>fracScreen,
		}

		if p.Texture.Enabled {
			s := baseS + dx*p.DSDx>>fracScreen
			t := baseT + dx*p.DTDx>>fracScreen
			sPrime, tPrime, lod := MapPerspective(s, t, in.W, p.BaseLOD, &p.Texture)
			in.HasTexture = true
			in.TexSPrime = sPrime
			in.TexTPrime = tPrime
			in.TexLOD = lod
		}

		runPipeline(p, in, fb, aux, texMem)
	}
}
