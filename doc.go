// Package fbi implements a software fixed-function 3D rasterization core
// in the style of a first-generation (SST-1 class) graphics accelerator:
// a host-facing command FIFO, a register dispatcher, one or two render
// workers that rasterize triangles into emulated video memory, and a
// scanline-paced display scan-out engine.
//
// The package is a pure software pipeline — it owns no window, no audio,
// no DAC. A host wires Core's HostBus methods to its own address decode
// and pumps Display.Tick on its own HSYNC timer; everything downstream of
// those two entry points is self-contained.
package fbi
