package fbi

// FramebufferMemory is a flat, address-masked byte array backing the
// draw buffer, the swap-target back buffer, and the 16-bit aux (depth)
// buffer (spec.md §3 "FramebufferMemory"). All reads/writes are treated
// as little-endian 16-bit words (spec.md §6, §9 "Endianness").
type FramebufferMemory struct {
	bytes []byte
	mask  uint32
}

// NewFramebufferMemory allocates a framebuffer of sizeBytes, which must
// be a power of two (2 or 4 MiB per spec.md §3); the address mask is
// sizeBytes-1.
func NewFramebufferMemory(sizeBytes uint32) *FramebufferMemory {
	return &FramebufferMemory{bytes: make([]byte, sizeBytes), mask: sizeBytes - 1}
}

func (m *FramebufferMemory) Size() uint32 { return uint32(len(m.bytes)) }

// ReadWord reads one little-endian 16-bit word, AND-masking addr against
// the memory's address mask (spec.md §7 "Out-of-range memory access").
func (m *FramebufferMemory) ReadWord(addr uint32) uint16 {
	a := addr & m.mask & ^uint32(1)
	return uint16(m.bytes[a]) | uint16(m.bytes[a+1])<<8
}

func (m *FramebufferMemory) WriteWord(addr uint32, v uint16) {
	a := addr & m.mask & ^uint32(1)
	m.bytes[a] = byte(v)
	m.bytes[a+1] = byte(v >> 8)
}

func (m *FramebufferMemory) ReadLong(addr uint32) uint32 {
	a := addr & m.mask & ^uint32(3)
	return uint32(m.bytes[a]) | uint32(m.bytes[a+1])<<8 | uint32(m.bytes[a+2])<<16 | uint32(m.bytes[a+3])<<24
}

func (m *FramebufferMemory) WriteLong(addr uint32, v uint32) {
	a := addr & m.mask & ^uint32(3)
	m.bytes[a] = byte(v)
	m.bytes[a+1] = byte(v >> 8)
	m.bytes[a+2] = byte(v >> 16)
	m.bytes[a+3] = byte(v >> 24)
}

// Row returns the byte slice for one scanline of the given buffer
// offset, rowWidthBytes wide, used by the display engine's scan-out
// copy.
func (m *FramebufferMemory) Row(bufOffset uint32, rowWidthBytes uint32, y int) []byte {
	start := (bufOffset + uint32(y)*rowWidthBytes) & m.mask
	end := start + rowWidthBytes
	if end > uint32(len(m.bytes)) {
		end = uint32(len(m.bytes))
	}
	return m.bytes[start:end]
}

// TextureMemory is the flat, address-masked byte array backing texture
// uploads (spec.md §3 "TextureMemory").
type TextureMemory struct {
	bytes []byte
	mask  uint32
}

func NewTextureMemory(sizeBytes uint32) *TextureMemory {
	return &TextureMemory{bytes: make([]byte, sizeBytes), mask: sizeBytes - 1}
}

func (m *TextureMemory) Size() uint32 { return uint32(len(m.bytes)) }

func (m *TextureMemory) ReadByte(addr uint32) uint8 {
	return m.bytes[addr&m.mask]
}

func (m *TextureMemory) ReadWord(addr uint32) uint16 {
	a := addr & m.mask & ^uint32(1)
	return uint16(m.bytes[a]) | uint16(m.bytes[a+1])<<8
}

func (m *TextureMemory) WriteLong(addr uint32, v uint32) {
	a := addr & m.mask
	for i := uint32(0); i < 4 && a+i < uint32(len(m.bytes)); i++ {
		m.bytes[a+i] = byte(v >> (8 * i))
	}
}

// Bytes exposes the raw backing array for bulk dump/load (spec.md §6
// "Persisted state").
func (m *TextureMemory) Bytes() []byte { return m.bytes }
