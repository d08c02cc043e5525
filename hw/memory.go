package hw

import (
	"fmt"

	"z80box/emu/log"
	"z80box/hw/hwdefs"
)

// Memory is the 64K CPU address space. The first romSize bytes are
// write-protected.
type Memory struct {
	RAM     [hwdefs.MemSize]uint8
	romSize int
}

func NewMemory(romSize int) *Memory {
	return &Memory{romSize: max(0, min(romSize, hwdefs.MemSize))}
}

func (m *Memory) Get(addr uint16) uint8 {
	return m.RAM[addr]
}

func (m *Memory) Set(addr uint16, val uint8) {
	if int(addr) < m.romSize {
		log.ModMem.DebugZ("write to ROM").Hex16("addr", addr).Hex8("val", val).End()
		return
	}
	m.RAM[addr] = val
}

// Load copies data at addr, ignoring the write protection.
func (m *Memory) Load(addr uint16, data []byte) error {
	if int(addr)+len(data) > hwdefs.MemSize {
		return fmt.Errorf("%d bytes at %04X overflow the address space", len(data), addr)
	}
	copy(m.RAM[addr:], data)
	return nil
}

// DMAPointer returns the size bytes of memory at addr, or nil if the block
// is empty, wraps around the end of the address space, or overlaps ROM.
func (m *Memory) DMAPointer(addr uint16, size int) []byte {
	end := int(addr) + size
	if size <= 0 || end > hwdefs.MemSize || int(addr) < m.romSize {
		return nil
	}
	return m.RAM[addr:end:end]
}
